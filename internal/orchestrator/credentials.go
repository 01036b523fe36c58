// Package orchestrator is the client-side composer: it is where private
// keys actually live, running the register -> create-channel (wrap
// keys) -> accept invitation (unwrap) -> encrypt -> send -> fetch ->
// decrypt loop against the service façade in internal/server. Nothing
// in this package is reachable from the server: a server-side
// deployment never holds a private key.
package orchestrator

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"os"
	"sync"

	"github.com/moltbook/privacy/internal/crypto"
)

// Credentials is everything an agent needs to resume a session: its DID,
// the long-term X25519 key-agreement keypair, and the dedicated Ed25519
// signing keypair, persisted across restarts through a pluggable local
// store.
type Credentials struct {
	DID              string `json:"did"`
	AgreementPublic  string `json:"agreementPublic"`
	AgreementPrivate string `json:"agreementPrivate"`
	SigningPublic    string `json:"signingPublic"`
	SigningPrivate   string `json:"signingPrivate"`
}

// ErrNoCredentials is returned by Load when nothing has been saved yet.
var ErrNoCredentials = errors.New("no credentials stored")

// LocalStore is the pluggable persistence boundary for Credentials.
type LocalStore interface {
	Save(Credentials) error
	Load() (Credentials, error)
}

// MemoryLocalStore is a LocalStore that keeps credentials only for the
// lifetime of the process. Useful for tests and short-lived sessions.
type MemoryLocalStore struct {
	mu  sync.Mutex
	set bool
	cur Credentials
}

func NewMemoryLocalStore() *MemoryLocalStore {
	return &MemoryLocalStore{}
}

func (m *MemoryLocalStore) Save(c Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = c
	m.set = true
	return nil
}

func (m *MemoryLocalStore) Load() (Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return Credentials{}, ErrNoCredentials
	}
	return m.cur, nil
}

// FileLocalStore persists credentials to a single file on disk,
// encrypted at rest under a passphrase via argon2 key derivation
// (internal/crypto.DeriveStoreKey) paired with AES-256-GCM.
// Layout: [32-byte salt][12-byte nonce][ciphertext].
type FileLocalStore struct {
	path     string
	password string
}

func NewFileLocalStore(path, password string) *FileLocalStore {
	return &FileLocalStore{path: path, password: password}
}

func (f *FileLocalStore) Save(c Credentials) error {
	plaintext, err := json.Marshal(c)
	if err != nil {
		return err
	}

	salt := crypto.NewStoreSalt()
	key := crypto.DeriveStoreKey(f.password, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)

	return os.WriteFile(f.path, out, 0600)
}

func (f *FileLocalStore) Load() (Credentials, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, ErrNoCredentials
		}
		return Credentials{}, err
	}

	const saltLen, nonceLen = 32, 12
	if len(raw) < saltLen+nonceLen {
		return Credentials{}, errors.New("corrupt credentials file")
	}
	salt := raw[:saltLen]
	nonce := raw[saltLen : saltLen+nonceLen]
	ciphertext := raw[saltLen+nonceLen:]

	key := crypto.DeriveStoreKey(f.password, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return Credentials{}, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return Credentials{}, err
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Credentials{}, crypto.ErrCryptoFailure
	}

	var c Credentials
	if err := json.Unmarshal(plaintext, &c); err != nil {
		return Credentials{}, err
	}
	return c, nil
}

var _ LocalStore = (*MemoryLocalStore)(nil)
var _ LocalStore = (*FileLocalStore)(nil)
