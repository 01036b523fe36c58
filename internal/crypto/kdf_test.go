package crypto

import (
	"bytes"
	"testing"
)

func TestDeriveStoreKey_ProducesDeterministicOutput(t *testing.T) {
	passphrase := "correct horse battery staple"
	salt := []byte("0123456789abcdef0123456789abcdef") // 32 bytes

	key1 := DeriveStoreKey(passphrase, salt)
	key2 := DeriveStoreKey(passphrase, salt)

	if len(key1) != 32 {
		t.Fatalf("expected key length 32, got %d", len(key1))
	}
	if !bytes.Equal(key1, key2) {
		t.Fatal("same passphrase and salt should produce the same key")
	}
}

func TestDeriveStoreKey_DifferentSaltDiffers(t *testing.T) {
	passphrase := "correct horse battery staple"

	key1 := DeriveStoreKey(passphrase, NewStoreSalt())
	key2 := DeriveStoreKey(passphrase, NewStoreSalt())

	if bytes.Equal(key1, key2) {
		t.Fatal("independently generated salts should not collide")
	}
}

func TestNewStoreSalt_Length(t *testing.T) {
	salt := NewStoreSalt()
	if len(salt) != storeSaltLen {
		t.Fatalf("expected salt length %d, got %d", storeSaltLen, len(salt))
	}
}
