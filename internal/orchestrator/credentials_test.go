package orchestrator

import (
	"path/filepath"
	"testing"
)

func TestMemoryLocalStore_SaveLoad(t *testing.T) {
	store := NewMemoryLocalStore()
	if _, err := store.Load(); err != ErrNoCredentials {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}

	creds := Credentials{DID: "did:moltbook:abc"}
	if err := store.Save(creds); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.DID != creds.DID {
		t.Fatalf("expected %q, got %q", creds.DID, got.DID)
	}
}

func TestFileLocalStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "creds.enc")
	store := NewFileLocalStore(path, "correct horse battery staple")

	creds := Credentials{
		DID:              "did:moltbook:abc",
		AgreementPublic:  "pub",
		AgreementPrivate: "priv",
		SigningPublic:    "spub",
		SigningPrivate:   "spriv",
	}
	if err := store.Save(creds); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != creds {
		t.Fatalf("expected round trip, got %+v", got)
	}
}

func TestFileLocalStore_WrongPasswordFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "creds.enc")
	store := NewFileLocalStore(path, "right-password")
	store.Save(Credentials{DID: "did:moltbook:abc"})

	wrongStore := NewFileLocalStore(path, "wrong-password")
	if _, err := wrongStore.Load(); err == nil {
		t.Fatal("expected decryption to fail with the wrong password")
	}
}

func TestFileLocalStore_LoadMissingFile(t *testing.T) {
	store := NewFileLocalStore(filepath.Join(t.TempDir(), "missing.enc"), "pw")
	if _, err := store.Load(); err != ErrNoCredentials {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}
