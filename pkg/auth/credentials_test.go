package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"storypark/pkg/config"
	errs "storypark/pkg/errors"
)

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	source, err := manager.Store("  test_session_id_12345 \n")
	if err != nil {
		t.Fatalf("Failed to store session: %v", err)
	}
	if source != "mock" {
		t.Errorf("Expected store name mock, got %s", source)
	}

	cred, from, err := manager.Retrieve()
	if err != nil {
		t.Fatalf("Failed to retrieve session: %v", err)
	}
	if cred.SessionID != "test_session_id_12345" {
		t.Errorf("SessionID mismatch: got %q", cred.SessionID)
	}
	if from != "mock" {
		t.Errorf("Expected source mock, got %s", from)
	}
	if cred.LastModified.IsZero() {
		t.Error("Expected LastModified to be set")
	}

	if err := manager.Delete(); err != nil {
		t.Errorf("Failed to delete session: %v", err)
	}
	if mockStore.Exists() {
		t.Error("Expected mock store to be empty after delete")
	}
	if _, _, err := manager.Retrieve(); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
	if err := manager.Delete(); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound on second delete, got %v", err)
	}
}

func TestManagerRejectsEmptySession(t *testing.T) {
	manager, _ := NewMockManager()
	if _, err := manager.Store("   "); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	primary := NewMockStore("keyring")
	primary.StoreError = errors.New("keychain locked")
	secondary := NewMockStore("encrypted file")
	manager := NewManagerWithStores(primary, secondary)

	source, err := manager.Store("abc")
	if err != nil {
		t.Fatalf("Failed to store session: %v", err)
	}
	if source != "encrypted file" {
		t.Errorf("Expected fallback store, got %s", source)
	}
	if primary.Exists() || !secondary.Exists() {
		t.Error("Expected only the fallback store to hold the session")
	}

	statuses := manager.Status()
	if len(statuses) != 2 || statuses[0].Stored || !statuses[1].Stored {
		t.Errorf("Unexpected status: %+v", statuses)
	}
}

func TestResolveSession(t *testing.T) {
	manager, store := NewMockManager()

	if _, _, err := ResolveSession("", manager); !errors.Is(err, errs.ErrMissingSession) {
		t.Errorf("Expected ErrMissingSession, got %v", err)
	}
	if _, _, err := ResolveSession("", nil); !errors.Is(err, errs.ErrMissingSession) {
		t.Errorf("Expected ErrMissingSession without manager, got %v", err)
	}

	if err := store.Store(&Credential{SessionID: "stored"}); err != nil {
		t.Fatal(err)
	}

	session, source, err := ResolveSession("", manager)
	if err != nil || session != "stored" || source != "mock" {
		t.Errorf("Expected stored session from mock, got %q %q %v", session, source, err)
	}

	session, source, err = ResolveSession("explicit", manager)
	if err != nil || session != "explicit" || source != "config" {
		t.Errorf("Expected explicit session to win, got %q %q %v", session, source, err)
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "credentials.enc")
	t.Setenv(PassphraseEnvVar, "test_passphrase_123")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}
	if store.Exists() {
		t.Error("Expected empty store")
	}

	if err := store.Store(&Credential{SessionID: "encrypted_session"}); err != nil {
		t.Fatalf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve()
	if err != nil {
		t.Fatalf("Failed to retrieve from encrypted file: %v", err)
	}
	if retrieved.SessionID != "encrypted_session" {
		t.Errorf("SessionID mismatch after encryption/decryption")
	}

	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(fileContent, []byte("encrypted_session")) {
		t.Error("File contains plaintext session ID")
	}

	info, err := os.Stat(tempFile)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 permissions, got %v", info.Mode().Perm())
	}

	if err := store.Delete(); err != nil {
		t.Errorf("Failed to delete: %v", err)
	}
	if _, err := store.Retrieve(); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound after delete, got %v", err)
	}
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv(PassphraseEnvVar, "first")
	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Store(&Credential{SessionID: "secret"}); err != nil {
		t.Fatal(err)
	}

	t.Setenv(PassphraseEnvVar, "second")
	other, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Retrieve(); err == nil {
		t.Error("Expected decryption to fail with a different passphrase")
	}
}

func TestEncryptedFileStoreGeneratesPassphrase(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(PassphraseEnvVar, "")

	store, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Store(&Credential{SessionID: "generated"}); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, ".passphrase")); err != nil {
		t.Errorf("Expected passphrase file: %v", err)
	}

	reopened, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		t.Fatal(err)
	}
	cred, err := reopened.Retrieve()
	if err != nil || cred.SessionID != "generated" {
		t.Errorf("Expected reopened store to decrypt, got %v %v", cred, err)
	}
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv(config.SessionEnvVar, "env_session")

	store := NewEnvironmentStore()
	if !store.Exists() {
		t.Error("Expected environment credential to exist")
	}

	cred, err := store.Retrieve()
	if err != nil {
		t.Fatalf("Failed to retrieve from environment: %v", err)
	}
	if cred.SessionID != "env_session" {
		t.Errorf("SessionID mismatch: got %s, want env_session", cred.SessionID)
	}

	if err := store.Store(&Credential{SessionID: "x"}); err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
	if err := store.Delete(); err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable on delete")
	}
}

func TestMask(t *testing.T) {
	if got := Mask("short"); got != "********" {
		t.Errorf("Expected full mask, got %s", got)
	}
	if got := Mask("abcd1234efgh5678"); got != "abcd...5678" {
		t.Errorf("Unexpected mask: %s", got)
	}
}

func TestShowSessionGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowSessionGuide(&buf)
	if !bytes.Contains(buf.Bytes(), []byte("_session_id")) {
		t.Error("Expected guide to name the session cookie")
	}
	if !bytes.Contains(buf.Bytes(), []byte(config.SessionEnvVar)) {
		t.Error("Expected guide to name the environment variable")
	}
}
