package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	errs "storypark/pkg/errors"
)

// Credential is a stored Storypark session
type Credential struct {
	SessionID    string    `json:"session_id"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is a place a session credential can live
type CredentialStore interface {
	// Name identifies the store in status output
	Name() string

	// Store saves the credential, replacing any previous one
	Store(cred *Credential) error

	// Retrieve returns the stored credential or ErrCredentialsNotFound
	Retrieve() (*Credential, error)

	// Delete removes the stored credential
	Delete() error

	// Exists checks if a credential is stored
	Exists() bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager over the keyring, when available,
// and the encrypted credentials file
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over the given stores in priority order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the session in the first store that accepts it
func (m *Manager) Store(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", ErrInvalidCredentials
	}

	cred := &Credential{SessionID: sessionID, LastModified: time.Now()}

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(cred)
		if err == nil {
			return store.Name(), nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return "", ErrStoreUnavailable
}

// Retrieve returns the credential from the first store that has one, along
// with that store's name
func (m *Manager) Retrieve() (*Credential, string, error) {
	for _, store := range m.stores {
		if cred, err := store.Retrieve(); err == nil && cred != nil {
			return cred, store.Name(), nil
		}
	}
	return nil, "", ErrCredentialsNotFound
}

// Delete removes the credential from every store holding one
func (m *Manager) Delete() error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		err := store.Delete()
		switch {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrCredentialsNotFound), errors.Is(err, ErrStoreUnavailable):
		default:
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return ErrCredentialsNotFound
	}
	return nil
}

// StoreStatus reports whether one store holds a credential
type StoreStatus struct {
	Name   string
	Stored bool
}

// Status lists every store and whether it holds a credential
func (m *Manager) Status() []StoreStatus {
	statuses := make([]StoreStatus, 0, len(m.stores))
	for _, store := range m.stores {
		statuses = append(statuses, StoreStatus{Name: store.Name(), Stored: store.Exists()})
	}
	return statuses
}

// ResolveSession picks the session for a crawl. An explicit value from flags,
// config or the environment wins; otherwise the stored credential is used.
// It returns the session and where it came from.
func ResolveSession(explicit string, m *Manager) (string, string, error) {
	if s := strings.TrimSpace(explicit); s != "" {
		return s, "config", nil
	}
	if m != nil {
		if cred, source, err := m.Retrieve(); err == nil {
			return cred.SessionID, source, nil
		}
	}
	return "", "", errs.ErrMissingSession
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "storypark")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "storypark")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "storypark")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "storypark")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Mask hides all but the first 4 and last 4 characters of a secret
func Mask(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
