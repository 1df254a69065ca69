package auth

import (
	"os"
	"time"

	"storypark/pkg/config"
)

// EnvironmentStore reads the session from STORYPARK_SESSION_ID. It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Name() string { return "environment" }

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve gets the session from the environment
func (e *EnvironmentStore) Retrieve() (*Credential, error) {
	sessionID := os.Getenv(config.SessionEnvVar)
	if sessionID == "" {
		return nil, ErrCredentialsNotFound
	}
	return &Credential{SessionID: sessionID, LastModified: time.Now()}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete() error {
	return ErrStoreUnavailable
}

// Exists checks if the environment carries a session
func (e *EnvironmentStore) Exists() bool {
	return os.Getenv(config.SessionEnvVar) != ""
}
