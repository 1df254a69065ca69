package auth

import "sync"

// MockStore implements CredentialStore in memory for tests
type MockStore struct {
	name string
	cred *Credential
	mu   sync.RWMutex

	StoreError    error
	RetrieveError error
	DeleteError   error
}

// NewMockStore creates an empty mock store
func NewMockStore(name string) *MockStore {
	return &MockStore{name: name}
}

func (m *MockStore) Name() string { return m.name }

func (m *MockStore) Store(cred *Credential) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if cred == nil || cred.SessionID == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := *cred
	m.cred = &c
	return nil
}

func (m *MockStore) Retrieve() (*Credential, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cred == nil {
		return nil, ErrCredentialsNotFound
	}
	c := *m.cred
	return &c, nil
}

func (m *MockStore) Delete() error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return ErrCredentialsNotFound
	}
	m.cred = nil
	return nil
}

func (m *MockStore) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred != nil
}

// NewMockManager creates a Manager over a single mock store
func NewMockManager() (*Manager, *MockStore) {
	store := NewMockStore("mock")
	return NewManagerWithStores(store), store
}
