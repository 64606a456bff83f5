// Package session holds the signed-in user's credentials: the bearer token
// and the role resolved at login. The login flow is the only writer; the REST
// and realtime clients only ever read.
package session

import (
	"encoding/json"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/fleetwatch/fleet-client/models"
)

// Store is the read side shared with the network clients.
type Store interface {
	Token() string
	Role() models.Role
	Authenticated() bool
}

// Writer is the write side, held only by the login flow.
type Writer interface {
	SetCredentials(token string, role models.Role) error
}

type credentials struct {
	AuthToken string      `json:"authToken"`
	Role      models.Role `json:"role"`
}

// MemStore keeps credentials in memory only. Used by tests and by flows that
// should not outlive the process.
type MemStore struct {
	mu    sync.RWMutex
	creds credentials
}

// NewMemStore returns an empty in-memory store
func NewMemStore() *MemStore { return &MemStore{} }

// SetCredentials stores the token and role from a successful login
func (m *MemStore) SetCredentials(token string, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = credentials{AuthToken: token, Role: role}
	return nil
}

// Clear drops the stored credentials
func (m *MemStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = credentials{}
}

// Token returns the stored bearer token
func (m *MemStore) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.AuthToken
}

// Role returns the stored role
func (m *MemStore) Role() models.Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.Role
}

// Authenticated reports whether a token is present
func (m *MemStore) Authenticated() bool { return m.Token() != "" }

// FileStore persists credentials as a small JSON file, the CLI counterpart of
// the app's key-value storage under the authToken key.
type FileStore struct {
	path string
	mem  MemStore
}

// NewFileStore opens the store at path, loading existing credentials if any
func NewFileStore(path string) (*FileStore, error) {
	f := &FileStore{path: path}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, err
	}
	var c credentials
	if err := json.Unmarshal(b, &c); err != nil {
		// a corrupt session file is treated as signed out
		zap.S().Warnw("discarding unreadable session file", "path", path, "error", err)
		return f, nil
	}
	f.mem.creds = c
	return f, nil
}

// SetCredentials stores the token and role and writes them through to disk
func (f *FileStore) SetCredentials(token string, role models.Role) error {
	_ = f.mem.SetCredentials(token, role)
	return f.flush()
}

// Clear drops the credentials and removes the file
func (f *FileStore) Clear() error {
	f.mem.Clear()
	err := os.Remove(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *FileStore) flush() error {
	f.mem.mu.RLock()
	b, err := json.Marshal(f.mem.creds)
	f.mem.mu.RUnlock()
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, b, 0o600)
}

// Token returns the stored bearer token
func (f *FileStore) Token() string { return f.mem.Token() }

// Role returns the stored role
func (f *FileStore) Role() models.Role { return f.mem.Role() }

// Authenticated reports whether a token is present
func (f *FileStore) Authenticated() bool { return f.mem.Authenticated() }
