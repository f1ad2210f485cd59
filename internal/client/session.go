package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Session is the portal's client-side session context: the connected
// wallet and the advisory token from login. It is passed explicitly to
// the components that need it instead of living in ambient storage.
type Session struct {
	WalletAddress string `json:"walletAddress"`   // Connected wallet address
	Token         string `json:"token,omitempty"` // Session token from login
}

// SessionStore persists a session as a JSON file with explicit
// load/save boundaries.
type SessionStore struct {
	path string // Session file location
}

// NewSessionStore creates a store backed by the given file path
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Load reads the stored session; a missing file yields (nil, nil).
func (s *SessionStore) Load() (*Session, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil // No session saved yet
		}
		return nil, err
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Save writes the session to disk.
func (s *SessionStore) Save(session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o600)
}

// Clear removes the stored session.
func (s *SessionStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
