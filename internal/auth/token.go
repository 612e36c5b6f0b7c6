// Package auth stores the bearer token required by the bill-analysis
// collaborator. The token lives in a 0600 file under the user config dir.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrUnauthenticated is returned when an operation needs a token and the
// store holds none.
var ErrUnauthenticated = errors.New("not authenticated")

// TokenStore is a file-backed token store. The zero path resolves to
// $XDG_CONFIG_HOME/billing/token (or the OS equivalent).
type TokenStore struct {
	mu   sync.Mutex
	path string
}

// NewTokenStore creates a store at path; an empty path falls back to the
// user config directory.
func NewTokenStore(path string) (*TokenStore, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve user config dir: %w", err)
		}
		path = filepath.Join(dir, "billing", "token")
	}
	return &TokenStore{path: path}, nil
}

// Token returns the stored token, or ErrUnauthenticated when absent.
func (s *TokenStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrUnauthenticated
	}
	return token, nil
}

// SetToken persists the token with owner-only permissions.
func (s *TokenStore) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// RemoveToken deletes the stored token. Removing a missing token is a no-op.
func (s *TokenStore) RemoveToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether a non-empty token is stored.
func (s *TokenStore) IsAuthenticated() bool {
	_, err := s.Token()
	return err == nil
}
