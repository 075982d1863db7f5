package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoCredential is returned when no bearer token is available.
// Callers treat it as "not signed in", not as a failure.
var ErrNoCredential = errors.New("no credential")

// Source provides the bearer token for API requests.
type Source interface {
	Token() (string, error)
}

// StaticToken is a fixed in-memory token, mainly for tests and CLI flags.
type StaticToken string

func (s StaticToken) Token() (string, error) {
	if s == "" {
		return "", ErrNoCredential
	}
	return string(s), nil
}

// FileStore persists the bearer token in a local file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Token() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoCredential
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoCredential
	}
	return token, nil
}

// Save writes the token, creating the file with owner-only permissions.
func (f *FileStore) Save(token string) error {
	if err := os.WriteFile(f.path, []byte(strings.TrimSpace(token)+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Clear removes the stored token. Missing file is not an error.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
