package license

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Dynag1/VocaNote/internal/config"
)

// PersistedState is the on-disk license record.
// An empty LicenseKey means no entitlement has been recorded.
type PersistedState struct {
	LicenseKey     string  `json:"license_key"`
	ExpiryDate     *string `json:"expiry_date"`
	ActivationDate *string `json:"activation_date"`
	Version        string  `json:"version"`
}

// Store persists the license state
type Store interface {
	Load() (PersistedState, error)
	Save(PersistedState) error
	Path() string
}

// FileStore keeps the state in a single JSON file
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the state file. A missing file is an empty state, not an error.
func (s *FileStore) Load() (PersistedState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return PersistedState{}, nil
	}
	if err != nil {
		return PersistedState{}, fmt.Errorf("failed to read license state: %w", err)
	}

	var state PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return PersistedState{}, fmt.Errorf("failed to parse license state: %w", err)
	}
	return state, nil
}

// Save writes the state atomically: a temp file in the same directory is
// written, synced and renamed over the target.
func (s *FileStore) Save(state PersistedState) error {
	if state.Version == "" {
		state.Version = config.LicenseSchemaVersion
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal license state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create license directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp license file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write license state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync license state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close license state: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set license file permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace license state: %w", err)
	}
	return nil
}
