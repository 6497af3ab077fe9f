package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Saved is the on-disk form of a session.
type Saved struct {
	Token string `yaml:"token"`
	Role  string `yaml:"role"`
}

// FileStore keeps a session between crmctl invocations.
type FileStore struct {
	Path string
}

// DefaultPath is crm/session.yaml under the user's config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "crm", "session.yaml"), nil
}

// Load restores the saved session into s. A missing file leaves s signed out.
func (f FileStore) Load(s *Session) error {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		s.End()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session %s: %w", f.Path, err)
	}
	var saved Saved
	if err := yaml.Unmarshal(b, &saved); err != nil {
		return fmt.Errorf("decode session %s: %w", f.Path, err)
	}
	if saved.Token == "" {
		s.End()
		return nil
	}
	s.Begin(saved.Token, saved.Role)
	return nil
}

// Save writes s with owner-only permissions.
func (f FileStore) Save(s *Session) error {
	b, err := yaml.Marshal(Saved{Token: s.Token(), Role: string(s.Role())})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(f.Path, b, 0o600); err != nil {
		return fmt.Errorf("write session %s: %w", f.Path, err)
	}
	return nil
}

// Clear removes the saved session.
func (f FileStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session %s: %w", f.Path, err)
	}
	return nil
}
