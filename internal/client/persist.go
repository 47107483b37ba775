package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/good-yellow-bee/brightminds/internal/models"
)

// Session is the persisted part of the auth slice. Nothing else in the
// store is written to disk.
type Session struct {
	Token           string              `yaml:"token"`
	User            *models.UserProfile `yaml:"user,omitempty"`
	IsAuthenticated bool                `yaml:"isAuthenticated"`
	Role            models.Role         `yaml:"role,omitempty"`
}

func sessionFrom(a AuthState) Session {
	s := Session{
		Token:           a.Token,
		IsAuthenticated: a.IsAuthenticated,
		Role:            a.Role,
	}
	if a.User != nil {
		u := *a.User
		s.User = &u
	}
	return s
}

func (s Session) authState() AuthState {
	return AuthState{
		Token:           s.Token,
		User:            s.User,
		IsAuthenticated: s.IsAuthenticated && s.Token != "",
		Role:            s.Role,
	}
}

// DefaultSessionPath returns the per-user session file location.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "brightminds", "session.yaml"), nil
}

// LoadSession reads a session file. A missing file returns nil, nil.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	return &s, nil
}

// SaveSession writes the session with owner-only permissions. A signed-out
// session removes the file.
func SaveSession(path string, s Session) error {
	if !s.IsAuthenticated {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session: %w", err)
		}
		return nil
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
