package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Profile holds the minimal user identity kept alongside the tokens.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
}

type state struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	User         *Profile `json:"user,omitempty"`
}

// Store holds the current bearer token and user profile. The core only ever
// reads the token at call time; refreshing or invalidating it is the caller's
// concern. The store persists itself as session.json under the storage root
// so a restarted client stays signed in.
type Store struct {
	mu     sync.RWMutex
	path   string
	state  state
	logger *zap.Logger
}

func NewStore(storageRoot string, logger *zap.Logger) *Store {
	s := &Store{
		path:   filepath.Join(storageRoot, "session.json"),
		logger: logger,
	}
	s.load()
	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read session file",
				zap.String("path", s.path),
				zap.Error(err))
		}
		return
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn("Discarding unreadable session file",
			zap.String("path", s.path),
			zap.Error(err))
		return
	}
	s.state = st
}

// Set stores a new token pair and profile and persists them.
func (s *Store) Set(accessToken, refreshToken string, user *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create storage root: %w", err)
	}
	// 0600: the file carries bearer tokens.
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.logger.Info("Session stored",
		zap.String("path", s.path),
		zap.Bool("has_refresh_token", refreshToken != ""))
	return nil
}

// Token returns the current bearer token. The second return value reports
// whether a token is present at all.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken, s.state.AccessToken != ""
}

// RefreshToken returns the stored refresh token, if any.
func (s *Store) RefreshToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.RefreshToken, s.state.RefreshToken != ""
}

// User returns the stored profile, if a user is signed in.
func (s *Store) User() (*Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return nil, false
	}
	u := *s.state.User
	return &u, true
}

// Clear drops the in-memory session and removes the persisted file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state{}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	s.logger.Info("Session cleared")
	return nil
}
