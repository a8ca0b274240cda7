// Package prefs stores user preferences in a viper instance, optionally
// persisted to a YAML file.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Store is a PreferenceStore backed by viper. Only explicitly written values
// count as set; the store never registers defaults.
type Store struct {
	mu     sync.RWMutex
	v      *viper.Viper
	path   string
	logger *logrus.Logger
}

// NewStore opens the preference store. An empty path keeps preferences in
// memory only; a missing file starts empty.
func NewStore(path string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Store{
		v:      viper.New(),
		path:   path,
		logger: logger,
	}
	if path == "" {
		return s, nil
	}

	if filepath.Ext(path) == "" {
		return nil, fmt.Errorf("preferences file %q needs an extension", path)
	}

	s.v.SetConfigFile(path)
	if err := s.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading preferences: %w", err)
		}
		logger.WithField("path", path).Info("no preferences file yet, starting empty")
	}

	return s, nil
}

// IsSet reports whether key has an explicit value
func (s *Store) IsSet(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.IsSet(key)
}

// GetString returns the value for key as a string
func (s *Store) GetString(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetString(key)
}

// GetInt returns the value for key as an int
func (s *Store) GetInt(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetInt(key)
}

// GetBool returns the value for key as a bool
func (s *Store) GetBool(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetBool(key)
}

// Set writes key and persists the store
func (s *Store) Set(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(key, value)
	if err := s.persist(); err != nil {
		return err
	}

	s.logger.WithField("key", key).Debug("preference set")
	return nil
}

// Unset removes key (and anything nested under it) and persists the store.
// viper cannot delete keys, so the instance is rebuilt without them.
func (s *Store) Unset(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := strings.ToLower(key)
	next := viper.New()
	for _, k := range s.v.AllKeys() {
		if k == target || strings.HasPrefix(k, target+".") {
			continue
		}
		next.Set(k, s.v.Get(k))
	}
	if s.path != "" {
		next.SetConfigFile(s.path)
	}
	s.v = next

	if err := s.persist(); err != nil {
		return err
	}

	s.logger.WithField("key", key).Debug("preference cleared")
	return nil
}

// persist must be called with mu held
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("error creating preferences directory: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("error writing preferences: %w", err)
	}
	return nil
}
