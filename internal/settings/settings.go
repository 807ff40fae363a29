// Package settings is the credential source: a YAML settings file read
// through viper, with environment overrides and change notifications.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// FileName is the default settings file name.
const FileName = "settings.yaml"

// Settings keys that are not credentials.
const (
	KeySlackWebhook = "gerrit.notify.slack_webhook"
)

// Settings reads and writes the settings file.
type Settings struct {
	path   string
	logger *zap.Logger

	mu   sync.RWMutex
	v    *viper.Viper
	file *viper.Viper
}

// Load reads the settings file at path. A missing file yields empty settings.
func Load(path string, logger *zap.Logger) (*Settings, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Settings{
		path:   path,
		logger: logger.Named("settings"),
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}

	return s, nil
}

// DefaultPath returns the settings file inside dir.
func DefaultPath(dir string) string {
	return filepath.Join(dir, FileName)
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetConfigPermissions(0o600)
	return v
}

func readFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound) {
		return nil
	}

	return err
}

// Reload re-reads the settings file from disk.
func (s *Settings) Reload() error {
	v := newViper(s.path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readFile(v); err != nil {
		return fmt.Errorf("failed to read settings %s: %w", s.path, err)
	}

	fv := newViper(s.path)
	if err := readFile(fv); err != nil {
		return fmt.Errorf("failed to read settings %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.v = v
	s.file = fv
	s.mu.Unlock()

	s.logger.Debug("settings loaded", zap.String("path", s.path))

	return nil
}

// Path returns the settings file location.
func (s *Settings) Path() string {
	return s.path
}

// Get returns the value of key. Environment variables named after the key
// with dots replaced by underscores (GERRIT_AUTH_URL) take precedence.
func (s *Settings) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.v.IsSet(key) {
		return "", false
	}

	return s.v.GetString(key), true
}

// FileOnly returns a view of the settings that ignores environment
// overrides, for callers that write values back to disk.
func (s *Settings) FileOnly() FileOnly {
	return FileOnly{s: s}
}

// FileOnly reads keys as stored in the settings file.
type FileOnly struct {
	s *Settings
}

// Get returns the value of key as written in the settings file.
func (f FileOnly) Get(key string) (string, bool) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()

	if !f.s.file.IsSet(key) {
		return "", false
	}

	return f.s.file.GetString(key), true
}

// Update writes values into the settings file and reloads it. Environment
// overrides are never written to disk.
func (s *Settings) Update(values map[string]string) error {
	fv := newViper(s.path)
	if err := readFile(fv); err != nil {
		return fmt.Errorf("failed to read settings %s: %w", s.path, err)
	}

	for k, v := range values {
		fv.Set(k, v)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	if err := fv.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	return s.Reload()
}
