// Package profile manages the per-profile directory tree under ~/.hermes
// and the encrypted credential stored in it.
package profile

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.hermes.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".hermes")
}

// Dir returns the profile-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "profiles", name)
}

// LockPath returns the lock file path for a profile.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// DBPath returns the app-owned hermes.db path.
func DBPath(name string) string {
	return filepath.Join(Dir(name), "hermes.db")
}

// CredentialPath returns the encrypted credential file path.
func CredentialPath(name string) string {
	return filepath.Join(Dir(name), "credential")
}

// LogDir returns the log directory for a profile.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the client log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "hermes.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the profile directory tree with proper permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		LogDir(name),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
