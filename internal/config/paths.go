package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigDirName is the per-user configuration directory name.
const ConfigDirName = "genefit"

// ConfigDirectory returns the platform-appropriate config directory.
//   - Windows: %APPDATA%\GeneFit
//   - Unix: ~/.config/genefit
func ConfigDirectory() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "GeneFit")
		}
		if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
			return filepath.Join(userProfile, "AppData", "Roaming", "GeneFit")
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", ConfigDirName)
	}
	return filepath.Join(os.TempDir(), ConfigDirName)
}

// DefaultConfigPath returns the default location of the INI config file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDirectory(), "config")
}

// LogDirectory returns the directory used for rotated log files.
func LogDirectory() string {
	return filepath.Join(ConfigDirectory(), "logs")
}

// EnsureConfigDirectory creates the config directory with owner-only permissions.
func EnsureConfigDirectory() error {
	return os.MkdirAll(ConfigDirectory(), 0700)
}
