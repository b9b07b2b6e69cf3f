package config

import (
	"os"
	"path/filepath"
)

// Dir returns the pkgmux config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/pkgmux if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "pkgmux"), nil
}

// DataDir returns the pkgmux data directory (user-scope ledger lives
// here), respecting XDG_DATA_HOME.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "pkgmux"), nil
}

// SystemDataDir is where the system-scope ledger lives.
const SystemDataDir = "/var/lib/pkgmux"

// ExtensionDir returns the user extension directory ({config}/plugins).
func ExtensionDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "plugins"), nil
}

// SystemExtensionDir is where system-scope extensions live.
const SystemExtensionDir = "/etc/pkgmux/plugins"
