package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used below the OS data and config roots.
const AppName = "daybook"

// DefaultDataDir returns the per-user application data directory:
// $XDG_DATA_HOME/daybook (or ~/.local/share/daybook) on Linux and
// <UserConfigDir>/daybook elsewhere.
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" && filepath.IsAbs(xdg) {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine user data directory: %w", err)
		}
		return filepath.Join(home, ".local", "share", AppName), nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user data directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// DefaultConfigFile returns <UserConfigDir>/daybook/config.toml.
func DefaultConfigFile() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName, "config.toml"), nil
}
