package platform

import (
	"os"
	"path/filepath"
)

const appDirName = "unidown"

// ConfigDir returns the per-user directory for config and cache files.
func ConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appDirName)
}

// DefaultToolDir is where managed tool binaries get installed: a bin
// directory next to the executable, falling back to the config dir when
// the executable location cannot be determined.
func DefaultToolDir() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join(ConfigDir(), "bin")
	}
	return filepath.Join(filepath.Dir(exe), "bin")
}

func DefaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}
