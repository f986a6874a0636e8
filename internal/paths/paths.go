// Package paths resolves where khatt keeps its configuration and its
// database.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "khatt"

// Environment overrides.
const (
	EnvConfigDir = "KHATT_CONFIG_DIR"
	EnvDataDir   = "KHATT_DATA_DIR"
)

// ConfigFile is the name of the configuration file inside the config dir.
const ConfigFile = "config.yaml"

// lookup holds the platform queries; tests replace them.
var lookup = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getenv        func(string) string
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getenv:        os.Getenv,
}

// DefaultConfigDir returns the per-user configuration directory.
//
//	linux:  $XDG_CONFIG_HOME/khatt or ~/.config/khatt
//	others: os.UserConfigDir()/khatt
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the per-user data directory.
//
//	linux:  $XDG_DATA_HOME/khatt or ~/.local/share/khatt
//	others: os.UserConfigDir()/khatt
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, homeRel string) (string, error) {
	if lookup.goos != "linux" {
		dir, err := lookup.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if v := lookup.getenv(env); v != "" {
		return filepath.Join(v, AppName), nil
	}
	home, err := lookup.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, AppName), nil
}

// ResolveConfigDir picks the configuration directory: flag, then
// KHATT_CONFIG_DIR, then DefaultConfigDir. Explicit values are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	return resolve(DefaultConfigDir, flag, lookup.getenv(EnvConfigDir))
}

// ResolveDataDir picks the data directory: flag, then KHATT_DATA_DIR, then
// the data_dir value from config.yaml, then DefaultDataDir.
func ResolveDataDir(flag, configured string) (string, error) {
	return resolve(DefaultDataDir, flag, lookup.getenv(EnvDataDir), configured)
}

func resolve(fallback func() (string, error), candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	return fallback()
}
