package paths

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlatform swaps in a fixed platform for the duration of a test.
func fakePlatform(t *testing.T, goos string, env map[string]string) {
	t.Helper()
	saved := lookup
	t.Cleanup(func() { lookup = saved })
	lookup.goos = goos
	lookup.homeDir = func() (string, error) { return "/home/scribe", nil }
	lookup.userConfigDir = func() (string, error) { return "/Users/scribe/Library/Application Support", nil }
	lookup.getenv = func(k string) string { return env[k] }
}

func TestDefaultDirs(t *testing.T) {
	tests := []struct {
		name       string
		goos       string
		env        map[string]string
		wantConfig string
		wantData   string
	}{
		{
			name:       "linux without xdg",
			goos:       "linux",
			wantConfig: "/home/scribe/.config/khatt",
			wantData:   "/home/scribe/.local/share/khatt",
		},
		{
			name:       "linux with xdg",
			goos:       "linux",
			env:        map[string]string{"XDG_CONFIG_HOME": "/xdg/config", "XDG_DATA_HOME": "/xdg/data"},
			wantConfig: "/xdg/config/khatt",
			wantData:   "/xdg/data/khatt",
		},
		{
			name:       "darwin",
			goos:       "darwin",
			env:        map[string]string{"XDG_DATA_HOME": "/ignored"},
			wantConfig: "/Users/scribe/Library/Application Support/khatt",
			wantData:   "/Users/scribe/Library/Application Support/khatt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakePlatform(t, tt.goos, tt.env)

			got, err := DefaultConfigDir()
			require.NoError(t, err)
			assert.Equal(t, tt.wantConfig, got)

			got, err = DefaultDataDir()
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, got)
		})
	}
}

func TestDefaultDirHomeError(t *testing.T) {
	fakePlatform(t, "linux", nil)
	lookup.homeDir = func() (string, error) { return "", errors.New("no home") }

	_, err := DefaultDataDir()
	assert.Error(t, err)
}

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"flag wins", "/flag/config", "/env/config", "/flag/config"},
		{"env when no flag", "", "/env/config", "/env/config"},
		{"platform default", "", "", "/home/scribe/.config/khatt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakePlatform(t, "linux", map[string]string{EnvConfigDir: tt.env})
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	tests := []struct {
		name       string
		flag       string
		env        string
		configured string
		want       string
	}{
		{"flag wins", "/flag/data", "/env/data", "/config/data", "/flag/data"},
		{"env over config", "", "/env/data", "/config/data", "/env/data"},
		{"config value", "", "", "/config/data", "/config/data"},
		{"platform default", "", "", "", "/home/scribe/.local/share/khatt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakePlatform(t, "linux", map[string]string{EnvDataDir: tt.env})
			got, err := ResolveDataDir(tt.flag, tt.configured)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveMakesAbsolute(t *testing.T) {
	fakePlatform(t, "linux", map[string]string{EnvConfigDir: "relative/env"})

	got, err := ResolveConfigDir("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), got)

	got, err = ResolveDataDir("relative/flag", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), got)
}
