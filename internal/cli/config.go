package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/khatt/internal/paths"
	"github.com/mesh-intelligence/khatt/pkg/types"
)

// Config keys read from config.yaml.
const (
	keyBackend    = "backend"
	keyDataDir    = "data_dir"
	keyListenAddr = "listen_addr"
	keyScanDir    = "scan_dir"
	keyLogLevel   = "log_level"
	keyLogFormat  = "log_format"
)

const (
	defaultListenAddr = "127.0.0.1:8080"
	defaultLogLevel   = "info"
	defaultLogFormat  = "text"
)

// fileConfig is the shape written to a fresh config.yaml.
type fileConfig struct {
	Backend    string `yaml:"backend"`
	DataDir    string `yaml:"data_dir,omitempty"`
	ListenAddr string `yaml:"listen_addr"`
	ScanDir    string `yaml:"scan_dir,omitempty"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
}

// settings is the resolved configuration of one command run.
type settings struct {
	ConfigDir  string
	Store      types.Config
	ListenAddr string
	ScanDir    string
	LogLevel   string
	LogFormat  string
}

// loadSettings resolves the config dir, writes a default config.yaml when
// none exists, and merges it with flags and KHATT_* environment variables.
func loadSettings(flags *rootFlags) (*settings, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	if err := ensureConfigFile(configDir); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault(keyBackend, types.BackendSQLite)
	v.SetDefault(keyListenAddr, defaultListenAddr)
	v.SetDefault(keyLogLevel, defaultLogLevel)
	v.SetDefault(keyLogFormat, defaultLogFormat)
	v.SetEnvPrefix("KHATT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(filepath.Join(configDir, paths.ConfigFile))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// KHATT_DATA_DIR is handled by paths so that it wins over the file.
	dataDir, err := paths.ResolveDataDir(flags.dataDir, fileValue(v, keyDataDir))
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	s := &settings{
		ConfigDir:  configDir,
		Store:      types.Config{Backend: v.GetString(keyBackend), DataDir: dataDir},
		ListenAddr: v.GetString(keyListenAddr),
		ScanDir:    v.GetString(keyScanDir),
		LogLevel:   v.GetString(keyLogLevel),
		LogFormat:  v.GetString(keyLogFormat),
	}
	if flags.logLevel != "" {
		s.LogLevel = flags.logLevel
	}
	if err := s.Store.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", keyBackend, err)
	}
	return s, nil
}

// fileValue reads key from config.yaml only, ignoring the environment.
func fileValue(v *viper.Viper, key string) string {
	if !v.InConfig(key) {
		return ""
	}
	return v.GetString(key)
}

// ensureConfigFile writes a default config.yaml into dir if it is missing.
func ensureConfigFile(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	path := filepath.Join(dir, paths.ConfigFile)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config: %w", err)
	}

	data, err := yaml.Marshal(&fileConfig{
		Backend:    types.BackendSQLite,
		ListenAddr: defaultListenAddr,
		LogLevel:   defaultLogLevel,
		LogFormat:  defaultLogFormat,
	})
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# khatt configuration\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}
