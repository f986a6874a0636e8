package types

import (
	"errors"
	"fmt"
)

// Config selects the store behind a KHATT deployment. The CLI fills it from
// the backend and data_dir keys of config.yaml, overridden by KHATT_DATA_DIR
// and --data-dir; an empty DataDir means the working directory.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// BackendSQLite keeps books, manuscripts, and the annotation graph in one
// SQLite file under DataDir.
const BackendSQLite = "sqlite"

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
)

// Validate reports ErrBackendEmpty or ErrBackendUnknown when Backend does
// not name a store this build can open. DataDir is checked on Attach.
func (c Config) Validate() error {
	switch c.Backend {
	case "":
		return ErrBackendEmpty
	case BackendSQLite:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrBackendUnknown, c.Backend)
	}
}
