package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/khatt/internal/aggregate"
	"github.com/mesh-intelligence/khatt/internal/catalog"
	"github.com/mesh-intelligence/khatt/internal/graph"
	"github.com/mesh-intelligence/khatt/internal/wire"
	"github.com/mesh-intelligence/khatt/pkg/sqlite"
)

// app is an attached store with the components built over it.
type app struct {
	settings *settings
	logger   *slog.Logger
	backend  sqlite.Backend
	boundary *wire.Boundary
}

// openApp loads settings, builds the logger, and attaches the store. The
// caller must call close.
func openApp(cmd *cobra.Command, flags *rootFlags) (*app, error) {
	s, err := loadSettings(flags)
	if err != nil {
		return nil, &exitError{code: exitSysError, err: err}
	}
	logger, err := newLogger(cmd.ErrOrStderr(), s.LogLevel, s.LogFormat)
	if err != nil {
		return nil, userError("%v", err)
	}
	backend, err := sqlite.Open(s.Store)
	if err != nil {
		return nil, sysError("attach store at %s: %v", s.Store.DataDir, err)
	}
	logger.Debug("store attached", "data_dir", s.Store.DataDir)

	boundary := wire.NewBoundary(
		catalog.New(backend, logger),
		graph.NewManager(backend, logger),
		aggregate.New(backend, logger),
	)
	return &app{settings: s, logger: logger, backend: backend, boundary: boundary}, nil
}

func (a *app) close() error {
	if err := a.backend.Detach(); err != nil {
		return fmt.Errorf("detach store: %w", err)
	}
	return nil
}
