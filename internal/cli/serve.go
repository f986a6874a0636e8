package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/khatt/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr, scanDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			if addr == "" {
				addr = a.settings.ListenAddr
			}
			if scanDir == "" {
				scanDir = a.settings.ScanDir
			}
			if a.settings.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := httpapi.NewServer(a.boundary, httpapi.Options{ScanDir: scanDir, Logger: a.logger})
			return serve(cmd.Context(), a, addr, srv.Router())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from listen_addr)")
	cmd.Flags().StringVar(&scanDir, "scan-dir", "", "directory holding manuscript scans (default from scan_dir)")
	return cmd
}

// serve runs handler on addr until ctx is cancelled, then shuts down.
func serve(ctx context.Context, a *app, addr string, handler http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return sysError("listen on %s: %v", addr, err)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	a.logger.Info("serving", "addr", ln.Addr().String(), "data_dir", a.settings.Store.DataDir)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return sysError("serve: %v", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return sysError("shutdown: %v", err)
	}
	a.logger.Info("stopped")
	return nil
}
