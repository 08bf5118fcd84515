package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"imagesaid/internal/config"
	"imagesaid/internal/httpapi"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API for the desktop shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, nil)
		},
	}
	cmd.Flags().String("addr", config.Default().Addr, "HTTP listen address")
	cmd.Flags().String("cors-origins", "", "Comma-separated origins allowed to call the API")
	return cmd
}

// serve runs the API until ctx is done, then shuts down gracefully. ready,
// if non-nil, receives the bound address once listening.
func (a *app) serve(ctx context.Context, ready chan<- string) error {
	httpapi.SetLogger(a.log)
	httpapi.SetDefaultLogLevel(httpLogLevel(a.cfg.LogLevel))
	httpapi.SetMaxBodyBytes(a.cfg.MaxBodyBytes)
	httpapi.SetCORSOrigins(a.cfg.CORSOrigins)
	httpapi.SetBaseContext(ctx)

	ln, err := net.Listen("tcp", a.cfg.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           httpapi.NewMux(a.svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", ln.Addr().String()).Str("api_url", a.cfg.APIURL).Str("model", a.cfg.Model).Msg("imagesaid listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("graceful shutdown error")
		return err
	}
	a.log.Info().Msg("imagesaid stopped")
	return nil
}

// httpLogLevel maps the process level onto the request log levels, which
// have no warn.
func httpLogLevel(level string) string {
	switch level {
	case "warn", "warning":
		return "error"
	default:
		return level
	}
}
