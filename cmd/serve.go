package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/classify/internal/server"
	"github.com/desertthunder/classify/internal/shared"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// Serve builds the router from the loaded config and serves it until SIGINT or SIGTERM.
//
// Missing Spotify credentials are logged rather than fatal; the affected routes answer 503.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.cfg()
	if cmd.IsSet("port") {
		cfg.Server.Port = int(cmd.Int("port"))
	}

	if err := cfg.Validate(); err != nil {
		if !errors.Is(err, shared.ErrMissingCredentials) {
			return err
		}
		r.logger.Warn("starting without spotify credentials", "error", err)
	}

	if cache, err := r.tagCache(); err != nil {
		r.logger.Warn("tag cache disabled", "error", err)
	} else if cache != nil {
		if n, err := cache.Prune(ctx); err != nil {
			r.logger.Warn("failed to prune tag cache", "error", err)
		} else if n > 0 {
			r.logger.Info("pruned expired tags", "count", n)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           server.New(cfg.Server, r.services(), r.logger.With("component", "http")),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.listen(ctx, srv)
}

// listen runs srv until ctx is done, then shuts it down gracefully.
func (r *Runner) listen(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
