package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/phase-imaging/internal/phase"
	"github.com/ironsheep/phase-imaging/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a)
		},
	}

	flags := cmd.Flags()
	flags.String("host", "0.0.0.0", "listen host")
	flags.Int("port", 7860, "listen port")
	flags.Int64("max-upload-bytes", 20<<20, "largest accepted upload in bytes")
	flags.Int("max-pixels", 4096*4096, "largest accepted image width*height")
	_ = a.v.BindPFlag("server.host", flags.Lookup("host"))
	_ = a.v.BindPFlag("server.port", flags.Lookup("port"))
	_ = a.v.BindPFlag("server.max_upload_bytes", flags.Lookup("max-upload-bytes"))
	_ = a.v.BindPFlag("server.max_pixels", flags.Lookup("max-pixels"))

	return cmd
}

func runServe(parent context.Context, a *app) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(a.cfg.Server, phase.NewProcessor(a.log, phase.WithMaxPixels(a.cfg.Server.MaxPixels)), a.log, Version)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	a.log.Info("Server exited")
	return nil
}
