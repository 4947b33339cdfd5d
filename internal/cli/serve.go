package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Wikid82/chimera/backend/internal/config"
	"github.com/Wikid82/chimera/backend/internal/logger"
	"github.com/Wikid82/chimera/backend/internal/scheduler"
	"github.com/Wikid82/chimera/backend/internal/server"
	"github.com/Wikid82/chimera/backend/internal/version"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP service",
	Long:  "Starts the HTTP API, the background jobs and the live stream.\nConfiguration is read from CHIMERA_* environment variables.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	closer, err := setupLogging(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg)
}

// serve runs the service until ctx is cancelled.
func serve(ctx context.Context, cfg config.Config) error {
	logger.Log().WithField("version", version.Full()).Infof("starting %s", version.Name)

	srv, err := server.Build(cfg)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	jobs, err := scheduler.New(srv.Cerberus, cfg.Schedule)
	if err != nil {
		return err
	}
	jobs.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		jobs.Stop(stopCtx)
	}()

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Log().Info("shutdown complete")
	return nil
}
