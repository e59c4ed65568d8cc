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

	"github.com/grmpy/grmpy-go/internal/server"
	"github.com/grmpy/grmpy-go/pkg/constants"
	"github.com/grmpy/grmpy-go/pkg/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve simulations over HTTP",
		RunE:  runServe,
	}

	cmd.Flags().String("server-config", constants.DefaultServerConfigFile, "path to the server configuration file")
	cmd.Flags().String("address", "", "listen address override")
	cmd.Flags().String("max-upload-size", "", "upload size limit override, e.g. 512K")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("server-config")
	address, _ := cmd.Flags().GetString("address")
	maxUpload, _ := cmd.Flags().GetString("max-upload-size")
	logLevel, _ := cmd.Flags().GetString("log-level")

	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if address != "" {
		cfg.Address = address
	}
	if maxUpload != "" {
		size, err := server.ParseSize(maxUpload)
		if err != nil {
			return err
		}
		cfg.SetUploadSizeBytes(size)
	}

	logger, err := initializeLogger(cfg.Logging, logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(logger, cfg, metrics.NewRecorder(), version),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", "main.runServe"),
			zap.String("address", cfg.Address),
			zap.Int64("maxUploadSize", cfg.UploadSizeBytes()),
			zap.Int("maxAgents", cfg.MaxAgents),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server", zap.String("op", "main.runServe"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
