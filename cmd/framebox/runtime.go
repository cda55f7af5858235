package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/framebox/internal/config"
	"github.com/fyrsmithlabs/framebox/internal/hosting"
	"github.com/fyrsmithlabs/framebox/internal/logging"
	"github.com/fyrsmithlabs/framebox/internal/telemetry"
)

// runtime is everything a command needs to talk to the server.
type runtime struct {
	cfg    *config.Config
	logger *logging.Logger
	tel    *telemetry.Telemetry
	client *hosting.Client
}

// rt is set up before each online command runs.
var rt *runtime

// setupRuntime loads config and builds the logger, telemetry and client.
func setupRuntime(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[offline] == "true" {
		return nil
	}

	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("server") {
		cfg.Server.URL = strings.TrimRight(serverURL, "/")
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --server: %w", err)
		}
	}

	logFile := cfg.Logging.File
	if logFile == "" && isInteractive(cmd) {
		// The UI owns the terminal.
		if logFile, err = config.DefaultLogFile(); err != nil {
			return err
		}
	}
	logCfg, err := logging.ParseConfig(cfg.Logging.Level, cfg.Logging.Format, logFile)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	ctx := cmd.Context()
	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version))
	if err != nil {
		_ = logger.Close()
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.String("reason", h.Reason))
	}

	rt = &runtime{
		cfg:    cfg,
		logger: logger,
		tel:    tel,
		client: hosting.New(cfg.Server.URL,
			hosting.WithTimeout(cfg.Server.Timeout.Duration()),
			hosting.WithLogger(logger),
			hosting.WithTelemetry(tel),
		),
	}
	logger.Debug(ctx, "runtime ready",
		zap.String("command", cmd.CommandPath()),
		zap.String("server", cfg.Server.URL),
	)
	return nil
}

// closeRuntime flushes telemetry and logs after a command finishes.
func closeRuntime() {
	if rt == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.tel.Shutdown(ctx); err != nil {
		rt.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = rt.logger.Close()
	rt = nil
}

func isInteractive(cmd *cobra.Command) bool {
	return cmd.Annotations[interactive] == "true"
}
