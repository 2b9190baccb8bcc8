package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/textembed/internal/config"
	"github.com/fyrsmithlabs/textembed/internal/logging"
	"github.com/fyrsmithlabs/textembed/internal/telemetry"
)

const instrumentationName = "github.com/fyrsmithlabs/textembed/cmd/textembed"

// app bundles the configuration, logger and telemetry shared by commands
// that embed text.
type app struct {
	store     *config.Store
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
}

// newApp loads configuration and initializes telemetry, then logging.
// Telemetry comes first so the logger can bridge into its log provider.
func newApp(ctx context.Context, path string) (*app, error) {
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := config.LoadWithFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logCfg, err := logging.FromSettings(cfg.Logging, cfg.Telemetry)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, err
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded, continuing without export", zap.Error(h.Reason))
	}

	return &app{
		store:     config.NewStore(path, cfg, logger.Underlying().Named("config")),
		logger:    logger,
		telemetry: tel,
	}, nil
}

// close flushes logs and telemetry. It uses a fresh context so that a
// cancelled command still gets to export what it recorded.
func (a *app) close() error {
	_ = a.logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.telemetry.Shutdown(ctx)
}
