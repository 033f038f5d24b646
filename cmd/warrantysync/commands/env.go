package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"warrantysync/internal/config"
	"warrantysync/internal/infrastructure"
	"warrantysync/internal/sheets"
)

// environment holds what every command needs once configuration is loaded
type environment struct {
	cfg    *config.Config
	logger *slog.Logger
	runID  string
	otel   *infrastructure.OTelProviders
	sheets *sheets.Client
}

func setup(ctx context.Context) (*environment, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	env := &environment{
		cfg:    cfg,
		logger: logger,
		runID:  infrastructure.NewRunID(),
	}
	ctx = infrastructure.WithRunID(ctx, env.runID)

	env.otel, err = infrastructure.InitializeOTel(ctx, cfg.Telemetry, env.runID, logger)
	if err != nil {
		env.close(ctx)
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	env.sheets, err = sheets.NewClient(ctx, cfg.Sheets, logger)
	if err != nil {
		env.close(ctx)
		return nil, err
	}

	return env, nil
}

func (e *environment) close(ctx context.Context) {
	if e.otel != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := e.otel.Shutdown(shutdownCtx); err != nil {
			e.logger.Warn("Failed to shut down telemetry", slog.String("error", err.Error()))
		}
	}
	infrastructure.CloseLogFile()
}
