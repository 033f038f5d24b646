package commands

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"warrantysync/internal/infrastructure"
	"warrantysync/internal/pipeline"
	"warrantysync/internal/portal"
	"warrantysync/internal/publish"
	"warrantysync/internal/registry"
	transporthttp "warrantysync/internal/transport/http"
)

const runtimeMetricsInterval = 15 * time.Second

var runCmd = &cobra.Command{
	Use:   "run [--force]",
	Short: "Exports every registry site from the portal and publishes the results.",
	RunE:  runSync,
}

func init() {
	runCmd.Flags().BoolVar(&force, "force", false, "run even on Saturday or Sunday")
	rootCmd.AddCommand(runCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer env.close(cmd.Context())

	ctx := infrastructure.WithRunID(cmd.Context(), env.runID)
	cfg, logger := env.cfg, env.logger

	metrics, err := pipeline.InitializeMetrics(otel.Meter(pipeline.MeterName))
	if err != nil {
		return err
	}

	reg := registry.New(env.sheets, cfg.Sheets.RegistryID, logger)
	handler := pipeline.NewSyncHandler(publish.NewPublisher(env.sheets, cfg.Sheets.DestinationID, logger))
	newController := func(ctx context.Context) (portal.Controller, error) {
		ctrl, err := portal.NewChromeController(ctx, cfg.Browser, cfg.Download.Dir, logger)
		if err != nil {
			return nil, err
		}
		return ctrl, nil
	}
	supervisor := pipeline.NewSupervisor(cfg, reg, handler, newController, logger, pipeline.WithMetrics(metrics))

	result, err := execute(ctx, supervisor, force, cfg.Telemetry.MetricsAddr, env.otel.PrometheusHTTP, logger)
	if err != nil {
		return err
	}

	exitCode = result.ExitCode(cfg.Run)
	return nil
}

// syncRunner is the part of the supervisor the run command drives
type syncRunner interface {
	transporthttp.StatusProvider
	SkipsToday(force bool) bool
	Run(ctx context.Context, force bool) pipeline.Result
}

// execute runs the pipeline. When addr is set and the run is not skipped,
// the status server and runtime collector run alongside it until it ends.
func execute(ctx context.Context, runner syncRunner, force bool, addr string, metrics http.Handler, logger *slog.Logger) (pipeline.Result, error) {
	if addr == "" || runner.SkipsToday(force) {
		return runner.Run(ctx, force), nil
	}

	collector, err := infrastructure.NewSystemMetricsCollector(otel.Meter(infrastructure.MeterName), runtimeMetricsInterval)
	if err != nil {
		return pipeline.Result{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	serveCtx, stopServing := context.WithCancel(gctx)
	defer stopServing()

	g.Go(func() error {
		collector.Start(serveCtx)
		return nil
	})
	g.Go(func() error {
		return transporthttp.Serve(serveCtx, addr, transporthttp.NewRouter(runner, metrics, logger), logger)
	})

	var result pipeline.Result
	g.Go(func() error {
		defer stopServing()
		result = runner.Run(gctx, force)
		return nil
	})

	if err := g.Wait(); err != nil {
		return pipeline.Result{}, err
	}
	return result, nil
}
