package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"warrantysync/internal/config"
	"warrantysync/internal/files"
	"warrantysync/internal/infrastructure"
	"warrantysync/internal/portal"
	"warrantysync/pkg/contracts/domain"
)

// Outcome is the result of a supervised run
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result summarizes a supervised run
type Result struct {
	Outcome  Outcome
	Attempts int
	Sites    int
	Rows     int
	Err      error
}

// ExitCode maps the result to the process exit status
func (r Result) ExitCode(cfg config.RunConfig) int {
	switch r.Outcome {
	case OutcomeSucceeded:
		return cfg.SuccessExitCode
	case OutcomeSkipped:
		return config.ExitCodeSkipped
	default:
		return config.ExitCodeFailed
	}
}

// SiteRegistry provides the sites and their serial batches
type SiteRegistry interface {
	ListSites(ctx context.Context) ([]domain.Site, error)
	SerialBatchFor(ctx context.Context, site domain.Site) (domain.SerialBatch, error)
}

// Status is a point-in-time view of the supervisor for health reporting
type Status struct {
	Running      bool   `json:"running"`
	Attempt      int    `json:"attempt"`
	SessionState string `json:"session_state"`
}

// Supervisor runs the sync pipeline with a weekday gate and bounded,
// exponentially backed-off restarts. Every attempt starts from a fresh
// browser and a fresh login.
type Supervisor struct {
	cfg           *config.Config
	registry      SiteRegistry
	handler       portal.SiteHandler
	newController portal.ControllerFactory
	downloads     *files.Manager
	metrics       *Metrics
	now           func() time.Time
	base          *slog.Logger
	logger        *slog.Logger

	running atomic.Bool
	attempt atomic.Int64
	session atomic.Pointer[portal.Session]
}

// Option configures a Supervisor
type Option func(*Supervisor)

// WithClock overrides the clock used by the weekday gate
func WithClock(now func() time.Time) Option {
	return func(s *Supervisor) { s.now = now }
}

// WithMetrics records pipeline metrics
func WithMetrics(m *Metrics) Option {
	return func(s *Supervisor) { s.metrics = m }
}

// NewSupervisor wires the pipeline
func NewSupervisor(cfg *config.Config, registry SiteRegistry, handler portal.SiteHandler, newController portal.ControllerFactory, logger *slog.Logger, opts ...Option) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Supervisor{
		cfg:           cfg,
		registry:      registry,
		handler:       handler,
		newController: newController,
		downloads:     files.NewManager(cfg.Download.Dir, logger),
		now:           time.Now,
		base:          logger,
		logger:        logger.With(slog.String("component", "supervisor")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status reports the current attempt and session state
func (s *Supervisor) Status() Status {
	st := Status{
		Running:      s.running.Load(),
		Attempt:      int(s.attempt.Load()),
		SessionState: "idle",
	}
	if session := s.session.Load(); session != nil {
		st.SessionState = session.State().String()
	}
	return st
}

// SkipsToday reports whether Run would skip because of the weekday gate
func (s *Supervisor) SkipsToday(force bool) bool {
	return s.cfg.Run.SkipWeekends && !force && isWeekend(s.now())
}

// Run executes the pipeline. On Saturdays and Sundays nothing is contacted
// and the run is skipped unless force is set. Failed attempts are retried
// with exponential backoff up to Run.MaxAttempts; cancellation of ctx stops
// retrying immediately.
func (s *Supervisor) Run(ctx context.Context, force bool) Result {
	ctx = infrastructure.EnsureRunID(ctx)

	if s.SkipsToday(force) {
		s.logger.InfoContext(ctx, "Weekend, skipping run", slog.String("weekday", s.now().Weekday().String()))
		s.metrics.recordRun(ctx, OutcomeSkipped)
		return Result{Outcome: OutcomeSkipped}
	}

	s.running.Store(true)
	defer s.running.Store(false)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.Run.InitialDelay
	policy.MaxInterval = s.cfg.Run.MaxDelay
	policy.Multiplier = s.cfg.Run.Multiplier
	policy.MaxElapsedTime = 0

	var (
		result  Result
		attempt int
	)
	operation := func() error {
		attempt++
		s.attempt.Store(int64(attempt))
		actx := infrastructure.WithAttempt(ctx, attempt)
		s.logger.InfoContext(actx, "Starting run attempt", slog.Int("max_attempts", s.cfg.Run.MaxAttempts))

		sites, rows, err := s.runAttempt(actx, attempt)
		s.metrics.recordAttempt(ctx, err)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		result.Sites, result.Rows = sites, rows
		return nil
	}
	notify := func(err error, next time.Duration) {
		s.logger.ErrorContext(infrastructure.WithAttempt(ctx, attempt), "Run attempt failed",
			slog.String("error", err.Error()),
			slog.Duration("retry_in", next))
	}

	err := backoff.RetryNotify(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.cfg.Run.MaxAttempts-1)), ctx),
		notify)

	result.Attempts = attempt
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		s.logger.ErrorContext(ctx, "Run failed",
			slog.Int("attempts", attempt),
			slog.String("error", err.Error()))
	} else {
		result.Outcome = OutcomeSucceeded
		s.logger.InfoContext(ctx, "Run completed",
			slog.Int("attempts", attempt),
			slog.Int("sites", result.Sites),
			slog.Int("rows", result.Rows))
	}
	s.metrics.recordRun(ctx, result.Outcome)
	return result
}

func (s *Supervisor) runAttempt(ctx context.Context, attempt int) (sites, rows int, err error) {
	err = traceAttempt(ctx, attempt, func(ctx context.Context) error {
		var runErr error
		sites, rows, runErr = s.RunOnce(ctx)
		return runErr
	})
	return sites, rows, err
}

// RunOnce performs one complete pass: start a browser, log in and process
// every registry site in order. The browser is released on every path.
func (s *Supervisor) RunOnce(ctx context.Context) (sites, rows int, err error) {
	if err := s.downloads.EnsureDirectory(); err != nil {
		return 0, 0, err
	}
	if _, err := s.downloads.CleanPartialDownloads(); err != nil {
		s.logger.WarnContext(ctx, "Failed to clean partial downloads", slog.String("error", err.Error()))
	}

	ctrl, err := s.newController(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to start browser: %w", err)
	}

	session, err := portal.NewSession(ctrl, portal.SessionConfig{
		Portal:       s.cfg.Portal,
		Export:       s.cfg.Export,
		WaitTimeout:  s.cfg.Browser.WaitTimeout,
		DownloadPath: s.downloads.Path(s.cfg.Download.FileName),
	}, s.downloads, s.base, portal.WithExportHook(s.metrics.recordExportAttempt))
	if err != nil {
		ctrl.Quit()
		return 0, 0, err
	}
	defer session.Close()
	s.session.Store(session)

	if err := session.Login(ctx); err != nil {
		return 0, 0, err
	}

	list, err := s.registry.ListSites(ctx)
	if err != nil {
		return 0, 0, err
	}

	for i, site := range list {
		sctx := infrastructure.WithSite(ctx, site.Title)

		batch, err := s.registry.SerialBatchFor(sctx, site)
		if err != nil {
			return sites, rows, err
		}
		s.metrics.recordDuplicates(sctx, site.Title, len(batch.Shadowed()))

		if batch.Len() == 0 {
			s.logger.WarnContext(sctx, "Site has no devices, skipping")
			continue
		}

		start := time.Now()
		n, err := traceSite(sctx, site.Title, batch.Len(), func(ctx context.Context) (int, error) {
			return session.ProcessSite(ctx, site, batch, s.handler)
		})
		s.metrics.recordSite(sctx, site.Title, time.Since(start), n, err)
		if err != nil {
			return sites, rows, err
		}

		sites++
		rows += n
		s.logger.InfoContext(sctx, "Site synced",
			slog.Int("progress", i+1),
			slog.Int("total", len(list)),
			slog.Int("devices", batch.Len()),
			slog.Int("rows", n),
			slog.Duration("duration", time.Since(start)))
	}

	return sites, rows, nil
}

// SiteInventory describes one registry site without contacting the portal
type SiteInventory struct {
	Site         domain.Site
	Devices      int
	Placeholders int
	Duplicates   []domain.BatchEntry
}

// Inventory reads every site's batch from the registry
func Inventory(ctx context.Context, registry SiteRegistry) ([]SiteInventory, error) {
	sites, err := registry.ListSites(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]SiteInventory, 0, len(sites))
	for _, site := range sites {
		batch, err := registry.SerialBatchFor(ctx, site)
		if err != nil {
			return nil, err
		}
		out = append(out, SiteInventory{
			Site:         site,
			Devices:      batch.Len(),
			Placeholders: batch.Placeholders(),
			Duplicates:   batch.Shadowed(),
		})
	}
	return out, nil
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
