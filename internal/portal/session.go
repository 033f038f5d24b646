package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"warrantysync/internal/config"
	apperrors "warrantysync/internal/errors"
	"warrantysync/internal/files"
	"warrantysync/pkg/contracts/domain"
)

// ErrExportUnavailable is returned when no export attempt produced a download
var ErrExportUnavailable = errors.New("export unavailable")

// State is the position of a Session in its lifecycle
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	SubmittingBatch
	AwaitingExport
	Downloading
	Normalizing
	Syncing
	Done
	Failed
)

var stateNames = [...]string{
	Unauthenticated: "unauthenticated",
	Authenticating:  "authenticating",
	Authenticated:   "authenticated",
	SubmittingBatch: "submitting_batch",
	AwaitingExport:  "awaiting_export",
	Downloading:     "downloading",
	Normalizing:     "normalizing",
	Syncing:         "syncing",
	Done:            "done",
	Failed:          "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// SiteHandler turns a downloaded export into published rows
type SiteHandler interface {
	Normalize(ctx context.Context, path string, batch domain.SerialBatch) (*domain.CanonicalTable, error)
	Publish(ctx context.Context, site domain.Site, table *domain.CanonicalTable) (int, error)
}

// ExportHook observes every export attempt; err is nil on success
type ExportHook func(ctx context.Context, attempt int, err error)

// Locators are the parsed portal element locators
type Locators struct {
	Username       Locator
	UsernameSubmit Locator
	Password       Locator
	PasswordSubmit Locator
	SerialInput    Locator
	SubmitBatch    Locator
	Export         Locator
	ConfirmExport  Locator
	Download       Locator
	Back           Locator
}

// ParseLocators parses the configured locators. Only ConfirmExport may be empty.
func ParseLocators(cfg config.LocatorsConfig) (Locators, error) {
	var (
		l    Locators
		errs []error
	)
	parse := func(name, value string, dst *Locator, optional bool) {
		loc, err := ParseLocator(value)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		case loc.IsZero() && !optional:
			errs = append(errs, fmt.Errorf("%s: locator is required", name))
		default:
			*dst = loc
		}
	}

	parse("username", cfg.Username, &l.Username, false)
	parse("username_submit", cfg.UsernameSubmit, &l.UsernameSubmit, false)
	parse("password", cfg.Password, &l.Password, false)
	parse("password_submit", cfg.PasswordSubmit, &l.PasswordSubmit, false)
	parse("serial_input", cfg.SerialInput, &l.SerialInput, false)
	parse("submit_batch", cfg.SubmitBatch, &l.SubmitBatch, false)
	parse("export", cfg.Export, &l.Export, false)
	parse("confirm_export", cfg.ConfirmExport, &l.ConfirmExport, true)
	parse("download", cfg.Download, &l.Download, false)
	parse("back", cfg.Back, &l.Back, false)

	return l, errors.Join(errs...)
}

// SessionConfig carries what a Session needs from the application config
type SessionConfig struct {
	Portal      config.PortalConfig
	Export      config.ExportConfig
	WaitTimeout time.Duration
	// DownloadPath is where the portal export lands
	DownloadPath string
}

// Session is one authenticated portal session. It owns its Controller and
// releases it in Close.
type Session struct {
	ctrl      Controller
	cfg       SessionConfig
	locators  Locators
	downloads *files.Manager
	logger    *slog.Logger
	onExport  ExportHook

	mu        sync.RWMutex
	state     State
	closeOnce sync.Once
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithExportHook registers an observer for export attempts
func WithExportHook(hook ExportHook) SessionOption {
	return func(s *Session) { s.onExport = hook }
}

// NewSession wraps a started controller
func NewSession(ctrl Controller, cfg SessionConfig, downloads *files.Manager, logger *slog.Logger, opts ...SessionOption) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	locators, err := ParseLocators(cfg.Portal.Locators)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid portal locators", err)
	}

	s := &Session{
		ctrl:      ctrl,
		cfg:       cfg,
		locators:  locators,
		downloads: downloads,
		logger:    logger.With(slog.String("component", "session")),
		state:     Unauthenticated,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(ctx context.Context, next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()

	if prev != next {
		s.logger.DebugContext(ctx, "Session state changed",
			slog.String("from", prev.String()),
			slog.String("to", next.String()))
	}
}

func (s *Session) fail(ctx context.Context, err error) error {
	s.setState(ctx, Failed)
	return err
}

// Login signs in through the two-step identity provider form and waits for
// the serial entry page.
func (s *Session) Login(ctx context.Context) error {
	if st := s.State(); st != Unauthenticated {
		return fmt.Errorf("login in state %s", st)
	}
	s.setState(ctx, Authenticating)
	start := time.Now()

	if err := s.ctrl.Navigate(ctx, s.cfg.Portal.URL); err != nil {
		return s.fail(ctx, apperrors.NewPortalError("failed to open portal", err))
	}

	steps := []struct {
		name string
		do   func() error
	}{
		{"username", func() error { return s.waitAndType(ctx, s.locators.Username, s.cfg.Portal.Username) }},
		{"username_submit", func() error { return s.waitAndClick(ctx, s.locators.UsernameSubmit) }},
		{"password", func() error { return s.waitAndType(ctx, s.locators.Password, s.cfg.Portal.Password) }},
		{"password_submit", func() error { return s.waitAndClick(ctx, s.locators.PasswordSubmit) }},
		{"serial_input", func() error { return s.ctrl.WaitClickable(ctx, s.locators.SerialInput, s.cfg.WaitTimeout) }},
	}
	for _, step := range steps {
		if err := step.do(); err != nil {
			return s.fail(ctx, apperrors.NewPortalError("login failed", err).WithContext("step", step.name))
		}
	}

	s.setState(ctx, Authenticated)
	s.logger.InfoContext(ctx, "Logged in to portal", slog.Duration("duration", time.Since(start)))
	return nil
}

// SubmitBatch replaces the serial text area contents with the batch, one
// serial per line, and submits it.
func (s *Session) SubmitBatch(ctx context.Context, batch domain.SerialBatch) error {
	if st := s.State(); st != Authenticated {
		return fmt.Errorf("submit batch in state %s", st)
	}
	s.setState(ctx, SubmittingBatch)

	var text strings.Builder
	for _, serial := range batch.Serials() {
		text.WriteString(serial)
		text.WriteString("\n")
	}

	err := s.ctrl.WaitClickable(ctx, s.locators.SerialInput, s.cfg.WaitTimeout)
	if err == nil {
		err = s.ctrl.Clear(ctx, s.locators.SerialInput)
	}
	if err == nil {
		err = s.ctrl.Type(ctx, s.locators.SerialInput, text.String())
	}
	if err == nil {
		err = s.waitAndClick(ctx, s.locators.SubmitBatch)
	}
	if err != nil {
		return s.fail(ctx, apperrors.NewPortalError("failed to submit serial batch", err).
			WithContext("site", batch.Site.Title))
	}

	s.logger.DebugContext(ctx, "Serial batch submitted", slog.Int("serials", batch.Len()))
	return nil
}

// Export requests the Excel export and waits for the download. Each attempt
// is bounded by the attempt timeout; attempts are separated by a constant
// delay. After MaxAttempts failures it returns ErrExportUnavailable.
func (s *Session) Export(ctx context.Context) (string, error) {
	if st := s.State(); st != SubmittingBatch {
		return "", fmt.Errorf("export in state %s", st)
	}

	attempt := 0
	var lastErr error
	operation := func() (string, error) {
		attempt++
		err := s.exportAttempt(ctx, attempt)
		if s.onExport != nil {
			s.onExport(ctx, attempt, err)
		}
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", backoff.Permanent(ctx.Err())
			}
			return "", err
		}
		return s.cfg.DownloadPath, nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.cfg.Export.RetryDelay), uint64(s.cfg.Export.MaxAttempts-1)),
		ctx,
	)
	notify := func(err error, next time.Duration) {
		s.logger.WarnContext(ctx, "Export attempt failed",
			slog.Int("export_attempt", attempt),
			slog.Int("max_attempts", s.cfg.Export.MaxAttempts),
			slog.Duration("retry_in", next),
			slog.String("error", err.Error()))
	}

	path, err := backoff.RetryNotifyWithData(operation, policy, notify)
	if err != nil {
		if ctx.Err() != nil {
			return "", s.fail(ctx, ctx.Err())
		}
		return "", s.fail(ctx, fmt.Errorf("%w after %d attempts: %w", ErrExportUnavailable, attempt, lastErr))
	}

	s.logger.InfoContext(ctx, "Export downloaded",
		slog.String("path", path),
		slog.Int("export_attempts", attempt))
	return path, nil
}

func (s *Session) exportAttempt(ctx context.Context, attempt int) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Export.AttemptTimeout)
	defer cancel()

	s.setState(ctx, AwaitingExport)
	if err := s.waitAndClick(ctx, s.locators.Export); err != nil {
		return apperrors.NewExportError("export button unavailable", err).WithContext("attempt", attempt)
	}

	if err := sleep(ctx, s.cfg.Export.ConfirmDelay); err != nil {
		return err
	}
	if !s.locators.ConfirmExport.IsZero() {
		if err := s.waitAndClick(ctx, s.locators.ConfirmExport); err != nil {
			return apperrors.NewExportError("export confirmation unavailable", err).WithContext("attempt", attempt)
		}
	}

	s.setState(ctx, Downloading)
	if err := s.downloads.DeleteFile(s.cfg.DownloadPath); err != nil {
		return apperrors.NewStorageError("failed to remove stale download", err)
	}
	if err := s.waitAndClick(ctx, s.locators.Download); err != nil {
		return apperrors.NewExportError("download button unavailable", err).WithContext("attempt", attempt)
	}
	if err := s.downloads.WaitForFile(ctx, s.cfg.DownloadPath, s.cfg.Export.PollInterval); err != nil {
		return apperrors.NewExportError("download did not complete", err).WithContext("attempt", attempt)
	}
	return nil
}

// ProcessSite submits the site's batch, downloads the export, hands it to
// the handler, removes the download and returns to the serial entry page.
// The downloaded file is removed on every path. Any error leaves the
// session Failed.
func (s *Session) ProcessSite(ctx context.Context, site domain.Site, batch domain.SerialBatch, handler SiteHandler) (int, error) {
	if err := s.SubmitBatch(ctx, batch); err != nil {
		return 0, err
	}

	path, err := s.Export(ctx)
	if err != nil {
		return 0, err
	}
	removed := false
	defer func() {
		if !removed {
			s.removeDownload(ctx, path)
		}
	}()

	s.setState(ctx, Normalizing)
	table, err := handler.Normalize(ctx, path, batch)
	if err != nil {
		return 0, s.fail(ctx, err)
	}

	s.setState(ctx, Syncing)
	rows, err := handler.Publish(ctx, site, table)
	if err != nil {
		return 0, s.fail(ctx, err)
	}

	s.removeDownload(ctx, path)
	removed = true

	if err := s.waitAndClick(ctx, s.locators.Back); err != nil {
		return rows, s.fail(ctx, apperrors.NewPortalError("failed to return to serial entry", err).
			WithContext("site", site.Title))
	}

	s.setState(ctx, Authenticated)
	return rows, nil
}

// Close releases the controller. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.State() != Failed {
			s.setState(context.Background(), Done)
		}
		s.ctrl.Quit()
	})
}

func (s *Session) removeDownload(ctx context.Context, path string) {
	if err := s.downloads.DeleteFile(path); err != nil {
		s.logger.WarnContext(ctx, "Failed to remove download", slog.String("error", err.Error()))
	}
}

func (s *Session) waitAndClick(ctx context.Context, loc Locator) error {
	if err := s.ctrl.WaitClickable(ctx, loc, s.cfg.WaitTimeout); err != nil {
		return err
	}
	return s.ctrl.Click(ctx, loc)
}

func (s *Session) waitAndType(ctx context.Context, loc Locator, text string) error {
	if err := s.ctrl.WaitClickable(ctx, loc, s.cfg.WaitTimeout); err != nil {
		return err
	}
	return s.ctrl.Type(ctx, loc, text)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
