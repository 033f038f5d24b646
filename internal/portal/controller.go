package portal

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"

	"warrantysync/internal/config"
)

// Controller drives a browser session against the portal
type Controller interface {
	Navigate(ctx context.Context, url string) error
	// WaitClickable blocks until the element is visible and enabled
	WaitClickable(ctx context.Context, loc Locator, timeout time.Duration) error
	Type(ctx context.Context, loc Locator, text string) error
	Clear(ctx context.Context, loc Locator) error
	Click(ctx context.Context, loc Locator) error
	// Quit closes the browser. It is safe to call more than once.
	Quit()
}

// ControllerFactory starts a fresh browser for one run attempt
type ControllerFactory func(ctx context.Context) (Controller, error)

// ChromeController implements Controller with chromedp
type ChromeController struct {
	browserCtx context.Context
	cancel     context.CancelFunc
	quitOnce   sync.Once
	logger     *slog.Logger
}

// NewChromeController launches Chrome with downloads allowed into downloadDir
func NewChromeController(ctx context.Context, cfg config.BrowserConfig, downloadDir string, logger *slog.Logger) (*ChromeController, error) {
	if logger == nil {
		logger = slog.Default()
	}

	absDir, err := filepath.Abs(downloadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve download directory: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("lang", "en_US"),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	// The browser lives until Quit, independent of ctx.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Error(fmt.Sprintf(format, args...), slog.String("component", "chromedp"))
		}),
	)

	c := &ChromeController{
		browserCtx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		logger: logger.With(slog.String("component", "browser")),
	}

	// The first Run allocates the browser and must use the browser context
	// itself; a deadline here would kill Chrome when it fires.
	start := time.Now()
	stop := context.AfterFunc(ctx, c.Quit)
	err = chromedp.Run(browserCtx, browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
		WithDownloadPath(absDir).
		WithEventsEnabled(true))
	stop()
	if err != nil {
		c.Quit()
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	c.logger.InfoContext(ctx, "Browser started",
		slog.Bool("headless", cfg.Headless),
		slog.String("download_dir", absDir),
		slog.Duration("startup", time.Since(start)))
	return c, nil
}

// Navigate loads url in the browser tab
func (c *ChromeController) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, chromedp.Navigate(url))
}

// WaitClickable waits up to timeout for the element to be visible and enabled
func (c *ChromeController) WaitClickable(ctx context.Context, loc Locator, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	by := queryOption(loc)
	if err := c.run(ctx, chromedp.WaitVisible(loc.Value, by), chromedp.WaitEnabled(loc.Value, by)); err != nil {
		return fmt.Errorf("element %s not clickable: %w", loc, err)
	}
	return nil
}

// Type sends keystrokes to the element
func (c *ChromeController) Type(ctx context.Context, loc Locator, text string) error {
	return c.run(ctx, chromedp.SendKeys(loc.Value, text, queryOption(loc)))
}

// Clear empties an input or text area
func (c *ChromeController) Clear(ctx context.Context, loc Locator) error {
	return c.run(ctx, chromedp.Clear(loc.Value, queryOption(loc)))
}

// Click clicks the element
func (c *ChromeController) Click(ctx context.Context, loc Locator) error {
	return c.run(ctx, chromedp.Click(loc.Value, queryOption(loc), chromedp.NodeVisible))
}

// Quit closes the browser and its process
func (c *ChromeController) Quit() {
	c.quitOnce.Do(func() {
		c.cancel()
		c.logger.Info("Browser closed")
	})
}

// run executes actions on the browser tab, bounded by the caller's context
func (c *ChromeController) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.browserCtx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func queryOption(loc Locator) chromedp.QueryOption {
	switch loc.Kind {
	case ByID:
		return chromedp.ByID
	case ByXPath:
		return chromedp.BySearch
	default:
		return chromedp.ByQuery
	}
}
