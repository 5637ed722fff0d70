package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quizpilot/internal/common"
	"github.com/ternarybob/quizpilot/internal/interfaces"
)

const pollInterval = 100 * time.Millisecond

// ChromeDP drives a single Chrome tab. It implements interfaces.Browser.
type ChromeDP struct {
	tabCtx          context.Context
	tabCancel       context.CancelFunc
	allocatorCancel context.CancelFunc
	actionTimeout   time.Duration
	logger          arbor.ILogger

	closeOnce sync.Once
}

var _ interfaces.Browser = (*ChromeDP)(nil)

// NewChromeDP launches Chrome with the configured allocator options and checks
// that the new tab responds before returning it.
func NewChromeDP(config *common.BrowserConfig, logger arbor.ILogger) (*ChromeDP, error) {
	startTime := time.Now()

	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("no-sandbox", config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-timer-throttling", false),
		chromedp.Flag("disable-backgrounding-occluded-windows", false),
		chromedp.Flag("disable-renderer-backgrounding", false),
		chromedp.WindowSize(config.WindowWidth, config.WindowHeight),
	)
	if config.UserAgent != "" {
		allocatorOpts = append(allocatorOpts, chromedp.UserAgent(config.UserAgent))
	}
	if config.UserDataDir != "" {
		allocatorOpts = append(allocatorOpts, chromedp.UserDataDir(config.UserDataDir))
	}

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocatorCtx)

	// The first Run allocates the browser and ties its lifetime to the context
	// it is given, so it must use the tab context rather than the test timeout.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocatorCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	testCtx, testCancel := context.WithTimeout(tabCtx, common.ParseDuration(config.StartupTimeout, 30*time.Second))
	defer testCancel()

	var title string
	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank"), chromedp.Title(&title)); err != nil {
		tabCancel()
		allocatorCancel()
		return nil, fmt.Errorf("browser failed startup test: %w", err)
	}

	logger.Debug().
		Bool("headless", config.Headless).
		Dur("startup_time", time.Since(startTime)).
		Msg("Browser started")

	return &ChromeDP{
		tabCtx:          tabCtx,
		tabCancel:       tabCancel,
		allocatorCancel: allocatorCancel,
		actionTimeout:   common.ParseDuration(config.WaitTimeout, 10*time.Second),
		logger:          logger,
	}, nil
}

// run executes actions on the tab, bounded by ctx. Cancelling the derived
// context stops the actions without closing the tab.
func (b *ChromeDP) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.tabCtx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// runBounded is run with the action timeout applied; a deadline hit maps to ErrWaitTimeout
func (b *ChromeDP) runBounded(ctx context.Context, selector string, actions ...chromedp.Action) error {
	boundedCtx, cancel := context.WithTimeout(ctx, b.actionTimeout)
	defer cancel()

	err := b.run(boundedCtx, actions...)
	if err != nil && ctx.Err() == nil && errors.Is(boundedCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", interfaces.ErrWaitTimeout, selector)
	}
	return err
}

func (b *ChromeDP) evaluate(ctx context.Context, res any, fn string, args ...any) error {
	expr, err := invoke(fn, args...)
	if err != nil {
		return err
	}
	return b.run(ctx, chromedp.Evaluate(expr, res))
}

func notFound(selector string) error {
	return fmt.Errorf("%w: %s", interfaces.ErrElementNotFound, selector)
}

// Navigate loads url in the tab
func (b *ChromeDP) Navigate(ctx context.Context, url string) error {
	if err := b.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// Exists reports whether selector matches at least one element, without waiting
func (b *ChromeDP) Exists(ctx context.Context, selector string) (bool, error) {
	var nodes []*cdp.Node
	if err := b.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return false, fmt.Errorf("query %s: %w", selector, err)
	}
	return len(nodes) > 0, nil
}

func (b *ChromeDP) requireExists(ctx context.Context, selector string) error {
	exists, err := b.Exists(ctx, selector)
	if err != nil {
		return err
	}
	if !exists {
		return notFound(selector)
	}
	return nil
}

// Click hit-tests the element centre, then sends a native mouse click
func (b *ChromeDP) Click(ctx context.Context, selector string) error {
	var hit string
	if err := b.evaluate(ctx, &hit, hitTestFn, selector); err != nil {
		return fmt.Errorf("hit test %s: %w", selector, err)
	}

	switch {
	case hit == "missing":
		return notFound(selector)
	case strings.HasPrefix(hit, "covered:"):
		return fmt.Errorf("%w: %s covered by %s", interfaces.ErrClickIntercepted, selector, strings.TrimPrefix(hit, "covered:"))
	}

	return b.runBounded(ctx, selector, chromedp.Click(selector, chromedp.ByQuery))
}

// ScriptClick dispatches element.click() from page script
func (b *ChromeDP) ScriptClick(ctx context.Context, selector string) error {
	var clicked bool
	if err := b.evaluate(ctx, &clicked, scriptClickFn, selector); err != nil {
		return fmt.Errorf("script click %s: %w", selector, err)
	}
	if !clicked {
		return notFound(selector)
	}
	return nil
}

// SendKeys types text into the first match
func (b *ChromeDP) SendKeys(ctx context.Context, selector, text string) error {
	if err := b.requireExists(ctx, selector); err != nil {
		return err
	}
	return b.runBounded(ctx, selector, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

// Attribute returns the named attribute of the first match
func (b *ChromeDP) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	var res foundValue[string]
	if err := b.evaluate(ctx, &res, attributeFn, selector, name); err != nil {
		return "", false, fmt.Errorf("read %s of %s: %w", name, selector, err)
	}
	if !res.Found {
		return "", false, notFound(selector)
	}
	return res.Value, res.Set, nil
}

// SetDisplay changes only the inline display style of the first match
func (b *ChromeDP) SetDisplay(ctx context.Context, selector, display string) error {
	var ok bool
	if err := b.evaluate(ctx, &ok, setDisplayFn, selector, display); err != nil {
		return fmt.Errorf("set display of %s: %w", selector, err)
	}
	if !ok {
		return notFound(selector)
	}
	return nil
}

// ScrollIntoView scrolls the first match into the viewport
func (b *ChromeDP) ScrollIntoView(ctx context.Context, selector string) error {
	if err := b.requireExists(ctx, selector); err != nil {
		return err
	}
	return b.runBounded(ctx, selector, chromedp.ScrollIntoView(selector, chromedp.ByQuery))
}

func (b *ChromeDP) poll(ctx context.Context, fn, selector string, timeout time.Duration) error {
	var ok bool
	err := b.run(ctx, chromedp.PollFunction(fn, &ok,
		chromedp.WithPollingArgs(selector),
		chromedp.WithPollingInterval(pollInterval),
		chromedp.WithPollingTimeout(timeout),
	))
	if errors.Is(err, chromedp.ErrPollingTimeout) {
		return fmt.Errorf("%w: %s after %s", interfaces.ErrWaitTimeout, selector, timeout)
	}
	return err
}

// WaitVisible blocks until the first match has a rendered, visible box
func (b *ChromeDP) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return b.poll(ctx, visibleFn, selector, timeout)
}

// WaitClickable blocks until the first match is visible, enabled and accepts pointer events
func (b *ChromeDP) WaitClickable(ctx context.Context, selector string, timeout time.Duration) error {
	return b.poll(ctx, clickableFn, selector, timeout)
}

// IsEnabled reports whether the first match is not disabled
func (b *ChromeDP) IsEnabled(ctx context.Context, selector string) (bool, error) {
	var res foundValue[bool]
	if err := b.evaluate(ctx, &res, enabledFn, selector); err != nil {
		return false, fmt.Errorf("read disabled state of %s: %w", selector, err)
	}
	if !res.Found {
		return false, notFound(selector)
	}
	return res.Value, nil
}

// OuterHTML returns the serialized HTML of the first match
func (b *ChromeDP) OuterHTML(ctx context.Context, selector string) (string, error) {
	if err := b.requireExists(ctx, selector); err != nil {
		return "", err
	}
	var html string
	if err := b.runBounded(ctx, selector, chromedp.OuterHTML(selector, &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read html of %s: %w", selector, err)
	}
	return html, nil
}

// InnerText returns the rendered text of the first match
func (b *ChromeDP) InnerText(ctx context.Context, selector string) (string, error) {
	var res foundValue[string]
	if err := b.evaluate(ctx, &res, innerTextFn, selector); err != nil {
		return "", fmt.Errorf("read text of %s: %w", selector, err)
	}
	if !res.Found {
		return "", notFound(selector)
	}
	return res.Value, nil
}

// Values returns the value of every match in document order
func (b *ChromeDP) Values(ctx context.Context, selector string) ([]string, error) {
	var values []string
	if err := b.evaluate(ctx, &values, valuesFn, selector); err != nil {
		return nil, fmt.Errorf("read values of %s: %w", selector, err)
	}
	return values, nil
}

// Sleep pauses for d or until ctx is done
func (b *ChromeDP) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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

// Close closes the tab and shuts Chrome down. It is safe to call more than once.
func (b *ChromeDP) Close() error {
	b.closeOnce.Do(func() {
		b.tabCancel()
		b.allocatorCancel()
		b.logger.Debug().Msg("Browser closed")
	})
	return nil
}
