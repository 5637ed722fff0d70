package interfaces

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrElementNotFound is returned when a selector matches nothing on the page.
	ErrElementNotFound = errors.New("element not found")

	// ErrWaitTimeout is returned when a bounded wait expires before its condition holds.
	ErrWaitTimeout = errors.New("timed out waiting for element")

	// ErrClickIntercepted is returned by Click when another element covers the click point.
	ErrClickIntercepted = errors.New("click intercepted by another element")
)

// Browser is the page-level automation surface used by the quiz steps.
// All selectors are CSS selectors. Implementations act on a single tab.
type Browser interface {
	// Navigate loads url in the current tab.
	Navigate(ctx context.Context, url string) error

	// Exists reports whether selector matches at least one element.
	Exists(ctx context.Context, selector string) (bool, error)

	// Click performs a native mouse click on the first match.
	// Returns ErrClickIntercepted if the element is covered at its click point.
	Click(ctx context.Context, selector string) error

	// ScriptClick calls element.click() from page script, bypassing hit testing.
	ScriptClick(ctx context.Context, selector string) error

	// SendKeys types text into the first match.
	SendKeys(ctx context.Context, selector, text string) error

	// Attribute returns the named attribute of the first match and whether it was set.
	Attribute(ctx context.Context, selector, name string) (string, bool, error)

	// SetDisplay sets the inline style.display of the first match.
	SetDisplay(ctx context.Context, selector, display string) error

	// ScrollIntoView scrolls the first match into the viewport.
	ScrollIntoView(ctx context.Context, selector string) error

	// WaitVisible blocks until the first match is rendered and visible.
	// Returns ErrWaitTimeout once timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// WaitClickable blocks until the first match is visible and enabled.
	// Returns ErrWaitTimeout once timeout elapses.
	WaitClickable(ctx context.Context, selector string, timeout time.Duration) error

	// IsEnabled reports whether the first match is not disabled.
	IsEnabled(ctx context.Context, selector string) (bool, error)

	// OuterHTML returns the serialized HTML of the first match.
	OuterHTML(ctx context.Context, selector string) (string, error)

	// InnerText returns the rendered text of the first match.
	InnerText(ctx context.Context, selector string) (string, error)

	// Values returns the value property of every match, in document order.
	Values(ctx context.Context, selector string) ([]string, error)

	// Sleep pauses for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error

	// Close tears the browser session down.
	Close() error
}
