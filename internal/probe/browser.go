package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// loadTimeout bounds one page load on top of the settle wait.
const loadTimeout = 30 * time.Second

// Browser loads a page and returns the text of the element matching selector
// once settle has passed.
type Browser interface {
	LoadText(ctx context.Context, pageURL, selector string, settle time.Duration) (string, error)
}

// ChromeBrowser drives headless Chrome through chromedp. Each load starts
// from a fresh browser context, so every read runs the page's widget again.
type ChromeBrowser struct {
	allocCtx  context.Context
	cancel    context.CancelFunc
	userAgent string
}

// NewChromeBrowser starts from chromedp's headless defaults; extra adds or
// overrides allocator flags (chromedp.NoSandbox in containers, for one).
func NewChromeBrowser(ctx context.Context, userAgent string, extra ...chromedp.ExecAllocatorOption) *ChromeBrowser {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], extra...)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	return &ChromeBrowser{
		allocCtx:  allocCtx,
		cancel:    cancel,
		userAgent: userAgent,
	}
}

func (b *ChromeBrowser) LoadText(ctx context.Context, pageURL, selector string, settle time.Duration) (string, error) {
	timeoutCtx, cancelTimeout := context.WithTimeout(b.allocCtx, settle+loadTimeout)
	defer cancelTimeout()
	tabCtx, cancelTab := chromedp.NewContext(timeoutCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var actions []chromedp.Action
	if b.userAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(b.userAgent))
	}
	var text string
	actions = append(actions,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(settle),
		chromedp.Text(selector, &text, chromedp.ByQuery),
	)

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("load %s: %w", pageURL, err)
	}
	return text, nil
}

// Close shuts the browser down.
func (b *ChromeBrowser) Close() {
	b.cancel()
}
