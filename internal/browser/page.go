package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// Page is the navigation surface the scrapers need. It is implemented by a
// chromedp tab and by fakes in tests.
type Page interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	ScrollBy(ctx context.Context, px int) error
	ScrollToBottom(ctx context.Context) error
	// ClickText clicks the first visible element whose text is exactly
	// text. It reports false when there is none.
	ClickText(ctx context.Context, text string) (bool, error)
}

// SettleConfig bounds the wait for a page to stop changing
type SettleConfig struct {
	Interval   time.Duration
	QuietPolls int
	Timeout    time.Duration
}

// DefaultSettle is used when a zero SettleConfig is given
var DefaultSettle = SettleConfig{
	Interval:   500 * time.Millisecond,
	QuietPolls: 3,
	Timeout:    8 * time.Second,
}

func (c SettleConfig) withDefaults() SettleConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultSettle.Interval
	}
	if c.QuietPolls <= 0 {
		c.QuietPolls = DefaultSettle.QuietPolls
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultSettle.Timeout
	}
	return c
}

// Settle polls sample until it returns the same value QuietPolls times in a
// row or Timeout passes. Running out of time is not an error: lazy pages
// that never go quiet are scraped as they are.
func Settle(ctx context.Context, cfg SettleConfig, sample func(context.Context) (int, error)) (bool, error) {
	cfg = cfg.withDefaults()

	deadline := time.NewTimer(cfg.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	last, quiet := -1, 0
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			return false, nil
		case <-ticker.C:
			n, err := sample(ctx)
			if err != nil {
				return false, err
			}
			if n == last {
				quiet++
				if quiet >= cfg.QuietPolls {
					return true, nil
				}
				continue
			}
			last, quiet = n, 0
		}
	}
}

// tab is a Page backed by a chromedp browser context
type tab struct {
	ctx         context.Context // chromedp tab context
	pageTimeout time.Duration
	settle      SettleConfig
	log         zerolog.Logger
}

// run executes actions in the tab, bounded by both the caller's ctx and the
// per-page timeout.
func (t *tab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(t.ctx, t.pageTimeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (t *tab) bodySize(ctx context.Context) (int, error) {
	var n int
	err := t.run(ctx, chromedp.Evaluate(`document.body ? document.body.innerHTML.length : 0`, &n))
	return n, err
}

func (t *tab) settleAfter(ctx context.Context, what string) error {
	quiet, err := Settle(ctx, t.settle, t.bodySize)
	if err != nil {
		return fmt.Errorf("waiting for %s to settle: %w", what, err)
	}
	if !quiet {
		t.log.Debug().Str("after", what).Msg("Page still changing at settle timeout")
	}
	return nil
}

func (t *tab) Navigate(ctx context.Context, url string) error {
	if err := t.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to load %s: %w", url, err)
	}
	return t.settleAfter(ctx, url)
}

func (t *tab) URL(ctx context.Context) (string, error) {
	var url string
	err := t.run(ctx, chromedp.Location(&url))
	return url, err
}

func (t *tab) HTML(ctx context.Context) (string, error) {
	var html string
	err := t.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (t *tab) ScrollBy(ctx context.Context, px int) error {
	if err := t.run(ctx, chromedp.Evaluate(fmt.Sprintf(`window.scrollBy(0, %d)`, px), nil)); err != nil {
		return err
	}
	return t.settleAfter(ctx, "scroll")
}

func (t *tab) ScrollToBottom(ctx context.Context) error {
	if err := t.run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil)); err != nil {
		return err
	}
	return t.settleAfter(ctx, "scroll")
}

const clickTextJS = `
	(function(text) {
		const els = document.querySelectorAll('button, a, span, div');
		for (const el of els) {
			if (el.textContent && el.textContent.trim() === text && el.offsetParent !== null) {
				el.click();
				return true;
			}
		}
		return false;
	})(%q)
`

func (t *tab) ClickText(ctx context.Context, text string) (bool, error) {
	var clicked bool
	if err := t.run(ctx, chromedp.Evaluate(fmt.Sprintf(clickTextJS, text), &clicked)); err != nil {
		return false, err
	}
	if !clicked {
		return false, nil
	}
	return true, t.settleAfter(ctx, "click")
}
