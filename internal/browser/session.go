package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/ibeckermayer/lisync/internal/auth"
)

// Session owns one browser process and its single tab for the duration of a
// run. Close releases both and is safe to call more than once.
type Session struct {
	page    Page
	release func()
	once    sync.Once
}

// NewSession wraps an existing page. release is called exactly once by Close.
func NewSession(page Page, release func()) *Session {
	return &Session{page: page, release: release}
}

// Page returns the session's tab
func (s *Session) Page() Page {
	return s.page
}

// Close shuts down the tab and the browser process
func (s *Session) Close() {
	s.once.Do(func() {
		if s.release != nil {
			s.release()
		}
	})
}

// Launcher starts browser sessions from a captured session snapshot
type Launcher interface {
	Launch(ctx context.Context, state *auth.SessionState) (*Session, error)
}

// ChromeLauncher launches a local Chrome through chromedp
type ChromeLauncher struct {
	Headless    bool
	PageTimeout time.Duration
	Settle      SettleConfig
	Log         zerolog.Logger
}

// Launch starts Chrome, injects the session cookies and seeds local storage.
func (l *ChromeLauncher) Launch(ctx context.Context, state *auth.SessionState) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, Options(l.Headless)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	release := func() {
		tabCancel()
		allocCancel()
	}

	// The first Run on tabCtx starts the browser, so it must not use a
	// derived context that could be cancelled early.
	if err := chromedp.Run(tabCtx, injectCookies(state.Cookies)); err != nil {
		release()
		return nil, fmt.Errorf("failed to inject cookies: %w", err)
	}

	pageTimeout := l.PageTimeout
	if pageTimeout <= 0 {
		pageTimeout = 30 * time.Second
	}
	t := &tab{ctx: tabCtx, pageTimeout: pageTimeout, settle: l.Settle, log: l.Log}

	for _, o := range state.Origins {
		if len(o.LocalStorage) == 0 {
			continue
		}
		if err := seedLocalStorage(ctx, t, o); err != nil {
			l.Log.Warn().Err(err).Str("origin", o.Origin).Msg("Could not restore local storage")
		}
	}

	return NewSession(t, release), nil
}

// injectCookies sets cookies in the browser context
func injectCookies(cookies []auth.Cookie) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			if err := setCookie(c).Do(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// setCookie maps a stored cookie onto the CDP call. Empty enum values and
// session expiries are left unset.
func setCookie(c auth.Cookie) *network.SetCookieParams {
	p := network.SetCookie(c.Name, c.Value).
		WithDomain(c.Domain).
		WithPath(c.Path).
		WithSecure(c.Secure).
		WithHTTPOnly(c.HTTPOnly)
	if c.SameSite != "" {
		p = p.WithSameSite(network.CookieSameSite(c.SameSite))
	}
	if c.Expires > 0 {
		exp := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
		p = p.WithExpires(&exp)
	}
	return p
}

func seedLocalStorage(ctx context.Context, t *tab, o auth.OriginStorage) error {
	items, err := json.Marshal(o.LocalStorage)
	if err != nil {
		return err
	}
	js := fmt.Sprintf(`(%s).forEach(i => localStorage.setItem(i.name, i.value))`, items)

	return t.run(ctx,
		chromedp.Navigate(o.Origin),
		chromedp.Evaluate(js, nil),
	)
}
