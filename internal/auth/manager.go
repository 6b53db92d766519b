package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// Manager handles capturing and clearing the LinkedIn session
type Manager struct {
	store   *SessionStore
	baseURL string
	log     zerolog.Logger
}

// NewManager creates a new auth manager
func NewManager(store *SessionStore, baseURL string, log zerolog.Logger) *Manager {
	return &Manager{store: store, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// Sessions returns the store the manager saves captured sessions to
func (m *Manager) Sessions() *SessionStore {
	return m.store
}

// IsAuthenticated checks if we have a valid stored session
func (m *Manager) IsAuthenticated() bool {
	return m.store.IsValid()
}

// Login opens a visible browser for the user to log in, then captures the
// session cookies and local storage.
func (m *Manager) Login(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),
		chromedp.Flag("disable-gpu", false),
		chromedp.Flag("start-maximized", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(m.baseURL+"/login")); err != nil {
		return fmt.Errorf("failed to navigate to login page: %w", err)
	}

	m.log.Info().Msg("Log in in the browser window; the session is captured once the feed loads")

	cookies, err := m.waitForLogin(browserCtx)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	origins, err := m.extractLocalStorage(browserCtx)
	if err != nil {
		// Cookies alone are enough to browse; local storage only smooths over
		// first-visit prompts.
		m.log.Warn().Err(err).Msg("Could not capture local storage")
	}

	if err := m.store.Save(cookies, origins); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	m.log.Info().Str("path", m.store.Path()).Msg("Session saved")
	return nil
}

// loggedInURL reports whether url is a page only reachable after login
func loggedInURL(url string) bool {
	return strings.Contains(url, "linkedin.com/feed") || strings.Contains(url, "linkedin.com/mynetwork")
}

// waitForLogin polls until the user has logged in and returns the cookies
func (m *Manager) waitForLogin(ctx context.Context) ([]*network.Cookie, error) {
	timeout := time.After(5 * time.Minute)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return nil, fmt.Errorf("login timeout exceeded")
		case <-ticker.C:
			var url string
			if err := chromedp.Run(ctx, chromedp.Location(&url)); err != nil {
				continue
			}
			if !loggedInURL(url) {
				continue
			}

			cookies, err := m.extractCookies(ctx)
			if err != nil {
				continue
			}
			for _, c := range cookies {
				if c.Name == AuthCookie && c.Value != "" {
					return cookies, nil
				}
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// extractCookies gets all cookies from the browser
func (m *Manager) extractCookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie

	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	)

	return cookies, err
}

// extractLocalStorage captures localStorage of the current origin
func (m *Manager) extractLocalStorage(ctx context.Context) ([]OriginStorage, error) {
	var origin string
	var items []StorageItem

	err := chromedp.Run(ctx,
		chromedp.Evaluate(`window.location.origin`, &origin),
		chromedp.Evaluate(`Object.keys(localStorage).map(k => ({name: k, value: localStorage.getItem(k)}))`, &items),
	)
	if err != nil {
		return nil, err
	}

	return []OriginStorage{{Origin: origin, LocalStorage: items}}, nil
}

// Logout clears the stored session
func (m *Manager) Logout() error {
	return m.store.Clear()
}
