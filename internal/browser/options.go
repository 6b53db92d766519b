// Package browser provides the chromedp setup used for scraping: stealth
// allocator options, an owned per-run session handle, and page navigation.
package browser

import "github.com/chromedp/chromedp"

// UserAgent matches a desktop Chrome build. LinkedIn serves the mobile
// layout, which has none of the analytics markup, to unknown agents.
const UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Locale pins the UI language. Counts, dates and section headers are matched
// as English text.
const Locale = "en-US"

// Window size of every session. Below roughly 1200px LinkedIn collapses the
// activity feed into a single narrow column and hides the post metrics row.
const (
	WindowWidth  = 1280
	WindowHeight = 900
)

// Options returns the chromedp allocator options for a LinkedIn session.
func Options(headless bool) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),

		// LinkedIn checks navigator.webdriver and answers with a login
		// checkpoint, which invalidates the captured li_at cookie.
		chromedp.Flag("disable-blink-features", "AutomationControlled"),

		chromedp.UserAgent(UserAgent),
		chromedp.Flag("lang", Locale),
		chromedp.Flag("accept-lang", Locale),
		chromedp.WindowSize(WindowWidth, WindowHeight),

		// No first-run or default-browser dialogs over the login page.
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-infobars", true),
	)

	if headless {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}

	return opts
}
