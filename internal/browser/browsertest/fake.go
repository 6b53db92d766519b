// Package browsertest provides an in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ibeckermayer/lisync/internal/browser"
)

var _ browser.Page = (*Page)(nil)

// Page serves fixed HTML per URL. Navigating to a URL in Redirects lands on
// the target instead; URLs in Fail return an error.
type Page struct {
	mu        sync.Mutex
	Pages     map[string]string
	Redirects map[string]string
	Fail      map[string]error
	current   string
	Visited   []string
	Clicks    []string
	Scrolls   int
}

// New creates a fake page serving pages
func New(pages map[string]string) *Page {
	return &Page{
		Pages:     pages,
		Redirects: make(map[string]string),
		Fail:      make(map[string]error),
	}
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	p.Visited = append(p.Visited, url)
	if err, ok := p.Fail[url]; ok {
		return err
	}
	if target, ok := p.Redirects[url]; ok {
		url = target
	}
	if _, ok := p.Pages[url]; !ok {
		return fmt.Errorf("failed to load %s: no such page", url)
	}
	p.current = url
	return nil
}

func (p *Page) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, nil
}

func (p *Page) HTML(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == "" {
		return "", fmt.Errorf("no page loaded")
	}
	return p.Pages[p.current], nil
}

func (p *Page) ScrollBy(context.Context, int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Scrolls++
	return nil
}

func (p *Page) ScrollToBottom(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Scrolls++
	return nil
}

func (p *Page) ClickText(_ context.Context, text string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Clicks = append(p.Clicks, text)
	return false, nil
}
