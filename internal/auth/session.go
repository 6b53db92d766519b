package auth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/network"
)

var (
	// ErrNoSession means no captured session exists on disk.
	ErrNoSession = errors.New("no captured session, run `lisync login` first")
	// ErrSessionExpired means the captured session is missing its auth
	// cookie or the cookie has expired.
	ErrSessionExpired = errors.New("captured session has expired, run `lisync login` again")
)

// AuthCookie is the cookie that carries the logged-in session
const AuthCookie = "li_at"

var expiryCookies = map[string]bool{AuthCookie: true, "JSESSIONID": true}

// SessionState is a snapshot of an authenticated browser session
type SessionState struct {
	Cookies    []Cookie        `json:"cookies"`
	Origins    []OriginStorage `json:"origins"`
	CapturedAt time.Time       `json:"captured_at"`
	ExpiresAt  time.Time       `json:"expires_at"` // zero when no auth cookie has an expiry
}

// Cookie is the part of a browser cookie needed to restore it. cdproto's
// enum fields reject their own zero values when decoded, so they are kept as
// plain strings here.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"` // unix seconds, <= 0 for session cookies
	HTTPOnly bool    `json:"http_only"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"same_site,omitempty"`
}

// CookiesFrom copies captured CDP cookies into their stored form
func CookiesFrom(cookies []*network.Cookie) []Cookie {
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil {
			continue
		}
		out = append(out, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return out
}

// OriginStorage holds the localStorage entries of one origin
type OriginStorage struct {
	Origin       string        `json:"origin"`
	LocalStorage []StorageItem `json:"local_storage"`
}

type StorageItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SessionStore persists the captured session as a JSON file
type SessionStore struct {
	path string
	now  func() time.Time
}

// NewSessionStore creates a session store at the given path
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path, now: time.Now}
}

// Path returns the file backing the store
func (s *SessionStore) Path() string {
	return s.path
}

// Exists reports whether a session file is present
func (s *SessionStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Save persists cookies and local storage to disk
func (s *SessionStore) Save(cookies []*network.Cookie, origins []OriginStorage) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}

	// The earliest expiry among auth cookies bounds the whole session.
	// Session cookies (Expires <= 0) don't constrain it.
	stored := CookiesFrom(cookies)

	var earliestExpiry time.Time
	for _, c := range stored {
		if !expiryCookies[c.Name] || c.Expires <= 0 {
			continue
		}
		exp := time.Unix(int64(c.Expires), 0)
		if earliestExpiry.IsZero() || exp.Before(earliestExpiry) {
			earliestExpiry = exp
		}
	}

	state := SessionState{
		Cookies:    stored,
		Origins:    origins,
		CapturedAt: s.now(),
		ExpiresAt:  earliestExpiry,
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0600)
}

// Load retrieves the session from disk
func (s *SessionStore) Load() (*SessionState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

// Validate loads the session and checks it is usable
func (s *SessionStore) Validate() (*SessionState, error) {
	state, err := s.Load()
	if err != nil {
		return nil, err
	}

	if !state.ExpiresAt.IsZero() && s.now().After(state.ExpiresAt) {
		return nil, ErrSessionExpired
	}

	for _, c := range state.Cookies {
		if c.Name == AuthCookie && c.Value != "" {
			return state, nil
		}
	}
	return nil, ErrSessionExpired
}

// IsValid checks if the stored session is still valid
func (s *SessionStore) IsValid() bool {
	_, err := s.Validate()
	return err == nil
}

// Clear removes the stored session
func (s *SessionStore) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
