package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, now time.Time) *SessionStore {
	t.Helper()
	s := NewSessionStore(filepath.Join(t.TempDir(), ".auth", "session.json"))
	s.now = func() time.Time { return now }
	return s
}

func TestSessionStore_Missing(t *testing.T) {
	s := newTestStore(t, time.Now())

	assert.False(t, s.Exists())
	_, err := s.Validate()
	assert.ErrorIs(t, err, ErrNoSession)
	assert.False(t, s.IsValid())
	assert.NoError(t, s.Clear(), "clearing a missing session is fine")
}

func TestSessionStore_SaveAndValidate(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	exp := float64(now.Add(30 * 24 * time.Hour).Unix())
	cookies := []*network.Cookie{
		{Name: AuthCookie, Value: "token", Domain: ".www.linkedin.com", Expires: exp},
		{Name: "JSESSIONID", Value: "ajax:1", Domain: ".www.linkedin.com", Expires: exp + 100},
		{Name: "lang", Value: "en", Domain: ".linkedin.com", Expires: -1},
	}
	origins := []OriginStorage{{Origin: "https://www.linkedin.com", LocalStorage: []StorageItem{{Name: "k", Value: "v"}}}}

	require.NoError(t, s.Save(cookies, origins))
	assert.True(t, s.Exists())

	state, err := s.Validate()
	require.NoError(t, err)
	assert.Len(t, state.Cookies, 3)
	assert.Equal(t, origins, state.Origins)
	assert.Equal(t, int64(exp), state.ExpiresAt.Unix(), "earliest auth cookie expiry wins")
	assert.True(t, state.CapturedAt.Equal(now))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSessionStore_RoundTripKeepsCookieFields(t *testing.T) {
	s := newTestStore(t, time.Now())

	// Priority and SourceScheme are left at their zero values, as captured
	// cookies often are.
	require.NoError(t, s.Save([]*network.Cookie{
		{Name: AuthCookie, Value: "x", Domain: ".linkedin.com", Path: "/", HTTPOnly: true, Secure: true, SameSite: network.CookieSameSiteNone, Expires: -1},
		{Name: "lang", Value: "en", Domain: ".linkedin.com"},
	}, nil))

	state, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []Cookie{
		{Name: AuthCookie, Value: "x", Domain: ".linkedin.com", Path: "/", HTTPOnly: true, Secure: true, SameSite: "None", Expires: -1},
		{Name: "lang", Value: "en", Domain: ".linkedin.com"},
	}, state.Cookies)

	_, err = s.Validate()
	assert.NoError(t, err)
}

func TestSessionStore_Expired(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	require.NoError(t, s.Save([]*network.Cookie{
		{Name: AuthCookie, Value: "token", Expires: float64(now.Add(time.Hour).Unix())},
	}, nil))

	s.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err := s.Validate()
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessionStore_MissingAuthCookie(t *testing.T) {
	s := newTestStore(t, time.Now())
	require.NoError(t, s.Save([]*network.Cookie{{Name: "lang", Value: "en"}}, nil))

	_, err := s.Validate()
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessionStore_Clear(t *testing.T) {
	s := newTestStore(t, time.Now())
	require.NoError(t, s.Save([]*network.Cookie{{Name: AuthCookie, Value: "x"}}, nil))
	require.NoError(t, s.Clear())
	assert.False(t, s.Exists())
}

func TestLoggedInURL(t *testing.T) {
	assert.True(t, loggedInURL("https://www.linkedin.com/feed/"))
	assert.True(t, loggedInURL("https://www.linkedin.com/mynetwork/"))
	assert.False(t, loggedInURL("https://www.linkedin.com/login"))
	assert.False(t, loggedInURL("https://www.linkedin.com/checkpoint/challenge"))
}
