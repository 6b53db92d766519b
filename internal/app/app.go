package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ibeckermayer/lisync/internal/auth"
	"github.com/ibeckermayer/lisync/internal/browser"
	"github.com/ibeckermayer/lisync/internal/config"
	"github.com/ibeckermayer/lisync/internal/notifier"
	"github.com/ibeckermayer/lisync/internal/reconcile"
	"github.com/ibeckermayer/lisync/internal/report"
	"github.com/ibeckermayer/lisync/internal/scraper"
	"github.com/ibeckermayer/lisync/internal/store"
	"github.com/ibeckermayer/lisync/internal/types"
)

// ErrAborted wraps every failure that stops a run before the browser starts
var ErrAborted = errors.New("sync aborted")

// StoreOpener opens the relational store. It is called once to resolve the
// user and once around persistence; the caller closes what it returns.
type StoreOpener func(ctx context.Context) (*store.Store, error)

// OpenConfigured returns a StoreOpener for the configured database
func OpenConfigured(db config.DatabaseConfig) StoreOpener {
	return func(context.Context) (*store.Store, error) {
		return store.New(db.Driver, db.DSN)
	}
}

// App holds the application state.
type App struct {
	mu          sync.RWMutex
	authManager *auth.Manager // immutable after creation
	launcher    browser.Launcher
	openStore   StoreOpener
	now         func() time.Time
	log         zerolog.Logger

	// Mutable fields - use getSnapshot() for concurrent access.
	config   *config.Config
	scraper  *scraper.Scraper
	cache    *store.StepCache
	reporter *report.Builder
	notifier *notifier.Notifier
}

// snapshot holds fields that may be replaced by ReloadConfig.
// Use getSnapshot() to obtain a consistent, point-in-time copy.
type snapshot struct {
	config   *config.Config
	scraper  *scraper.Scraper
	cache    *store.StepCache
	reporter *report.Builder
	notifier *notifier.Notifier
}

// getSnapshot returns a snapshot of mutable fields under read lock.
func (a *App) getSnapshot() snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return snapshot{
		config:   a.config,
		scraper:  a.scraper,
		cache:    a.cache,
		reporter: a.reporter,
		notifier: a.notifier,
	}
}

// New creates a new App instance.
func New(cfg *config.Config, authManager *auth.Manager, launcher browser.Launcher, openStore StoreOpener, log zerolog.Logger) *App {
	a := &App{
		authManager: authManager,
		launcher:    launcher,
		openStore:   openStore,
		now:         time.Now,
		log:         log,
	}
	a.apply(cfg)
	return a
}

// FromConfig wires an App to Chrome and the configured database.
func FromConfig(cfg *config.Config, log zerolog.Logger) *App {
	sessions := auth.NewSessionStore(cfg.Session.Path)
	manager := auth.NewManager(sessions, cfg.Scraping.BaseURL, log.With().Str("component", "auth").Logger())
	return New(cfg, manager, chromeLauncher(cfg, log), OpenConfigured(cfg.Database), log)
}

func chromeLauncher(cfg *config.Config, log zerolog.Logger) *browser.ChromeLauncher {
	return &browser.ChromeLauncher{
		Headless:    cfg.Scraping.Headless,
		PageTimeout: cfg.Scraping.PageTimeout.Duration,
		Settle: browser.SettleConfig{
			Interval:   cfg.Scraping.SettleInterval.Duration,
			QuietPolls: cfg.Scraping.SettleQuietPolls,
			Timeout:    cfg.Scraping.SettleTimeout.Duration,
		},
		Log: log.With().Str("component", "browser").Logger(),
	}
}

// apply swaps in a new config and everything derived from it
func (a *App) apply(cfg *config.Config) {
	sc := scraper.New(scraper.Options{
		BaseURL:      cfg.Scraping.BaseURL,
		PostLimit:    cfg.Scraping.PostLimit,
		ScrollPasses: cfg.Scraping.ScrollPasses,
		Now:          func() time.Time { return a.now() },
		Log:          a.log.With().Str("component", "scraper").Logger(),
	})

	var cache *store.StepCache
	if cfg.Scraping.CacheSteps {
		if dir, err := config.CacheDir(); err == nil {
			cache = store.NewStepCache(filepath.Join(dir, "steps"))
		} else {
			a.log.Warn().Err(err).Msg("No cache directory, step outputs won't be kept")
		}
	}

	reporter, err := report.New(cfg.Notify.TopPosts)
	if err != nil {
		a.log.Warn().Err(err).Msg("Report template broken, reports disabled")
	}
	n, err := notifier.NewFromConfig(cfg.Notify)
	if err != nil {
		a.log.Warn().Err(err).Msg("Notifications disabled")
	}

	a.mu.Lock()
	a.config = cfg
	a.scraper = sc
	a.cache = cache
	a.reporter = reporter
	a.notifier = n
	a.mu.Unlock()
}

// SetClock replaces the clock used for relative dates and history rows
func (a *App) SetClock(now func() time.Time) {
	a.now = now
}

// SetStepCache replaces the step cache; nil disables it
func (a *App) SetStepCache(c *store.StepCache) {
	a.mu.Lock()
	a.cache = c
	a.mu.Unlock()
}

// SetNotifier replaces the report notifier; nil disables it
func (a *App) SetNotifier(n *notifier.Notifier) {
	a.mu.Lock()
	a.notifier = n
	a.mu.Unlock()
}

// IsAuthenticated checks if a valid LinkedIn session is stored.
func (a *App) IsAuthenticated() bool {
	return a.authManager.IsAuthenticated()
}

// TriggerLogin starts the LinkedIn login flow.
func (a *App) TriggerLogin(ctx context.Context) error {
	a.log.Info().Msg("Login triggered - opening browser for LinkedIn authentication")
	if err := a.authManager.Login(ctx); err != nil {
		a.log.Error().Err(err).Msg("Login failed")
		return err
	}
	a.log.Info().Str("path", a.authManager.Sessions().Path()).Msg("Login successful - session saved")
	return nil
}

// TriggerLogout clears the stored LinkedIn session.
func (a *App) TriggerLogout() error {
	a.log.Info().Msg("Logout triggered - clearing stored session")
	if err := a.authManager.Logout(); err != nil {
		a.log.Error().Err(err).Msg("Logout failed")
		return err
	}
	a.log.Info().Msg("Logout successful - session cleared")
	return nil
}

// ReloadConfig reloads the configuration from disk.
func (a *App) ReloadConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.apply(cfg)
	a.log.Info().Msg("Configuration reloaded")
	return nil
}

// RunSync performs one full scrape and persists the result. The returned
// summary is never nil and reports the stage the run stopped at. A report
// of the run is cached and, when configured, emailed.
func (a *App) RunSync(ctx context.Context) (*Summary, error) {
	start := a.now()
	s := a.getSnapshot()
	sum := &Summary{}

	result, err := a.run(ctx, s, sum)
	sum.Duration = a.now().Sub(start)
	if err == nil {
		a.log.Info().Dur("duration", sum.Duration).Msg("Sync complete")
	}

	a.publish(s, sum, result, err)
	return sum, err
}

func (a *App) run(ctx context.Context, s snapshot, sum *Summary) (types.Result, error) {
	a.enter(sum, StageInit)
	state, err := a.authManager.Sessions().Validate()
	if err != nil {
		return types.Result{}, a.abort(sum, fmt.Errorf("session: %w", err))
	}
	userID, err := a.resolveUser(ctx, s.config.User.Email)
	if err != nil {
		return types.Result{}, a.abort(sum, err)
	}

	result, err := a.scrape(ctx, s, state, sum)
	if err != nil {
		return result, err
	}

	a.enter(sum, StagePersist)
	stats, err := a.persist(ctx, userID, result)
	sum.Stats = stats
	if err != nil {
		return result, fmt.Errorf("persisting results: %w", err)
	}

	a.enter(sum, StageDone)
	return result, nil
}

func (a *App) enter(sum *Summary, stage Stage) {
	sum.Stage = stage
	a.log.Info().Stringer("stage", stage).Msg("Entering stage")
}

func (a *App) abort(sum *Summary, err error) error {
	sum.Stage = StageAborted
	a.log.Error().Err(err).Msg("Sync aborted")
	return fmt.Errorf("%w: %w", ErrAborted, err)
}

func (a *App) resolveUser(ctx context.Context, email string) (string, error) {
	st, err := a.openStore(ctx)
	if err != nil {
		return "", fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	id, err := st.ResolveUser(ctx, email)
	if err != nil {
		return "", err
	}
	a.log.Info().Str("user_id", id).Msg("Resolved user")
	return id, nil
}

// scrape runs every browser stage. The session is closed when it returns,
// before anything is persisted.
func (a *App) scrape(ctx context.Context, s snapshot, state *auth.SessionState, sum *Summary) (types.Result, error) {
	var r types.Result

	sess, err := a.launcher.Launch(ctx, state)
	if err != nil {
		return r, fmt.Errorf("launching browser: %w", err)
	}
	defer sess.Close()

	page := sess.Page()
	sc := s.scraper

	a.enter(sum, StageProfile)
	r.Profile = runStage(a, ctx, s, page, StageProfile, store.StepProfile, func() (types.Profile, error) {
		return sc.ScrapeProfile(ctx, page)
	})
	sum.Profile = r.Profile

	a.enter(sum, StagePosts)
	r.Posts = runStage(a, ctx, s, page, StagePosts, store.StepPosts, func() ([]types.Post, error) {
		return sc.ScrapePosts(ctx, page)
	})
	sum.PostsScraped = len(r.Posts)

	a.enter(sum, StageAnalyticsSummary)
	r.Analytics = runStage(a, ctx, s, page, StageAnalyticsSummary, store.StepAnalytics, func() (types.AnalyticsSummary, error) {
		return sc.ScrapeAnalyticsSummary(ctx, page)
	})
	sum.ProfileViews = r.Analytics.ProfileViews
	sum.SearchAppearances = r.Analytics.SearchAppearances

	a.enter(sum, StageDemographics)
	r.Demographics = runStage(a, ctx, s, page, StageDemographics, store.StepDemographics, func() ([]types.Demographic, error) {
		return sc.ScrapeDemographics(ctx, page)
	})

	a.enter(sum, StagePostAnalytics)
	sum.PostAnalytics = a.scrapePostAnalytics(ctx, s, page, r.Posts)

	a.cacheStep(s, store.StepResult, r)
	return r, nil
}

// runStage runs one scrape stage. A failure is logged and degrades to the
// zero value; the run carries on.
func runStage[T any](a *App, ctx context.Context, s snapshot, page browser.Page, stage Stage, step store.StepName, fn func() (T, error)) T {
	v, err := fn()
	if err != nil {
		var zero T
		a.log.Warn().Err(err).Stringer("stage", stage).Msg("Stage failed, continuing with empty result")
		a.dumpPage(ctx, s, page, step)
		return zero
	}
	a.cacheStep(s, step, v)
	return v
}

// scrapePostAnalytics reads demographics for the first posts that carry a
// URN, up to the configured limit but never more than MaxPostAnalytics, and
// reports how many succeeded.
func (a *App) scrapePostAnalytics(ctx context.Context, s snapshot, page browser.Page, posts []types.Post) int {
	limit := min(s.config.Scraping.PostAnalyticsLimit, config.MaxPostAnalytics)
	attempted, read := 0, 0

	for i := range posts {
		if attempted >= limit {
			break
		}
		if posts[i].URN == "" {
			continue
		}
		attempted++

		d, err := s.scraper.ScrapePostAnalytics(ctx, page, posts[i].URN)
		if err != nil {
			a.log.Warn().Err(err).Str("urn", posts[i].URN).Msg("Post analytics failed, skipping")
			continue
		}
		posts[i].Demographics = d
		if len(d) > 0 {
			read++
		}
	}

	a.cacheStep(s, store.StepPostAnalytics, posts)
	return read
}

func (a *App) persist(ctx context.Context, userID string, r types.Result) (reconcile.Stats, error) {
	st, err := a.openStore(ctx)
	if err != nil {
		return reconcile.Stats{}, fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	engine := reconcile.New(st, a.now, a.log.With().Str("component", "reconcile").Logger())
	return engine.Persist(ctx, userID, r)
}

func (a *App) cacheStep(s snapshot, step store.StepName, v any) {
	if s.cache == nil {
		return
	}
	path, err := store.SaveStepOutput(s.cache, step, v)
	if err != nil {
		a.log.Warn().Err(err).Str("step", string(step)).Msg("Failed to cache step output")
		return
	}
	a.log.Debug().Str("path", path).Msg("Cached step output")
}

// dumpPage keeps the HTML of a page a stage failed on
func (a *App) dumpPage(ctx context.Context, s snapshot, page browser.Page, step store.StepName) {
	if s.cache == nil {
		return
	}
	html, err := page.HTML(ctx)
	if err != nil || html == "" {
		return
	}
	path, err := s.cache.SaveTextOutput(step+"_failed", html, ".html")
	if err != nil {
		a.log.Warn().Err(err).Msg("Failed to save page HTML")
		return
	}
	a.log.Info().Str("path", path).Msg("Saved page HTML of failed stage")
}

// publish renders the run report, keeps it in the step cache and emails it
// if a notifier is set. Failures here never fail the run.
func (a *App) publish(s snapshot, sum *Summary, r types.Result, runErr error) {
	if s.reporter == nil {
		return
	}
	mail := s.notifier != nil && (runErr != nil || !s.config.Notify.OnlyFailures)
	if s.cache == nil && !mail {
		return
	}

	rep, err := s.reporter.Build(report.Run{
		Stage:             sum.Stage.String(),
		Err:               runErr,
		Profile:           sum.Profile,
		Stats:             sum.Stats,
		PostsScraped:      sum.PostsScraped,
		PostAnalytics:     sum.PostAnalytics,
		ProfileViews:      sum.ProfileViews,
		SearchAppearances: sum.SearchAppearances,
		Duration:          sum.Duration,
		Posts:             r.Posts,
		Audience:          r.Demographics,
	}, a.now())
	if err != nil {
		a.log.Warn().Err(err).Msg("Failed to build run report")
		return
	}

	if s.cache != nil {
		if path, err := s.cache.SaveTextOutput(store.StepReport, rep.HTMLBody, ".html"); err != nil {
			a.log.Warn().Err(err).Msg("Failed to save run report")
		} else {
			a.log.Info().Str("path", path).Msg("Saved run report")
		}
	}

	if mail {
		if err := s.notifier.SendReport(rep); err != nil {
			a.log.Error().Err(err).Msg("Failed to email run report")
			return
		}
		a.log.Info().Str("subject", rep.Subject).Msg("Emailed run report")
	}
}
