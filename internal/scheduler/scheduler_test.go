package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidTimezone(t *testing.T) {
	_, err := New("Mars/Olympus_Mons", time.Minute, zerolog.Nop())
	assert.Error(t, err)
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s, err := New("UTC", time.Minute, zerolog.Nop())
	require.NoError(t, err)

	assert.Error(t, s.AddSyncJob("not a schedule", func(context.Context) error { return nil }))
	assert.Empty(t, s.ListJobs())
}

func TestListAndRemoveJobs(t *testing.T) {
	s, err := New("Europe/Berlin", time.Minute, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, s.AddSyncJob("0 */6 * * *", func(context.Context) error { return nil }))
	s.Start()
	defer s.Stop()

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "sync", jobs[0].Name)
	assert.False(t, jobs[0].NextRun.IsZero())

	s.RemoveJob("sync")
	assert.Empty(t, s.ListJobs())
}

func TestRunNow_AppliesTimeout(t *testing.T) {
	s, err := New("UTC", 20*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)

	err = s.RunNow("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunNow_PassesErrorsThrough(t *testing.T) {
	s, err := New("UTC", time.Minute, zerolog.Nop())
	require.NoError(t, err)

	boom := errors.New("boom")
	assert.ErrorIs(t, s.RunNow("sync", func(context.Context) error { return boom }), boom)
}

func TestScheduledRunsDoNotOverlap(t *testing.T) {
	s, err := New("UTC", time.Minute, zerolog.Nop())
	require.NoError(t, err)

	started := make(chan struct{}, 10)
	release := make(chan struct{})
	require.NoError(t, s.AddJob("sync", "@every 1s", func(context.Context) error {
		started <- struct{}{}
		<-release
		return nil
	}))

	s.Start()
	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never started")
	}

	// Two more ticks pass while the first run is blocked.
	time.Sleep(2200 * time.Millisecond)
	stopped := s.Stop()
	close(release)
	<-stopped.Done()

	assert.Empty(t, started, "ticks during a running job are skipped")
}
