package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/trackview/internal/clock"
	"github.com/sadopc/trackview/internal/store"
	"github.com/sadopc/trackview/internal/timeline"
)

const fileJSON = `{
  "id": 3,
  "started_at": "2026-03-02T09:00:00Z",
  "total_seconds": 600,
  "time_blocks": [
    {"id": 30, "started_at": "2026-03-02T09:00:00Z", "ended_at": "2026-03-02T09:10:00Z",
     "windows": [{"id": 1, "screenshots": [{"id": 300, "image": "/media/x.png"}]}]}
  ]
}`

var now = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	session *timeline.Session
	err     error
	calls   int
}

func (f *fakeFetcher) FetchSession(_ context.Context, _ string) (*timeline.Session, error) {
	f.calls++
	return f.session, f.err
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSession() *timeline.Session {
	return &timeline.Session{
		ID:           9,
		StartedAt:    now.Add(-time.Hour),
		TotalSeconds: 3600,
		TimeBlocks:   []timeline.TimeBlock{{ID: 90, StartedAt: now.Add(-time.Hour)}},
	}
}

func TestAPISourceCachesOnSuccess(t *testing.T) {
	st := newStore(t)
	f := &fakeFetcher{session: sampleSession()}
	src := NewAPI(f, st, "9", clock.Fixed(now))

	s, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), s.ID)
	assert.Equal(t, "9", src.Key())
	assert.Equal(t, "session 9", src.Describe())

	cached, at, err := st.LoadSession("9")
	require.NoError(t, err)
	assert.Equal(t, int64(9), cached.ID)
	assert.True(t, at.Equal(now))
}

func TestAPISourceErrorLeavesCache(t *testing.T) {
	st := newStore(t)
	f := &fakeFetcher{err: errors.New("connection refused")}
	_, err := NewAPI(f, st, "9", nil).Load(context.Background())
	require.Error(t, err)

	_, _, err = st.LoadSession("9")
	assert.ErrorIs(t, err, store.ErrNotCached)
}

func TestAPISourceWithoutCache(t *testing.T) {
	f := &fakeFetcher{session: sampleSession()}
	_, err := NewAPI(f, nil, "9", nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)
}

func TestOfflineSource(t *testing.T) {
	st := newStore(t)
	require.NoError(t, st.SaveSession("9", sampleSession(), now.Add(-3*time.Hour)))

	src := NewOffline(st, "9", clock.Fixed(now))
	assert.Equal(t, "session 9 (offline)", src.Describe())

	s, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), s.ID)
	assert.Equal(t, "session 9 (offline, fetched 3 hours ago)", src.Describe())
}

func TestOfflineSourceConcurrentDescribe(t *testing.T) {
	st := newStore(t)
	require.NoError(t, st.SaveSession("9", sampleSession(), now.Add(-3*time.Hour)))
	src := NewOffline(st, "9", clock.Fixed(now))

	// reloads run in commands while the header is redrawn
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := src.Load(context.Background())
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			assert.Contains(t, src.Describe(), "session 9 (offline")
		}()
	}
	wg.Wait()
	assert.Equal(t, "session 9 (offline, fetched 3 hours ago)", src.Describe())
}

func TestOfflineSourceNotCached(t *testing.T) {
	_, err := NewOffline(newStore(t), "1", nil).Load(context.Background())
	assert.ErrorIs(t, err, store.ErrNotCached)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(fileJSON), 0o644))

	src := NewFile(path)
	s, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.ID)
	assert.Equal(t, "file:"+path, src.Key())
	assert.Equal(t, "session.json", src.Describe())

	tl := timeline.Normalize(s)
	require.Equal(t, 1, tl.ScreenshotCount)
	assert.Equal(t, timeline.UnknownWindow, tl.Screenshots[0].WindowTitle)
}

func TestFileSourceErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewFile(filepath.Join(dir, "missing.json")).Load(context.Background())
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"id": 1}`), 0o644))
	_, err = NewFile(bad).Load(context.Background())
	assert.ErrorIs(t, err, timeline.ErrMalformedSession)

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte(`{{{`), 0o644))
	_, err = NewFile(garbage).Load(context.Background())
	assert.ErrorIs(t, err, timeline.ErrMalformedSession)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFile(garbage).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	require.NoError(t, os.WriteFile(path, []byte(fileJSON), 0o644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond
	w.Start()
	defer w.Stop()

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644))
	select {
	case <-w.Changes:
		t.Fatal("change reported for unrelated file")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(path, []byte(fileJSON), 0o644))
	select {
	case <-w.Changes:
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported after write")
	}
}

func TestWatcherStopTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(fileJSON), 0o644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	w.Start()
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
