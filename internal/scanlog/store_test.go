package scanlog

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "scanlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSessionRoundTrip(t *testing.T) {
	store := openTestStore(t)

	started := time.Date(2026, 8, 26, 12, 0, 0, 123456789, time.UTC)
	store.SessionStarted("sess-1", "lidar-0", started, 200)

	rec, err := store.GetSession("sess-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "sess-1", rec.SessionID)
	assert.Equal(t, "lidar-0", rec.SensorID)
	assert.Equal(t, "running", rec.Status)
	assert.Equal(t, 200, rec.RaysTotal)
	assert.True(t, rec.StartedAt.Equal(started))
	assert.Nil(t, rec.CompletedAt)

	completed := started.Add(2 * time.Second)
	store.SessionCompleted("sess-1", completed, 200, 140, 140)

	rec, err = store.GetSession("sess-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "completed", rec.Status)
	assert.Equal(t, 200, rec.RaysCast)
	assert.Equal(t, 140, rec.Hits)
	assert.Equal(t, 140, rec.PointsEmitted)
	require.NotNil(t, rec.CompletedAt)
	assert.True(t, rec.CompletedAt.Equal(completed))
}

func TestGetSessionNotFound(t *testing.T) {
	store := openTestStore(t)

	rec, err := store.GetSession("no-such-session")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestListRecentOrdersAndFilters(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		store.SessionStarted(fmt.Sprintf("sess-%d", i), "lidar-0", base.Add(time.Duration(i)*time.Second), 100)
	}
	store.SessionStarted("other-sensor", "lidar-1", base, 100)

	sessions, err := store.ListRecent("lidar-0", 3)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "sess-4", sessions[0].SessionID)
	assert.Equal(t, "sess-3", sessions[1].SessionID)
	assert.Equal(t, "sess-2", sessions[2].SessionID)

	// Zero limit falls back to the default.
	sessions, err = store.ListRecent("lidar-0", 0)
	require.NoError(t, err)
	assert.Len(t, sessions, 5)

	sessions, err = store.ListRecent("lidar-1", 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "other-sensor", sessions[0].SessionID)
}

func TestSummarize(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	// Two completed sessions with hit rates 0.5 and 1.0, one still running
	// (excluded), one completed with zero rays (excluded from the rate
	// stats but counted in totals).
	store.SessionStarted("a", "lidar-0", base, 100)
	store.SessionCompleted("a", base.Add(time.Second), 100, 50, 50)
	store.SessionStarted("b", "lidar-0", base, 100)
	store.SessionCompleted("b", base.Add(time.Second), 100, 100, 100)
	store.SessionStarted("c", "lidar-0", base, 100)
	store.SessionStarted("d", "lidar-0", base, 0)
	store.SessionCompleted("d", base, 0, 0, 0)

	sum, err := store.Summarize("lidar-0")
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Sessions)
	assert.Equal(t, int64(200), sum.RaysCast)
	assert.Equal(t, int64(150), sum.PointsEmitted)
	assert.InDelta(t, 0.75, sum.HitRateMean, 1e-9)

	// Sample stddev of {0.5, 1.0}.
	want := math.Sqrt(math.Pow(0.5-0.75, 2)*2 / 1)
	assert.InDelta(t, want, sum.HitRateStddev, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	store := openTestStore(t)

	sum, err := store.Summarize("lidar-0")
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Sessions)
	assert.Zero(t, sum.HitRateMean)
	assert.Zero(t, sum.HitRateStddev)
}

func TestCompleteUnknownSessionIsHarmless(t *testing.T) {
	store := openTestStore(t)

	// The update matches no rows; it must not panic or corrupt the store.
	store.SessionCompleted("ghost", time.Now(), 10, 5, 5)

	rec, err := store.GetSession("ghost")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
