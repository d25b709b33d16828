package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const day = 24 * time.Hour

func TestIsWithinCycleBoundary(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	w := Window(30)

	require.True(t, IsWithinCycle(now, now, w))
	require.True(t, IsWithinCycle(now.Add(-29*day), now, w))
	require.False(t, IsWithinCycle(now.Add(-30*day), now, w))
	require.False(t, IsWithinCycle(now.Add(-31*day), now, w))
	require.False(t, IsWithinCycle(now.Add(time.Minute), now, w))
}

func TestHasElapsedBoundary(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	w := Window(30)

	require.False(t, HasElapsed(now.Add(-29*day), now, w))
	require.False(t, HasElapsed(now.Add(-30*day), now, w))
	require.True(t, HasElapsed(now.Add(-30*day-time.Second), now, w))
	require.True(t, HasElapsed(now.Add(-31*day), now, w))
	require.False(t, HasElapsed(now.Add(day), now, w))
}

func TestParseTimestamp(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 30, 0, 500, time.UTC)
	got, ok := ParseTimestamp(FormatTimestamp(ts))
	require.True(t, ok)
	require.True(t, ts.Equal(got))

	got, ok = ParseTimestamp("2025-03-01T18:00:00+05:30")
	require.True(t, ok)
	require.Equal(t, time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC), got)

	for _, raw := range []string{"", "  ", "3/1/2025", "yesterday"} {
		_, ok := ParseTimestamp(raw)
		require.False(t, ok, raw)
	}
}

func TestWindowDefault(t *testing.T) {
	require.Equal(t, 30*day, Window(0))
	require.Equal(t, 7*day, Window(7))
}
