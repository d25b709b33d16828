package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSimulatedAdvance(t *testing.T) {
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	c := NewSimulated(base)
	require.Equal(t, base, c.Now())

	c.AdvanceDays(31)
	require.Equal(t, base.Add(31*24*time.Hour), c.Now())

	c.Advance(time.Hour)
	require.Equal(t, base.Add(31*24*time.Hour+time.Hour), c.Now())

	c.Set(base)
	require.Equal(t, base, c.Now())
}

func TestSystemIsUTC(t *testing.T) {
	require.Equal(t, time.UTC, System{}.Now().Location())
}
