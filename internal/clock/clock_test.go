package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitNextBlocksApproximatelyOnePeriod(t *testing.T) {
	ticker := NewTicker(20 * time.Millisecond)
	start := time.Now()
	ticker.WaitNext()
	elapsed := time.Since(start)
	require.GreaterOrEqual(t, elapsed, 15*time.Millisecond)
	require.Less(t, elapsed, 100*time.Millisecond)
}

func TestWaitNextSkipsMissedPeriodsWithoutCatchupBurst(t *testing.T) {
	ticker := NewTicker(10 * time.Millisecond)
	time.Sleep(55 * time.Millisecond) // overrun several periods

	start := time.Now()
	dt := ticker.WaitNext()
	// A missed-period overrun must not block for the full backlog.
	require.Less(t, time.Since(start), 10*time.Millisecond)
	require.GreaterOrEqual(t, dt, 50*time.Millisecond)
}

func TestPeriodReportsConfiguredValue(t *testing.T) {
	ticker := NewTicker(33 * time.Millisecond)
	require.Equal(t, 33*time.Millisecond, ticker.Period())
}
