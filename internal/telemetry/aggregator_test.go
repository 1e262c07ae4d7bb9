package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leo-herrera29/srad-flight-computer/internal/baro"
	"github.com/leo-herrera29/srad-flight-computer/internal/fc"
	"github.com/leo-herrera29/srad-flight-computer/internal/fusion"
	"github.com/leo-herrera29/srad-flight-computer/internal/imu"
)

func TestPublishIncrementsSeqAndUpdatesLatest(t *testing.T) {
	agg := NewAggregator(true, 4)

	rec1 := agg.Publish(20, baro.Reading{Valid: true}, imu.ReadingA{Valid: true}, imu.ReadingB{Valid: true}, fc.Status{}, fusion.Snapshot{})
	rec2 := agg.Publish(40, baro.Reading{Valid: true}, imu.ReadingA{Valid: true}, imu.ReadingB{Valid: true}, fc.Status{}, fusion.Snapshot{})

	require.Equal(t, uint32(1), rec1.Seq)
	require.Equal(t, uint32(2), rec2.Seq)
	require.Equal(t, rec2, agg.Latest())
}

func TestSinkDropsOldestOnOverflow(t *testing.T) {
	agg := NewAggregator(false, 2)
	for i := int64(1); i <= 3; i++ {
		agg.Publish(i*20, baro.Reading{}, imu.ReadingA{}, imu.ReadingB{}, fc.Status{}, fusion.Snapshot{})
	}
	drained := agg.DrainSink()
	require.Len(t, drained, 2)
	require.Equal(t, uint32(2), drained[0].Seq)
	require.Equal(t, uint32(3), drained[1].Seq)
}

func TestZeroSinkDepthDisablesSink(t *testing.T) {
	agg := NewAggregator(false, 0)
	agg.Publish(20, baro.Reading{}, imu.ReadingA{}, imu.ReadingB{}, fc.Status{}, fusion.Snapshot{})
	require.Empty(t, agg.DrainSink())
}

func TestDrainSinkEmptiesQueue(t *testing.T) {
	agg := NewAggregator(false, 4)
	agg.Publish(20, baro.Reading{}, imu.ReadingA{}, imu.ReadingB{}, fc.Status{}, fusion.Snapshot{})
	require.Len(t, agg.DrainSink(), 1)
	require.Empty(t, agg.DrainSink())
}
