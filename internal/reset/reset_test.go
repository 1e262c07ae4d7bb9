package reset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsumeFalseWhenNeverRequested(t *testing.T) {
	var s Signal
	require.False(t, s.Consume())
}

func TestRequestThenConsumeIsEdgeTriggered(t *testing.T) {
	var s Signal
	s.Request()
	require.True(t, s.Consume())
	require.False(t, s.Consume(), "a second Consume must not re-observe the same request")
}

func TestMultipleRequestsCoalesceIntoOne(t *testing.T) {
	var s Signal
	s.Request()
	s.Request()
	s.Request()
	require.True(t, s.Consume())
	require.False(t, s.Consume())
}

// A Group must let every member independently observe a single
// Request. One Consume winning the race on a shared bare Signal
// would silently starve the other task's reset (e.g. FC never
// clearing after fusion already consumed the edge).
func TestGroupFansOutToEveryMember(t *testing.T) {
	g := NewGroup(2)
	g.Request()
	require.True(t, g.Signal(0).Consume())
	require.True(t, g.Signal(1).Consume())
	require.False(t, g.Signal(0).Consume())
	require.False(t, g.Signal(1).Consume())
}
