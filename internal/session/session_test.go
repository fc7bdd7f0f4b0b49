package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	s := New(0, 0)
	assert.Equal(t, Idle, s.Phase())
	assert.Equal(t, DefaultDurationSeconds, s.Duration())
	assert.Equal(t, DefaultTargetCount, s.Target())
	assert.False(t, s.WonOnce())
	assert.True(t, s.CanStart())
}

func TestStart_ResetsRound(t *testing.T) {
	s := New(30, 5)
	effects := s.Start()

	assert.Equal(t, []Effect{ShowGame, ShowBuckets, TimerChanged, ScoreChanged, StartCountdown}, effects)
	assert.Equal(t, Active, s.Phase())
	assert.Equal(t, 30, s.Remaining())
	assert.Equal(t, 0, s.Sorted())

	// Start while active does nothing.
	assert.Nil(t, s.Start())
}

func TestCredit_OnlyWhileActive(t *testing.T) {
	s := New(30, 5)
	ok, effects := s.Credit("a")
	assert.False(t, ok)
	assert.Nil(t, effects)
	assert.Equal(t, 0, s.Sorted())

	s.Start()
	ok, effects = s.Credit("a")
	assert.True(t, ok)
	assert.Equal(t, []Effect{ScoreChanged}, effects)
	assert.Equal(t, 1, s.Sorted())
}

func TestCredit_SameEntityOnce(t *testing.T) {
	s := New(30, 5)
	s.Start()

	ok, _ := s.Credit("a")
	require.True(t, ok)
	ok, effects := s.Credit("a")
	assert.False(t, ok)
	assert.Nil(t, effects)
	assert.Equal(t, 1, s.Sorted())
	assert.True(t, s.IsCredited("a"))
}

func TestTick_CountsDownToLoss(t *testing.T) {
	s := New(3, 5)
	s.Start()
	s.Credit("a")
	s.Credit("b")
	s.Credit("c")

	assert.Equal(t, []Effect{TimerChanged}, s.Handle(EventTick))
	assert.Equal(t, []Effect{TimerChanged}, s.Handle(EventTick))
	assert.Equal(t, []Effect{TimerChanged, StopCountdown, HideGame, HideBuckets}, s.Handle(EventTick))

	assert.Equal(t, Idle, s.Phase())
	assert.Equal(t, 0, s.Remaining())
	assert.False(t, s.WonOnce())
	assert.Equal(t, 3, s.Sorted())

	// Ticks after the loss are ignored.
	assert.Nil(t, s.Handle(EventTick))

	// A loss is retryable and the retry starts from zero.
	require.NotNil(t, s.Start())
	assert.Equal(t, Active, s.Phase())
	assert.Equal(t, 0, s.Sorted())
	assert.Equal(t, 3, s.Remaining())
}

func TestTarget_SchedulesWinAndStopsCountdown(t *testing.T) {
	s := New(30, 2)
	s.Start()
	s.Credit("a")
	ok, effects := s.Credit("b")

	require.True(t, ok)
	assert.Equal(t, []Effect{ScoreChanged, StopCountdown, ScheduleWin}, effects)
	assert.True(t, s.WinPending())
	assert.Equal(t, Active, s.Phase())

	// While the win is pending neither ticks nor expiry can turn it into a loss.
	assert.Nil(t, s.Handle(EventTick))
	assert.Nil(t, s.Handle(EventTimeExpired))
	ok, _ = s.Credit("c")
	assert.False(t, ok)
	assert.Equal(t, 2, s.Sorted())

	assert.Equal(t, []Effect{StopCountdown, HideGame, HideBuckets, ShowReward}, s.Handle(EventTargetReached))
	assert.Equal(t, Won, s.Phase())
	assert.True(t, s.WonOnce())
}

func TestEnd_Idempotent(t *testing.T) {
	s := New(30, 5)
	s.Start()

	first := s.End(true)
	assert.Contains(t, first, ShowReward)
	before := s.Snapshot()

	assert.Nil(t, s.End(true))
	assert.Nil(t, s.End(false))
	assert.Nil(t, s.Handle(EventTargetReached))
	assert.Equal(t, before, s.Snapshot())
}

func TestStart_RejectedAfterWin(t *testing.T) {
	s := New(30, 1)
	s.Start()
	s.Credit("a")
	s.Handle(EventTargetReached)
	require.Equal(t, Won, s.Phase())

	before := s.Snapshot()
	assert.False(t, s.CanStart())
	assert.Nil(t, s.Start())
	assert.Equal(t, before, s.Snapshot())
}

func TestReset_KeepsWin(t *testing.T) {
	s := New(30, 1)
	s.Start()
	assert.Equal(t, []Effect{StopCountdown, HideGame, HideBuckets}, s.Reset())
	assert.Equal(t, Idle, s.Phase())

	s.Start()
	s.Credit("a")
	s.Handle(EventTargetReached)
	assert.Nil(t, s.Reset())
	assert.Equal(t, Won, s.Phase())
}

func TestSortedMatchesCreditedSet(t *testing.T) {
	s := New(30, 10)
	s.Start()
	ids := []string{"a", "b", "a", "c", "b", "d"}
	seen := map[string]bool{}
	for _, id := range ids {
		s.Credit(id)
		seen[id] = true
		assert.Equal(t, len(seen), s.Sorted(), fmt.Sprintf("after %s", id))
	}
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "target_reached", EventTargetReached.String())
	assert.Equal(t, "show_reward", ShowReward.String())
}
