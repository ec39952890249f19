package game_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/denizokt/fibbr-backend/internal/game"
)

func TestSchedulerFires(t *testing.T) {
	s := game.NewScheduler()
	done := make(chan struct{})

	s.Schedule("ROOM", game.TaskAdvanceRound, 10*time.Millisecond, func() {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduled task never fired")
	}
	assert.False(t, s.Pending("ROOM", game.TaskAdvanceRound))
}

func TestSchedulerReplacesPendingTask(t *testing.T) {
	s := game.NewScheduler()
	var fired atomic.Int32
	done := make(chan struct{})

	s.Schedule("ROOM", game.TaskAdvanceRound, 50*time.Millisecond, func() {
		fired.Add(1)
	})
	s.Schedule("ROOM", game.TaskAdvanceRound, 10*time.Millisecond, func() {
		fired.Add(1)
		close(done)
	})

	<-done
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load(), "replaced timer must not fire")
}

func TestSchedulerCancel(t *testing.T) {
	s := game.NewScheduler()
	var fired atomic.Int32

	s.Schedule("ROOM", game.TaskFinalTest, 20*time.Millisecond, func() {
		fired.Add(1)
	})
	s.Cancel("ROOM", game.TaskFinalTest)

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, fired.Load())
	assert.False(t, s.Pending("ROOM", game.TaskFinalTest))

	// Cancelling something absent is a no-op.
	s.Cancel("ROOM", "nothing")
	s.Cancel("OTHER", game.TaskFinalTest)
}

func TestSchedulerCancelAll(t *testing.T) {
	s := game.NewScheduler()
	var fired atomic.Int32

	s.Schedule("ROOM", game.TaskAdvanceRound, 20*time.Millisecond, func() { fired.Add(1) })
	s.Schedule("ROOM", game.DisconnectTask("p1"), 20*time.Millisecond, func() { fired.Add(1) })
	s.Schedule("OTHER", game.TaskAdvanceRound, 20*time.Millisecond, func() { fired.Add(1) })

	s.CancelAll("ROOM")

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load(), "only the other room's task may fire")
}

func TestDisconnectTaskNames(t *testing.T) {
	assert.Equal(t, "disconnect:p1", game.DisconnectTask("p1"))
	assert.NotEqual(t, game.DisconnectTask("p1"), game.DisconnectTask("p2"))
}
