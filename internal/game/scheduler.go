package game

import (
	"log"
	"sync"
	"time"
)

// Timer names used by the room lifecycle.
const (
	TaskAdvanceRound = "advance_round"
	TaskFinalTest    = "final_test"
	TaskResetLobby   = "reset_lobby"
)

// DisconnectTask names the per-player removal timer armed when a player
// drops mid-game.
func DisconnectTask(playerID string) string {
	return "disconnect:" + playerID
}

// Scheduler is the deferred-task registry: named, cancellable, per-room
// timers driving automatic phase advancement and disconnect grace
// periods. Scheduling under an existing (room, name) key replaces and
// cancels the previous timer, so at most one timer per name is ever
// pending for a room. Actions are responsible for re-checking, at fire
// time, that the room is still in the phase the timer was armed for.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]map[string]*time.Timer // roomID -> taskName -> timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		timers: make(map[string]map[string]*time.Timer),
	}
}

func (s *Scheduler) Schedule(roomID, taskName string, delay time.Duration, action func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[roomID][taskName]; ok {
		existing.Stop()
	}
	if s.timers[roomID] == nil {
		s.timers[roomID] = make(map[string]*time.Timer)
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		// Only run if we are still the installed timer; a replacement
		// or cancel that raced with firing wins.
		if current, ok := s.timers[roomID][taskName]; !ok || current != timer {
			s.mu.Unlock()
			return
		}
		delete(s.timers[roomID], taskName)
		s.mu.Unlock()

		action()
	})
	s.timers[roomID][taskName] = timer

	log.Printf("[Scheduler.Schedule] room=%s task=%s delay=%v", roomID, taskName, delay)
}

// Cancel stops a pending timer; it is a no-op if none is installed.
func (s *Scheduler) Cancel(roomID, taskName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[roomID][taskName]; ok {
		timer.Stop()
		delete(s.timers[roomID], taskName)
		log.Printf("[Scheduler.Cancel] room=%s task=%s cancelled", roomID, taskName)
	}
}

// CancelAll drops every outstanding timer for a room, used when a host
// forces a reset while timers are pending.
func (s *Scheduler) CancelAll(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, timer := range s.timers[roomID] {
		timer.Stop()
		delete(s.timers[roomID], name)
	}
	delete(s.timers, roomID)
	log.Printf("[Scheduler.CancelAll] room=%s all timers cancelled", roomID)
}

// Pending reports whether a timer is currently installed for the key.
func (s *Scheduler) Pending(roomID, taskName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[roomID][taskName]
	return ok
}
