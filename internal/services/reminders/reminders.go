// Package reminders schedules local alerts for notes with a reminder timestamp.
//
// Delivery is fire-and-forget: nothing flows back to the caller once a
// reminder is armed.
package reminders

import (
	"log/slog"
	"sync"
	"time"
)

// Reminder describes one pending alert.
type Reminder struct {
	NoteID  string
	UserID  string
	At      time.Time
	Message string
}

// Scheduler arms and disarms reminders keyed by note id.
type Scheduler interface {
	Schedule(r Reminder)
	Cancel(noteID string)
}

// FireFunc receives reminders when they become due.
type FireFunc func(r Reminder)

// TimerScheduler runs one timer per note in-process. Scheduling a note that
// already has a timer replaces it.
type TimerScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	fire   FireFunc
	log    *slog.Logger
	now    func() time.Time
}

// NewTimerScheduler creates a scheduler delivering due reminders to fire.
func NewTimerScheduler(fire FireFunc, log *slog.Logger) *TimerScheduler {
	return &TimerScheduler{
		timers: make(map[string]*time.Timer),
		fire:   fire,
		log:    log,
		now:    time.Now,
	}
}

// Schedule arms r. Reminders in the past are ignored.
func (s *TimerScheduler) Schedule(r Reminder) {
	delay := r.At.Sub(s.now())
	if delay <= 0 {
		s.log.Debug("reminder in the past, skipping", "note_id", r.NoteID, "at", r.At)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[r.NoteID]; ok {
		t.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		// a replacement may have been armed while this one was firing
		if s.timers[r.NoteID] == timer {
			delete(s.timers, r.NoteID)
		}
		s.mu.Unlock()

		s.log.Info("reminder due", "note_id", r.NoteID, "user_id", r.UserID)
		s.fire(r)
	})
	s.timers[r.NoteID] = timer
	s.log.Debug("reminder scheduled", "note_id", r.NoteID, "user_id", r.UserID, "in", delay.String())
}

// Cancel disarms the reminder for noteID, if any.
func (s *TimerScheduler) Cancel(noteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[noteID]; ok {
		t.Stop()
		delete(s.timers, noteID)
	}
}

// Pending returns the number of armed reminders.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop disarms every reminder.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
