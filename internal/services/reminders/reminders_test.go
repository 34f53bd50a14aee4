package reminders

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var silentLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type recorder struct {
	mu    sync.Mutex
	fired []Reminder
	ch    chan Reminder
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Reminder, 8)}
}

func (r *recorder) fire(rem Reminder) {
	r.mu.Lock()
	r.fired = append(r.fired, rem)
	r.mu.Unlock()
	r.ch <- rem
}

func TestTimerScheduler_Fires(t *testing.T) {
	rec := newRecorder()
	s := NewTimerScheduler(rec.fire, silentLogger)

	s.Schedule(Reminder{NoteID: "n1", UserID: "u1", At: time.Now().Add(20 * time.Millisecond), Message: "hi"})
	assert.Equal(t, 1, s.Pending())

	select {
	case got := <-rec.ch:
		assert.Equal(t, "n1", got.NoteID)
		assert.Equal(t, "hi", got.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("reminder did not fire")
	}

	require.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestTimerScheduler_PastIsIgnored(t *testing.T) {
	rec := newRecorder()
	s := NewTimerScheduler(rec.fire, silentLogger)

	s.Schedule(Reminder{NoteID: "n1", At: time.Now().Add(-time.Minute)})
	assert.Equal(t, 0, s.Pending())
}

func TestTimerScheduler_Cancel(t *testing.T) {
	rec := newRecorder()
	s := NewTimerScheduler(rec.fire, silentLogger)

	s.Schedule(Reminder{NoteID: "n1", At: time.Now().Add(30 * time.Millisecond)})
	s.Cancel("n1")
	s.Cancel("unknown")
	assert.Equal(t, 0, s.Pending())

	select {
	case <-rec.ch:
		t.Fatal("cancelled reminder fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTimerScheduler_RescheduleReplaces(t *testing.T) {
	rec := newRecorder()
	s := NewTimerScheduler(rec.fire, silentLogger)

	s.Schedule(Reminder{NoteID: "n1", At: time.Now().Add(time.Hour), Message: "old"})
	s.Schedule(Reminder{NoteID: "n1", At: time.Now().Add(20 * time.Millisecond), Message: "new"})
	assert.Equal(t, 1, s.Pending())

	select {
	case got := <-rec.ch:
		assert.Equal(t, "new", got.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("reminder did not fire")
	}

	s.Stop()
	assert.Equal(t, 0, s.Pending())
}
