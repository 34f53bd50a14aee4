package notes

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"note-vault/internal/logger"

	"github.com/oklog/ulid/v2"
)

// Subscriber is one live connection of a user. Events arrive on Ch; Done is
// closed together with Ch when the connection leaves the hub.
type Subscriber struct {
	UserID      string
	ConnID      ulid.ULID
	ConnectedAt time.Time
	Ch          chan NoteEvent
	Done        chan struct{}

	closeOnce sync.Once
}

func (s *Subscriber) close() {
	s.closeOnce.Do(func() {
		close(s.Ch)
		close(s.Done)
	})
}

// Hub fans note events out to the live connections of the note owner. Each
// connection has a bounded outbox; when it is full the event is dropped for
// that connection only and counted per event type.
type Hub struct {
	mu         sync.RWMutex
	byUser     map[string]map[ulid.ULID]*Subscriber
	owners     map[ulid.ULID]string
	outboxSize int

	dropped   atomic.Uint64
	droppedMu sync.Mutex
	droppedBy map[string]uint64
}

// NewHub creates a hub whose connections buffer up to outboxSize events.
func NewHub(outboxSize int) *Hub {
	return &Hub{
		byUser:     make(map[string]map[ulid.ULID]*Subscriber),
		owners:     make(map[ulid.ULID]string),
		outboxSize: outboxSize,
		droppedBy:  make(map[string]uint64),
	}
}

// Subscribe registers connID for the events of userID. The returned func
// unsubscribes and is safe to call more than once.
func (h *Hub) Subscribe(connID ulid.ULID, userID string) (*Subscriber, func()) {
	sub := &Subscriber{
		UserID:      userID,
		ConnID:      connID,
		ConnectedAt: time.Now().UTC(),
		Ch:          make(chan NoteEvent, h.outboxSize),
		Done:        make(chan struct{}),
	}

	h.mu.Lock()
	conns, ok := h.byUser[userID]
	if !ok {
		conns = make(map[ulid.ULID]*Subscriber)
		h.byUser[userID] = conns
	}
	conns[connID] = sub
	h.owners[connID] = userID
	h.mu.Unlock()

	hubLog().Debug("connection subscribed", "conn_id", connID.String(), "user_id", userID)
	return sub, func() { h.Unsubscribe(connID) }
}

// Unsubscribe removes connID and closes its channels. Unknown ids are ignored.
func (h *Hub) Unsubscribe(connID ulid.ULID) {
	h.mu.Lock()
	userID, ok := h.owners[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.owners, connID)

	sub := h.byUser[userID][connID]
	delete(h.byUser[userID], connID)
	if len(h.byUser[userID]) == 0 {
		delete(h.byUser, userID)
	}
	h.mu.Unlock()

	// Broadcast sends under the read lock, so no send can race this close.
	if sub != nil {
		sub.close()
	}
	hubLog().Debug("connection unsubscribed", "conn_id", connID.String(), "user_id", userID)
}

// Broadcast delivers ev to every connection of ev.Note.UserID without blocking.
func (h *Hub) Broadcast(_ context.Context, ev NoteEvent) {
	if ev.Note == nil || ev.Note.UserID == "" {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.byUser[ev.Note.UserID] {
		select {
		case sub.Ch <- ev:
		default:
			h.recordDrop(sub, ev)
		}
	}
}

// A dropped reminder is gone for good; other events can be re-read by listing notes.
func (h *Hub) recordDrop(sub *Subscriber, ev NoteEvent) {
	h.dropped.Add(1)
	h.droppedMu.Lock()
	h.droppedBy[ev.Type]++
	h.droppedMu.Unlock()

	log := hubLog().With("conn_id", sub.ConnID.String(), "user_id", sub.UserID, "event_type", ev.Type, "note_id", ev.Note.ID)
	if ev.Type == EventReminder {
		log.Warn("outbox full, reminder dropped")
		return
	}
	log.Debug("outbox full, event dropped")
}

// GetSubscriberCount returns the number of live connections.
func (h *Hub) GetSubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.owners)
}

// Stats returns the live connection count and the total of dropped events.
func (h *Hub) Stats() (subscribers int, dropped uint64) {
	return h.GetSubscriberCount(), h.dropped.Load()
}

// DroppedByType returns the dropped event counts keyed by event type.
func (h *Hub) DroppedByType() map[string]uint64 {
	h.droppedMu.Lock()
	defer h.droppedMu.Unlock()
	return maps.Clone(h.droppedBy)
}

// hubLog returns the process logger, or a discarding one before logger.Init.
func hubLog() *slog.Logger {
	if l := logger.L(); l != nil {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
