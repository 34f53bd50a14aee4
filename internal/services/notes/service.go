package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"note-vault/internal/services/blob"
	"note-vault/internal/services/reminders"
	"note-vault/internal/services/tasks"
	"note-vault/internal/store"
	"note-vault/internal/utils/sanitize"

	"golang.org/x/sync/errgroup"
)

const (
	defaultPurgeConcurrency = 4
	reminderMessageMaxLen   = 80
)

// Config holds the knobs of the notes service.
type Config struct {
	NotesCollection  string
	MediaBucket      string
	PurgeConcurrency int
}

// Service handles the note lifecycle: Active notes can be trashed, trashed
// notes restored or purged. Every dependency is injected.
type Service struct {
	store     store.Store
	blobs     blob.Storage
	tags      TagReconciler
	reminders reminders.Scheduler
	bus       Bus
	cfg       Config
	log       *slog.Logger
	now       func() time.Time
}

// NewService creates a new notes service. blobs may be nil, in which case
// inline media payloads are dropped.
func NewService(
	st store.Store,
	blobs blob.Storage,
	tags TagReconciler,
	sched reminders.Scheduler,
	bus Bus,
	cfg Config,
	log *slog.Logger,
) *Service {
	if cfg.PurgeConcurrency <= 0 {
		cfg.PurgeConcurrency = defaultPurgeConcurrency
	}
	return &Service{
		store:     st,
		blobs:     blobs,
		tags:      tags,
		reminders: sched,
		bus:       bus,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// AddNote validates, stores and announces a new Active note. Inline media is
// uploaded first; a failed upload only leaves that reference empty. Tags are
// reconciled after the note is stored: on failure the stored note is returned
// together with an error wrapping ErrTagReconcile.
func (s *Service) AddNote(ctx context.Context, userID string, req AddNoteRequest) (*Note, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	text := req.Text
	if strings.TrimSpace(text) == "" && !req.hasMedia() {
		return nil, ErrEmptyNote
	}

	note := &Note{
		UserID:     userID,
		Text:       text,
		CreatedAt:  s.now().UTC(),
		ReminderAt: utcPtr(req.ReminderAt),
		Tags:       normalizeTags(req.Tags),
		ImageURL:   s.resolveMedia(ctx, userID, "image", req.ImageURL, req.Image),
		AudioURL:   s.resolveMedia(ctx, userID, "audio", req.AudioURL, req.Audio),
		DrawingSVG: cleanDrawing(req.DrawingSVG),
	}

	doc, err := s.store.Create(ctx, s.cfg.NotesCollection, "", note.fields())
	if err != nil {
		s.log.Error(ErrCreateNote.Error(), "error", err, "user_id", userID)
		return nil, fmt.Errorf("%w: %w", ErrCreateNote, err)
	}
	note = noteFromDocument(doc)

	s.syncReminder(note)
	s.bus.Broadcast(ctx, NoteEvent{Type: EventCreated, Note: note})

	if err := s.tags.Reconcile(ctx, userID, note.Tags); err != nil {
		s.log.Warn(ErrTagReconcile.Error(), "error", err, "user_id", userID, "note_id", note.ID)
		return note, fmt.Errorf("%w: %w", ErrTagReconcile, err)
	}
	return note, nil
}

// GetNote returns one note owned by userID, active or trashed.
func (s *Service) GetNote(ctx context.Context, userID, noteID string) (*Note, error) {
	return s.owned(ctx, userID, noteID)
}

// UpdateNote applies a partial update. Tasks are re-derived from the stored
// text and tags are reconciled when they change. The trash state is never touched.
func (s *Service) UpdateNote(ctx context.Context, userID, noteID string, req UpdateNoteRequest) (*Note, error) {
	existing, err := s.owned(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	fields := store.Fields{}
	if req.Text != nil {
		fields[fieldText] = *req.Text
	}
	if req.Tags != nil {
		fields[fieldTags] = normalizeTags(*req.Tags)
	}
	if req.ClearReminder {
		fields[fieldReminderAt] = nil
	} else if req.ReminderAt != nil {
		fields[fieldReminderAt] = store.FormatTime(*req.ReminderAt)
	}
	if req.ImageURL != nil {
		fields[fieldImageURL] = optionalValue(req.ImageURL)
	}
	if req.AudioURL != nil {
		fields[fieldAudioURL] = optionalValue(req.AudioURL)
	}
	if req.DrawingSVG != nil {
		fields[fieldDrawingSVG] = optionalValue(cleanDrawing(req.DrawingSVG))
	}

	if len(fields) == 0 {
		return existing, nil
	}

	note, err := s.update(ctx, existing, fields)
	if err != nil {
		return nil, err
	}

	// The armed reminder carries the first line of the text, so a text edit re-arms it too.
	if _, ok := fields[fieldReminderAt]; ok || (req.Text != nil && note.ReminderAt != nil) {
		s.syncReminder(note)
	}
	s.bus.Broadcast(ctx, NoteEvent{Type: EventUpdated, Note: note})

	if req.Tags != nil {
		if err := s.tags.Reconcile(ctx, note.UserID, note.Tags); err != nil {
			s.log.Warn(ErrTagReconcile.Error(), "error", err, "user_id", note.UserID, "note_id", note.ID)
			return note, fmt.Errorf("%w: %w", ErrTagReconcile, err)
		}
	}
	return note, nil
}

// SaveTasks rewrites the note body from list. This is the only way task edits
// are persisted; prose lines in the previous body are not kept.
func (s *Service) SaveTasks(ctx context.Context, userID, noteID string, list []tasks.Task) (*Note, error) {
	text := tasks.Serialize(list)
	return s.UpdateNote(ctx, userID, noteID, UpdateNoteRequest{Text: &text})
}

// ToggleTask flips the completion flag of one task and saves the checklist.
func (s *Service) ToggleTask(ctx context.Context, userID, noteID, taskID string) (*Note, error) {
	existing, err := s.owned(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	list, ok := tasks.Toggle(existing.Tasks, taskID)
	if !ok {
		return nil, ErrTaskNotFound
	}
	return s.SaveTasks(ctx, userID, noteID, list)
}

// MoveToTrash sets the soft-delete timestamp to now. Trashing a trashed note
// refreshes the timestamp.
func (s *Service) MoveToTrash(ctx context.Context, userID, noteID string) (*Note, error) {
	existing, err := s.owned(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	note, err := s.update(ctx, existing, store.Fields{fieldDeletedAt: store.FormatTime(s.now())})
	if err != nil {
		return nil, err
	}

	s.reminders.Cancel(note.ID)
	s.bus.Broadcast(ctx, NoteEvent{Type: EventTrashed, Note: note})
	return note, nil
}

// RestoreNote clears the soft-delete timestamp.
func (s *Service) RestoreNote(ctx context.Context, userID, noteID string) (*Note, error) {
	existing, err := s.owned(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	note, err := s.update(ctx, existing, store.Fields{fieldDeletedAt: nil})
	if err != nil {
		return nil, err
	}

	s.syncReminder(note)
	s.bus.Broadcast(ctx, NoteEvent{Type: EventRestored, Note: note})
	return note, nil
}

// ListNotes returns the Active notes of userID, oldest first.
func (s *Service) ListNotes(ctx context.Context, userID string) ([]*Note, error) {
	return s.list(ctx, userID, store.IsNull(fieldDeletedAt))
}

// ListTrashed returns the Trashed notes of userID, oldest first.
func (s *Service) ListTrashed(ctx context.Context, userID string) ([]*Note, error) {
	return s.list(ctx, userID, store.GreaterThan(fieldDeletedAt, store.Epoch))
}

// PurgeNote permanently deletes a note in either state.
func (s *Service) PurgeNote(ctx context.Context, userID, noteID string) error {
	existing, err := s.owned(ctx, userID, noteID)
	if err != nil {
		return err
	}
	return s.purge(ctx, existing)
}

// purgeOutcome is the result of one deletion inside EmptyTrash.
type purgeOutcome struct {
	noteID string
	err    error
}

// EmptyTrash purges every Trashed note of userID. It is best effort: when any
// purge fails the call reports ErrEmptyTrash, and the notes already purged
// stay deleted.
func (s *Service) EmptyTrash(ctx context.Context, userID string) (*EmptyTrashResponse, error) {
	outcomes, err := s.emptyTrash(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &EmptyTrashResponse{}
	for _, o := range outcomes {
		if o.err != nil {
			resp.Failed++
			continue
		}
		resp.Purged++
	}

	if resp.Failed > 0 {
		s.log.Error(ErrEmptyTrash.Error(), "user_id", userID, "purged", resp.Purged, "failed", resp.Failed)
		return resp, ErrEmptyTrash
	}
	s.log.Info("trash emptied", "user_id", userID, "purged", resp.Purged)
	return resp, nil
}

func (s *Service) emptyTrash(ctx context.Context, userID string) ([]purgeOutcome, error) {
	trashed, err := s.ListTrashed(ctx, userID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]purgeOutcome, len(trashed))
	var g errgroup.Group
	g.SetLimit(s.cfg.PurgeConcurrency)
	for i, n := range trashed {
		g.Go(func() error {
			outcomes[i] = purgeOutcome{noteID: n.ID, err: s.purge(ctx, n)}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, nil
}

// RescheduleReminders arms the reminders of every Active note whose reminder
// is still ahead. It is meant to run once at boot.
func (s *Service) RescheduleReminders(ctx context.Context) (int, error) {
	docs, err := s.store.List(ctx, s.cfg.NotesCollection,
		store.IsNull(fieldDeletedAt),
		store.GreaterThan(fieldReminderAt, store.FormatTime(s.now())),
	)
	if err != nil {
		s.log.Error(ErrListNotes.Error(), "error", err, "op", "reschedule_reminders")
		return 0, fmt.Errorf("%w: %w", ErrListNotes, err)
	}

	for _, d := range docs {
		s.syncReminder(noteFromDocument(d))
	}
	return len(docs), nil
}

// ReminderEvent converts a due reminder into the event sent to the owner.
func ReminderEvent(r reminders.Reminder) NoteEvent {
	at := r.At
	return NoteEvent{
		Type: EventReminder,
		Note: &Note{
			ID:         r.NoteID,
			UserID:     r.UserID,
			Text:       r.Message,
			ReminderAt: &at,
			Tags:       []string{},
			Tasks:      []tasks.Task{},
		},
	}
}

func (s *Service) list(ctx context.Context, userID string, stateFilter store.Filter) ([]*Note, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	docs, err := s.store.List(ctx, s.cfg.NotesCollection, store.Equal(fieldUserID, userID), stateFilter)
	if err != nil {
		s.log.Error(ErrListNotes.Error(), "error", err, "user_id", userID)
		return nil, fmt.Errorf("%w: %w", ErrListNotes, err)
	}

	out := make([]*Note, 0, len(docs))
	for _, d := range docs {
		out = append(out, noteFromDocument(d))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// owned loads a note and hides notes of other users behind ErrNoteNotFound.
func (s *Service) owned(ctx context.Context, userID, noteID string) (*Note, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	doc, err := s.store.Get(ctx, s.cfg.NotesCollection, noteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		s.log.Error(ErrGetNote.Error(), "error", err, "user_id", userID, "note_id", noteID)
		return nil, fmt.Errorf("%w: %w", ErrGetNote, err)
	}

	note := noteFromDocument(doc)
	if note.UserID != userID {
		s.log.Info("note owned by another user", "user_id", userID, "note_id", noteID)
		return nil, ErrNoteNotFound
	}
	return note, nil
}

func (s *Service) update(ctx context.Context, existing *Note, fields store.Fields) (*Note, error) {
	doc, err := s.store.Update(ctx, s.cfg.NotesCollection, existing.ID, fields)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Info("note not found for update", "user_id", existing.UserID, "note_id", existing.ID)
			return nil, ErrNoteNotFound
		}
		s.log.Error(ErrUpdateNote.Error(), "error", err, "user_id", existing.UserID, "note_id", existing.ID)
		return nil, fmt.Errorf("%w: %w", ErrUpdateNote, err)
	}
	return noteFromDocument(doc), nil
}

func (s *Service) purge(ctx context.Context, n *Note) error {
	if err := s.store.Delete(ctx, s.cfg.NotesCollection, n.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Info("note not found for delete", "user_id", n.UserID, "note_id", n.ID)
			return ErrNoteNotFound
		}
		s.log.Error(ErrPurgeNote.Error(), "error", err, "user_id", n.UserID, "note_id", n.ID)
		return fmt.Errorf("%w: %w", ErrPurgeNote, err)
	}

	s.reminders.Cancel(n.ID)
	s.bus.Broadcast(ctx, NoteEvent{
		Type: EventPurged,
		Note: &Note{ID: n.ID, UserID: n.UserID},
	})
	return nil
}

// resolveMedia uploads payload when present, otherwise keeps the given URL.
func (s *Service) resolveMedia(ctx context.Context, userID, kind, url string, payload *Media) *string {
	if payload == nil || len(payload.Data) == 0 {
		return nonEmpty(&url)
	}
	if s.blobs == nil {
		s.log.Warn("media upload skipped, no blob storage configured", "user_id", userID, "kind", kind)
		return nil
	}

	fileID, err := s.blobs.Upload(ctx, s.cfg.MediaBucket, blob.NewFileID(), payload.Data, payload.ContentType)
	if err != nil {
		s.log.Warn("media upload failed", "error", err, "user_id", userID, "kind", kind)
		return nil
	}

	publicURL, err := s.blobs.PublicURL(ctx, s.cfg.MediaBucket, fileID)
	if err != nil {
		s.log.Warn("media url lookup failed", "error", err, "user_id", userID, "kind", kind, "file_id", fileID)
		return nil
	}
	return &publicURL
}

// syncReminder arms the note's reminder when it is Active and due in the
// future, and disarms it otherwise.
func (s *Service) syncReminder(n *Note) {
	if n.Trashed() || n.ReminderAt == nil || !n.ReminderAt.After(s.now()) {
		s.reminders.Cancel(n.ID)
		return
	}
	s.reminders.Schedule(reminders.Reminder{
		NoteID:  n.ID,
		UserID:  n.UserID,
		At:      *n.ReminderAt,
		Message: reminderMessage(n),
	})
}

func reminderMessage(n *Note) string {
	line, _, _ := strings.Cut(strings.TrimSpace(n.Text), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "Reminder"
	}
	if r := []rune(line); len(r) > reminderMessageMaxLen {
		return string(r[:reminderMessageMaxLen]) + "…"
	}
	return line
}

// normalizeTags trims tag names and drops empties and duplicates, keeping
// first-seen order. Names are otherwise stored as typed and stay case-sensitive.
func normalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// cleanDrawing sanitizes an SVG sketch; a drawing with nothing left is dropped.
func cleanDrawing(s *string) *string {
	if s == nil {
		return nil
	}
	svg := sanitize.Drawing(*s)
	return nonEmpty(&svg)
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
