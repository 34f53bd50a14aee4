package notes

import (
	"time"

	"note-vault/internal/services/tasks"
	"note-vault/internal/store"
)

// Persisted field names of a note document.
const (
	fieldText       = "text"
	fieldCreatedAt  = "createdAt"
	fieldUserID     = "user_id"
	fieldTags       = "tags"
	fieldReminderAt = "reminderAt"
	fieldDeletedAt  = "deletedAt"
	fieldImageURL   = "imageUrl"
	fieldAudioURL   = "audioUrl"
	fieldDrawingSVG = "drawingSvg"
)

// Note represents a user's note. It is Active while DeletedAt is nil and
// Trashed once DeletedAt is set.
type Note struct {
	ID         string       `json:"id" example:"665f1c2ab8d1f0a9e4c2d0a1"`
	UserID     string       `json:"user_id" example:"665f1c2ab8d1f0a9e4c2d000"`
	Text       string       `json:"text" example:"* [ ] Call mom"`
	CreatedAt  time.Time    `json:"created_at" example:"2025-06-01T23:00:26.005Z"`
	DeletedAt  *time.Time   `json:"deleted_at" example:"2025-06-02T08:15:00.000Z"`
	ReminderAt *time.Time   `json:"reminder_at" example:"2025-06-03T09:00:00.000Z"`
	Tags       []string     `json:"tags" example:"work,home"`
	ImageURL   *string      `json:"image_url" example:"http://localhost:8080/files/media/01J0Z6Q9W8X7Y6Z5A4B3C2D1E0"`
	AudioURL   *string      `json:"audio_url"`
	DrawingSVG *string      `json:"drawing_svg"`
	Tasks      []tasks.Task `json:"tasks"`
}

// Trashed reports whether the note is in the trash.
func (n *Note) Trashed() bool {
	return n.DeletedAt != nil
}

// HasMedia reports whether the note references an image or audio file.
func (n *Note) HasMedia() bool {
	return n.ImageURL != nil || n.AudioURL != nil
}

// fields renders the note as a store document. The id is not a field.
func (n *Note) fields() store.Fields {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return store.Fields{
		fieldText:       n.Text,
		fieldCreatedAt:  store.FormatTime(n.CreatedAt),
		fieldUserID:     n.UserID,
		fieldTags:       tags,
		fieldReminderAt: formatOptionalTime(n.ReminderAt),
		fieldDeletedAt:  formatOptionalTime(n.DeletedAt),
		fieldImageURL:   optionalValue(n.ImageURL),
		fieldAudioURL:   optionalValue(n.AudioURL),
		fieldDrawingSVG: optionalValue(n.DrawingSVG),
	}
}

// noteFromDocument rebuilds a note and derives its tasks from the text.
func noteFromDocument(d store.Document) *Note {
	n := &Note{
		ID:         d.ID,
		UserID:     store.String(d.Fields[fieldUserID]),
		Text:       store.String(d.Fields[fieldText]),
		DeletedAt:  store.ParseTime(d.Fields[fieldDeletedAt]),
		ReminderAt: store.ParseTime(d.Fields[fieldReminderAt]),
		Tags:       store.StringList(d.Fields[fieldTags]),
		ImageURL:   store.OptionalString(d.Fields[fieldImageURL]),
		AudioURL:   store.OptionalString(d.Fields[fieldAudioURL]),
		DrawingSVG: store.OptionalString(d.Fields[fieldDrawingSVG]),
	}
	if created := store.ParseTime(d.Fields[fieldCreatedAt]); created != nil {
		n.CreatedAt = *created
	}
	n.Tasks = tasks.Parse(n.Text)
	return n
}

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return store.FormatTime(*t)
}

func optionalValue(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

// Media is an inline payload uploaded to blob storage on note creation.
type Media struct {
	Data        []byte `json:"data" validate:"required" swaggertype:"string" format:"base64"`
	ContentType string `json:"content_type" validate:"omitempty,max=128" example:"image/png"`
}

// AddNoteRequest represents a note creation request. Media may be given as an
// already hosted URL or as an inline payload; a payload wins over a URL.
type AddNoteRequest struct {
	Text       string     `json:"text" validate:"max=100000" example:"* [ ] Call mom\n* [x] Buy milk"`
	Tags       []string   `json:"tags" validate:"omitempty,max=50,dive,min=1,max=64" example:"home"`
	ReminderAt *time.Time `json:"reminder_at" example:"2025-06-03T09:00:00Z"`
	ImageURL   string     `json:"image_url" validate:"omitempty,url"`
	AudioURL   string     `json:"audio_url" validate:"omitempty,url"`
	Image      *Media     `json:"image"`
	Audio      *Media     `json:"audio"`
	DrawingSVG *string    `json:"drawing_svg"`
}

func (r AddNoteRequest) hasMedia() bool {
	return r.ImageURL != "" || r.AudioURL != "" ||
		(r.Image != nil && len(r.Image.Data) > 0) ||
		(r.Audio != nil && len(r.Audio.Data) > 0)
}

// UpdateNoteRequest represents a partial note update. Nil fields are left as is.
type UpdateNoteRequest struct {
	Text          *string    `json:"text,omitempty" validate:"omitempty,max=100000" example:"* [x] Call mom"`
	Tags          *[]string  `json:"tags,omitempty" validate:"omitempty,max=50,dive,min=1,max=64"`
	ReminderAt    *time.Time `json:"reminder_at,omitempty" example:"2025-06-04T09:00:00Z"`
	ClearReminder bool       `json:"clear_reminder,omitempty"`
	ImageURL      *string    `json:"image_url,omitempty" validate:"omitempty,url"`
	AudioURL      *string    `json:"audio_url,omitempty" validate:"omitempty,url"`
	DrawingSVG    *string    `json:"drawing_svg,omitempty"`
}

// SaveTasksRequest replaces a note body with the given checklist.
type SaveTasksRequest struct {
	Tasks []tasks.Task `json:"tasks" validate:"max=1000"`
}

// ListNotesRequest filters the active notes of a user on the client side.
type ListNotesRequest struct {
	Q    string `query:"q" validate:"omitempty,max=256" example:"call"`
	Tags string `query:"tags" validate:"omitempty,max=1024" example:"home,work"`
}

// NoteResponse represents a single note response
type NoteResponse struct {
	Note    *Note  `json:"note"`
	Warning string `json:"warning,omitempty" example:"some tags could not be created"`
}

// ListNotesResponse represents a list of notes response
type ListNotesResponse struct {
	Notes []*Note `json:"notes"`
	Total int     `json:"total" example:"2"`
}

// EmptyTrashResponse summarises an EmptyTrash call.
type EmptyTrashResponse struct {
	Purged int `json:"purged" example:"3"`
	Failed int `json:"failed" example:"0"`
}

// Event types published on the Bus.
const (
	EventCreated  = "created"
	EventUpdated  = "updated"
	EventTrashed  = "trashed"
	EventRestored = "restored"
	EventPurged   = "purged"
	EventReminder = "reminder"
)

// NoteEvent represents an event that occurred on a note
type NoteEvent struct {
	Type string `json:"type"`
	Note *Note  `json:"note"`
}
