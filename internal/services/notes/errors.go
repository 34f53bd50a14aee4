package notes

import "errors"

// ErrEmptyNote is returned when a note has neither text nor media. No store call is made.
var ErrEmptyNote = errors.New("note text cannot be empty")

// ErrMissingUserID is returned when an operation is called without a user id.
var ErrMissingUserID = errors.New("user ID is missing")

// ErrNoteNotFound is returned when the note does not exist or belongs to another user.
var ErrNoteNotFound = errors.New("note not found")

// ErrTaskNotFound is returned when a task id is not present in the note.
var ErrTaskNotFound = errors.New("task not found")

// ErrCreateNote is returned when note creation fails.
var ErrCreateNote = errors.New("failed to create note")

// ErrGetNote is returned when a note cannot be read.
var ErrGetNote = errors.New("failed to get note")

// ErrUpdateNote is returned when note update fails.
var ErrUpdateNote = errors.New("failed to update note")

// ErrPurgeNote is returned when permanent deletion fails.
var ErrPurgeNote = errors.New("failed to delete note")

// ErrListNotes is returned when notes listing fails.
var ErrListNotes = errors.New("failed to list notes")

// ErrEmptyTrash is returned when at least one trashed note could not be purged.
// Notes purged before the failure stay deleted.
var ErrEmptyTrash = errors.New("some notes could not be deleted")

// ErrTagReconcile is returned alongside a stored note when its tags could not
// be reconciled. The note itself is not rolled back.
var ErrTagReconcile = errors.New("note saved but tags could not be reconciled")
