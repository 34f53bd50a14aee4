package notes

import "context"

// Bus defines the interface for event broadcasting
type Bus interface {
	Broadcast(ctx context.Context, ev NoteEvent)
}

// TagReconciler ensures tag records exist for the tags written on a note.
type TagReconciler interface {
	Reconcile(ctx context.Context, userID string, names []string) error
}
