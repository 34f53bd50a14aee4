// Package tags keeps per-user tag records in step with the tags used on notes.
package tags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"note-vault/internal/store"
)

// ErrReconcile is returned when at least one new tag record could not be created.
// Tags created before the failure are kept.
var ErrReconcile = errors.New("some tags could not be created")

// ErrListTags is returned when the existing tags cannot be read.
var ErrListTags = errors.New("failed to list tags")

const (
	fieldName   = "name"
	fieldUserID = "user_id"
)

// Tag is a first-class tag record owned by a user.
type Tag struct {
	ID     string `json:"id" example:"665f1c2ab8d1f0a9e4c2d001"`
	Name   string `json:"name" example:"work"`
	UserID string `json:"user_id" example:"665f1c2ab8d1f0a9e4c2d000"`
}

// Outcome records what happened to one candidate name during Reconcile.
type Outcome struct {
	Name    string
	Created bool
	Err     error
}

// Reconciler creates missing tag records. It performs a read-then-write
// without locking, so concurrent calls for one user can both create a name.
type Reconciler struct {
	store      store.Store
	collection string
	log        *slog.Logger
}

// NewReconciler creates a reconciler writing to collection.
func NewReconciler(s store.Store, collection string, log *slog.Logger) *Reconciler {
	return &Reconciler{
		store:      s,
		collection: collection,
		log:        log,
	}
}

// List returns the tag records owned by userID.
func (r *Reconciler) List(ctx context.Context, userID string) ([]Tag, error) {
	docs, err := r.store.List(ctx, r.collection, store.Equal(fieldUserID, userID))
	if err != nil {
		r.log.Error(ErrListTags.Error(), "error", err, "user_id", userID)
		return nil, fmt.Errorf("%w: %w", ErrListTags, err)
	}

	out := make([]Tag, 0, len(docs))
	for _, d := range docs {
		out = append(out, Tag{
			ID:     d.ID,
			Name:   store.String(d.Fields[fieldName]),
			UserID: store.String(d.Fields[fieldUserID]),
		})
	}
	return out, nil
}

// Reconcile creates a tag record for every name in candidates that userID does
// not own yet. Duplicate and empty candidates are ignored.
func (r *Reconciler) Reconcile(ctx context.Context, userID string, candidates []string) error {
	_, err := r.reconcile(ctx, userID, candidates)
	return err
}

func (r *Reconciler) reconcile(ctx context.Context, userID string, candidates []string) ([]Outcome, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	existing, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for _, t := range existing {
		seen[t.Name] = struct{}{}
	}

	var outcomes []Outcome
	failed := 0
	for _, name := range candidates {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		_, err := r.store.Create(ctx, r.collection, "", store.Fields{
			fieldName:   name,
			fieldUserID: userID,
		})
		if err != nil {
			failed++
			r.log.Warn("failed to create tag", "error", err, "user_id", userID, "tag", name)
		}
		outcomes = append(outcomes, Outcome{Name: name, Created: err == nil, Err: err})
	}

	if failed > 0 {
		r.log.Error(ErrReconcile.Error(), "user_id", userID, "failed", failed, "attempted", len(outcomes))
		return outcomes, ErrReconcile
	}
	if len(outcomes) > 0 {
		r.log.Debug("created tags", "user_id", userID, "count", len(outcomes))
	}
	return outcomes, nil
}
