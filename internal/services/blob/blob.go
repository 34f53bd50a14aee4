// Package blob defines the media storage collaborator used for note images and audio.
package blob

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrFileNotFound is returned when a stored file id does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrUnavailable is returned while the storage backend is considered down.
var ErrUnavailable = errors.New("blob storage unavailable")

// Storage uploads media payloads and resolves them to URLs.
type Storage interface {
	// Upload stores data under id in bucket and returns the file id.
	Upload(ctx context.Context, bucket, id string, data []byte, contentType string) (string, error)
	// PublicURL returns a URL clients can fetch the file from.
	PublicURL(ctx context.Context, bucket, fileID string) (string, error)
	// Download streams the file contents to w.
	Download(ctx context.Context, bucket, fileID string, w io.Writer) error
}

// NewFileID returns a fresh, time-ordered file id.
func NewFileID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
