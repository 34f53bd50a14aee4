package mongo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"note-vault/internal/services/blob"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// GridFS stores media files in GridFS buckets and serves them back through
// the API's /files route.
type GridFS struct {
	db            *mongo.Database
	publicBaseURL string
}

// NewGridFS creates a GridFS blob storage. publicBaseURL is the externally
// reachable origin of the API, e.g. http://localhost:8080.
func NewGridFS(db *mongo.Database, publicBaseURL string) *GridFS {
	return &GridFS{
		db:            db,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (g *GridFS) bucket(name string) *mongo.GridFSBucket {
	return g.db.GridFSBucket(options.GridFSBucket().SetName(name))
}

// Upload implements blob.Storage.
func (g *GridFS) Upload(ctx context.Context, bucket, id string, data []byte, contentType string) (string, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	if err := g.bucket(bucket).UploadFromStreamWithID(ctx, id, id, bytes.NewReader(data), opts); err != nil {
		return "", fmt.Errorf("gridfs upload %s/%s: %w", bucket, id, err)
	}
	return id, nil
}

// PublicURL implements blob.Storage.
func (g *GridFS) PublicURL(_ context.Context, bucket, fileID string) (string, error) {
	return fmt.Sprintf("%s/files/%s/%s", g.publicBaseURL, url.PathEscape(bucket), url.PathEscape(fileID)), nil
}

// Download implements blob.Storage.
func (g *GridFS) Download(ctx context.Context, bucket, fileID string, w io.Writer) error {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	if _, err := g.bucket(bucket).DownloadToStream(ctx, fileID, w); err != nil {
		if errors.Is(err, mongo.ErrFileNotFound) {
			return blob.ErrFileNotFound
		}
		return fmt.Errorf("gridfs download %s/%s: %w", bucket, fileID, err)
	}
	return nil
}
