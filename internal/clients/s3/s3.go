// Package s3 stores note media in an S3 bucket and hands out presigned links.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"note-vault/internal/config"
	"note-vault/internal/services/blob"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const defaultPresignTTL = 15 * time.Minute

// objectAPI is the subset of *s3.Client used here.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// presigner is the subset of *s3.PresignClient used here.
type presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Storage implements blob.Storage. Logical buckets become key prefixes inside
// one S3 bucket.
type Storage struct {
	api        objectAPI
	presign    presigner
	bucket     string
	presignTTL time.Duration
	log        *slog.Logger
}

// New builds a Storage from the default AWS credential chain.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := time.Duration(cfg.S3PresignMinutes) * time.Minute
	return newStorage(client, s3.NewPresignClient(client), cfg.BlobBucket, ttl, log), nil
}

func newStorage(api objectAPI, p presigner, bucket string, ttl time.Duration, log *slog.Logger) *Storage {
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}
	return &Storage{
		api:        api,
		presign:    p,
		bucket:     bucket,
		presignTTL: ttl,
		log:        log,
	}
}

func objectKey(bucket, id string) string {
	return path.Join(bucket, id)
}

// Upload implements blob.Storage.
func (s *Storage) Upload(ctx context.Context, bucket, id string, data []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(bucket, id)),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.api.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3 put %s: %w", objectKey(bucket, id), err)
	}
	s.log.Debug("uploaded object", "key", objectKey(bucket, id), "size", len(data))
	return id, nil
}

// PublicURL implements blob.Storage with a time-limited presigned GET.
func (s *Storage) PublicURL(ctx context.Context, bucket, fileID string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(bucket, fileID)),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s: %w", objectKey(bucket, fileID), err)
	}
	return req.URL, nil
}

// Download implements blob.Storage.
func (s *Storage) Download(ctx context.Context, bucket, fileID string, w io.Writer) error {
	resp, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(bucket, fileID)),
	})
	if err != nil {
		if isNotFound(err) {
			return blob.ErrFileNotFound
		}
		return fmt.Errorf("s3 get %s: %w", objectKey(bucket, fileID), err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("s3 read %s: %w", objectKey(bucket, fileID), err)
	}
	return nil
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	return errors.As(err, &noKey)
}
