// Package objectstore uploads the map document to an S3-compatible bucket.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/couchcryptid/nxny-map-etl/internal/domain"
)

type bucketClient interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Options configures the MinIO client.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	ObjectKey string
}

// Publisher stores the exact output document under one object key.
// It implements pipeline.Publisher.
type Publisher struct {
	client bucketClient
	bucket string
	key    string
	logger *slog.Logger
}

// NewPublisher connects to the object store. No request is made until Publish.
func NewPublisher(opts Options, logger *slog.Logger) (*Publisher, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Publisher{client: client, bucket: opts.Bucket, key: opts.ObjectKey, logger: logger}, nil
}

func (p *Publisher) Name() string { return "objectstore" }

// Publish creates the bucket if needed and uploads the document.
func (p *Publisher) Publish(ctx context.Context, snap domain.Snapshot) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if !exists {
		if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", p.bucket, err)
		}
		p.logger.Info("bucket created", "bucket", p.bucket)
	}

	info, err := p.client.PutObject(ctx, p.bucket, p.key,
		bytes.NewReader(snap.Document), int64(len(snap.Document)),
		minio.PutObjectOptions{
			ContentType: "application/json",
			UserMetadata: map[string]string{
				"run-id":  snap.RunID,
				"entries": strconv.Itoa(snap.Map.Len()),
			},
		})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", p.bucket, p.key, err)
	}

	p.logger.Debug("object stored", "bucket", p.bucket, "key", p.key, "size", info.Size, "etag", info.ETag)
	return nil
}
