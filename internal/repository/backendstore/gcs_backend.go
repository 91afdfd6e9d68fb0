package backendstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"

	"github.com/zzenonn/zroute/internal/domain"
)

// GCSBackend stores content in one Google Cloud Storage bucket.
type GCSBackend struct {
	client     *storage.Client
	bucketName string
	quiet      bool
}

// NewGCSBackend initializes a new GCSBackend.
func NewGCSBackend(client *storage.Client, bucketName string, quiet bool) *GCSBackend {
	return &GCSBackend{
		client:     client,
		bucketName: bucketName,
		quiet:      quiet,
	}
}

// GetBucketName returns the bucket name
func (b *GCSBackend) GetBucketName() string {
	return b.bucketName
}

// GetStorageType returns the storage type
func (b *GCSBackend) GetStorageType() string {
	return "gcs"
}

// Add uploads content to GCS and returns its object name as the content id.
func (b *GCSBackend) Add(ctx context.Context, content []byte, metadata map[string]string) (string, error) {
	id := metadata["filename"]
	if id == "" {
		id = uuid.New().String()
	}

	obj := b.client.Bucket(b.bucketName).Object(id)
	writer := obj.NewWriter(ctx)
	writer.Metadata = metadata
	if ct := metadata["content_type"]; ct != "" {
		writer.ContentType = ct
	}

	var reader io.Reader = bytes.NewReader(content)
	if !b.quiet {
		log.Debugf("Uploading to GCS: gs://%s/%s", b.bucketName, id)
		bar := progressbar.DefaultBytes(int64(len(content)), "uploading")
		pbReader := progressbar.NewReader(reader, bar)
		reader = &pbReader
	}

	if _, err := io.Copy(writer, reader); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to upload to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to upload to GCS: %w", err)
	}

	return id, nil
}

// Get downloads content by id.
func (b *GCSBackend) Get(ctx context.Context, id string) ([]byte, error) {
	obj := b.client.Bucket(b.bucketName).Object(id)

	if !b.quiet {
		log.Debugf("Downloading from GCS: gs://%s/%s", b.bucketName, id)
	}

	reader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to download from GCS: %w", err)
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

// List returns descriptors for all objects matching the filter.
func (b *GCSBackend) List(ctx context.Context, filter domain.ContentFilter) ([]domain.ContentItem, error) {
	bucket := b.client.Bucket(b.bucketName)

	query := &storage.Query{}
	if filter.Type == domain.FilterPrefix && filter.Prefix != "" {
		query.Prefix = filter.Prefix
	}

	var items []domain.ContentItem
	it := bucket.Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		items = append(items, domain.ContentItem{
			ID:        attrs.Name,
			SizeBytes: attrs.Size,
			Metadata:  attrs.Metadata,
		})
	}

	return items, nil
}

// Delete removes an object by id. Returns false when the id does not exist.
func (b *GCSBackend) Delete(ctx context.Context, id string) (bool, error) {
	obj := b.client.Bucket(b.bucketName).Object(id)

	err := obj.Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete from GCS: %w", err)
	}

	return true, nil
}
