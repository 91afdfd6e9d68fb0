package backendstore

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/zroute/internal/domain"
)

// S3Backend stores content in one S3 bucket.
type S3Backend struct {
	client     *s3.Client
	downloader *manager.Downloader
	bucketName string
	quiet      bool
}

// NewS3Backend initializes a new S3Backend. When quiet is false, transfers
// render a progress bar (interactive CLI use).
func NewS3Backend(client *s3.Client, bucketName string, quiet bool) *S3Backend {
	return &S3Backend{
		client:     client,
		downloader: manager.NewDownloader(client),
		bucketName: bucketName,
		quiet:      quiet,
	}
}

// GetBucketName returns the bucket name.
func (b *S3Backend) GetBucketName() string {
	return b.bucketName
}

// GetStorageType returns the object store type.
func (b *S3Backend) GetStorageType() string {
	return "s3"
}

// Add uploads content to S3 and returns its object key as the content id.
// The id comes from the filename metadata when present, otherwise a uuid.
func (b *S3Backend) Add(ctx context.Context, content []byte, metadata map[string]string) (string, error) {
	id := metadata["filename"]
	if id == "" {
		id = uuid.New().String()
	}

	var reader io.Reader = bytes.NewReader(content)
	if !b.quiet {
		bar := progressbar.DefaultBytes(int64(len(content)), "uploading")
		pbReader := progressbar.NewReader(reader, bar)
		reader = &pbReader
	}

	size := int64(len(content))
	input := &s3.PutObjectInput{
		Bucket:        aws.String(b.bucketName),
		Key:           aws.String(id),
		Body:          reader,
		ContentLength: &size,
		Metadata:      metadata,
	}
	if ct := metadata["content_type"]; ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := b.client.PutObject(ctx, input); err != nil {
		return "", err
	}

	log.Debugf("Stored s3://%s/%s (%d bytes)", b.bucketName, id, size)
	return id, nil
}

// Get downloads content by id using the parallel transfer manager.
func (b *S3Backend) Get(ctx context.Context, id string) ([]byte, error) {
	buf := manager.NewWriteAtBuffer(nil)
	_, err := b.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(id),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// List returns descriptors for all objects matching the filter.
func (b *S3Backend) List(ctx context.Context, filter domain.ContentFilter) ([]domain.ContentItem, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucketName),
	}
	if filter.Type == "prefix" && filter.Prefix != "" {
		input.Prefix = aws.String(filter.Prefix)
	}

	var items []domain.ContentItem
	for {
		result, err := b.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, err
		}

		for _, obj := range result.Contents {
			item := domain.ContentItem{ID: aws.ToString(obj.Key)}
			if obj.Size != nil {
				item.SizeBytes = *obj.Size
			}
			items = append(items, item)
		}

		if result.IsTruncated == nil || !*result.IsTruncated {
			break
		}
		input.ContinuationToken = result.NextContinuationToken
	}

	return items, nil
}

// Delete removes an object by id. Returns false when the id does not exist.
func (b *S3Backend) Delete(ctx context.Context, id string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(id),
	})
	if err != nil {
		var notFound *s3types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}

	_, err = b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(id),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
