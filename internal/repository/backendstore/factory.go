package backendstore

import (
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PlatformType represents the type of object storage
type PlatformType string

const (
	S3Type  PlatformType = "s3"
	GCSType PlatformType = "gcs"
	// Add more types as needed
)

// BucketConfig holds configuration for a storage backend bucket
type BucketConfig struct {
	Name string
	Type PlatformType
	// Add provider-specific config fields as needed
}

// Factory creates backend store instances
type Factory struct {
	awsConfig aws.Config
	gcsClient *storage.Client
	quiet     bool
	// Add other provider configs as needed
}

// NewFactory creates a new backend store factory
func NewFactory(awsConfig aws.Config, gcsClient *storage.Client, quiet bool) *Factory {
	return &Factory{
		awsConfig: awsConfig,
		gcsClient: gcsClient,
		quiet:     quiet,
	}
}

// CreateBackend creates a backend store based on bucket configuration
func (f *Factory) CreateBackend(config BucketConfig) (BackendStore, error) {
	switch config.Type {
	case S3Type:
		client := s3.NewFromConfig(f.awsConfig)
		return NewS3Backend(client, config.Name, f.quiet), nil
	case GCSType:
		if f.gcsClient == nil {
			return nil, fmt.Errorf("GCS client not configured")
		}
		return NewGCSBackend(f.gcsClient, config.Name, f.quiet), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// ParseBucketConfig parses a backend bucket configuration from string
// Formats: "s3://bucket-name", "gs://bucket-name", "s3:bucket-name", or "bucket-name" (defaults to S3)
func ParseBucketConfig(bucketStr string) (BucketConfig, error) {
	bucketStr = strings.TrimSpace(bucketStr)

	// Handle URI format (s3://, gs://)
	if strings.Contains(bucketStr, "://") {
		parts := strings.SplitN(bucketStr, "://", 2)
		if len(parts) != 2 {
			return BucketConfig{}, fmt.Errorf("invalid URI format: %s", bucketStr)
		}

		scheme := strings.ToLower(strings.TrimSpace(parts[0]))
		bucketName := strings.TrimSpace(parts[1])

		if bucketName == "" {
			return BucketConfig{}, fmt.Errorf("bucket name cannot be empty")
		}

		var platform PlatformType
		switch scheme {
		case "s3":
			platform = S3Type
		case "gs":
			platform = GCSType
		default:
			return BucketConfig{}, fmt.Errorf("unsupported scheme: %s", scheme)
		}

		return BucketConfig{
			Name: bucketName,
			Type: platform,
		}, nil
	}

	// Handle colon format (s3:bucket-name)
	parts := strings.SplitN(bucketStr, ":", 2)
	if len(parts) != 2 {
		// Default to S3 for backward compatibility
		return BucketConfig{
			Name: bucketStr,
			Type: S3Type,
		}, nil
	}

	platform := PlatformType(strings.ToLower(strings.TrimSpace(parts[0])))
	bucketName := strings.TrimSpace(parts[1])

	if bucketName == "" {
		return BucketConfig{}, fmt.Errorf("bucket name cannot be empty")
	}

	return BucketConfig{
		Name: bucketName,
		Type: platform,
	}, nil
}
