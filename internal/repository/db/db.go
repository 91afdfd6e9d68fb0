package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	taggingtypes "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi/types"
	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/zroute/internal/config"
	"github.com/zzenonn/zroute/internal/repository/migrate"
)

type DynamoDb struct {
	Client        *dynamodb.Client
	TaggingClient *resourcegroupstaggingapi.Client
}

func NewDatabase(cfg *config.Config) (*DynamoDb, error) {
	client := dynamodb.NewFromConfig(cfg.AwsConfig)
	if client == nil {
		log.Fatal("Failed to create DynamoDB client")
	}

	taggingClient := resourcegroupstaggingapi.NewFromConfig(cfg.AwsConfig)
	if taggingClient == nil {
		log.Fatal("Failed to create Resource Groups Tagging API client")
	}

	return &DynamoDb{
		Client:        client,
		TaggingClient: taggingClient,
	}, nil
}

// MigrateDb creates all engine tables that do not exist yet.
func (d *DynamoDb) MigrateDb(ctx context.Context) error {
	for _, m := range migrate.All() {
		exists, err := d.tableExists(ctx, m.TableName())
		if err != nil {
			return err
		}
		if exists {
			log.Debugf("Table %s already exists, skipping %s", m.TableName(), m.Version())
			continue
		}

		log.Infof("Applying migration %s", m.Version())
		if err := m.Up(ctx, d.Client); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.Version(), err)
		}
	}
	return nil
}

// MigrateDown removes all engine tables.
func (d *DynamoDb) MigrateDown(ctx context.Context) error {
	migrations := migrate.All()
	for i := len(migrations) - 1; i >= 0; i-- {
		m := migrations[i]
		exists, err := d.tableExists(ctx, m.TableName())
		if err != nil {
			return err
		}
		if !exists {
			continue
		}

		log.Infof("Rolling back migration %s", m.Version())
		if err := m.Down(ctx, d.Client); err != nil {
			return fmt.Errorf("rollback %s failed: %w", m.Version(), err)
		}
	}
	return nil
}

func (d *DynamoDb) tableExists(ctx context.Context, tableName string) (bool, error) {
	_, err := d.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		if strings.Contains(err.Error(), "ResourceNotFoundException") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DiscoverBackendBuckets finds S3 buckets tagged as routing backends via
// the Resource Groups Tagging API. Returns bucket names.
func (d *DynamoDb) DiscoverBackendBuckets(ctx context.Context, tagKey string) ([]string, error) {
	input := &resourcegroupstaggingapi.GetResourcesInput{
		ResourceTypeFilters: []string{"s3:bucket"},
		TagFilters: []taggingtypes.TagFilter{
			{Key: aws.String(tagKey)},
		},
	}

	var buckets []string
	for {
		result, err := d.TaggingClient.GetResources(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to discover backend buckets: %w", err)
		}

		for _, mapping := range result.ResourceTagMappingList {
			arn := aws.ToString(mapping.ResourceARN)
			// S3 bucket ARNs look like arn:aws:s3:::bucket-name
			if idx := strings.LastIndex(arn, ":"); idx >= 0 {
				buckets = append(buckets, arn[idx+1:])
			}
		}

		if result.PaginationToken == nil || *result.PaginationToken == "" {
			break
		}
		input.PaginationToken = result.PaginationToken
	}

	return buckets, nil
}
