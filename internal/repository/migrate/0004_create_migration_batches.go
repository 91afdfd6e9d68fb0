package migrate

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	MigrationBatchesTableName = "migration_batches"
	MigrationBatchesVersion   = "20250815000004_migration_batches_table"
)

type CreateMigrationBatchesTable struct{}

func (m *CreateMigrationBatchesTable) Version() string {
	return MigrationBatchesVersion
}

func (m *CreateMigrationBatchesTable) TableName() string {
	return MigrationBatchesTableName
}

func (m *CreateMigrationBatchesTable) Up(ctx context.Context, client *dynamodb.Client) error {
	input := &dynamodb.CreateTableInput{
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("batch_id"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("batch_id"),
				KeyType:       types.KeyTypeHash, // Partition Key
			},
		},
		TableName:   aws.String(MigrationBatchesTableName),
		BillingMode: types.BillingModePayPerRequest, // On-demand billing for variable workloads
		Tags: []types.Tag{
			{
				Key:   aws.String("Purpose"),
				Value: aws.String("MigrationBatches"),
			},
		},
	}

	// Create the table
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		return err
	}

	// Wait for table to become active
	waiter := dynamodb.NewTableExistsWaiter(client)
	err = waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(MigrationBatchesTableName),
	}, 5*time.Minute)

	return err
}

func (m *CreateMigrationBatchesTable) Down(ctx context.Context, client *dynamodb.Client) error {
	input := &dynamodb.DeleteTableInput{
		TableName: aws.String(MigrationBatchesTableName),
	}

	_, err := client.DeleteTable(ctx, input)
	return err
}
