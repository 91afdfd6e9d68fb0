package migrate

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	MigrationTasksTableName = "migration_tasks"
	MigrationTasksVersion   = "20250815000003_migration_tasks_table"
)

type CreateMigrationTasksTable struct{}

func (m *CreateMigrationTasksTable) Version() string {
	return MigrationTasksVersion
}

func (m *CreateMigrationTasksTable) TableName() string {
	return MigrationTasksTableName
}

func (m *CreateMigrationTasksTable) Up(ctx context.Context, client *dynamodb.Client) error {
	input := &dynamodb.CreateTableInput{
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("id"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("id"),
				KeyType:       types.KeyTypeHash, // Partition Key
			},
		},
		TableName:   aws.String(MigrationTasksTableName),
		BillingMode: types.BillingModePayPerRequest, // On-demand billing for variable workloads
		Tags: []types.Tag{
			{
				Key:   aws.String("Purpose"),
				Value: aws.String("MigrationTasks"),
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
		TableName: aws.String(MigrationTasksTableName),
	}, 5*time.Minute)

	return err
}

func (m *CreateMigrationTasksTable) Down(ctx context.Context, client *dynamodb.Client) error {
	input := &dynamodb.DeleteTableInput{
		TableName: aws.String(MigrationTasksTableName),
	}

	_, err := client.DeleteTable(ctx, input)
	return err
}
