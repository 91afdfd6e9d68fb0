package migrate

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	MigrationPoliciesTableName = "migration_policies"
	MigrationPoliciesVersion   = "20250815000002_migration_policies_table"
)

type CreateMigrationPoliciesTable struct{}

func (m *CreateMigrationPoliciesTable) Version() string {
	return MigrationPoliciesVersion
}

func (m *CreateMigrationPoliciesTable) TableName() string {
	return MigrationPoliciesTableName
}

func (m *CreateMigrationPoliciesTable) Up(ctx context.Context, client *dynamodb.Client) error {
	input := &dynamodb.CreateTableInput{
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("name"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("name"),
				KeyType:       types.KeyTypeHash, // Partition Key
			},
		},
		TableName:   aws.String(MigrationPoliciesTableName),
		BillingMode: types.BillingModePayPerRequest, // On-demand billing for variable workloads
		Tags: []types.Tag{
			{
				Key:   aws.String("Purpose"),
				Value: aws.String("MigrationPolicies"),
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
		TableName: aws.String(MigrationPoliciesTableName),
	}, 5*time.Minute)

	return err
}

func (m *CreateMigrationPoliciesTable) Down(ctx context.Context, client *dynamodb.Client) error {
	input := &dynamodb.DeleteTableInput{
		TableName: aws.String(MigrationPoliciesTableName),
	}

	_, err := client.DeleteTable(ctx, input)
	return err
}
