package migrate

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	RoutingRulesTableName = "routing_rules"
	RoutingRulesVersion   = "20250815000000_routing_rules_table"
)

type CreateRoutingRulesTable struct{}

func (m *CreateRoutingRulesTable) Version() string {
	return RoutingRulesVersion
}

func (m *CreateRoutingRulesTable) TableName() string {
	return RoutingRulesTableName
}

func (m *CreateRoutingRulesTable) Up(ctx context.Context, client *dynamodb.Client) error {
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
		TableName:   aws.String(RoutingRulesTableName),
		BillingMode: types.BillingModePayPerRequest, // On-demand billing for variable workloads
		Tags: []types.Tag{
			{
				Key:   aws.String("Purpose"),
				Value: aws.String("RoutingRules"),
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
		TableName: aws.String(RoutingRulesTableName),
	}, 5*time.Minute)

	return err
}

func (m *CreateRoutingRulesTable) Down(ctx context.Context, client *dynamodb.Client) error {
	input := &dynamodb.DeleteTableInput{
		TableName: aws.String(RoutingRulesTableName),
	}

	_, err := client.DeleteTable(ctx, input)
	return err
}
