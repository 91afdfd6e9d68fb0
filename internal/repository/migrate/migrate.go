// Package migrate holds the DynamoDB table migrations for the engine's
// persistent schema.
package migrate

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Migration creates or removes one table.
type Migration interface {
	Version() string
	TableName() string
	Up(ctx context.Context, client *dynamodb.Client) error
	Down(ctx context.Context, client *dynamodb.Client) error
}

// All returns every migration in apply order.
func All() []Migration {
	return []Migration{
		&CreateRoutingRulesTable{},
		&CreateMigrationPoliciesTable{},
		&CreateMigrationTasksTable{},
		&CreateMigrationBatchesTable{},
	}
}
