package db

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/zzenonn/zroute/internal/domain"
)

// PolicyRepository manages DynamoDB interactions for migration policies.
type PolicyRepository struct {
	client    *dynamodb.Client
	tableName string
}

// NewPolicyRepository initializes a new PolicyRepository.
func NewPolicyRepository(client *dynamodb.Client, tableName string) PolicyRepository {
	return PolicyRepository{
		client:    client,
		tableName: tableName,
	}
}

// SavePolicy stores a migration policy (full replacement).
func (repo *PolicyRepository) SavePolicy(ctx context.Context, policy domain.MigrationPolicy) error {
	item, err := attributevalue.MarshalMap(policy)
	if err != nil {
		return fmt.Errorf("failed to marshal policy: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(repo.tableName),
		Item:      item,
	}

	if _, err := repo.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}

// DeletePolicy removes a migration policy by name.
func (repo *PolicyRepository) DeletePolicy(ctx context.Context, name string) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(repo.tableName),
		Key: map[string]types.AttributeValue{
			"name": &types.AttributeValueMemberS{Value: name},
		},
	}

	if _, err := repo.client.DeleteItem(ctx, input); err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}
	return nil
}

// ListPolicies retrieves all migration policies.
func (repo *PolicyRepository) ListPolicies(ctx context.Context) ([]domain.MigrationPolicy, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(repo.tableName),
	}

	var policies []domain.MigrationPolicy
	for {
		result, err := repo.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policies: %w", err)
		}

		for _, item := range result.Items {
			var policy domain.MigrationPolicy
			if err := attributevalue.UnmarshalMap(item, &policy); err != nil {
				return nil, fmt.Errorf("failed to unmarshal policy: %w", err)
			}
			policies = append(policies, policy)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return policies, nil
}
