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

// RuleRepository manages DynamoDB interactions for routing rules.
type RuleRepository struct {
	client    *dynamodb.Client
	tableName string
}

// NewRuleRepository initializes a new RuleRepository.
func NewRuleRepository(client *dynamodb.Client, tableName string) RuleRepository {
	return RuleRepository{
		client:    client,
		tableName: tableName,
	}
}

// SaveRule stores a routing rule (full replacement).
func (repo *RuleRepository) SaveRule(ctx context.Context, rule domain.RoutingRule) error {
	item, err := attributevalue.MarshalMap(rule)
	if err != nil {
		return fmt.Errorf("failed to marshal rule: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(repo.tableName),
		Item:      item,
	}

	if _, err := repo.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}
	return nil
}

// DeleteRule removes a routing rule by id.
func (repo *RuleRepository) DeleteRule(ctx context.Context, id string) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(repo.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	}

	if _, err := repo.client.DeleteItem(ctx, input); err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	return nil
}

// ListRules retrieves all routing rules.
func (repo *RuleRepository) ListRules(ctx context.Context) ([]domain.RoutingRule, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(repo.tableName),
	}

	var rules []domain.RoutingRule
	for {
		result, err := repo.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rules: %w", err)
		}

		for _, item := range result.Items {
			var rule domain.RoutingRule
			if err := attributevalue.UnmarshalMap(item, &rule); err != nil {
				return nil, fmt.Errorf("failed to unmarshal rule: %w", err)
			}
			rules = append(rules, rule)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return rules, nil
}
