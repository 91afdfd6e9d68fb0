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

// TaskRepository manages DynamoDB interactions for migration tasks.
type TaskRepository struct {
	client    *dynamodb.Client
	tableName string
}

// NewTaskRepository initializes a new TaskRepository.
func NewTaskRepository(client *dynamodb.Client, tableName string) TaskRepository {
	return TaskRepository{
		client:    client,
		tableName: tableName,
	}
}

// SaveTask stores a migration task (full replacement).
func (repo *TaskRepository) SaveTask(ctx context.Context, task domain.MigrationTask) error {
	item, err := attributevalue.MarshalMap(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(repo.tableName),
		Item:      item,
	}

	if _, err := repo.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// DeleteTask removes a migration task by id.
func (repo *TaskRepository) DeleteTask(ctx context.Context, id string) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(repo.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	}

	if _, err := repo.client.DeleteItem(ctx, input); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// ListTasks retrieves all migration tasks.
func (repo *TaskRepository) ListTasks(ctx context.Context) ([]domain.MigrationTask, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(repo.tableName),
	}

	var tasks []domain.MigrationTask
	for {
		result, err := repo.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tasks: %w", err)
		}

		for _, item := range result.Items {
			var task domain.MigrationTask
			if err := attributevalue.UnmarshalMap(item, &task); err != nil {
				return nil, fmt.Errorf("failed to unmarshal task: %w", err)
			}
			tasks = append(tasks, task)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return tasks, nil
}

// BatchRepository manages DynamoDB interactions for migration batches.
type BatchRepository struct {
	client    *dynamodb.Client
	tableName string
}

// NewBatchRepository initializes a new BatchRepository.
func NewBatchRepository(client *dynamodb.Client, tableName string) BatchRepository {
	return BatchRepository{
		client:    client,
		tableName: tableName,
	}
}

// SaveBatch stores a migration batch record.
func (repo *BatchRepository) SaveBatch(ctx context.Context, batch domain.MigrationBatch) error {
	item, err := attributevalue.MarshalMap(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(repo.tableName),
		Item:      item,
	}

	if _, err := repo.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}
	return nil
}

// ListBatches retrieves all migration batch records.
func (repo *BatchRepository) ListBatches(ctx context.Context) ([]domain.MigrationBatch, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(repo.tableName),
	}

	var batches []domain.MigrationBatch
	for {
		result, err := repo.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batches: %w", err)
		}

		for _, item := range result.Items {
			var batch domain.MigrationBatch
			if err := attributevalue.UnmarshalMap(item, &batch); err != nil {
				return nil, fmt.Errorf("failed to unmarshal batch: %w", err)
			}
			batches = append(batches, batch)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return batches, nil
}
