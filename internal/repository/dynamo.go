package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/lestrix/serverless-todo/internal/apperr"
	"github.com/lestrix/serverless-todo/internal/config"
	"github.com/lestrix/serverless-todo/internal/models"
	"github.com/lestrix/serverless-todo/pkg/logger"
)

// dynamoAPI is the slice of the DynamoDB client this backend uses. Tests
// substitute a fake.
type dynamoAPI interface {
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Dynamo persists todos in a DynamoDB table keyed by id.
type Dynamo struct {
	client dynamoAPI
	table  string
}

// NewDynamo loads the default AWS config chain and targets cfg.TodosTable.
func NewDynamo(ctx context.Context, cfg *config.Config) (*Dynamo, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	logger.Info(ctx, "DynamoDB repository initialized", "table", cfg.TodosTable)
	return &Dynamo{client: dynamodb.NewFromConfig(awsCfg), table: cfg.TodosTable}, nil
}

func dynamoKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func isConditionFailed(err error) bool {
	var cond *types.ConditionalCheckFailedException
	return errors.As(err, &cond)
}

func (d *Dynamo) GetAll(ctx context.Context) ([]models.Todo, error) {
	todos := make([]models.Todo, 0)
	var startKey map[string]types.AttributeValue
	for {
		out, err := d.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(d.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, apperr.Storage("dynamodb scan", err)
		}
		var page []models.Todo
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, apperr.Storage("decode todos", err)
		}
		todos = append(todos, page...)
		if out.LastEvaluatedKey == nil {
			return todos, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func (d *Dynamo) GetByID(ctx context.Context, id string) (models.Todo, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key:       dynamoKey(id),
	})
	if err != nil {
		return models.Todo{}, apperr.Storage("dynamodb get", err)
	}
	if len(out.Item) == 0 {
		return models.Todo{}, apperr.NotFound(entity, id)
	}
	var t models.Todo
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return models.Todo{}, apperr.Storage("decode todo", err)
	}
	return t, nil
}

func (d *Dynamo) Create(ctx context.Context, in models.CreateInput) (models.Todo, error) {
	if err := in.Validate(); err != nil {
		return models.Todo{}, err
	}
	t := models.NewTodo(in)
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return models.Todo{}, apperr.Storage("encode todo", err)
	}
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	}); err != nil {
		return models.Todo{}, apperr.Storage("dynamodb put", err)
	}
	return t, nil
}

func (d *Dynamo) Update(ctx context.Context, id string, in models.UpdateInput) (models.Todo, error) {
	if err := in.Validate(); err != nil {
		return models.Todo{}, err
	}
	t, err := d.GetByID(ctx, id)
	if err != nil {
		return models.Todo{}, err
	}
	t = models.ApplyUpdate(t, in)
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return models.Todo{}, apperr.Storage("encode todo", err)
	}
	// The condition keeps a todo deleted between the read and the write
	// from being resurrected.
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if isConditionFailed(err) {
		return models.Todo{}, apperr.NotFound(entity, id)
	}
	if err != nil {
		return models.Todo{}, apperr.Storage("dynamodb put", err)
	}
	return t, nil
}

func (d *Dynamo) Delete(ctx context.Context, id string) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(d.table),
		Key:                 dynamoKey(id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if isConditionFailed(err) {
		return apperr.NotFound(entity, id)
	}
	if err != nil {
		return apperr.Storage("dynamodb delete", err)
	}
	return nil
}
