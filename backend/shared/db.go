package shared

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// DynamoAPI is the subset of the DynamoDB client the tables use
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var dynamoClient *dynamodb.Client

// InitDynamoDB initializes the DynamoDB client
func InitDynamoDB(ctx context.Context) (*dynamodb.Client, error) {
	if dynamoClient != nil {
		return dynamoClient, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	dynamoClient = dynamodb.NewFromConfig(cfg)
	return dynamoClient, nil
}

// Table wraps one DynamoDB table
type Table struct {
	name   string
	client DynamoAPI
	logger *zap.Logger
}

// NewTable binds a table name to a client
func NewTable(client DynamoAPI, name string, logger *zap.Logger) *Table {
	return &Table{
		name:   name,
		client: client,
		logger: componentLogger(logger, "db").With(zap.String("table", name)),
	}
}

// Name returns the table name
func (t *Table) Name() string {
	return t.name
}

// StringKey builds a single string attribute key
func StringKey(attr, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attr: &types.AttributeValueMemberS{Value: value},
	}
}

// GetItem retrieves an item. found is false when no item matches the key.
func (t *Table) GetItem(ctx context.Context, key map[string]types.AttributeValue, result interface{}) (bool, error) {
	t.logger.Debug("GetItem", zap.Any("key", key))

	output, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &t.name,
		Key:       key,
	})
	if err != nil {
		t.logger.Error("GetItem failed", zap.Error(err))
		return false, err
	}

	if output.Item == nil {
		t.logger.Debug("GetItem: no item found")
		return false, nil
	}

	if err := attributevalue.UnmarshalMap(output.Item, result); err != nil {
		t.logger.Error("GetItem: failed to unmarshal item", zap.Error(err))
		return false, err
	}
	return true, nil
}

// PutItem puts an item
func (t *Table) PutItem(ctx context.Context, item interface{}) error {
	t.logger.Debug("PutItem", zap.String("type", fmt.Sprintf("%T", item)))

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		t.logger.Error("PutItem: failed to marshal item", zap.Error(err))
		return err
	}

	_, err = t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &t.name,
		Item:      av,
	})
	if err != nil {
		t.logger.Error("PutItem failed", zap.Error(err))
		return err
	}
	return nil
}

// DeleteItem deletes an item
func (t *Table) DeleteItem(ctx context.Context, key map[string]types.AttributeValue) error {
	t.logger.Debug("DeleteItem", zap.Any("key", key))

	_, err := t.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &t.name,
		Key:       key,
	})
	if err != nil {
		t.logger.Error("DeleteItem failed", zap.Error(err))
		return err
	}
	return nil
}

// Scan reads every item of the table, following pagination
func (t *Table) Scan(ctx context.Context, results interface{}) error {
	var items []map[string]types.AttributeValue
	input := &dynamodb.ScanInput{TableName: &t.name}

	for {
		output, err := t.client.Scan(ctx, input)
		if err != nil {
			t.logger.Error("Scan failed", zap.Error(err))
			return err
		}
		items = append(items, output.Items...)
		if len(output.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = output.LastEvaluatedKey
	}

	if err := attributevalue.UnmarshalListOfMaps(items, results); err != nil {
		t.logger.Error("Scan: failed to unmarshal results", zap.Error(err))
		return err
	}

	t.logger.Debug("Scan complete", zap.Int("items", len(items)))
	return nil
}
