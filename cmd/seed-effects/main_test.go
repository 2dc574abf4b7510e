package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fx-tuner/backend/shared"
)

type fakeStacks struct {
	outputs []cftypes.Output
	err     error
}

func (f fakeStacks) DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &cloudformation.DescribeStacksOutput{Stacks: []cftypes.Stack{{
		StackName: params.StackName,
		Outputs:   f.outputs,
	}}}, nil
}

// effectsTable is an in-memory DynamoDB keyed by targetId
type effectsTable struct {
	items map[string]map[string]types.AttributeValue
}

func (e *effectsTable) key(item map[string]types.AttributeValue) string {
	return item["targetId"].(*types.AttributeValueMemberS).Value
}

func (e *effectsTable) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: e.items[e.key(params.Key)]}, nil
}

func (e *effectsTable) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	e.items[e.key(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (e *effectsTable) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	delete(e.items, e.key(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (e *effectsTable) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	out := &dynamodb.ScanOutput{}
	for _, item := range e.items {
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func TestGetTableNameFromStack(t *testing.T) {
	ctx := context.Background()

	name, err := getTableNameFromStack(ctx, fakeStacks{outputs: []cftypes.Output{
		{OutputKey: aws.String("ApiEndpoint"), OutputValue: aws.String("https://example")},
		{OutputKey: aws.String(effectsTableOutput), OutputValue: aws.String("fx-tuner-effects")},
	}}, "fx-tuner")
	require.NoError(t, err)
	assert.Equal(t, "fx-tuner-effects", name)

	_, err = getTableNameFromStack(ctx, fakeStacks{}, "fx-tuner")
	assert.Error(t, err)

	_, err = getTableNameFromStack(ctx, fakeStacks{err: errors.New("denied")}, "fx-tuner")
	assert.Error(t, err)
}

func TestSeedPreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	db := &effectsTable{items: map[string]map[string]types.AttributeValue{}}
	table := shared.NewTable(db, "fx-tuner-effects", zap.NewNop())

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, table.PutItem(ctx, shared.EffectRecord{
		Target:    shared.Target{ID: "campfire-01"},
		CreatedAt: created,
	}))

	records, err := shared.ParseScene([]byte(`
effects:
  - id: campfire-01
    actor: Campfire
    asset: NS_Fire
    parameters:
      User:
        SpawnRate: 50
  - id: sparks-02
    asset: NS_Sparks
`))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, seed(ctx, &out, table, zap.NewNop(), records))
	assert.Contains(t, out.String(), "campfire-01 (Campfire - NS_Fire) updated with 1 parameters")
	assert.Contains(t, out.String(), "sparks-02 (Unknown - NS_Sparks) created with 0 parameters")
	assert.Contains(t, out.String(), "Seeded 2 effects")

	var stored shared.EffectRecord
	require.NoError(t, attributevalue.UnmarshalMap(db.items["campfire-01"], &stored))
	assert.True(t, created.Equal(stored.CreatedAt))
	assert.Equal(t, "NS_Fire", stored.Asset)
	require.Len(t, stored.Parameters, 1)
	assert.Equal(t, shared.ScalarValue(50), stored.Parameters[0].Value)
}

func TestPruneRemovesEffectsMissingFromScene(t *testing.T) {
	ctx := context.Background()
	db := &effectsTable{items: map[string]map[string]types.AttributeValue{}}
	table := shared.NewTable(db, "fx-tuner-effects", zap.NewNop())

	for _, id := range []string{"campfire-01", "rain-03"} {
		require.NoError(t, table.PutItem(ctx, shared.EffectRecord{Target: shared.Target{ID: id, Asset: "NS_" + id}}))
	}

	records := []shared.EffectRecord{{Target: shared.Target{ID: "campfire-01"}}}

	var out bytes.Buffer
	require.NoError(t, prune(ctx, &out, table, zap.NewNop(), records))
	assert.Contains(t, out.String(), "rain-03 (Unknown - NS_rain-03) deleted")
	assert.Contains(t, out.String(), "Pruned 1 effects")

	assert.Contains(t, db.items, "campfire-01")
	assert.NotContains(t, db.items, "rain-03")
}
