package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"construction_estimator/internal/domain/entities"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo keeps items per table keyed by their hash(+range) key values.
type fakeDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
	seq    int64
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{tables: map[string]map[string]map[string]types.AttributeValue{}}
}

func keyOf(item map[string]types.AttributeValue) string {
	parts := []string{}
	for _, name := range []string{"id", "estimate_id", "change_id"} {
		switch v := item[name].(type) {
		case *types.AttributeValueMemberN:
			parts = append(parts, name+"="+v.Value)
		case *types.AttributeValueMemberS:
			parts = append(parts, name+"="+v.Value)
		}
	}
	return strings.Join(parts, ",")
}

func (f *fakeDynamo) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := f.tables[name]
	if !ok {
		t = map[string]map[string]types.AttributeValue{}
		f.tables[name] = t
	}
	return t
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.table(*in.TableName)[keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.table(*in.TableName)
	k := keyOf(in.Item)
	if _, exists := t[k]; exists && strings.HasPrefix(aws.ToString(in.ConditionExpression), "attribute_not_exists") {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
	}
	t[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, _ *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{"seq": numberValue(f.seq)}}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := in.ExpressionAttributeValues[":kind"].(*types.AttributeValueMemberS).Value
	out := &dynamodb.ScanOutput{}
	for _, item := range f.table(*in.TableName) {
		if kind, ok := item["kind"].(*types.AttributeValueMemberS); ok && kind.Value == want {
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := in.ExpressionAttributeValues[":eid"].(*types.AttributeValueMemberN).Value
	var items []map[string]types.AttributeValue
	for _, item := range f.table(*in.TableName) {
		if eid, ok := item["estimate_id"].(*types.AttributeValueMemberN); ok && eid.Value == want {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i]["change_id"].(*types.AttributeValueMemberS).Value < items[j]["change_id"].(*types.AttributeValueMemberS).Value
	})
	return &dynamodb.QueryOutput{Items: items}, nil
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ti := range in.TransactItems {
		put := ti.Put
		if strings.HasPrefix(aws.ToString(put.ConditionExpression), "attribute_exists") {
			if _, ok := f.table(*put.TableName)[keyOf(put.Item)]; !ok {
				return nil, &types.TransactionCanceledException{
					CancellationReasons: []types.CancellationReason{{Code: aws.String("ConditionalCheckFailed")}},
				}
			}
		}
	}
	for _, ti := range in.TransactItems {
		f.table(*ti.Put.TableName)[keyOf(ti.Put.Item)] = ti.Put.Item
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func TestDynamoCreateAssignsSequentialIDs(t *testing.T) {
	repo := NewEstimateDynamoRepository(newFakeDynamo(), "", "")
	ctx := context.Background()

	first, err := repo.Create(ctx, sampleEstimate(time.Now()))
	require.NoError(t, err)
	second, err := repo.Create(ctx, sampleEstimate(time.Now()))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func TestDynamoRoundTripKeepsItemsAndMoney(t *testing.T) {
	repo := NewEstimateDynamoRepository(newFakeDynamo(), "est", "chg")
	ctx := context.Background()
	now := time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC)

	created, err := repo.Create(ctx, sampleEstimate(now))
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Items, got.Items)
	assert.Equal(t, 50400.0, got.Subtotal)
	assert.Equal(t, created.Assumptions, got.Assumptions)
	assert.Equal(t, entities.EstimateSourceRooms, got.Source)
	assert.True(t, now.Equal(got.CreatedAt))
}

func TestDynamoGetByIDMissingAndCounterAreNotFound(t *testing.T) {
	repo := NewEstimateDynamoRepository(newFakeDynamo(), "", "")
	ctx := context.Background()
	_, err := repo.Create(ctx, sampleEstimate(time.Now()))
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, 99)
	require.NoError(t, err)
	assert.Zero(t, got.ID)

	got, err = repo.GetByID(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, got.ID)
}

func TestDynamoReplaceWritesChangeAndKeepsCreatedAt(t *testing.T) {
	repo := NewEstimateDynamoRepository(newFakeDynamo(), "", "")
	ctx := context.Background()
	now := time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC)

	created, err := repo.Create(ctx, sampleEstimate(now))
	require.NoError(t, err)

	next := created
	next.CreatedAt = time.Time{}
	next.UpdatedAt = now.Add(time.Minute)
	next.Items = next.Items[1:]
	next.Subtotal = 14400

	replaced, err := repo.Replace(ctx, created.ID, next, "kitchen out of scope")
	require.NoError(t, err)
	assert.True(t, now.Equal(replaced.CreatedAt))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Bath", got.Items[0].Name)

	changes, err := repo.ListChanges(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "kitchen out of scope", changes[0].Input)
	assert.Equal(t, 14400.0, changes[0].Snapshot.Subtotal)
}

func TestDynamoListChangesOldestFirstWithinOneSecond(t *testing.T) {
	repo := NewEstimateDynamoRepository(newFakeDynamo(), "", "")
	ctx := context.Background()
	base := time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC)

	created, err := repo.Create(ctx, sampleEstimate(base))
	require.NoError(t, err)

	offsets := []time.Duration{time.Second, time.Second + 100*time.Millisecond, time.Second + 120*time.Millisecond}
	inputs := []string{"first", "second", "third"}
	for i, off := range offsets {
		next := created
		next.UpdatedAt = base.Add(off)
		_, err := repo.Replace(ctx, created.ID, next, inputs[i])
		require.NoError(t, err)
	}

	changes, err := repo.ListChanges(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, changes, 3)
	for i := range inputs {
		assert.Equal(t, inputs[i], changes[i].Input)
	}
}

func TestDynamoReplaceUnknownIDReturnsZeroValue(t *testing.T) {
	repo := NewEstimateDynamoRepository(newFakeDynamo(), "", "")

	got, err := repo.Replace(context.Background(), 5, sampleEstimate(time.Now()), "x")
	require.NoError(t, err)
	assert.Zero(t, got.ID)
}

func TestDynamoListRecentSkipsCounterAndSortsByID(t *testing.T) {
	repo := NewEstimateDynamoRepository(newFakeDynamo(), "", "")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, sampleEstimate(time.Now()))
		require.NoError(t, err)
	}

	recent, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(3), recent[0].ID)
	assert.Equal(t, int64(2), recent[1].ID)
}

func TestIsConditionFailure(t *testing.T) {
	assert.True(t, isConditionFailure(&types.ConditionalCheckFailedException{}))
	assert.True(t, isConditionFailure(&types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{{Code: aws.String("None")}, {Code: aws.String("ConditionalCheckFailed")}},
	}))
	assert.False(t, isConditionFailure(&types.TransactionCanceledException{}))
}
