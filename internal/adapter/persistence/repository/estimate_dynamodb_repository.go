package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"construction_estimator/internal/domain/entities"
	"construction_estimator/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

const (
	DefaultEstimatesTable = "estimates"
	DefaultChangesTable   = "estimate_changes"

	estimateKind = "estimate"
	counterID    = 0
)

// dynamoAPI is the subset of *dynamodb.Client the repository uses.
type dynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

type estimateRecord struct {
	ID          int64                 `dynamodbav:"id"`
	Kind        string                `dynamodbav:"kind"`
	ProjectName string                `dynamodbav:"project_name"`
	Source      string                `dynamodbav:"source"`
	Status      string                `dynamodbav:"status"`
	Subtotal    string                `dynamodbav:"subtotal"`
	Currency    string                `dynamodbav:"currency"`
	Items       []itemRecord          `dynamodbav:"items"`
	Assumptions []entities.Assumption `dynamodbav:"assumptions"`
	Questions   []string              `dynamodbav:"questions"`
	CreatedAt   string                `dynamodbav:"created_at"`
	UpdatedAt   string                `dynamodbav:"updated_at"`
}

type itemRecord struct {
	Name      string `dynamodbav:"name"`
	Scope     string `dynamodbav:"scope"`
	Quantity  string `dynamodbav:"qty"`
	Unit      string `dynamodbav:"unit"`
	Finish    string `dynamodbav:"finish"`
	UnitCost  string `dynamodbav:"unit_cost"`
	TotalCost string `dynamodbav:"total_cost"`
	Notes     string `dynamodbav:"notes"`
}

type changeRecord struct {
	EstimateID int64          `dynamodbav:"estimate_id"`
	ChangeID   string         `dynamodbav:"change_id"`
	ID         string         `dynamodbav:"id"`
	Input      string         `dynamodbav:"change_text"`
	Snapshot   estimateRecord `dynamodbav:"snapshot"`
	CreatedAt  string         `dynamodbav:"created_at"`
}

// EstimateDynamoRepository persists estimate snapshots in DynamoDB.
//
// Table requirements:
//   - estimates: PK id (number). Item id=0 holds the id sequence.
//   - estimate_changes: PK estimate_id (number), SK change_id (string, "<created_at>#<uuid>")
//
// Items are nested in the estimate record, so a replace is a single put; the
// put and its change entry are written in one transaction.
type EstimateDynamoRepository struct {
	ddb            dynamoAPI
	estimatesTable string
	changesTable   string
	locks          *keyedLocker
}

var _ interfaces.IEstimateRepository = (*EstimateDynamoRepository)(nil)

func NewEstimateDynamoRepository(ddb dynamoAPI, estimatesTable, changesTable string) *EstimateDynamoRepository {
	return &EstimateDynamoRepository{
		ddb:            ddb,
		estimatesTable: defaultTable(estimatesTable, DefaultEstimatesTable),
		changesTable:   defaultTable(changesTable, DefaultChangesTable),
		locks:          newKeyedLocker(),
	}
}

func (r *EstimateDynamoRepository) Create(ctx context.Context, e entities.Estimate) (entities.Estimate, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return entities.Estimate{}, err
	}
	e = withCollections(e)
	e.ID = id

	av, err := attributevalue.MarshalMap(toEstimateRecord(e))
	if err != nil {
		return entities.Estimate{}, err
	}
	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.estimatesTable),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return entities.Estimate{}, err
	}
	return e, nil
}

func (r *EstimateDynamoRepository) Replace(ctx context.Context, id int64, e entities.Estimate, input string) (entities.Estimate, error) {
	unlock := r.locks.Lock(id)
	defer unlock()

	current, err := r.get(ctx, id)
	if err != nil {
		return entities.Estimate{}, err
	}
	if current.ID == 0 {
		return entities.Estimate{}, nil
	}

	e = withCollections(e)
	e.ID = id
	e.CreatedAt = current.CreatedAt

	rec := toEstimateRecord(e)
	estimateAV, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return entities.Estimate{}, err
	}
	changeAV, err := attributevalue.MarshalMap(changeRecord{
		EstimateID: id,
		ChangeID:   rec.UpdatedAt + "#" + uuid.NewString(),
		ID:         uuid.NewString(),
		Input:      input,
		Snapshot:   rec,
		CreatedAt:  rec.UpdatedAt,
	})
	if err != nil {
		return entities.Estimate{}, err
	}

	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(r.estimatesTable),
				Item:                     estimateAV,
				ConditionExpression:      aws.String("attribute_exists(#id)"),
				ExpressionAttributeNames: map[string]string{"#id": "id"},
			}},
			{Put: &types.Put{
				TableName: aws.String(r.changesTable),
				Item:      changeAV,
			}},
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			return entities.Estimate{}, nil
		}
		return entities.Estimate{}, err
	}
	return e, nil
}

func (r *EstimateDynamoRepository) GetByID(ctx context.Context, id int64) (entities.Estimate, error) {
	unlock := r.locks.RLock(id)
	defer unlock()
	return r.get(ctx, id)
}

func (r *EstimateDynamoRepository) get(ctx context.Context, id int64) (entities.Estimate, error) {
	if id == counterID {
		return entities.Estimate{}, nil
	}
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.estimatesTable),
		Key:            numberKey("id", id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Estimate{}, err
	}
	if len(out.Item) == 0 {
		return entities.Estimate{}, nil
	}

	var rec estimateRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return entities.Estimate{}, err
	}
	return fromEstimateRecord(rec), nil
}

// ListRecent scans the estimates table; ids are monotonic so newest means highest id.
// The whole table is read and sorted in memory before the limit applies, so cost grows
// with the number of estimates. Fine for a single-tenant table; a GSI on kind+id would
// be needed to page server side.
func (r *EstimateDynamoRepository) ListRecent(ctx context.Context, limit int) ([]entities.Estimate, error) {
	var (
		out   []entities.Estimate
		start map[string]types.AttributeValue
	)
	for {
		page, err := r.ddb.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(r.estimatesTable),
			FilterExpression:          aws.String("#kind = :kind"),
			ExpressionAttributeNames:  map[string]string{"#kind": "kind"},
			ExpressionAttributeValues: map[string]types.AttributeValue{":kind": &types.AttributeValueMemberS{Value: estimateKind}},
			ExclusiveStartKey:         start,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			var rec estimateRecord
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, err
			}
			e := fromEstimateRecord(rec)
			e.Items = nil
			out = append(out, e)
		}
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		start = page.LastEvaluatedKey
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []entities.Estimate{}
	}
	return out, nil
}

func (r *EstimateDynamoRepository) ListChanges(ctx context.Context, estimateID int64) ([]entities.EstimateChange, error) {
	out := []entities.EstimateChange{}
	var start map[string]types.AttributeValue
	for {
		page, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.changesTable),
			KeyConditionExpression:    aws.String("#eid = :eid"),
			ExpressionAttributeNames:  map[string]string{"#eid": "estimate_id"},
			ExpressionAttributeValues: map[string]types.AttributeValue{":eid": numberValue(estimateID)},
			ScanIndexForward:          aws.Bool(true),
			ExclusiveStartKey:         start,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			var rec changeRecord
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, fmt.Errorf("decode change of estimate %d: %w", estimateID, err)
			}
			out = append(out, entities.EstimateChange{
				ID:         rec.ID,
				EstimateID: rec.EstimateID,
				Input:      rec.Input,
				Snapshot:   fromEstimateRecord(rec.Snapshot),
				CreatedAt:  parseTime(rec.CreatedAt),
			})
		}
		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		start = page.LastEvaluatedKey
	}
}

func (r *EstimateDynamoRepository) nextID(ctx context.Context) (int64, error) {
	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.estimatesTable),
		Key:                       numberKey("id", counterID),
		UpdateExpression:          aws.String("ADD #seq :one"),
		ExpressionAttributeNames:  map[string]string{"#seq": "seq"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":one": numberValue(1)},
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, err
	}
	seq, ok := out.Attributes["seq"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("estimate id sequence missing from update response")
	}
	return strconv.ParseInt(seq.Value, 10, 64)
}

func isConditionFailure(err error) bool {
	var cfe *types.ConditionalCheckFailedException
	if errors.As(err, &cfe) {
		return true
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}

func toEstimateRecord(e entities.Estimate) estimateRecord {
	items := make([]itemRecord, 0, len(e.Items))
	for _, it := range e.Items {
		items = append(items, itemRecord{
			Name:      it.Name,
			Scope:     it.Scope,
			Quantity:  floatToString(it.Quantity),
			Unit:      it.Unit,
			Finish:    it.Finish,
			UnitCost:  floatToString(it.UnitCost),
			TotalCost: floatToString(it.TotalCost),
			Notes:     it.Notes,
		})
	}
	return estimateRecord{
		ID:          e.ID,
		Kind:        estimateKind,
		ProjectName: e.ProjectName,
		Source:      string(e.Source),
		Status:      string(e.Status),
		Subtotal:    floatToString(e.Subtotal),
		Currency:    e.Currency,
		Items:       items,
		Assumptions: e.Assumptions,
		Questions:   e.Questions,
		CreatedAt:   formatTime(e.CreatedAt),
		UpdatedAt:   formatTime(e.UpdatedAt),
	}
}

func fromEstimateRecord(rec estimateRecord) entities.Estimate {
	items := make([]entities.Item, 0, len(rec.Items))
	for _, it := range rec.Items {
		items = append(items, entities.Item{
			Name:      it.Name,
			Scope:     it.Scope,
			Quantity:  parseFloat(it.Quantity),
			Unit:      it.Unit,
			Finish:    it.Finish,
			UnitCost:  parseFloat(it.UnitCost),
			TotalCost: parseFloat(it.TotalCost),
			Notes:     it.Notes,
		})
	}
	return withCollections(entities.Estimate{
		ID:          rec.ID,
		ProjectName: rec.ProjectName,
		Source:      entities.EstimateSource(rec.Source),
		Status:      entities.EstimateStatus(rec.Status),
		Subtotal:    parseFloat(rec.Subtotal),
		Currency:    rec.Currency,
		Items:       items,
		Assumptions: rec.Assumptions,
		Questions:   rec.Questions,
		CreatedAt:   parseTime(rec.CreatedAt),
		UpdatedAt:   parseTime(rec.UpdatedAt),
	})
}

func numberValue(v int64) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}

func numberKey(name string, v int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{name: numberValue(v)}
}

func defaultTable(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
