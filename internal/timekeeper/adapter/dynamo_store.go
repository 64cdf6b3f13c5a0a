package adapter

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/dynamo"
	"github.com/aelexs/timekeeper/internal/timekeeper/app"
)

// stateDynamoDB is a narrow, consumer-defined interface for the DynamoDB
// operations the state store needs. The *dynamodb.Client satisfies it, and
// test stubs implement it directly.
type stateDynamoDB interface {
	GetItem(ctx context.Context, params *dynamo.GetItemInput, optFns ...func(*dynamo.Options)) (*dynamo.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamo.PutItemInput, optFns ...func(*dynamo.Options)) (*dynamo.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamo.DeleteItemInput, optFns ...func(*dynamo.Options)) (*dynamo.DeleteItemOutput, error)
}

// stateItem is the DynamoDB item shape for the state table.
type stateItem struct {
	StateKey  string `dynamodbav:"state_key"`
	Payload   []byte `dynamodbav:"payload"`
	UpdatedAt int64  `dynamodbav:"updated_at"`
}

var _ app.StateStore = (*DynamoStore)(nil)

// DynamoStore persists records in a DynamoDB table keyed by state_key.
// Writes are last-writer-wins on updated_at: a put never replaces an item
// stamped later than itself.
type DynamoStore struct {
	db        stateDynamoDB
	tableName string
	clock     domain.Clock
}

// NewDynamoStore creates a DynamoStore backed by the given DynamoDB client.
func NewDynamoStore(db stateDynamoDB, tableName string, clock domain.Clock) *DynamoStore {
	return &DynamoStore{db: db, tableName: tableName, clock: clock}
}

// Load returns the payload stored under key using a strongly consistent read.
func (s *DynamoStore) Load(ctx context.Context, key string) ([]byte, error) {
	ctx, span := s.startSpan(ctx, "dynamodb.state.load", "GetItem")
	defer span.End()

	out, err := s.db.GetItem(ctx, &dynamo.GetItemInput{
		TableName:      &s.tableName,
		Key:            s.keyAttr(key),
		ConsistentRead: dynamo.Bool(true),
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("dynamo store: load %q: %w: %w", key, domain.ErrStoreUnavailable, err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("dynamo store: load %q: %w", key, domain.ErrNotFound)
	}

	var item stateItem
	if err := dynamo.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("dynamo store: unmarshal %q: %w", key, err)
	}
	return item.Payload, nil
}

// Save writes the payload under key. A conditional check failure means a
// newer write already landed and is not reported as an error.
func (s *DynamoStore) Save(ctx context.Context, key string, value []byte) error {
	ctx, span := s.startSpan(ctx, "dynamodb.state.save", "PutItem")
	defer span.End()

	now := domain.NowUTCMillis(s.clock)
	av, err := dynamo.MarshalMap(stateItem{StateKey: key, Payload: value, UpdatedAt: now})
	if err != nil {
		return fmt.Errorf("dynamo store: marshal %q: %w", key, err)
	}

	expr, err := dynamo.NewerThanCondition("updated_at", now)
	if err != nil {
		return fmt.Errorf("dynamo store: build condition: %w", err)
	}

	_, err = s.db.PutItem(ctx, &dynamo.PutItemInput{
		TableName:                 &s.tableName,
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if dynamo.IsConditionalCheckFailed(err) {
			span.SetAttributes(attribute.Bool("timekeeper.superseded", true))
			return nil
		}
		recordSpanError(span, err)
		return fmt.Errorf("dynamo store: save %q: %w: %w", key, domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *DynamoStore) Delete(ctx context.Context, key string) error {
	ctx, span := s.startSpan(ctx, "dynamodb.state.delete", "DeleteItem")
	defer span.End()

	_, err := s.db.DeleteItem(ctx, &dynamo.DeleteItemInput{
		TableName: &s.tableName,
		Key:       s.keyAttr(key),
	})
	if err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("dynamo store: delete %q: %w: %w", key, domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *DynamoStore) keyAttr(key string) map[string]dynamo.AttributeValue {
	return map[string]dynamo.AttributeValue{
		"state_key": &dynamo.AttributeValueMemberS{Value: key},
	}
}

func (s *DynamoStore) startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)
	span.SetAttributes(
		attribute.String("db.system", "dynamodb"),
		attribute.String("db.operation", op),
		attribute.String("aws.dynamodb.table_names", s.tableName),
	)
	return ctx, span
}
