package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/domain/domaintest"
	"github.com/aelexs/timekeeper/internal/dynamo"
)

// ---------------------------------------------------------------------------
// Stub: implements stateDynamoDB for unit tests.
// ---------------------------------------------------------------------------

type stubStateDynamo struct {
	getItemFn    func(ctx context.Context, params *dynamo.GetItemInput, optFns ...func(*dynamo.Options)) (*dynamo.GetItemOutput, error)
	putItemFn    func(ctx context.Context, params *dynamo.PutItemInput, optFns ...func(*dynamo.Options)) (*dynamo.PutItemOutput, error)
	deleteItemFn func(ctx context.Context, params *dynamo.DeleteItemInput, optFns ...func(*dynamo.Options)) (*dynamo.DeleteItemOutput, error)
}

func (s *stubStateDynamo) GetItem(ctx context.Context, params *dynamo.GetItemInput, optFns ...func(*dynamo.Options)) (*dynamo.GetItemOutput, error) {
	return s.getItemFn(ctx, params, optFns...)
}

func (s *stubStateDynamo) PutItem(ctx context.Context, params *dynamo.PutItemInput, optFns ...func(*dynamo.Options)) (*dynamo.PutItemOutput, error) {
	return s.putItemFn(ctx, params, optFns...)
}

func (s *stubStateDynamo) DeleteItem(ctx context.Context, params *dynamo.DeleteItemInput, optFns ...func(*dynamo.Options)) (*dynamo.DeleteItemOutput, error) {
	return s.deleteItemFn(ctx, params, optFns...)
}

// Compile-time check: stubStateDynamo satisfies stateDynamoDB.
var _ stateDynamoDB = (*stubStateDynamo)(nil)

const testTable = "timekeeper_state"

func newDynamoStore(stub *stubStateDynamo) *DynamoStore {
	return NewDynamoStore(stub, testTable, domaintest.NewFakeClock(fixedTime()))
}

func TestDynamoStore_Load(t *testing.T) {
	tests := []struct {
		name      string
		getItemFn func(ctx context.Context, params *dynamo.GetItemInput, optFns ...func(*dynamo.Options)) (*dynamo.GetItemOutput, error)
		want      string
		wantErr   error
		errSubstr string
	}{
		{
			name: "found - returns payload",
			getItemFn: func(_ context.Context, params *dynamo.GetItemInput, _ ...func(*dynamo.Options)) (*dynamo.GetItemOutput, error) {
				assert.Equal(t, testTable, *params.TableName)
				require.NotNil(t, params.ConsistentRead)
				assert.True(t, *params.ConsistentRead)
				key, ok := params.Key["state_key"].(*dynamo.AttributeValueMemberS)
				require.True(t, ok)
				assert.Equal(t, domain.TimerStateKey, key.Value)

				item, err := dynamo.MarshalMap(stateItem{
					StateKey:  domain.TimerStateKey,
					Payload:   []byte(`{"remaining_seconds":60}`),
					UpdatedAt: 1,
				})
				require.NoError(t, err)
				return &dynamo.GetItemOutput{Item: item}, nil
			},
			want: `{"remaining_seconds":60}`,
		},
		{
			name: "missing item - returns ErrNotFound",
			getItemFn: func(_ context.Context, _ *dynamo.GetItemInput, _ ...func(*dynamo.Options)) (*dynamo.GetItemOutput, error) {
				return &dynamo.GetItemOutput{}, nil
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "dynamo error - wraps with context",
			getItemFn: func(_ context.Context, _ *dynamo.GetItemInput, _ ...func(*dynamo.Options)) (*dynamo.GetItemOutput, error) {
				return nil, errors.New("connection refused")
			},
			errSubstr: "dynamo store: load \"timer_state\": state store unavailable: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newDynamoStore(&stubStateDynamo{getItemFn: tt.getItemFn})

			got, err := store.Load(context.Background(), domain.TimerStateKey)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errSubstr != "":
				require.ErrorIs(t, err, domain.ErrStoreUnavailable)
				assert.Contains(t, err.Error(), tt.errSubstr)
			default:
				require.NoError(t, err)
				assert.JSONEq(t, tt.want, string(got))
			}
		})
	}
}

func TestDynamoStore_Save(t *testing.T) {
	tests := []struct {
		name      string
		putItemFn func(ctx context.Context, params *dynamo.PutItemInput, optFns ...func(*dynamo.Options)) (*dynamo.PutItemOutput, error)
		errSubstr string
	}{
		{
			name: "success - conditional put stamped with clock",
			putItemFn: func(_ context.Context, params *dynamo.PutItemInput, _ ...func(*dynamo.Options)) (*dynamo.PutItemOutput, error) {
				assert.Equal(t, testTable, *params.TableName)
				require.NotNil(t, params.ConditionExpression)
				assert.Contains(t, *params.ConditionExpression, "attribute_not_exists")
				assert.Contains(t, *params.ConditionExpression, "<=")
				assert.Contains(t, params.Item, "state_key")
				assert.Contains(t, params.Item, "payload")

				var item stateItem
				require.NoError(t, dynamo.UnmarshalMap(params.Item, &item))
				assert.Equal(t, domain.AlarmsStateKey, item.StateKey)
				assert.Equal(t, "[]", string(item.Payload))
				assert.Equal(t, fixedTime().UnixMilli(), item.UpdatedAt)

				var names []string
				for _, n := range params.ExpressionAttributeNames {
					names = append(names, n)
				}
				assert.Equal(t, []string{"updated_at"}, names)
				return &dynamo.PutItemOutput{}, nil
			},
		},
		{
			name: "newer item exists - not an error",
			putItemFn: func(_ context.Context, _ *dynamo.PutItemInput, _ ...func(*dynamo.Options)) (*dynamo.PutItemOutput, error) {
				return nil, dynamo.ErrConditionalCheckFailed()
			},
		},
		{
			name: "dynamo error - wraps with context",
			putItemFn: func(_ context.Context, _ *dynamo.PutItemInput, _ ...func(*dynamo.Options)) (*dynamo.PutItemOutput, error) {
				return nil, errors.New("throttled")
			},
			errSubstr: "dynamo store: save \"alarms_data\": state store unavailable: throttled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newDynamoStore(&stubStateDynamo{putItemFn: tt.putItemFn})

			err := store.Save(context.Background(), domain.AlarmsStateKey, []byte("[]"))

			if tt.errSubstr != "" {
				require.ErrorIs(t, err, domain.ErrStoreUnavailable)
				assert.Contains(t, err.Error(), tt.errSubstr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDynamoStore_Delete(t *testing.T) {
	var gotKey string
	store := newDynamoStore(&stubStateDynamo{
		deleteItemFn: func(_ context.Context, params *dynamo.DeleteItemInput, _ ...func(*dynamo.Options)) (*dynamo.DeleteItemOutput, error) {
			assert.Equal(t, testTable, *params.TableName)
			gotKey = params.Key["state_key"].(*dynamo.AttributeValueMemberS).Value
			return &dynamo.DeleteItemOutput{}, nil
		},
	})

	require.NoError(t, store.Delete(context.Background(), domain.StopwatchStateKey))
	assert.Equal(t, domain.StopwatchStateKey, gotKey)
}

func TestDynamoStore_DeleteError(t *testing.T) {
	store := newDynamoStore(&stubStateDynamo{
		deleteItemFn: func(_ context.Context, _ *dynamo.DeleteItemInput, _ ...func(*dynamo.Options)) (*dynamo.DeleteItemOutput, error) {
			return nil, errors.New("boom")
		},
	})

	err := store.Delete(context.Background(), domain.StopwatchStateKey)
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "dynamo store: delete")
}
