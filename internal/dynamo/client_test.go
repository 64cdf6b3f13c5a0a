package dynamo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/timekeeper/internal/dynamo"
)

func TestNewClientWithEndpoint(t *testing.T) {
	ctx := context.Background()

	client, err := dynamo.NewClient(ctx, dynamo.Config{
		Endpoint: "http://localhost:4566",
		Region:   "us-east-2",
		Timeout:  5 * time.Second,
	})

	require.NoError(t, err)
	require.NotNil(t, client)
	require.NotNil(t, client.DB)
}

func TestNewClientWithDefaultEndpoint(t *testing.T) {
	ctx := context.Background()

	client, err := dynamo.NewClient(ctx, dynamo.Config{
		Region:  "us-east-2",
		Timeout: 5 * time.Second,
	})

	require.NoError(t, err)
	require.NotNil(t, client)
	require.NotNil(t, client.DB)
}

func TestNewerThanCondition(t *testing.T) {
	expr, err := dynamo.NewerThanCondition("updated_at", 1700000000000)

	require.NoError(t, err)
	require.NotNil(t, expr.Condition())
	assert.Contains(t, *expr.Condition(), "attribute_not_exists")
	assert.Len(t, expr.Names(), 1)
	assert.Len(t, expr.Values(), 1)
}

func TestIsConditionalCheckFailed(t *testing.T) {
	assert.True(t, dynamo.IsConditionalCheckFailed(dynamo.ErrConditionalCheckFailed()))
	assert.True(t, dynamo.IsConditionalCheckFailed(
		errors.Join(errors.New("put"), dynamo.ErrConditionalCheckFailed())))
	assert.False(t, dynamo.IsConditionalCheckFailed(errors.New("other")))
}

func TestIsResourceNotFound(t *testing.T) {
	assert.False(t, dynamo.IsResourceNotFound(errors.New("other")))
	assert.False(t, dynamo.IsResourceNotFound(dynamo.ErrConditionalCheckFailed()))
}
