package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyCache_GetSetExpiry(t *testing.T) {
	c := NewIdempotencyCache()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	got, err := c.Get(ctx, "ref:a")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, "ref:a", []byte("tx-1"), time.Minute))
	got, err = c.Get(ctx, "ref:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("tx-1"), got)

	now = now.Add(time.Minute)
	got, err = c.Get(ctx, "ref:a")
	require.NoError(t, err)
	assert.Nil(t, got)
}
