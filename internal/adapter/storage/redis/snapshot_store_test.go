package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"custodial-wallet/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSnapshot struct {
	snap domain.Snapshot
	err  error
}

func (f fixedSnapshot) Snapshot(context.Context) (domain.Snapshot, error) {
	return f.snap, f.err
}

func baseSnapshot() domain.Snapshot {
	return domain.Snapshot{
		NetworkFees: map[string]decimal.Decimal{"PI": decimal.NewFromInt(1)},
		Rates:       map[string]decimal.Decimal{"PI/USD": decimal.NewFromInt(314159)},
		SwapFeeRate: decimal.RequireFromString("0.005"),
		QuoteTTL:    time.Minute,
	}
}

func TestSnapshotStore_FallbackWhenEmpty(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewSnapshotStore(client, fixedSnapshot{snap: baseSnapshot()}, zerolog.Nop())

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(314159).Equal(snap.Rates["PI/USD"]))
	assert.True(t, decimal.NewFromInt(1).Equal(snap.NetworkFee("PI")))
}

func TestSnapshotStore_Overrides(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	base := baseSnapshot()
	store := NewSnapshotStore(client, fixedSnapshot{snap: base}, zerolog.Nop())

	s.HSet(snapshotKey, "rate:pi/usd", "300000")
	s.HSet(snapshotKey, "fee:ETH", "0.001")
	s.HSet(snapshotKey, "swap_fee_rate", "0.01")
	s.HSet(snapshotKey, "fee:BTC", "not-a-number")

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(300000).Equal(snap.Rates["PI/USD"]))
	assert.True(t, decimal.RequireFromString("0.001").Equal(snap.NetworkFee("ETH")))
	assert.True(t, decimal.NewFromInt(1).Equal(snap.NetworkFee("PI")))
	assert.True(t, snap.NetworkFee("BTC").IsZero())
	assert.True(t, decimal.RequireFromString("0.01").Equal(snap.SwapFeeRate))
	assert.Equal(t, time.Minute, snap.QuoteTTL)

	// the fallback maps are not mutated
	assert.True(t, decimal.NewFromInt(314159).Equal(base.Rates["PI/USD"]))
}

func TestSnapshotStore_SwapFeeRateMustStayBelowOne(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewSnapshotStore(client, fixedSnapshot{snap: baseSnapshot()}, zerolog.Nop())

	for _, raw := range []string{"5", "1", "-0.1"} {
		s.HSet(snapshotKey, "swap_fee_rate", raw)
		snap, err := store.Snapshot(context.Background())
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("0.005").Equal(snap.SwapFeeRate), "override %s", raw)
	}

	s.HSet(snapshotKey, "swap_fee_rate", "0.999")
	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.999").Equal(snap.SwapFeeRate))
}

func TestSnapshotStore_RedisDownUsesFallback(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr(), MaxRetries: -1})
	store := NewSnapshotStore(client, fixedSnapshot{snap: baseSnapshot()}, zerolog.Nop())
	s.Close()

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(314159).Equal(snap.Rates["PI/USD"]))
}

func TestSnapshotStore_FallbackError(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewSnapshotStore(client, fixedSnapshot{err: errors.New("bad config")}, zerolog.Nop())

	_, err := store.Snapshot(context.Background())
	assert.Error(t, err)
}

func TestSnapshotStore_SeedKeepsExistingFields(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewSnapshotStore(client, fixedSnapshot{snap: baseSnapshot()}, zerolog.Nop())

	s.HSet(snapshotKey, "rate:PI/USD", "1")

	require.NoError(t, store.Seed(context.Background()))

	assert.Equal(t, "1", s.HGet(snapshotKey, "rate:PI/USD"))
	assert.Equal(t, "1", s.HGet(snapshotKey, "fee:PI"))
	assert.Equal(t, "0.005", s.HGet(snapshotKey, "swap_fee_rate"))
}
