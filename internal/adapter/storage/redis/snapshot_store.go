package redis

import (
	"context"
	"fmt"
	"strings"

	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	snapshotKey         = "ledger:snapshot"
	snapshotRatePrefix  = "rate:"
	snapshotFeePrefix   = "fee:"
	snapshotSwapFeeRate = "swap_fee_rate"
)

// SnapshotStore serves ledger snapshots from a Redis hash so operators can
// change rates and fees without a restart. Fields are "rate:PI/USD",
// "fee:ETH" and "swap_fee_rate". Missing fields fall back to the base source.
type SnapshotStore struct {
	client   *goredis.Client
	fallback ports.SnapshotSource
	log      zerolog.Logger
}

// NewSnapshotStore creates a Redis-backed snapshot source.
func NewSnapshotStore(client *goredis.Client, fallback ports.SnapshotSource, log zerolog.Logger) *SnapshotStore {
	return &SnapshotStore{client: client, fallback: fallback, log: log}
}

// Snapshot merges the Redis overrides over the fallback snapshot. A Redis
// outage degrades to the fallback instead of failing the ledger operation.
func (s *SnapshotStore) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	base, err := s.fallback.Snapshot(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}

	fields, err := s.client.HGetAll(ctx, snapshotKey).Result()
	if err != nil {
		s.log.Warn().Err(err).Msg("snapshot overrides unavailable, using configured values")
		return base, nil
	}
	if len(fields) == 0 {
		return base, nil
	}

	snap := domain.Snapshot{
		NetworkFees: make(map[string]decimal.Decimal, len(base.NetworkFees)),
		Rates:       make(map[string]decimal.Decimal, len(base.Rates)),
		SwapFeeRate: base.SwapFeeRate,
		QuoteTTL:    base.QuoteTTL,
		TakenAt:     base.TakenAt,
	}
	for k, v := range base.NetworkFees {
		snap.NetworkFees[k] = v
	}
	for k, v := range base.Rates {
		snap.Rates[k] = v
	}

	for field, raw := range fields {
		val, err := decimal.NewFromString(raw)
		if err != nil || val.IsNegative() {
			s.log.Warn().Str("field", field).Str("value", raw).Msg("ignoring malformed snapshot override")
			continue
		}
		switch {
		case strings.HasPrefix(field, snapshotRatePrefix):
			snap.Rates[strings.ToUpper(strings.TrimPrefix(field, snapshotRatePrefix))] = val
		case strings.HasPrefix(field, snapshotFeePrefix):
			snap.NetworkFees[strings.ToUpper(strings.TrimPrefix(field, snapshotFeePrefix))] = val
		case field == snapshotSwapFeeRate:
			if val.GreaterThanOrEqual(decimal.NewFromInt(1)) {
				s.log.Warn().Str("field", field).Str("value", raw).Msg("ignoring swap fee rate of 1 or more")
				continue
			}
			snap.SwapFeeRate = val
		}
	}
	return snap, nil
}

// Seed writes the fallback values into the hash for fields that are not set
// yet, so the running configuration is visible and editable in Redis.
func (s *SnapshotStore) Seed(ctx context.Context) error {
	base, err := s.fallback.Snapshot(ctx)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for pair, rate := range base.Rates {
			pipe.HSetNX(ctx, snapshotKey, snapshotRatePrefix+pair, rate.String())
		}
		for currency, fee := range base.NetworkFees {
			pipe.HSetNX(ctx, snapshotKey, snapshotFeePrefix+currency, fee.String())
		}
		pipe.HSetNX(ctx, snapshotKey, snapshotSwapFeeRate, base.SwapFeeRate.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed ledger snapshot: %w", err)
	}
	return nil
}
