package service

import (
	"context"
	"fmt"
	"time"

	"custodial-wallet/internal/core/domain"

	"github.com/shopspring/decimal"
)

// StaticSnapshotSource serves the fee and rate values fixed at startup.
type StaticSnapshotSource struct {
	fees        map[string]decimal.Decimal
	rates       map[string]decimal.Decimal
	swapFeeRate decimal.Decimal
	quoteTTL    time.Duration
}

// NewStaticSnapshotSource parses configured values. fees is keyed by
// currency code, rates by "SRC/DST".
func NewStaticSnapshotSource(fees, rates map[string]string, swapFeeRate string, quoteTTL time.Duration) (*StaticSnapshotSource, error) {
	s := &StaticSnapshotSource{
		fees:     make(map[string]decimal.Decimal, len(fees)),
		rates:    make(map[string]decimal.Decimal, len(rates)),
		quoteTTL: quoteTTL,
	}
	if quoteTTL <= 0 {
		return nil, fmt.Errorf("quote ttl must be positive")
	}

	for code, raw := range fees {
		if raw == "" {
			continue
		}
		fee, err := decimal.NewFromString(raw)
		if err != nil || fee.IsNegative() {
			return nil, fmt.Errorf("invalid network fee %q for %s", raw, code)
		}
		s.fees[code] = fee
	}
	for pair, raw := range rates {
		rate, err := decimal.NewFromString(raw)
		if err != nil || !rate.IsPositive() {
			return nil, fmt.Errorf("invalid rate %q for %s", raw, pair)
		}
		s.rates[pair] = rate
	}

	rate, err := decimal.NewFromString(swapFeeRate)
	if err != nil || rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("invalid swap fee rate %q", swapFeeRate)
	}
	s.swapFeeRate = rate
	return s, nil
}

// Snapshot returns a copy of the configured values.
func (s *StaticSnapshotSource) Snapshot(context.Context) (domain.Snapshot, error) {
	snap := domain.Snapshot{
		NetworkFees: make(map[string]decimal.Decimal, len(s.fees)),
		Rates:       make(map[string]decimal.Decimal, len(s.rates)),
		SwapFeeRate: s.swapFeeRate,
		QuoteTTL:    s.quoteTTL,
		TakenAt:     time.Now().UTC(),
	}
	for k, v := range s.fees {
		snap.NetworkFees[k] = v
	}
	for k, v := range s.rates {
		snap.Rates[k] = v
	}
	return snap, nil
}
