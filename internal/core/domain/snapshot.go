package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is an immutable view of fee and rate settings taken once per
// ledger operation.
type Snapshot struct {
	NetworkFees map[string]decimal.Decimal `json:"network_fees"`
	Rates       map[string]decimal.Decimal `json:"rates"` // "SRC/DST" -> units of DST per SRC
	SwapFeeRate decimal.Decimal            `json:"swap_fee_rate"`
	QuoteTTL    time.Duration              `json:"quote_ttl"`
	TakenAt     time.Time                  `json:"taken_at"`
}

// RateKey builds the map key for a currency pair.
func RateKey(source, target string) string {
	return source + "/" + target
}

// NetworkFee returns the flat network fee charged for sends in currency.
func (s Snapshot) NetworkFee(currency string) decimal.Decimal {
	if fee, ok := s.NetworkFees[currency]; ok {
		return fee
	}
	return decimal.Zero
}

// Rate returns target units per source unit, using the inverse pair
// when only that one is configured.
func (s Snapshot) Rate(source, target string) (decimal.Decimal, bool) {
	if r, ok := s.Rates[RateKey(source, target)]; ok && r.IsPositive() {
		return r, true
	}
	if r, ok := s.Rates[RateKey(target, source)]; ok && r.IsPositive() {
		return decimal.NewFromInt(1).DivRound(r, 18), true
	}
	return decimal.Zero, false
}
