package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SwapQuote is a time-boxed, rate-locked exchange offer.
type SwapQuote struct {
	ID             uuid.UUID       `json:"id"`
	OwnerID        uuid.UUID       `json:"owner_id"`
	SourceCurrency string          `json:"source_currency"`
	TargetCurrency string          `json:"target_currency"`
	FromAmount     decimal.Decimal `json:"from_amount"`
	ToAmount       decimal.Decimal `json:"to_amount"`
	Fee            decimal.Decimal `json:"fee"`
	Rate           decimal.Decimal `json:"rate"`
	ExpiresAt      time.Time       `json:"expires_at"`
	CreatedAt      time.Time       `json:"created_at"`
}

// IsExpired reports whether the quote can no longer be settled at now.
func (q *SwapQuote) IsExpired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}

// SourceDebit is what settling the quote takes from the source wallet.
func (q *SwapQuote) SourceDebit() decimal.Decimal {
	return q.FromAmount.Add(q.Fee)
}
