package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
	TransactionTypeWithdraw TransactionType = "WITHDRAW"
	TransactionTypeTransfer TransactionType = "TRANSFER"
	TransactionTypeExchange TransactionType = "EXCHANGE"
	TransactionTypePayment  TransactionType = "PAYMENT"
)

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusSuccess    TransactionStatus = "SUCCESS"
	TransactionStatusFailed     TransactionStatus = "FAILED"
)

// CanTransitionTo reports whether s -> next is a forward step of
// PENDING -> PROCESSING -> {SUCCESS, FAILED}.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	switch s {
	case TransactionStatusPending:
		return next == TransactionStatusProcessing
	case TransactionStatusProcessing:
		return next == TransactionStatusSuccess || next == TransactionStatusFailed
	default:
		return false
	}
}

// Transaction is an append-only ledger record.
type Transaction struct {
	ID              uuid.UUID         `json:"id"`
	Reference       string            `json:"reference"`
	Type            TransactionType   `json:"type"`
	Status          TransactionStatus `json:"status"`
	Amount          decimal.Decimal   `json:"amount"`
	Fee             decimal.Decimal   `json:"fee"`
	Currency        string            `json:"currency"`
	FromWalletID    *uuid.UUID        `json:"from_wallet_id,omitempty"`
	ToWalletID      *uuid.UUID        `json:"to_wallet_id,omitempty"`
	ExternalAddress *string           `json:"external_address,omitempty"`
	External        bool              `json:"external"`
	TargetCurrency  *string           `json:"target_currency,omitempty"` // EXCHANGE only
	TargetAmount    *decimal.Decimal  `json:"target_amount,omitempty"`   // EXCHANGE only
	SettlementHash  *string           `json:"settlement_hash,omitempty"`
	FailureReason   *string           `json:"failure_reason,omitempty"`
	RetryOf         *uuid.UUID        `json:"retry_of,omitempty"`
	ResolvedBy      *uuid.UUID        `json:"resolved_by,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	ClaimedAt       *time.Time        `json:"claimed_at,omitempty"`
	ProcessedAt     *time.Time        `json:"processed_at,omitempty"`
}

// IsTerminal returns true if the transaction is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusSuccess ||
		t.Status == TransactionStatusFailed
}

// NeedsSettlement reports whether the worker may claim this row.
func (t *Transaction) NeedsSettlement() bool {
	return t.External && t.Status == TransactionStatusPending
}

// IsResolvable reports whether an operator may re-queue or reverse this row.
func (t *Transaction) IsResolvable() bool {
	return t.External &&
		t.Status == TransactionStatusFailed &&
		t.ResolvedBy == nil &&
		t.FromWalletID != nil
}

// Reserved is the total debited from the sender when the intent was created.
func (t *Transaction) Reserved() decimal.Decimal {
	return t.Amount.Add(t.Fee)
}
