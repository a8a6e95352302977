package dto

import "github.com/shopspring/decimal"

// ProvisionKeyRequest is the request body for key provisioning.
type ProvisionKeyRequest struct {
	OwnerID     string `json:"owner_id" binding:"required,uuid"`
	ChainFamily string `json:"chain_family" binding:"required,oneof=account_ledger evm utxo"`
}

// ProvisionKeyResponse returns the public address of the owner's key.
type ProvisionKeyResponse struct {
	OwnerID     string `json:"owner_id"`
	ChainFamily string `json:"chain_family"`
	Address     string `json:"address"`
}

// DepositRequest credits funds confirmed outside the ledger.
type DepositRequest struct {
	OwnerID   string          `json:"owner_id" binding:"required,uuid"`
	Currency  string          `json:"currency" binding:"required,currency_code"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" binding:"required,reference"`
}

// WithdrawalRequest sends funds to an external address.
type WithdrawalRequest struct {
	OwnerID         string          `json:"owner_id" binding:"required,uuid"`
	Currency        string          `json:"currency" binding:"required,currency_code"`
	Amount          decimal.Decimal `json:"amount"`
	ExternalAddress string          `json:"external_address" binding:"required,max=128"`
	Reference       string          `json:"reference,omitempty" binding:"omitempty,reference"`
}

// TransferRequest moves funds to another owner or an external address.
type TransferRequest struct {
	OwnerID         string          `json:"owner_id" binding:"required,uuid"`
	Currency        string          `json:"currency" binding:"required,currency_code"`
	Amount          decimal.Decimal `json:"amount"`
	ToOwnerID       string          `json:"to_owner_id,omitempty" binding:"omitempty,uuid"`
	ExternalAddress string          `json:"external_address,omitempty" binding:"max=128"`
	Reference       string          `json:"reference,omitempty" binding:"omitempty,reference"`
}

// PaymentRequest debits a purchase settled by a card provider.
type PaymentRequest struct {
	OwnerID   string          `json:"owner_id" binding:"required,uuid"`
	Currency  string          `json:"currency" binding:"required,currency_code"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" binding:"required,reference"`
}

// QuoteRequest asks for a swap quote.
type QuoteRequest struct {
	OwnerID        string          `json:"owner_id" binding:"required,uuid"`
	SourceCurrency string          `json:"source_currency" binding:"required,currency_code"`
	TargetCurrency string          `json:"target_currency" binding:"required,currency_code"`
	FromAmount     decimal.Decimal `json:"from_amount"`
}

// SettleQuoteRequest identifies the owner accepting a quote.
type SettleQuoteRequest struct {
	OwnerID string `json:"owner_id" binding:"required,uuid"`
}

// ResubmitRequest optionally names the reference for the new attempt.
type ResubmitRequest struct {
	Reference string `json:"reference,omitempty" binding:"omitempty,reference"`
}

// RunSettlementsRequest overrides the configured batch size.
type RunSettlementsRequest struct {
	BatchSize int `json:"batch_size" binding:"omitempty,min=1,max=1000"`
}

// TransactionResponse is the response body for ledger records.
type TransactionResponse struct {
	ID              string  `json:"id"`
	Reference       string  `json:"reference"`
	Type            string  `json:"type"`
	Status          string  `json:"status"`
	Amount          string  `json:"amount"`
	Fee             string  `json:"fee"`
	Currency        string  `json:"currency"`
	FromWalletID    *string `json:"from_wallet_id,omitempty"`
	ToWalletID      *string `json:"to_wallet_id,omitempty"`
	ExternalAddress *string `json:"external_address,omitempty"`
	TargetCurrency  *string `json:"target_currency,omitempty"`
	TargetAmount    *string `json:"target_amount,omitempty"`
	SettlementHash  *string `json:"settlement_hash,omitempty"`
	FailureReason   *string `json:"failure_reason,omitempty"`
	RetryOf         *string `json:"retry_of,omitempty"`
	ResolvedBy      *string `json:"resolved_by,omitempty"`
	Replayed        bool    `json:"replayed,omitempty"`
	CreatedAt       string  `json:"created_at"`
	ProcessedAt     *string `json:"processed_at,omitempty"`
}

// QuoteResponse is the response body for a swap quote.
type QuoteResponse struct {
	ID             string `json:"id"`
	OwnerID        string `json:"owner_id"`
	SourceCurrency string `json:"source_currency"`
	TargetCurrency string `json:"target_currency"`
	FromAmount     string `json:"from_amount"`
	ToAmount       string `json:"to_amount"`
	Fee            string `json:"fee"`
	Rate           string `json:"rate"`
	ExpiresAt      string `json:"expires_at"`
}

// WalletResponse is one currency balance of an owner.
type WalletResponse struct {
	ID           string  `json:"id"`
	Currency     string  `json:"currency"`
	Balance      string  `json:"balance"`
	ChainAddress *string `json:"chain_address,omitempty"`
}

// AccountResponse is the response body for an account overview.
type AccountResponse struct {
	OwnerID string            `json:"owner_id"`
	Wallets []WalletResponse  `json:"wallets"`
	Keys    map[string]string `json:"keys"`
}

// FeeEstimateResponse is the adapter's current network fee for a currency.
type FeeEstimateResponse struct {
	Currency string `json:"currency"`
	Fee      string `json:"fee"`
}
