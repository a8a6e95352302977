package ports

import (
	"context"
	"time"

	"custodial-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EncryptionService seals key material with an authenticated cipher.
// binding is authenticated but not encrypted.
type EncryptionService interface {
	Seal(plaintext []byte, binding string) (string, error)
	Open(blob string, binding string) ([]byte, error)
}

// TokenService handles service token operations.
type TokenService interface {
	Generate(subject string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject string
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// SnapshotSource yields the fee and rate snapshot for one ledger operation.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}

// --- Service Ports (Business Logic) ---

// CustodyService generates and guards per-chain signing keys.
type CustodyService interface {
	ProvisionKey(ctx context.Context, ownerID uuid.UUID, family domain.ChainFamily) (string, error)
	SignTransfer(ctx context.Context, ownerID uuid.UUID, family domain.ChainFamily, unsigned *UnsignedTransfer, signer Signer) (*SignedTransfer, error)
}

// LedgerService is the Ledger Engine API.
type LedgerService interface {
	CreateDeposit(ctx context.Context, req DepositRequest) (*LedgerResult, error)
	CreateWithdrawal(ctx context.Context, req WithdrawalRequest) (*LedgerResult, error)
	CreateTransfer(ctx context.Context, req TransferRequest) (*LedgerResult, error)
	CreatePayment(ctx context.Context, req PaymentRequest) (*LedgerResult, error)
	RequestSwapQuote(ctx context.Context, req QuoteRequest) (*domain.SwapQuote, error)
	SettleSwapQuote(ctx context.Context, quoteID, ownerID uuid.UUID) (*domain.Transaction, error)
	ResubmitFailed(ctx context.Context, txID uuid.UUID, reference string) (*domain.Transaction, error)
	ReverseFailed(ctx context.Context, txID uuid.UUID) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
}

// LedgerResult is a recorded transaction; Replayed is set when the
// reference had already been applied and nothing changed.
type LedgerResult struct {
	Transaction *domain.Transaction
	Replayed    bool
}

// DepositRequest credits funds confirmed on an external network or by a provider.
type DepositRequest struct {
	OwnerID   uuid.UUID
	Currency  string
	Amount    decimal.Decimal
	Reference string // chain tx hash or provider payment id
}

// WithdrawalRequest sends funds to an external address.
type WithdrawalRequest struct {
	OwnerID         uuid.UUID
	Currency        string
	Amount          decimal.Decimal
	ExternalAddress string
	Reference       string // optional
}

// TransferRequest moves funds to another owner or an external address.
// Exactly one of ToOwnerID and ExternalAddress is set.
type TransferRequest struct {
	OwnerID         uuid.UUID
	Currency        string
	Amount          decimal.Decimal
	ToOwnerID       *uuid.UUID
	ExternalAddress string
	Reference       string // optional
}

// PaymentRequest debits a card purchase settled by an external provider.
type PaymentRequest struct {
	OwnerID   uuid.UUID
	Currency  string
	Amount    decimal.Decimal
	Reference string
}

// QuoteRequest asks for a swap quote.
type QuoteRequest struct {
	OwnerID        uuid.UUID
	SourceCurrency string
	TargetCurrency string
	FromAmount     decimal.Decimal
}

// ReportingService serves read models to the CRUD layer and operators.
type ReportingService interface {
	AccountOverview(ctx context.Context, ownerID uuid.UUID) (*domain.AccountOverview, error)
	ListStalled(ctx context.Context, limit int) ([]domain.Transaction, error)
}

// SettlementService drives external sends to a terminal state.
type SettlementService interface {
	ProcessPendingSettlements(ctx context.Context, batchSize int) (*domain.SettlementReport, error)
}
