package ports

import (
	"context"
	"time"

	"custodial-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID, currency string) (*domain.Wallet, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Wallet, error)
	// EnsureExists inserts the wallet unless (owner, currency) already has one.
	EnsureExists(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	GetByOwnerForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, currency string) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error
	SetChainAddress(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, address string) error
}

// TransactionRepository defines persistence operations for ledger transactions.
type TransactionRepository interface {
	// Create returns domain.ErrDuplicateReference if the reference is taken.
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transaction, error)
	// MarkResolved stamps resolvedBy on a FAILED row that has none yet.
	MarkResolved(ctx context.Context, tx pgx.Tx, id uuid.UUID, resolvedBy uuid.UUID) (bool, error)

	// Settlement state machine. Each transition is a single conditional
	// update and reports whether this caller won it.
	ListPendingExternal(ctx context.Context, limit int) ([]domain.Transaction, error)
	Claim(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkSucceeded(ctx context.Context, id uuid.UUID, settlementHash string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, at time.Time) (bool, error)
	ListStalled(ctx context.Context, claimedBefore time.Time, limit int) ([]domain.Transaction, error)
}

// KeyRepository defines persistence for encrypted key records.
type KeyRepository interface {
	// Create inserts the record and reports false if an active record for
	// (owner, family) already exists.
	Create(ctx context.Context, record *domain.KeyRecord) (bool, error)
	GetActive(ctx context.Context, ownerID uuid.UUID, family domain.ChainFamily) (*domain.KeyRecord, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.KeyRecord, error)
}

// QuoteRepository defines persistence for swap quotes.
type QuoteRepository interface {
	Create(ctx context.Context, quote *domain.SwapQuote) error
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.SwapQuote, error)
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
