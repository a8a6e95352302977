package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"custodial-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, reference, type, status, amount, fee, currency,
	from_wallet_id, to_wallet_id, external_address, external, target_currency, target_amount,
	settlement_hash, failure_reason, retry_of, resolved_by, created_at, claimed_at, processed_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a ledger transaction within a database transaction. A
// reference that is already recorded yields domain.ErrDuplicateReference.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO ledger_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (reference) DO NOTHING`

	tag, err := tx.Exec(ctx, query,
		t.ID, t.Reference, t.Type, t.Status, t.Amount, t.Fee, t.Currency,
		t.FromWalletID, t.ToWalletID, t.ExternalAddress, t.External, t.TargetCurrency, t.TargetAmount,
		t.SettlementHash, t.FailureReason, t.RetryOf, t.ResolvedBy, t.CreatedAt, t.ClaimedAt, t.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateReference
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions WHERE id = $1`

	t, err := scanTransaction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

// GetByReference fetches a transaction by its unique reference.
func (r *TransactionRepo) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions WHERE reference = $1`

	t, err := scanTransaction(r.pool.QueryRow(ctx, query, reference))
	if err != nil {
		return nil, fmt.Errorf("get transaction by reference: %w", err)
	}
	return t, nil
}

// GetByIDForUpdate fetches a transaction by UUID with pessimistic locking.
func (r *TransactionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions WHERE id = $1 FOR UPDATE`

	t, err := scanTransaction(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get transaction for update: %w", err)
	}
	return t, nil
}

// MarkResolved stamps the transaction that re-queued or reversed a failed send.
func (r *TransactionRepo) MarkResolved(ctx context.Context, tx pgx.Tx, id uuid.UUID, resolvedBy uuid.UUID) (bool, error) {
	query := `UPDATE ledger_transactions SET resolved_by = $2
		WHERE id = $1 AND status = 'FAILED' AND resolved_by IS NULL`

	tag, err := tx.Exec(ctx, query, id, resolvedBy)
	if err != nil {
		return false, fmt.Errorf("mark transaction resolved: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListPendingExternal returns the oldest unclaimed external sends.
func (r *TransactionRepo) ListPendingExternal(ctx context.Context, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions
		WHERE status = 'PENDING' AND external
		ORDER BY created_at
		LIMIT $1`

	return r.list(ctx, "list pending external", query, limit)
}

// Claim moves a PENDING external row to PROCESSING. Only one caller can win.
func (r *TransactionRepo) Claim(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `UPDATE ledger_transactions SET status = 'PROCESSING', claimed_at = $2
		WHERE id = $1 AND status = 'PENDING' AND external`

	tag, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return false, fmt.Errorf("claim transaction: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkSucceeded moves a PROCESSING row to SUCCESS with its on-chain id.
func (r *TransactionRepo) MarkSucceeded(ctx context.Context, id uuid.UUID, settlementHash string, at time.Time) (bool, error) {
	query := `UPDATE ledger_transactions SET status = 'SUCCESS', settlement_hash = $2, processed_at = $3
		WHERE id = $1 AND status = 'PROCESSING'`

	tag, err := r.pool.Exec(ctx, query, id, settlementHash, at)
	if err != nil {
		return false, fmt.Errorf("mark transaction succeeded: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkFailed moves a PROCESSING row to FAILED with the reason.
func (r *TransactionRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string, at time.Time) (bool, error) {
	query := `UPDATE ledger_transactions SET status = 'FAILED', failure_reason = $2, processed_at = $3
		WHERE id = $1 AND status = 'PROCESSING'`

	tag, err := r.pool.Exec(ctx, query, id, reason, at)
	if err != nil {
		return false, fmt.Errorf("mark transaction failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListStalled returns rows claimed before claimedBefore that never finished.
func (r *TransactionRepo) ListStalled(ctx context.Context, claimedBefore time.Time, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions
		WHERE status = 'PROCESSING' AND claimed_at < $1
		ORDER BY claimed_at
		LIMIT $2`

	return r.list(ctx, "list stalled", query, claimedBefore, limit)
}

func (r *TransactionRepo) list(ctx context.Context, op, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransactionFields(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t, err := scanTransactionFields(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func scanTransactionFields(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.Reference, &t.Type, &t.Status, &t.Amount, &t.Fee, &t.Currency,
		&t.FromWalletID, &t.ToWalletID, &t.ExternalAddress, &t.External, &t.TargetCurrency, &t.TargetAmount,
		&t.SettlementHash, &t.FailureReason, &t.RetryOf, &t.ResolvedBy, &t.CreatedAt, &t.ClaimedAt, &t.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}
