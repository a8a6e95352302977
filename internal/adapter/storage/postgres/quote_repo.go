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

const quoteColumns = `id, owner_id, source_currency, target_currency, from_amount, to_amount,
	fee, rate, expires_at, created_at`

// QuoteRepo implements ports.QuoteRepository.
type QuoteRepo struct {
	pool Pool
}

// NewQuoteRepo creates a new QuoteRepo.
func NewQuoteRepo(pool Pool) *QuoteRepo {
	return &QuoteRepo{pool: pool}
}

// Create inserts a swap quote.
func (r *QuoteRepo) Create(ctx context.Context, q *domain.SwapQuote) error {
	query := `INSERT INTO swap_quotes (` + quoteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		q.ID, q.OwnerID, q.SourceCurrency, q.TargetCurrency, q.FromAmount, q.ToAmount,
		q.Fee, q.Rate, q.ExpiresAt, q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert swap quote: %w", err)
	}
	return nil
}

// GetForUpdate locks a quote so it can be consumed exactly once.
func (r *QuoteRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.SwapQuote, error) {
	query := `SELECT ` + quoteColumns + ` FROM swap_quotes WHERE id = $1 FOR UPDATE`

	q := &domain.SwapQuote{}
	err := tx.QueryRow(ctx, query, id).Scan(
		&q.ID, &q.OwnerID, &q.SourceCurrency, &q.TargetCurrency, &q.FromAmount, &q.ToAmount,
		&q.Fee, &q.Rate, &q.ExpiresAt, &q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get swap quote for update: %w", err)
	}
	return q, nil
}

// Delete removes a consumed quote.
func (r *QuoteRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM swap_quotes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete swap quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("swap quote not found: %s", id)
	}
	return nil
}

// DeleteExpired purges quotes that expired before the given time.
func (r *QuoteRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM swap_quotes WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired swap quotes: %w", err)
	}
	return tag.RowsAffected(), nil
}
