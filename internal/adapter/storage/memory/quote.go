package memory

import (
	"context"
	"fmt"
	"time"

	"custodial-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// QuoteRepo implements ports.QuoteRepository.
type QuoteRepo struct {
	s *Store
}

// NewQuoteRepo creates a swap quote repository over s.
func NewQuoteRepo(s *Store) *QuoteRepo {
	return &QuoteRepo{s: s}
}

func (r *QuoteRepo) Create(_ context.Context, q *domain.SwapQuote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.quotes[q.ID]; ok {
		return fmt.Errorf("insert swap quote: duplicate id %s", q.ID)
	}
	r.s.quotes[q.ID] = *q
	return nil
}

func (r *QuoteRepo) GetForUpdate(_ context.Context, tx pgx.Tx, id uuid.UUID) (*domain.SwapQuote, error) {
	t, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}
	if _, gone := t.deleted[id]; gone {
		return nil, nil
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q, ok := r.s.quotes[id]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (r *QuoteRepo) Delete(_ context.Context, tx pgx.Tx, id uuid.UUID) error {
	t, err := asMemTx(tx)
	if err != nil {
		return err
	}
	r.s.mu.RLock()
	_, ok := r.s.quotes[id]
	r.s.mu.RUnlock()
	if _, gone := t.deleted[id]; !ok || gone {
		return fmt.Errorf("swap quote not found: %s", id)
	}
	t.deleted[id] = struct{}{}
	return nil
}

func (r *QuoteRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, q := range r.s.quotes {
		if q.ExpiresAt.Before(before) {
			delete(r.s.quotes, id)
			n++
		}
	}
	return n, nil
}
