package memory

import (
	"context"
	"sort"
	"time"

	"custodial-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	s *Store
}

// NewTransactionRepo creates a ledger transaction repository over s.
func NewTransactionRepo(s *Store) *TransactionRepo {
	return &TransactionRepo{s: s}
}

func (r *TransactionRepo) Create(_ context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	t, err := asMemTx(tx)
	if err != nil {
		return err
	}
	if _, ok := t.refs[txn.Reference]; ok {
		return domain.ErrDuplicateReference
	}
	r.s.mu.RLock()
	_, taken := r.s.refs[txn.Reference]
	r.s.mu.RUnlock()
	if taken {
		return domain.ErrDuplicateReference
	}

	t.created[txn.ID] = *txn
	t.order = append(t.order, txn.ID)
	t.refs[txn.Reference] = txn.ID
	return nil
}

func (r *TransactionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	txn, ok := r.s.txns[id]
	if !ok {
		return nil, nil
	}
	return &txn, nil
}

func (r *TransactionRepo) GetByReference(_ context.Context, reference string) (*domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.refs[reference]
	if !ok {
		return nil, nil
	}
	txn := r.s.txns[id]
	return &txn, nil
}

func (r *TransactionRepo) GetByIDForUpdate(_ context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transaction, error) {
	t, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}
	if txn, ok := t.created[id]; ok {
		return &txn, nil
	}

	r.s.mu.RLock()
	txn, ok := r.s.txns[id]
	r.s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if by, staged := t.resolved[id]; staged {
		resolvedBy := by
		txn.ResolvedBy = &resolvedBy
	}
	return &txn, nil
}

func (r *TransactionRepo) MarkResolved(_ context.Context, tx pgx.Tx, id uuid.UUID, resolvedBy uuid.UUID) (bool, error) {
	t, err := asMemTx(tx)
	if err != nil {
		return false, err
	}
	if _, staged := t.resolved[id]; staged {
		return false, nil
	}

	r.s.mu.RLock()
	txn, ok := r.s.txns[id]
	r.s.mu.RUnlock()
	if !ok || txn.Status != domain.TransactionStatusFailed || txn.ResolvedBy != nil {
		return false, nil
	}
	t.resolved[id] = resolvedBy
	return true, nil
}

func (r *TransactionRepo) ListPendingExternal(_ context.Context, limit int) ([]domain.Transaction, error) {
	return r.list(limit, func(txn domain.Transaction) bool {
		return txn.Status == domain.TransactionStatusPending && txn.External
	}, func(a, b domain.Transaction) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	}), nil
}

func (r *TransactionRepo) Claim(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.transition(id, domain.TransactionStatusPending, func(txn *domain.Transaction) bool {
		if !txn.External {
			return false
		}
		txn.Status = domain.TransactionStatusProcessing
		txn.ClaimedAt = &at
		return true
	}), nil
}

func (r *TransactionRepo) MarkSucceeded(_ context.Context, id uuid.UUID, settlementHash string, at time.Time) (bool, error) {
	return r.transition(id, domain.TransactionStatusProcessing, func(txn *domain.Transaction) bool {
		txn.Status = domain.TransactionStatusSuccess
		txn.SettlementHash = &settlementHash
		txn.ProcessedAt = &at
		return true
	}), nil
}

func (r *TransactionRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string, at time.Time) (bool, error) {
	return r.transition(id, domain.TransactionStatusProcessing, func(txn *domain.Transaction) bool {
		txn.Status = domain.TransactionStatusFailed
		txn.FailureReason = &reason
		txn.ProcessedAt = &at
		return true
	}), nil
}

func (r *TransactionRepo) ListStalled(_ context.Context, claimedBefore time.Time, limit int) ([]domain.Transaction, error) {
	return r.list(limit, func(txn domain.Transaction) bool {
		return txn.Status == domain.TransactionStatusProcessing &&
			txn.ClaimedAt != nil && txn.ClaimedAt.Before(claimedBefore)
	}, func(a, b domain.Transaction) bool {
		return a.ClaimedAt.Before(*b.ClaimedAt)
	}), nil
}

// transition applies fn to the row when it is in status from. It is the
// compare-and-set the settlement worker relies on.
func (r *TransactionRepo) transition(id uuid.UUID, from domain.TransactionStatus, fn func(*domain.Transaction) bool) bool {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	txn, ok := r.s.txns[id]
	if !ok || txn.Status != from {
		return false
	}
	if !fn(&txn) {
		return false
	}
	r.s.txns[id] = txn
	return true
}

func (r *TransactionRepo) list(limit int, keep func(domain.Transaction) bool, less func(a, b domain.Transaction) bool) []domain.Transaction {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.Transaction
	for _, txn := range r.s.txns {
		if keep(txn) {
			out = append(out, txn)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if less(out[i], out[j]) {
			return true
		}
		if less(out[j], out[i]) {
			return false
		}
		return r.s.txnSeq[out[i].ID] < r.s.txnSeq[out[j].ID]
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
