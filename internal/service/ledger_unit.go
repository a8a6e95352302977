package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// walletRef names a wallet by its unique (owner, currency) pair.
type walletRef struct {
	owner    uuid.UUID
	currency string
}

// ledgerUnit is one atomic unit of balance mutations. Balances are changed
// on the locked rows in memory and written back by flush, so a failure
// before commit leaves nothing behind.
type ledgerUnit struct {
	tx      pgx.Tx
	wallets map[walletRef]*domain.Wallet
	dirty   map[uuid.UUID]*domain.Wallet
}

// Debit takes amount from the wallet. A missing wallet has a zero balance.
func (u *ledgerUnit) Debit(ref walletRef, amount decimal.Decimal) (*domain.Wallet, error) {
	w, ok := u.wallets[ref]
	if !ok || w == nil || !w.CanDebit(amount) {
		return nil, apperror.ErrInsufficientFunds()
	}
	w.Balance = w.Balance.Sub(amount)
	u.dirty[w.ID] = w
	return w, nil
}

// Credit adds amount to the wallet, which lockWallets has created if needed.
func (u *ledgerUnit) Credit(ref walletRef, amount decimal.Decimal) (*domain.Wallet, error) {
	w, ok := u.wallets[ref]
	if !ok || w == nil {
		return nil, fmt.Errorf("credit: wallet %s/%s not locked", ref.owner, ref.currency)
	}
	w.Balance = w.Balance.Add(amount)
	u.dirty[w.ID] = w
	return w, nil
}

// begin opens a unit and row-locks the wallets in refs. Wallets listed in
// create are inserted at zero balance when missing. Existing rows are locked
// in ascending id order so two units touching the same pair of wallets
// cannot deadlock; rows inserted by this unit are already locked.
func (s *LedgerServiceImpl) begin(ctx context.Context, refs []walletRef, create map[walletRef]bool) (*ledgerUnit, error) {
	type target struct {
		ref walletRef
		id  uuid.UUID
	}

	var existing []target
	var missing []walletRef
	seen := make(map[walletRef]bool, len(refs))
	for _, ref := range refs {
		if seen[ref] {
			continue
		}
		seen[ref] = true

		w, err := s.walletRepo.GetByOwner(ctx, ref.owner, ref.currency)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("find wallet: %w", err))
		}
		if w != nil {
			existing = append(existing, target{ref: ref, id: w.ID})
		} else {
			missing = append(missing, ref)
		}
	}
	sort.Slice(existing, func(i, j int) bool {
		return bytes.Compare(existing[i].id[:], existing[j].id[:]) < 0
	})

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	u := &ledgerUnit{
		tx:      dbTx,
		wallets: make(map[walletRef]*domain.Wallet, len(seen)),
		dirty:   make(map[uuid.UUID]*domain.Wallet),
	}

	fail := func(err error) (*ledgerUnit, error) {
		dbTx.Rollback(ctx) //nolint:errcheck
		return nil, err
	}

	for _, t := range existing {
		w, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, t.id)
		if err != nil {
			return fail(apperror.InternalError(fmt.Errorf("lock wallet: %w", err)))
		}
		u.wallets[t.ref] = w
	}

	for _, ref := range missing {
		if create[ref] {
			nw, err := s.newWallet(ctx, ref)
			if err != nil {
				return fail(err)
			}
			if err := s.walletRepo.EnsureExists(ctx, dbTx, nw); err != nil {
				return fail(apperror.InternalError(fmt.Errorf("create wallet: %w", err)))
			}
		}
		w, err := s.walletRepo.GetByOwnerForUpdate(ctx, dbTx, ref.owner, ref.currency)
		if err != nil {
			return fail(apperror.InternalError(fmt.Errorf("lock wallet: %w", err)))
		}
		u.wallets[ref] = w
	}
	return u, nil
}

// newWallet builds a zero-balance wallet, carrying the owner's chain address
// when a key for the currency's family is already provisioned.
func (s *LedgerServiceImpl) newWallet(ctx context.Context, ref walletRef) (*domain.Wallet, error) {
	w := domain.NewWallet(ref.owner, ref.currency, s.now())
	cur, ok := s.catalogue.Lookup(ref.currency)
	if !ok || !cur.OnChain() {
		return w, nil
	}
	rec, err := s.keyRepo.GetActive(ctx, ref.owner, cur.Family)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get key record: %w", err))
	}
	if rec != nil {
		addr := rec.PublicAddress
		w.ChainAddress = &addr
	}
	return w, nil
}

// flush writes every changed balance back to the locked rows.
func (s *LedgerServiceImpl) flush(ctx context.Context, u *ledgerUnit) error {
	ids := make([]uuid.UUID, 0, len(u.dirty))
	for id := range u.dirty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

	for _, id := range ids {
		w := u.dirty[id]
		if w.Balance.IsNegative() {
			return apperror.ErrInsufficientFunds()
		}
		if err := s.walletRepo.UpdateBalance(ctx, u.tx, id, w.Balance); err != nil {
			return apperror.InternalError(fmt.Errorf("update balance: %w", err))
		}
	}
	return nil
}

// RecordTransaction inserts the audit row of the unit. A reference that is
// already recorded surfaces as domain.ErrDuplicateReference.
func (s *LedgerServiceImpl) RecordTransaction(ctx context.Context, u *ledgerUnit, txn *domain.Transaction) error {
	if err := s.txRepo.Create(ctx, u.tx, txn); err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			return domain.ErrDuplicateReference
		}
		return apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}
	return nil
}

// commit flushes balances and commits the unit.
func (s *LedgerServiceImpl) commit(ctx context.Context, u *ledgerUnit) error {
	if err := s.flush(ctx, u); err != nil {
		return err
	}
	if err := u.tx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// replay looks a reference up in the cache and then the database. It
// returns nil when the reference is unused.
func (s *LedgerServiceImpl) replay(ctx context.Context, reference string) (*domain.Transaction, error) {
	key := domain.BuildReferenceKey(reference)

	cached, err := s.idempCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		if id, err := uuid.ParseBytes(cached); err == nil {
			txn, err := s.txRepo.GetByID(ctx, id)
			if err != nil {
				return nil, apperror.InternalError(fmt.Errorf("get cached transaction: %w", err))
			}
			if txn != nil {
				return txn, nil
			}
		}
	}

	txn, err := s.txRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	return txn, nil
}

// remember caches reference -> transaction id. Failures only cost the fast path.
func (s *LedgerServiceImpl) remember(ctx context.Context, txn *domain.Transaction) {
	key := domain.BuildReferenceKey(txn.Reference)
	if err := s.idempCache.Set(ctx, key, []byte(txn.ID.String()), idempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache idempotency in redis")
	}
}

// replayed turns an existing row into a result, refusing a reference that
// was consumed by a different kind of operation.
func replayed(existing *domain.Transaction, want domain.TransactionType) (*ports.LedgerResult, error) {
	if existing.Type != want {
		return nil, apperror.ErrDuplicateReference()
	}
	return &ports.LedgerResult{Transaction: existing, Replayed: true}, nil
}

const idempotencyTTL = 24 * time.Hour
