// Package memory is an in-process implementation of the repository ports.
// Write transactions are serialised by a single lock, which gives the same
// outcomes as row locks at READ COMMITTED for the ledger's access patterns.
package memory

import (
	"context"
	"errors"
	"sync"

	"custodial-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var errForeignTx = errors.New("memory: transaction was not started by this store")

type walletKey struct {
	owner    uuid.UUID
	currency string
}

// Store holds committed state. Reads outside a transaction see only
// committed data.
type Store struct {
	mu sync.RWMutex

	wallets     map[uuid.UUID]domain.Wallet
	walletIndex map[walletKey]uuid.UUID
	txns        map[uuid.UUID]domain.Transaction
	txnSeq      map[uuid.UUID]int64
	refs        map[string]uuid.UUID
	keys        map[uuid.UUID]domain.KeyRecord
	quotes      map[uuid.UUID]domain.SwapQuote
	seq         int64

	// sem admits one write transaction at a time.
	sem chan struct{}
}

// New creates an empty store.
func New() *Store {
	return &Store{
		wallets:     make(map[uuid.UUID]domain.Wallet),
		walletIndex: make(map[walletKey]uuid.UUID),
		txns:        make(map[uuid.UUID]domain.Transaction),
		txnSeq:      make(map[uuid.UUID]int64),
		refs:        make(map[string]uuid.UUID),
		keys:        make(map[uuid.UUID]domain.KeyRecord),
		quotes:      make(map[uuid.UUID]domain.SwapQuote),
		sem:         make(chan struct{}, 1),
	}
}

// Begin implements ports.DBTransactor.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &memTx{
		store:    s,
		wallets:  make(map[uuid.UUID]domain.Wallet),
		index:    make(map[walletKey]uuid.UUID),
		created:  make(map[uuid.UUID]domain.Transaction),
		refs:     make(map[string]uuid.UUID),
		resolved: make(map[uuid.UUID]uuid.UUID),
		deleted:  make(map[uuid.UUID]struct{}),
	}, nil
}

// Ping implements ports.HealthChecker.
func (s *Store) Ping(context.Context) error { return nil }

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return "memory" }

// memTx stages writes until Commit. It embeds pgx.Tx only to satisfy the
// interface; the repositories never call through it.
type memTx struct {
	pgx.Tx

	store *Store
	done  bool

	wallets  map[uuid.UUID]domain.Wallet
	index    map[walletKey]uuid.UUID
	created  map[uuid.UUID]domain.Transaction
	order    []uuid.UUID
	refs     map[string]uuid.UUID
	resolved map[uuid.UUID]uuid.UUID
	deleted  map[uuid.UUID]struct{}
}

func (t *memTx) Commit(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	s := t.store
	s.mu.Lock()
	for id, w := range t.wallets {
		s.wallets[id] = w
		s.walletIndex[walletKey{w.OwnerID, w.Currency}] = id
	}
	for _, id := range t.order {
		s.seq++
		s.txns[id] = t.created[id]
		s.txnSeq[id] = s.seq
	}
	for ref, id := range t.refs {
		s.refs[ref] = id
	}
	for id, by := range t.resolved {
		if txn, ok := s.txns[id]; ok {
			resolvedBy := by
			txn.ResolvedBy = &resolvedBy
			s.txns[id] = txn
		}
	}
	for id := range t.deleted {
		delete(s.quotes, id)
	}
	s.mu.Unlock()
	t.finish()
	return nil
}

func (t *memTx) Rollback(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.finish()
	return nil
}

func (t *memTx) finish() {
	t.done = true
	<-t.store.sem
}

func asMemTx(tx pgx.Tx) (*memTx, error) {
	t, ok := tx.(*memTx)
	if !ok || t.done {
		return nil, errForeignTx
	}
	return t, nil
}
