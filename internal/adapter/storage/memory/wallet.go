package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"custodial-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	s *Store
}

// NewWalletRepo creates a wallet repository over s.
func NewWalletRepo(s *Store) *WalletRepo {
	return &WalletRepo{s: s}
}

func (r *WalletRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	w, ok := r.s.wallets[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *WalletRepo) GetByOwner(_ context.Context, ownerID uuid.UUID, currency string) (*domain.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.walletIndex[walletKey{ownerID, currency}]
	if !ok {
		return nil, nil
	}
	w := r.s.wallets[id]
	return &w, nil
}

func (r *WalletRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.Wallet
	for _, w := range r.s.wallets {
		if w.OwnerID == ownerID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

func (r *WalletRepo) EnsureExists(_ context.Context, tx pgx.Tx, w *domain.Wallet) error {
	t, err := asMemTx(tx)
	if err != nil {
		return err
	}
	if _, ok := t.lookupWallet(walletKey{w.OwnerID, w.Currency}); ok {
		return nil
	}
	t.wallets[w.ID] = *w
	t.index[walletKey{w.OwnerID, w.Currency}] = w.ID
	return nil
}

func (r *WalletRepo) GetByIDForUpdate(_ context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	t, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}
	w, ok := t.wallet(id)
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *WalletRepo) GetByOwnerForUpdate(_ context.Context, tx pgx.Tx, ownerID uuid.UUID, currency string) (*domain.Wallet, error) {
	t, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}
	w, ok := t.lookupWallet(walletKey{ownerID, currency})
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *WalletRepo) UpdateBalance(_ context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	t, err := asMemTx(tx)
	if err != nil {
		return err
	}
	if balance.IsNegative() {
		return fmt.Errorf("update wallet balance: balance of %s would be negative", walletID)
	}
	w, ok := t.wallet(walletID)
	if !ok {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	w.Balance = balance
	w.UpdatedAt = time.Now().UTC()
	t.wallets[walletID] = w
	return nil
}

func (r *WalletRepo) SetChainAddress(_ context.Context, tx pgx.Tx, walletID uuid.UUID, address string) error {
	t, err := asMemTx(tx)
	if err != nil {
		return err
	}
	w, ok := t.wallet(walletID)
	if !ok {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	w.ChainAddress = &address
	w.UpdatedAt = time.Now().UTC()
	t.wallets[walletID] = w
	return nil
}

func (t *memTx) wallet(id uuid.UUID) (domain.Wallet, bool) {
	if w, ok := t.wallets[id]; ok {
		return w, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	w, ok := t.store.wallets[id]
	return w, ok
}

func (t *memTx) lookupWallet(k walletKey) (domain.Wallet, bool) {
	if id, ok := t.index[k]; ok {
		return t.wallets[id], true
	}
	t.store.mu.RLock()
	id, ok := t.store.walletIndex[k]
	t.store.mu.RUnlock()
	if !ok {
		return domain.Wallet{}, false
	}
	return t.wallet(id)
}
