package memory

import (
	"context"
	"sort"

	"custodial-wallet/internal/core/domain"

	"github.com/google/uuid"
)

// KeyRepo implements ports.KeyRepository.
type KeyRepo struct {
	s *Store
}

// NewKeyRepo creates a key record repository over s.
func NewKeyRepo(s *Store) *KeyRepo {
	return &KeyRepo{s: s}
}

func (r *KeyRepo) Create(_ context.Context, k *domain.KeyRecord) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.keys {
		if existing.OwnerID == k.OwnerID && existing.Family == k.Family && !existing.Superseded {
			return false, nil
		}
	}
	r.s.keys[k.ID] = *k
	return true, nil
}

func (r *KeyRepo) GetActive(_ context.Context, ownerID uuid.UUID, family domain.ChainFamily) (*domain.KeyRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, k := range r.s.keys {
		if k.OwnerID == ownerID && k.Family == family && !k.Superseded {
			return &k, nil
		}
	}
	return nil, nil
}

func (r *KeyRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.KeyRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.KeyRecord
	for _, k := range r.s.keys {
		if k.OwnerID == ownerID {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
