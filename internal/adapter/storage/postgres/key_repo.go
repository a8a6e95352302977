package postgres

import (
	"context"
	"errors"
	"fmt"

	"custodial-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const keyColumns = `id, owner_id, chain_family, public_address, encrypted_private_material,
	enc_version, superseded, created_at`

// KeyRepo implements ports.KeyRepository.
type KeyRepo struct {
	pool Pool
}

// NewKeyRepo creates a new KeyRepo.
func NewKeyRepo(pool Pool) *KeyRepo {
	return &KeyRepo{pool: pool}
}

// Create inserts a key record. It reports false when an active record for
// the same owner and family already exists.
func (r *KeyRepo) Create(ctx context.Context, k *domain.KeyRecord) (bool, error) {
	query := `INSERT INTO key_records (` + keyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (owner_id, chain_family) WHERE NOT superseded DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		k.ID, k.OwnerID, k.Family, k.PublicAddress, k.EncryptedMaterial,
		k.EncVersion, k.Superseded, k.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert key record: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetActive fetches the non-superseded record for owner and family.
func (r *KeyRepo) GetActive(ctx context.Context, ownerID uuid.UUID, family domain.ChainFamily) (*domain.KeyRecord, error) {
	query := `SELECT ` + keyColumns + ` FROM key_records
		WHERE owner_id = $1 AND chain_family = $2 AND NOT superseded`

	k := &domain.KeyRecord{}
	err := r.pool.QueryRow(ctx, query, ownerID, family).Scan(
		&k.ID, &k.OwnerID, &k.Family, &k.PublicAddress, &k.EncryptedMaterial,
		&k.EncVersion, &k.Superseded, &k.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get key record: %w", err)
	}
	return k, nil
}

// ListByOwner returns every record of an owner, oldest first.
func (r *KeyRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.KeyRecord, error) {
	query := `SELECT ` + keyColumns + ` FROM key_records WHERE owner_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list key records: %w", err)
	}
	defer rows.Close()

	var records []domain.KeyRecord
	for rows.Next() {
		k := domain.KeyRecord{}
		if err := rows.Scan(
			&k.ID, &k.OwnerID, &k.Family, &k.PublicAddress, &k.EncryptedMaterial,
			&k.EncVersion, &k.Superseded, &k.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan key record row: %w", err)
		}
		records = append(records, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate key record rows: %w", err)
	}
	return records, nil
}
