package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var errKeyMismatch = errors.New("stored key does not control the sending address")

// custodyService implements ports.CustodyService. Plaintext key material
// exists only inside ProvisionKey and SignTransfer and is zeroed before
// they return.
type custodyService struct {
	keyRepo    ports.KeyRepository
	walletRepo ports.WalletRepository
	transactor ports.DBTransactor
	encSvc     ports.EncryptionService
	adapters   ports.AdapterRegistry
	catalogue  domain.Catalogue
	log        zerolog.Logger
	now        func() time.Time
}

// NewCustodyService creates a new custody service.
func NewCustodyService(
	keyRepo ports.KeyRepository,
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	encSvc ports.EncryptionService,
	adapters ports.AdapterRegistry,
	catalogue domain.Catalogue,
	log zerolog.Logger,
) ports.CustodyService {
	return &custodyService{
		keyRepo:    keyRepo,
		walletRepo: walletRepo,
		transactor: transactor,
		encSvc:     encSvc,
		adapters:   adapters,
		catalogue:  catalogue,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ProvisionKey returns the owner's address on family, generating and
// sealing a key the first time. Wallets of the family's currencies are
// created or stamped with the address.
func (s *custodyService) ProvisionKey(ctx context.Context, ownerID uuid.UUID, family domain.ChainFamily) (string, error) {
	if !family.Valid() {
		return "", apperror.Validation(fmt.Sprintf("unknown chain family %q", family))
	}

	rec, err := s.keyRepo.GetActive(ctx, ownerID, family)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("get key record: %w", err))
	}
	if rec == nil {
		rec, err = s.generate(ctx, ownerID, family)
		if err != nil {
			return "", err
		}
	}

	if err := s.attachAddress(ctx, ownerID, family, rec.PublicAddress); err != nil {
		return "", err
	}
	return rec.PublicAddress, nil
}

func (s *custodyService) generate(ctx context.Context, ownerID uuid.UUID, family domain.ChainFamily) (*domain.KeyRecord, error) {
	gen, err := s.adapters.Generator(family)
	if err != nil {
		return nil, err
	}
	key, err := gen.Generate()
	if err != nil {
		return nil, apperror.ErrKeyCustodyFailure(fmt.Errorf("generate %s key: %w", family, err))
	}
	defer zero(key.Material)

	blob, err := s.encSvc.Seal(key.Material, domain.KeyBinding(ownerID, family))
	if err != nil {
		return nil, apperror.ErrKeyCustodyFailure(fmt.Errorf("seal key: %w", err))
	}

	rec := &domain.KeyRecord{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		Family:            family,
		PublicAddress:     key.Address,
		EncryptedMaterial: blob,
		EncVersion:        domain.KeyEncVersion,
		CreatedAt:         s.now(),
	}
	created, err := s.keyRepo.Create(ctx, rec)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create key record: %w", err))
	}
	if created {
		s.log.Info().
			Str("owner_id", ownerID.String()).
			Str("chain_family", string(family)).
			Str("address", rec.PublicAddress).
			Msg("signing key provisioned")
		return rec, nil
	}

	// A concurrent call won the insert; its key is the owner's key.
	winner, err := s.keyRepo.GetActive(ctx, ownerID, family)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get key record: %w", err))
	}
	if winner == nil {
		return nil, apperror.InternalError(fmt.Errorf("key record for %s/%s vanished", ownerID, family))
	}
	return winner, nil
}

// attachAddress creates the family's wallets if missing and records the
// chain address on them.
func (s *custodyService) attachAddress(ctx context.Context, ownerID uuid.UUID, family domain.ChainFamily, address string) error {
	currencies := s.catalogue.ByFamily(family)
	if len(currencies) == 0 {
		return nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	for _, cur := range currencies {
		w := domain.NewWallet(ownerID, cur.Code, s.now())
		w.ChainAddress = &address
		if err := s.walletRepo.EnsureExists(ctx, dbTx, w); err != nil {
			return apperror.InternalError(fmt.Errorf("create wallet: %w", err))
		}
		locked, err := s.walletRepo.GetByOwnerForUpdate(ctx, dbTx, ownerID, cur.Code)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
		}
		if locked == nil {
			return apperror.InternalError(fmt.Errorf("wallet %s/%s missing after insert", ownerID, cur.Code))
		}
		if locked.ChainAddress != nil && *locked.ChainAddress == address {
			continue
		}
		if err := s.walletRepo.SetChainAddress(ctx, dbTx, locked.ID, address); err != nil {
			return apperror.InternalError(fmt.Errorf("set chain address: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// SignTransfer decrypts the owner's key for family, hands it to signer and
// wipes it.
func (s *custodyService) SignTransfer(ctx context.Context, ownerID uuid.UUID, family domain.ChainFamily, unsigned *ports.UnsignedTransfer, signer ports.Signer) (*ports.SignedTransfer, error) {
	rec, err := s.keyRepo.GetActive(ctx, ownerID, family)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get key record: %w", err))
	}
	if rec == nil {
		return nil, apperror.ErrKeyUnavailable()
	}
	if unsigned.FromAddress != "" && unsigned.FromAddress != rec.PublicAddress {
		return nil, apperror.ErrKeyCustodyFailure(errKeyMismatch)
	}

	material, err := s.encSvc.Open(rec.EncryptedMaterial, domain.KeyBinding(ownerID, family))
	if err != nil {
		return nil, apperror.ErrKeyCustodyFailure(fmt.Errorf("open key: %w", err))
	}
	defer zero(material)

	signed, err := signer.Sign(unsigned, material)
	if err != nil {
		return nil, apperror.ErrKeyCustodyFailure(fmt.Errorf("sign: %w", err))
	}
	return signed, nil
}
