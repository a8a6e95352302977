package service

import (
	"context"
	"time"

	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/pkg/apperror"

	"github.com/google/uuid"
)

const defaultStalledLimit = 100

// reportingService implements ports.ReportingService.
type reportingService struct {
	walletRepo   ports.WalletRepository
	keyRepo      ports.KeyRepository
	txRepo       ports.TransactionRepository
	stalledAfter time.Duration
	now          func() time.Time
}

// NewReportingService creates a new reporting service. Rows claimed longer
// than stalledAfter ago and still PROCESSING are reported as stalled.
func NewReportingService(
	walletRepo ports.WalletRepository,
	keyRepo ports.KeyRepository,
	txRepo ports.TransactionRepository,
	stalledAfter time.Duration,
) ports.ReportingService {
	return &reportingService{
		walletRepo:   walletRepo,
		keyRepo:      keyRepo,
		txRepo:       txRepo,
		stalledAfter: stalledAfter,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// AccountOverview returns the owner's wallets and active chain addresses.
func (s *reportingService) AccountOverview(ctx context.Context, ownerID uuid.UUID) (*domain.AccountOverview, error) {
	wallets, err := s.walletRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	records, err := s.keyRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if len(wallets) == 0 && len(records) == 0 {
		return nil, apperror.ErrNotFound("Account")
	}

	overview := &domain.AccountOverview{
		OwnerID: ownerID,
		Wallets: wallets,
		Keys:    make([]domain.KeyAddress, 0, len(records)),
	}
	if overview.Wallets == nil {
		overview.Wallets = []domain.Wallet{}
	}
	for _, k := range records {
		if k.Superseded {
			continue
		}
		overview.Keys = append(overview.Keys, domain.KeyAddress{Family: k.Family, Address: k.PublicAddress})
	}
	return overview, nil
}

// ListStalled returns external sends stuck in PROCESSING.
func (s *reportingService) ListStalled(ctx context.Context, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = defaultStalledLimit
	}
	txns, err := s.txRepo.ListStalled(ctx, s.now().Add(-s.stalledAfter), limit)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if txns == nil {
		txns = []domain.Transaction{}
	}
	return txns, nil
}
