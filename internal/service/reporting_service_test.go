package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports/mocks"
	"custodial-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type reportingTestDeps struct {
	svc        *reportingService
	walletRepo *mocks.MockWalletRepository
	keyRepo    *mocks.MockKeyRepository
	txRepo     *mocks.MockTransactionRepository
}

func setupReportingService(t *testing.T) *reportingTestDeps {
	ctrl := gomock.NewController(t)
	d := &reportingTestDeps{
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		keyRepo:    mocks.NewMockKeyRepository(ctrl),
		txRepo:     mocks.NewMockTransactionRepository(ctrl),
	}
	d.svc = NewReportingService(d.walletRepo, d.keyRepo, d.txRepo, 10*time.Minute).(*reportingService)
	return d
}

func TestReportingService_AccountOverview(t *testing.T) {
	d := setupReportingService(t)
	ctx := context.Background()
	ownerID := uuid.New()

	wallets := []domain.Wallet{
		{ID: uuid.New(), OwnerID: ownerID, Currency: "PI", Balance: decimal.NewFromInt(100)},
		{ID: uuid.New(), OwnerID: ownerID, Currency: "USD", Balance: decimal.Zero},
	}
	records := []domain.KeyRecord{
		{OwnerID: ownerID, Family: domain.ChainFamilyAccountLedger, PublicAddress: "GOLD", Superseded: true},
		{OwnerID: ownerID, Family: domain.ChainFamilyAccountLedger, PublicAddress: "GNEW"},
	}

	d.walletRepo.EXPECT().ListByOwner(ctx, ownerID).Return(wallets, nil)
	d.keyRepo.EXPECT().ListByOwner(ctx, ownerID).Return(records, nil)

	overview, err := d.svc.AccountOverview(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, ownerID, overview.OwnerID)
	assert.Len(t, overview.Wallets, 2)
	require.Len(t, overview.Keys, 1)
	assert.Equal(t, "GNEW", overview.Keys[0].Address)
}

func TestReportingService_AccountOverview_Unknown(t *testing.T) {
	d := setupReportingService(t)
	ctx := context.Background()
	ownerID := uuid.New()

	d.walletRepo.EXPECT().ListByOwner(ctx, ownerID).Return(nil, nil)
	d.keyRepo.EXPECT().ListByOwner(ctx, ownerID).Return(nil, nil)

	_, err := d.svc.AccountOverview(ctx, ownerID)
	assertAppError(t, err, "LED_007")
}

func TestReportingService_AccountOverview_RepoError(t *testing.T) {
	d := setupReportingService(t)
	ctx := context.Background()
	ownerID := uuid.New()

	d.walletRepo.EXPECT().ListByOwner(ctx, ownerID).Return(nil, errors.New("db down"))

	_, err := d.svc.AccountOverview(ctx, ownerID)
	assertAppError(t, err, "SYS_001")
}

func TestReportingService_ListStalled(t *testing.T) {
	d := setupReportingService(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d.svc.now = func() time.Time { return now }

	stalled := []domain.Transaction{{ID: uuid.New(), Status: domain.TransactionStatusProcessing}}
	d.txRepo.EXPECT().ListStalled(ctx, now.Add(-10*time.Minute), 25).Return(stalled, nil)

	got, err := d.svc.ListStalled(ctx, 25)
	require.NoError(t, err)
	assert.Equal(t, stalled, got)
}

func TestReportingService_ListStalled_DefaultLimit(t *testing.T) {
	d := setupReportingService(t)
	ctx := context.Background()

	d.txRepo.EXPECT().ListStalled(ctx, gomock.Any(), defaultStalledLimit).Return(nil, nil)

	got, err := d.svc.ListStalled(ctx, 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// assertAppError checks that err carries an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
