package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"custodial-wallet/internal/adapter/storage/memory"
	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/internal/core/ports/mocks"
	"custodial-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type settlementTestDeps struct {
	svc      ports.SettlementService
	store    *memory.Store
	wallets  *memory.WalletRepo
	txns     *memory.TransactionRepo
	custody  *mocks.MockCustodyService
	registry *mocks.MockAdapterRegistry
	ctrl     *gomock.Controller
}

func setupSettlementService(t *testing.T) *settlementTestDeps {
	ctrl := gomock.NewController(t)
	store := memory.New()
	d := &settlementTestDeps{
		store:    store,
		wallets:  memory.NewWalletRepo(store),
		txns:     memory.NewTransactionRepo(store),
		custody:  mocks.NewMockCustodyService(ctrl),
		registry: mocks.NewMockAdapterRegistry(ctrl),
		ctrl:     ctrl,
	}
	d.svc = NewSettlementService(d.txns, d.wallets, d.custody, d.registry,
		SettlementOptions{MaxParallelChains: 2, BroadcastTimeout: time.Second}, zerolog.Nop())
	return d
}

// seedSend commits a sender wallet with a chain address and a pending
// external send from it.
func (d *settlementTestDeps) seedSend(t *testing.T, currency, from string, createdAt time.Time) (*domain.Wallet, *domain.Transaction) {
	t.Helper()
	ctx := context.Background()
	tx, err := d.store.Begin(ctx)
	require.NoError(t, err)

	w := domain.NewWallet(uuid.New(), currency, createdAt)
	w.ChainAddress = &from
	require.NoError(t, d.wallets.EnsureExists(ctx, tx, w))

	to := "DEST-" + currency
	txn := &domain.Transaction{
		ID:              uuid.New(),
		Reference:       "withdraw-" + uuid.NewString(),
		Type:            domain.TransactionTypeWithdraw,
		Status:          domain.TransactionStatusPending,
		Amount:          dec("40"),
		Fee:             dec("1"),
		Currency:        currency,
		FromWalletID:    &w.ID,
		ExternalAddress: &to,
		External:        true,
		CreatedAt:       createdAt,
	}
	require.NoError(t, d.txns.Create(ctx, tx, txn))
	require.NoError(t, tx.Commit(ctx))
	return w, txn
}

func (d *settlementTestDeps) adapter(family domain.ChainFamily) *mocks.MockChainAdapter {
	a := mocks.NewMockChainAdapter(d.ctrl)
	a.EXPECT().Family().Return(family).AnyTimes()
	return a
}

func TestSettlementService_BroadcastSucceeds(t *testing.T) {
	d := setupSettlementService(t)
	ctx := context.Background()
	sender, txn := d.seedSend(t, "PI", "GSENDER", time.Now())
	adapter := d.adapter(domain.ChainFamilyAccountLedger)

	unsigned := &ports.UnsignedTransfer{Family: domain.ChainFamilyAccountLedger, FromAddress: "GSENDER"}
	signed := &ports.SignedTransfer{Family: domain.ChainFamilyAccountLedger, TxHash: "precomputed"}

	d.registry.EXPECT().ForCurrency("PI").Return(adapter, nil)
	adapter.EXPECT().Build(gomock.Any(), ports.TransferIntent{
		Currency:    "PI",
		FromAddress: "GSENDER",
		ToAddress:   "DEST-PI",
		Amount:      txn.Amount,
		Memo:        txn.Reference,
	}).Return(unsigned, nil)
	d.custody.EXPECT().SignTransfer(gomock.Any(), sender.OwnerID, domain.ChainFamilyAccountLedger, unsigned, adapter).Return(signed, nil)
	adapter.EXPECT().Broadcast(gomock.Any(), signed).Return("ledgerhash", nil)

	report, err := d.svc.ProcessPendingSettlements(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Advanced)
	require.Len(t, report.Results, 1)
	assert.Equal(t, domain.SettlementSucceeded, report.Results[0].Outcome)
	assert.Equal(t, "ledgerhash", report.Results[0].SettlementHash)

	stored, err := d.txns.GetByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusSuccess, stored.Status)
	assert.Equal(t, "ledgerhash", *stored.SettlementHash)

	// The row is terminal and is not picked up again.
	report, err = d.svc.ProcessPendingSettlements(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
}

func TestSettlementService_BroadcastFailureMarksFailed(t *testing.T) {
	d := setupSettlementService(t)
	ctx := context.Background()
	_, txn := d.seedSend(t, "ETH", "0xsender", time.Now())
	adapter := d.adapter(domain.ChainFamilyEVM)

	d.registry.EXPECT().ForCurrency("ETH").Return(adapter, nil)
	adapter.EXPECT().Build(gomock.Any(), gomock.Any()).Return(&ports.UnsignedTransfer{}, nil)
	d.custody.EXPECT().SignTransfer(gomock.Any(), gomock.Any(), domain.ChainFamilyEVM, gomock.Any(), adapter).
		Return(&ports.SignedTransfer{TxHash: "0xabc"}, nil)
	adapter.EXPECT().Broadcast(gomock.Any(), gomock.Any()).Return("", errors.New("nonce too low"))

	report, err := d.svc.ProcessPendingSettlements(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Advanced)
	require.Len(t, report.Results, 1)
	assert.Equal(t, domain.SettlementFailed, report.Results[0].Outcome)
	assert.Contains(t, report.Results[0].Reason, "nonce too low")

	stored, err := d.txns.GetByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, stored.Status)
	require.NotNil(t, stored.FailureReason)
	assert.Contains(t, *stored.FailureReason, "CHN_001")
}

func TestSettlementService_SigningFailureMarksFailed(t *testing.T) {
	d := setupSettlementService(t)
	ctx := context.Background()
	_, txn := d.seedSend(t, "PI", "GSENDER", time.Now())
	adapter := d.adapter(domain.ChainFamilyAccountLedger)

	d.registry.EXPECT().ForCurrency("PI").Return(adapter, nil)
	adapter.EXPECT().Build(gomock.Any(), gomock.Any()).Return(&ports.UnsignedTransfer{}, nil)
	d.custody.EXPECT().SignTransfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrKeyUnavailable())

	_, err := d.svc.ProcessPendingSettlements(ctx, 10)
	require.NoError(t, err)

	stored, err := d.txns.GetByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, stored.Status)
	assert.Contains(t, *stored.FailureReason, "KEY_001")
}

func TestSettlementService_UnroutableCurrencyFails(t *testing.T) {
	d := setupSettlementService(t)
	ctx := context.Background()
	_, txn := d.seedSend(t, "DOGE", "Dsender", time.Now())

	d.registry.EXPECT().ForCurrency("DOGE").Return(nil, apperror.ErrAdapterNotRegistered("DOGE"))

	report, err := d.svc.ProcessPendingSettlements(ctx, 10)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, domain.SettlementFailed, report.Results[0].Outcome)

	stored, err := d.txns.GetByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, stored.Status)
}

func TestSettlementService_FamiliesInParallelRowsInOrder(t *testing.T) {
	d := setupSettlementService(t)
	ctx := context.Background()
	base := time.Now()
	_, first := d.seedSend(t, "PI", "GONE", base)
	_, btc := d.seedSend(t, "BTC", "1sender", base.Add(time.Second))
	_, second := d.seedSend(t, "PI", "GTWO", base.Add(2*time.Second))

	pi := d.adapter(domain.ChainFamilyAccountLedger)
	utxo := d.adapter(domain.ChainFamilyUTXO)
	d.registry.EXPECT().ForCurrency("PI").Return(pi, nil).Times(2)
	d.registry.EXPECT().ForCurrency("BTC").Return(utxo, nil)

	var piOrder []string
	pi.EXPECT().Build(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, intent ports.TransferIntent) (*ports.UnsignedTransfer, error) {
		piOrder = append(piOrder, intent.FromAddress)
		return &ports.UnsignedTransfer{FromAddress: intent.FromAddress}, nil
	}).Times(2)
	pi.EXPECT().Broadcast(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, s *ports.SignedTransfer) (string, error) {
		return s.TxHash, nil
	}).Times(2)
	utxo.EXPECT().Build(gomock.Any(), gomock.Any()).Return(&ports.UnsignedTransfer{}, nil)
	utxo.EXPECT().Broadcast(gomock.Any(), gomock.Any()).Return("btctxid", nil)
	d.custody.EXPECT().SignTransfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, _ domain.ChainFamily, u *ports.UnsignedTransfer, _ ports.Signer) (*ports.SignedTransfer, error) {
			return &ports.SignedTransfer{TxHash: "hash-" + u.FromAddress}, nil
		}).Times(3)

	report, err := d.svc.ProcessPendingSettlements(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Advanced)
	require.Len(t, report.Results, 3)
	assert.Equal(t, first.ID, report.Results[0].TransactionID)
	assert.Equal(t, btc.ID, report.Results[1].TransactionID)
	assert.Equal(t, second.ID, report.Results[2].TransactionID)
	assert.Equal(t, []string{"GONE", "GTWO"}, piOrder)
	assert.Equal(t, "hash-GONE", report.Results[0].SettlementHash)
}

func TestSettlementService_LostClaimIsSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	registry := mocks.NewMockAdapterRegistry(ctrl)
	adapter := mocks.NewMockChainAdapter(ctrl)
	svc := NewSettlementService(txRepo, mocks.NewMockWalletRepository(ctrl), mocks.NewMockCustodyService(ctrl),
		registry, SettlementOptions{}, zerolog.Nop())

	ctx := context.Background()
	row := domain.Transaction{ID: uuid.New(), Currency: "PI", Status: domain.TransactionStatusPending, External: true}

	txRepo.EXPECT().ListPendingExternal(ctx, 5).Return([]domain.Transaction{row}, nil)
	registry.EXPECT().ForCurrency("PI").Return(adapter, nil)
	adapter.EXPECT().Family().Return(domain.ChainFamilyAccountLedger)
	txRepo.EXPECT().Claim(gomock.Any(), row.ID, gomock.Any()).Return(false, nil)

	report, err := svc.ProcessPendingSettlements(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Advanced)
	require.Len(t, report.Results, 1)
	assert.Equal(t, domain.SettlementSkipped, report.Results[0].Outcome)
}

func TestSettlementService_CancelledPassDoesNotAbortBroadcast(t *testing.T) {
	d := setupSettlementService(t)
	_, txn := d.seedSend(t, "ETH", "0xsender", time.Now())
	adapter := d.adapter(domain.ChainFamilyEVM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d.registry.EXPECT().ForCurrency("ETH").Return(adapter, nil)
	adapter.EXPECT().Build(gomock.Any(), gomock.Any()).Return(&ports.UnsignedTransfer{}, nil)
	d.custody.EXPECT().SignTransfer(gomock.Any(), gomock.Any(), domain.ChainFamilyEVM, gomock.Any(), adapter).
		Return(&ports.SignedTransfer{TxHash: "0xabc"}, nil)
	adapter.EXPECT().Broadcast(gomock.Any(), gomock.Any()).
		DoAndReturn(func(bctx context.Context, _ *ports.SignedTransfer) (string, error) {
			// the caller goes away while the node is still answering
			cancel()
			select {
			case <-bctx.Done():
				return "", bctx.Err()
			case <-time.After(50 * time.Millisecond):
				return "0xabc", nil
			}
		})

	report, err := d.svc.ProcessPendingSettlements(ctx, 10)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, domain.SettlementSucceeded, report.Results[0].Outcome)

	stored, err := d.txns.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusSuccess, stored.Status)
	assert.Equal(t, "0xabc", *stored.SettlementHash)
}

func TestSettlementService_BroadcastTimeoutMarksFailed(t *testing.T) {
	d := setupSettlementService(t)
	d.svc = NewSettlementService(d.txns, d.wallets, d.custody, d.registry,
		SettlementOptions{BroadcastTimeout: 20 * time.Millisecond}, zerolog.Nop())
	_, txn := d.seedSend(t, "ETH", "0xsender", time.Now())
	adapter := d.adapter(domain.ChainFamilyEVM)

	d.registry.EXPECT().ForCurrency("ETH").Return(adapter, nil)
	adapter.EXPECT().Build(gomock.Any(), gomock.Any()).Return(&ports.UnsignedTransfer{}, nil)
	d.custody.EXPECT().SignTransfer(gomock.Any(), gomock.Any(), domain.ChainFamilyEVM, gomock.Any(), adapter).
		Return(&ports.SignedTransfer{TxHash: "0xabc"}, nil)
	adapter.EXPECT().Broadcast(gomock.Any(), gomock.Any()).
		DoAndReturn(func(bctx context.Context, _ *ports.SignedTransfer) (string, error) {
			<-bctx.Done()
			return "", bctx.Err()
		})

	report, err := d.svc.ProcessPendingSettlements(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, domain.SettlementFailed, report.Results[0].Outcome)
	assert.Contains(t, report.Results[0].Reason, context.DeadlineExceeded.Error())

	stored, err := d.txns.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, stored.Status)
}

func TestSettlementService_InvalidBatchSize(t *testing.T) {
	d := setupSettlementService(t)
	_, err := d.svc.ProcessPendingSettlements(context.Background(), 0)
	assertAppError(t, err, "LED_002")
}
