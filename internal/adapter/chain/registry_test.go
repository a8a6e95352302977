package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/internal/core/ports/mocks"
	"custodial-wallet/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func testCatalogue() domain.Catalogue {
	return domain.Catalogue{
		"PI":  {Code: "PI", Decimals: 7, Family: domain.ChainFamilyAccountLedger},
		"XLM": {Code: "XLM", Decimals: 7, Family: domain.ChainFamilyAccountLedger},
		"ETH": {Code: "ETH", Decimals: 18, Family: domain.ChainFamilyEVM},
		"USD": {Code: "USD", Decimals: 2},
	}
}

func TestRegistry_ForCurrency(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mocks.NewMockChainAdapter(ctrl)
	adapter.EXPECT().Family().Return(domain.ChainFamilyAccountLedger).AnyTimes()
	gen := mocks.NewMockKeyGenerator(ctrl)
	gen.EXPECT().Family().Return(domain.ChainFamilyAccountLedger).AnyTimes()

	r := NewRegistry(testCatalogue())
	require.NoError(t, r.Register(adapter, gen))

	got, err := r.ForCurrency("pi")
	require.NoError(t, err)
	assert.Same(t, adapter, got)

	got, err = r.ForCurrency("XLM")
	require.NoError(t, err)
	assert.Same(t, adapter, got)

	_, err = r.ForCurrency("ETH")
	assert.True(t, errors.Is(err, apperror.ErrAdapterNotRegistered("")))
	_, err = r.ForCurrency("USD")
	assert.Error(t, err)

	g, err := r.Generator(domain.ChainFamilyAccountLedger)
	require.NoError(t, err)
	assert.Same(t, gen, g)
	_, err = r.Generator(domain.ChainFamilyUTXO)
	assert.Error(t, err)

	assert.Equal(t, []domain.ChainFamily{domain.ChainFamilyAccountLedger}, r.Families())
}

func TestRegistry_RegisterRejectsMismatchAndDuplicates(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mocks.NewMockChainAdapter(ctrl)
	adapter.EXPECT().Family().Return(domain.ChainFamilyEVM).AnyTimes()
	wrong := mocks.NewMockKeyGenerator(ctrl)
	wrong.EXPECT().Family().Return(domain.ChainFamilyUTXO).AnyTimes()
	right := mocks.NewMockKeyGenerator(ctrl)
	right.EXPECT().Family().Return(domain.ChainFamilyEVM).AnyTimes()

	r := NewRegistry(testCatalogue())
	assert.Error(t, r.Register(adapter, wrong))
	require.NoError(t, r.Register(adapter, right))
	assert.Error(t, r.Register(adapter, right))
}

func TestBuildAndSign(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mocks.NewMockChainAdapter(ctrl)
	ctx := context.Background()
	intent := ports.TransferIntent{Currency: "ETH", ToAddress: "0xdest"}
	unsigned := &ports.UnsignedTransfer{Currency: "ETH"}
	key := []byte{1, 2, 3}

	adapter.EXPECT().Build(ctx, intent).Return(unsigned, nil)
	adapter.EXPECT().Sign(unsigned, key).Return(&ports.SignedTransfer{TxHash: "0xhash"}, nil)

	signed, err := BuildAndSign(ctx, adapter, intent, key)
	require.NoError(t, err)
	assert.Equal(t, "0xhash", signed.TxHash)

	adapter.EXPECT().Build(ctx, intent).Return(nil, errors.New("rpc down"))
	_, err = BuildAndSign(ctx, adapter, intent, key)
	assert.ErrorContains(t, err, "build: rpc down")
}

func TestNewLimiter(t *testing.T) {
	unlimited := NewLimiter(0)
	for i := 0; i < 100; i++ {
		assert.True(t, unlimited.Allow())
	}

	paced := NewLimiter(2)
	assert.True(t, paced.Allow())
	assert.True(t, paced.Allow())
	assert.False(t, paced.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, paced.Wait(ctx))
}
