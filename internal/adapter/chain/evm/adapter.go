// Package evm settles native value transfers on EVM-compatible chains.
package evm

import (
	"context"
	"fmt"
	"math/big"

	"custodial-wallet/config"
	"custodial-wallet/internal/adapter/chain"
	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	decimals       = 18
	transferGas    = 21000
	defaultCapGwei = 200
	weiPerGwei     = 1_000_000_000
)

// rpcAPI is the part of ethclient.Client the adapter uses.
type rpcAPI interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Adapter implements ports.ChainAdapter for the EVM family.
type Adapter struct {
	client      rpcAPI
	chainID     *big.Int
	gasLimit    uint64
	maxGasPrice *big.Int
	limiter     *rate.Limiter
	log         zerolog.Logger
}

// Dial connects to the JSON-RPC endpoint in cfg.
func Dial(ctx context.Context, cfg config.EVMConfig) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dialing evm rpc: %w", err)
	}
	return client, nil
}

// New creates an EVM adapter over client.
func New(cfg config.EVMConfig, client rpcAPI, log zerolog.Logger) *Adapter {
	gas := cfg.GasLimit
	if gas < transferGas {
		gas = transferGas
	}
	capGwei := cfg.MaxGasPriceGwei
	if capGwei <= 0 {
		capGwei = defaultCapGwei
	}
	return &Adapter{
		client:      client,
		chainID:     big.NewInt(cfg.ChainID),
		gasLimit:    gas,
		maxGasPrice: new(big.Int).Mul(big.NewInt(capGwei), big.NewInt(weiPerGwei)),
		limiter:     chain.NewLimiter(cfg.RequestsPerSecond),
		log:         log.With().Str("chain_family", string(domain.ChainFamilyEVM)).Logger(),
	}
}

func (a *Adapter) Family() domain.ChainFamily { return domain.ChainFamilyEVM }

// ValidateAddress accepts 0x-prefixed 20-byte hex addresses.
func (a *Adapter) ValidateAddress(address string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("%q is not a valid hex address", address)
	}
	return nil
}

// EstimateFee is gas limit times the capped suggested gas price.
func (a *Adapter) EstimateFee(ctx context.Context) (decimal.Decimal, error) {
	price, err := a.gasPrice(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return weiToDecimal(new(big.Int).Mul(price, new(big.Int).SetUint64(a.gasLimit))), nil
}

// Build prepares a legacy value transfer at the sender's pending nonce.
func (a *Adapter) Build(ctx context.Context, intent ports.TransferIntent) (*ports.UnsignedTransfer, error) {
	if err := a.ValidateAddress(intent.ToAddress); err != nil {
		return nil, err
	}
	if err := a.ValidateAddress(intent.FromAddress); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	if !intent.Amount.IsPositive() || !intent.Amount.Equal(intent.Amount.Truncate(decimals)) {
		return nil, fmt.Errorf("amount %s is not representable in wei", intent.Amount)
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	nonce, err := a.client.PendingNonceAt(ctx, common.HexToAddress(intent.FromAddress))
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}
	price, err := a.gasPrice(ctx)
	if err != nil {
		return nil, err
	}

	to := common.HexToAddress(intent.ToAddress)
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    intent.Amount.Shift(decimals).BigInt(),
		Gas:      a.gasLimit,
		GasPrice: price,
	})

	return &ports.UnsignedTransfer{
		Family:      domain.ChainFamilyEVM,
		Currency:    intent.Currency,
		FromAddress: intent.FromAddress,
		NetworkFee:  weiToDecimal(new(big.Int).Mul(price, new(big.Int).SetUint64(a.gasLimit))),
		Payload:     tx,
	}, nil
}

// Sign signs with EIP-155 replay protection.
func (a *Adapter) Sign(unsigned *ports.UnsignedTransfer, keyMaterial []byte) (*ports.SignedTransfer, error) {
	tx, ok := unsigned.Payload.(*types.Transaction)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", unsigned.Payload)
	}
	key, err := crypto.ToECDSA(keyMaterial)
	if err != nil {
		return nil, fmt.Errorf("load key: %w", err)
	}
	if from := crypto.PubkeyToAddress(key.PublicKey); from != common.HexToAddress(unsigned.FromAddress) {
		return nil, fmt.Errorf("key does not control %s", unsigned.FromAddress)
	}

	signed, err := types.SignTx(tx, types.NewEIP155Signer(a.chainID), key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}

	return &ports.SignedTransfer{
		Family:  domain.ChainFamilyEVM,
		TxHash:  signed.Hash().Hex(),
		Raw:     raw,
		Payload: signed,
	}, nil
}

// Broadcast hands the transaction to the node's mempool and returns without
// waiting for inclusion.
func (a *Adapter) Broadcast(ctx context.Context, signed *ports.SignedTransfer) (string, error) {
	tx, ok := signed.Payload.(*types.Transaction)
	if !ok {
		tx = new(types.Transaction)
		if err := tx.UnmarshalBinary(signed.Raw); err != nil {
			return "", fmt.Errorf("decode transaction: %w", err)
		}
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return "", err
	}
	if err := a.client.SendTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}

	a.log.Info().Str("hash", tx.Hash().Hex()).Uint64("nonce", tx.Nonce()).Msg("transaction sent")
	return tx.Hash().Hex(), nil
}

func (a *Adapter) gasPrice(ctx context.Context) (*big.Int, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	price, err := a.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}
	if price.Cmp(a.maxGasPrice) > 0 {
		a.log.Warn().Str("suggested", price.String()).Str("cap", a.maxGasPrice.String()).Msg("gas price capped")
		price = new(big.Int).Set(a.maxGasPrice)
	}
	return price, nil
}

func weiToDecimal(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -decimals)
}
