// Package accountledger settles account-model chains speaking the Stellar
// protocol, such as Pi Network, through a Horizon server.
package accountledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"custodial-wallet/config"
	"custodial-wallet/internal/adapter/chain"
	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"
	"golang.org/x/time/rate"
)

const (
	decimals       = 7
	maxMemoBytes   = 28
	defaultTimeout = 180 * time.Second
)

var errNotSuccessful = errors.New("transaction was not successful")

// horizonAPI is the part of horizonclient.Client the adapter uses.
type horizonAPI interface {
	AccountDetail(request horizonclient.AccountRequest) (horizon.Account, error)
	SubmitTransactionXDR(transactionXdr string) (horizon.Transaction, error)
}

// Adapter implements ports.ChainAdapter for the account-ledger family.
type Adapter struct {
	client     horizonAPI
	passphrase string
	baseFee    int64
	txTimeout  time.Duration
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// NewClient returns a Horizon client for cfg.
func NewClient(cfg config.AccountLedgerConfig) *horizonclient.Client {
	return &horizonclient.Client{HorizonURL: cfg.HorizonURL}
}

// New creates an account-ledger adapter over client.
func New(cfg config.AccountLedgerConfig, client horizonAPI, log zerolog.Logger) *Adapter {
	baseFee := cfg.BaseFee
	if baseFee < txnbuild.MinBaseFee {
		baseFee = txnbuild.MinBaseFee
	}
	timeout := cfg.TxTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Adapter{
		client:     client,
		passphrase: cfg.NetworkPassphrase,
		baseFee:    baseFee,
		txTimeout:  timeout,
		limiter:    chain.NewLimiter(cfg.RequestsPerSecond),
		log:        log.With().Str("chain_family", string(domain.ChainFamilyAccountLedger)).Logger(),
	}
}

func (a *Adapter) Family() domain.ChainFamily { return domain.ChainFamilyAccountLedger }

// ValidateAddress accepts ed25519 public keys in strkey form (G...).
func (a *Adapter) ValidateAddress(address string) error {
	if !strkey.IsValidEd25519PublicKey(address) {
		return fmt.Errorf("%q is not a valid account address", address)
	}
	return nil
}

// EstimateFee is the flat base fee of a single-operation transaction.
func (a *Adapter) EstimateFee(context.Context) (decimal.Decimal, error) {
	return decimal.New(a.baseFee, -decimals), nil
}

// Build fetches the sender's sequence and prepares a native payment.
func (a *Adapter) Build(ctx context.Context, intent ports.TransferIntent) (*ports.UnsignedTransfer, error) {
	if err := a.ValidateAddress(intent.ToAddress); err != nil {
		return nil, err
	}
	if !intent.Amount.IsPositive() || !intent.Amount.Equal(intent.Amount.Truncate(decimals)) {
		return nil, fmt.Errorf("amount %s is not representable in stroops", intent.Amount)
	}

	account, err := call(ctx, a.limiter, func() (horizon.Account, error) {
		return a.client.AccountDetail(horizonclient.AccountRequest{AccountID: intent.FromAddress})
	})
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", intent.FromAddress, err)
	}
	seq, err := account.GetSequenceNumber()
	if err != nil {
		return nil, fmt.Errorf("read sequence: %w", err)
	}

	source := txnbuild.NewSimpleAccount(intent.FromAddress, seq)
	params := txnbuild.TransactionParams{
		SourceAccount:        &source,
		IncrementSequenceNum: true,
		BaseFee:              a.baseFee,
		Operations: []txnbuild.Operation{
			&txnbuild.Payment{
				Destination: intent.ToAddress,
				Amount:      intent.Amount.StringFixed(decimals),
				Asset:       txnbuild.NativeAsset{},
			},
		},
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(int64(a.txTimeout / time.Second)),
		},
	}
	if intent.Memo != "" {
		params.Memo = memoText(intent.Memo)
	}

	tx, err := txnbuild.NewTransaction(params)
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}

	return &ports.UnsignedTransfer{
		Family:      domain.ChainFamilyAccountLedger,
		Currency:    intent.Currency,
		FromAddress: intent.FromAddress,
		NetworkFee:  decimal.New(tx.BaseFee()*int64(len(tx.Operations())), -decimals),
		Payload:     tx,
	}, nil
}

// Sign signs the payload with the raw ed25519 seed in keyMaterial.
func (a *Adapter) Sign(unsigned *ports.UnsignedTransfer, keyMaterial []byte) (*ports.SignedTransfer, error) {
	tx, ok := unsigned.Payload.(*txnbuild.Transaction)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", unsigned.Payload)
	}
	kp, err := fullKeypair(keyMaterial)
	if err != nil {
		return nil, err
	}
	if kp.Address() != unsigned.FromAddress {
		return nil, fmt.Errorf("key does not control %s", unsigned.FromAddress)
	}

	signed, err := tx.Sign(a.passphrase, kp)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	envelope, err := signed.Base64()
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	hash, err := signed.HashHex(a.passphrase)
	if err != nil {
		return nil, fmt.Errorf("hash transaction: %w", err)
	}

	return &ports.SignedTransfer{
		Family:  domain.ChainFamilyAccountLedger,
		TxHash:  hash,
		Raw:     []byte(envelope),
		Payload: signed,
	}, nil
}

// Broadcast submits the envelope and waits for ledger inclusion. Horizon
// answers only once the transaction is applied, so an unsuccessful
// result is a failed send.
func (a *Adapter) Broadcast(ctx context.Context, signed *ports.SignedTransfer) (string, error) {
	resp, err := call(ctx, a.limiter, func() (horizon.Transaction, error) {
		return a.client.SubmitTransactionXDR(string(signed.Raw))
	})
	if err != nil {
		return "", fmt.Errorf("submit transaction: %w", describe(err))
	}
	if !resp.Successful {
		return "", fmt.Errorf("%s: %w", resp.Hash, errNotSuccessful)
	}

	a.log.Info().Str("hash", resp.Hash).Msg("transaction applied")
	return resp.Hash, nil
}

// call runs a blocking Horizon request paced by limiter, returning early
// when ctx is done.
func call[T any](ctx context.Context, limiter *rate.Limiter, fn func() (T, error)) (T, error) {
	var zero T
	if err := limiter.Wait(ctx); err != nil {
		return zero, err
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// memoText cuts s to the protocol's memo limit on a rune boundary.
func memoText(s string) txnbuild.MemoText {
	if len(s) > maxMemoBytes {
		s = strings.ToValidUTF8(s[:maxMemoBytes], "")
	}
	return txnbuild.MemoText(s)
}

// describe adds Horizon result codes to submission errors.
func describe(err error) error {
	var herr *horizonclient.Error
	if !errors.As(err, &herr) {
		return err
	}
	codes, cerr := herr.ResultCodes()
	if cerr != nil || codes == nil {
		return err
	}
	return fmt.Errorf("%w (tx=%s ops=%v)", err, codes.TransactionCode, codes.OperationCodes)
}
