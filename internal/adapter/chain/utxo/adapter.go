// Package utxo settles bitcoin-style chains by spending P2PKH outputs found
// through an Esplora explorer.
package utxo

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"

	"custodial-wallet/config"
	"custodial-wallet/internal/adapter/chain"
	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	decimals = 8

	// P2PKH size estimate in vbytes.
	baseSize   = 10
	inputSize  = 148
	outputSize = 34

	dustLimit     = 546
	rbfSequence   = 0xfffffffd
	defaultTarget = 6
)

var errInsufficientOutputs = errors.New("spendable outputs do not cover amount and fee")

// unsignedTx is the Build payload: the transaction plus the script every
// input spends.
type unsignedTx struct {
	tx       *wire.MsgTx
	pkScript []byte
	values   []int64
}

// Adapter implements ports.ChainAdapter for the UTXO family.
type Adapter struct {
	explorer      *esplora
	params        *chaincfg.Params
	fallbackRate  int64
	confirmTarget int
	limiter       *rate.Limiter
	log           zerolog.Logger
}

// New creates a UTXO adapter. A nil client gets a 30s timeout client.
func New(cfg config.UTXOConfig, client *http.Client, log zerolog.Logger) (*Adapter, error) {
	params, err := ParamsFor(cfg.Network)
	if err != nil {
		return nil, err
	}
	target := cfg.ConfirmTarget
	if target <= 0 {
		target = defaultTarget
	}
	fallback := cfg.FallbackFeeRate
	if fallback <= 0 {
		fallback = 1
	}
	return &Adapter{
		explorer:      newEsplora(cfg.ExplorerURL, client),
		params:        params,
		fallbackRate:  fallback,
		confirmTarget: target,
		limiter:       chain.NewLimiter(cfg.RequestsPerSecond),
		log:           log.With().Str("chain_family", string(domain.ChainFamilyUTXO)).Logger(),
	}, nil
}

func (a *Adapter) Family() domain.ChainFamily { return domain.ChainFamilyUTXO }

// ValidateAddress accepts any address encoding of the configured network.
func (a *Adapter) ValidateAddress(address string) error {
	_, err := a.decode(address)
	return err
}

// EstimateFee prices a one-input, two-output spend at the current rate.
func (a *Adapter) EstimateFee(ctx context.Context) (decimal.Decimal, error) {
	satPerVB, err := a.feeRate(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(satPerVB*txSize(1, 2), -decimals), nil
}

// Build selects confirmed outputs largest-first and pays any change above
// the dust limit back to the sender.
func (a *Adapter) Build(ctx context.Context, intent ports.TransferIntent) (*ports.UnsignedTransfer, error) {
	dest, err := a.decode(intent.ToAddress)
	if err != nil {
		return nil, err
	}
	from, err := a.decode(intent.FromAddress)
	if err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	if !intent.Amount.IsPositive() || !intent.Amount.Equal(intent.Amount.Truncate(decimals)) {
		return nil, fmt.Errorf("amount %s is not representable in satoshis", intent.Amount)
	}
	amount := intent.Amount.Shift(decimals).IntPart()
	if amount < dustLimit {
		return nil, fmt.Errorf("amount %d sat is below the dust limit", amount)
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	outs, err := a.explorer.outputs(ctx, intent.FromAddress)
	if err != nil {
		return nil, err
	}
	satPerVB, err := a.feeRate(ctx)
	if err != nil {
		return nil, err
	}

	selected, fee, change, err := selectOutputs(outs, amount, satPerVB)
	if err != nil {
		return nil, err
	}

	destScript, err := txscript.PayToAddrScript(dest)
	if err != nil {
		return nil, fmt.Errorf("destination script: %w", err)
	}
	fromScript, err := txscript.PayToAddrScript(from)
	if err != nil {
		return nil, fmt.Errorf("sender script: %w", err)
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	values := make([]int64, 0, len(selected))
	for _, o := range selected {
		hash, err := chainhash.NewHashFromStr(o.TxID)
		if err != nil {
			return nil, fmt.Errorf("invalid txid %q: %w", o.TxID, err)
		}
		in := wire.NewTxIn(wire.NewOutPoint(hash, o.Vout), nil, nil)
		in.Sequence = rbfSequence
		tx.AddTxIn(in)
		values = append(values, o.Value)
	}
	tx.AddTxOut(wire.NewTxOut(amount, destScript))
	if change > 0 {
		tx.AddTxOut(wire.NewTxOut(change, fromScript))
	}

	return &ports.UnsignedTransfer{
		Family:      domain.ChainFamilyUTXO,
		Currency:    intent.Currency,
		FromAddress: intent.FromAddress,
		NetworkFee:  decimal.New(fee, -decimals),
		Payload:     &unsignedTx{tx: tx, pkScript: fromScript, values: values},
	}, nil
}

// Sign fills every input's signature script on a copy of the payload.
func (a *Adapter) Sign(unsigned *ports.UnsignedTransfer, keyMaterial []byte) (*ports.SignedTransfer, error) {
	payload, ok := unsigned.Payload.(*unsignedTx)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", unsigned.Payload)
	}
	if len(keyMaterial) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("key material must be %d bytes", btcec.PrivKeyBytesLen)
	}
	priv, pub := btcec.PrivKeyFromBytes(keyMaterial)
	addr, err := p2pkh(pub, a.params)
	if err != nil {
		return nil, err
	}
	if addr.EncodeAddress() != unsigned.FromAddress {
		return nil, fmt.Errorf("key does not control %s", unsigned.FromAddress)
	}

	tx := payload.tx.Copy()
	for i := range tx.TxIn {
		script, err := txscript.SignatureScript(tx, i, payload.pkScript, txscript.SigHashAll, priv, true)
		if err != nil {
			return nil, fmt.Errorf("sign input %d: %w", i, err)
		}
		tx.TxIn[i].SignatureScript = script
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("serialize transaction: %w", err)
	}

	return &ports.SignedTransfer{
		Family:  domain.ChainFamilyUTXO,
		TxHash:  tx.TxHash().String(),
		Raw:     buf.Bytes(),
		Payload: tx,
	}, nil
}

func (a *Adapter) Broadcast(ctx context.Context, signed *ports.SignedTransfer) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", err
	}
	txid, err := a.explorer.broadcast(ctx, hex.EncodeToString(signed.Raw))
	if err != nil {
		return "", err
	}
	a.log.Info().Str("txid", txid).Msg("transaction broadcast")
	return txid, nil
}

// feeRate returns sat/vB for the confirmation target, falling back to the
// configured rate when the explorer has no estimate.
func (a *Adapter) feeRate(ctx context.Context) (int64, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	est, err := a.explorer.feeEstimates(ctx)
	if err != nil {
		a.log.Warn().Err(err).Int64("fallback", a.fallbackRate).Msg("fee estimate unavailable")
		return a.fallbackRate, nil
	}
	if satPerVB, ok := closestTarget(est, a.confirmTarget); ok {
		return int64(math.Ceil(satPerVB)), nil
	}
	return a.fallbackRate, nil
}

func (a *Adapter) decode(address string) (btcutil.Address, error) {
	addr, err := btcutil.DecodeAddress(address, a.params)
	if err != nil {
		return nil, fmt.Errorf("%q is not a valid address: %w", address, err)
	}
	if !addr.IsForNet(a.params) {
		return nil, fmt.Errorf("%q belongs to another network", address)
	}
	return addr, nil
}

// closestTarget picks the estimate for the smallest target at or above want.
func closestTarget(est map[string]float64, want int) (float64, bool) {
	best := -1
	var found float64
	for k, v := range est {
		n, err := strconv.Atoi(k)
		if err != nil || n < want || v <= 0 {
			continue
		}
		if best == -1 || n < best {
			best, found = n, v
		}
	}
	return found, best != -1
}

func txSize(inputs, outputs int) int64 {
	return int64(baseSize + inputs*inputSize + outputs*outputSize)
}

// selectOutputs spends confirmed outputs largest-first until amount plus fee
// is covered. Change below the dust limit is left to the miner.
func selectOutputs(outs []output, amount, satPerVB int64) ([]output, int64, int64, error) {
	confirmed := make([]output, 0, len(outs))
	for _, o := range outs {
		if o.Status.Confirmed {
			confirmed = append(confirmed, o)
		}
	}
	sort.Slice(confirmed, func(i, j int) bool { return confirmed[i].Value > confirmed[j].Value })

	var total int64
	for i, o := range confirmed {
		total += o.Value
		n := i + 1

		fee := satPerVB * txSize(n, 2)
		if change := total - amount - fee; change >= dustLimit {
			return confirmed[:n], fee, change, nil
		}
		if fee := satPerVB * txSize(n, 1); total >= amount+fee {
			return confirmed[:n], total - amount, 0, nil
		}
	}
	return nil, 0, 0, errInsufficientOutputs
}
