package utxo

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"custodial-wallet/config"
	"custodial-wallet/internal/core/ports"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExplorer struct {
	outputs     []output
	feesFail    bool
	broadcasted string
}

func (f *fakeExplorer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/fee-estimates", func(w http.ResponseWriter, r *http.Request) {
		if f.feesFail {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{"1": 20.5, "6": 10.2, "144": 1})
	})
	mux.HandleFunc("/tx", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		f.broadcasted = string(body)
		_, _ = io.WriteString(w, strings.Repeat("c", 64))
	})
	mux.HandleFunc("/address/", func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/utxo"))
		_ = json.NewEncoder(w).Encode(f.outputs)
	})
	return mux
}

func confirmedOutput(txid string, vout uint32, value int64) output {
	o := output{TxID: txid, Vout: vout, Value: value}
	o.Status.Confirmed = true
	return o
}

func newTestAdapter(t *testing.T, explorer *fakeExplorer) *Adapter {
	t.Helper()
	srv := httptest.NewServer(explorer.handler(t))
	t.Cleanup(srv.Close)

	a, err := New(config.UTXOConfig{
		ExplorerURL:     srv.URL + "/",
		Network:         "regtest",
		FallbackFeeRate: 3,
		ConfirmTarget:   6,
	}, srv.Client(), zerolog.Nop())
	require.NoError(t, err)
	return a
}

func newKey(t *testing.T) *ports.GeneratedKey {
	t.Helper()
	gen, err := NewKeyGenerator("regtest")
	require.NoError(t, err)
	key, err := gen.Generate()
	require.NoError(t, err)
	return key
}

func TestKeyGenerator_RoundTrip(t *testing.T) {
	gen, err := NewKeyGenerator("regtest")
	require.NoError(t, err)

	key, err := gen.Generate()
	require.NoError(t, err)
	assert.Len(t, key.Material, 32)

	addr, err := gen.Address(key.Material)
	require.NoError(t, err)
	assert.Equal(t, key.Address, addr)

	_, err = gen.Address([]byte{1, 2, 3})
	assert.Error(t, err)

	_, err = NewKeyGenerator("dogenet")
	assert.Error(t, err)
}

func TestAdapter_ValidateAddress(t *testing.T) {
	a := newTestAdapter(t, &fakeExplorer{})
	key := newKey(t)

	assert.NoError(t, a.ValidateAddress(key.Address))
	assert.Error(t, a.ValidateAddress("1BoatSLRHtKNngkdXEeobR76b53LETtpyT"))
	assert.Error(t, a.ValidateAddress("not-an-address"))
}

func TestAdapter_BuildSignBroadcast(t *testing.T) {
	sender := newKey(t)
	dest := newKey(t)
	explorer := &fakeExplorer{outputs: []output{
		confirmedOutput(strings.Repeat("a", 64), 0, 50_000),
		confirmedOutput(strings.Repeat("b", 64), 1, 100_000),
		{TxID: strings.Repeat("d", 64), Vout: 0, Value: 1_000_000},
	}}
	a := newTestAdapter(t, explorer)

	unsigned, err := a.Build(context.Background(), ports.TransferIntent{
		Currency:    "BTC",
		FromAddress: sender.Address,
		ToAddress:   dest.Address,
		Amount:      decimal.RequireFromString("0.0012"),
	})
	require.NoError(t, err)
	// 11 sat/vB * (10 + 2*148 + 2*34)
	assert.True(t, decimal.RequireFromString("0.00004114").Equal(unsigned.NetworkFee), unsigned.NetworkFee.String())

	signed, err := a.Sign(unsigned, sender.Material)
	require.NoError(t, err)

	tx := signed.Payload.(*wire.MsgTx)
	require.Len(t, tx.TxIn, 2)
	require.Len(t, tx.TxOut, 2)
	assert.Equal(t, int64(120_000), tx.TxOut[0].Value)
	assert.Equal(t, int64(150_000-120_000-4114), tx.TxOut[1].Value)
	assert.Equal(t, uint32(rbfSequence), tx.TxIn[0].Sequence)

	// Largest output is spent first and every input verifies.
	payload := unsigned.Payload.(*unsignedTx)
	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, in := range tx.TxIn {
		fetcher.AddPrevOut(in.PreviousOutPoint, wire.NewTxOut(payload.values[i], payload.pkScript))
	}
	first, _ := chainhash.NewHashFromStr(strings.Repeat("b", 64))
	assert.Equal(t, *first, tx.TxIn[0].PreviousOutPoint.Hash)

	hashes := txscript.NewTxSigHashes(tx, fetcher)
	for i := range tx.TxIn {
		vm, err := txscript.NewEngine(payload.pkScript, tx, i, txscript.StandardVerifyFlags, nil, hashes, payload.values[i], fetcher)
		require.NoError(t, err)
		require.NoError(t, vm.Execute(), "input %d", i)
	}

	// The unsigned payload is left untouched.
	assert.Empty(t, payload.tx.TxIn[0].SignatureScript)

	txid, err := a.Broadcast(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("c", 64), txid)
	assert.Equal(t, hex.EncodeToString(signed.Raw), explorer.broadcasted)
}

func TestAdapter_SignRejectsForeignKey(t *testing.T) {
	sender := newKey(t)
	other := newKey(t)
	a := newTestAdapter(t, &fakeExplorer{outputs: []output{confirmedOutput(strings.Repeat("a", 64), 0, 100_000)}})

	unsigned, err := a.Build(context.Background(), ports.TransferIntent{
		FromAddress: sender.Address,
		ToAddress:   other.Address,
		Amount:      decimal.RequireFromString("0.0005"),
	})
	require.NoError(t, err)

	_, err = a.Sign(unsigned, other.Material)
	assert.ErrorContains(t, err, "does not control")
}

func TestAdapter_BuildRejections(t *testing.T) {
	sender := newKey(t)
	dest := newKey(t)
	a := newTestAdapter(t, &fakeExplorer{outputs: []output{confirmedOutput(strings.Repeat("a", 64), 0, 10_000)}})

	tests := []struct {
		name    string
		to      string
		amount  string
		wantErr string
	}{
		{"bad destination", "nope", "0.0001", "not a valid address"},
		{"sub-satoshi", dest.Address, "0.000010001", "satoshis"},
		{"dust", dest.Address, "0.000001", "dust"},
		{"insufficient", dest.Address, "0.001", errInsufficientOutputs.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Build(context.Background(), ports.TransferIntent{
				FromAddress: sender.Address,
				ToAddress:   tt.to,
				Amount:      decimal.RequireFromString(tt.amount),
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAdapter_EstimateFeeFallsBack(t *testing.T) {
	a := newTestAdapter(t, &fakeExplorer{feesFail: true})

	fee, err := a.EstimateFee(context.Background())
	require.NoError(t, err)
	// 3 sat/vB * 226 vB
	assert.True(t, decimal.RequireFromString("0.00000678").Equal(fee), fee.String())
}

func TestSelectOutputs_DustChangeGoesToFee(t *testing.T) {
	outs := []output{confirmedOutput(strings.Repeat("a", 64), 0, 10_000)}

	selected, fee, change, err := selectOutputs(outs, 9_000, 1)
	require.NoError(t, err)
	assert.Len(t, selected, 1)
	assert.Equal(t, int64(226), fee)
	assert.Equal(t, int64(774), change)

	_, fee, change, err = selectOutputs(outs, 9_300, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(700), fee)
	assert.Zero(t, change)
}

func TestClosestTarget(t *testing.T) {
	est := map[string]float64{"1": 30, "3": 12, "25": 2, "bad": 99}

	got, ok := closestTarget(est, 2)
	require.True(t, ok)
	assert.Equal(t, 12.0, got)

	_, ok = closestTarget(est, 100)
	assert.False(t, ok)
}
