package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"custodial-wallet/config"
	"custodial-wallet/internal/adapter/chain"
	"custodial-wallet/internal/adapter/chain/evm"
	httpHandler "custodial-wallet/internal/adapter/http/handler"
	memStorage "custodial-wallet/internal/adapter/storage/memory"
	redisStorage "custodial-wallet/internal/adapter/storage/redis"
	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testMasterKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	testChainID   = 11155111
	recipient     = "0x52908400098527886E0F7030069857D2E4169EE7"
)

// fakeNode stands in for an EVM JSON-RPC endpoint.
type fakeNode struct {
	mu      sync.Mutex
	nonce   uint64
	sent    []*types.Transaction
	sendErr error
}

func (n *fakeNode) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nonce, nil
}

func (n *fakeNode) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (n *fakeNode) SendTransaction(_ context.Context, tx *types.Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, tx)
	n.nonce++
	return nil
}

func (n *fakeNode) failWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sendErr = err
}

func (n *fakeNode) transactions() []*types.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*types.Transaction(nil), n.sent...)
}

// testApp wires the real services over the in-memory store and miniredis
// behind the HTTP router.
type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
	node   *fakeNode
	token  string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	catalogue := domain.Catalogue{
		"ETH": {Code: "ETH", Decimals: 18, Family: domain.ChainFamilyEVM},
		"PI":  {Code: "PI", Decimals: 7, Family: domain.ChainFamilyAccountLedger},
		"USD": {Code: "USD", Decimals: 2},
	}

	static, err := service.NewStaticSnapshotSource(
		map[string]string{"ETH": "0.0005", "PI": "1"},
		map[string]string{"PI/USD": "314159"},
		"0.005",
		time.Minute,
	)
	require.NoError(t, err)
	snapshots := redisStorage.NewSnapshotStore(rdb, static, log)
	require.NoError(t, snapshots.Seed(context.Background()))

	node := &fakeNode{}
	registry := chain.NewRegistry(catalogue)
	adapter := evm.New(config.EVMConfig{ChainID: testChainID, GasLimit: 21000, MaxGasPriceGwei: 100}, node, log)
	require.NoError(t, registry.Register(adapter, evm.KeyGenerator{}))

	store := memStorage.New()
	wallets := memStorage.NewWalletRepo(store)
	txns := memStorage.NewTransactionRepo(store)
	quotes := memStorage.NewQuoteRepo(store)
	keys := memStorage.NewKeyRepo(store)

	masterKey, err := config.CustodyConfig{MasterKey: testMasterKey}.MasterKeyBytes()
	require.NoError(t, err)
	encSvc, err := service.NewAESEncryptionService(masterKey)
	require.NoError(t, err)
	tokenSvc := service.NewJWTTokenService("integration-secret", time.Hour, "custodial-wallet")

	custodySvc := service.NewCustodyService(keys, wallets, store, encSvc, registry, catalogue, log)
	ledgerSvc := service.NewLedgerService(
		wallets, txns, quotes, keys,
		redisStorage.NewIdempotencyCache(rdb),
		store, registry, snapshots,
		service.LedgerOptions{Catalogue: catalogue},
		log,
	)
	settlementSvc := service.NewSettlementService(txns, wallets, custodySvc, registry, service.SettlementOptions{MaxParallelChains: 2}, log)
	reportingSvc := service.NewReportingService(wallets, keys, txns, time.Minute)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Ledger:         ledgerSvc,
		Custody:        custodySvc,
		Reporting:      reportingSvc,
		Settlement:     settlementSvc,
		Adapters:       registry,
		TokenSvc:       tokenSvc,
		RateLimitStore: redisStorage.NewRateLimitStore(rdb),
		HealthCheckers: []ports.HealthChecker{store, redisStorage.NewHealthCheck(rdb)},
		BatchSize:      50,
		Logger:         log,
	})

	token, _, err := tokenSvc.Generate("crud-service")
	require.NoError(t, err)

	app := &testApp{server: httptest.NewServer(router), redis: mr, node: node, token: token}
	t.Cleanup(func() {
		app.server.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return app
}

// envelope covers both the success and the error body.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	ErrorCode string          `json:"error_code"`
	Message   string          `json:"message"`
}

type txBody struct {
	ID             string  `json:"id"`
	Reference      string  `json:"reference"`
	Type           string  `json:"type"`
	Status         string  `json:"status"`
	Amount         string  `json:"amount"`
	Fee            string  `json:"fee"`
	Currency       string  `json:"currency"`
	TargetAmount   *string `json:"target_amount"`
	SettlementHash *string `json:"settlement_hash"`
	FailureReason  *string `json:"failure_reason"`
	RetryOf        *string `json:"retry_of"`
	ResolvedBy     *string `json:"resolved_by"`
	Replayed       bool    `json:"replayed"`
}

type accountBody struct {
	Wallets []struct {
		Currency     string  `json:"currency"`
		Balance      string  `json:"balance"`
		ChainAddress *string `json:"chain_address"`
	} `json:"wallets"`
	Keys map[string]string `json:"keys"`
}

// call sends an authenticated JSON request. It is safe to use from
// goroutines as long as the caller only inspects the returned values.
func (a *testApp) call(method, path string, body any) (int, envelope, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, envelope{}, err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	if err != nil {
		return 0, envelope{}, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, envelope{}, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, envelope{}, err
	}
	return resp.StatusCode, env, nil
}

func (a *testApp) do(t *testing.T, method, path string, body any, wantStatus int) envelope {
	t.Helper()
	status, env, err := a.call(method, path, body)
	require.NoError(t, err)
	require.Equal(t, wantStatus, status, "%s %s: %s %s", method, path, env.ErrorCode, env.Message)
	return env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (a *testApp) balance(t *testing.T, owner, currency string) decimal.Decimal {
	t.Helper()
	acct := decode[accountBody](t, a.do(t, http.MethodGet, "/api/v1/accounts/"+owner, nil, http.StatusOK))
	for _, w := range acct.Wallets {
		if w.Currency == currency {
			return decimal.RequireFromString(w.Balance)
		}
	}
	return decimal.Zero
}

func (a *testApp) provision(t *testing.T, owner string) string {
	t.Helper()
	env := a.do(t, http.MethodPost, "/api/v1/keys", map[string]string{
		"owner_id":     owner,
		"chain_family": "evm",
	}, http.StatusCreated)
	return decode[map[string]string](t, env)["address"]
}

func (a *testApp) deposit(t *testing.T, owner, currency, amount, reference string) txBody {
	t.Helper()
	env := a.do(t, http.MethodPost, "/api/v1/deposits", map[string]string{
		"owner_id":  owner,
		"currency":  currency,
		"amount":    amount,
		"reference": reference,
	}, http.StatusCreated)
	return decode[txBody](t, env)
}

func (a *testApp) runSettlements(t *testing.T) domain.SettlementReport {
	t.Helper()
	env := a.do(t, http.MethodPost, "/internal/settlements/run", nil, http.StatusOK)
	return decode[domain.SettlementReport](t, env)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
