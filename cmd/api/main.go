package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"custodial-wallet/config"
	"custodial-wallet/internal/adapter/chain"
	"custodial-wallet/internal/adapter/chain/accountledger"
	"custodial-wallet/internal/adapter/chain/evm"
	"custodial-wallet/internal/adapter/chain/utxo"
	httpHandler "custodial-wallet/internal/adapter/http/handler"
	"custodial-wallet/internal/adapter/http/middleware"
	memStorage "custodial-wallet/internal/adapter/storage/memory"
	pgStorage "custodial-wallet/internal/adapter/storage/postgres"
	redisStorage "custodial-wallet/internal/adapter/storage/redis"
	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/internal/service"
	"custodial-wallet/internal/worker"
	"custodial-wallet/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// storage bundles the repositories of one storage driver.
type storage struct {
	wallets      ports.WalletRepository
	transactions ports.TransactionRepository
	quotes       ports.QuoteRepository
	keys         ports.KeyRepository
	transactor   ports.DBTransactor
	health       ports.HealthChecker
	close        func()
}

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Str("storage", cfg.Storage.Driver).
		Int("port", cfg.Server.Port).
		Msg("Starting Custodial Wallet")

	ctx := context.Background()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.close()

	catalogue, err := buildCatalogue(cfg.Ledger)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid currency catalogue")
	}

	staticSnapshots, err := service.NewStaticSnapshotSource(
		feesOf(cfg.Ledger),
		cfg.Ledger.RatePairs(),
		cfg.Ledger.SwapFeeRate,
		cfg.Ledger.QuoteTTL,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid ledger snapshot")
	}

	// Redis is optional: without it idempotency falls back to the database
	// path and rate limiting is disabled.
	var (
		idempCache     ports.IdempotencyCache = memStorage.NewIdempotencyCache()
		snapshots      ports.SnapshotSource   = staticSnapshots
		rateLimitStore middleware.RateLimitStore
		healthCheckers = []ports.HealthChecker{store.health}
	)
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()

		snapshotStore := redisStorage.NewSnapshotStore(rdb, staticSnapshots, logger.Component(log, "snapshot"))
		if err := snapshotStore.Seed(ctx); err != nil {
			log.Warn().Err(err).Msg("Could not seed ledger snapshot in Redis")
		}

		idempCache = redisStorage.NewIdempotencyCache(rdb)
		snapshots = snapshotStore
		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	}

	registry, err := buildRegistry(ctx, cfg.Chains, catalogue, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register chain adapters")
	}

	var feeAccount *uuid.UUID
	if cfg.Ledger.FeeAccount != "" {
		id, err := uuid.Parse(cfg.Ledger.FeeAccount)
		if err != nil {
			log.Fatal().Err(err).Msg("ledger.fee_account is not a uuid")
		}
		feeAccount = &id
	}

	// Initialize core services
	masterKey, _ := cfg.Custody.MasterKeyBytes()
	encSvc, err := service.NewAESEncryptionService(masterKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	custodySvc := service.NewCustodyService(store.keys, store.wallets, store.transactor, encSvc, registry, catalogue, logger.Component(log, "custody"))
	ledgerSvc := service.NewLedgerService(
		store.wallets,
		store.transactions,
		store.quotes,
		store.keys,
		idempCache,
		store.transactor,
		registry,
		snapshots,
		service.LedgerOptions{Catalogue: catalogue, FeeAccount: feeAccount},
		logger.Component(log, "ledger"),
	)
	settlementSvc := service.NewSettlementService(
		store.transactions,
		store.wallets,
		custodySvc,
		registry,
		service.SettlementOptions{
			MaxParallelChains: cfg.Settlement.MaxParallelChains,
			BroadcastTimeout:  cfg.Settlement.BroadcastTimeout,
		},
		logger.Component(log, "settlement"),
	)
	reportingSvc := service.NewReportingService(store.wallets, store.keys, store.transactions, cfg.Settlement.StalledAfter)

	// Background workers
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	var scheduler *worker.SettlementScheduler
	if cfg.Settlement.SchedulerEnabled {
		scheduler = worker.NewSettlementScheduler(settlementSvc, cfg.Settlement.Interval, cfg.Settlement.BatchSize, log)
		go scheduler.Start(workerCtx)
	}
	janitor := worker.NewQuoteJanitor(store.quotes, cfg.Settlement.QuotePurgeEvery, cfg.Settlement.QuoteRetention, log)
	go janitor.Start(workerCtx)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Ledger:         ledgerSvc,
		Custody:        custodySvc,
		Reporting:      reportingSvc,
		Settlement:     settlementSvc,
		Adapters:       registry,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: healthCheckers,
		BatchSize:      cfg.Settlement.BatchSize,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	if scheduler != nil {
		scheduler.Stop()
	}
	janitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	if cfg.Storage.Driver == "memory" {
		log.Warn().Msg("Using in-memory storage, balances are lost on restart")
		mem := memStorage.New()
		return &storage{
			wallets:      memStorage.NewWalletRepo(mem),
			transactions: memStorage.NewTransactionRepo(mem),
			quotes:       memStorage.NewQuoteRepo(mem),
			keys:         memStorage.NewKeyRepo(mem),
			transactor:   mem,
			health:       mem,
			close:        func() {},
		}, nil
	}

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := pgStorage.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &storage{
		wallets:      pgStorage.NewWalletRepo(pool),
		transactions: pgStorage.NewTransactionRepo(pool),
		quotes:       pgStorage.NewQuoteRepo(pool),
		keys:         pgStorage.NewKeyRepo(pool),
		transactor:   pgStorage.NewTransactor(pool),
		health:       pgStorage.NewHealthCheck(pool),
		close:        pool.Close,
	}, nil
}

func buildCatalogue(cfg config.LedgerConfig) (domain.Catalogue, error) {
	cat := make(domain.Catalogue)
	for code, c := range cfg.CurrencyCodes() {
		family := domain.ChainFamily(c.Family)
		if family != "" && !family.Valid() {
			return nil, fmt.Errorf("currency %s: unknown chain family %q", code, c.Family)
		}
		if c.Decimals < 0 || c.Decimals > 18 {
			return nil, fmt.Errorf("currency %s: decimals %d out of range", code, c.Decimals)
		}
		cat[code] = domain.Currency{Code: code, Decimals: c.Decimals, Family: family}
	}
	return cat, nil
}

func feesOf(cfg config.LedgerConfig) map[string]string {
	out := make(map[string]string)
	for code, c := range cfg.CurrencyCodes() {
		if c.NetworkFee != "" {
			out[code] = c.NetworkFee
		}
	}
	return out
}

// buildRegistry registers an adapter for every chain family with an
// endpoint configured. Families without one stay internal-only.
func buildRegistry(ctx context.Context, cfg config.ChainsConfig, catalogue domain.Catalogue, log zerolog.Logger) (*chain.Registry, error) {
	registry := chain.NewRegistry(catalogue)

	if cfg.AccountLedger.HorizonURL != "" {
		adapter := accountledger.New(cfg.AccountLedger, accountledger.NewClient(cfg.AccountLedger), log)
		if err := registry.Register(adapter, accountledger.KeyGenerator{}); err != nil {
			return nil, err
		}
	}

	if cfg.EVM.RPCURL != "" {
		client, err := evm.Dial(ctx, cfg.EVM)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(evm.New(cfg.EVM, client, log), evm.KeyGenerator{}); err != nil {
			return nil, err
		}
	}

	if cfg.UTXO.ExplorerURL != "" {
		adapter, err := utxo.New(cfg.UTXO, nil, log)
		if err != nil {
			return nil, err
		}
		gen, err := utxo.NewKeyGenerator(cfg.UTXO.Network)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(adapter, gen); err != nil {
			return nil, err
		}
	}

	families := make([]string, 0, 3)
	for _, f := range registry.Families() {
		families = append(families, string(f))
	}
	log.Info().Str("families", strings.Join(families, ",")).Msg("Chain adapters registered")
	return registry, nil
}
