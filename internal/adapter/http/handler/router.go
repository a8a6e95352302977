package handler

import (
	"custodial-wallet/internal/adapter/http/middleware"
	"custodial-wallet/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Ledger         ports.LedgerService
	Custody        ports.CustodyService
	Reporting      ports.ReportingService
	Settlement     ports.SettlementService
	Adapters       ports.AdapterRegistry
	TokenSvc       ports.TokenService
	RateLimitStore middleware.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	BatchSize      int
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20))

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		rule, ok := rules[group]
		if deps.RateLimitStore == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	ledgerHandler := NewLedgerHandler(deps.Ledger)
	keyHandler := NewKeyHandler(deps.Custody)
	accountHandler := NewAccountHandler(deps.Reporting, deps.Adapters)
	settlementHandler := NewSettlementHandler(deps.Settlement, deps.Reporting, deps.BatchSize)

	v1 := r.Group("/api/v1", jwtAuth)
	{
		v1.POST("/keys", rl("keys"), keyHandler.Provision)

		v1.POST("/deposits", rl("ledger"), ledgerHandler.Deposit)
		v1.POST("/withdrawals", rl("ledger"), ledgerHandler.Withdraw)
		v1.POST("/transfers", rl("ledger"), ledgerHandler.Transfer)
		v1.POST("/payments", rl("ledger"), ledgerHandler.Payment)

		v1.POST("/swaps/quotes", rl("swaps"), ledgerHandler.RequestQuote)
		v1.POST("/swaps/quotes/:id/settle", rl("swaps"), ledgerHandler.SettleQuote)

		v1.GET("/transactions/:id", rl("reads"), ledgerHandler.GetTransaction)
		v1.POST("/transactions/:id/resubmit", rl("ledger"), ledgerHandler.Resubmit)
		v1.POST("/transactions/:id/reverse", rl("ledger"), ledgerHandler.Reverse)

		v1.GET("/accounts/:owner_id", rl("reads"), accountHandler.Overview)
		v1.GET("/fees/:currency", rl("reads"), accountHandler.FeeEstimate)
	}

	internal := r.Group("/internal", jwtAuth)
	{
		internal.POST("/settlements/run", rl("internal"), settlementHandler.Run)
		internal.GET("/settlements/stalled", rl("internal"), settlementHandler.Stalled)
	}

	return r
}
