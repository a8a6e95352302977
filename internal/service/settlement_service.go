package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/internal/metrics"
	"custodial-wallet/pkg/apperror"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBroadcastTimeout = 20 * time.Second
	finalizeTimeout         = 5 * time.Second
	unroutableFamily        = domain.ChainFamily("")
)

// SettlementOptions bounds one settlement pass.
type SettlementOptions struct {
	MaxParallelChains int
	BroadcastTimeout  time.Duration
}

// settlementService implements ports.SettlementService.
type settlementService struct {
	txRepo      ports.TransactionRepository
	walletRepo  ports.WalletRepository
	custody     ports.CustodyService
	adapters    ports.AdapterRegistry
	maxParallel int
	timeout     time.Duration
	metrics     *metrics.SettlementMetrics
	log         zerolog.Logger
	now         func() time.Time
}

// NewSettlementService creates a new settlement service.
func NewSettlementService(
	txRepo ports.TransactionRepository,
	walletRepo ports.WalletRepository,
	custody ports.CustodyService,
	adapters ports.AdapterRegistry,
	opts SettlementOptions,
	log zerolog.Logger,
) ports.SettlementService {
	if opts.MaxParallelChains < 1 {
		opts.MaxParallelChains = 1
	}
	if opts.BroadcastTimeout <= 0 {
		opts.BroadcastTimeout = defaultBroadcastTimeout
	}
	return &settlementService{
		txRepo:      txRepo,
		walletRepo:  walletRepo,
		custody:     custody,
		adapters:    adapters,
		maxParallel: opts.MaxParallelChains,
		timeout:     opts.BroadcastTimeout,
		metrics:     metrics.Settlement(),
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type settlementJob struct {
	index   int
	row     domain.Transaction
	adapter ports.ChainAdapter
	err     error
}

// ProcessPendingSettlements claims up to batchSize pending external sends
// and drives each to SUCCESS or FAILED. Families run concurrently, rows of
// one family run in creation order.
func (s *settlementService) ProcessPendingSettlements(ctx context.Context, batchSize int) (*domain.SettlementReport, error) {
	if batchSize < 1 {
		return nil, apperror.Validation("batch_size must be positive")
	}
	defer s.metrics.RecordPass()

	rows, err := s.txRepo.ListPendingExternal(ctx, batchSize)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list pending settlements: %w", err))
	}

	groups := make(map[domain.ChainFamily][]settlementJob)
	var order []domain.ChainFamily
	for i, row := range rows {
		job := settlementJob{index: i, row: row}
		family := unroutableFamily
		job.adapter, job.err = s.adapters.ForCurrency(row.Currency)
		if job.err == nil {
			family = job.adapter.Family()
		}
		if _, ok := groups[family]; !ok {
			order = append(order, family)
		}
		groups[family] = append(groups[family], job)
	}

	results := make([]*domain.SettlementResult, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for _, family := range order {
		jobs := groups[family]
		g.Go(func() error {
			for _, job := range jobs {
				if gctx.Err() != nil {
					return nil
				}
				res := s.settle(gctx, job)
				results[job.index] = &res
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &domain.SettlementReport{Results: make([]domain.SettlementResult, 0, len(rows))}
	for _, res := range results {
		if res == nil {
			continue
		}
		if res.Outcome != domain.SettlementSkipped {
			report.Advanced++
		}
		report.Results = append(report.Results, *res)
	}

	if len(rows) > 0 {
		s.log.Info().
			Int("listed", len(rows)).
			Int("advanced", report.Advanced).
			Msg("settlement pass finished")
	}
	return report, nil
}

// settle claims one row and takes it to a terminal state.
func (s *settlementService) settle(ctx context.Context, job settlementJob) domain.SettlementResult {
	row := job.row
	res := domain.SettlementResult{TransactionID: row.ID, Currency: row.Currency}

	claimed, err := s.txRepo.Claim(ctx, row.ID, s.now())
	if err != nil {
		s.log.Error().Err(err).Str("tx_id", row.ID.String()).Msg("settlement claim failed")
		res.Outcome = domain.SettlementSkipped
		res.Reason = "claim failed"
		s.metrics.RecordOutcome(row.Currency, string(res.Outcome))
		return res
	}
	if !claimed {
		res.Outcome = domain.SettlementSkipped
		res.Reason = "claimed by another pass"
		s.metrics.RecordOutcome(row.Currency, string(res.Outcome))
		return res
	}

	// A claimed row is driven to a terminal state even if the pass is
	// cancelled. Only the broadcast timeout can fail a submission.
	ctx = context.WithoutCancel(ctx)
	hash, sendErr := s.send(ctx, job)

	fctx, cancel := context.WithTimeout(ctx, finalizeTimeout)
	defer cancel()

	if sendErr != nil {
		res.Outcome = domain.SettlementFailed
		res.Reason = sendErr.Error()
		ok, err := s.txRepo.MarkFailed(fctx, row.ID, res.Reason, s.now())
		if err != nil || !ok {
			s.log.Error().Err(err).Str("tx_id", row.ID.String()).Msg("could not mark settlement failed")
		}
		s.log.Warn().
			Str("tx_id", row.ID.String()).
			Str("currency", row.Currency).
			Str("reason", res.Reason).
			Msg("settlement failed")
	} else {
		res.Outcome = domain.SettlementSucceeded
		res.SettlementHash = hash
		ok, err := s.txRepo.MarkSucceeded(fctx, row.ID, hash, s.now())
		if err != nil || !ok {
			s.log.Error().Err(err).Str("tx_id", row.ID.String()).Str("hash", hash).Msg("broadcast succeeded but row not marked")
		}
		s.log.Info().
			Str("tx_id", row.ID.String()).
			Str("currency", row.Currency).
			Str("hash", hash).
			Msg("settlement broadcast")
	}

	s.metrics.RecordOutcome(row.Currency, string(res.Outcome))
	return res
}

// send builds, signs and broadcasts one claimed row.
func (s *settlementService) send(ctx context.Context, job settlementJob) (string, error) {
	row := job.row
	if job.err != nil {
		return "", job.err
	}
	if row.FromWalletID == nil || row.ExternalAddress == nil {
		return "", errors.New("transaction has no sender or destination")
	}

	sender, err := s.walletRepo.GetByID(ctx, *row.FromWalletID)
	if err != nil {
		return "", fmt.Errorf("load sender wallet: %w", err)
	}
	if sender == nil {
		return "", apperror.ErrNotFound("Wallet")
	}
	if sender.ChainAddress == nil {
		return "", apperror.ErrKeyUnavailable()
	}

	adapter := job.adapter
	intent := ports.TransferIntent{
		Currency:    row.Currency,
		FromAddress: *sender.ChainAddress,
		ToAddress:   *row.ExternalAddress,
		Amount:      row.Amount,
		Memo:        row.Reference,
	}

	bctx, cancel := context.WithTimeout(ctx, s.timeout)
	unsigned, err := adapter.Build(bctx, intent)
	cancel()
	if err != nil {
		return "", fmt.Errorf("build: %w", err)
	}

	signed, err := s.custody.SignTransfer(ctx, sender.OwnerID, adapter.Family(), unsigned, adapter)
	if err != nil {
		return "", err
	}

	bctx, cancel = context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	hash, err := adapter.Broadcast(bctx, signed)
	s.metrics.ObserveBroadcast(string(adapter.Family()), time.Since(start))
	if err != nil {
		return "", apperror.ErrBroadcastFailure(err)
	}
	if hash == "" {
		hash = signed.TxHash
	}
	return hash, nil
}
