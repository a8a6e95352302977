// Package worker runs timer-driven background jobs.
package worker

import (
	"context"
	"sync"
	"time"

	"custodial-wallet/internal/core/ports"

	"github.com/rs/zerolog"
)

// SettlementScheduler runs a settlement pass every interval.
type SettlementScheduler struct {
	settlement ports.SettlementService
	interval   time.Duration
	batchSize  int
	log        zerolog.Logger

	stopChan chan struct{}
	stopOnce sync.Once
}

func NewSettlementScheduler(settlement ports.SettlementService, interval time.Duration, batchSize int, log zerolog.Logger) *SettlementScheduler {
	return &SettlementScheduler{
		settlement: settlement,
		interval:   interval,
		batchSize:  batchSize,
		log:        log.With().Str("worker", "settlement").Logger(),
		stopChan:   make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called. A pass never
// overlaps the next one.
func (s *SettlementScheduler) Start(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Int("batch_size", s.batchSize).Msg("starting settlement scheduler")
	runEvery(ctx, s.stopChan, s.interval, s.runPass)
	s.log.Info().Msg("settlement scheduler stopped")
}

func (s *SettlementScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *SettlementScheduler) runPass(ctx context.Context) {
	report, err := s.settlement.ProcessPendingSettlements(ctx, s.batchSize)
	if err != nil {
		s.log.Error().Err(err).Msg("settlement pass failed")
		return
	}
	if report.Advanced > 0 {
		s.log.Info().Int("advanced", report.Advanced).Int("listed", len(report.Results)).Msg("settlement pass complete")
	}
}

func runEvery(ctx context.Context, stop <-chan struct{}, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fn(ctx)
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
