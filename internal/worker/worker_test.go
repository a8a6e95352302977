package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSettlementScheduler_RunsPassesUntilStopped(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockSettlementService(ctrl)

	var passes atomic.Int32
	svc.EXPECT().ProcessPendingSettlements(gomock.Any(), 25).
		DoAndReturn(func(context.Context, int) (*domain.SettlementReport, error) {
			if passes.Add(1) == 2 {
				return nil, errors.New("db down")
			}
			return &domain.SettlementReport{Advanced: 1, Results: []domain.SettlementResult{{}}}, nil
		}).MinTimes(3)

	s := NewSettlementScheduler(svc, 5*time.Millisecond, 25, zerolog.Nop())
	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return passes.Load() >= 3 }, time.Second, time.Millisecond)
	s.Stop()
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSettlementScheduler_StopsOnContextCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockSettlementService(ctrl)
	svc.EXPECT().ProcessPendingSettlements(gomock.Any(), gomock.Any()).Times(0)

	ctx, cancel := context.WithCancel(context.Background())
	s := NewSettlementScheduler(svc, time.Hour, 10, zerolog.Nop())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestQuoteJanitor_PurgeKeepsRetentionWindow(t *testing.T) {
	ctrl := gomock.NewController(t)
	quotes := mocks.NewMockQuoteRepository(ctrl)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	j := NewQuoteJanitor(quotes, time.Minute, time.Hour, zerolog.Nop())
	j.now = func() time.Time { return now }
	cutoff := now.Add(-time.Hour)

	quotes.EXPECT().DeleteExpired(gomock.Any(), cutoff).Return(int64(4), nil)
	j.Purge(context.Background())

	quotes.EXPECT().DeleteExpired(gomock.Any(), cutoff).Return(int64(0), errors.New("timeout"))
	assert.NotPanics(t, func() { j.Purge(context.Background()) })
}

func TestQuoteJanitor_Start(t *testing.T) {
	ctrl := gomock.NewController(t)
	quotes := mocks.NewMockQuoteRepository(ctrl)

	var calls atomic.Int32
	quotes.EXPECT().DeleteExpired(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, time.Time) (int64, error) {
			calls.Add(1)
			return 0, nil
		}).MinTimes(1)

	j := NewQuoteJanitor(quotes, 5*time.Millisecond, time.Hour, zerolog.Nop())
	done := make(chan struct{})
	go func() {
		j.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)
	j.Stop()
	<-done
}
