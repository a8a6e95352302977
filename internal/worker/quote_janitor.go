package worker

import (
	"context"
	"sync"
	"time"

	"custodial-wallet/internal/core/ports"

	"github.com/rs/zerolog"
)

// QuoteJanitor purges swap quotes once they have been expired for longer
// than the retention window. Until then a late settle still reports the
// quote as expired rather than unknown.
type QuoteJanitor struct {
	quotes    ports.QuoteRepository
	interval  time.Duration
	retention time.Duration
	log       zerolog.Logger
	now       func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
}

func NewQuoteJanitor(quotes ports.QuoteRepository, interval, retention time.Duration, log zerolog.Logger) *QuoteJanitor {
	return &QuoteJanitor{
		quotes:    quotes,
		interval:  interval,
		retention: retention,
		log:       log.With().Str("worker", "quote_janitor").Logger(),
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
}

func (j *QuoteJanitor) Start(ctx context.Context) {
	runEvery(ctx, j.stopChan, j.interval, j.Purge)
}

func (j *QuoteJanitor) Stop() {
	j.stopOnce.Do(func() { close(j.stopChan) })
}

// Purge deletes every quote that expired before now minus the retention.
func (j *QuoteJanitor) Purge(ctx context.Context) {
	n, err := j.quotes.DeleteExpired(ctx, j.now().UTC().Add(-j.retention))
	if err != nil {
		j.log.Error().Err(err).Msg("purging expired quotes failed")
		return
	}
	if n > 0 {
		j.log.Debug().Int64("purged", n).Msg("expired quotes purged")
	}
}
