package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"cryptovest.backend/pkg/logger"
)

const (
	defaultMaturityInterval = time.Minute
	defaultMaturityBatch    = 100
)

// MaturitySettler completes positions whose term has ended
type MaturitySettler interface {
	CompleteMatured(ctx context.Context, asOf time.Time, limit int) (int, error)
}

// InvestmentMaturityJob periodically settles matured investment positions
type InvestmentMaturityJob struct {
	settler  MaturitySettler
	interval time.Duration
	batch    int
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

func NewInvestmentMaturityJob(settler MaturitySettler, interval time.Duration, batch int) *InvestmentMaturityJob {
	if interval <= 0 {
		interval = defaultMaturityInterval
	}
	if batch <= 0 {
		batch = defaultMaturityBatch
	}
	return &InvestmentMaturityJob{
		settler:  settler,
		interval: interval,
		batch:    batch,
		now:      func() time.Time { return time.Now().UTC() },
		stop:     make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called.
func (j *InvestmentMaturityJob) Start(ctx context.Context) {
	logger.Info(ctx, "Starting investment maturity job", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Investment maturity job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Investment maturity job stopped")
			return
		case <-ticker.C:
			j.settleMatured(ctx)
		}
	}
}

func (j *InvestmentMaturityJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

func (j *InvestmentMaturityJob) settleMatured(ctx context.Context) {
	settled, err := j.settler.CompleteMatured(ctx, j.now(), j.batch)
	if err != nil {
		logger.Error(ctx, "Error settling matured investments", zap.Error(err))
		return
	}
	if settled == 0 {
		return
	}
	logger.Info(ctx, "Settled matured investments", zap.Int("count", settled))
}
