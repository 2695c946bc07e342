package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"avigram/internal/constants"
	"avigram/internal/models"

	"github.com/sirupsen/logrus"
)

// Poller drives the reconciler on a fixed interval. The interval is a
// tunable, not a contract; ticks that fail are retried with exponential
// backoff before waiting for the next interval.
type Poller struct {
	reconciler  *Reconciler
	intervalSec int
	retryConfig models.RetryConfig
	logger      *logrus.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	running     bool
	mu          sync.Mutex
}

func NewPoller(reconciler *Reconciler, intervalSec int, retryConfig models.RetryConfig, logger *logrus.Logger) *Poller {
	if intervalSec <= 0 {
		intervalSec = constants.DefaultPollIntervalSec
	}
	return &Poller{
		reconciler:  reconciler,
		intervalSec: intervalSec,
		retryConfig: retryConfig,
		logger:      logger,
	}
}

// Start begins the background polling process
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("poller is already running")
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running = true

	p.wg.Add(1)
	go p.pollLoop()

	p.logger.WithField("interval", p.intervalSec).Info("Reconciliation poller started")
	return nil
}

// Stop gracefully stops the polling process, letting the tick in flight
// finish its current account.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	p.logger.Info("Stopping reconciliation poller...")
	p.cancel()
	p.wg.Wait()
	p.running = false
	p.logger.Info("Reconciliation poller stopped")
}

// IsRunning returns whether the poller is currently active
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) pollLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(time.Duration(p.intervalSec) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.tickWithRetry()
		}
	}
}

// tickWithRetry executes a single tick with exponential backoff on failure
func (p *Poller) tickWithRetry() {
	ctx, cancel := context.WithTimeout(p.ctx, time.Duration(constants.DefaultTickTimeoutSec)*time.Second)
	defer cancel()

	backoff := time.Duration(p.retryConfig.InitialBackoffMs) * time.Millisecond
	maxBackoff := time.Duration(p.retryConfig.MaxBackoffMs) * time.Millisecond

	for attempt := 0; attempt < p.retryConfig.MaxAttempts; attempt++ {
		err := p.reconciler.ProcessTick(ctx)
		if err == nil {
			return
		}

		p.logger.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"error":   err,
			"backoff": backoff,
		}).Warn("Reconciliation tick failed, retrying with backoff")

		if attempt < p.retryConfig.MaxAttempts-1 {
			select {
			case <-p.ctx.Done():
				return
			case <-time.After(backoff):
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
		}
	}

	p.logger.Error("Reconciliation tick failed after all retry attempts")
}
