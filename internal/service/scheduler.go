package service

import (
	"context"
	"time"

	"avigram/internal/constants"

	"github.com/sirupsen/logrus"
)

// Sweeper bounds the correlation table by count on a coarse schedule,
// removing the oldest records beyond the retention ceiling. Pure
// maintenance: every failure is logged and swallowed.
type Sweeper struct {
	store         Store
	ceiling       int64
	intervalHours int
	logger        *logrus.Logger
	stopCh        chan struct{}
}

func NewSweeper(store Store, ceiling int64, intervalHours int, logger *logrus.Logger) *Sweeper {
	if ceiling <= 0 {
		ceiling = constants.DefaultRetentionCeiling
	}
	if intervalHours <= 0 {
		intervalHours = constants.DefaultSweepIntervalHours
	}
	return &Sweeper{
		store:         store,
		ceiling:       ceiling,
		intervalHours: intervalHours,
		logger:        logger,
		stopCh:        make(chan struct{}),
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(s.intervalHours) * time.Hour)
	defer ticker.Stop()

	s.logger.Info("Starting retention sweeper")

	s.runSweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper context cancelled, stopping")
			return
		case <-s.stopCh:
			s.logger.Info("Sweeper stop signal received, stopping")
			return
		case <-ticker.C:
			s.runSweep(ctx)
		}
	}
}

func (s *Sweeper) Stop() {
	close(s.stopCh)
}

func (s *Sweeper) runSweep(ctx context.Context) {
	removed, err := s.store.TrimCorrelations(ctx, s.ceiling)
	if err != nil {
		s.logger.WithError(err).Error("Failed to trim correlation records")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"removed": removed,
		"ceiling": s.ceiling,
	}).Info("Completed retention sweep")
}
