package scheduler

import (
	"context"
	"time"

	"memodeck_backend/pkg/logger"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

const purgeTimeout = 30 * time.Second

// OTPPurger 清理已使用或过期的验证码
type OTPPurger interface {
	PurgeStale(ctx context.Context) (int64, error)
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	purger    OTPPurger
}

func New(purger OTPPurger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		purger:    purger,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(1).Hour().Do(s.PurgeOTPs); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) PurgeOTPs() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	n, err := s.purger.PurgeStale(ctx)
	if err != nil {
		logger.Log.Error("Failed to purge stale OTPs", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Log.Info("Purged stale OTPs", zap.Int64("count", n))
	}
}
