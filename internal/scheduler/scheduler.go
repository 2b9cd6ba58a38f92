package scheduler

import (
	"context"
	"time"

	"gymdesk/internal/autoprocess"
	"gymdesk/internal/logger"
)

type autoProcessor interface {
	GymsWithPolicy(ctx context.Context) ([]int, error)
	ProcessSchedulesAutomatically(ctx context.Context, gymID int) autoprocess.Result
}

// Scheduler periodically runs auto-processing for every gym that has a
// stored policy.
type Scheduler struct {
	processor autoProcessor
	interval  time.Duration
}

func New(processor autoProcessor, interval time.Duration) *Scheduler {
	return &Scheduler{
		processor: processor,
		interval:  interval,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Info("Auto-process scheduler started", "interval", s.interval.String())

	for {
		select {
		case <-ctx.Done():
			logger.Info("Auto-process scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	gymIDs, err := s.processor.GymsWithPolicy(ctx)
	if err != nil {
		logger.Error("Failed to list gyms for auto-processing", "error", err)
		return
	}

	for _, gymID := range gymIDs {
		if ctx.Err() != nil {
			return
		}

		res := s.processor.ProcessSchedulesAutomatically(ctx, gymID)
		if !res.Success {
			logger.Warn("Scheduled auto-process run did not fully succeed",
				"gym_id", gymID,
				"run_id", res.RunID,
				"error", res.Error,
				"failures", len(res.Failures),
			)
		}
	}
}
