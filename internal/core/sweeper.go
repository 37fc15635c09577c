package core

// sweeper.go expires migration jobs that were dry-run but never imported,
// or whose import finished more than the job TTL ago. Expiring a job drops
// its workbook bytes and tears down its progress topic.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often StartJobSweeper checks for expired jobs.
const DefaultSweepInterval = time.Minute

// StartJobSweeper removes expired jobs every interval until ctx is cancelled.
// It blocks; run it in its own goroutine.
func (s *Service) StartJobSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("job sweeper started",
		"interval", interval.String(),
		"job_ttl", s.opts.JobTTL.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("job sweeper stopped")
			return
		case <-ticker.C:
			s.runSweep()
		}
	}
}

// SweepJobs removes expired jobs now and returns how many were removed.
func (s *Service) SweepJobs() int {
	return s.runSweep()
}

func (s *Service) runSweep() int {
	start := time.Now()
	removed := s.sweepJobs()
	if removed > 0 {
		slog.Info("expired migration jobs removed",
			"jobs_removed", removed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return removed
}
