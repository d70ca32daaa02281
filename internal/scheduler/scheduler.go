package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// LeaderboardRecomputer is the slice of the leaderboard service the job needs.
type LeaderboardRecomputer interface {
	RecomputeLeaderboard(ctx context.Context) error
}

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	cron        *cron.Cron
	leaderboard LeaderboardRecomputer
	spec        string
	timeout     time.Duration
	log         *slog.Logger
	isRunning   bool
}

func New(leaderboard LeaderboardRecomputer, spec string, loc *time.Location, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(loc)),
		leaderboard: leaderboard,
		spec:        spec,
		timeout:     time.Minute,
		log:         log,
	}
}

// Start registers the leaderboard job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.recomputeLeaderboard); err != nil {
		return err
	}
	s.cron.Start()
	s.isRunning = true
	s.log.Info("scheduler started", "leaderboard_cron", s.spec)
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) recomputeLeaderboard() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.leaderboard.RecomputeLeaderboard(ctx); err != nil {
		s.log.Error("scheduled leaderboard recompute failed", "error", err)
		return
	}
	s.log.Info("scheduled leaderboard recompute done", "duration_ms", time.Since(start).Milliseconds())
}
