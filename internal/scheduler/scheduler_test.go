package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"bintobloom/internal/logging"
)

type countingRecomputer struct {
	calls int
	err   error
}

func (c *countingRecomputer) RecomputeLeaderboard(ctx context.Context) error {
	c.calls++
	return c.err
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New(&countingRecomputer{}, "not a cron spec", time.UTC, logging.Discard())
	if err := s.Start(); err == nil {
		t.Fatal("expected parse error")
	}
	s.Stop()
}

func TestRecomputeJobSwallowsErrors(t *testing.T) {
	r := &countingRecomputer{err: errors.New("db down")}
	s := New(r, "@every 1h", time.UTC, logging.Discard())

	s.recomputeLeaderboard()
	s.recomputeLeaderboard()

	if r.calls != 2 {
		t.Fatalf("calls = %d, want 2", r.calls)
	}
}

func TestStartStop(t *testing.T) {
	s := New(&countingRecomputer{}, "@every 1h", time.UTC, logging.Discard())
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if len(s.cron.Entries()) != 1 {
		t.Fatalf("entries = %d, want 1", len(s.cron.Entries()))
	}
	s.Stop()
	s.Stop()
}
