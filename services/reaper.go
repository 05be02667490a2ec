package services

import (
	"context"
	"log"
	"time"
)

// CandidateExpirer is the bulk-expiry operation the reaper drives
type CandidateExpirer interface {
	ExpireStalePending(ctx context.Context, olderThan time.Duration) (int, error)
}

// CandidateReaper periodically deletes abandoned pending candidates. It runs
// once after a warm-up delay, then on a fixed interval, with at most one
// sweep in flight. A failed sweep is logged and retried on the next tick.
type CandidateReaper struct {
	Candidates CandidateExpirer
	Warmup     time.Duration
	Interval   time.Duration
	Staleness  time.Duration
}

// Start launches the reaper loop. The loop stops when ctx is cancelled.
func (cr *CandidateReaper) Start(ctx context.Context) {
	log.Printf("Starting candidate reaper: warmup=%s interval=%s staleness=%s", cr.Warmup, cr.Interval, cr.Staleness)
	go cr.run(ctx)
}

func (cr *CandidateReaper) run(ctx context.Context) {
	warmup := time.NewTimer(cr.Warmup)
	defer warmup.Stop()

	select {
	case <-ctx.Done():
		return
	case <-warmup.C:
	}
	cr.sweep(ctx)

	ticker := time.NewTicker(cr.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Candidate reaper stopped")
			return
		case <-ticker.C:
			cr.sweep(ctx)
		}
	}
}

// sweep runs one cleanup pass, bounded by the tick interval so a stalled
// store call cannot freeze the loop past its next tick.
func (cr *CandidateReaper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, cr.Interval)
	defer cancel()

	start := time.Now()
	removed, err := cr.Candidates.ExpireStalePending(sweepCtx, cr.Staleness)
	if err != nil {
		log.Printf("Candidate cleanup failed: %v", err)
		return
	}
	log.Printf("Candidate cleanup completed in %s. Records affected: %d", time.Since(start).Round(time.Millisecond), removed)
}
