// Package worker runs a bounded-concurrency pool of per-user fingerprinting
// tasks over the shared, read-only attribute matrix.
//
// Grounded on the teacher's internal/mempool.Poller run loop (context
// cancellation via select on ctx.Done(), graceful drain) and
// internal/scanner.BlockScanner's atomic progress counters
// (currentHeight/totalScanned as atomic.Int64, isRunning as atomic.Bool).
package worker

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/privacylab/flfp-kernel/internal/kernel"
)

// Progress is a thread-safe snapshot of a pool run, mirroring the shape of
// the teacher's ScanProgress.
type Progress struct {
	TotalDispatched int64
	Completed       int64
	Failed          int64
}

// Pool runs a fixed-size worker pool over an ordered list of user ids,
// calling Task for each. Task errors are recorded, logged, and do not
// abort the run (spec.md §5/§7: a single user's worker failure is
// isolated).
type Pool struct {
	Concurrency int
	Logger      *log.Logger

	completed atomic.Int64
	failed    atomic.Int64
	total     atomic.Int64
	running   atomic.Bool
}

// Task is the per-user unit of work. It must only read from shared state
// (the attribute matrix, equivalence sets); any artifact it writes must be
// scoped to its own user id so concurrent tasks never contend.
type Task func(ctx context.Context, userID string) error

// Run dispatches Task over userIDs in the given (already-ordered) slice,
// bounded by p.Concurrency via errgroup.SetLimit, matching spec.md §5's
// requirement of a deterministic ascending-id dispatch order feeding a
// bounded-concurrency pool.
func (p *Pool) Run(ctx context.Context, userIDs []string, task Task) Progress {
	p.running.Store(true)
	defer p.running.Store(false)
	p.total.Store(int64(len(userIDs)))

	g, gctx := errgroup.WithContext(ctx)
	if p.Concurrency > 0 {
		g.SetLimit(p.Concurrency)
	}

	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if err := p.runOne(gctx, userID, task); err != nil {
				p.failed.Add(1)
				p.logf("user %s: task failed: %v", userID, err)
			} else {
				p.completed.Add(1)
			}
			return nil
		})
	}

	_ = g.Wait() // task errors are isolated above; g.Wait only reports setup errors

	return p.Snapshot()
}

// runOne recovers a panicking task into an ErrWorkerFailure-wrapped error
// instead of taking down the whole pool, matching spec.md §7's requirement
// that a worker failure is logged and the run proceeds.
func (p *Pool) runOne(ctx context.Context, userID string, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", kernel.ErrWorkerFailure, r)
		}
	}()
	return task(ctx, userID)
}

func (p *Pool) logf(format string, args ...interface{}) {
	if p.Logger != nil {
		p.Logger.Printf(format, args...)
	} else {
		log.Printf(format, args...)
	}
}

// Snapshot returns the current progress counters.
func (p *Pool) Snapshot() Progress {
	return Progress{
		TotalDispatched: p.total.Load(),
		Completed:       p.completed.Load(),
		Failed:          p.failed.Load(),
	}
}

// Running reports whether a Run call is currently in flight, matching the
// teacher's BlockScanner.isRunning guard against concurrent duplicate
// scans.
func (p *Pool) Running() bool { return p.running.Load() }
