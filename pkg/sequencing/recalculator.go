// Package sequencing owns the deferred recomputation of session
// sequence/week numbers. Destructive bulk mutations (deletes) leave the
// dense 1..N ranking with gaps; callers schedule a background
// recomputation instead of rewriting rows inside the request.
package sequencing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	shared "github.com/pacemate/server/src/go/pkg"
	"github.com/pacemate/server/src/go/pkg/domain/sessionorder"
	"github.com/pacemate/server/src/go/pkg/infrastructure/sentry"
)

// DefaultRunTimeout bounds one user's recomputation run.
const DefaultRunTimeout = 30 * time.Second

// Recalculator schedules full sequence/week recomputations per user.
//
// Schedule never blocks and never returns an error: requests for the
// same user coalesce into one pending run, and every failure inside the
// worker is logged and captured, never surfaced to the caller. There is
// no retry on failure; the next mutation re-triggers recalculation.
type Recalculator struct {
	db         shared.Database
	logger     *slog.Logger
	runTimeout time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
	closed  bool

	wake chan struct{}
	quit chan struct{}
	wg   sync.WaitGroup
}

func NewRecalculator(db shared.Database, logger *slog.Logger) *Recalculator {
	r := &Recalculator{
		db:         db,
		logger:     logger.With("component", "recalculator"),
		runTimeout: DefaultRunTimeout,
		pending:    make(map[string]struct{}),
		wake:       make(chan struct{}, 1),
		quit:       make(chan struct{}),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Schedule queues a recomputation of all of userID's session positions.
// Returns immediately; duplicate requests for a user that is already
// pending collapse into one run.
func (r *Recalculator) Schedule(userID string) {
	if userID == "" {
		return
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn("Recalculation requested after shutdown, dropping", "user_id", userID)
		return
	}
	r.pending[userID] = struct{}{}
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Close stops the worker after draining already-scheduled work.
func (r *Recalculator) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	close(r.quit)
	r.wg.Wait()
}

func (r *Recalculator) run() {
	defer r.wg.Done()
	for {
		select {
		case <-r.wake:
			r.drain()
		case <-r.quit:
			r.drain()
			return
		}
	}
}

func (r *Recalculator) drain() {
	for {
		r.mu.Lock()
		var userID string
		for u := range r.pending {
			userID = u
			break
		}
		if userID == "" {
			r.mu.Unlock()
			return
		}
		delete(r.pending, userID)
		r.mu.Unlock()

		r.recalculate(userID)
	}
}

// recalculate is the error boundary: nothing escapes it.
func (r *Recalculator) recalculate(userID string) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic in recalculation: %v", rec)
			r.logger.Error("Recalculation panicked", "user_id", userID, "error", err)
			sentry.CaptureException(err, map[string]interface{}{"user_id": userID}, r.logger)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.runTimeout)
	defer cancel()

	if err := r.recalculateOnce(ctx, userID); err != nil {
		r.logger.Error("Recalculation failed, positions stay stale until next mutation", "user_id", userID, "error", err)
		sentry.CaptureException(err, map[string]interface{}{"user_id": userID}, r.logger)
	}
}

func (r *Recalculator) recalculateOnce(ctx context.Context, userID string) error {
	sessions, err := r.db.ListDatedSessions(ctx, userID)
	if err != nil {
		return fmt.Errorf("list dated sessions: %w", err)
	}

	current := make(map[string]sessionorder.Position, len(sessions))
	for _, s := range sessions {
		current[s.ID] = sessionorder.Position{Sequence: s.Sequence, Week: s.Week}
	}

	written := 0
	for _, u := range sessionorder.RecomputeAll(sessions) {
		if current[u.SessionID] == u.Position {
			continue
		}
		if err := r.db.UpdateSessionPosition(ctx, userID, u.SessionID, u.Sequence, u.Week); err != nil {
			return fmt.Errorf("write position for session %s: %w", u.SessionID, err)
		}
		written++
	}

	r.logger.Info("Recalculated session positions", "user_id", userID, "sessions", len(sessions), "updated", written)
	return nil
}
