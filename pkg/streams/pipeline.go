// Package streams enriches training sessions with time-series stream
// data fetched from Strava. One bulk call classifies every requested
// session into a terminal state and fetches only for the sessions where
// a network call can actually produce something, tolerating per-item
// failure across the batch.
package streams

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	shared "github.com/pacemate/server/src/go/pkg"
	"github.com/pacemate/server/src/go/pkg/infrastructure/sentry"
	"github.com/pacemate/server/src/go/pkg/types"
)

// DefaultConcurrency bounds parallel Strava calls per bulk invocation.
// Strava's rate limits are account-wide; unbounded fan-out on a large
// batch would trip them.
const DefaultConcurrency = 4

// BulkEnricher orchestrates bulk stream enrichment for one user at a
// time. Safe for concurrent use across users; all coordination is
// through the backing store.
type BulkEnricher struct {
	db      shared.Database
	fetcher shared.StreamFetcher
	blobs   shared.BlobStore
	bucket  string
	logger  *slog.Logger

	// Concurrency caps parallel provider fetches. Zero means
	// DefaultConcurrency.
	Concurrency int
}

func NewBulkEnricher(db shared.Database, fetcher shared.StreamFetcher, blobs shared.BlobStore, bucket string, logger *slog.Logger) *BulkEnricher {
	return &BulkEnricher{
		db:      db,
		fetcher: fetcher,
		blobs:   blobs,
		bucket:  bucket,
		logger:  logger.With("component", "stream-enricher"),
	}
}

// Enrich classifies every requested session and fetches streams for the
// eligible ones. Duplicate IDs collapse to one. The only error this
// returns is a failure of the initial batch load; everything after that
// is captured per item in the report.
//
// Re-invoking with IDs that already reached a terminal state is a no-op
// for those IDs (reported as alreadyHasStreams, no fetch, no write).
func (b *BulkEnricher) Enrich(ctx context.Context, userID string, sessionIDs []string) (*Report, error) {
	ids := dedupe(sessionIDs)

	projections, err := b.db.GetSessionProjections(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("load session projections: %w", err)
	}
	byID := make(map[string]*types.SessionProjection, len(projections))
	for _, p := range projections {
		byID[p.ID] = p
	}

	states := make(map[string]State, len(ids))
	var fetchable []*types.SessionProjection

	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			states[id] = StateNotFound
			continue
		}

		v := classify(p)
		if v == eligible {
			fetchable = append(fetchable, p)
			continue
		}
		if v.markStreamless {
			// Persist the marker so future calls short-circuit at the
			// stored-state check instead of re-running payload heuristics.
			if err := b.db.MarkStreamless(ctx, userID, id); err != nil {
				b.logger.Warn("Failed to persist streamless marker", "session_id", id, "error", err)
			}
		}
		states[id] = v.state
	}

	b.fetchAll(ctx, userID, fetchable, states)

	rep := buildReport(ids, states)
	b.logger.Info("Bulk enrichment finished",
		"user_id", userID,
		"requested", rep.Summary.Requested,
		"enriched", rep.Summary.Enriched,
		"already_has_streams", rep.Summary.AlreadyHasStreams,
		"missing_strava", rep.Summary.MissingStrava,
		"not_found", rep.Summary.NotFound,
		"failed", rep.Summary.Failed,
	)
	return rep, nil
}

// fetchAll runs the provider fetches through a bounded worker set. One
// item's failure never aborts its siblings.
func (b *BulkEnricher) fetchAll(ctx context.Context, userID string, sessions []*types.SessionProjection, states map[string]State) {
	if len(sessions) == 0 {
		return
	}

	limit := b.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, limit)

	for _, p := range sessions {
		wg.Add(1)
		sem <- struct{}{}
		go func(p *types.SessionProjection) {
			defer wg.Done()
			defer func() { <-sem }()

			state := b.fetchOne(ctx, userID, p)
			mu.Lock()
			states[p.ID] = state
			mu.Unlock()
		}(p)
	}
	wg.Wait()
}

func (b *BulkEnricher) fetchOne(ctx context.Context, userID string, p *types.SessionProjection) State {
	res, err := b.fetcher.FetchStreams(ctx, userID, p.Source, p.ExternalID)
	if err != nil {
		b.logger.Error("Stream fetch failed", "session_id", p.ID, "external_id", p.ExternalID, "error", err)
		sentry.CaptureException(err, map[string]interface{}{"user_id": userID, "session_id": p.ID}, b.logger)
		return StateFailed
	}

	switch res.Status {
	case types.StreamFetchOK:
		b.archiveRaw(ctx, userID, p.ID, res.Streams)
		if err := b.db.PersistStreams(ctx, userID, p.ID, res.Streams); err != nil {
			b.logger.Error("Failed to persist streams", "session_id", p.ID, "error", err)
			sentry.CaptureException(err, map[string]interface{}{"user_id": userID, "session_id": p.ID}, b.logger)
			return StateFailed
		}
		return StateEnriched

	case types.StreamFetchNoStreams:
		// A confirmed negative, not a failure: memoize it so this session
		// is never fetched again.
		if err := b.db.MarkStreamless(ctx, userID, p.ID); err != nil {
			b.logger.Warn("Failed to persist streamless marker", "session_id", p.ID, "error", err)
		}
		return StateAlreadyHasStreams

	default:
		b.logger.Error("Stream fetch returned unknown status", "session_id", p.ID, "status", res.Status)
		return StateFailed
	}
}

// archiveRaw writes the fetched payload to the artifact bucket before
// the processed record lands in the store. Best effort: archival failure
// never blocks enrichment.
func (b *BulkEnricher) archiveRaw(ctx context.Context, userID, sessionID string, streams types.StreamSet) {
	if b.blobs == nil || b.bucket == "" {
		return
	}
	data, err := json.Marshal(streams)
	if err != nil {
		b.logger.Warn("Failed to marshal streams for archival", "session_id", sessionID, "error", err)
		return
	}
	object := fmt.Sprintf("streams/%s/%s.json", userID, sessionID)
	if err := b.blobs.Write(ctx, b.bucket, object, data); err != nil {
		b.logger.Warn("Failed to archive raw streams", "session_id", sessionID, "object", object, "error", err)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
