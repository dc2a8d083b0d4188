// Package sessionorder assigns user-scoped chronological positions to
// training sessions: a dense, gap-free 1..N sequence number ordered by
// (date, insertion order), and a 1-based week rank over the distinct ISO
// weeks actually present in the user's history. All functions are pure;
// callers load the projections and write results back.
package sessionorder

import (
	"sort"
	"time"

	"github.com/pacemate/server/src/go/pkg/types"
)

// Position is the (sequence, week) pair assigned to one session.
type Position struct {
	Sequence int
	Week     int
}

// PositionUpdate pairs a session ID with its recomputed position.
type PositionUpdate struct {
	SessionID string
	Position
}

// dayOf truncates t to its calendar day in UTC.
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComputePosition places a new session dated candidate among the user's
// existing dated sessions.
//
// The sequence number puts the candidate after every session on an
// earlier day and after every session on the same day (FIFO tie-break on
// insertion). The week is the candidate's 1-based rank over the distinct
// week keys of existing ∪ {candidate}, so inserting into a brand-new
// earliest week shifts later weeks up on the next recalculation but
// still yields rank 1 here.
//
// With no existing sessions the result is (1, 1).
func ComputePosition(existing []types.DatedSession, candidate time.Time) Position {
	day := dayOf(candidate)

	seq := 1
	weeks := map[WeekKey]struct{}{WeekKeyOf(day): {}}
	for _, s := range existing {
		if !dayOf(s.Date).After(day) {
			seq++
		}
		weeks[WeekKeyOf(s.Date)] = struct{}{}
	}

	return Position{Sequence: seq, Week: rankOf(weeks, WeekKeyOf(day))}
}

// RecomputeAll re-derives positions for a user's whole dated session set
// from scratch: sort by (date, creation time), assign 1..N, then rank
// weeks densely. Deterministic for a fixed input set regardless of input
// order, which is what lets concurrent recalculation runs converge.
func RecomputeAll(sessions []types.DatedSession) []PositionUpdate {
	ordered := make([]types.DatedSession, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := dayOf(ordered[i].Date), dayOf(ordered[j].Date)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	updates := make([]PositionUpdate, 0, len(ordered))
	week := 0
	var lastKey WeekKey
	for i, s := range ordered {
		key := WeekKeyOf(s.Date)
		if week == 0 || key != lastKey {
			week++
			lastKey = key
		}
		updates = append(updates, PositionUpdate{
			SessionID: s.ID,
			Position:  Position{Sequence: i + 1, Week: week},
		})
	}
	return updates
}

// rankOf returns the 1-based rank of key among the set's keys ordered
// chronologically.
func rankOf(weeks map[WeekKey]struct{}, key WeekKey) int {
	keys := make([]WeekKey, 0, len(weeks))
	for k := range weeks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	for i, k := range keys {
		if k == key {
			return i + 1
		}
	}
	return len(keys) // unreachable: key is always a member
}
