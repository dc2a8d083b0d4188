package sessionorder

import (
	"math/rand"
	"testing"
	"time"

	"github.com/pacemate/server/src/go/pkg/types"
)

func dated(id string, day time.Time, createdOffset time.Duration) types.DatedSession {
	return types.DatedSession{
		ID:        id,
		Date:      day,
		CreatedAt: time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC).Add(createdOffset),
	}
}

func TestComputePosition_FirstSession(t *testing.T) {
	got := ComputePosition(nil, date(2026, time.January, 10))
	if got != (Position{Sequence: 1, Week: 1}) {
		t.Errorf("ComputePosition(empty) = %+v, want {1 1}", got)
	}
}

func TestComputePosition_SameWeekAppend(t *testing.T) {
	existing := []types.DatedSession{
		dated("a", date(2026, time.January, 6), 0),
		dated("b", date(2026, time.January, 7), time.Minute),
	}

	got := ComputePosition(existing, date(2026, time.January, 9))
	if got != (Position{Sequence: 3, Week: 1}) {
		t.Errorf("got %+v, want {3 1}", got)
	}
}

func TestComputePosition_NewWeek(t *testing.T) {
	existing := []types.DatedSession{
		dated("a", date(2026, time.January, 6), 0),
		dated("b", date(2026, time.January, 7), time.Minute),
	}

	got := ComputePosition(existing, date(2026, time.January, 14))
	if got != (Position{Sequence: 3, Week: 2}) {
		t.Errorf("got %+v, want {3 2}", got)
	}
}

func TestComputePosition_SameDayFIFOTieBreak(t *testing.T) {
	day := date(2026, time.February, 2)
	existing := []types.DatedSession{
		dated("a", day, 0),
		dated("b", day, time.Minute),
	}

	// Same-day insert lands after all same-day predecessors.
	got := ComputePosition(existing, day)
	if got.Sequence != 3 {
		t.Errorf("sequence = %d, want 3", got.Sequence)
	}
}

func TestComputePosition_EarlierThanAllExisting(t *testing.T) {
	existing := []types.DatedSession{
		dated("a", date(2026, time.March, 10), 0),
		dated("b", date(2026, time.March, 17), time.Minute),
	}

	got := ComputePosition(existing, date(2026, time.March, 2))
	if got != (Position{Sequence: 1, Week: 1}) {
		t.Errorf("got %+v, want {1 1}", got)
	}
}

func TestRecomputeAll_DenseAndMonotonic(t *testing.T) {
	sessions := []types.DatedSession{
		dated("d", date(2026, time.January, 20), 3*time.Minute),
		dated("a", date(2026, time.January, 5), 0),
		dated("c", date(2026, time.January, 13), 2*time.Minute),
		dated("b", date(2026, time.January, 6), time.Minute),
		dated("e", date(2026, time.January, 20), 4*time.Minute),
	}

	updates := RecomputeAll(sessions)
	if len(updates) != len(sessions) {
		t.Fatalf("got %d updates, want %d", len(updates), len(sessions))
	}

	wantOrder := []string{"a", "b", "c", "d", "e"}
	wantWeeks := []int{1, 1, 2, 3, 3}
	for i, u := range updates {
		if u.SessionID != wantOrder[i] {
			t.Errorf("position %d: got session %q, want %q", i, u.SessionID, wantOrder[i])
		}
		if u.Sequence != i+1 {
			t.Errorf("session %q: sequence = %d, want %d", u.SessionID, u.Sequence, i+1)
		}
		if u.Week != wantWeeks[i] {
			t.Errorf("session %q: week = %d, want %d", u.SessionID, u.Week, wantWeeks[i])
		}
	}
}

func TestRecomputeAll_SameDayOrderedByCreation(t *testing.T) {
	day := date(2026, time.April, 6)
	sessions := []types.DatedSession{
		dated("second", day, time.Hour),
		dated("first", day, 0),
		dated("third", day, 2*time.Hour),
	}

	updates := RecomputeAll(sessions)
	want := []string{"first", "second", "third"}
	for i, u := range updates {
		if u.SessionID != want[i] {
			t.Errorf("position %d: got %q, want %q", i, u.SessionID, want[i])
		}
	}
}

// Recomputation must assign the same positions regardless of input order,
// and must agree with incremental ComputePosition for the last insert.
func TestRecomputeAll_DeterministicUnderShuffle(t *testing.T) {
	base := []types.DatedSession{
		dated("a", date(2025, time.December, 29), 0), // 2026-W01 (ISO)
		dated("b", date(2026, time.January, 2), time.Minute),
		dated("c", date(2026, time.January, 2), 2*time.Minute),
		dated("d", date(2026, time.January, 12), 3*time.Minute),
		dated("e", date(2026, time.February, 9), 4*time.Minute),
	}

	want := map[string]Position{}
	for _, u := range RecomputeAll(base) {
		want[u.SessionID] = u.Position
	}

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([]types.DatedSession, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		for _, u := range RecomputeAll(shuffled) {
			if u.Position != want[u.SessionID] {
				t.Fatalf("trial %d: session %q got %+v, want %+v", trial, u.SessionID, u.Position, want[u.SessionID])
			}
		}
	}

	// Incremental placement of "e" over the first four matches the full
	// recomputation.
	incremental := ComputePosition(base[:4], date(2026, time.February, 9))
	if incremental != want["e"] {
		t.Errorf("incremental = %+v, full recompute = %+v", incremental, want["e"])
	}
}

func TestRecomputeAll_YearBoundaryWeeks(t *testing.T) {
	sessions := []types.DatedSession{
		dated("dec", date(2026, time.December, 28), 0), // Monday of 2026-W53
		dated("jan", date(2027, time.January, 3), time.Minute),
		dated("next", date(2027, time.January, 4), 2*time.Minute), // 2027-W01
	}

	updates := RecomputeAll(sessions)
	// Dec 28 and Jan 3 share ISO week 2026-W53.
	if updates[0].Week != 1 || updates[1].Week != 1 {
		t.Errorf("year-boundary sessions should share week 1, got %d and %d", updates[0].Week, updates[1].Week)
	}
	if updates[2].Week != 2 {
		t.Errorf("first week of new ISO year should rank 2, got %d", updates[2].Week)
	}
}
