package streams

import (
	shared "github.com/pacemate/server/src/go/pkg"
	"github.com/pacemate/server/src/go/pkg/types"
)

// State is the terminal classification of one session in a bulk
// enrichment call. States are mutually exclusive and assigned in
// priority order: notFound, alreadyHasStreams, missingStrava, then the
// fetch outcome (enriched or failed).
type State string

const (
	StateNotFound          State = "notFound"
	StateAlreadyHasStreams State = "alreadyHasStreams"
	StateMissingStrava     State = "missingStrava"
	StateEnriched          State = "enriched"
	StateFailed            State = "failed"
)

// verdict is a pre-fetch classification. markStreamless signals that the
// known-streamless marker should be persisted so future calls
// short-circuit without re-checking payload heuristics.
type verdict struct {
	state          State
	markStreamless bool
}

// eligible is the sentinel "defer to the fetch step" verdict.
var eligible = verdict{}

// stepFunc inspects a loaded projection and either returns a terminal
// verdict or defers to the next step in the chain.
type stepFunc func(p *types.SessionProjection) (verdict, bool)

// classifyChain is the ordered pre-fetch classification. Keeping each
// rule a separate pure function keeps the five-state logic testable away
// from any I/O.
var classifyChain = []stepFunc{
	hasStoredStreams,
	hasStreamlessMarker,
	hasNoStreamsStatus,
	looksStreamless,
	missingStravaLinkage,
}

// classify runs the chain; an all-deferrals result means the session is
// eligible for a provider fetch.
func classify(p *types.SessionProjection) verdict {
	for _, step := range classifyChain {
		if v, done := step(p); done {
			return v
		}
	}
	return eligible
}

func hasStoredStreams(p *types.SessionProjection) (verdict, bool) {
	if p.StreamCount >= 1 {
		return verdict{state: StateAlreadyHasStreams}, true
	}
	return eligible, false
}

// hasStreamlessMarker matches sessions already confirmed streamless
// (HasStreams set with nothing stored). These must never be re-fetched.
func hasStreamlessMarker(p *types.SessionProjection) (verdict, bool) {
	if p.HasStreams {
		return verdict{state: StateAlreadyHasStreams}, true
	}
	return eligible, false
}

func hasNoStreamsStatus(p *types.SessionProjection) (verdict, bool) {
	if p.SourceStatus == shared.SourceStatusNoStreams {
		return verdict{state: StateAlreadyHasStreams, markStreamless: true}, true
	}
	return eligible, false
}

func looksStreamless(p *types.SessionProjection) (verdict, bool) {
	if IsLikelyStreamless(p.Raw) {
		return verdict{state: StateAlreadyHasStreams, markStreamless: true}, true
	}
	return eligible, false
}

func missingStravaLinkage(p *types.SessionProjection) (verdict, bool) {
	if p.Source != shared.SourceStrava || p.ExternalID == "" {
		return verdict{state: StateMissingStrava}, true
	}
	return eligible, false
}
