package streams

import (
	"testing"

	"github.com/pacemate/server/src/go/pkg/types"
)

func TestClassify_PriorityOrder(t *testing.T) {
	tests := []struct {
		name     string
		p        *types.SessionProjection
		want     verdict
		eligible bool
	}{
		{
			name:     "stored streams win without a marker write",
			p:        &types.SessionProjection{ID: "a", StreamCount: 3, SourceStatus: "no_streams"},
			want:     verdict{state: StateAlreadyHasStreams},
			eligible: false,
		},
		{
			name:     "known-streamless marker is terminal",
			p:        &types.SessionProjection{ID: "a", HasStreams: true},
			want:     verdict{state: StateAlreadyHasStreams},
			eligible: false,
		},
		{
			name:     "persisted no-streams status marks streamless",
			p:        &types.SessionProjection{ID: "b", Source: "strava", ExternalID: "1", SourceStatus: "no_streams"},
			want:     verdict{state: StateAlreadyHasStreams, markStreamless: true},
			eligible: false,
		},
		{
			name: "payload heuristic marks streamless",
			p: &types.SessionProjection{
				ID: "c", Source: "strava", ExternalID: "1",
				Raw: map[string]interface{}{"manual": true},
			},
			want:     verdict{state: StateAlreadyHasStreams, markStreamless: true},
			eligible: false,
		},
		{
			name:     "no provider linkage",
			p:        &types.SessionProjection{ID: "d"},
			want:     verdict{state: StateMissingStrava},
			eligible: false,
		},
		{
			name:     "strava source without external id",
			p:        &types.SessionProjection{ID: "d", Source: "strava"},
			want:     verdict{state: StateMissingStrava},
			eligible: false,
		},
		{
			name: "linked session with linkage-bearing payload is eligible",
			p: &types.SessionProjection{
				ID: "e", Source: "strava", ExternalID: "1",
				Raw: map[string]interface{}{"upload_id": float64(9)},
			},
			eligible: true,
		},
		{
			name:     "linked session without payload is eligible",
			p:        &types.SessionProjection{ID: "e", Source: "strava", ExternalID: "1"},
			eligible: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.p)
			if tt.eligible {
				if got != eligible {
					t.Errorf("classify() = %+v, want eligible", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("classify() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
