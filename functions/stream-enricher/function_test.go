package streamenricher

import (
	"context"
	"log/slog"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shared "github.com/pacemate/server/src/go/pkg"
	"github.com/pacemate/server/src/go/pkg/bootstrap"
	"github.com/pacemate/server/src/go/pkg/framework"
	"github.com/pacemate/server/src/go/pkg/testing/mocks"
	"github.com/pacemate/server/src/go/pkg/types"
)

func newTestContext(svc *bootstrap.Service) *framework.FrameworkContext {
	return &framework.FrameworkContext{
		Service:     svc,
		Logger:      slog.New(slog.DiscardHandler),
		ExecutionID: "exec-test",
	}
}

func newRequestEvent(t *testing.T, req types.EnrichStreamsRequest) event.Event {
	t.Helper()
	e := event.New()
	e.SetType("com.pacemate.streams.enrich.requested")
	e.SetSource("/test")
	require.NoError(t, e.SetData(cloudevents.ApplicationJSON, req))
	return e
}

func TestEnrichHandler_MissingUserID(t *testing.T) {
	svc := &bootstrap.Service{DB: &mocks.MockDatabase{}, Config: &bootstrap.Config{}}

	e := newRequestEvent(t, types.EnrichStreamsRequest{SessionIDs: []string{"s1"}})
	_, err := enrichHandler(context.Background(), e, newTestContext(svc))
	require.Error(t, err)
}

func TestEnrichHandler_NoSessionIDsSkips(t *testing.T) {
	svc := &bootstrap.Service{DB: &mocks.MockDatabase{}, Config: &bootstrap.Config{}}

	e := newRequestEvent(t, types.EnrichStreamsRequest{UserID: "user-1"})
	out, err := enrichHandler(context.Background(), e, newTestContext(svc))
	require.NoError(t, err)

	outputs, ok := out.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "skipped", outputs["status"])
}

func TestEnrichHandler_PublishesSummary(t *testing.T) {
	mockDB := &mocks.MockDatabase{
		GetSessionProjectionsFunc: func(ctx context.Context, userID string, ids []string) ([]*types.SessionProjection, error) {
			// "s1" resolved with streams already, "s2" never linked to
			// Strava, "missing" does not resolve at all.
			return []*types.SessionProjection{
				{ID: "s1", Source: shared.SourceStrava, ExternalID: "111", HasStreams: true, StreamCount: 3},
				{ID: "s2"},
			}, nil
		},
	}

	var published []event.Event
	var publishedTopics []string
	mockPub := &mocks.MockPublisher{
		PublishCloudEventFunc: func(ctx context.Context, topic string, e event.Event) (string, error) {
			publishedTopics = append(publishedTopics, topic)
			published = append(published, e)
			return "msg-123", nil
		},
	}

	var pushed bool
	mockNotify := &mocks.MockNotificationService{
		SendPushNotificationFunc: func(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error {
			pushed = true
			return nil
		},
	}

	svc := &bootstrap.Service{
		DB:     mockDB,
		Pub:    mockPub,
		Store:  &mocks.MockBlobStore{},
		Notify: mockNotify,
		Config: &bootstrap.Config{GCSArtifactBucket: "test-bucket"},
	}

	e := newRequestEvent(t, types.EnrichStreamsRequest{
		UserID:     "user-1",
		SessionIDs: []string{"s1", "s2", "missing"},
	})

	out, err := enrichHandler(context.Background(), e, newTestContext(svc))
	require.NoError(t, err)

	require.Len(t, published, 1)
	assert.Equal(t, []string{shared.TopicStreamsEnriched}, publishedTopics)

	var enriched types.StreamsEnrichedEvent
	require.NoError(t, published[0].DataAs(&enriched))
	assert.Equal(t, "user-1", enriched.UserID)
	assert.Equal(t, 3, enriched.Requested)
	assert.Equal(t, 1, enriched.AlreadyHasStreams)
	assert.Equal(t, 1, enriched.MissingStrava)
	assert.Equal(t, 1, enriched.NotFound)
	assert.Equal(t, 0, enriched.Enriched)

	// Nothing gained streams, so no push
	assert.False(t, pushed)

	outputs, ok := out.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, outputs, "summary")
	assert.Contains(t, outputs, "ids")
}
