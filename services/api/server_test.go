package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shared "github.com/pacemate/server/src/go/pkg"
	"github.com/pacemate/server/src/go/pkg/bootstrap"
	"github.com/pacemate/server/src/go/pkg/testing/mocks"
	"github.com/pacemate/server/src/go/pkg/types"
)

func newTestServer(t *testing.T, db *mocks.MockDatabase, pub *mocks.MockPublisher) *Server {
	t.Helper()
	if pub == nil {
		pub = &mocks.MockPublisher{}
	}
	svc := &bootstrap.Service{
		DB:     db,
		Pub:    pub,
		Store:  &mocks.MockBlobStore{},
		Notify: &mocks.MockNotificationService{},
		Config: &bootstrap.Config{GCSArtifactBucket: "test-bucket"},
	}
	s := NewServer(svc, slog.New(slog.DiscardHandler))
	t.Cleanup(s.Close)
	return s
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateSession_AssignsPosition(t *testing.T) {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	var created *types.SessionRecord
	db := &mocks.MockDatabase{
		ListDatedSessionsFunc: func(ctx context.Context, userID string) ([]types.DatedSession, error) {
			return []types.DatedSession{
				{ID: "a", Date: monday, CreatedAt: monday, Sequence: 1, Week: 1},
				{ID: "b", Date: monday.AddDate(0, 0, 2), CreatedAt: monday, Sequence: 2, Week: 1},
			}, nil
		},
		CreateSessionFunc: func(ctx context.Context, userID string, session *types.SessionRecord) error {
			session.ID = "new-id"
			created = session
			return nil
		},
	}

	s := newTestServer(t, db, nil)
	date := monday.AddDate(0, 0, 7) // following Monday
	rec := postJSON(t, s.Routes(), "/v1/users/user-1/sessions", createSessionRequest{
		Title: "Long run",
		Date:  &date,
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, created)
	assert.Equal(t, 3, created.Sequence)
	assert.Equal(t, 2, created.Week)

	var resp types.SessionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "new-id", resp.ID)
	assert.Equal(t, 3, resp.Sequence)
}

func TestCreateSession_UndatedSkipsPosition(t *testing.T) {
	var created *types.SessionRecord
	db := &mocks.MockDatabase{
		ListDatedSessionsFunc: func(ctx context.Context, userID string) ([]types.DatedSession, error) {
			t.Fatal("undated session should not load existing sessions")
			return nil, nil
		},
		CreateSessionFunc: func(ctx context.Context, userID string, session *types.SessionRecord) error {
			created = session
			return nil
		},
	}

	s := newTestServer(t, db, nil)
	rec := postJSON(t, s.Routes(), "/v1/users/user-1/sessions", createSessionRequest{Title: "Drill ideas"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, created)
	assert.Zero(t, created.Sequence)
	assert.Zero(t, created.Week)
}

func TestDeleteSessions(t *testing.T) {
	var deleted []string
	db := &mocks.MockDatabase{
		DeleteSessionsFunc: func(ctx context.Context, userID string, ids []string) error {
			deleted = ids
			return nil
		},
	}

	s := newTestServer(t, db, nil)

	data, _ := json.Marshal(deleteSessionsRequest{SessionIDs: []string{"a", "b"}})
	req := httptest.NewRequest(http.MethodDelete, "/v1/users/user-1/sessions", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"a", "b"}, deleted)
}

func TestDeleteSessions_EmptyIDs(t *testing.T) {
	s := newTestServer(t, &mocks.MockDatabase{}, nil)

	data, _ := json.Marshal(deleteSessionsRequest{})
	req := httptest.NewRequest(http.MethodDelete, "/v1/users/user-1/sessions", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrichStreams_Sync(t *testing.T) {
	db := &mocks.MockDatabase{
		GetSessionProjectionsFunc: func(ctx context.Context, userID string, ids []string) ([]*types.SessionProjection, error) {
			return []*types.SessionProjection{
				{ID: "s1", Source: shared.SourceStrava, ExternalID: "111", HasStreams: true, StreamCount: 2},
			}, nil
		},
	}

	s := newTestServer(t, db, nil)
	rec := postJSON(t, s.Routes(), "/v1/users/user-1/sessions/enrich-streams", enrichStreamsRequest{
		SessionIDs: []string{"s1", "gone"},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var report struct {
		Summary struct {
			Requested         int `json:"requested"`
			AlreadyHasStreams int `json:"already_has_streams"`
			NotFound          int `json:"not_found"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Summary.Requested)
	assert.Equal(t, 1, report.Summary.AlreadyHasStreams)
	assert.Equal(t, 1, report.Summary.NotFound)
}

func TestEnrichStreams_Async(t *testing.T) {
	var gotTopic string
	var gotEvent event.Event
	pub := &mocks.MockPublisher{
		PublishCloudEventFunc: func(ctx context.Context, topic string, e event.Event) (string, error) {
			gotTopic = topic
			gotEvent = e
			return "msg-42", nil
		},
	}

	s := newTestServer(t, &mocks.MockDatabase{}, pub)
	rec := postJSON(t, s.Routes(), "/v1/users/user-1/sessions/enrich-streams", enrichStreamsRequest{
		SessionIDs: []string{"s1"},
		Async:      true,
	})

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, shared.TopicStreamEnrichment, gotTopic)

	var req types.EnrichStreamsRequest
	require.NoError(t, gotEvent.DataAs(&req))
	assert.Equal(t, "user-1", req.UserID)
	assert.Equal(t, []string{"s1"}, req.SessionIDs)
}
