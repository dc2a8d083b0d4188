package mocks

import (
	"context"
	"fmt"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/pacemate/server/src/go/pkg/types"
)

// --- Mock Database ---

type MockDatabase struct {
	GetUserFunc               func(ctx context.Context, id string) (*types.UserRecord, error)
	UpdateUserFunc            func(ctx context.Context, id string, data map[string]interface{}) error
	CreateSessionFunc         func(ctx context.Context, userID string, session *types.SessionRecord) error
	DeleteSessionsFunc        func(ctx context.Context, userID string, ids []string) error
	ListDatedSessionsFunc     func(ctx context.Context, userID string) ([]types.DatedSession, error)
	GetSessionProjectionsFunc func(ctx context.Context, userID string, ids []string) ([]*types.SessionProjection, error)
	UpdateSessionPositionFunc func(ctx context.Context, userID, sessionID string, sequence, week int) error
	PersistStreamsFunc        func(ctx context.Context, userID, sessionID string, streams types.StreamSet) error
	MarkStreamlessFunc        func(ctx context.Context, userID, sessionID string) error
	SetExecutionFunc          func(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecutionFunc       func(ctx context.Context, userID, id string, data map[string]interface{}) error
}

func (m *MockDatabase) GetUser(ctx context.Context, id string) (*types.UserRecord, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, fmt.Errorf("user not found")
}

func (m *MockDatabase) UpdateUser(ctx context.Context, id string, data map[string]interface{}) error {
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, id, data)
	}
	return nil
}

func (m *MockDatabase) CreateSession(ctx context.Context, userID string, session *types.SessionRecord) error {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, userID, session)
	}
	return nil
}

func (m *MockDatabase) DeleteSessions(ctx context.Context, userID string, ids []string) error {
	if m.DeleteSessionsFunc != nil {
		return m.DeleteSessionsFunc(ctx, userID, ids)
	}
	return nil
}

func (m *MockDatabase) ListDatedSessions(ctx context.Context, userID string) ([]types.DatedSession, error) {
	if m.ListDatedSessionsFunc != nil {
		return m.ListDatedSessionsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockDatabase) GetSessionProjections(ctx context.Context, userID string, ids []string) ([]*types.SessionProjection, error) {
	if m.GetSessionProjectionsFunc != nil {
		return m.GetSessionProjectionsFunc(ctx, userID, ids)
	}
	return nil, nil
}

func (m *MockDatabase) UpdateSessionPosition(ctx context.Context, userID, sessionID string, sequence, week int) error {
	if m.UpdateSessionPositionFunc != nil {
		return m.UpdateSessionPositionFunc(ctx, userID, sessionID, sequence, week)
	}
	return nil
}

func (m *MockDatabase) PersistStreams(ctx context.Context, userID, sessionID string, streams types.StreamSet) error {
	if m.PersistStreamsFunc != nil {
		return m.PersistStreamsFunc(ctx, userID, sessionID, streams)
	}
	return nil
}

func (m *MockDatabase) MarkStreamless(ctx context.Context, userID, sessionID string) error {
	if m.MarkStreamlessFunc != nil {
		return m.MarkStreamlessFunc(ctx, userID, sessionID)
	}
	return nil
}

func (m *MockDatabase) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	if m.SetExecutionFunc != nil {
		return m.SetExecutionFunc(ctx, record)
	}
	return nil
}

func (m *MockDatabase) UpdateExecution(ctx context.Context, userID, id string, data map[string]interface{}) error {
	if m.UpdateExecutionFunc != nil {
		return m.UpdateExecutionFunc(ctx, userID, id, data)
	}
	return nil
}

// --- Mock Publisher ---

type MockPublisher struct {
	PublishCloudEventFunc func(ctx context.Context, topic string, e event.Event) (string, error)
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	if m.PublishCloudEventFunc != nil {
		return m.PublishCloudEventFunc(ctx, topic, e)
	}
	return "msg-id", nil
}

// --- Mock Storage ---

type MockBlobStore struct {
	WriteFunc func(ctx context.Context, bucket, object string, data []byte) error
	ReadFunc  func(ctx context.Context, bucket, object string) ([]byte, error)
}

func (m *MockBlobStore) Write(ctx context.Context, bucket, object string, data []byte) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, bucket, object, data)
	}
	return nil
}

func (m *MockBlobStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, bucket, object)
	}
	return []byte("mock-data"), nil
}

// --- Mock Secrets ---

type MockSecretStore struct {
	GetSecretFunc func(ctx context.Context, projectID, name string) (string, error)
}

func (m *MockSecretStore) GetSecret(ctx context.Context, projectID, name string) (string, error) {
	if m.GetSecretFunc != nil {
		return m.GetSecretFunc(ctx, projectID, name)
	}
	return "mock-secret-value", nil
}

// --- Mock Notifications ---

type MockNotificationService struct {
	SendPushNotificationFunc func(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error
}

func (m *MockNotificationService) SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error {
	if m.SendPushNotificationFunc != nil {
		return m.SendPushNotificationFunc(ctx, userID, title, body, tokens, data)
	}
	return nil
}

// --- Mock Stream Fetcher ---

type MockStreamFetcher struct {
	FetchStreamsFunc func(ctx context.Context, userID, provider, externalID string) (*types.StreamFetchResult, error)
}

func (m *MockStreamFetcher) FetchStreams(ctx context.Context, userID, provider, externalID string) (*types.StreamFetchResult, error) {
	if m.FetchStreamsFunc != nil {
		return m.FetchStreamsFunc(ctx, userID, provider, externalID)
	}
	return &types.StreamFetchResult{Status: types.StreamFetchNoStreams}, nil
}
