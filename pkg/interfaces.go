package shared

import (
	"context"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/pacemate/server/src/go/pkg/types"
)

// --- Persistence Interfaces ---

type Database interface {
	// Users
	GetUser(ctx context.Context, id string) (*types.UserRecord, error)
	UpdateUser(ctx context.Context, id string, data map[string]interface{}) error

	// Sessions
	CreateSession(ctx context.Context, userID string, session *types.SessionRecord) error
	DeleteSessions(ctx context.Context, userID string, ids []string) error

	// ListDatedSessions returns all sessions with a non-nil date, in no
	// particular order. Used by the position calculator and the
	// recalculation worker.
	ListDatedSessions(ctx context.Context, userID string) ([]types.DatedSession, error)

	// GetSessionProjections batch-loads the enrichment projections for the
	// given IDs, scoped to the user. IDs that do not resolve are simply
	// absent from the result.
	GetSessionProjections(ctx context.Context, userID string, ids []string) ([]*types.SessionProjection, error)

	UpdateSessionPosition(ctx context.Context, userID, sessionID string, sequence, week int) error
	PersistStreams(ctx context.Context, userID, sessionID string, streams types.StreamSet) error
	MarkStreamless(ctx context.Context, userID, sessionID string) error

	// Executions
	SetExecution(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecution(ctx context.Context, userID, id string, data map[string]interface{}) error
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Write(ctx context.Context, bucket, object string, data []byte) error
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}

// --- Secrets Interfaces ---

type SecretStore interface {
	GetSecret(ctx context.Context, projectID, name string) (string, error)
}

// --- Notification Interfaces ---

type NotificationService interface {
	SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error
}

// --- Provider Interfaces ---

// StreamFetcher fetches time-series streams from an external provider.
// Implementations own token refresh, rate-limit backoff, and mapping of
// provider responses onto the three-way StreamFetchStatus. A returned
// error means a true failure (network, auth, 5xx); "the provider has no
// data" is not an error, it is StreamFetchNoStreams.
type StreamFetcher interface {
	FetchStreams(ctx context.Context, userID, provider, externalID string) (*types.StreamFetchResult, error)
}
