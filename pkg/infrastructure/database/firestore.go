package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	storage "github.com/pacemate/server/src/go/pkg/storage/firestore"
	"github.com/pacemate/server/src/go/pkg/types"
)

// FirestoreAdapter provides database operations using Firestore
// It wraps our typed storage client
type FirestoreAdapter struct {
	Client  *firestore.Client
	storage *storage.Client // internal typed wrapper
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{
		Client:  client,
		storage: storage.NewClient(client),
	}
}

// --- Users ---

func (a *FirestoreAdapter) GetUser(ctx context.Context, id string) (*types.UserRecord, error) {
	return a.storage.Users().Doc(id).Get(ctx)
}

// UpdateUser applies a partial update. Keys may be dotted field paths
// ("integrations.strava.access_token"), which Set+MergeAll would treat as
// literal field names, so this goes through firestore.Update instead.
func (a *FirestoreAdapter) UpdateUser(ctx context.Context, id string, data map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(data))
	for path, value := range data {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	_, err := a.storage.Users().Doc(id).Ref.Update(ctx, updates)
	return err
}

// --- Sessions ---

func (a *FirestoreAdapter) CreateSession(ctx context.Context, userID string, session *types.SessionRecord) error {
	sessions := a.storage.UserSessions(userID)
	doc := sessions.NewDoc()
	if session.ID != "" {
		doc = sessions.Doc(session.ID)
	}
	session.ID = doc.ID()
	session.UserID = userID
	return doc.Set(ctx, session)
}

func (a *FirestoreAdapter) DeleteSessions(ctx context.Context, userID string, ids []string) error {
	sessions := a.storage.UserSessions(userID)
	for _, id := range ids {
		if err := sessions.Doc(id).Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete session %s: %w", id, err)
		}
	}
	return nil
}

func (a *FirestoreAdapter) ListDatedSessions(ctx context.Context, userID string) ([]types.DatedSession, error) {
	records, err := a.storage.UserSessions(userID).GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var out []types.DatedSession
	for _, r := range records {
		if r.Date == nil {
			continue
		}
		out = append(out, types.DatedSession{
			ID:        r.ID,
			Date:      *r.Date,
			CreatedAt: r.CreatedAt,
			Sequence:  r.Sequence,
			Week:      r.Week,
		})
	}
	return out, nil
}

func (a *FirestoreAdapter) GetSessionProjections(ctx context.Context, userID string, ids []string) ([]*types.SessionProjection, error) {
	sessions := a.storage.UserSessions(userID)
	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = sessions.Doc(id).Ref
	}

	snaps, err := a.Client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to batch-get sessions: %w", err)
	}

	var out []*types.SessionProjection
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		data := snap.Data()
		data["id"] = snap.Ref.ID
		r := storage.FirestoreToSession(data)
		out = append(out, &types.SessionProjection{
			ID:           r.ID,
			Source:       r.Source,
			ExternalID:   r.ExternalID,
			SourceStatus: r.SourceStatus,
			HasStreams:   r.HasStreams,
			StreamCount:  r.StreamCount,
			Raw:          r.Raw,
		})
	}
	return out, nil
}

func (a *FirestoreAdapter) UpdateSessionPosition(ctx context.Context, userID, sessionID string, sequence, week int) error {
	return a.storage.UserSessions(userID).Doc(sessionID).Update(ctx, map[string]interface{}{
		"sequence": sequence,
		"week":     week,
	})
}

func (a *FirestoreAdapter) PersistStreams(ctx context.Context, userID, sessionID string, streams types.StreamSet) error {
	return a.storage.UserSessions(userID).Doc(sessionID).Update(ctx, map[string]interface{}{
		"streams":      storage.StreamsToFirestore(streams),
		"has_streams":  true,
		"stream_count": len(streams),
	})
}

// MarkStreamless records the durable known-streamless marker: resolved, with
// zero streams. Classification treats this the same as having streams, so
// the provider is never asked again.
func (a *FirestoreAdapter) MarkStreamless(ctx context.Context, userID, sessionID string) error {
	return a.storage.UserSessions(userID).Doc(sessionID).Update(ctx, map[string]interface{}{
		"has_streams":  true,
		"stream_count": 0,
	})
}

// --- Executions ---

func (a *FirestoreAdapter) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	if record.UserID == "" {
		return a.storage.OrphanedExecutions().Doc(record.ExecutionID).Set(ctx, record)
	}
	return a.storage.UserExecutions(record.UserID).Doc(record.ExecutionID).Set(ctx, record)
}

func (a *FirestoreAdapter) UpdateExecution(ctx context.Context, userID, id string, data map[string]interface{}) error {
	if userID == "" {
		return a.storage.OrphanedExecutions().Doc(id).Update(ctx, data)
	}
	return a.storage.UserExecutions(userID).Doc(id).Update(ctx, data)
}
