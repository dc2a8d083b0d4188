package firestore

import (
	"cloud.google.com/go/firestore"

	shared "github.com/pacemate/server/src/go/pkg"
	"github.com/pacemate/server/src/go/pkg/types"
)

type Client struct {
	fs *firestore.Client
}

func NewClient(client *firestore.Client) *Client {
	return &Client{fs: client}
}

func (c *Client) Close() error {
	return c.fs.Close()
}

func (c *Client) Users() *Collection[types.UserRecord] {
	return &Collection[types.UserRecord]{
		Ref:           c.fs.Collection(shared.CollectionUsers),
		ToFirestore:   UserToFirestore,
		FromFirestore: FirestoreToUser,
	}
}

// UserSessions are sub-collections of Users: users/{uid}/sessions/{id}
func (c *Client) UserSessions(userID string) *Collection[types.SessionRecord] {
	return &Collection[types.SessionRecord]{
		Ref:           c.fs.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionSessions),
		ToFirestore:   SessionToFirestore,
		FromFirestore: FirestoreToSession,
	}
}

// UserExecutions are sub-collections of Users: users/{uid}/executions/{id}
func (c *Client) UserExecutions(userID string) *Collection[types.ExecutionRecord] {
	return &Collection[types.ExecutionRecord]{
		Ref:           c.fs.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionExecutions),
		ToFirestore:   ExecutionToFirestore,
		FromFirestore: FirestoreToExecution,
	}
}

// OrphanedExecutions stores executions without a userId.
// These are code smells and should be investigated.
func (c *Client) OrphanedExecutions() *Collection[types.ExecutionRecord] {
	return &Collection[types.ExecutionRecord]{
		Ref:           c.fs.Collection("orphaned_executions"),
		ToFirestore:   ExecutionToFirestore,
		FromFirestore: FirestoreToExecution,
	}
}
