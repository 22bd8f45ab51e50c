package db

import (
	"context"
	"time"

	"chatsync-backend-go/internal/models"
)

// UserRepository defines the interface for user profile storage operations.
type UserRepository interface {
	GetByID(ctx context.Context, uid string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// Merge applies a partial update, leaving absent fields untouched.
	Merge(ctx context.Context, uid string, fields map[string]interface{}) error
	// GetManyByUID resolves profiles for a set of UIDs. The underlying store
	// bounds membership queries to 10 elements per call, so the input is
	// chunked internally.
	GetManyByUID(ctx context.Context, uids []string) ([]*models.User, error)
	ListExcept(ctx context.Context, selfUID string, limit int) ([]*models.User, error)
	SearchByNamePrefix(ctx context.Context, prefix string, limit int) ([]*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPhoneNumber(ctx context.Context, phone string) (*models.User, error)
	// Watch returns a live subscription to one user's profile document.
	Watch(ctx context.Context, uid string) (UserSubscription, error)
}

// MessageRepository defines the interface for the per-conversation
// append-only message log.
type MessageRepository interface {
	// Append writes one message to the conversation log and returns its ID.
	// The store assigns the creation timestamp server-side.
	Append(ctx context.Context, conversationID string, msg *models.Message) (string, error)
	// History returns the full log ordered by createdAt ascending.
	History(ctx context.Context, conversationID string) ([]models.Message, error)
	// Subscribe returns a live, ordered subscription to the conversation log.
	// Every update carries the complete ordered log; each append appears
	// exactly once, eventually, in order.
	Subscribe(ctx context.Context, conversationID string) (MessageSubscription, error)
}

// ConversationRepository defines the interface for the conversation summary index.
type ConversationRepository interface {
	// Upsert merges the summary fields, creating the record if absent.
	Upsert(ctx context.Context, id string, participants []string, lastMessage string, lastUpdated time.Time) error
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	// ListFor returns all conversations the user participates in, ordered by
	// lastUpdated descending.
	ListFor(ctx context.Context, uid string) ([]models.Conversation, error)
	// Subscribe returns a live subscription to the user's conversation list.
	Subscribe(ctx context.Context, uid string) (ConversationSubscription, error)
}

// FriendRepository defines the interface for the directed contact edges.
type FriendRepository interface {
	// Add creates the (owner, friend) edge. Returns false with a nil error
	// when the edge already exists; the duplicate write is not performed.
	Add(ctx context.Context, ownerUID, friendUID string, addedAt time.Time) (bool, error)
	// List returns edges ordered by addedAt descending, starting strictly
	// after the given timestamp when it is non-zero.
	List(ctx context.Context, ownerUID string, after time.Time, limit int) ([]models.FriendEdge, error)
}

// BlobStore defines the interface for binary object persistence (profile photos).
type BlobStore interface {
	// Upload writes the object and returns a publicly resolvable URL for it.
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}
