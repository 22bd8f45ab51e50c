package core

import (
	"context"

	"chatsync-backend-go/internal/db"
	"chatsync-backend-go/internal/models"
)

// UserService defines the interface for user profile operations.
type UserService interface {
	// GetOrCreate retrieves the profile for a Firebase UID, creating it from
	// the auth claims on first sight. Returns whether a profile was created.
	GetOrCreate(ctx context.Context, uid, email, name, photoURL, phoneNumber string) (*models.User, bool, error)
	GetByID(ctx context.Context, uid string) (*models.User, error)
	ListOthers(ctx context.Context, selfUID string, limit int) ([]*models.User, error)
	UpdateProfile(ctx context.Context, uid string, req models.UpdateProfileRequest) (*models.User, error)
	// UpdatePhoto stores the photo bytes in the blob store and writes the
	// resulting URL back to the profile. Returns the URL.
	UpdatePhoto(ctx context.Context, uid string, data []byte, contentType string) (string, error)
	RegisterFCMToken(ctx context.Context, uid, token string) error
}

// MessageService defines the interface for the send/read paths of the
// message log.
type MessageService interface {
	// Send validates, appends the message to the pair's conversation log,
	// upserts the conversation summary, and dispatches a best-effort push
	// notification. Returns the appended message and the conversation ID.
	Send(ctx context.Context, sender models.Sender, peerUID, text string) (*models.Message, string, error)
	// History returns the ordered log of the caller's conversation with peerUID.
	History(ctx context.Context, selfUID, peerUID string) ([]models.Message, string, error)
	// SubscribeConversation opens a live ordered subscription to one
	// conversation's log, addressed by conversation ID.
	SubscribeConversation(ctx context.Context, conversationID string) (db.MessageSubscription, error)
}

// ConversationService defines the interface for the chat-list views.
type ConversationService interface {
	// ListFor returns the caller's conversation summaries, peer profiles
	// embedded, ordered by lastUpdated descending.
	ListFor(ctx context.Context, uid string) ([]models.ConversationSummary, error)
	// WatchFor opens a live feed of the caller's conversation summaries with
	// per-row peer profile fan-out. The feed must be closed by the caller.
	WatchFor(ctx context.Context, uid string) (*ConversationFeed, error)
}

// FriendService defines the interface for the contact directory.
type FriendService interface {
	// Add creates the directed edge owner -> friend. Returns false when the
	// edge already existed (idempotent, not an error).
	Add(ctx context.Context, ownerUID, friendUID string) (bool, error)
	// List returns a page of contacts (profiles resolved) ordered by addedAt
	// descending, plus the opaque cursor for the next page ("" when done).
	List(ctx context.Context, ownerUID, cursor string, limit int) ([]models.Friend, string, error)
	// Search finds users by name prefix, exact email or exact phone number,
	// merged and deduplicated, with the searcher excluded.
	Search(ctx context.Context, selfUID, query string) ([]*models.User, error)
}

// NotificationService dispatches best-effort push notifications.
type NotificationService interface {
	// Notify looks up the recipient's device token and issues one push.
	// A missing token is a silent no-op. Errors are for logging only; the
	// triggering operation must never be failed or rolled back because of them.
	Notify(ctx context.Context, recipientUID, senderName, messageText, conversationID string) error
}

// PushSender is the outbound push transport (FCM v1 in production).
type PushSender interface {
	Send(ctx context.Context, token string, notification PushNotification, data map[string]string) error
}

// PushNotification is the visible title/body of a push message.
type PushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// VerificationLinkGenerator mints email-verification links for an address.
// Implemented by the Firebase Auth client.
type VerificationLinkGenerator interface {
	EmailVerificationLink(ctx context.Context, email string) (string, error)
}

// VerificationMailSender delivers the verification email.
type VerificationMailSender interface {
	Send(recipient, subject, body string) error
}
