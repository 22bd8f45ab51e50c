package db

import (
	"context"
	"sync"

	"chatsync-backend-go/internal/models"
)

// Live subscriptions model the reactive snapshot listeners the mobile client
// used directly against the document store. Each subscription is explicitly
// cancelable; after Cancel returns, the Updates channel is closed and no
// further values are delivered. Restart by subscribing again.
//
// Updates channels are conflating: if a consumer is slow, an unread snapshot
// is replaced by the newer one. This is safe because every snapshot carries
// the full current query result, so no append is ever lost, only superseded.

// MessageSubscription is a live, ordered view of one conversation's log.
type MessageSubscription interface {
	Updates() <-chan []models.Message
	Cancel()
}

// ConversationSubscription is a live view of one user's conversation list.
type ConversationSubscription interface {
	Updates() <-chan []models.Conversation
	Cancel()
}

// UserSubscription is a live view of one user's profile document.
type UserSubscription interface {
	Updates() <-chan *models.User
	Cancel()
}

// subscription holds the cancellation state shared by all subscription kinds.
type subscription struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (s *subscription) Cancel() {
	s.once.Do(s.cancel)
}

// sendLatest delivers v on ch, first discarding an unread previous value.
// ch must be buffered with capacity 1 and have a single producer.
func sendLatest[T any](ctx context.Context, ch chan T, v T) bool {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

type messageSubscription struct {
	subscription
	updates chan []models.Message
}

func (s *messageSubscription) Updates() <-chan []models.Message { return s.updates }

type conversationSubscription struct {
	subscription
	updates chan []models.Conversation
}

func (s *conversationSubscription) Updates() <-chan []models.Conversation { return s.updates }

type userSubscription struct {
	subscription
	updates chan *models.User
}

func (s *userSubscription) Updates() <-chan *models.User { return s.updates }
