package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chatsync-backend-go/internal/db"
	"chatsync-backend-go/internal/notifications"
	"chatsync-backend-go/pkg/messagequeue"
)

// NotificationsQueue is the broker queue chat pushes are staged on.
const NotificationsQueue = "chat.notifications"

const consumerSendTimeout = 15 * time.Second

// pushJob is the wire format of a queued push.
type pushJob struct {
	RecipientUID string            `json:"recipientUid"`
	Token        string            `json:"token"`
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	Data         map[string]string `json:"data"`
}

// notificationDispatcher implements NotificationService. When a message queue
// is configured, pushes are staged on it and delivered by the consumer loop;
// otherwise they are sent inline.
type notificationDispatcher struct {
	users  db.UserRepository
	queue  messagequeue.MessageQueue
	sender PushSender
	logger *zap.Logger
}

// NewNotificationDispatcher creates a NotificationService. queue may be nil
// to send pushes inline.
func NewNotificationDispatcher(users db.UserRepository, queue messagequeue.MessageQueue, sender PushSender, logger *zap.Logger) NotificationService {
	return &notificationDispatcher{users: users, queue: queue, sender: sender, logger: logger}
}

// Notify resolves the recipient's device token and issues one push. Delivery
// is best effort end to end: a recipient with no registered token is a silent
// no-op, and returned errors are for the caller's log only.
func (s *notificationDispatcher) Notify(ctx context.Context, recipientUID, senderName, messageText, conversationID string) error {
	recipient, err := s.users.GetByID(ctx, recipientUID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to resolve notification recipient '%s': %w", recipientUID, err)
	}
	if recipient.FCMToken == "" {
		return nil
	}

	senderUID := conversationID
	if a, b, perr := ParseConversationID(conversationID); perr == nil {
		senderUID = a
		if a == recipientUID {
			senderUID = b
		}
	}

	job := pushJob{
		RecipientUID: recipientUID,
		Token:        recipient.FCMToken,
		Title:        senderName,
		Body:         messageText,
		Data: map[string]string{
			"chatId":   conversationID,
			"senderId": senderUID,
			"message":  messageText,
		},
	}

	if s.queue != nil {
		body, merr := json.Marshal(job)
		if merr != nil {
			return fmt.Errorf("failed to marshal push job: %w", merr)
		}
		qerr := s.queue.Publish(NotificationsQueue, body)
		if qerr == nil {
			return nil
		}
		s.logger.Warn("queue publish failed, sending push inline", zap.Error(qerr))
	}

	return s.deliver(ctx, job)
}

// StartConsumer drains the notification queue, delivering each staged push.
// It blocks until the queue is closed. Callers run it on its own goroutine.
func (s *notificationDispatcher) StartConsumer() error {
	if s.queue == nil {
		return errors.New("notification consumer requires a message queue")
	}
	return s.queue.Consume(NotificationsQueue, func(body []byte) {
		var job pushJob
		if err := json.Unmarshal(body, &job); err != nil {
			s.logger.Error("discarding malformed push job", zap.Error(err))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), consumerSendTimeout)
		defer cancel()
		if err := s.deliver(ctx, job); err != nil {
			s.logger.Warn("queued push delivery failed",
				zap.String("recipientUid", job.RecipientUID),
				zap.Error(err))
		}
	})
}

// deliver performs the actual send. A token FCM reports as unregistered is
// dropped from the recipient's profile so the dead device stops receiving
// send attempts.
func (s *notificationDispatcher) deliver(ctx context.Context, job pushJob) error {
	err := s.sender.Send(ctx, job.Token, PushNotification{Title: job.Title, Body: job.Body}, job.Data)
	if err == nil {
		return nil
	}
	if errors.Is(err, notifications.ErrInvalidToken) && job.RecipientUID != "" {
		if merr := s.users.Merge(ctx, job.RecipientUID, map[string]interface{}{"fcmToken": ""}); merr != nil {
			s.logger.Warn("failed to clear stale fcm token",
				zap.String("uid", job.RecipientUID), zap.Error(merr))
		}
		return nil
	}
	return fmt.Errorf("push send failed: %w", err)
}
