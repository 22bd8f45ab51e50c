package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"chatsync-backend-go/internal/db"
	"chatsync-backend-go/internal/models"
)

const defaultNotifyTimeout = 10 * time.Second

// messageService implements the MessageService interface.
type messageService struct {
	messages      db.MessageRepository
	conversations db.ConversationRepository
	notifier      NotificationService
	logger        *zap.Logger

	// Now is injectable for tests; defaults to time.Now.
	now           func() time.Time
	notifyTimeout time.Duration
}

// NewMessageService creates a new MessageService instance. notifier may be
// nil when push delivery is disabled.
func NewMessageService(messages db.MessageRepository, conversations db.ConversationRepository, notifier NotificationService, logger *zap.Logger) MessageService {
	return &messageService{
		messages:      messages,
		conversations: conversations,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
		notifyTimeout: defaultNotifyTimeout,
	}
}

// Send appends the message, then updates the conversation summary, then
// dispatches the push. The two writes are not atomic: a summary failure is
// surfaced to the caller but the appended message is never rolled back.
func (s *messageService) Send(ctx context.Context, sender models.Sender, peerUID, text string) (*models.Message, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, "", NewValidationError(map[string]string{"text": "message text cannot be empty"})
	}
	if sender.ID == "" {
		return nil, "", NewValidationError(map[string]string{"sender": "sender uid is required"})
	}

	conversationID, err := ResolveConversationID(sender.ID, peerUID)
	if err != nil {
		return nil, "", err
	}

	msg := &models.Message{Text: text, Sender: sender}
	id, err := s.messages.Append(ctx, conversationID, msg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to append message to '%s': %w", conversationID, err)
	}
	msg.ID = id
	now := s.now().UTC()
	if msg.CreatedAt.IsZero() {
		// The store assigns the authoritative timestamp; echo a close
		// approximation so the caller can render immediately.
		msg.CreatedAt = now
	}

	if err := s.conversations.Upsert(ctx, conversationID, []string{sender.ID, peerUID}, text, now); err != nil {
		return msg, conversationID, fmt.Errorf("message appended but summary update failed for '%s': %w", conversationID, err)
	}

	if s.notifier != nil {
		// Detached from the request context so a fast handler return cannot
		// cancel the push. Failures are logged, never propagated.
		go func() {
			nctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
			defer cancel()
			if err := s.notifier.Notify(nctx, peerUID, sender.Name, text, conversationID); err != nil {
				s.logger.Warn("push notification dispatch failed",
					zap.String("conversationId", conversationID),
					zap.Error(err))
			}
		}()
	}

	return msg, conversationID, nil
}

func (s *messageService) History(ctx context.Context, selfUID, peerUID string) ([]models.Message, string, error) {
	conversationID, err := ResolveConversationID(selfUID, peerUID)
	if err != nil {
		return nil, "", err
	}
	messages, err := s.messages.History(ctx, conversationID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load history for '%s': %w", conversationID, err)
	}
	return messages, conversationID, nil
}

func (s *messageService) SubscribeConversation(ctx context.Context, conversationID string) (db.MessageSubscription, error) {
	if _, _, err := ParseConversationID(conversationID); err != nil {
		return nil, err
	}
	return s.messages.Subscribe(ctx, conversationID)
}
