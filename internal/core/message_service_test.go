package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"chatsync-backend-go/internal/models"
)

func TestMessageServiceSendAppendsAndUpsertsSummary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var appendedConv string
	var appendedMsg *models.Message
	messages := &stubMessageRepository{
		append: func(ctx context.Context, conversationID string, msg *models.Message) (string, error) {
			appendedConv = conversationID
			appendedMsg = msg
			return "m-42", nil
		},
	}

	var upsertID, upsertLast string
	var upsertParticipants []string
	var upsertAt time.Time
	conversations := &stubConversationRepository{
		upsert: func(ctx context.Context, id string, participants []string, lastMessage string, lastUpdated time.Time) error {
			upsertID = id
			upsertParticipants = participants
			upsertLast = lastMessage
			upsertAt = lastUpdated
			return nil
		},
	}

	svc := NewMessageService(messages, conversations, nil, zap.NewNop()).(*messageService)
	svc.now = func() time.Time { return now }

	msg, convID, err := svc.Send(context.Background(), models.Sender{ID: "bob", Name: "Bob"}, "alice", "hi")
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if convID != "alice_bob" {
		t.Errorf("expected conversation alice_bob, got %q", convID)
	}
	if appendedConv != "alice_bob" {
		t.Errorf("append targeted %q", appendedConv)
	}
	if appendedMsg.Text != "hi" || appendedMsg.Sender.ID != "bob" {
		t.Errorf("unexpected appended message: %+v", appendedMsg)
	}
	if msg.ID != "m-42" {
		t.Errorf("expected store-assigned id m-42, got %q", msg.ID)
	}
	if upsertID != "alice_bob" || upsertLast != "hi" || !upsertAt.Equal(now) {
		t.Errorf("unexpected summary upsert: id=%q last=%q at=%v", upsertID, upsertLast, upsertAt)
	}
	if len(upsertParticipants) != 2 {
		t.Fatalf("expected both participants in summary, got %v", upsertParticipants)
	}
}

func TestMessageServiceSendRejectsWhitespaceWithoutWriting(t *testing.T) {
	appendCalled := false
	messages := &stubMessageRepository{
		append: func(ctx context.Context, conversationID string, msg *models.Message) (string, error) {
			appendCalled = true
			return "", nil
		},
	}

	svc := NewMessageService(messages, &stubConversationRepository{}, nil, zap.NewNop())
	for _, text := range []string{"", "   ", "\n\t "} {
		if _, _, err := svc.Send(context.Background(), models.Sender{ID: "bob"}, "alice", text); !errors.Is(err, ErrValidation) {
			t.Errorf("Send(%q): expected validation error, got %v", text, err)
		}
	}
	if appendCalled {
		t.Fatal("append must not be called for rejected input")
	}
}

func TestMessageServiceSendRejectsSelf(t *testing.T) {
	svc := NewMessageService(&stubMessageRepository{}, &stubConversationRepository{}, nil, zap.NewNop())
	if _, _, err := svc.Send(context.Background(), models.Sender{ID: "bob"}, "bob", "hi"); !errors.Is(err, ErrSelfConversation) {
		t.Fatalf("expected ErrSelfConversation, got %v", err)
	}
}

func TestMessageServiceSendSurfacesSummaryFailure(t *testing.T) {
	conversations := &stubConversationRepository{
		upsert: func(ctx context.Context, id string, participants []string, lastMessage string, lastUpdated time.Time) error {
			return errors.New("firestore unavailable")
		},
	}

	svc := NewMessageService(&stubMessageRepository{}, conversations, nil, zap.NewNop())
	msg, convID, err := svc.Send(context.Background(), models.Sender{ID: "bob"}, "alice", "hi")
	if err == nil {
		t.Fatal("expected error when summary upsert fails")
	}
	// The append already happened; the caller still gets the message back.
	if msg == nil || convID != "alice_bob" {
		t.Fatalf("expected appended message despite summary failure, got msg=%v conv=%q", msg, convID)
	}
}

func TestMessageServiceSendDispatchesNotificationAsync(t *testing.T) {
	type notifyCall struct {
		recipient, sender, text, conv string
	}
	calls := make(chan notifyCall, 1)
	notifier := &stubNotifier{
		notify: func(ctx context.Context, recipientUID, senderName, messageText, conversationID string) error {
			calls <- notifyCall{recipientUID, senderName, messageText, conversationID}
			return nil
		},
	}

	svc := NewMessageService(&stubMessageRepository{}, &stubConversationRepository{}, notifier, zap.NewNop())
	if _, _, err := svc.Send(context.Background(), models.Sender{ID: "bob", Name: "Bob"}, "alice", "hi"); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	select {
	case call := <-calls:
		if call.recipient != "alice" || call.sender != "Bob" || call.text != "hi" || call.conv != "alice_bob" {
			t.Errorf("unexpected notify call: %+v", call)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never dispatched")
	}
}

func TestMessageServiceSendSucceedsWhenNotifyFails(t *testing.T) {
	done := make(chan struct{})
	notifier := &stubNotifier{
		notify: func(ctx context.Context, recipientUID, senderName, messageText, conversationID string) error {
			close(done)
			return errors.New("push provider down")
		},
	}

	svc := NewMessageService(&stubMessageRepository{}, &stubConversationRepository{}, notifier, zap.NewNop())
	if _, _, err := svc.Send(context.Background(), models.Sender{ID: "bob"}, "alice", "hi"); err != nil {
		t.Fatalf("Send must not fail on notification errors, got %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never attempted")
	}
}

func TestMessageServiceHistoryResolvesPair(t *testing.T) {
	var requested string
	messages := &stubMessageRepository{
		history: func(ctx context.Context, conversationID string) ([]models.Message, error) {
			requested = conversationID
			return []models.Message{{ID: "m1", Text: "hi"}}, nil
		},
	}

	svc := NewMessageService(messages, &stubConversationRepository{}, nil, zap.NewNop())
	log, convID, err := svc.History(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if requested != "alice_bob" || convID != "alice_bob" {
		t.Errorf("expected alice_bob, got requested=%q returned=%q", requested, convID)
	}
	if len(log) != 1 || log[0].ID != "m1" {
		t.Errorf("unexpected history: %+v", log)
	}
}

func TestMessageServiceSubscribeRejectsMalformedID(t *testing.T) {
	svc := NewMessageService(&stubMessageRepository{}, &stubConversationRepository{}, nil, zap.NewNop())
	for _, id := range []string{"", "alice", "bob_alice", "_alice", "alice_"} {
		if _, err := svc.SubscribeConversation(context.Background(), id); !errors.Is(err, ErrValidation) {
			t.Errorf("SubscribeConversation(%q): expected validation error, got %v", id, err)
		}
	}
}
