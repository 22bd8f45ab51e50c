package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"chatsync-backend-go/internal/models"
)

const (
	chatsCollection    = "chats"
	messagesCollection = "messages"
)

// firestoreMessageRepository implements MessageRepository on the
// chats/{conversationId}/messages subcollection. The log is append-only:
// no update or delete method exists on purpose.
type firestoreMessageRepository struct {
	client *firestore.Client
}

// NewFirestoreMessageRepository creates a new Firestore-backed MessageRepository.
func NewFirestoreMessageRepository(client *firestore.Client) MessageRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for MessageRepository.")
	}
	return &firestoreMessageRepository{client: client}
}

func (r *firestoreMessageRepository) messagesRef(conversationID string) *firestore.CollectionRef {
	return r.client.Collection(chatsCollection).Doc(conversationID).Collection(messagesCollection)
}

// Append writes one message to the conversation log. CreatedAt is assigned by
// the store (serverTimestamp tag on a zero time.Time), so ordering does not
// depend on client clocks.
func (r *firestoreMessageRepository) Append(ctx context.Context, conversationID string, msg *models.Message) (string, error) {
	if conversationID == "" {
		return "", errors.New("conversationID cannot be empty for Append operation")
	}
	ref, _, err := r.messagesRef(conversationID).Add(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("failed to append message to conversation '%s': %w", conversationID, err)
	}
	return ref.ID, nil
}

// History returns the full log ordered by createdAt ascending. Equal
// timestamps fall back to the store's document ordering, which is stable.
func (r *firestoreMessageRepository) History(ctx context.Context, conversationID string) ([]models.Message, error) {
	if conversationID == "" {
		return nil, errors.New("conversationID cannot be empty for History operation")
	}
	q := r.messagesRef(conversationID).OrderBy("createdAt", firestore.Asc)
	iter := q.Documents(ctx)
	defer iter.Stop()

	var msgs []models.Message
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read messages for conversation '%s': %w", conversationID, err)
		}
		msg, err := decodeMessage(docSnap)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Subscribe returns a live subscription to the ordered log. Every update
// carries the complete current log (the snapshot model of the underlying
// store), so consumers never observe a message out of order or twice within
// one update.
func (r *firestoreMessageRepository) Subscribe(ctx context.Context, conversationID string) (MessageSubscription, error) {
	if conversationID == "" {
		return nil, errors.New("conversationID cannot be empty for Subscribe operation")
	}
	subCtx, cancel := context.WithCancel(ctx)
	sub := &messageSubscription{
		subscription: subscription{cancel: cancel},
		updates:      make(chan []models.Message, 1),
	}

	q := r.messagesRef(conversationID).OrderBy("createdAt", firestore.Asc)
	snapIter := q.Snapshots(subCtx)
	go func() {
		defer close(sub.updates)
		defer snapIter.Stop()
		for {
			qsnap, err := snapIter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					log.Printf("message subscription for '%s' ended: %v", conversationID, err)
				}
				return
			}
			msgs, err := collectMessages(qsnap.Documents)
			if err != nil {
				log.Printf("message subscription for '%s': %v", conversationID, err)
				continue
			}
			if !sendLatest(subCtx, sub.updates, msgs) {
				return
			}
		}
	}()
	return sub, nil
}

func collectMessages(iter *firestore.DocumentIterator) ([]models.Message, error) {
	defer iter.Stop()
	var msgs []models.Message
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate message snapshot: %w", err)
		}
		msg, err := decodeMessage(docSnap)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func decodeMessage(docSnap *firestore.DocumentSnapshot) (models.Message, error) {
	var msg models.Message
	if err := docSnap.DataTo(&msg); err != nil {
		return models.Message{}, fmt.Errorf("failed to decode message document '%s': %w", docSnap.Ref.ID, err)
	}
	msg.ID = docSnap.Ref.ID
	return msg, nil
}
