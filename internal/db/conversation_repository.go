package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"chatsync-backend-go/internal/models"
)

// firestoreConversationRepository implements ConversationRepository on the
// chats collection. One document per pairwise conversation, keyed by the
// deterministic pair ID; only the summary fields live here, the log is a
// subcollection handled by the message repository.
type firestoreConversationRepository struct {
	client *firestore.Client
}

// NewFirestoreConversationRepository creates a new Firestore-backed ConversationRepository.
func NewFirestoreConversationRepository(client *firestore.Client) ConversationRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ConversationRepository.")
	}
	return &firestoreConversationRepository{client: client}
}

// Upsert merges the summary fields into chats/{id}, creating the document if
// absent. Merge semantics keep the operation idempotent; concurrent upserts
// from both participants are last-writer-wins by design.
func (r *firestoreConversationRepository) Upsert(ctx context.Context, id string, participants []string, lastMessage string, lastUpdated time.Time) error {
	if id == "" {
		return errors.New("conversation id cannot be empty for Upsert operation")
	}
	fields := map[string]interface{}{
		"participants": participants,
		"lastMessage":  lastMessage,
		"lastUpdated":  lastUpdated,
	}
	_, err := r.client.Collection(chatsCollection).Doc(id).Set(ctx, fields, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation '%s': %w", id, err)
	}
	return nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	if id == "" {
		return nil, errors.New("conversation id cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(chatsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("conversation '%s' not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get conversation '%s': %w", id, err)
	}
	conv, err := decodeConversation(docSnap)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *firestoreConversationRepository) listQuery(uid string) firestore.Query {
	return r.client.Collection(chatsCollection).
		Where("participants", "array-contains", uid).
		OrderBy("lastUpdated", firestore.Desc)
}

func (r *firestoreConversationRepository) ListFor(ctx context.Context, uid string) ([]models.Conversation, error) {
	if uid == "" {
		return nil, errors.New("uid cannot be empty for ListFor operation")
	}
	iter := r.listQuery(uid).Documents(ctx)
	convs, err := collectConversations(iter)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations for '%s': %w", uid, err)
	}
	return convs, nil
}

// Subscribe returns a live subscription to the user's conversation list,
// ordered by lastUpdated descending. A summary update never arrives out of
// order relative to its own conversation's latest send.
func (r *firestoreConversationRepository) Subscribe(ctx context.Context, uid string) (ConversationSubscription, error) {
	if uid == "" {
		return nil, errors.New("uid cannot be empty for Subscribe operation")
	}
	subCtx, cancel := context.WithCancel(ctx)
	sub := &conversationSubscription{
		subscription: subscription{cancel: cancel},
		updates:      make(chan []models.Conversation, 1),
	}

	snapIter := r.listQuery(uid).Snapshots(subCtx)
	go func() {
		defer close(sub.updates)
		defer snapIter.Stop()
		for {
			qsnap, err := snapIter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					log.Printf("conversation subscription for '%s' ended: %v", uid, err)
				}
				return
			}
			convs, err := collectConversations(qsnap.Documents)
			if err != nil {
				log.Printf("conversation subscription for '%s': %v", uid, err)
				continue
			}
			if !sendLatest(subCtx, sub.updates, convs) {
				return
			}
		}
	}()
	return sub, nil
}

func collectConversations(iter *firestore.DocumentIterator) ([]models.Conversation, error) {
	defer iter.Stop()
	var convs []models.Conversation
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		conv, err := decodeConversation(docSnap)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

func decodeConversation(docSnap *firestore.DocumentSnapshot) (models.Conversation, error) {
	var conv models.Conversation
	if err := docSnap.DataTo(&conv); err != nil {
		return models.Conversation{}, fmt.Errorf("failed to decode conversation document '%s': %w", docSnap.Ref.ID, err)
	}
	conv.ID = docSnap.Ref.ID
	return conv, nil
}
