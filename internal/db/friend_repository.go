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

const friendsCollection = "friends"

// firestoreFriendRepository implements FriendRepository on the
// users/{owner}/friends subcollection. Edges are directed and never mutated
// after creation.
type firestoreFriendRepository struct {
	client *firestore.Client
}

// NewFirestoreFriendRepository creates a new Firestore-backed FriendRepository.
func NewFirestoreFriendRepository(client *firestore.Client) FriendRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for FriendRepository.")
	}
	return &firestoreFriendRepository{client: client}
}

func (r *firestoreFriendRepository) friendsRef(ownerUID string) *firestore.CollectionRef {
	return r.client.Collection(usersCollection).Doc(ownerUID).Collection(friendsCollection)
}

// Add creates the edge document keyed by the friend's UID. Create (not Set)
// makes the duplicate case an AlreadyExists failure at the store, which is
// reported as (false, nil): no second write, no error.
func (r *firestoreFriendRepository) Add(ctx context.Context, ownerUID, friendUID string, addedAt time.Time) (bool, error) {
	if ownerUID == "" || friendUID == "" {
		return false, errors.New("ownerUID and friendUID are required for Add operation")
	}
	edge := models.FriendEdge{FriendUID: friendUID, AddedAt: addedAt}
	_, err := r.friendsRef(ownerUID).Doc(friendUID).Create(ctx, edge)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return false, nil
		}
		return false, fmt.Errorf("failed to add friend edge '%s' -> '%s': %w", ownerUID, friendUID, err)
	}
	return true, nil
}

// List returns edges ordered by addedAt descending. A non-zero `after` acts
// as an exclusive cursor: only edges added strictly before it are returned
// (the traversal moves backwards in time).
func (r *firestoreFriendRepository) List(ctx context.Context, ownerUID string, after time.Time, limit int) ([]models.FriendEdge, error) {
	if ownerUID == "" {
		return nil, errors.New("ownerUID cannot be empty for List operation")
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	q := r.friendsRef(ownerUID).OrderBy("addedAt", firestore.Desc).Limit(limit)
	if !after.IsZero() {
		q = q.StartAfter(after)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()
	var edges []models.FriendEdge
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list friends for '%s': %w", ownerUID, err)
		}
		var edge models.FriendEdge
		if err := docSnap.DataTo(&edge); err != nil {
			return nil, fmt.Errorf("failed to decode friend edge '%s': %w", docSnap.Ref.ID, err)
		}
		edge.FriendUID = docSnap.Ref.ID
		edges = append(edges, edge)
	}
	return edges, nil
}
