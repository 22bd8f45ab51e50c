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

const usersCollection = "users"

// ErrNotFound is returned when a referenced document is absent from Firestore.
var ErrNotFound = errors.New("document not found")

// maxMembershipQuerySize is the document store's bound on "in" query operands.
const maxMembershipQuerySize = 10

// namePrefixUpperBound terminates a prefix range query: every string with the
// given prefix sorts below prefix + U+F8FF.
const namePrefixUpperBound = "\uf8ff"

// firestoreUserRepository implements UserRepository using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new Firestore-backed UserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for UserRepository.")
	}
	return &firestoreUserRepository{client: client}
}

// Create adds a new user document. The UID (Firebase Auth UID) is the
// document ID; CreatedAt/UpdatedAt are populated server-side via the
// serverTimestamp tags.
func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.UID == "" {
		return errors.New("user UID cannot be empty for Create operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(user.UID).Create(ctx, user)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("user with UID '%s' already exists: %w", user.UID, err)
		}
		return fmt.Errorf("failed to create user with UID '%s': %w", user.UID, err)
	}
	return nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, uid string) (*models.User, error) {
	if uid == "" {
		return nil, errors.New("uid cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with UID '%s' not found: %w", uid, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with UID '%s': %w", uid, err)
	}
	return decodeUser(docSnap)
}

// Merge applies a partial update with MergeAll semantics: only the supplied
// fields are written, everything else is left untouched.
func (r *firestoreUserRepository) Merge(ctx context.Context, uid string, fields map[string]interface{}) error {
	if uid == "" {
		return errors.New("uid cannot be empty for Merge operation")
	}
	if len(fields) == 0 {
		return nil
	}
	merged := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["updatedAt"] = firestore.ServerTimestamp
	_, err := r.client.Collection(usersCollection).Doc(uid).Set(ctx, merged, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to merge user with UID '%s': %w", uid, err)
	}
	return nil
}

// GetManyByUID resolves profiles for the given UIDs, chunking the membership
// query to the store's 10-element bound. Order of the result is unspecified;
// absent UIDs are simply omitted.
func (r *firestoreUserRepository) GetManyByUID(ctx context.Context, uids []string) ([]*models.User, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	users := make([]*models.User, 0, len(uids))
	for start := 0; start < len(uids); start += maxMembershipQuerySize {
		end := start + maxMembershipQuerySize
		if end > len(uids) {
			end = len(uids)
		}
		chunk := uids[start:end]
		q := r.client.Collection(usersCollection).Where("uid", "in", chunk)
		batch, err := r.collectUsers(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user batch: %w", err)
		}
		users = append(users, batch...)
	}
	return users, nil
}

func (r *firestoreUserRepository) ListExcept(ctx context.Context, selfUID string, limit int) ([]*models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := r.client.Collection(usersCollection).
		Where("uid", "!=", selfUID).
		Limit(limit)
	users, err := r.collectUsers(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SearchByNamePrefix performs the store's prefix-range idiom: name >= prefix
// and name <= prefix + U+F8FF.
func (r *firestoreUserRepository) SearchByNamePrefix(ctx context.Context, prefix string, limit int) ([]*models.User, error) {
	if prefix == "" {
		return nil, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	q := r.client.Collection(usersCollection).
		Where("name", ">=", prefix).
		Where("name", "<=", prefix+namePrefixUpperBound).
		Limit(limit)
	users, err := r.collectUsers(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search users by name prefix: %w", err)
	}
	return users, nil
}

func (r *firestoreUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getByExactField(ctx, "email", email)
}

func (r *firestoreUserRepository) GetByPhoneNumber(ctx context.Context, phone string) (*models.User, error) {
	return r.getByExactField(ctx, "phoneNumber", phone)
}

func (r *firestoreUserRepository) getByExactField(ctx context.Context, field, value string) (*models.User, error) {
	if value == "" {
		return nil, ErrNotFound
	}
	q := r.client.Collection(usersCollection).Where(field, "==", value).Limit(1)
	users, err := r.collectUsers(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by %s: %w", field, err)
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return users[0], nil
}

// Watch returns a live subscription to the user's profile document. Updates
// are delivered on every change; a deleted or absent document yields no update.
func (r *firestoreUserRepository) Watch(ctx context.Context, uid string) (UserSubscription, error) {
	if uid == "" {
		return nil, errors.New("uid cannot be empty for Watch operation")
	}
	subCtx, cancel := context.WithCancel(ctx)
	sub := &userSubscription{
		subscription: subscription{cancel: cancel},
		updates:      make(chan *models.User, 1),
	}

	snapIter := r.client.Collection(usersCollection).Doc(uid).Snapshots(subCtx)
	go func() {
		defer close(sub.updates)
		defer snapIter.Stop()
		for {
			docSnap, err := snapIter.Next()
			if err != nil {
				// Canceled or stream failure; either way the subscription ends.
				if status.Code(err) != codes.Canceled {
					log.Printf("user watch for '%s' ended: %v", uid, err)
				}
				return
			}
			if !docSnap.Exists() {
				continue
			}
			user, err := decodeUser(docSnap)
			if err != nil {
				log.Printf("user watch for '%s': %v", uid, err)
				continue
			}
			if !sendLatest(subCtx, sub.updates, user) {
				return
			}
		}
	}()
	return sub, nil
}

func (r *firestoreUserRepository) collectUsers(ctx context.Context, q firestore.Query) ([]*models.User, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()
	var users []*models.User
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		user, err := decodeUser(docSnap)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func decodeUser(docSnap *firestore.DocumentSnapshot) (*models.User, error) {
	var user models.User
	if err := docSnap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user document '%s': %w", docSnap.Ref.ID, err)
	}
	// The UID field should match the document ID; trust the ID.
	user.UID = docSnap.Ref.ID
	return &user, nil
}
