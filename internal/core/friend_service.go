package core

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatsync-backend-go/internal/db"
	"chatsync-backend-go/internal/models"
)

const defaultFriendPageSize = 10

// friendService implements the FriendService interface.
type friendService struct {
	friends db.FriendRepository
	users   db.UserRepository

	// Now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewFriendService creates a new FriendService instance.
func NewFriendService(friends db.FriendRepository, users db.UserRepository) FriendService {
	return &friendService{friends: friends, users: users, now: time.Now}
}

// Add creates the directed contact edge. Adding the same friend twice is a
// quiet success (created=false), and the friend must exist.
func (s *friendService) Add(ctx context.Context, ownerUID, friendUID string) (bool, error) {
	ownerUID = strings.TrimSpace(ownerUID)
	friendUID = strings.TrimSpace(friendUID)
	if ownerUID == "" || friendUID == "" {
		return false, NewValidationError(map[string]string{"friendUid": "both owner and friend uids are required"})
	}
	if ownerUID == friendUID {
		return false, NewValidationError(map[string]string{"friendUid": "cannot add yourself as a friend"})
	}

	if _, err := s.users.GetByID(ctx, friendUID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return false, fmt.Errorf("%w: uid '%s'", ErrUserNotFound, friendUID)
		}
		return false, fmt.Errorf("failed to verify friend '%s': %w", friendUID, err)
	}

	created, err := s.friends.Add(ctx, ownerUID, friendUID, s.now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to add friend '%s' for '%s': %w", friendUID, ownerUID, err)
	}
	return created, nil
}

// List returns one page of the owner's contacts, newest first, with profiles
// resolved. The returned cursor is opaque; "" means the listing is complete.
func (s *friendService) List(ctx context.Context, ownerUID, cursor string, limit int) ([]models.Friend, string, error) {
	if ownerUID == "" {
		return nil, "", NewValidationError(map[string]string{"uid": "required"})
	}
	if limit <= 0 {
		limit = defaultFriendPageSize
	}
	after, err := decodeFriendCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	edges, err := s.friends.List(ctx, ownerUID, after, limit)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list friends for '%s': %w", ownerUID, err)
	}
	if len(edges) == 0 {
		return nil, "", nil
	}

	uids := make([]string, 0, len(edges))
	for _, e := range edges {
		uids = append(uids, e.FriendUID)
	}
	profiles, err := s.users.GetManyByUID(ctx, uids)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve friend profiles: %w", err)
	}
	byUID := make(map[string]*models.User, len(profiles))
	for _, p := range profiles {
		byUID[p.UID] = p
	}

	page := make([]models.Friend, 0, len(edges))
	for _, e := range edges {
		profile, ok := byUID[e.FriendUID]
		if !ok {
			// Edge to a deleted account; skip rather than render a hole.
			continue
		}
		page = append(page, models.Friend{User: profile, AddedAt: e.AddedAt})
	}

	next := ""
	if len(edges) == limit {
		next = encodeFriendCursor(edges[len(edges)-1].AddedAt)
	}
	return page, next, nil
}

// Search finds users by name prefix, exact email and exact phone number. The
// three result sets are merged, deduplicated by UID, and the searcher is
// excluded so users cannot add themselves.
func (s *friendService) Search(ctx context.Context, selfUID, query string) ([]*models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	byName, err := s.users.SearchByNamePrefix(ctx, query, 20)
	if err != nil {
		return nil, fmt.Errorf("name search failed: %w", err)
	}

	results := make([]*models.User, 0, len(byName)+2)
	seen := map[string]struct{}{}
	appendUser := func(u *models.User) {
		if u == nil || u.UID == selfUID {
			return
		}
		if _, ok := seen[u.UID]; ok {
			return
		}
		seen[u.UID] = struct{}{}
		results = append(results, u)
	}

	for _, u := range byName {
		appendUser(u)
	}

	byEmail, err := s.users.GetByEmail(ctx, query)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("email search failed: %w", err)
	}
	appendUser(byEmail)

	byPhone, err := s.users.GetByPhoneNumber(ctx, query)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("phone search failed: %w", err)
	}
	appendUser(byPhone)

	return results, nil
}

func encodeFriendCursor(addedAt time.Time) string {
	return base64.RawURLEncoding.EncodeToString([]byte(addedAt.UTC().Format(time.RFC3339Nano)))
}

func decodeFriendCursor(cursor string) (time.Time, error) {
	if cursor == "" {
		return time.Time{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, NewValidationError(map[string]string{"cursor": "malformed cursor"})
	}
	ts, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}, NewValidationError(map[string]string{"cursor": "malformed cursor"})
	}
	return ts, nil
}
