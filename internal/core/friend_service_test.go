package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"chatsync-backend-go/internal/db"
	"chatsync-backend-go/internal/models"
)

func friendTestUsers() *stubUserRepository {
	return &stubUserRepository{
		getByID: func(ctx context.Context, uid string) (*models.User, error) {
			if uid == "bob" {
				return &models.User{UID: "bob", Name: "Bob"}, nil
			}
			return nil, db.ErrNotFound
		},
	}
}

func TestFriendAddRejectsSelf(t *testing.T) {
	svc := NewFriendService(&stubFriendRepository{}, friendTestUsers())
	if _, err := svc.Add(context.Background(), "alice", "alice"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFriendAddRejectsUnknownUser(t *testing.T) {
	svc := NewFriendService(&stubFriendRepository{}, friendTestUsers())
	if _, err := svc.Add(context.Background(), "alice", "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFriendAddIsIdempotent(t *testing.T) {
	existing := map[string]bool{}
	friends := &stubFriendRepository{
		add: func(ctx context.Context, ownerUID, friendUID string, addedAt time.Time) (bool, error) {
			key := ownerUID + "/" + friendUID
			if existing[key] {
				return false, nil
			}
			existing[key] = true
			return true, nil
		},
	}

	svc := NewFriendService(friends, friendTestUsers())
	created, err := svc.Add(context.Background(), "alice", "bob")
	if err != nil || !created {
		t.Fatalf("first add: created=%v err=%v", created, err)
	}
	created, err = svc.Add(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("second add must not error, got %v", err)
	}
	if created {
		t.Fatal("second add must report created=false")
	}
}

func TestFriendListPagesWithOpaqueCursor(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	edges := []models.FriendEdge{
		{FriendUID: "u3", AddedAt: base.Add(3 * time.Hour)},
		{FriendUID: "u2", AddedAt: base.Add(2 * time.Hour)},
		{FriendUID: "u1", AddedAt: base.Add(1 * time.Hour)},
	}
	friends := &stubFriendRepository{
		list: func(ctx context.Context, ownerUID string, after time.Time, limit int) ([]models.FriendEdge, error) {
			var page []models.FriendEdge
			for _, e := range edges {
				if !after.IsZero() && !e.AddedAt.Before(after) {
					continue
				}
				page = append(page, e)
				if len(page) == limit {
					break
				}
			}
			return page, nil
		},
	}
	users := &stubUserRepository{
		getManyByUID: func(ctx context.Context, uids []string) ([]*models.User, error) {
			out := make([]*models.User, 0, len(uids))
			for _, uid := range uids {
				out = append(out, &models.User{UID: uid, Name: "User " + uid})
			}
			return out, nil
		},
	}

	svc := NewFriendService(friends, users)
	first, cursor, err := svc.List(context.Background(), "alice", "", 2)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(first) != 2 || first[0].User.UID != "u3" || first[1].User.UID != "u2" {
		t.Fatalf("unexpected first page: %+v", first)
	}
	if cursor == "" {
		t.Fatal("expected a continuation cursor after a full page")
	}

	second, next, err := svc.List(context.Background(), "alice", cursor, 2)
	if err != nil {
		t.Fatalf("List(page 2) returned error: %v", err)
	}
	if len(second) != 1 || second[0].User.UID != "u1" {
		t.Fatalf("unexpected second page: %+v", second)
	}
	if next != "" {
		t.Errorf("expected empty cursor on final page, got %q", next)
	}
}

func TestFriendListRejectsMalformedCursor(t *testing.T) {
	svc := NewFriendService(&stubFriendRepository{}, &stubUserRepository{})
	if _, _, err := svc.List(context.Background(), "alice", "not-a-cursor!!!", 10); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFriendSearchMergesAndExcludesSelf(t *testing.T) {
	users := &stubUserRepository{
		searchByName: func(ctx context.Context, prefix string, limit int) ([]*models.User, error) {
			if prefix != "bob" {
				return nil, nil
			}
			return []*models.User{
				{UID: "bob-1", Name: "Bob Stone"},
				{UID: "searcher", Name: "Bobby Self"},
			}, nil
		},
		getByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return nil, db.ErrNotFound
		},
		getByPhoneNumber: func(ctx context.Context, phone string) (*models.User, error) {
			return nil, db.ErrNotFound
		},
	}

	svc := NewFriendService(&stubFriendRepository{}, users)
	results, err := svc.Search(context.Background(), "searcher", "bob")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 1 || results[0].UID != "bob-1" {
		t.Fatalf("expected only bob-1 with the searcher excluded, got %+v", results)
	}
}

func TestFriendSearchByExactEmail(t *testing.T) {
	bob := &models.User{UID: "bob-uid", Name: "Bob", Email: "bob@example.com"}
	users := &stubUserRepository{
		searchByName: func(ctx context.Context, prefix string, limit int) ([]*models.User, error) {
			return nil, nil
		},
		getByEmail: func(ctx context.Context, email string) (*models.User, error) {
			if email == "bob@example.com" {
				return bob, nil
			}
			return nil, db.ErrNotFound
		},
		getByPhoneNumber: func(ctx context.Context, phone string) (*models.User, error) {
			return nil, db.ErrNotFound
		},
	}

	svc := NewFriendService(&stubFriendRepository{}, users)
	results, err := svc.Search(context.Background(), "alice-uid", "bob@example.com")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 1 || results[0].UID != "bob-uid" {
		t.Fatalf("expected exactly bob's profile, got %+v", results)
	}
}

func TestFriendSearchDeduplicatesAcrossFields(t *testing.T) {
	bob := &models.User{UID: "bob-uid", Name: "bob", Email: "bob", PhoneNumber: "bob"}
	users := &stubUserRepository{
		searchByName: func(ctx context.Context, prefix string, limit int) ([]*models.User, error) {
			return []*models.User{bob}, nil
		},
		getByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return bob, nil
		},
		getByPhoneNumber: func(ctx context.Context, phone string) (*models.User, error) {
			return bob, nil
		},
	}

	svc := NewFriendService(&stubFriendRepository{}, users)
	results, err := svc.Search(context.Background(), "alice-uid", "bob")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected deduplicated single result, got %d", len(results))
	}
}

func TestFriendSearchEmptyQueryReturnsNothing(t *testing.T) {
	svc := NewFriendService(&stubFriendRepository{}, &stubUserRepository{})
	results, err := svc.Search(context.Background(), "alice", "   ")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results for blank query, got %+v", results)
	}
}
