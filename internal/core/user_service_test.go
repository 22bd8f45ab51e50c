package core

import (
	"context"
	"errors"
	"testing"

	"chatsync-backend-go/internal/db"
	"chatsync-backend-go/internal/models"
)

func TestUserGetOrCreateReturnsExisting(t *testing.T) {
	existing := &models.User{UID: "alice", Name: "Alice"}
	users := &stubUserRepository{
		getByID: func(ctx context.Context, uid string) (*models.User, error) {
			return existing, nil
		},
		create: func(ctx context.Context, user *models.User) error {
			t.Fatal("create must not be called for an existing user")
			return nil
		},
	}

	svc := NewUserService(users, &stubBlobStore{})
	user, created, err := svc.GetOrCreate(context.Background(), "alice", "a@example.com", "Alice", "", "")
	if err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	if created {
		t.Fatal("expected created=false for existing user")
	}
	if user != existing {
		t.Fatalf("expected existing profile, got %+v", user)
	}
}

func TestUserGetOrCreateBootstrapsProfile(t *testing.T) {
	var createdUser *models.User
	users := &stubUserRepository{
		create: func(ctx context.Context, user *models.User) error {
			createdUser = user
			return nil
		},
	}

	svc := NewUserService(users, &stubBlobStore{})
	user, created, err := svc.GetOrCreate(context.Background(), "alice", "a@example.com", "  ", "http://p", "+15550001111")
	if err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	if !created {
		t.Fatal("expected created=true for a first-seen uid")
	}
	if createdUser == nil || createdUser.UID != "alice" || createdUser.Email != "a@example.com" {
		t.Fatalf("unexpected created profile: %+v", createdUser)
	}
	if user.Name != "Unnamed User" {
		t.Errorf("expected placeholder name for blank claim, got %q", user.Name)
	}
}

func TestUserUpdateProfileRejectsBlankName(t *testing.T) {
	blank := "   "
	svc := NewUserService(&stubUserRepository{}, &stubBlobStore{})
	if _, err := svc.UpdateProfile(context.Background(), "alice", models.UpdateProfileRequest{Name: &blank}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUserUpdateProfileMergesOnlyProvidedFields(t *testing.T) {
	name := " Alice Cooper "
	var merged map[string]interface{}
	users := &stubUserRepository{
		getByID: func(ctx context.Context, uid string) (*models.User, error) {
			return &models.User{UID: uid, Name: "Alice Cooper"}, nil
		},
		merge: func(ctx context.Context, uid string, fields map[string]interface{}) error {
			merged = fields
			return nil
		},
	}

	svc := NewUserService(users, &stubBlobStore{})
	if _, err := svc.UpdateProfile(context.Background(), "alice", models.UpdateProfileRequest{Name: &name}); err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if got := merged["name"]; got != "Alice Cooper" {
		t.Errorf("expected trimmed name merge, got %v", got)
	}
	if _, ok := merged["description"]; ok {
		t.Error("description must not be written when absent from the request")
	}
}

func TestUserUpdatePhotoUploadsAndPersistsURL(t *testing.T) {
	var uploadedPath string
	blobs := &stubBlobStore{
		upload: func(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
			uploadedPath = objectPath
			return "https://blobs.example/photo", nil
		},
	}
	var merged map[string]interface{}
	users := &stubUserRepository{
		merge: func(ctx context.Context, uid string, fields map[string]interface{}) error {
			merged = fields
			return nil
		},
	}

	svc := NewUserService(users, blobs)
	url, err := svc.UpdatePhoto(context.Background(), "alice", []byte{0xff, 0xd8}, "image/jpeg")
	if err != nil {
		t.Fatalf("UpdatePhoto returned error: %v", err)
	}
	if uploadedPath != "profilePictures/alice" {
		t.Errorf("expected fixed object path, got %q", uploadedPath)
	}
	if url != "https://blobs.example/photo" || merged["photoURL"] != url {
		t.Errorf("url %q not persisted to profile (merged %v)", url, merged)
	}
}

func TestUserRegisterFCMTokenRejectsBlank(t *testing.T) {
	svc := NewUserService(&stubUserRepository{}, &stubBlobStore{})
	if err := svc.RegisterFCMToken(context.Background(), "alice", "  "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUserGetByIDMapsNotFound(t *testing.T) {
	users := &stubUserRepository{
		getByID: func(ctx context.Context, uid string) (*models.User, error) {
			return nil, db.ErrNotFound
		},
	}
	svc := NewUserService(users, &stubBlobStore{})
	if _, err := svc.GetByID(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
