package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chatsync-backend-go/internal/db"
	"chatsync-backend-go/internal/models"
)

// profilePhotosPrefix is the blob-store path prefix for profile photos,
// keyed by user ID so re-uploads overwrite in place.
const profilePhotosPrefix = "profilePictures/"

// userService implements the UserService interface.
type userService struct {
	users db.UserRepository
	blobs db.BlobStore
}

// NewUserService creates a new UserService instance.
func NewUserService(users db.UserRepository, blobs db.BlobStore) UserService {
	return &userService{users: users, blobs: blobs}
}

// GetOrCreate retrieves a user by UID, creating the profile from the auth
// claims when it does not exist yet. Mirrors the first-login bootstrap the
// mobile client performs after authentication.
func (s *userService) GetOrCreate(ctx context.Context, uid, email, name, photoURL, phoneNumber string) (*models.User, bool, error) {
	if uid == "" {
		return nil, false, NewValidationError(map[string]string{"uid": "required"})
	}

	user, err := s.users.GetByID(ctx, uid)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to get user '%s': %w", uid, err)
	}

	if strings.TrimSpace(name) == "" {
		name = "Unnamed User"
	}
	newUser := &models.User{
		UID:         uid,
		Email:       email,
		Name:        name,
		PhotoURL:    photoURL,
		PhoneNumber: phoneNumber,
	}
	if createErr := s.users.Create(ctx, newUser); createErr != nil {
		return nil, false, fmt.Errorf("failed to create user '%s' after not found: %w", uid, createErr)
	}
	return newUser, true, nil
}

func (s *userService) GetByID(ctx context.Context, uid string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: uid '%s'", ErrUserNotFound, uid)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", uid, err)
	}
	return user, nil
}

func (s *userService) ListOthers(ctx context.Context, selfUID string, limit int) ([]*models.User, error) {
	if selfUID == "" {
		return nil, NewValidationError(map[string]string{"uid": "required"})
	}
	return s.users.ListExcept(ctx, selfUID, limit)
}

// UpdateProfile applies the provided fields only; nil pointers leave the
// stored value untouched.
func (s *userService) UpdateProfile(ctx context.Context, uid string, req models.UpdateProfileRequest) (*models.User, error) {
	fields := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, NewValidationError(map[string]string{"name": "cannot be empty"})
		}
		fields["name"] = name
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if len(fields) == 0 {
		return s.GetByID(ctx, uid)
	}
	if err := s.users.Merge(ctx, uid, fields); err != nil {
		return nil, fmt.Errorf("failed to update profile for '%s': %w", uid, err)
	}
	return s.GetByID(ctx, uid)
}

// UpdatePhoto uploads the photo to the blob store under the user's fixed
// object path and persists the resulting URL on the profile.
func (s *userService) UpdatePhoto(ctx context.Context, uid string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", NewValidationError(map[string]string{"photo": "cannot be empty"})
	}
	if s.blobs == nil {
		return "", errors.New("BlobStore not initialized in UserService")
	}
	url, err := s.blobs.Upload(ctx, profilePhotosPrefix+uid, data, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload profile photo for '%s': %w", uid, err)
	}
	if err := s.users.Merge(ctx, uid, map[string]interface{}{"photoURL": url}); err != nil {
		return "", fmt.Errorf("photo uploaded but profile update failed for '%s': %w", uid, err)
	}
	return url, nil
}

func (s *userService) RegisterFCMToken(ctx context.Context, uid, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return NewValidationError(map[string]string{"token": "required"})
	}
	if err := s.users.Merge(ctx, uid, map[string]interface{}{"fcmToken": token}); err != nil {
		return fmt.Errorf("failed to register fcm token for '%s': %w", uid, err)
	}
	return nil
}
