package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatsync-backend-go/internal/core"
	"chatsync-backend-go/internal/models"
)

const maxPhotoUploadBytes = 5 << 20

// UserHandler handles user-profile related API endpoints.
type UserHandler struct {
	userService core.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us core.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: us, logger: logger}
}

// GetCurrentUserProfile handles GET /api/v1/users/me.
func (h *UserHandler) GetCurrentUserProfile(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), uid)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateCurrentUserProfile handles PATCH /api/v1/users/me.
func (h *UserHandler) UpdateCurrentUserProfile(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	user, err := h.userService.UpdateProfile(c.Request.Context(), uid, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UploadProfilePhoto handles PUT /api/v1/users/me/photo. The body is the raw
// image; Content-Type is preserved on the stored object.
func (h *UserHandler) UploadProfilePhoto(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPhotoUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read request body"})
		return
	}
	if len(data) > maxPhotoUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Photo exceeds the 5 MiB limit"})
		return
	}

	contentType := c.ContentType()
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.userService.UpdatePhoto(c.Request.Context(), uid, data, contentType)
	if err != nil {
		h.logger.Error("profile photo upload failed", zap.String("uid", uid), zap.Error(err))
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, PhotoUploadResponse{PhotoURL: url, UpdatedAt: time.Now().UTC()})
}

// RegisterFCMToken handles PUT /api/v1/users/me/fcm-token.
func (h *UserHandler) RegisterFCMToken(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.RegisterFCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	if err := h.userService.RegisterFCMToken(c.Request.Context(), uid, req.Token); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "FCM token registered"})
}

// ListUsers handles GET /api/v1/users?limit=n, returning other users for the
// new-chat picker. The caller is always excluded.
func (h *UserHandler) ListUsers(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	users, err := h.userService.ListOthers(c.Request.Context(), uid, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
