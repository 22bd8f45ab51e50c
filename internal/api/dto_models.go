package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chatsync-backend-go/internal/core"
	"chatsync-backend-go/internal/models"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SendMessageResponse echoes the appended message and the conversation it
// landed in.
type SendMessageResponse struct {
	ConversationID string         `json:"conversationId"`
	Message        models.Message `json:"message"`
}

// HistoryResponse is the ordered log of one conversation.
type HistoryResponse struct {
	ConversationID string           `json:"conversationId"`
	Messages       []models.Message `json:"messages"`
}

// FriendListResponse is one page of the caller's contacts.
type FriendListResponse struct {
	Friends    []models.Friend `json:"friends"`
	NextCursor string          `json:"nextCursor,omitempty"`
}

// InitializeProfileResponse reports the bootstrap outcome.
type InitializeProfileResponse struct {
	User    *models.User `json:"user"`
	Created bool         `json:"created"`
}

// PhotoUploadResponse carries the stored photo's public URL.
type PhotoUploadResponse struct {
	PhotoURL  string    `json:"photoUrl"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// writeServiceError maps service-layer errors onto HTTP status codes. The
// mapping is intentionally coarse; details stay in the server log.
func writeServiceError(c *gin.Context, err error) {
	var validationErr *core.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Fields: validationErr.Fields})
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrSelfConversation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

// currentUserID pulls the authenticated UID set by the auth middleware.
func currentUserID(c *gin.Context) (string, bool) {
	uid := c.GetString("userID")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication error: User ID not found in context"})
		return "", false
	}
	return uid, true
}
