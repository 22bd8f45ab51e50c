package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatsync-backend-go/internal/core"
)

// AuthHandler handles the post-login profile bootstrap and the verification
// email resend.
type AuthHandler struct {
	userService  core.UserService
	verification *core.VerificationService
	logger       *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(us core.UserService, vs *core.VerificationService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{userService: us, verification: vs, logger: logger}
}

// InitializeUserProfile handles POST /api/v1/users/initialize.
// Called by the client right after Firebase sign-in; ensures a backend
// profile exists for the authenticated UID, created from the token claims
// when absent.
func (h *AuthHandler) InitializeUserProfile(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	user, created, err := h.userService.GetOrCreate(
		c.Request.Context(),
		uid,
		c.GetString("userEmail"),
		c.GetString("userDisplayName"),
		c.GetString("userPhotoURL"),
		c.GetString("userPhoneNumber"),
	)
	if err != nil {
		h.logger.Error("profile initialization failed", zap.String("uid", uid), zap.Error(err))
		writeServiceError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, InitializeProfileResponse{User: user, Created: created})
}

// ResendVerificationEmail handles POST /api/v1/users/verification-email.
// Available to authenticated but unverified accounts, which every other
// route rejects.
func (h *AuthHandler) ResendVerificationEmail(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	email := c.GetString("userEmail")
	if email == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Account has no email address"})
		return
	}

	if err := h.verification.Resend(c.Request.Context(), email); err != nil {
		h.logger.Error("verification email resend failed", zap.String("email", email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to send verification email"})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Verification email sent"})
}
