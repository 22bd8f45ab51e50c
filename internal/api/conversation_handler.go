package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatsync-backend-go/internal/core"
	"chatsync-backend-go/internal/models"
)

// ConversationHandler serves the chat-list view.
type ConversationHandler struct {
	conversationService core.ConversationService
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(cs core.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: cs}
}

// ListConversations handles GET /api/v1/conversations: the caller's chats,
// most recently active first, with peer profiles embedded.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	summaries, err := h.conversationService.ListFor(c.Request.Context(), uid)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if summaries == nil {
		summaries = []models.ConversationSummary{}
	}
	c.JSON(http.StatusOK, summaries)
}
