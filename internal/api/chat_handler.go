package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatsync-backend-go/internal/core"
	"chatsync-backend-go/internal/models"
)

// ChatHandler handles the message send/read endpoints. Conversations are
// addressed by peer UID; the canonical conversation ID is derived
// server-side, so a client can never write into someone else's chat.
type ChatHandler struct {
	messageService core.MessageService
	userService    core.UserService
	logger         *zap.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(ms core.MessageService, us core.UserService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{messageService: ms, userService: us, logger: logger}
}

// SendMessage handles POST /api/v1/chats/:peerUid/messages.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	sender := models.Sender{ID: uid, Name: c.GetString("userDisplayName")}
	if sender.Name == "" {
		// Token without a name claim; fall back to the stored profile so the
		// recipient's push still shows who wrote.
		if profile, err := h.userService.GetByID(c.Request.Context(), uid); err == nil {
			sender.Name = profile.Name
		}
	}

	msg, conversationID, err := h.messageService.Send(c.Request.Context(), sender, c.Param("peerUid"), req.Text)
	if err != nil {
		if msg != nil {
			// Message durable, summary stale. Report success; the next send
			// repairs the summary.
			h.logger.Warn("summary update failed after append",
				zap.String("conversationId", conversationID), zap.Error(err))
			c.JSON(http.StatusCreated, SendMessageResponse{ConversationID: conversationID, Message: *msg})
			return
		}
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SendMessageResponse{ConversationID: conversationID, Message: *msg})
}

// GetHistory handles GET /api/v1/chats/:peerUid/messages, the full ordered
// log of the caller's conversation with the peer.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	messages, conversationID, err := h.messageService.History(c.Request.Context(), uid, c.Param("peerUid"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	c.JSON(http.StatusOK, HistoryResponse{ConversationID: conversationID, Messages: messages})
}
