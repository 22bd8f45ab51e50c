package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatsync-backend-go/internal/core"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Token auth happens in middleware before the upgrade; origin checks are
	// not meaningful for the mobile clients this serves.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades authenticated requests into live conversation connections.
type Handler struct {
	hub      *Hub
	presence *core.PresenceTracker
	logger   *zap.Logger
}

// NewHandler creates a ws Handler.
func NewHandler(hub *Hub, presence *core.PresenceTracker, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, presence: presence, logger: logger}
}

// Serve handles GET /ws?conversationId=... The caller must be one of the
// conversation's two participants; joining anyone else's room is forbidden.
// The connection doubles as the user's presence session: upgrading marks
// them online and any form of disconnect marks them offline.
func (h *Handler) Serve(c *gin.Context) {
	uid := c.GetString("userID")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	conversationID := c.Query("conversationId")
	a, b, err := core.ParseConversationID(conversationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversationId"})
		return
	}
	if uid != a && uid != b {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant of this conversation"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	session, err := h.presence.Announce(c.Request.Context(), uid)
	if err != nil {
		h.logger.Error("presence announce failed", zap.String("uid", uid), zap.Error(err))
		conn.Close()
		return
	}

	client := newClient(h.hub, conn, h.logger, uid, conversationID, session)
	if err := h.hub.Join(conversationID, client); err != nil {
		h.logger.Error("failed to join conversation room",
			zap.String("conversationId", conversationID), zap.Error(err))
		client.close()
		return
	}

	go client.writePump()
	client.readPump()
}
