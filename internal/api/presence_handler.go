package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatsync-backend-go/internal/core"
)

// PresenceHandler serves point-in-time presence reads. Live transitions go
// over the WebSocket surface instead.
type PresenceHandler struct {
	presence *core.PresenceTracker
}

// NewPresenceHandler creates a new PresenceHandler.
func NewPresenceHandler(presence *core.PresenceTracker) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

// GetPresence handles GET /api/v1/presence/:uid. Unknown users read as
// offline rather than 404: absence of a record is a valid state.
func (h *PresenceHandler) GetPresence(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	record, err := h.presence.Get(c.Request.Context(), c.Param("uid"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
