// Package ws carries the realtime surface: per-conversation message feeds
// and presence transitions, delivered over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"chatsync-backend-go/internal/core"
	"chatsync-backend-go/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxInboundMessageSize = 8 * 1024
)

// Event is the envelope for every frame the server pushes.
type Event struct {
	Type           string                 `json:"type"`
	ConversationID string                 `json:"conversationId,omitempty"`
	Messages       []models.Message       `json:"messages,omitempty"`
	Presence       *models.PresenceRecord `json:"presence,omitempty"`
	Error          string                 `json:"error,omitempty"`
}

const (
	eventMessages = "messages"
	eventPresence = "presence"
	eventError    = "error"
)

// room fans one conversation's live message feed out to its connected clients.
// The underlying store subscription exists only while the room has members.
type room struct {
	clients map[*Client]bool
	cancel  func()
}

// Hub tracks rooms and owns the store subscription behind each one.
type Hub struct {
	messages core.MessageService
	presence *core.PresenceTracker
	logger   *zap.Logger

	mu    sync.Mutex
	rooms map[string]*room
}

// NewHub creates a Hub.
func NewHub(messages core.MessageService, presence *core.PresenceTracker, logger *zap.Logger) *Hub {
	return &Hub{
		messages: messages,
		presence: presence,
		logger:   logger,
		rooms:    make(map[string]*room),
	}
}

// Join adds the client to the conversation's room, opening the live store
// subscription if the client is the first member. Every snapshot the
// subscription delivers is the full ordered log, broadcast to all members.
//
// The subscription is shared by the whole room, so it runs on the hub's own
// context rather than any single member's request context.
func (h *Hub) Join(conversationID string, c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[conversationID]
	if !ok {
		sub, err := h.messages.SubscribeConversation(context.Background(), conversationID)
		if err != nil {
			return err
		}
		r = &room{clients: make(map[*Client]bool), cancel: sub.Cancel}
		h.rooms[conversationID] = r
		go h.forwardMessages(conversationID, sub.Updates())
	}
	r.clients[c] = true
	return nil
}

// Leave removes the client; the last one out cancels the store subscription.
func (h *Hub) Leave(conversationID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[conversationID]
	if !ok {
		return
	}
	delete(r.clients, c)
	if len(r.clients) == 0 {
		r.cancel()
		delete(h.rooms, conversationID)
	}
}

func (h *Hub) forwardMessages(conversationID string, updates <-chan []models.Message) {
	for snapshot := range updates {
		h.broadcast(conversationID, Event{
			Type:           eventMessages,
			ConversationID: conversationID,
			Messages:       snapshot,
		})
	}
}

// broadcast sends the event to every member of the room. A member whose send
// buffer is full is disconnected rather than allowed to stall the room.
func (h *Hub) broadcast(conversationID string, event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal ws event", zap.Error(err))
		return
	}

	h.mu.Lock()
	r := h.rooms[conversationID]
	var members []*Client
	if r != nil {
		members = make([]*Client, 0, len(r.clients))
		for c := range r.clients {
			members = append(members, c)
		}
	}
	h.mu.Unlock()

	for _, c := range members {
		select {
		case c.send <- body:
		default:
			h.logger.Warn("dropping slow ws client",
				zap.String("conversationId", conversationID),
				zap.String("uid", c.uid))
			go c.close()
		}
	}
}
