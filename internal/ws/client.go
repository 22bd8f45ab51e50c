package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatsync-backend-go/internal/core"
)

// inboundFrame is what a connected client may send: presence watch control.
// Chat messages themselves go through the HTTP API, not the socket.
type inboundFrame struct {
	Type string `json:"type"`
	UID  string `json:"uid,omitempty"`
}

const (
	frameWatchPresence   = "watchPresence"
	frameUnwatchPresence = "unwatchPresence"
)

// Client is one WebSocket connection bound to a user and a conversation.
type Client struct {
	hub            *Hub
	conn           *websocket.Conn
	logger         *zap.Logger
	uid            string
	conversationID string
	session        *core.PresenceSession

	send chan []byte

	mu      sync.Mutex
	watches map[string]*core.PresenceWatch
	closed  bool
}

func newClient(hub *Hub, conn *websocket.Conn, logger *zap.Logger, uid, conversationID string, session *core.PresenceSession) *Client {
	return &Client{
		hub:            hub,
		conn:           conn,
		logger:         logger,
		uid:            uid,
		conversationID: conversationID,
		session:        session,
		send:           make(chan []byte, 256),
		watches:        make(map[string]*core.PresenceWatch),
	}
}

// readPump consumes inbound frames until the connection drops, then runs the
// full disconnect path. This is where the on-disconnect presence action fires,
// whether the client said goodbye or not.
func (c *Client) readPump() {
	defer c.close()
	c.conn.SetReadLimit(maxInboundMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.handleFrame(payload)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleFrame(payload []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		c.sendEvent(Event{Type: eventError, Error: "malformed frame"})
		return
	}
	switch frame.Type {
	case frameWatchPresence:
		c.watchPresence(frame.UID)
	case frameUnwatchPresence:
		c.unwatchPresence(frame.UID)
	default:
		c.sendEvent(Event{Type: eventError, Error: "unknown frame type"})
	}
}

func (c *Client) watchPresence(uid string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if _, ok := c.watches[uid]; ok {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	watch, err := c.hub.presence.Watch(context.Background(), uid)
	if err != nil {
		c.sendEvent(Event{Type: eventError, Error: "presence watch failed"})
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		watch.Cancel()
		return
	}
	c.watches[uid] = watch
	c.mu.Unlock()

	go func() {
		for record := range watch.Updates() {
			r := record
			c.sendEvent(Event{Type: eventPresence, Presence: &r})
		}
	}()
}

func (c *Client) unwatchPresence(uid string) {
	c.mu.Lock()
	watch, ok := c.watches[uid]
	if ok {
		delete(c.watches, uid)
	}
	c.mu.Unlock()
	if ok {
		watch.Cancel()
	}
}

func (c *Client) sendEvent(event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		c.logger.Error("failed to marshal ws event", zap.Error(err))
		return
	}
	select {
	case c.send <- body:
	default:
	}
}

// close tears the whole connection down: room membership, presence watches,
// the on-disconnect presence transition, and finally the socket itself.
// Safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	watches := c.watches
	c.watches = nil
	c.mu.Unlock()

	c.hub.Leave(c.conversationID, c)
	for _, w := range watches {
		w.Cancel()
	}
	if c.session != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		c.session.Disconnect(ctx)
		cancel()
	}
	// The send channel is left open; closing the socket is what stops the
	// write pump, so concurrent broadcasters can never hit a closed channel.
	_ = c.conn.Close()
}
