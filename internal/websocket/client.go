package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/pkg/logger"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	subscribeWait  = 5 * time.Second
)

// Client is one websocket connection and the documents it watches.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	caller  domain.Caller
	emitter *EventEmitter

	mu     sync.Mutex
	subs   map[string]func()
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, caller domain.Caller) *Client {
	c := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		caller: caller,
		subs:   make(map[string]func()),
	}
	c.emitter = NewEventEmitter(c)
	return c
}

func (c *Client) Caller() domain.Caller { return c.caller }

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket: read error", "user_id", c.caller.UserID, "error", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError(ErrCodeInvalidPayload, "malformed message", "")
			continue
		}

		c.handleMessage(&msg)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
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

func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeSubscribe:
		var payload SubscribePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Key == "" {
			c.sendError(ErrCodeInvalidPayload, "subscribe needs a document key", "")
			return
		}
		c.subscribe(payload.Key)

	case MessageTypeUnsubscribe:
		var payload SubscribePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendError(ErrCodeInvalidPayload, "unsubscribe needs a document key", "")
			return
		}
		c.unsubscribe(payload.Key)

	default:
		c.sendError(ErrCodeUnknownType, "unknown message type "+string(msg.Type), "")
	}
}

func (c *Client) subscribe(key string) {
	c.mu.Lock()
	_, dup := c.subs[key]
	closed := c.closed
	c.mu.Unlock()
	if dup || closed {
		return
	}

	ctx, cancel := context.WithTimeout(c.hub.ctx, subscribeWait)
	defer cancel()

	if err := c.hub.guard.AuthorizeRead(ctx, c.caller, key); err != nil {
		code := ErrCodeForbidden
		switch {
		case errors.Is(err, domain.ErrNotFound), domain.IsIllegalChoice(err), domain.IsPrecondition(err):
			code = ErrCodeBadKey
		case !domain.IsInvalidAction(err):
			code = ErrCodeUnavailable
		}
		c.sendError(code, err.Error(), key)
		return
	}

	stop, err := c.hub.store.Subscribe(ctx, key, c.emitter.Snapshot)
	if err != nil {
		logger.Error("websocket: subscribe failed", "key", key, "error", err)
		c.sendError(ErrCodeUnavailable, "could not subscribe", key)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		stop()
		return
	}
	if _, ok := c.subs[key]; ok {
		// Two concurrent subscribes for one key; keep the first.
		stop()
		return
	}
	c.subs[key] = stop
}

func (c *Client) unsubscribe(key string) {
	c.mu.Lock()
	stop, ok := c.subs[key]
	delete(c.subs, key)
	c.mu.Unlock()
	if ok {
		stop()
	}
}

// Subscriptions lists the keys the client currently watches.
func (c *Client) Subscriptions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.subs))
	for k := range c.subs {
		keys = append(keys, k)
	}
	return keys
}

// close cancels every subscription and closes the send channel. Safe to
// call more than once.
func (c *Client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	subs := c.subs
	c.subs = make(map[string]func())
	c.mu.Unlock()

	for _, stop := range subs {
		stop()
	}
	close(c.send)
}

func (c *Client) sendError(code, message, key string) {
	c.Send(MessageTypeError, ErrorPayload{Code: code, Message: message, Key: key})
}

// Send queues a message for the client without blocking.
func (c *Client) Send(msgType MessageType, payload interface{}) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return
	}
	data, _ := json.Marshal(msg)
	c.emitter.trySend(data)
}
