package websocket

import (
	"encoding/json"
	"sync/atomic"

	"github.com/dom/trivia-night/internal/store"
	"github.com/dom/trivia-night/pkg/logger"
)

// EventEmitter turns store notifications into SNAPSHOT frames for one client.
// It runs on the store's notification path, so it never blocks.
type EventEmitter struct {
	client  *Client
	seq     atomic.Int64
	dropped atomic.Int64
}

func NewEventEmitter(client *Client) *EventEmitter {
	return &EventEmitter{client: client}
}

// Snapshot forwards one committed document version.
func (e *EventEmitter) Snapshot(snap store.Snapshot) {
	msg, err := NewMessage(MessageTypeSnapshot, SnapshotPayload(snap))
	if err != nil {
		logger.Error("websocket: encode snapshot", "key", snap.Key, "error", err)
		return
	}
	msg.Seq = int(e.seq.Add(1))
	data, _ := json.Marshal(msg)
	if !e.trySend(data) {
		n := e.dropped.Add(1)
		logger.Warn("websocket: client buffer full, snapshot dropped",
			"user_id", e.client.caller.UserID, "key", snap.Key, "dropped", n)
	}
}

// Dropped reports how many frames were skipped because the client lagged.
func (e *EventEmitter) Dropped() int64 {
	return e.dropped.Load()
}

// trySend attempts to send to the client, safely handling closed channels.
func (e *EventEmitter) trySend(data []byte) (sent bool) {
	defer func() {
		if recover() != nil {
			// Channel closed, client is disconnecting
			sent = true
		}
	}()

	select {
	case e.client.send <- data:
		return true
	default:
		return false
	}
}
