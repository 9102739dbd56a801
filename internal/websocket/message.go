package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/trivia-night/internal/store"
)

type MessageType string

const (
	// Client to Server
	MessageTypeSubscribe   MessageType = "SUBSCRIBE"
	MessageTypeUnsubscribe MessageType = "UNSUBSCRIBE"

	// Server to Client
	MessageTypeSnapshot MessageType = "SNAPSHOT"
	MessageTypeError    MessageType = "ERROR"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
	Seq       int             `json:"seq,omitempty"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Client to Server payloads

type SubscribePayload struct {
	Key string `json:"key"`
}

// Server to Client payloads

// SnapshotPayload is one committed version of a subscribed document.
type SnapshotPayload = store.Snapshot

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Key     string `json:"key,omitempty"`
}

const (
	ErrCodeInvalidPayload = "INVALID_PAYLOAD"
	ErrCodeUnknownType    = "UNKNOWN_TYPE"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeBadKey         = "BAD_KEY"
	ErrCodeUnavailable    = "UNAVAILABLE"
)
