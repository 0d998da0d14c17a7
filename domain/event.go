package domain

import (
	"time"

	"github.com/google/uuid"
)

// Realtime event names exchanged over the persistent connection.
const (
	EventSendMessage    = "sendMessage"
	EventReceiveMessage = "receiveMessage"
)

// SendMessageCommand is the inbound "send message" payload.
type SendMessageCommand struct {
	SenderID    string `json:"sender"`
	RecipientID string `json:"recipient"`
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
}

// MessageReceived is the outbound "receive message" payload.
// It always carries a persisted message.
type MessageReceived struct {
	ID          uuid.UUID   `json:"id"`
	SenderID    string      `json:"sender"`
	RecipientID string      `json:"recipient"`
	Content     string      `json:"content"`
	MessageType MessageType `json:"messageType"`
	Timestamp   time.Time   `json:"timestamp"`
}

func NewMessageReceived(m Message) MessageReceived {
	return MessageReceived{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		MessageType: m.Type,
		Timestamp:   m.CreatedAt,
	}
}
