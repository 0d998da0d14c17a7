// Package domain contains core concepts of the chat system.
// This file defines direct messages and the conversation they belong to.
// Messages are immutable once persisted.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type MessageType string

const MessageTypeText MessageType = "text"

// Message is a direct message between two users.
// ID and CreatedAt are assigned by the server right before persistence.
type Message struct {
	ID          uuid.UUID
	SenderID    string
	RecipientID string
	Content     string
	Type        MessageType
	CreatedAt   time.Time
}

// Involves reports whether the message was exchanged between a and b, in either direction.
func (m Message) Involves(a, b string) bool {
	return (m.SenderID == a && m.RecipientID == b) ||
		(m.SenderID == b && m.RecipientID == a)
}

// ConversationKey returns the pair of participants in a stable order,
// so that a->b and b->a share the same conversation.
func ConversationKey(a, b string) (string, string) {
	if strings.Compare(a, b) <= 0 {
		return a, b
	}
	return b, a
}

// NormalizeType falls back to text when the client did not tag the message.
func NormalizeType(t string) MessageType {
	if strings.TrimSpace(t) == "" {
		return MessageTypeText
	}
	return MessageType(t)
}
