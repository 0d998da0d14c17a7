package services

import (
	"context"
	"dm-chat/contract"
	"dm-chat/domain"
	"dm-chat/errors"
	"fmt"
	"strings"
)

type IMessageService interface {
	GetMessages(ctx context.Context, userID, otherID string) ([]domain.Message, error)
}

type MessageService struct {
	messages contract.IMessageRepository
}

func NewMessageService(messages contract.IMessageRepository) *MessageService {
	return &MessageService{messages: messages}
}

// GetMessages returns the conversation between the two users, oldest first.
func (s *MessageService) GetMessages(ctx context.Context, userID, otherID string) ([]domain.Message, error) {
	if strings.TrimSpace(otherID) == "" {
		return nil, fmt.Errorf("%w: id is required", errors.ErrValidation)
	}
	return s.messages.FindConversation(ctx, userID, otherID)
}
