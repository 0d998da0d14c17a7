package services

import (
	"context"
	"dm-chat/contract"
	"dm-chat/domain"
	"dm-chat/errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
)

type IContactService interface {
	Search(ctx context.Context, userID, term string) ([]domain.User, error)
	All(ctx context.Context, userID string) ([]domain.User, error)
	DeleteDM(ctx context.Context, userID, otherID string) (int, error)
}

type ContactService struct {
	users    contract.IUserRepository
	messages contract.IMessageRepository
	log      *slog.Logger
}

func NewContactService(users contract.IUserRepository, messages contract.IMessageRepository, log *slog.Logger) *ContactService {
	return &ContactService{users: users, messages: messages, log: log}
}

// Search never returns the caller.
func (s *ContactService) Search(ctx context.Context, userID, term string) ([]domain.User, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: searchTerm is required", errors.ErrValidation)
	}
	users, err := s.users.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	return lo.Filter(users, func(u domain.User, _ int) bool {
		return u.ID != userID
	}), nil
}

func (s *ContactService) All(ctx context.Context, userID string) ([]domain.User, error) {
	return s.users.ListExcept(ctx, userID)
}

// DeleteDM drops the whole conversation with otherID, for both participants.
func (s *ContactService) DeleteDM(ctx context.Context, userID, otherID string) (int, error) {
	if strings.TrimSpace(otherID) == "" {
		return 0, fmt.Errorf("%w: contact id is required", errors.ErrValidation)
	}
	deleted, err := s.messages.DeleteConversation(ctx, userID, otherID)
	if err != nil {
		return 0, err
	}
	s.log.Info("Conversation deleted", "user_id", userID, "contact_id", otherID, "count", deleted)
	return deleted, nil
}
