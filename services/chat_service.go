package services

import (
	"context"
	"dm-chat/contract"
	"dm-chat/domain"
	"dm-chat/errors"
	"dm-chat/moderation"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const DefaultDeliveryTimeout = 2 * time.Second

type IChatService interface {
	SendMessage(ctx context.Context, authUserID string, cmd domain.SendMessageCommand) (domain.Message, error)
}

// ChatService persists a direct message, then pushes it to the live sessions of both parties.
type ChatService struct {
	users            contract.IUserRepository
	messages         contract.IMessageRepository
	registry         contract.IRegistry
	moderator        *moderation.Moderator
	log              *slog.Logger
	deliveryTimeout  time.Duration
	maxContentLength int
	now              func() time.Time
}

func NewChatService(
	users contract.IUserRepository,
	messages contract.IMessageRepository,
	registry contract.IRegistry,
	moderator *moderation.Moderator,
	log *slog.Logger,
	deliveryTimeout time.Duration,
	maxContentLength int,
) *ChatService {
	if deliveryTimeout <= 0 {
		deliveryTimeout = DefaultDeliveryTimeout
	}
	return &ChatService{
		users:            users,
		messages:         messages,
		registry:         registry,
		moderator:        moderator,
		log:              log,
		deliveryTimeout:  deliveryTimeout,
		maxContentLength: maxContentLength,
		now:              time.Now,
	}
}

// WithClock replaces the timestamp source, used by tests.
func (s *ChatService) WithClock(now func() time.Time) *ChatService {
	s.now = now
	return s
}

// SendMessage never delivers a message that failed to persist.
// Store calls are detached from ctx cancellation, so a dropped connection
// does not abort a message already accepted.
func (s *ChatService) SendMessage(ctx context.Context, authUserID string, cmd domain.SendMessageCommand) (domain.Message, error) {
	if err := s.validate(authUserID, cmd); err != nil {
		return domain.Message{}, err
	}
	storeCtx := context.WithoutCancel(ctx)

	if _, err := s.users.FindByID(storeCtx, cmd.SenderID); err != nil {
		return domain.Message{}, fmt.Errorf("sender %s: %w", cmd.SenderID, err)
	}
	if _, err := s.users.FindByID(storeCtx, cmd.RecipientID); err != nil {
		return domain.Message{}, fmt.Errorf("recipient %s: %w", cmd.RecipientID, err)
	}

	// Milliseconds are the finest precision every store keeps, so the
	// delivered event and the persisted record carry the same timestamp.
	createdAt := s.now().UTC().Truncate(time.Millisecond)
	msg := domain.Message{
		ID:          uuid.New(),
		SenderID:    cmd.SenderID,
		RecipientID: cmd.RecipientID,
		Content:     s.moderator.Moderate(cmd.SenderID, cmd.Content),
		Type:        domain.NormalizeType(cmd.MessageType),
		CreatedAt:   createdAt,
	}

	if err := s.messages.StoreMessage(storeCtx, msg); err != nil {
		return domain.Message{}, err
	}

	s.deliver(storeCtx, msg)
	return msg, nil
}

func (s *ChatService) validate(authUserID string, cmd domain.SendMessageCommand) error {
	var missing []string
	if strings.TrimSpace(cmd.SenderID) == "" {
		missing = append(missing, "sender")
	}
	if strings.TrimSpace(cmd.RecipientID) == "" {
		missing = append(missing, "recipient")
	}
	if strings.TrimSpace(cmd.Content) == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", errors.ErrValidation, strings.Join(missing, ", "))
	}
	if cmd.SenderID != authUserID {
		return fmt.Errorf("%w: sender does not match the authenticated user", errors.ErrValidation)
	}
	if s.maxContentLength > 0 && utf8.RuneCountInString(cmd.Content) > s.maxContentLength {
		return fmt.Errorf("%w: content exceeds %d characters", errors.ErrValidation, s.maxContentLength)
	}
	return nil
}

// deliver pushes to the recipient first, then echoes to the sender.
// An offline party is skipped; a slow or closed sink is logged and never retried.
func (s *ChatService) deliver(ctx context.Context, msg domain.Message) {
	targets := []string{msg.RecipientID}
	if msg.SenderID != msg.RecipientID {
		targets = append(targets, msg.SenderID)
	}

	event := domain.NewMessageReceived(msg)
	for _, userID := range targets {
		sink, ok := s.registry.Lookup(userID)
		if !ok {
			continue
		}
		deliveryCtx, cancel := context.WithTimeout(ctx, s.deliveryTimeout)
		err := sink.Consume(deliveryCtx, event)
		cancel()
		if err != nil {
			s.log.Warn("Delivery failed",
				"user_id", userID,
				"message_id", msg.ID,
				"error", err)
		}
	}
}
