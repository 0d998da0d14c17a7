package services

import (
	"context"
	"dm-chat/domain"
	"dm-chat/errors"
	"dm-chat/mocks"
	"dm-chat/moderation"
	"dm-chat/runtime"
	"dm-chat/sink"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type chatFixture struct {
	users    *mocks.MockIUserRepository
	messages *mocks.MockIMessageRepository
	registry *runtime.Registry
	service  *ChatService
}

func newChatFixture(t *testing.T, moderator *moderation.Moderator) chatFixture {
	ctrl := gomock.NewController(t)
	f := chatFixture{
		users:    mocks.NewMockIUserRepository(ctrl),
		messages: mocks.NewMockIMessageRepository(ctrl),
		registry: runtime.NewRegistry(),
	}
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	f.service = NewChatService(f.users, f.messages, f.registry, moderator, log, 50*time.Millisecond, 0).
		WithClock(func() time.Time { return fixedNow })
	return f
}

func (f chatFixture) knownUsers(ids ...string) {
	for _, id := range ids {
		f.users.EXPECT().FindByID(gomock.Any(), id).Return(domain.User{ID: id}, nil).AnyTimes()
	}
}

func TestChatService_SendMessage_OfflineRecipient(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, nil)
	f.knownUsers("u1", "u2")

	// Given u2 has no live connection
	f.messages.EXPECT().StoreMessage(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	// When u1 sends a message
	msg, err := f.service.SendMessage(context.Background(), "u1", domain.SendMessageCommand{
		SenderID: "u1", RecipientID: "u2", Content: "hello",
	})

	// Then it is persisted with server-side metadata
	req.NoError(err)
	req.NotEmpty(msg.ID)
	req.Equal(fixedNow, msg.CreatedAt)
	req.Equal(domain.MessageTypeText, msg.Type)
	req.Equal("hello", msg.Content)
}

func TestChatService_SendMessage_DeliversToBothParties(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, nil)
	f.knownUsers("u1", "u2")

	recipient := sink.NewConnectionSink("u2", 1)
	sender := sink.NewConnectionSink("u1", 1)
	f.registry.Register("u2", recipient)
	f.registry.Register("u1", sender)

	var stored domain.Message
	f.messages.EXPECT().StoreMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m domain.Message) error {
			stored = m
			return nil
		})

	_, err := f.service.SendMessage(context.Background(), "u1", domain.SendMessageCommand{
		SenderID: "u1", RecipientID: "u2", Content: "hi", MessageType: "file",
	})
	req.NoError(err)

	expected := domain.NewMessageReceived(stored)
	req.Equal(domain.MessageType("file"), expected.MessageType)
	req.Equal(expected, <-recipient.Events)
	req.Equal(expected, <-sender.Events)
}

func TestChatService_SendMessage_TimestampKeptByEveryStore(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, nil)
	f.knownUsers("u1", "u2")

	// Given a clock with sub-millisecond digits
	f.service.WithClock(func() time.Time {
		return time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)
	})
	recipient := sink.NewConnectionSink("u2", 1)
	f.registry.Register("u2", recipient)

	var stored domain.Message
	f.messages.EXPECT().StoreMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m domain.Message) error {
			stored = m
			return nil
		})

	// When the message is sent
	msg, err := f.service.SendMessage(context.Background(), "u1", domain.SendMessageCommand{
		SenderID: "u1", RecipientID: "u2", Content: "hi",
	})
	req.NoError(err)

	// Then the persisted and delivered timestamps are the same millisecond value
	want := time.Date(2024, 5, 1, 12, 0, 0, 123000000, time.UTC)
	req.Equal(want, stored.CreatedAt)
	req.Equal(want, msg.CreatedAt)
	req.Equal(want, (<-recipient.Events).Timestamp)
}

func TestChatService_SendMessage_RecipientBeforeSender(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	f := newChatFixture(t, nil)
	f.knownUsers("u1", "u2")

	recipient := mocks.NewMockEventSink(ctrl)
	sender := mocks.NewMockEventSink(ctrl)
	f.registry.Register("u2", recipient)
	f.registry.Register("u1", sender)

	f.messages.EXPECT().StoreMessage(gomock.Any(), gomock.Any()).Return(nil)
	gomock.InOrder(
		recipient.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil),
		sender.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil),
	)

	_, err := f.service.SendMessage(context.Background(), "u1", domain.SendMessageCommand{
		SenderID: "u1", RecipientID: "u2", Content: "hi",
	})
	req.NoError(err)
}

func TestChatService_SendMessage_SelfMessageDeliveredOnce(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	f := newChatFixture(t, nil)
	f.knownUsers("u1")

	self := mocks.NewMockEventSink(ctrl)
	f.registry.Register("u1", self)

	f.messages.EXPECT().StoreMessage(gomock.Any(), gomock.Any()).Return(nil)
	self.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	_, err := f.service.SendMessage(context.Background(), "u1", domain.SendMessageCommand{
		SenderID: "u1", RecipientID: "u1", Content: "note to self",
	})
	req.NoError(err)
}

func TestChatService_SendMessage_StoreFailureMeansNoDelivery(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	f := newChatFixture(t, nil)
	f.knownUsers("u1", "u2")

	// Given both parties are online
	recipient := mocks.NewMockEventSink(ctrl)
	sender := mocks.NewMockEventSink(ctrl)
	f.registry.Register("u2", recipient)
	f.registry.Register("u1", sender)

	// When the store fails
	f.messages.EXPECT().StoreMessage(gomock.Any(), gomock.Any()).
		Return(errors.Store("store message", context.DeadlineExceeded))
	recipient.EXPECT().Consume(gomock.Any(), gomock.Any()).Times(0)
	sender.EXPECT().Consume(gomock.Any(), gomock.Any()).Times(0)

	// Then nothing is delivered
	_, err := f.service.SendMessage(context.Background(), "u1", domain.SendMessageCommand{
		SenderID: "u1", RecipientID: "u2", Content: "lost",
	})
	req.ErrorIs(err, errors.ErrStore)
}

func TestChatService_SendMessage_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		auth    string
		cmd     domain.SendMessageCommand
		wantErr error
	}{
		{"Missing content", "u1", domain.SendMessageCommand{SenderID: "u1", RecipientID: "u2"}, errors.ErrValidation},
		{"Blank content", "u1", domain.SendMessageCommand{SenderID: "u1", RecipientID: "u2", Content: "  "}, errors.ErrValidation},
		{"Missing recipient", "u1", domain.SendMessageCommand{SenderID: "u1", Content: "hi"}, errors.ErrValidation},
		{"Missing sender", "u1", domain.SendMessageCommand{RecipientID: "u2", Content: "hi"}, errors.ErrValidation},
		{"Spoofed sender", "u1", domain.SendMessageCommand{SenderID: "u3", RecipientID: "u2", Content: "hi"}, errors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture(t, nil)
			f.messages.EXPECT().StoreMessage(gomock.Any(), gomock.Any()).Times(0)

			_, err := f.service.SendMessage(context.Background(), tt.auth, tt.cmd)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestChatService_SendMessage_UnknownRecipient(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, nil)
	f.knownUsers("u1")
	f.users.EXPECT().FindByID(gomock.Any(), "ghost").Return(domain.User{}, errors.ErrNotFound)
	f.messages.EXPECT().StoreMessage(gomock.Any(), gomock.Any()).Times(0)

	_, err := f.service.SendMessage(context.Background(), "u1", domain.SendMessageCommand{
		SenderID: "u1", RecipientID: "ghost", Content: "hi",
	})
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestChatService_SendMessage_PersistsAfterCancel(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, nil)
	f.knownUsers("u1", "u2")

	// Given the connection context is already gone
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.messages.EXPECT().StoreMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(storeCtx context.Context, _ domain.Message) error {
			return storeCtx.Err()
		})

	// Then the store still sees a live context
	_, err := f.service.SendMessage(ctx, "u1", domain.SendMessageCommand{
		SenderID: "u1", RecipientID: "u2", Content: "hi",
	})
	req.NoError(err)
}

func TestChatService_SendMessage_SlowSinkIsBounded(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, nil)
	f.knownUsers("u1", "u2")

	// Given a recipient whose buffer is full and never drained
	recipient := sink.NewConnectionSink("u2", 1)
	req.NoError(recipient.Consume(context.Background(), domain.MessageReceived{}))
	f.registry.Register("u2", recipient)
	f.messages.EXPECT().StoreMessage(gomock.Any(), gomock.Any()).Return(nil)

	start := time.Now()
	_, err := f.service.SendMessage(context.Background(), "u1", domain.SendMessageCommand{
		SenderID: "u1", RecipientID: "u2", Content: "hi",
	})

	// Then the send succeeds once the delivery timeout elapses
	req.NoError(err)
	req.Less(time.Since(start), time.Second)
}

func TestChatService_SendMessage_Moderated(t *testing.T) {
	req := require.New(t)
	mod, err := moderation.NewModerator([]string{"badger"}, '*', slog.Default())
	req.NoError(err)
	f := newChatFixture(t, mod)
	f.knownUsers("u1", "u2")
	f.messages.EXPECT().StoreMessage(gomock.Any(), gomock.Any()).Return(nil)

	msg, err := f.service.SendMessage(context.Background(), "u1", domain.SendMessageCommand{
		SenderID: "u1", RecipientID: "u2", Content: "hello badger",
	})
	req.NoError(err)
	req.Equal("hello ******", msg.Content)
}

func TestChatService_SendMessage_ContentTooLong(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	svc := NewChatService(mocks.NewMockIUserRepository(ctrl), mocks.NewMockIMessageRepository(ctrl),
		runtime.NewRegistry(), nil, slog.Default(), 0, 3)

	_, err := svc.SendMessage(context.Background(), "u1", domain.SendMessageCommand{
		SenderID: "u1", RecipientID: "u2", Content: "four",
	})
	req.ErrorIs(err, errors.ErrValidation)
}
