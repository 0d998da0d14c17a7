package mongostore

import (
	"context"
	"dm-chat/domain"
	"dm-chat/errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// openDatabase needs a reachable server, e.g. MONGO_URI=mongodb://localhost:27017
func openDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx := context.Background()
	client, err := Connect(ctx, uri)
	require.NoError(t, err)

	db := client.Database("dmchat_test_" + uuid.NewString()[:8])
	require.NoError(t, EnsureIndexes(ctx, db))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func TestUserRepository(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openDatabase(t))

	alice, err := repository.CreateUser(ctx, domain.User{Email: "Alice@Example.com", PasswordHash: "h"})
	req.NoError(err)
	req.Equal("alice@example.com", alice.Email)

	_, err = repository.CreateUser(ctx, domain.User{Email: "alice@example.com", PasswordHash: "h"})
	req.ErrorIs(err, errors.ErrConflict)

	bob, err := repository.CreateUser(ctx, domain.User{Email: "bob@example.com", PasswordHash: "h"})
	req.NoError(err)

	found, err := repository.FindByEmail(ctx, "ALICE@example.com")
	req.NoError(err)
	req.Equal(alice, found)

	_, err = repository.FindByID(ctx, "missing")
	req.ErrorIs(err, errors.ErrNotFound)

	updated, err := repository.UpdateByEmail(ctx, "bob@example.com", domain.ProfileUpdate{FirstName: "Robert", LastName: "Smith"})
	req.NoError(err)
	req.True(updated.ProfileSetup)
	req.Equal(bob.ID, updated.ID)

	others, err := repository.ListExcept(ctx, alice.ID)
	req.NoError(err)
	req.Len(others, 1)
	req.Equal(bob.ID, others[0].ID)

	hits, err := repository.Search(ctx, "ROB")
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal(bob.ID, hits[0].ID)

	hits, err = repository.Search(ctx, "example.com")
	req.NoError(err)
	req.Len(hits, 2)
}

func TestMessageRepository(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDatabase(t))

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, m := range []domain.Message{
		{SenderID: "u2", RecipientID: "u1", Content: "hi"},
		{SenderID: "u1", RecipientID: "u2", Content: "hello"},
		{SenderID: "u1", RecipientID: "u3", Content: "elsewhere"},
	} {
		m.ID = uuid.New()
		m.Type = domain.MessageTypeText
		m.CreatedAt = at.Add(time.Duration(i) * time.Second)
		req.NoError(repository.StoreMessage(ctx, m))
	}

	got, err := repository.FindConversation(ctx, "u1", "u2")
	req.NoError(err)
	req.Len(got, 2)
	req.Equal("hi", got[0].Content)
	req.Equal("hello", got[1].Content)

	deleted, err := repository.DeleteConversation(ctx, "u2", "u1")
	req.NoError(err)
	req.Equal(2, deleted)

	got, err = repository.FindConversation(ctx, "u1", "u2")
	req.NoError(err)
	req.Empty(got)
}

func TestMessageRepository_MillisecondTimestamp(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDatabase(t))

	// Given a timestamp as the chat service assigns it, milliseconds with sub-second digits
	at := time.Date(2024, 5, 1, 12, 0, 0, 123000000, time.UTC)
	msg := domain.Message{ID: uuid.New(), SenderID: "u1", RecipientID: "u2", Content: "hi", Type: domain.MessageTypeText, CreatedAt: at}
	req.NoError(repository.StoreMessage(ctx, msg))

	// Then it reads back unchanged, so the live event and the history agree
	got, err := repository.FindConversation(ctx, "u2", "u1")
	req.NoError(err)
	req.Len(got, 1)
	req.Equal(msg, got[0])

	// A finer value would lose its sub-millisecond digits
	finer := msg
	finer.ID = uuid.New()
	finer.SenderID, finer.RecipientID = "u3", "u4"
	finer.CreatedAt = at.Add(456789 * time.Nanosecond)
	req.NoError(repository.StoreMessage(ctx, finer))
	got, err = repository.FindConversation(ctx, "u3", "u4")
	req.NoError(err)
	req.Len(got, 1)
	req.Equal(at, got[0].CreatedAt)
}
