package repositories

import (
	"context"
	"dm-chat/domain"
	"dm-chat/errors"
	"log/slog"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openIndex(t *testing.T) *ContactIndex {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	index := NewContactIndex(writer, 0)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func seedUsers(t *testing.T, repository *UserRepository) []domain.User {
	t.Helper()
	ctx := context.Background()
	var users []domain.User
	for _, u := range []domain.User{
		{Email: "Alice@Example.com", PasswordHash: "h1"},
		{Email: "bob@example.com", PasswordHash: "h2"},
		{Email: "carol@other.org", PasswordHash: "h3"},
	} {
		created, err := repository.CreateUser(ctx, u)
		require.NoError(t, err)
		users = append(users, created)
	}
	_, err := repository.UpdateByEmail(ctx, "bob@example.com", domain.ProfileUpdate{FirstName: "Robert", LastName: "Smith"})
	require.NoError(t, err)
	return users
}

func ids(users []domain.User) []string {
	return lo.Map(users, func(u domain.User, _ int) string { return u.ID })
}

func Test_Create_And_Find_User(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openBadger(t), nil, slog.Default())

	created, err := repository.CreateUser(ctx, domain.User{Email: " Alice@Example.com ", PasswordHash: "hash"})
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.Equal("alice@example.com", created.Email)
	req.False(created.ProfileSetup)
	req.False(created.CreatedAt.IsZero())

	byEmail, err := repository.FindByEmail(ctx, "ALICE@example.com")
	req.NoError(err)
	req.Equal(created, byEmail)

	byID, err := repository.FindByID(ctx, created.ID)
	req.NoError(err)
	req.Equal(created, byID)
}

func Test_Duplicate_Email_Is_Conflict(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openBadger(t), nil, slog.Default())

	_, err := repository.CreateUser(ctx, domain.User{Email: "alice@example.com", PasswordHash: "h"})
	req.NoError(err)
	_, err = repository.CreateUser(ctx, domain.User{Email: "ALICE@example.com", PasswordHash: "h"})
	req.ErrorIs(err, errors.ErrConflict)
}

func Test_Unknown_User_Is_Not_Found(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openBadger(t), nil, slog.Default())

	_, err := repository.FindByEmail(ctx, "nobody@example.com")
	req.ErrorIs(err, errors.ErrNotFound)
	_, err = repository.FindByID(ctx, "missing")
	req.ErrorIs(err, errors.ErrNotFound)
	_, err = repository.UpdateByEmail(ctx, "nobody@example.com", domain.ProfileUpdate{FirstName: "A", LastName: "B"})
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_Update_Profile(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openBadger(t), nil, slog.Default())
	created, err := repository.CreateUser(ctx, domain.User{Email: "alice@example.com", PasswordHash: "h"})
	req.NoError(err)

	updated, err := repository.UpdateByEmail(ctx, "alice@example.com",
		domain.ProfileUpdate{FirstName: "Alice", LastName: "Liddell", Color: "#ff0000"})
	req.NoError(err)
	req.Equal(created.ID, updated.ID)
	req.Equal("h", updated.PasswordHash)
	req.True(updated.ProfileSetup)

	stored, err := repository.FindByID(ctx, created.ID)
	req.NoError(err)
	req.Equal(updated, stored)
}

func Test_List_Except(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openBadger(t), nil, slog.Default())
	users := seedUsers(t, repository)

	others, err := repository.ListExcept(context.Background(), users[0].ID)
	req.NoError(err)
	req.ElementsMatch([]string{users[1].ID, users[2].ID}, ids(others))
}

func Test_Search_Without_Index(t *testing.T) {
	testSearch(t, NewUserRepository(openBadger(t), nil, slog.Default()))
}

func Test_Search_With_Index(t *testing.T) {
	testSearch(t, NewUserRepository(openBadger(t), openIndex(t), slog.Default()))
}

func testSearch(t *testing.T, repository *UserRepository) {
	ctx := context.Background()
	users := seedUsers(t, repository)

	tests := []struct {
		name     string
		term     string
		expected []string
	}{
		{"By email domain", "example", []string{users[0].ID, users[1].ID}},
		{"Case insensitive", "ALICE", []string{users[0].ID}},
		{"By first name", "rob", []string{users[1].ID}},
		{"By last name", "smi", []string{users[1].ID}},
		{"Dot is literal", "other.org", []string{users[2].ID}},
		{"No match", "zzz", nil},
		{"Blank term", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repository.Search(ctx, tt.term)
			require.NoError(t, err)
			require.ElementsMatch(t, tt.expected, ids(got))
		})
	}
}

func Test_Rebuild_Index_From_Store(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openBadger(t)

	// Users written before the index existed
	seedUsers(t, NewUserRepository(db, nil, slog.Default()))

	repository := NewUserRepository(db, openIndex(t), slog.Default())
	count, err := repository.RebuildIndex(ctx)
	req.NoError(err)
	req.Equal(3, count)

	got, err := repository.Search(ctx, "carol")
	req.NoError(err)
	req.Len(got, 1)
	req.Equal("carol@other.org", got[0].Email)
}
