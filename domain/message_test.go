package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConversationKey_IsSymmetric(t *testing.T) {
	req := require.New(t)

	a1, b1 := ConversationKey("alice", "bob")
	a2, b2 := ConversationKey("bob", "alice")

	req.Equal(a1, a2)
	req.Equal(b1, b2)
	req.Equal("alice", a1)
}

func TestMessage_Involves(t *testing.T) {
	req := require.New(t)
	msg := Message{SenderID: "alice", RecipientID: "bob"}

	req.True(msg.Involves("alice", "bob"))
	req.True(msg.Involves("bob", "alice"))
	req.False(msg.Involves("alice", "clara"))
}

func TestUser_Apply_MarksProfileComplete(t *testing.T) {
	req := require.New(t)
	user := User{ID: "1", Email: "a@x.com"}

	// Given only a first name, the profile stays incomplete
	partial := user.Apply(ProfileUpdate{FirstName: "Ada"})
	req.False(partial.ProfileSetup)

	// When both names are set
	full := user.Apply(ProfileUpdate{FirstName: "Ada", LastName: "Lovelace", Color: "#ff0000"})

	// Then the profile is complete and the original value is untouched
	req.True(full.ProfileSetup)
	req.Equal("#ff0000", full.Color)
	req.False(user.ProfileSetup)
}

func TestNormalize(t *testing.T) {
	req := require.New(t)
	req.Equal("a@x.com", NormalizeEmail("  A@X.com "))
	req.Equal(MessageTypeText, NormalizeType(""))
	req.Equal(MessageType("file"), NormalizeType("file"))
}
