package repositories

import (
	"dm-chat/domain"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Key prefixes of the values a dump can decode.
const (
	UserKeyPrefix    = userIDPrefix
	MessageKeyPrefix = "msg:"
)

// Documents are the on-disk shape of the badger values, encoded in CBOR.
// Timestamps are stored as unix nanoseconds to keep the encoding stable.

type userDocument struct {
	ID           string `cbor:"id"`
	Email        string `cbor:"email"`
	PasswordHash string `cbor:"password_hash"`
	FirstName    string `cbor:"first_name,omitempty"`
	LastName     string `cbor:"last_name,omitempty"`
	Color        string `cbor:"color,omitempty"`
	ProfileSetup bool   `cbor:"profile_setup"`
	CreatedAt    int64  `cbor:"created_at"`
}

type messageDocument struct {
	ID          string `cbor:"id"`
	SenderID    string `cbor:"sender"`
	RecipientID string `cbor:"recipient"`
	Content     string `cbor:"content"`
	Type        string `cbor:"message_type"`
	CreatedAt   int64  `cbor:"timestamp"`
}

func encodeUser(u domain.User) ([]byte, error) {
	return cbor.Marshal(userDocument{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Color:        u.Color,
		ProfileSetup: u.ProfileSetup,
		CreatedAt:    u.CreatedAt.UnixNano(),
	})
}

// DecodeUser reads a value stored under a user:id: key.
func DecodeUser(data []byte) (domain.User, error) {
	var doc userDocument
	if err := cbor.Unmarshal(data, &doc); err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:           doc.ID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		FirstName:    doc.FirstName,
		LastName:     doc.LastName,
		Color:        doc.Color,
		ProfileSetup: doc.ProfileSetup,
		CreatedAt:    time.Unix(0, doc.CreatedAt).UTC(),
	}, nil
}

func encodeMessage(m domain.Message) ([]byte, error) {
	return cbor.Marshal(messageDocument{
		ID:          m.ID.String(),
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		Type:        string(m.Type),
		CreatedAt:   m.CreatedAt.UnixNano(),
	})
}

// DecodeMessage reads a value stored under a msg: key.
func DecodeMessage(data []byte) (domain.Message, error) {
	var doc messageDocument
	if err := cbor.Unmarshal(data, &doc); err != nil {
		return domain.Message{}, err
	}
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:          id,
		SenderID:    doc.SenderID,
		RecipientID: doc.RecipientID,
		Content:     doc.Content,
		Type:        domain.MessageType(doc.Type),
		CreatedAt:   time.Unix(0, doc.CreatedAt).UTC(),
	}, nil
}
