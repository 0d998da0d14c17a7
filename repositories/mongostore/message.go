package mongostore

import (
	"context"
	"dm-chat/contract"
	"dm-chat/domain"
	"dm-chat/errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type messageDocument struct {
	ID          string    `bson:"_id"`
	SenderID    string    `bson:"sender"`
	RecipientID string    `bson:"recipient"`
	Content     string    `bson:"content"`
	Type        string    `bson:"message_type"`
	CreatedAt   time.Time `bson:"timestamp"`
}

type MessageRepository struct {
	messages *mongo.Collection
}

var _ contract.IMessageRepository = (*MessageRepository)(nil)

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{messages: db.Collection(messagesCollection)}
}

func (r *MessageRepository) StoreMessage(ctx context.Context, message domain.Message) error {
	_, err := r.messages.InsertOne(ctx, messageDocument{
		ID:          message.ID.String(),
		SenderID:    message.SenderID,
		RecipientID: message.RecipientID,
		Content:     message.Content,
		Type:        string(message.Type),
		CreatedAt:   message.CreatedAt,
	})
	if err != nil {
		return errors.Store("store message", err)
	}
	return nil
}

// FindConversation returns both directions of the conversation, oldest first.
func (r *MessageRepository) FindConversation(ctx context.Context, a, b string) ([]domain.Message, error) {
	cursor, err := r.messages.Find(ctx, conversationFilter(a, b),
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Store("find conversation", err)
	}
	var docs []messageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Store("find conversation", err)
	}
	messages := make([]domain.Message, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return nil, errors.Store("decode message", err)
		}
		msg := domain.Message{
			ID:          id,
			SenderID:    d.SenderID,
			RecipientID: d.RecipientID,
			Content:     d.Content,
			Type:        domain.MessageType(d.Type),
			CreatedAt:   d.CreatedAt.UTC(),
		}
		if !msg.Involves(a, b) {
			return nil, errors.Store("find conversation", fmt.Errorf("message %s is outside %s/%s", d.ID, a, b))
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (r *MessageRepository) DeleteConversation(ctx context.Context, a, b string) (int, error) {
	res, err := r.messages.DeleteMany(ctx, conversationFilter(a, b))
	if err != nil {
		return 0, errors.Store("delete conversation", err)
	}
	return int(res.DeletedCount), nil
}

func conversationFilter(a, b string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"sender": a, "recipient": b},
		bson.M{"sender": b, "recipient": a},
	}}
}
