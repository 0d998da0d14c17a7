package repositories

import (
	"context"
	"dm-chat/contract"
	"dm-chat/domain"
	"dm-chat/errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

var _ contract.IMessageRepository = MessageRepository{}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// conversationPrefix is shared by both directions of a conversation,
// the pair being ordered so that (a, b) and (b, a) land on the same keys.
func conversationPrefix(a, b string) string {
	low, high := domain.ConversationKey(a, b)
	return fmt.Sprintf("%s%s:%s:", MessageKeyPrefix, low, high)
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{low_id}:{high_id}:{timestamp_padded}:{uuid}" to:
//  1. Keep chronological order using 19-digit zero padding (lexicographical order).
//  2. Avoid overwriting two messages sent in the same nanosecond, the UUID breaks the tie.
func (m MessageRepository) StoreMessage(ctx context.Context, message domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := fmt.Sprintf("%s%019d:%s",
		conversationPrefix(message.SenderID, message.RecipientID),
		message.CreatedAt.UnixNano(),
		message.ID,
	)
	bytes, err := encodeMessage(message)
	if err != nil {
		return errors.Store("encode message", err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return errors.Store("store message", err)
	}
	return nil
}

// FindConversation returns every message exchanged between a and b, oldest first.
func (m MessageRepository) FindConversation(ctx context.Context, a, b string) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	messages := make([]domain.Message, 0)
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(conversationPrefix(a, b))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				msg, err := DecodeMessage(val)
				if err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Store("find conversation", err)
	}
	return messages, nil
}

// DeleteConversation removes both directions of the conversation and reports how many messages went away.
func (m MessageRepository) DeleteConversation(ctx context.Context, a, b string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var keys [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(conversationPrefix(a, b))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, errors.Store("scan conversation", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := m.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return 0, errors.Store("delete conversation", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, errors.Store("delete conversation", err)
	}
	m.log.Debug("Conversation deleted", "count", len(keys))
	return len(keys), nil
}
