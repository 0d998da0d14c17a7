package sink

import (
	"context"
	"dm-chat/domain"
	"dm-chat/errors"
	"sync"
)

// ConnectionSink is the registry handle of one live connection.
// The chat service pushes into Events, the connection writer drains it.
type ConnectionSink struct {
	UserID string
	Events chan domain.MessageReceived
	done   chan struct{}
	once   sync.Once
}

func NewConnectionSink(userID string, bufferSize int) *ConnectionSink {
	return &ConnectionSink{
		UserID: userID,
		Events: make(chan domain.MessageReceived, bufferSize),
		done:   make(chan struct{}),
	}
}

// Consume is called by the chat service after a message is persisted.
// It waits for buffer room until ctx expires; a closed sink refuses the event.
func (s *ConnectionSink) Consume(ctx context.Context, e domain.MessageReceived) error {
	select {
	case <-s.done:
		return errors.ErrSinkClosed
	default:
	}
	select {
	case s.Events <- e:
		return nil
	case <-s.done:
		return errors.ErrSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events. Events is never closed so late producers cannot panic.
func (s *ConnectionSink) Close() {
	s.once.Do(func() { close(s.done) })
}

// Done is closed once the connection is gone.
func (s *ConnectionSink) Done() <-chan struct{} {
	return s.done
}
