//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"dm-chat/domain"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the handle of a live connection.
// Consume must not block past ctx.
type EventSink interface {
	Consume(ctx context.Context, e domain.MessageReceived) error
}

// IRegistry maps an authenticated user to its live connection.
// At most one sink per user, the last Register wins.
type IRegistry interface {
	Register(userID string, sink EventSink)
	Unregister(userID string)
	Release(userID string, sink EventSink) bool
	Lookup(userID string) (EventSink, bool)
	Count() int
}

type IUserRepository interface {
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	UpdateByEmail(ctx context.Context, email string, update domain.ProfileUpdate) (domain.User, error)
	ListExcept(ctx context.Context, id string) ([]domain.User, error)
	Search(ctx context.Context, term string) ([]domain.User, error)
}

type IMessageRepository interface {
	StoreMessage(ctx context.Context, message domain.Message) error
	FindConversation(ctx context.Context, userA, userB string) ([]domain.Message, error)
	DeleteConversation(ctx context.Context, userA, userB string) (int, error)
}
