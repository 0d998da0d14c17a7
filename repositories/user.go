package repositories

import (
	"context"
	"dm-chat/contract"
	"dm-chat/domain"
	"dm-chat/errors"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	userIDPrefix    = "user:id:"
	userEmailPrefix = "user:email:"
)

// UserRepository stores users in BadgerDB.
// Primary key "user:id:{id}" holds the document, "user:email:{email}" points to the id.
type UserRepository struct {
	db    *badger.DB
	index *ContactIndex
	log   *slog.Logger
}

var _ contract.IUserRepository = (*UserRepository)(nil)

// NewUserRepository wires the store with an optional contact index.
// Without index, Search scans every user.
func NewUserRepository(db *badger.DB, index *ContactIndex, log *slog.Logger) *UserRepository {
	return &UserRepository{db: db, index: index, log: log}
}

// CreateUser persists a new user and returns it with its generated ID.
// The email key is read inside the transaction, so two concurrent signups
// with the same email cannot both commit.
func (u *UserRepository) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	user.Email = domain.NormalizeEmail(user.Email)
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	data, err := encodeUser(user)
	if err != nil {
		return domain.User{}, errors.Store("encode user", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte(userEmailPrefix + user.Email)
		if _, err := txn.Get(emailKey); err == nil {
			return errors.ErrConflict
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(emailKey, []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(userIDPrefix+user.ID), data)
	})
	switch {
	case err == nil:
	case stderrors.Is(err, errors.ErrConflict), stderrors.Is(err, badger.ErrConflict):
		return domain.User{}, fmt.Errorf("%w: email %s", errors.ErrConflict, user.Email)
	default:
		return domain.User{}, errors.Store("create user", err)
	}

	u.reindex(user)
	return user, nil
}

func (u *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		id, err := getUserID(txn, domain.NormalizeEmail(email))
		if err != nil {
			return err
		}
		user, err = getUser(txn, id)
		return err
	})
	if err != nil {
		return domain.User{}, mapUserError("find user by email", err)
	}
	return user, nil
}

func (u *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	if err != nil {
		return domain.User{}, mapUserError("find user by id", err)
	}
	return user, nil
}

// UpdateByEmail applies the profile fields and returns the updated user.
func (u *UserRepository) UpdateByEmail(ctx context.Context, email string, update domain.ProfileUpdate) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	var updated domain.User
	err := u.db.Update(func(txn *badger.Txn) error {
		id, err := getUserID(txn, domain.NormalizeEmail(email))
		if err != nil {
			return err
		}
		user, err := getUser(txn, id)
		if err != nil {
			return err
		}
		updated = user.Apply(update)
		data, err := encodeUser(updated)
		if err != nil {
			return err
		}
		return txn.Set([]byte(userIDPrefix+id), data)
	})
	if err != nil {
		return domain.User{}, mapUserError("update user", err)
	}

	u.reindex(updated)
	return updated, nil
}

// ListExcept returns every user but the given one.
func (u *UserRepository) ListExcept(ctx context.Context, id string) ([]domain.User, error) {
	users, err := u.all(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(users, func(user domain.User, _ int) bool {
		return user.ID != id
	}), nil
}

// Search matches the term, case-insensitively, inside first name, last name or email.
func (u *UserRepository) Search(ctx context.Context, term string) ([]domain.User, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, nil
	}
	if u.index == nil {
		users, err := u.all(ctx)
		if err != nil {
			return nil, err
		}
		return lo.Filter(users, func(user domain.User, _ int) bool {
			return matches(user, term)
		}), nil
	}

	ids, err := u.index.Search(ctx, term)
	if err != nil {
		return nil, errors.Store("search contacts", err)
	}
	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		user, err := u.FindByID(ctx, id)
		if stderrors.Is(err, errors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// RebuildIndex reindexes every stored user, run once at startup.
func (u *UserRepository) RebuildIndex(ctx context.Context) (int, error) {
	if u.index == nil {
		return 0, nil
	}
	users, err := u.all(ctx)
	if err != nil {
		return 0, err
	}
	if err := u.index.Rebuild(users); err != nil {
		return 0, errors.Store("rebuild contact index", err)
	}
	return len(users), nil
}

func (u *UserRepository) all(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var users []domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(userIDPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				user, err := DecodeUser(val)
				if err != nil {
					return err
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Store("list users", err)
	}
	return users, nil
}

// reindex keeps the search index in line with the store.
// The write already committed, so an index failure is only logged.
func (u *UserRepository) reindex(user domain.User) {
	if u.index == nil {
		return
	}
	if err := u.index.Index(user); err != nil {
		u.log.Warn("Contact index update failed", "user_id", user.ID, "error", err)
	}
}

func getUserID(txn *badger.Txn, email string) (string, error) {
	item, err := txn.Get([]byte(userEmailPrefix + email))
	if err != nil {
		return "", err
	}
	id, err := item.ValueCopy(nil)
	return string(id), err
}

func getUser(txn *badger.Txn, id string) (domain.User, error) {
	item, err := txn.Get([]byte(userIDPrefix + id))
	if err != nil {
		return domain.User{}, err
	}
	var user domain.User
	err = item.Value(func(val []byte) error {
		user, err = DecodeUser(val)
		return err
	})
	return user, err
}

func mapUserError(op string, err error) error {
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: user", errors.ErrNotFound)
	}
	return errors.Store(op, err)
}

func matches(user domain.User, term string) bool {
	return strings.Contains(strings.ToLower(user.Email), term) ||
		strings.Contains(strings.ToLower(user.FirstName), term) ||
		strings.Contains(strings.ToLower(user.LastName), term)
}
