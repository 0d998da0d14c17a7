package mongostore

import (
	"context"
	"dm-chat/contract"
	"dm-chat/domain"
	"dm-chat/errors"
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type userDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	FirstName    string    `bson:"first_name,omitempty"`
	LastName     string    `bson:"last_name,omitempty"`
	Color        string    `bson:"color,omitempty"`
	ProfileSetup bool      `bson:"profile_setup"`
	CreatedAt    time.Time `bson:"created_at"`
}

func (d userDocument) toDomain() domain.User {
	return domain.User{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Color:        d.Color,
		ProfileSetup: d.ProfileSetup,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

type UserRepository struct {
	users *mongo.Collection
}

var _ contract.IUserRepository = (*UserRepository)(nil)

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{users: db.Collection(usersCollection)}
}

// CreateUser relies on the unique email index to reject duplicates.
func (r *UserRepository) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	user.Email = domain.NormalizeEmail(user.Email)
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	// Mongo keeps milliseconds only
	user.CreatedAt = user.CreatedAt.Truncate(time.Millisecond)

	_, err := r.users.InsertOne(ctx, userDocument{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Color:        user.Color,
		ProfileSetup: user.ProfileSetup,
		CreatedAt:    user.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return domain.User{}, fmt.Errorf("%w: email %s", errors.ErrConflict, user.Email)
	}
	if err != nil {
		return domain.User{}, errors.Store("create user", err)
	}
	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, "find user by email", bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	return r.findOne(ctx, "find user by id", bson.M{"_id": id})
}

func (r *UserRepository) UpdateByEmail(ctx context.Context, email string, update domain.ProfileUpdate) (domain.User, error) {
	profile := domain.User{}.Apply(update)
	var doc userDocument
	err := r.users.FindOneAndUpdate(ctx,
		bson.M{"email": domain.NormalizeEmail(email)},
		bson.M{"$set": bson.M{
			"first_name":    profile.FirstName,
			"last_name":     profile.LastName,
			"color":         profile.Color,
			"profile_setup": profile.ProfileSetup,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return domain.User{}, mapError("update user", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) ListExcept(ctx context.Context, id string) ([]domain.User, error) {
	return r.find(ctx, "list users", bson.M{"_id": bson.M{"$ne": id}})
}

// Search is a case-insensitive substring match on email and names.
func (r *UserRepository) Search(ctx context.Context, term string) ([]domain.User, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	pattern := bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}
	return r.find(ctx, "search users", bson.M{"$or": bson.A{
		bson.M{"email": pattern},
		bson.M{"first_name": pattern},
		bson.M{"last_name": pattern},
	}})
}

func (r *UserRepository) findOne(ctx context.Context, op string, filter bson.M) (domain.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return domain.User{}, mapError(op, err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) find(ctx context.Context, op string, filter bson.M) ([]domain.User, error) {
	cursor, err := r.users.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, errors.Store(op, err)
	}
	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Store(op, err)
	}
	return lo.Map(docs, func(d userDocument, _ int) domain.User { return d.toDomain() }), nil
}

func mapError(op string, err error) error {
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: user", errors.ErrNotFound)
	}
	return errors.Store(op, err)
}
