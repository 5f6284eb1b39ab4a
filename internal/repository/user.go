package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/templui/dashh/internal/model"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrDuplicateProfile = errors.New("profile already exists")
)

// UserRepository holds one profile document per authenticated identity.
type UserRepository interface {
	ByID(ctx context.Context, id string) (*model.UserProfile, error)
	Create(ctx context.Context, profile *model.UserProfile) error
	IncrementCounters(ctx context.Context, id string, files, bytes int64) error
	SetCounters(ctx context.Context, id string, files, bytes int64) error
	Update(ctx context.Context, id string, patch model.ProfilePatch, now time.Time) (*model.UserProfile, error)
}

type userRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{coll: db.Collection(UsersCollection)}
}

func (r *userRepository) ByID(ctx context.Context, id string) (*model.UserProfile, error) {
	var profile model.UserProfile
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *userRepository) Create(ctx context.Context, profile *model.UserProfile) error {
	_, err := r.coll.InsertOne(ctx, profile)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateProfile
	}
	return err
}

// IncrementCounters applies a $inc to the running counters.
func (r *userRepository) IncrementCounters(ctx context.Context, id string, files, bytes int64) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"totalFiles": files, "storageUsedBytes": bytes}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) SetCounters(ctx context.Context, id string, files, bytes int64) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"totalFiles": files, "storageUsedBytes": bytes}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Update sets the patched fields, clears the first-login flag and bumps the
// update counter in one atomic document update.
func (r *userRepository) Update(ctx context.Context, id string, patch model.ProfilePatch, now time.Time) (*model.UserProfile, error) {
	set := bson.M{
		"updatedAt":    now,
		"isFirstLogin": false,
	}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.FirstName != nil {
		set["firstName"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["lastName"] = *patch.LastName
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var profile model.UserProfile
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set, "$inc": bson.M{"profileUpdateCount": 1}},
		opts,
	).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}
