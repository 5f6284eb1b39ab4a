package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/templui/dashh/internal/model"
)

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrDuplicateEmail     = errors.New("email already exists")
)

type CredentialRepository interface {
	Create(ctx context.Context, credential *model.Credential) error
	ByEmail(ctx context.Context, email string) (*model.Credential, error)
}

type credentialRepository struct {
	coll *mongo.Collection
}

func NewCredentialRepository(db *mongo.Database) CredentialRepository {
	return &credentialRepository{coll: db.Collection(CredentialsCollection)}
}

func (r *credentialRepository) Create(ctx context.Context, credential *model.Credential) error {
	_, err := r.coll.InsertOne(ctx, credential)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *credentialRepository) ByEmail(ctx context.Context, email string) (*model.Credential, error) {
	var credential model.Credential
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&credential)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, err
	}

	return &credential, nil
}
