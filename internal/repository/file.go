package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/templui/dashh/internal/model"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

// FileRepository scopes every query and mutation by owner.
type FileRepository interface {
	Create(ctx context.Context, file *model.FileRecord) error
	ByID(ctx context.Context, id, ownerID string) (*model.FileRecord, error)
	AllUserFiles(ctx context.Context, ownerID string) ([]model.FileRecord, error)
	Delete(ctx context.Context, id, ownerID string) error
}

type fileRepository struct {
	coll *mongo.Collection
}

func NewFileRepository(db *mongo.Database) FileRepository {
	return &fileRepository{coll: db.Collection(FilesCollection)}
}

func (r *fileRepository) Create(ctx context.Context, file *model.FileRecord) error {
	_, err := r.coll.InsertOne(ctx, file)
	return err
}

func (r *fileRepository) ByID(ctx context.Context, id, ownerID string) (*model.FileRecord, error) {
	var file model.FileRecord
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "ownerId": ownerID}).Decode(&file)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &file, nil
}

// AllUserFiles returns the owner's files, newest first.
func (r *fileRepository) AllUserFiles(ctx context.Context, ownerID string) ([]model.FileRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: -1}})

	cursor, err := r.coll.Find(ctx, bson.M{"ownerId": ownerID}, opts)
	if err != nil {
		return nil, err
	}

	files := []model.FileRecord{}
	err = cursor.All(ctx, &files)
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (r *fileRepository) Delete(ctx context.Context, id, ownerID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrFileNotFound
	}
	return nil
}
