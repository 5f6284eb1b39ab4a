package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection       = "users"
	FilesCollection       = "files"
	CredentialsCollection = "credentials"
)

// Connect creates a client for the hosted document database. The driver
// connects lazily, so an unreachable server surfaces on the first operation.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	slog.Debug("document store client created", "database", database)
	return client, client.Database(database), nil
}

// EnsureIndexes creates the indexes the repositories rely on. Failures are
// returned but callers may continue; queries still work without them.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CredentialsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create credentials index: %w", err)
	}

	_, err = db.Collection(FilesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "uploadedAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create files index: %w", err)
	}

	return nil
}
