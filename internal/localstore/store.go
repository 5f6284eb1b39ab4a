// Package localstore is the device-local fallback persistence: a namespaced
// string key/value table holding one JSON file list and one JSON profile per
// user.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/templui/dashh/internal/model"
	"github.com/templui/dashh/internal/stats"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "dashh_"

// ErrNotFound means nothing is stored under the key. Any other error means
// the store itself failed.
var ErrNotFound = errors.New("not found in local store")

type Store struct {
	db     *sqlx.DB
	prefix string
	now    func() time.Time
}

type Option func(*Store)

// WithClock sets the clock used for timestamps and day boundaries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(db *sqlx.DB, prefix string, opts ...Option) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	s := &Store{db: db, prefix: prefix, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func filesKey(ownerID string) string {
	return "files_" + ownerID
}

func profileKey(ownerID string) string {
	return "profile_" + ownerID
}

func (s *Store) getItem(ctx context.Context, key string, dest any) error {
	var raw string
	err := s.db.GetContext(ctx, &raw, `SELECT value FROM kv WHERE key = $1`, s.prefix+key)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		slog.Warn("local store get failed", "key", key, "error", err)
		return fmt.Errorf("failed to read %s: %w", key, err)
	}

	err = json.Unmarshal([]byte(raw), dest)
	if err != nil {
		slog.Warn("local store decode failed", "key", key, "error", err)
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) setItem(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("local store encode failed", "key", key, "error", err)
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, s.prefix+key, string(raw), s.now().UTC())
	if err != nil {
		slog.Warn("local store set failed", "key", key, "error", err)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *Store) removeItem(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = $1`, s.prefix+key)
	if err != nil {
		slog.Warn("local store remove failed", "key", key, "error", err)
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// UserFiles returns the owner's files. Nothing stored yet is an empty list.
func (s *Store) UserFiles(ctx context.Context, ownerID string) ([]model.FileRecord, error) {
	var files []model.FileRecord
	err := s.getItem(ctx, filesKey(ownerID), &files)
	if errors.Is(err, ErrNotFound) {
		return []model.FileRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []model.FileRecord{}
	}
	return files, nil
}

func (s *Store) SaveUserFiles(ctx context.Context, ownerID string, files []model.FileRecord) error {
	if files == nil {
		files = []model.FileRecord{}
	}
	return s.setItem(ctx, filesKey(ownerID), files)
}

func (s *Store) UserProfile(ctx context.Context, ownerID string) (*model.UserProfile, error) {
	var profile model.UserProfile
	err := s.getItem(ctx, profileKey(ownerID), &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *Store) SaveUserProfile(ctx context.Context, ownerID string, profile *model.UserProfile) error {
	return s.setItem(ctx, profileKey(ownerID), profile)
}

// UserStats aggregates the owner's local file list.
func (s *Store) UserStats(ctx context.Context, ownerID string) (model.Stats, error) {
	files, err := s.UserFiles(ctx, ownerID)
	if err != nil {
		return model.Stats{}, err
	}
	return stats.Aggregate(files, s.now()), nil
}

// Clear removes everything stored for the owner.
func (s *Store) Clear(ctx context.Context, ownerID string) error {
	err := s.removeItem(ctx, filesKey(ownerID))
	if err != nil {
		return err
	}
	return s.removeItem(ctx, profileKey(ownerID))
}
