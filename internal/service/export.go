package service

import (
	"bytes"
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/templui/dashh/internal/datauri"
	"github.com/templui/dashh/internal/model"
	"github.com/templui/dashh/internal/result"
	"github.com/templui/dashh/internal/storage"
)

// ExportedFile is one file copied to object storage.
type ExportedFile struct {
	FileID string `json:"fileId"`
	Name   string `json:"name"`
	Key    string `json:"key"`
	URL    string `json:"url"`
}

type ExportSummary struct {
	Exported []ExportedFile `json:"exported"`
	Skipped  []string       `json:"skipped"`
}

// ExportService copies a user's files to an object store.
type ExportService struct {
	files   *PersistenceFacade
	storage storage.Storage
}

func NewExportService(files *PersistenceFacade, storage storage.Storage) *ExportService {
	return &ExportService{files: files, storage: storage}
}

// ObjectKey returns the storage key of a file: <owner>/<id>-<name>.
func ObjectKey(file model.FileRecord) string {
	name := strings.ReplaceAll(path.Base("/"+file.Name), "/", "_")
	return file.OwnerID + "/" + file.ID + "-" + name
}

// Export uploads every file with content. Files without content or whose
// upload fails are reported as skipped.
func (s *ExportService) Export(ctx context.Context) result.Result[ExportSummary] {
	if s.storage == nil {
		return result.Fail[ExportSummary](result.KindValidation, "Export is not configured")
	}

	listing := s.files.GetUserFiles(ctx)
	files, ok := listing.Value()
	if !ok {
		failure, _ := listing.Failure()
		return result.FromFailure[ExportSummary](failure)
	}

	summary := ExportSummary{Exported: []ExportedFile{}, Skipped: []string{}}
	for _, file := range files {
		if !file.HasContent() {
			summary.Skipped = append(summary.Skipped, file.ID)
			continue
		}

		mimeType, data, err := datauri.Decode(file.Content)
		if err != nil {
			slog.Warn("skipping file with corrupt content", "file_id", file.ID, "error", err)
			summary.Skipped = append(summary.Skipped, file.ID)
			continue
		}

		key := ObjectKey(file)
		err = s.storage.Save(ctx, key, bytes.NewReader(data), mimeType)
		if err != nil {
			slog.Warn("failed to export file", "file_id", file.ID, "error", err)
			summary.Skipped = append(summary.Skipped, file.ID)
			continue
		}

		url, err := s.storage.URL(ctx, key)
		if err != nil {
			slog.Warn("failed to sign export URL", "file_id", file.ID, "error", err)
		}

		summary.Exported = append(summary.Exported, ExportedFile{FileID: file.ID, Name: file.Name, Key: key, URL: url})
	}

	slog.Info("files exported", "exported", len(summary.Exported), "skipped", len(summary.Skipped))

	return result.Ok(summary)
}

// Remove deletes a file and, when export is configured, its exported copy.
// The exported object is removed on a best-effort basis once the file itself
// is gone.
func (s *ExportService) Remove(ctx context.Context, fileID string) result.Result[string] {
	if s.storage == nil {
		return s.files.DeleteFile(ctx, fileID)
	}

	var file model.FileRecord
	listing := s.files.GetUserFiles(ctx)
	if files, ok := listing.Value(); ok {
		if i := indexOf(files, fileID); i >= 0 {
			file = files[i]
		}
	}

	r := s.files.DeleteFile(ctx, fileID)
	if !r.Success() || file.ID == "" {
		return r
	}

	err := s.storage.Delete(ctx, ObjectKey(file))
	if err != nil {
		slog.Warn("failed to delete exported copy", "file_id", fileID, "error", err)
	}
	return r
}
