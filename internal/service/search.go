package service

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/templui/dashh/internal/model"
)

// FilterFiles keeps the files whose name, MIME type, description or tags
// contain the query, ignoring case. An empty query keeps everything.
func FilterFiles(files []model.FileRecord, query string) []model.FileRecord {
	folder := cases.Fold()
	q := folder.String(strings.TrimSpace(query))
	if q == "" {
		return files
	}

	matched := []model.FileRecord{}
	for _, file := range files {
		if matches(folder, file, q) {
			matched = append(matched, file)
		}
	}
	return matched
}

func matches(folder cases.Caser, file model.FileRecord, q string) bool {
	if strings.Contains(folder.String(file.Name), q) ||
		strings.Contains(folder.String(file.MimeType), q) ||
		strings.Contains(folder.String(file.Description), q) {
		return true
	}
	for _, tag := range file.Tags {
		if strings.Contains(folder.String(tag), q) {
			return true
		}
	}
	return false
}

// SortNewestFirst orders files by upload time, most recent first.
func SortNewestFirst(files []model.FileRecord) {
	slices.SortStableFunc(files, func(a, b model.FileRecord) int {
		return b.UploadedAt.Compare(a.UploadedAt)
	})
}
