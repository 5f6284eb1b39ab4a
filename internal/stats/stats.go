// Package stats derives usage statistics from a file collection.
package stats

import (
	"time"

	"github.com/templui/dashh/internal/model"
)

// Aggregate counts files, sums their sizes and counts those uploaded since
// local midnight of now's day. It has no side effects.
func Aggregate(files []model.FileRecord, now time.Time) model.Stats {
	midnight := StartOfDay(now)

	var s model.Stats
	for _, f := range files {
		s.TotalFiles++
		s.StorageUsedBytes += f.SizeBytes
		if !f.UploadedAt.Before(midnight) {
			s.TodayUploads++
		}
	}
	return s
}

// TodayUploads counts the files uploaded since local midnight.
func TodayUploads(files []model.FileRecord, now time.Time) int64 {
	return Aggregate(files, now).TodayUploads
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
