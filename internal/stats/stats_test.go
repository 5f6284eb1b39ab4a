package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/templui/dashh/internal/model"
)

func file(size int64, uploaded time.Time) model.FileRecord {
	return model.FileRecord{ID: uploaded.String(), SizeBytes: size, UploadedAt: uploaded}
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil, time.Now())
	assert.Equal(t, model.Stats{}, s)
}

func TestAggregate(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2026, 10, 17, 15, 0, 0, 0, loc)

	files := []model.FileRecord{
		file(100, now.Add(-time.Hour)),
		file(200, now.Add(-48*time.Hour)),
		file(0, now),
		file(50, time.Date(2026, 10, 17, 0, 0, 0, 0, loc)),
	}

	s := Aggregate(files, now)
	assert.EqualValues(t, 4, s.TotalFiles)
	assert.EqualValues(t, 350, s.StorageUsedBytes)
	assert.EqualValues(t, 3, s.TodayUploads)
}

func TestAggregateDayBoundary(t *testing.T) {
	loc := time.FixedZone("test", -5*60*60)
	lastSecond := time.Date(2026, 10, 16, 23, 59, 59, 0, loc)
	firstSecond := time.Date(2026, 10, 17, 0, 0, 0, 0, loc)

	files := []model.FileRecord{file(1, lastSecond), file(2, firstSecond)}

	// One second before midnight the first upload is still today's.
	assert.EqualValues(t, 1, TodayUploads(files[:1], lastSecond))

	// At midnight the 23:59:59 upload is yesterday's.
	s := Aggregate(files, firstSecond)
	assert.EqualValues(t, 2, s.TotalFiles)
	assert.EqualValues(t, 3, s.StorageUsedBytes)
	assert.EqualValues(t, 1, s.TodayUploads)
}

func TestAggregateUsesCallerLocation(t *testing.T) {
	// 22:00 UTC on the 16th is 01:00 on the 17th in UTC+3.
	uploaded := time.Date(2026, 10, 16, 22, 0, 0, 0, time.UTC)
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.FixedZone("UTC+3", 3*60*60))

	assert.EqualValues(t, 1, TodayUploads([]model.FileRecord{file(1, uploaded)}, now))
	assert.EqualValues(t, 0, TodayUploads([]model.FileRecord{file(1, uploaded)}, now.UTC()))
}

func TestStartOfDay(t *testing.T) {
	now := time.Date(2026, 10, 17, 13, 14, 15, 16, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), StartOfDay(now))
}
