package model

// Stats is derived from the file collection and never stored on its own.
type Stats struct {
	TotalFiles       int64 `json:"totalFiles"`
	StorageUsedBytes int64 `json:"storageUsedBytes"`
	TodayUploads     int64 `json:"todayUploads"`
}
