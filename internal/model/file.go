package model

import (
	"time"
)

// FileRecord is one stored file. Content holds the bytes as a data URI and
// may be empty for records whose content was never embedded.
type FileRecord struct {
	ID             string    `bson:"_id" json:"id"`
	OwnerID        string    `bson:"ownerId" json:"ownerId"`
	Name           string    `bson:"name" json:"name"`
	SizeBytes      int64     `bson:"sizeBytes" json:"sizeBytes"`
	MimeType       string    `bson:"mimeType" json:"mimeType"`
	Content        string    `bson:"content,omitempty" json:"content,omitempty"`
	LastModifiedAt time.Time `bson:"lastModifiedAt" json:"lastModifiedAt"`
	UploadedAt     time.Time `bson:"uploadedAt" json:"uploadedAt"`
	Tags           []string  `bson:"tags" json:"tags"`
	Description    string    `bson:"description" json:"description"`
}

// FilePayload is what the upload pipeline hands to the persistence layer.
// ID, owner and upload time are assigned on write.
type FilePayload struct {
	Name           string
	SizeBytes      int64
	MimeType       string
	Content        string
	LastModifiedAt time.Time
	Tags           []string
	Description    string
}

// UploadedFile is the payload of a successful upload.
type UploadedFile struct {
	FileID string     `json:"fileId"`
	File   FileRecord `json:"file"`
}

// FileContent is the payload of a content lookup.
type FileContent struct {
	Content string     `json:"content"`
	File    FileRecord `json:"file"`
}

func (f *FileRecord) HasContent() bool {
	return f.Content != ""
}
