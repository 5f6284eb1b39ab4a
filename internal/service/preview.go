package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/templui/dashh/internal/datauri"
	"github.com/templui/dashh/internal/markdown"
	"github.com/templui/dashh/internal/model"
	"github.com/templui/dashh/internal/result"
)

type PreviewKind string

const (
	PreviewImage    PreviewKind = "image"
	PreviewVideo    PreviewKind = "video"
	PreviewAudio    PreviewKind = "audio"
	PreviewPDF      PreviewKind = "pdf"
	PreviewText     PreviewKind = "text"
	PreviewArchive  PreviewKind = "archive"
	PreviewDocument PreviewKind = "document"
	PreviewOther    PreviewKind = "other"
)

// ClassifyMime maps a MIME type to a preview kind.
func ClassifyMime(mimeType string) PreviewKind {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}

	switch {
	case strings.HasPrefix(m, "image/"):
		return PreviewImage
	case strings.HasPrefix(m, "video/"):
		return PreviewVideo
	case strings.HasPrefix(m, "audio/"):
		return PreviewAudio
	case m == "application/pdf":
		return PreviewPDF
	case strings.HasPrefix(m, "text/"),
		m == "application/json",
		m == "application/xml",
		m == "application/javascript",
		m == "application/x-yaml":
		return PreviewText
	case strings.Contains(m, "zip"),
		strings.Contains(m, "tar"),
		strings.Contains(m, "compressed"),
		m == "application/gzip":
		return PreviewArchive
	case strings.Contains(m, "word"),
		strings.Contains(m, "excel"),
		strings.Contains(m, "spreadsheet"),
		strings.Contains(m, "presentation"),
		strings.Contains(m, "opendocument"):
		return PreviewDocument
	default:
		return PreviewOther
	}
}

// Inline reports whether the kind can be shown without downloading.
func (k PreviewKind) Inline() bool {
	switch k {
	case PreviewImage, PreviewVideo, PreviewAudio, PreviewPDF, PreviewText:
		return true
	default:
		return false
	}
}

// Preview is the display description of a file.
type Preview struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Title        string      `json:"title,omitempty"`
	MimeType     string      `json:"mimeType"`
	Kind         PreviewKind `json:"kind"`
	Inline       bool        `json:"inline"`
	SizeBytes    int64       `json:"sizeBytes"`
	Size         string      `json:"size"`
	UploadedAt   time.Time   `json:"uploadedAt"`
	LastModified time.Time   `json:"lastModifiedAt"`
	Text         string      `json:"text,omitempty"`
	Truncated    bool        `json:"truncated,omitempty"`
}

// BuildPreview describes the file. For text files the first maxLines lines of
// the content are included.
func BuildPreview(file model.FileRecord, maxLines int) Preview {
	kind := ClassifyMime(file.MimeType)
	p := Preview{
		ID:           file.ID,
		Name:         file.Name,
		MimeType:     file.MimeType,
		Kind:         kind,
		Inline:       kind.Inline(),
		SizeBytes:    file.SizeBytes,
		Size:         humanize.IBytes(uint64(max(file.SizeBytes, 0))),
		UploadedAt:   file.UploadedAt,
		LastModified: file.LastModifiedAt,
	}

	if kind != PreviewText || !file.HasContent() {
		return p
	}

	_, data, err := datauri.Decode(file.Content)
	if err != nil || !utf8.Valid(data) {
		return p
	}

	if markdown.IsMarkdown(file.Name, file.MimeType) {
		p.Title = markdown.NewParser().Metadata(data).Title
	}

	lines := strings.SplitAfter(string(data), "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		p.Truncated = true
	}
	p.Text = strings.Join(lines, "")
	return p
}

// Preview looks up a file and describes it.
func (f *PersistenceFacade) Preview(ctx context.Context, fileID string, maxLines int) result.Result[Preview] {
	return result.Map(f.GetFileContent(ctx, fileID), func(c model.FileContent) Preview {
		return BuildPreview(c.File, maxLines)
	})
}

// DownloadedFile is the decoded content of a stored file.
type DownloadedFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// Download returns the decoded bytes of a file.
func (f *PersistenceFacade) Download(ctx context.Context, fileID string) result.Result[DownloadedFile] {
	content := f.GetFileContent(ctx, fileID)

	c, ok := content.Value()
	if !ok {
		failure, _ := content.Failure()
		return result.FromFailure[DownloadedFile](failure)
	}

	mimeType, data, err := datauri.Decode(c.Content)
	if err != nil {
		return storageFailure[DownloadedFile]("Stored content is corrupt")
	}

	return result.Ok(DownloadedFile{Name: c.File.Name, MimeType: mimeType, Data: data})
}
