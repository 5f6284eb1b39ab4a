package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/templui/dashh/internal/datauri"
	"github.com/templui/dashh/internal/markdown"
	"github.com/templui/dashh/internal/model"
	"github.com/templui/dashh/internal/result"
	"github.com/templui/dashh/internal/validation"
)

type UploadStatus string

const (
	StatusPending    UploadStatus = "pending"
	StatusConverting UploadStatus = "converting"
	StatusUploading  UploadStatus = "uploading"
	StatusCompleted  UploadStatus = "completed"
	StatusError      UploadStatus = "error"
)

// SelectedFile is one file picked for upload. Open is called once.
type SelectedFile struct {
	Name         string
	MimeType     string
	Size         int64
	LastModified time.Time
	Open         func() (io.ReadCloser, error)
}

// FileFromPath describes a file on disk. The MIME type is derived from the
// extension.
func FileFromPath(path string) (SelectedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SelectedFile{}, err
	}
	if info.IsDir() {
		return SelectedFile{}, fmt.Errorf("%s is a directory", path)
	}

	return SelectedFile{
		Name:         info.Name(),
		MimeType:     mime.TypeByExtension(filepath.Ext(path)),
		Size:         info.Size(),
		LastModified: info.ModTime(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// UploadItem tracks one file through the pipeline.
type UploadItem struct {
	Name    string
	Status  UploadStatus
	Error   string
	Payload *model.FilePayload
	File    *model.FileRecord
}

// Progress is reported on every status change.
type Progress struct {
	Index  int
	Total  int
	Name   string
	Status UploadStatus
	Error  string
}

// Uploader persists one payload.
type Uploader interface {
	UploadFile(ctx context.Context, payload model.FilePayload) result.Result[model.UploadedFile]
}

type UploadPipeline struct {
	constraints validation.FileConstraints
	markdown    *markdown.Parser
	onProgress  func(Progress)
}

func NewUploadPipeline(constraints validation.FileConstraints, onProgress func(Progress)) *UploadPipeline {
	if onProgress == nil {
		onProgress = func(Progress) {}
	}
	return &UploadPipeline{
		constraints: constraints,
		markdown:    markdown.NewParser(),
		onProgress:  onProgress,
	}
}

// Prepare encodes every file in order. A file that fails is marked as an
// error and does not stop the others.
func (p *UploadPipeline) Prepare(files []SelectedFile) []UploadItem {
	items := make([]UploadItem, len(files))
	for i, file := range files {
		items[i] = UploadItem{Name: file.Name, Status: StatusPending}
	}

	for i, file := range files {
		p.set(items, i, StatusConverting, "")

		content, size, meta, err := p.encode(file)
		if err != nil {
			slog.Warn("failed to prepare file", "name", file.Name, "error", err)
			p.set(items, i, StatusError, err.Error())
			continue
		}

		p.set(items, i, StatusUploading, "")

		items[i].Payload = &model.FilePayload{
			Name:           file.Name,
			SizeBytes:      size,
			MimeType:       mimeTypeOf(file),
			Content:        content,
			LastModifiedAt: file.LastModified,
			Tags:           meta.Tags,
			Description:    meta.Description,
		}

		p.set(items, i, StatusCompleted, "")
	}

	return items
}

// Run prepares the files, then uploads the prepared payloads one at a time.
// A failed upload marks its item as an error; the returned records are the
// successful uploads in input order.
func (p *UploadPipeline) Run(ctx context.Context, files []SelectedFile, uploader Uploader) ([]UploadItem, []model.FileRecord) {
	items := p.Prepare(files)
	uploaded := []model.FileRecord{}

	for i := range items {
		if items[i].Payload == nil {
			continue
		}

		r := uploader.UploadFile(ctx, *items[i].Payload)
		r.Match(
			func(up model.UploadedFile) {
				items[i].File = &up.File
				uploaded = append(uploaded, up.File)
			},
			func(f result.Failure) {
				slog.Warn("failed to upload file", "name", items[i].Name, "kind", f.Kind, "error", f.Message)
				p.set(items, i, StatusError, f.Message)
			},
		)
	}

	return items, uploaded
}

// encode reads the file into a data URI. Markdown files also yield their
// front matter tags and description.
func (p *UploadPipeline) encode(file SelectedFile) (string, int64, markdown.Metadata, error) {
	meta := markdown.Metadata{Tags: []string{}}

	err := validation.ValidateFile(file.Name, file.Size, p.constraints)
	if err != nil {
		return "", 0, meta, err
	}

	rc, err := file.Open()
	if err != nil {
		return "", 0, meta, fmt.Errorf("failed to open file: %w", err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if p.constraints.MaxSize > 0 {
		r = io.LimitReader(rc, p.constraints.MaxSize+1)
	}

	var source bytes.Buffer
	isMarkdown := markdown.IsMarkdown(file.Name, file.MimeType)
	if isMarkdown {
		r = io.TeeReader(r, &source)
	}

	content, size, err := datauri.EncodeReader(mimeTypeOf(file), r)
	if err != nil {
		return "", 0, meta, fmt.Errorf("failed to read file: %w", err)
	}

	// The file may have grown since it was selected.
	err = validation.ValidateFile(file.Name, size, p.constraints)
	if err != nil {
		return "", 0, meta, err
	}

	if isMarkdown {
		meta = p.markdown.Metadata(source.Bytes())
	}

	return content, size, meta, nil
}

func mimeTypeOf(file SelectedFile) string {
	switch {
	case file.MimeType != "":
		return file.MimeType
	case markdown.IsMarkdown(file.Name, ""):
		return markdown.MimeType
	default:
		return datauri.DefaultMimeType
	}
}

func (p *UploadPipeline) set(items []UploadItem, i int, status UploadStatus, message string) {
	items[i].Status = status
	items[i].Error = message
	p.onProgress(Progress{
		Index:  i,
		Total:  len(items),
		Name:   items[i].Name,
		Status: status,
		Error:  message,
	})
}
