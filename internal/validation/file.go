package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// FileConstraints are advisory client-side limits for uploads.
type FileConstraints struct {
	// MaxSize of the raw file in bytes; zero disables the check.
	MaxSize int64
	// BlockedExtensions are rejected regardless of size.
	BlockedExtensions map[string]bool
}

// DefaultConstraints keeps an encoded document below the 16 MiB document
// limit of the remote store (base64 grows content by a third).
var DefaultConstraints = FileConstraints{
	MaxSize: 12 << 20,
}

// ValidateFile checks a selected file against the constraints.
func ValidateFile(name string, size int64, c FileConstraints) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("file name is required")
	}

	if size < 0 {
		return fmt.Errorf("invalid file size: %d", size)
	}

	if c.MaxSize > 0 && size > c.MaxSize {
		return fmt.Errorf("file too large: maximum size is %s", humanize.IBytes(uint64(c.MaxSize)))
	}

	ext := strings.ToLower(filepath.Ext(name))
	if c.BlockedExtensions[ext] {
		return fmt.Errorf("invalid file extension: %s", ext)
	}

	return nil
}
