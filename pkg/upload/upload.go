// Package upload publishes rendered widget fragments next to the document
// they were rendered from.
package upload

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/ethpandaops/perfsummary/pkg/config"
	"github.com/sirupsen/logrus"
)

// ErrReadOnly is returned for source backends that cannot be written to.
var ErrReadOnly = errors.New("source backend is read-only")

// Uploader writes a file relative to the configured source root.
type Uploader interface {
	// Preflight verifies that the destination is reachable and writable.
	Preflight(ctx context.Context) error

	// Upload writes data to filePath under the source root.
	Upload(ctx context.Context, filePath string, data []byte) error

	// Describe returns the destination for logs.
	Describe() string
}

// New creates the Uploader for the enabled source backend.
func New(log logrus.FieldLogger, cfg *config.SourceConfig) (Uploader, error) {
	switch {
	case cfg.Local != nil && cfg.Local.Enabled:
		return NewLocalUploader(log, cfg.Local)
	case cfg.S3 != nil && cfg.S3.Enabled:
		return NewS3Uploader(log, cfg.S3), nil
	case cfg.HTTP != nil && cfg.HTTP.Enabled:
		return nil, fmt.Errorf("http: %w", ErrReadOnly)
	default:
		return nil, fmt.Errorf("no source backend configured")
	}
}

// detectContentType returns a MIME type based on file extension.
func detectContentType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "application/octet-stream"
	}

	ct := mime.TypeByExtension(ext)
	if ct == "" {
		return "application/octet-stream"
	}

	return ct
}
