// Package source reads the performance document from the report location
// it was published to.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"
	"github.com/ethpandaops/perfsummary/pkg/config"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when the requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Source provides read access to files published under a report root
// (HTTP base URL, local directory or S3 prefix).
type Source interface {
	// Get reads the file at the given slash-separated path relative to
	// the source root.
	Get(ctx context.Context, filePath string) ([]byte, error)

	// Describe returns a human-readable location for logging.
	Describe() string
}

// New creates the Source selected by cfg. The configuration must have been
// validated so that exactly one backend is enabled.
func New(
	log logrus.FieldLogger,
	cfg *config.SourceConfig,
	maxBytes int64,
) (Source, error) {
	switch {
	case cfg.HTTP != nil && cfg.HTTP.Enabled:
		return NewHTTPSource(log, cfg.HTTP, maxBytes)
	case cfg.Local != nil && cfg.Local.Enabled:
		return NewLocalSource(cfg.Local, maxBytes), nil
	case cfg.S3 != nil && cfg.S3.Enabled:
		return NewS3Source(cfg.S3, maxBytes), nil
	default:
		return nil, fmt.Errorf("no source backend configured")
	}
}

// IsAllowedPath rejects empty, absolute, unclean, or traversal request paths.
func IsAllowedPath(filePath string) bool {
	if filePath == "" {
		return false
	}

	if strings.Contains(filePath, "..") {
		return false
	}

	if strings.HasPrefix(filePath, "/") || filepath.IsAbs(filePath) {
		return false
	}

	return path.Clean(filePath) == filePath
}

// readLimited reads r fully, failing when more than maxBytes are available.
func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf(
			"document exceeds maximum size of %s", units.BytesSize(float64(maxBytes)),
		)
	}

	return data, nil
}
