package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethpandaops/perfsummary/pkg/config"
)

// Compile-time interface check.
var _ Source = (*localSource)(nil)

type localSource struct {
	root     string
	maxBytes int64
}

// NewLocalSource creates a Source backed by a local report directory.
func NewLocalSource(cfg *config.LocalSourceConfig, maxBytes int64) Source {
	return &localSource{
		root:     ResolveRoot(cfg.ResultsDir),
		maxBytes: maxBytes,
	}
}

func (s *localSource) Describe() string {
	return s.root
}

// Get reads {results_dir}/{filePath}.
func (s *localSource) Get(_ context.Context, filePath string) ([]byte, error) {
	if !IsAllowedPath(filePath) {
		return nil, fmt.Errorf("path %q is not allowed", filePath)
	}

	full := filepath.Join(s.root, filepath.FromSlash(filePath))

	// The resolved path must stay under root.
	if !IsWithin(s.root, full) {
		return nil, fmt.Errorf("path %q escapes results directory", filePath)
	}

	f, err := os.Open(full) //nolint:gosec // root from config, path validated above
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", full, ErrNotFound)
		}

		return nil, fmt.Errorf("opening %s: %w", full, err)
	}

	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", full, err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", full)
	}

	return readLimited(f, s.maxBytes)
}

// ResolveRoot returns dir as a clean absolute path, so that relative
// results directories such as "." compare correctly against joined paths.
func ResolveRoot(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Clean(dir)
	}

	return abs
}

// IsWithin reports whether target is root itself or below it.
func IsWithin(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
