package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethpandaops/perfsummary/pkg/config"
	"github.com/ethpandaops/perfsummary/pkg/fsutil"
	"github.com/ethpandaops/perfsummary/pkg/source"
	"github.com/sirupsen/logrus"
)

// Ensure interface compliance.
var _ Uploader = (*localUploader)(nil)

type localUploader struct {
	log   logrus.FieldLogger
	root  string
	owner *fsutil.OwnerConfig
}

// NewLocalUploader creates an Uploader writing into the local results
// directory.
func NewLocalUploader(log logrus.FieldLogger, cfg *config.LocalSourceConfig) (Uploader, error) {
	owner, err := fsutil.ParseOwner(cfg.Owner)
	if err != nil {
		return nil, fmt.Errorf("parsing owner: %w", err)
	}

	return &localUploader{
		log:   log.WithField("component", "local-uploader"),
		root:  source.ResolveRoot(cfg.ResultsDir),
		owner: owner,
	}, nil
}

func (u *localUploader) Describe() string {
	return u.root
}

// Preflight checks that the results directory exists.
func (u *localUploader) Preflight(_ context.Context) error {
	info, err := os.Stat(u.root)
	if err != nil {
		return fmt.Errorf("results directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("results directory %s is not a directory", u.root)
	}

	return nil
}

// Upload writes {results_dir}/{filePath} atomically.
func (u *localUploader) Upload(_ context.Context, filePath string, data []byte) error {
	if !source.IsAllowedPath(filePath) {
		return fmt.Errorf("path %q is not allowed", filePath)
	}

	full := filepath.Join(u.root, filepath.FromSlash(filePath))
	if !source.IsWithin(u.root, full) {
		return fmt.Errorf("path %q escapes results directory", filePath)
	}

	if err := fsutil.MkdirAll(filepath.Dir(full), 0o755, u.owner); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	if err := fsutil.WriteFileAtomic(full, data, 0o644, u.owner); err != nil {
		return fmt.Errorf("writing %s: %w", full, err)
	}

	u.log.WithField("path", full).
		WithField("bytes", len(data)).
		Info("Upload completed")

	return nil
}
