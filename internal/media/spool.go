package media

import (
	"context"
	"os"
	"path/filepath"

	"media-ingest/internal/failure"
	"media-ingest/internal/filesystem"

	"github.com/google/uuid"
)

// Spool places cand's payload at a new, uniquely named file in workDir and
// returns its path with a cleanup func that removes it. File-backed
// candidates are copied with the resilient copier, since the upload handler
// may still hold the source.
func Spool(ctx context.Context, cand Candidate, workDir string, policy filesystem.RetryPolicy) (string, func(), error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", func() {}, failure.Wrap(failure.KindIOError, err, "create work dir %s", workDir)
	}

	path := filepath.Join(workDir, uuid.NewString()+cand.Extension())
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove spooled file %s: %v", path, err)
		}
	}

	if cand.Path != "" {
		if err := filesystem.CopyWithRetry(ctx, cand.Path, path, policy); err != nil {
			return "", func() {}, err
		}
		return path, cleanup, nil
	}

	if err := os.WriteFile(path, cand.Data, 0o644); err != nil {
		cleanup()
		return "", func() {}, failure.Wrap(failure.KindIOError, err, "spool %s", cand.Filename)
	}
	return path, cleanup, nil
}
