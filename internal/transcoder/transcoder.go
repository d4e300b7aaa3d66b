package transcoder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"media-ingest/internal/encoder"
	"media-ingest/internal/failure"
	"media-ingest/internal/filesystem"
	"media-ingest/internal/logging"
	"media-ingest/internal/media"
	"media-ingest/internal/mediatypes"
)

var logger = logging.Component("transcoder")

// Transcoder normalizes video containers to H.264/AAC MP4.
type Transcoder struct {
	gateway encoder.Gateway
	builder *encoder.CommandBuilder
	copy    filesystem.RetryPolicy
	workDir string
}

// New creates a Transcoder. workDir is the scratch area swept by ClearWorkDir.
func New(gw encoder.Gateway, builder *encoder.CommandBuilder, copyPolicy filesystem.RetryPolicy, workDir string) *Transcoder {
	return &Transcoder{
		gateway: gw,
		builder: builder,
		copy:    copyPolicy,
		workDir: workDir,
	}
}

// ToCanonicalMP4 places a canonical MP4 of inputPath at
// outputFolder/<basename>.mp4, creating outputFolder if needed.
//
// Inputs already named *.mp4 are copied bit for bit with the resilient
// copier and the encoder never runs. Anything else is converted by the
// external encoder into a hidden partial file, which is renamed into place
// only after the encoder exits 0.
//
// Every failure is a *failure.Error: KindIOError for filesystem problems,
// KindEncodeError for encoder failures (stderr in the detail), KindTimeout
// when the encoder runs out of time.
func (t *Transcoder) ToCanonicalMP4(ctx context.Context, inputPath, outputFolder string) (asset media.Asset, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while transcoding %s: %v", inputPath, r)
			asset, err = media.Asset{}, failure.New(failure.KindEncodeError, "panic while transcoding %s: %v", filepath.Base(inputPath), r)
		}
	}()

	if err := os.MkdirAll(outputFolder, 0o755); err != nil {
		logger.Error("Failed to create output folder %s: %v", outputFolder, err)
		return media.Asset{}, failure.Wrap(failure.KindIOError, err, "create %s", outputFolder)
	}

	if _, err := filesystem.StatWithRetry(ctx, inputPath, filesystem.DefaultRetryConfig()); err != nil {
		logger.Warn("Input %s not accessible: %v", inputPath, err)
		return media.Asset{}, failure.Wrap(failure.KindIOError, err, "locate %s", inputPath)
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	final := filepath.Join(outputFolder, base+mediatypes.ExtensionMP4)

	if mediatypes.IsCanonicalVideo(inputPath) {
		return t.copyCanonical(ctx, inputPath, final)
	}
	return t.convert(ctx, inputPath, final)
}

func (t *Transcoder) copyCanonical(ctx context.Context, inputPath, final string) (media.Asset, error) {
	if samePath(inputPath, final) {
		logger.Debug("%s is already canonical and in place", inputPath)
		return assetAt(final)
	}

	if err := filesystem.CopyWithRetry(ctx, inputPath, final, t.copy); err != nil {
		logger.Error("Copy of canonical video %s failed: %v", inputPath, err)
		return media.Asset{}, failure.As(err, failure.KindIOError)
	}

	logger.Debug("Copied canonical video %s -> %s", inputPath, final)
	return assetAt(final)
}

func (t *Transcoder) convert(ctx context.Context, inputPath, final string) (media.Asset, error) {
	partial := filesystem.PartialPath(final)
	cmd := t.builder.Remux(inputPath, partial)

	inv, err := t.gateway.Invoke(ctx, cmd)
	if err != nil {
		removePartial(partial)
		logger.Error("Encoder failed for %s: %v", inputPath, err)
		return media.Asset{}, failure.As(err, failure.KindEncodeError)
	}
	if !inv.Succeeded() {
		removePartial(partial)
		stderr := encoder.TrimStderr(inv.Stderr)
		logger.Error("Encoder exited with %d for %s: %s", inv.ExitCode, inputPath, stderr)
		return media.Asset{}, failure.New(failure.KindEncodeError, "encoder exited with %d: %s", inv.ExitCode, stderr)
	}

	if info, err := os.Stat(partial); err != nil || info.Size() == 0 {
		removePartial(partial)
		return media.Asset{}, failure.New(failure.KindEncodeError, "encoder produced no output for %s", filepath.Base(inputPath))
	}

	if err := os.Rename(partial, final); err != nil {
		removePartial(partial)
		return media.Asset{}, failure.Wrap(failure.KindIOError, err, "publish %s", final)
	}

	logger.Info("Transcoded %s -> %s in %v", filepath.Base(inputPath), final, inv.Duration)
	return assetAt(final)
}

func assetAt(path string) (media.Asset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return media.Asset{}, failure.Wrap(failure.KindIOError, err, "stat %s", path)
	}
	return media.Asset{
		Path:        path,
		ContentType: mediatypes.ContentTypeMP4,
		Size:        info.Size(),
	}, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func removePartial(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove partial output %s: %v", path, err)
	}
}

// WorkDirStats returns the number of files and total bytes in the work directory.
func (t *Transcoder) WorkDirStats() (int, int64, error) {
	if t.workDir == "" {
		return 0, 0, nil
	}

	var files int
	var size int64
	err := filepath.Walk(t.workDir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			files++
			size += info.Size()
		}
		return nil
	})
	return files, size, err
}

// ClearWorkDir removes work directory entries last modified more than
// olderThan ago and returns the number of bytes freed. Pass 0 to remove
// everything; in-flight uploads are spooled there, so callers running
// alongside the pipeline should use a generous age.
func (t *Transcoder) ClearWorkDir(olderThan time.Duration) (int64, error) {
	if t.workDir == "" {
		return 0, nil
	}

	var freedBytes int64

	entries, err := os.ReadDir(t.workDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read work directory: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)

	for _, entry := range entries {
		path := filepath.Join(t.workDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			logger.Warn("failed to get info for %s: %v", path, err)
			continue
		}
		if olderThan > 0 && info.ModTime().After(cutoff) {
			continue
		}

		if entry.IsDir() {
			dirSize, _ := getDirSize(path)
			if err := os.RemoveAll(path); err != nil {
				logger.Warn("failed to remove directory %s: %v", path, err)
				continue
			}
			freedBytes += dirSize
		} else {
			if err := os.Remove(path); err != nil {
				logger.Warn("failed to remove file %s: %v", path, err)
				continue
			}
			freedBytes += info.Size()
		}
	}

	logger.Info("Cleared work directory: freed %d bytes", freedBytes)
	return freedBytes, nil
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
