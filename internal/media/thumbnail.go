package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"media-ingest/internal/encoder"
	"media-ingest/internal/failure"
	"media-ingest/internal/filesystem"
	"media-ingest/internal/mediatypes"
)

// DefaultThumbnailOffset is the frame offset used when none is configured.
const DefaultThumbnailOffset = time.Second

// ThumbnailConfig configures a ThumbnailExtractor.
type ThumbnailConfig struct {
	// WorkDir receives spooled uploads.
	WorkDir string
	// OutputDir receives thumbnails of spooled uploads.
	OutputDir string
	// Offset is the default frame offset.
	Offset time.Duration
	Policy mediatypes.DimensionPolicy
	Copy   filesystem.RetryPolicy
}

// ThumbnailExtractor pulls a single still frame out of a video.
type ThumbnailExtractor struct {
	gateway encoder.Gateway
	builder *encoder.CommandBuilder
	cfg     ThumbnailConfig
	frame   mediatypes.Dimensions
}

// NewThumbnailExtractor creates an extractor that runs the encoder through gw.
func NewThumbnailExtractor(gw encoder.Gateway, builder *encoder.CommandBuilder, cfg ThumbnailConfig) *ThumbnailExtractor {
	if cfg.Offset < 0 {
		cfg.Offset = DefaultThumbnailOffset
	}
	return &ThumbnailExtractor{
		gateway: gw,
		builder: builder,
		cfg:     cfg,
		frame:   cfg.Policy.For(mediatypes.CategoryVideo),
	}
}

// Offset returns the configured default frame offset.
func (x *ThumbnailExtractor) Offset() time.Duration {
	return x.cfg.Offset
}

// ExtractThumbnail writes the frame at offset at as a JPEG alongside
// videoPath, with the same base name. The video itself is left in place.
func (x *ThumbnailExtractor) ExtractThumbnail(ctx context.Context, videoPath string, at time.Duration) (Asset, error) {
	return x.ExtractTo(ctx, videoPath, filepath.Dir(videoPath), at)
}

// ExtractTo writes the frame at offset at to outputFolder/<base>.jpg, where
// base is videoPath's base name without extension. An offset past the end of
// the video fails with KindEncodeError.
func (x *ThumbnailExtractor) ExtractTo(ctx context.Context, videoPath, outputFolder string, at time.Duration) (asset Asset, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while extracting thumbnail from %s: %v", videoPath, r)
			asset, err = Asset{}, failure.New(failure.KindEncodeError, "panic while extracting thumbnail: %v", r)
		}
	}()

	info, err := filesystem.StatWithRetry(ctx, videoPath, filesystem.DefaultRetryConfig())
	if err != nil {
		return Asset{}, failure.Wrap(failure.KindIOError, err, "locate %s", videoPath)
	}
	if info.Size() == 0 {
		return Asset{}, failure.New(failure.KindEmptyUpload, "%s is empty", filepath.Base(videoPath))
	}

	if err := os.MkdirAll(outputFolder, 0o755); err != nil {
		return Asset{}, failure.Wrap(failure.KindIOError, err, "create %s", outputFolder)
	}

	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	final := filepath.Join(outputFolder, base+mediatypes.ExtensionThumbnail)
	partial := filesystem.PartialPath(final)

	cmd := x.builder.ExtractFrame(videoPath, partial, at, x.frame)
	inv, err := x.gateway.Invoke(ctx, cmd)
	if err != nil {
		_ = os.Remove(partial)
		logger.Warn("Thumbnail extraction for %s failed: %v", videoPath, err)
		return Asset{}, failure.As(err, failure.KindEncodeError)
	}
	if !inv.Succeeded() {
		_ = os.Remove(partial)
		logger.Warn("Thumbnail extraction for %s exited with %d", videoPath, inv.ExitCode)
		return Asset{}, failure.New(failure.KindEncodeError, "frame extraction exited with %d: %s",
			inv.ExitCode, encoder.TrimStderr(inv.Stderr))
	}

	// ffmpeg exits 0 without writing a frame when the offset is past the end.
	out, err := os.Stat(partial)
	if err != nil || out.Size() == 0 {
		_ = os.Remove(partial)
		return Asset{}, failure.New(failure.KindEncodeError, "no frame at %s in %s",
			encoder.FormatTimestamp(at), filepath.Base(videoPath))
	}

	if err := os.Rename(partial, final); err != nil {
		_ = os.Remove(partial)
		return Asset{}, failure.Wrap(failure.KindIOError, err, "publish thumbnail %s", final)
	}

	logger.Debug("Extracted thumbnail %s from %s at %s", final, videoPath, encoder.FormatTimestamp(at))
	return Asset{
		Path:        final,
		ContentType: mediatypes.ContentTypeJPEG,
		Size:        out.Size(),
	}, nil
}

// ExtractFromCandidate spools an uploaded video to a unique file in the work
// directory, extracts its thumbnail into the output directory and removes the
// spooled copy, whatever the outcome. Empty uploads fail with
// KindEmptyUpload before the encoder runs.
func (x *ThumbnailExtractor) ExtractFromCandidate(ctx context.Context, cand Candidate, at time.Duration) (Asset, error) {
	if cand.Size == 0 {
		return Asset{}, failure.New(failure.KindEmptyUpload, "%s is empty", cand.Filename)
	}

	path, cleanup, err := Spool(ctx, cand, x.cfg.WorkDir, x.cfg.Copy)
	defer cleanup()
	if err != nil {
		return Asset{}, err
	}

	return x.ExtractTo(ctx, path, x.cfg.OutputDir, at)
}
