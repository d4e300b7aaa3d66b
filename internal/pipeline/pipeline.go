package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"media-ingest/internal/encoder"
	"media-ingest/internal/failure"
	"media-ingest/internal/filesystem"
	"media-ingest/internal/logging"
	"media-ingest/internal/media"
	"media-ingest/internal/mediatypes"
	"media-ingest/internal/memory"
	"media-ingest/internal/metrics"
	"media-ingest/internal/transcoder"
	"media-ingest/internal/validation"
	"media-ingest/internal/workers"
)

var logger = logging.Component("pipeline")

// Dirs is the on-disk layout under the uploads root.
type Dirs struct {
	Root       string
	Work       string
	Videos     string
	Thumbnails string
}

// NewDirs lays out the working and output directories under root.
func NewDirs(root string) Dirs {
	return Dirs{
		Root:       root,
		Work:       filepath.Join(root, "work"),
		Videos:     filepath.Join(root, "videos"),
		Thumbnails: filepath.Join(root, "thumbnails"),
	}
}

// Ensure creates every directory of the layout.
func (d Dirs) Ensure() error {
	for _, dir := range []string{d.Root, d.Work, d.Videos, d.Thumbnails} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return failure.Wrap(failure.KindIOError, err, "create %s", dir)
		}
	}
	return nil
}

// Config configures a Pipeline. Zero values select defaults.
type Config struct {
	Dirs            Dirs
	ThumbnailOffset time.Duration
	Copy            filesystem.RetryPolicy
	Limits          validation.Limits
	ProbeTimeout    time.Duration
	ImageWorkers    int
	VideoWorkers    int
	Builder         *encoder.CommandBuilder
	// Memory, if set, holds back image jobs under memory pressure.
	Memory *memory.Monitor
}

// VideoResult is a canonical video and its thumbnail.
type VideoResult struct {
	Video     media.Asset `json:"video"`
	Thumbnail media.Asset `json:"thumbnail"`
}

// Result is the outcome of Ingest. Image holds the encoded WebP for images;
// Video is set for videos.
type Result struct {
	Category mediatypes.Category `json:"category"`
	Image    *media.Asset        `json:"image,omitempty"`
	Video    *VideoResult        `json:"video,omitempty"`
}

// Pipeline runs uploads through validation, classification and the
// category's transcoder. Every error it returns is a *failure.Error.
type Pipeline struct {
	dirs       Dirs
	offset     time.Duration
	copy       filesystem.RetryPolicy
	classifier *mediatypes.Classifier
	validator  *validation.Validator
	images     *media.ImageTranscoder
	videos     *transcoder.Transcoder
	thumbs     *media.ThumbnailExtractor
	imagePool  *workers.Pool
	videoPool  *workers.Pool
	gateway    encoder.Gateway
	memory     *memory.Monitor
}

// New wires a Pipeline around the encoder gateway gw and the WebP encoder enc.
func New(cfg Config, gw encoder.Gateway, enc media.WebPEncoder) *Pipeline {
	if cfg.ThumbnailOffset <= 0 {
		cfg.ThumbnailOffset = media.DefaultThumbnailOffset
	}
	if cfg.Copy.MaxAttempts <= 0 {
		cfg.Copy = filesystem.DefaultRetryPolicy()
	}
	if cfg.Limits == (validation.Limits{}) {
		cfg.Limits = validation.DefaultLimits()
	}
	if cfg.ImageWorkers <= 0 {
		cfg.ImageWorkers = workers.ForCPU(8)
	}
	if cfg.VideoWorkers <= 0 {
		cfg.VideoWorkers = workers.ForIO(16)
	}
	if cfg.Builder == nil {
		cfg.Builder = encoder.NewCommandBuilder()
	}

	classifier := mediatypes.Default()
	policy := mediatypes.DefaultDimensionPolicy()

	p := &Pipeline{
		dirs:       cfg.Dirs,
		offset:     cfg.ThumbnailOffset,
		copy:       cfg.Copy,
		classifier: classifier,
		validator: validation.New(classifier,
			validation.WithLimits(cfg.Limits),
			validation.WithProbeTimeout(cfg.ProbeTimeout)),
		images: media.NewImageTranscoder(classifier, policy, enc),
		videos: transcoder.New(gw, cfg.Builder, cfg.Copy, cfg.Dirs.Work),
		thumbs: media.NewThumbnailExtractor(gw, cfg.Builder, media.ThumbnailConfig{
			WorkDir:   cfg.Dirs.Work,
			OutputDir: cfg.Dirs.Thumbnails,
			Offset:    cfg.ThumbnailOffset,
			Policy:    policy,
			Copy:      cfg.Copy,
		}),
		imagePool: workers.NewPool("image", cfg.ImageWorkers, workers.WithPanicKind(failure.KindEncodeError)),
		videoPool: workers.NewPool("video", cfg.VideoWorkers, workers.WithPanicKind(failure.KindEncodeError)),
		gateway:   gw,
		memory:    cfg.Memory,
	}

	logger.Info("Pipeline ready: %s, %d image workers, %d video workers, thumbnails at %s",
		p.images, cfg.ImageWorkers, cfg.VideoWorkers, encoder.FormatTimestamp(cfg.ThumbnailOffset))
	return p
}

// Dirs returns the directory layout.
func (p *Pipeline) Dirs() Dirs { return p.dirs }

// Limits returns the upload size ceilings.
func (p *Pipeline) Limits() validation.Limits { return p.validator.Limits() }

// Ingest classifies cand by its declared content type and runs the matching
// IngestImage or IngestVideo.
func (p *Pipeline) Ingest(ctx context.Context, cand media.Candidate) (Result, error) {
	category, err := p.classifier.ClassifyUpload(cand.ContentType, cand.Size)
	if err != nil {
		metrics.IngestTotal.WithLabelValues("unknown", string(failure.KindOf(err))).Inc()
		return Result{}, err
	}

	switch category {
	case mediatypes.CategoryImage:
		asset, err := p.IngestImage(ctx, cand)
		if err != nil {
			return Result{}, err
		}
		return Result{Category: category, Image: &asset}, nil
	default:
		res, err := p.IngestVideo(ctx, cand)
		if err != nil {
			return Result{}, err
		}
		return Result{Category: category, Video: &res}, nil
	}
}

// IngestImage validates cand as an image and transcodes it to the canonical
// WebP on the image pool. The returned asset carries the encoded bytes.
func (p *Pipeline) IngestImage(ctx context.Context, cand media.Candidate) (asset media.Asset, err error) {
	const category = mediatypes.CategoryImage
	defer p.finish(category, cand, &err)

	if err := p.admit(cand, category); err != nil {
		return media.Asset{}, err
	}
	if p.memory != nil {
		if err := p.memory.Wait(ctx); err != nil {
			return media.Asset{}, err
		}
	}

	err = p.imagePool.Submit(ctx, func(ctx context.Context) error {
		defer observeStage(category, "transcode", time.Now())
		var terr error
		asset, terr = p.images.ToCanonicalWebP(ctx, cand)
		return terr
	})
	if err != nil {
		return media.Asset{}, err
	}

	metrics.ImageOutputBytes.Observe(float64(asset.Size))
	return asset, nil
}

// IngestVideo validates cand as a video, spools it to a unique file in the
// work directory and, on the video pool, produces the canonical MP4 and its
// thumbnail concurrently. The spooled file is always removed. If either
// output fails, the other is removed so no partial result stays visible.
func (p *Pipeline) IngestVideo(ctx context.Context, cand media.Candidate) (res VideoResult, err error) {
	const category = mediatypes.CategoryVideo
	defer p.finish(category, cand, &err)

	if err := p.admit(cand, category); err != nil {
		return VideoResult{}, err
	}

	err = p.videoPool.Submit(ctx, func(ctx context.Context) error {
		source, cleanup, err := media.Spool(ctx, cand, p.dirs.Work, p.copy)
		defer cleanup()
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			defer observeStage(category, "transcode", time.Now())
			var err error
			res.Video, err = p.videos.ToCanonicalMP4(gctx, source, p.dirs.Videos)
			return err
		})
		g.Go(func() error {
			defer observeStage(category, "thumbnail", time.Now())
			var err error
			res.Thumbnail, err = p.thumbs.ExtractTo(gctx, source, p.dirs.Thumbnails, p.offset)
			return err
		})
		if err := g.Wait(); err != nil {
			discard(res.Video, res.Thumbnail)
			return err
		}
		return nil
	})
	if err != nil {
		return VideoResult{}, err
	}
	return res, nil
}

// ValidateURL checks that a remote URL serves a supported image or video.
func (p *Pipeline) ValidateURL(ctx context.Context, rawURL string) (validation.Probe, error) {
	return p.validator.ValidateURL(ctx, rawURL)
}

// ClearWorkDir removes work directory entries older than olderThan.
func (p *Pipeline) ClearWorkDir(olderThan time.Duration) (int64, error) {
	return p.videos.ClearWorkDir(olderThan)
}

// GetStats implements metrics.StatsProvider.
func (p *Pipeline) GetStats() metrics.Stats {
	var stats metrics.Stats
	files, size, err := p.videos.WorkDirStats()
	if err != nil {
		logger.Debug("work dir stats: %v", err)
	}
	stats.WorkDirFiles = files
	stats.WorkDirBytes = size
	if rc, ok := p.gateway.(interface{ Running() int }); ok {
		stats.EncoderProcesses = rc.Running()
	}
	return stats
}

// admit runs validation then classification, the gate before any
// transcoding work.
func (p *Pipeline) admit(cand media.Candidate, category mediatypes.Category) error {
	defer observeStage(category, "validate", time.Now())

	if err := p.validator.Validate(cand, category); err != nil {
		return err
	}
	got, err := p.classifier.ClassifyUpload(cand.ContentType, cand.Size)
	if err != nil {
		return err
	}
	if got != category {
		return failure.New(failure.KindWrongCategory, "%s is a %s, not a %s", cand.Filename, got, category)
	}
	return nil
}

func (p *Pipeline) finish(category mediatypes.Category, cand media.Candidate, errp *error) {
	if *errp == nil {
		metrics.IngestTotal.WithLabelValues(string(category), "success").Inc()
		metrics.IngestInputBytes.WithLabelValues(string(category)).Observe(float64(cand.Size))
		logger.Info("Ingested %s %s (%d bytes)", category, cand.Filename, cand.Size)
		return
	}

	fe := failure.As(*errp, failure.KindIOError)
	*errp = fe
	metrics.IngestTotal.WithLabelValues(string(category), string(fe.Kind)).Inc()
	if failure.IsValidation(fe.Kind) {
		logger.Debug("Rejected %s %s: %v", category, cand.Filename, fe)
	} else {
		logger.Warn("Failed to ingest %s %s: %v", category, cand.Filename, fe)
	}
}

func observeStage(category mediatypes.Category, stage string, start time.Time) {
	metrics.IngestStageDuration.WithLabelValues(string(category), stage).Observe(time.Since(start).Seconds())
}

func discard(assets ...media.Asset) {
	for _, a := range assets {
		if a.Path == "" {
			continue
		}
		if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove %s: %v", a.Path, err)
		}
	}
}
