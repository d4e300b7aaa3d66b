package media

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"media-ingest/internal/failure"
	"media-ingest/internal/logging"
	"media-ingest/internal/mediatypes"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/webp" // WebP format support
)

var logger = logging.Component("media")

// MaxImagePixels is the largest source (width * height) decoded. A 20MP
// RGBA bitmap already needs ~80MB.
const MaxImagePixels = 20_000_000

// ImageTranscoder normalizes still images to the canonical WebP format.
type ImageTranscoder struct {
	classifier *mediatypes.Classifier
	target     mediatypes.Dimensions
	encoder    WebPEncoder
	quality    int
}

// NewImageTranscoder creates a transcoder that resizes to the image entry of
// policy and encodes with enc.
func NewImageTranscoder(classifier *mediatypes.Classifier, policy mediatypes.DimensionPolicy, enc WebPEncoder) *ImageTranscoder {
	return &ImageTranscoder{
		classifier: classifier,
		target:     policy.For(mediatypes.CategoryImage),
		encoder:    enc,
		quality:    WebPQuality,
	}
}

// Target returns the output dimensions.
func (t *ImageTranscoder) Target() mediatypes.Dimensions {
	return t.target
}

// ToCanonicalWebP decodes cand, stretches it to the canonical image box and
// encodes it as WebP. The aspect ratio is not preserved.
//
// Failures are *failure.Error of kind KindWrongCategory (not an image),
// KindDecodeError or KindEncodeError.
func (t *ImageTranscoder) ToCanonicalWebP(ctx context.Context, cand Candidate) (asset Asset, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while transcoding image %s: %v", cand.Filename, r)
			asset, err = Asset{}, failure.New(failure.KindEncodeError, "panic while transcoding %s: %v", cand.Filename, r)
		}
	}()

	category, cerr := t.classifier.Classify(cand.ContentType)
	if cerr != nil || category != mediatypes.CategoryImage {
		return Asset{}, failure.New(failure.KindWrongCategory, "%s (%s) is not an image", cand.Filename, cand.ContentType)
	}

	img, err := t.decode(cand)
	if err != nil {
		logger.Debug("Decode failed for %s: %v", cand.Filename, err)
		return Asset{}, err
	}

	if err := ctx.Err(); err != nil {
		return Asset{}, failure.Wrap(failure.KindEncodeError, err, "transcode of %s cancelled", cand.Filename)
	}

	resized := imaging.Resize(img, t.target.Width, t.target.Height, imaging.Lanczos)

	data, err := t.encoder.EncodeWebP(resized, t.quality)
	if err != nil {
		logger.Error("WebP encode failed for %s: %v", cand.Filename, err)
		return Asset{}, failure.Wrap(failure.KindEncodeError, err, "encode %s", cand.Filename)
	}

	logger.Debug("Transcoded %s: %dx%d -> %s, %d bytes",
		cand.Filename, img.Bounds().Dx(), img.Bounds().Dy(), t.target, len(data))

	return Asset{
		Data:        data,
		ContentType: mediatypes.ContentTypeWebP,
		Size:        int64(len(data)),
	}, nil
}

// decode reads the header first so oversized or unrecognized sources are
// rejected before a full bitmap is allocated.
func (t *ImageTranscoder) decode(cand Candidate) (image.Image, error) {
	data, err := cand.Bytes()
	if err != nil {
		return nil, failure.Wrap(failure.KindIOError, err, "read %s", cand.Filename)
	}
	if len(data) == 0 {
		return nil, failure.New(failure.KindDecodeError, "%s is empty", cand.Filename)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, failure.Wrap(failure.KindDecodeError, err, "unrecognized image data in %s", cand.Filename)
	}
	if pixels := cfg.Width * cfg.Height; pixels > MaxImagePixels || pixels <= 0 {
		return nil, failure.New(failure.KindDecodeError, "%s is %dx%d, outside the decodable range", cand.Filename, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, failure.Wrap(failure.KindDecodeError, err, "decode %s %s", format, cand.Filename)
	}
	return img, nil
}

// String describes the transcoder's output for logs.
func (t *ImageTranscoder) String() string {
	return fmt.Sprintf("webp %s q%d", t.target, t.quality)
}
