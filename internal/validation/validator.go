package validation

import (
	"net/http"
	"time"

	"media-ingest/internal/failure"
	"media-ingest/internal/logging"
	"media-ingest/internal/media"
	"media-ingest/internal/mediatypes"
)

var logger = logging.Component("validation")

// Size ceilings per category.
const (
	MaxImageBytes int64 = 5 * 1024 * 1024
	MaxVideoBytes int64 = 100 * 1024 * 1024
)

// DefaultProbeTimeout bounds the HEAD request of ValidateURL.
const DefaultProbeTimeout = 10 * time.Second

// Limits holds the size ceiling of each category in bytes.
type Limits struct {
	Image int64
	Video int64
}

// DefaultLimits returns 5MB for images and 100MB for videos.
func DefaultLimits() Limits {
	return Limits{Image: MaxImageBytes, Video: MaxVideoBytes}
}

// For returns the ceiling for a category.
func (l Limits) For(category mediatypes.Category) int64 {
	if category == mediatypes.CategoryVideo {
		return l.Video
	}
	return l.Image
}

// Validator rejects uploads before any transcoding work starts.
type Validator struct {
	classifier   *mediatypes.Classifier
	limits       Limits
	client       *http.Client
	probeTimeout time.Duration
}

// Option configures a Validator.
type Option func(*Validator)

// WithLimits overrides the size ceilings.
func WithLimits(l Limits) Option {
	return func(v *Validator) { v.limits = l }
}

// WithHTTPClient sets the client used by ValidateURL.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Validator) { v.client = c }
}

// WithProbeTimeout overrides the ValidateURL timeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.probeTimeout = d
		}
	}
}

// New creates a Validator using classifier's allow-lists.
func New(classifier *mediatypes.Classifier, opts ...Option) *Validator {
	v := &Validator{
		classifier:   classifier,
		limits:       DefaultLimits(),
		client:       &http.Client{},
		probeTimeout: DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Limits returns the configured size ceilings.
func (v *Validator) Limits() Limits {
	return v.limits
}

// Validate checks cand against category, in order, stopping at the first
// failure:
//
//  1. size ceiling (KindFileTooLarge with Actual and Limit set)
//  2. declared content type in the category's allow-list (KindUnsupportedType)
//  3. filename extension in the category's allow-list (KindExtensionMismatch)
//
// File bytes are never inspected: a file whose declared type and extension
// both lie passes here and fails later when it is decoded.
func (v *Validator) Validate(cand media.Candidate, category mediatypes.Category) error {
	if !category.Valid() {
		return failure.New(failure.KindUnsupportedType, "unknown category %q", category)
	}

	if limit := v.limits.For(category); cand.Size > limit {
		logger.Debug("Rejected %s: %d bytes exceeds %s limit %d", cand.Filename, cand.Size, category, limit)
		return failure.TooLarge(cand.Size, limit)
	}

	declared, err := v.classifier.Classify(cand.ContentType)
	if err != nil || declared != category {
		logger.Debug("Rejected %s: content type %q not allowed for %s", cand.Filename, cand.ContentType, category)
		return failure.New(failure.KindUnsupportedType, "content type %q is not an allowed %s type",
			mediatypes.NormalizeContentType(cand.ContentType), category)
	}

	if extCategory, ok := v.classifier.ExtensionCategory(cand.Filename); !ok || extCategory != category {
		logger.Debug("Rejected %s: extension not allowed for %s", cand.Filename, category)
		return failure.New(failure.KindExtensionMismatch, "extension of %q is not an allowed %s extension",
			cand.Filename, category)
	}

	return nil
}
