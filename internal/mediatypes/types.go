package mediatypes

import (
	"mime"
	"path/filepath"
	"strings"

	"media-ingest/internal/failure"
)

// Category is the semantic media class an upload is normalized into.
type Category string

const (
	// CategoryImage covers still images, normalized to WebP.
	CategoryImage Category = "image"
	// CategoryVideo covers video containers, normalized to MP4.
	CategoryVideo Category = "video"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryImage || c == CategoryVideo
}

// Canonical content types and container extensions.
const (
	ContentTypeWebP = "image/webp"
	ContentTypeJPEG = "image/jpeg"
	ContentTypeMP4  = "video/mp4"

	ExtensionMP4       = ".mp4"
	ExtensionThumbnail = ".jpg"
)

// Classifier maps declared content types to categories. It is built once and
// never mutated, so a single instance is safe to share between goroutines.
type Classifier struct {
	contentTypes map[string]Category
	extensions   map[string]Category
}

// NewClassifier builds the classifier with the supported content types and extensions.
func NewClassifier() *Classifier {
	return &Classifier{
		contentTypes: map[string]Category{
			"image/jpeg":       CategoryImage,
			"image/png":        CategoryImage,
			"image/gif":        CategoryImage,
			"image/webp":       CategoryImage,
			"image/bmp":        CategoryImage,
			"video/mp4":        CategoryVideo,
			"video/webm":       CategoryVideo,
			"video/ogg":        CategoryVideo,
			"video/avi":        CategoryVideo,
			"video/x-msvideo":  CategoryVideo,
			"video/x-flv":      CategoryVideo,
			"video/x-matroska": CategoryVideo,
			"video/quicktime":  CategoryVideo,
		},
		extensions: map[string]Category{
			".jpg":  CategoryImage,
			".jpeg": CategoryImage,
			".png":  CategoryImage,
			".gif":  CategoryImage,
			".webp": CategoryImage,
			".bmp":  CategoryImage,
			".mp4":  CategoryVideo,
			".m4v":  CategoryVideo,
			".webm": CategoryVideo,
			".ogg":  CategoryVideo,
			".ogv":  CategoryVideo,
			".avi":  CategoryVideo,
			".flv":  CategoryVideo,
			".mkv":  CategoryVideo,
			".mov":  CategoryVideo,
			".qt":   CategoryVideo,
		},
	}
}

var defaultClassifier = NewClassifier()

// Default returns the process-wide classifier.
func Default() *Classifier {
	return defaultClassifier
}

// Classify maps a declared content type to its category. Parameters such as
// "; charset=binary" are ignored and matching is case-insensitive. Unknown or
// empty content types fail with KindUnsupportedType.
func (c *Classifier) Classify(contentType string) (Category, error) {
	normalized := NormalizeContentType(contentType)
	if normalized == "" {
		return "", failure.New(failure.KindUnsupportedType, "no content type declared")
	}
	category, ok := c.contentTypes[normalized]
	if !ok {
		return "", failure.New(failure.KindUnsupportedType, "content type %q is not supported", normalized)
	}
	return category, nil
}

// ClassifyUpload is Classify for an upload of the given length. Zero-length
// uploads fail with KindEmptyUpload before the content type is examined.
func (c *Classifier) ClassifyUpload(contentType string, size int64) (Category, error) {
	if size <= 0 {
		return "", failure.New(failure.KindEmptyUpload, "upload is empty")
	}
	return c.Classify(contentType)
}

// ContentTypes returns the supported content types of a category.
func (c *Classifier) ContentTypes(category Category) []string {
	var out []string
	for ct, cat := range c.contentTypes {
		if cat == category {
			out = append(out, ct)
		}
	}
	return out
}

// ExtensionCategory returns the category of a filename's extension.
// The second value is false for unknown extensions.
func (c *Classifier) ExtensionCategory(filename string) (Category, bool) {
	cat, ok := c.extensions[strings.ToLower(filepath.Ext(filename))]
	return cat, ok
}

// IsMediaContentType reports whether a content type is any supported image or video type.
func (c *Classifier) IsMediaContentType(contentType string) bool {
	_, ok := c.contentTypes[NormalizeContentType(contentType)]
	return ok
}

// NormalizeContentType lowercases a content type and strips its parameters.
func NormalizeContentType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// IsCanonicalVideo reports whether a path already has the canonical container extension.
func IsCanonicalVideo(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ExtensionMP4)
}
