package media

import (
	"image"
)

// WebPQuality is the fixed lossy quality factor for canonical images.
const WebPQuality = 75

// WebPEncoder encodes a bitmap to WebP.
type WebPEncoder interface {
	EncodeWebP(img image.Image, quality int) ([]byte, error)
}
