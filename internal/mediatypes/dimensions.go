package mediatypes

import "fmt"

// Dimensions is a width/height pair in pixels.
type Dimensions struct {
	Width  int
	Height int
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// DimensionPolicy is the table of canonical output sizes per category.
// Image assets are resized to the image entry; the video entry frames
// thumbnails extracted from video, not the video stream itself.
type DimensionPolicy struct {
	image Dimensions
	video Dimensions
}

// DefaultDimensionPolicy returns the canonical 640x426 image and 800x535 video framing.
func DefaultDimensionPolicy() DimensionPolicy {
	return DimensionPolicy{
		image: Dimensions{Width: 640, Height: 426},
		video: Dimensions{Width: 800, Height: 535},
	}
}

// For returns the canonical dimensions for a category. Callers only reach it
// after classification, so any non-video category resolves to the image entry.
func (p DimensionPolicy) For(category Category) Dimensions {
	if category == CategoryVideo {
		return p.video
	}
	return p.image
}
