// Package media transcodes uploaded stills to the canonical WebP format and
// extracts thumbnail frames from videos.
//
// Images are decoded with imaging (EXIF auto-orientation), stretched to the
// canonical image box with a Lanczos filter, and encoded by a [WebPEncoder].
// The production encoder is libvips through govips; call [InitVips] once at
// startup.
//
// Thumbnails are produced by the external encoder through an
// encoder.Gateway. Uploads held in memory are spooled to a uniquely named
// file in the work directory first and removed afterwards.
package media
