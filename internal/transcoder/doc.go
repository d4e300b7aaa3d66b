// Package transcoder normalizes uploaded videos to the canonical MP4
// container (H.264 video, AAC audio, faststart).
//
// Sources that already carry the .mp4 extension are copied unchanged with
// the resilient copier. Everything else is converted by the external encoder
// through an encoder.Gateway, written to a hidden partial file and published
// by rename only after a successful exit.
//
// The package also owns the upload work directory: [Transcoder.WorkDirStats]
// feeds the work-dir metrics and [Transcoder.ClearWorkDir] removes stale
// spooled files.
package transcoder
