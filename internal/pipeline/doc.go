// Package pipeline is the entry point for ingestion: it takes an upload
// candidate through validation, classification and the category's
// transcoder, and returns the canonical asset or a typed failure.
//
// Images are decoded, stretched to the canonical box and encoded as WebP in
// memory. Videos are spooled to a unique file in the work directory, then
// converted to MP4 and thumbnailed concurrently; both outputs are published
// under the uploads root only when both succeed.
//
// Image jobs run on a CPU-sized pool and video jobs on a larger pool, since
// video jobs mostly wait on the external encoder.
package pipeline
