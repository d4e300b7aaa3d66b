// Package validation rejects uploads and remote URLs before any transcoding
// work is spent on them.
//
// Uploads are checked for size, declared content type and filename extension
// against per-category allow-lists. Remote media is probed with a bounded
// HEAD request whose failures map to distinct kinds (unreachable, wrong
// content type, timeout, network error) so callers can report them exactly.
package validation
