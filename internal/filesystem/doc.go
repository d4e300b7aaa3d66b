/*
Package filesystem provides resilient filesystem operations for the ingest
pipeline.

# Purpose

Uploaded files can still be held by the upstream multipart handler when
transcoding starts, and upload roots are often NFS mounts. This package absorbs
both conditions locally instead of making every caller add artificial delays.

# Key Features

  - CopyWithRetry: copy with a fixed-delay retry when the source is locked by
    another process (shared flock contention, EBUSY/ETXTBSY, Windows sharing
    violations) or hits an NFS stale handle
  - Publish-after-success: copies are written to a unique ".partial" sibling and
    renamed into place, so failures never leave a truncated destination
  - StatWithRetry: os.Stat with exponential backoff for NFS ESTALE (errno 116)
  - Volume-labelled retry metrics through a pluggable Observer

# Usage

	err := filesystem.CopyWithRetry(ctx, "/uploads/in/clip.mp4", "/uploads/videos/clip.mp4",
	    filesystem.DefaultRetryPolicy())
	if err != nil {
	    // err is a *failure.Error with Kind failure.KindIOError
	}

# Retry Behavior

CopyWithRetry defaults:
  - MaxAttempts: 3 attempts in total
  - Delay: 1s between attempts

StatWithRetry defaults:
  - MaxRetries: 3 retries after the first attempt
  - InitialBackoff: 50ms, doubling up to MaxBackoff 500ms

Errors other than lock contention and stale handles fail immediately.
*/
package filesystem
