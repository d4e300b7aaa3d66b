// Package handlers is the HTTP surface of the ingestion pipeline.
//
// Endpoints:
//   - POST /api/upload/image: multipart field "file"; responds 201 with the canonical WebP bytes
//   - POST /api/upload/video: multipart field "file"; responds 201 with the MP4 and thumbnail paths
//   - POST /api/validate-url: JSON {"url": "..."}; responds 200 with the probed content type
//   - GET /health, /livez, /readyz, /version
//
// Failures are JSON bodies of the form {"error": "<kind>", "detail": "..."}
// with a status derived from the kind: 400 for malformed uploads, 413 over
// the size ceiling, 415 for unsupported types, 422 for undecodable images,
// 502/504 for remote URL problems and 500 for encoder and filesystem errors.
package handlers
