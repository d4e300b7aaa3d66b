package media

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Candidate is an upload submitted for ingestion: declared metadata plus the
// payload, held either in memory (Data) or in a file on local disk (Path).
// The pipeline never retains a Candidate after returning.
type Candidate struct {
	Filename    string
	ContentType string
	Size        int64

	Data []byte
	Path string
}

// NewCandidate creates an in-memory candidate.
func NewCandidate(filename, contentType string, data []byte) Candidate {
	return Candidate{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}
}

// NewFileCandidate creates a candidate backed by a file on disk, such as a
// spooled multipart upload.
func NewFileCandidate(filename, contentType, path string, size int64) Candidate {
	return Candidate{
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		Path:        path,
	}
}

// Extension returns the lower-cased filename extension including the dot.
func (c Candidate) Extension() string {
	return strings.ToLower(filepath.Ext(c.Filename))
}

// Open returns a reader over the payload.
func (c Candidate) Open() (io.ReadCloser, error) {
	if c.Path != "" {
		return os.Open(c.Path)
	}
	return io.NopCloser(bytes.NewReader(c.Data)), nil
}

// Bytes returns the payload, reading it from disk if necessary.
func (c Candidate) Bytes() ([]byte, error) {
	if c.Path != "" {
		return os.ReadFile(c.Path)
	}
	return c.Data, nil
}

// Asset is a successfully transcoded output. Images carry their encoded
// bytes in Data; videos and thumbnails are files at Path.
type Asset struct {
	Data        []byte `json:"-"`
	Path        string `json:"path,omitempty"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}
