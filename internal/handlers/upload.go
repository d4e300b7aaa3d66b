package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"

	"media-ingest/internal/failure"
	"media-ingest/internal/media"
	"media-ingest/internal/mediatypes"
)

// uploadField is the multipart field carrying the file.
const uploadField = "file"

// multipartOverhead allows for boundaries and part headers on top of the
// category's size ceiling.
const multipartOverhead = 1 << 20

// UploadImage handles POST /api/upload/image. On success the response body is
// the canonical WebP itself, with its dimensions in headers.
func (h *Handlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	cand, cleanup, ok := h.readCandidate(w, r, mediatypes.CategoryImage)
	if !ok {
		return
	}
	defer cleanup()

	asset, err := h.pipeline.IngestImage(r.Context(), cand)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	target := mediatypes.DefaultDimensionPolicy().For(mediatypes.CategoryImage)
	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(asset.Size, 10))
	w.Header().Set("X-Image-Width", strconv.Itoa(target.Width))
	w.Header().Set("X-Image-Height", strconv.Itoa(target.Height))
	w.WriteHeader(http.StatusCreated)
	if _, err := w.Write(asset.Data); err != nil {
		logger.Debug("failed to write image response: %v", err)
	}
}

// UploadVideo handles POST /api/upload/video and responds with the paths of
// the canonical MP4 and its thumbnail.
func (h *Handlers) UploadVideo(w http.ResponseWriter, r *http.Request) {
	cand, cleanup, ok := h.readCandidate(w, r, mediatypes.CategoryVideo)
	if !ok {
		return
	}
	defer cleanup()

	res, err := h.pipeline.IngestVideo(r.Context(), cand)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

// ValidateURLRequest is the body of POST /api/validate-url.
type ValidateURLRequest struct {
	URL string `json:"url"`
}

// ValidateURL handles POST /api/validate-url.
func (h *Handlers) ValidateURL(w http.ResponseWriter, r *http.Request) {
	var req ValidateURLRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
		writeBadRequest(w, r, "body must be JSON with a url field")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeBadRequest(w, r, "url is required")
		return
	}

	probe, err := h.pipeline.ValidateURL(r.Context(), req.URL)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, probe)
}

// readCandidate parses the multipart upload into a candidate. Parts larger
// than MultipartMemory are already on disk and become file candidates; the
// returned cleanup removes those temporary files. On failure the response is
// written and ok is false.
func (h *Handlers) readCandidate(w http.ResponseWriter, r *http.Request, category mediatypes.Category) (cand media.Candidate, cleanup func(), ok bool) {
	cleanup = func() {}
	limit := h.pipeline.Limits().For(category)
	if r.ContentLength > limit+multipartOverhead {
		writeFailure(w, r, failure.TooLarge(r.ContentLength, limit))
		return cand, cleanup, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(h.MultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			// Chunked bodies have no length; at least the reader limit was sent.
			writeFailure(w, r, failure.TooLarge(max(r.ContentLength, tooLarge.Limit), limit))
			return cand, cleanup, false
		}
		writeBadRequest(w, r, "expected a multipart/form-data body")
		return cand, cleanup, false
	}
	cleanup = func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Debug("failed to remove multipart temp files: %v", err)
		}
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeBadRequest(w, r, "missing file field "+strconv.Quote(uploadField))
		return cand, cleanup, false
	}
	defer closeQuietly(file)

	cand, err = candidateFrom(file, header)
	if err != nil {
		writeFailure(w, r, err)
		return cand, cleanup, false
	}
	return cand, cleanup, true
}

func candidateFrom(file multipart.File, header *multipart.FileHeader) (media.Candidate, error) {
	contentType := header.Header.Get("Content-Type")

	if f, isFile := file.(*os.File); isFile {
		return media.NewFileCandidate(header.Filename, contentType, f.Name(), header.Size), nil
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return media.Candidate{}, failure.Wrap(failure.KindIOError, err, "read upload %s", header.Filename)
	}
	return media.NewCandidate(header.Filename, contentType, data), nil
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Debug("close: %v", err)
	}
}
