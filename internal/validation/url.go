package validation

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"media-ingest/internal/failure"
	"media-ingest/internal/mediatypes"
	"media-ingest/internal/metrics"
)

// Probe is the result of a successful ValidateURL.
type Probe struct {
	URL           string              `json:"url"`
	ContentType   string              `json:"contentType"`
	Category      mediatypes.Category `json:"category"`
	ContentLength int64               `json:"contentLength"`
}

// ValidateURL checks that a remote URL serves media, with a HEAD request
// bounded by the probe timeout. Each failure has its own kind:
//
//   - KindUnreachable: non-2xx response
//   - KindWrongContentType: the response is not a supported image or video
//   - KindTimeout: no response within the timeout
//   - KindNetworkError: malformed URL, DNS, connection or TLS failure
//
// A declared Content-Length above the category's ceiling fails with
// KindFileTooLarge.
func (v *Validator) ValidateURL(ctx context.Context, rawURL string) (Probe, error) {
	probe, err := v.probe(ctx, rawURL)
	outcome := "success"
	if err != nil {
		outcome = string(failure.KindOf(err))
		logger.Debug("URL probe of %s failed: %v", rawURL, err)
	}
	metrics.URLProbesTotal.WithLabelValues(outcome).Inc()
	return probe, err
}

func (v *Validator) probe(ctx context.Context, rawURL string) (Probe, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Probe{}, failure.New(failure.KindNetworkError, "invalid URL %q", rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, v.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return Probe{}, failure.Wrap(failure.KindNetworkError, err, "build request")
	}

	resp, err := v.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return Probe{}, failure.Wrap(failure.KindTimeout, err, "no response from %s within %v", u.Host, v.probeTimeout)
		}
		return Probe{}, failure.Wrap(failure.KindNetworkError, err, "request to %s failed", u.Host)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Debug("failed to close probe response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Probe{}, failure.New(failure.KindUnreachable, "%s answered %s", u.Host, resp.Status)
	}

	contentType := mediatypes.NormalizeContentType(resp.Header.Get("Content-Type"))
	category, err := v.classifier.Classify(contentType)
	if err != nil {
		return Probe{}, failure.New(failure.KindWrongContentType, "%s serves %q, not a supported image or video", u.Host, contentType)
	}

	if limit := v.limits.For(category); resp.ContentLength > limit {
		return Probe{}, failure.TooLarge(resp.ContentLength, limit)
	}

	return Probe{
		URL:           u.String(),
		ContentType:   contentType,
		Category:      category,
		ContentLength: resp.ContentLength,
	}, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
