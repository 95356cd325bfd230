package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// Response is the result of retrieving one page.
type Response struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// ContentType is the value of the Content-Type header.
	ContentType string

	// Body is the response body, decoded to UTF-8 and capped at the
	// fetcher's body size limit.
	Body []byte
}

// Fetcher retrieves the raw content of a URL. The crawl engine consumes
// this contract and treats any returned error, transport-level or
// status-level, uniformly as a fetch failure for that page.
//
// Design decision: The engine depends on this interface rather than on
// *http.Client directly so tests can substitute scripted fetchers and so
// transport concerns (rate limiting, decoding, size caps) stay out of the
// traversal logic.
type Fetcher interface {
	// Fetch retrieves the page at the normalized URL. Cancellation and
	// the per-fetch timeout are carried by ctx and the implementation's
	// own client configuration.
	Fetch(ctx context.Context, url string) (*Response, error)
}

// StatusError reports a response that arrived but carried a non-2xx
// status. It lets the engine record the status code on the failed node
// while still treating the fetch as failed.
type StatusError struct {
	// Code is the HTTP status code of the response.
	Code int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d", e.Code)
}

// Default transport settings for the HTTP fetcher.
const (
	// DefaultFetchTimeout bounds a single page retrieval. A page slower
	// than this surfaces as a per-node fetch failure, never as a
	// crawl-level abort.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read.
	// 5MB is plenty for HTML while preventing memory exhaustion from
	// unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultUserAgent identifies webmap in HTTP requests so operators
	// can recognize mapper traffic in their logs.
	DefaultUserAgent = "webmap/1.0 (+https://github.com/nao1215/webmap)"
)

// HTTPFetcher fetches pages over plain HTTP(S) with a politeness rate
// limit, a per-request timeout, and a response size cap.
type HTTPFetcher struct {
	// client performs the requests. Its Timeout is the per-fetch timeout.
	client *http.Client

	// userAgent is sent as the User-Agent header.
	userAgent string

	// maxBodySize limits how many body bytes are read per response.
	maxBodySize int64

	// limiter spaces out requests across the whole run. Nil means
	// unlimited.
	limiter *rate.Limiter
}

// HTTPFetcherOption configures an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.client.Timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size in bytes.
func WithMaxBodySize(size int64) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// WithRequestsPerSecond limits the request rate across the run.
// Zero or negative disables rate limiting.
func WithRequestsPerSecond(rps float64) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			f.limiter = nil
		}
	}
}

// NewHTTPFetcher creates an HTTPFetcher with sane defaults: 10 second
// timeout, 5MB body cap, and no rate limit.
func NewHTTPFetcher(opts ...HTTPFetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      &http.Client{Timeout: DefaultFetchTimeout},
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves one page. Non-2xx responses return a *StatusError;
// transport errors and timeouts are returned as-is. The body is decoded
// to UTF-8 based on the Content-Type charset before being returned.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*Response, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")

	// Decode legacy encodings to UTF-8 so the extractor sees one charset.
	// charset.NewReader falls back to a pass-through reader when the
	// encoding is unknown or already UTF-8.
	bodyReader, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBodySize), contentType)
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(bodyReader)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
	}, nil
}
