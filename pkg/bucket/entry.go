// Package bucket provides named, versioned containers of cached HTTP
// response snapshots with pluggable storage backends.
package bucket

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Entry is a stored response snapshot keyed by request URL.
type Entry struct {
	// URL is the request URL the snapshot was stored under.
	URL string `json:"url"`

	// Body is the response body.
	Body []byte `json:"body"`

	// StatusCode is the HTTP status code of the stored response.
	StatusCode int `json:"status_code"`

	// Header holds the response headers.
	Header http.Header `json:"header"`

	// CachedAt is when the snapshot was stored.
	CachedAt time.Time `json:"cached_at"`
}

// Cacheable reports whether a response status may be persisted.
// Redirects and errors are never stored.
func Cacheable(status int) bool {
	return status == http.StatusOK
}

// FromResponse converts an HTTP response into an Entry.
// The response body is read fully and restored for the caller.
func FromResponse(url string, resp *http.Response) (*Entry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()

	// Restore body for caller
	resp.Body = io.NopCloser(bytes.NewReader(body))

	return &Entry{
		URL:        url,
		Body:       body,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		CachedAt:   time.Now(),
	}, nil
}

// Response converts the entry back into an HTTP response.
// Each call returns a response with an independent body reader.
func (e *Entry) Response() *http.Response {
	return &http.Response{
		StatusCode:    e.StatusCode,
		Status:        http.StatusText(e.StatusCode),
		Header:        e.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
	}
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	body := make([]byte, len(e.Body))
	copy(body, e.Body)
	return &Entry{
		URL:        e.URL,
		Body:       body,
		StatusCode: e.StatusCode,
		Header:     e.Header.Clone(),
		CachedAt:   e.CachedAt,
	}
}
