// Package policy implements the deterministic request classification of
// the offline gateway: each request maps to exactly one caching strategy
// before any network or storage work begins.
package policy

import (
	"net/http"
	"strings"
)

// Strategy is the closed set of request-handling strategies.
type Strategy int

const (
	// Bypass forwards the request untouched. Applied to all non-GET
	// requests, which are never intercepted.
	Bypass Strategy = iota

	// NetworkOnly forwards the request and never touches a bucket.
	// Network failure is converted to a synthesized offline 503.
	NetworkOnly

	// CacheFirst serves a cached match when present and refreshes it
	// in the background; misses fetch synchronously and store.
	CacheFirst

	// NetworkFirst fetches, stores successful responses, and falls
	// back to a cached match on failure.
	NetworkFirst
)

// String returns the strategy name for logs and metrics.
func (s Strategy) String() string {
	switch s {
	case Bypass:
		return "bypass"
	case NetworkOnly:
		return "network_only"
	case CacheFirst:
		return "cache_first"
	case NetworkFirst:
		return "network_first"
	default:
		return "unknown"
	}
}

// DestHeader carries the browser's resource-type hint.
const DestHeader = "Sec-Fetch-Dest"

// Destination returns the request's resource type hint, empty when the
// client sent none.
func Destination(req *http.Request) string {
	return req.Header.Get(DestHeader)
}

// IsDocument reports whether the request is a navigation for a document.
func IsDocument(req *http.Request) bool {
	return Destination(req) == "document"
}

// assetExtensions is the fixed extension set that forces CacheFirst.
var assetExtensions = []string{".css", ".js", ".svg", ".png", ".jpg", ".jpeg"}

// assetDestinations are the resource types that force CacheFirst.
var assetDestinations = map[string]bool{
	"image":  true,
	"style":  true,
	"script": true,
	"font":   true,
}

func isAsset(req *http.Request) bool {
	if assetDestinations[Destination(req)] {
		return true
	}
	path := req.URL.Path
	if strings.Contains(path, "/assets/") {
		return true
	}
	for _, ext := range assetExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Classify maps a request to its strategy. Order-sensitive:
//
//  1. non-GET requests bypass the gateway entirely
//  2. sensitive endpoints (pattern match) are NetworkOnly
//  3. static assets are CacheFirst
//  4. everything else is NetworkFirst
func Classify(req *http.Request, patterns PatternSet) Strategy {
	if req.Method != http.MethodGet {
		return Bypass
	}
	if patterns.Matches(req.URL) {
		return NetworkOnly
	}
	if isAsset(req) {
		return CacheFirst
	}
	return NetworkFirst
}
