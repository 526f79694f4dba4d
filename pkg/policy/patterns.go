package policy

import (
	"net/url"
	"strings"
)

// PatternSet is an immutable list of URL fragments identifying endpoints
// that must never be cached. A fragment matches when it occurs in the
// request path, the full URL, or the hostname (OR semantics); a single
// match on any field excludes caching entirely.
type PatternSet struct {
	fragments []string
}

// NewPatternSet builds a pattern set from fragments. The input slice is
// copied so the set stays immutable.
func NewPatternSet(fragments ...string) PatternSet {
	owned := make([]string, len(fragments))
	copy(owned, fragments)
	return PatternSet{fragments: owned}
}

// DefaultPatterns covers the user-sensitive and mutable endpoints of the
// storefront: auth, profile, purchase, credential, transaction and wallet
// routes, any hosted-database hostname, and any REST-style path segment.
func DefaultPatterns() PatternSet {
	return NewPatternSet(
		"/auth/",
		"/profiles",
		"/purchases",
		"/credentials",
		"/transactions",
		"/wallet",
		"supabase",
		"/rest/",
		".supabase.",
	)
}

// Extend returns a new set with extra fragments appended.
func (p PatternSet) Extend(fragments ...string) PatternSet {
	combined := make([]string, 0, len(p.fragments)+len(fragments))
	combined = append(combined, p.fragments...)
	combined = append(combined, fragments...)
	return PatternSet{fragments: combined}
}

// Fragments returns a copy of the configured fragments.
func (p PatternSet) Fragments() []string {
	out := make([]string, len(p.fragments))
	copy(out, p.fragments)
	return out
}

// Matches reports whether any fragment occurs in the URL's path, full
// string form, or hostname.
func (p PatternSet) Matches(u *url.URL) bool {
	if u == nil {
		return false
	}
	href := u.String()
	for _, f := range p.fragments {
		if strings.Contains(u.Path, f) || strings.Contains(href, f) || strings.Contains(u.Hostname(), f) {
			return true
		}
	}
	return false
}
