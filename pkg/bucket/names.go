package bucket

import "strings"

// Names derives the two current bucket names from the application
// namespace prefix and the cache version.
//
// Example: prefix "starnetx", version "v1.0.0" yields the buckets
// "starnetx-cache-v1.0.0" (static) and "starnetx-runtime-v1.0.0".
type Names struct {
	Prefix  string
	Version string
}

// Static returns the static shell-asset bucket name.
func (n Names) Static() string {
	return n.Prefix + "-cache-" + n.Version
}

// Runtime returns the runtime bucket name.
func (n Names) Runtime() string {
	return n.Prefix + "-runtime-" + n.Version
}

// Current returns both live bucket names, static first.
func (n Names) Current() []string {
	return []string{n.Static(), n.Runtime()}
}

// Owns reports whether a bucket name carries the application namespace.
// Buckets outside the namespace are never touched by cleanup.
func (n Names) Owns(name string) bool {
	return strings.HasPrefix(name, n.Prefix+"-")
}

// Stale computes which of the existing buckets should be deleted:
// every namespaced bucket whose name is not one of the current pair.
// Pure function over (existing, desired) so reconciliation is testable
// without a storage backend.
func Stale(existing []string, current Names) []string {
	keep := map[string]bool{
		current.Static():  true,
		current.Runtime(): true,
	}

	var stale []string
	for _, name := range existing {
		if current.Owns(name) && !keep[name] {
			stale = append(stale, name)
		}
	}
	return stale
}
