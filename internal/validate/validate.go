// Package validate holds the format checks applied to externally supplied
// identifiers and URLs before they are interpolated into request paths or
// RPC payloads.
package validate

import (
	"net/url"
	"regexp"
)

// notebookIDPattern is the canonical UUID textual form (8-4-4-4-12 hex
// groups). Notebook and source ids travel inside URL paths and positional
// payloads, so anything that does not match is rejected outright.
var notebookIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// NotebookID reports whether s is a well-formed notebook or source id.
func NotebookID(s string) bool {
	return notebookIDPattern.MatchString(s)
}

// HTTPURL reports whether s parses as an absolute http or https URL.
// Every other scheme, including javascript: and data:, is rejected.
func HTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// EscapeRegex returns s with all regex metacharacters escaped so it can be
// interpolated into a pattern used for page scraping.
func EscapeRegex(s string) string {
	return regexp.QuoteMeta(s)
}

// FilterURLs returns the subset of urls that pass HTTPURL, preserving order.
func FilterURLs(urls []string) []string {
	var out []string
	for _, u := range urls {
		if HTTPURL(u) {
			out = append(out, u)
		}
	}
	return out
}

// FilterNotebookIDs returns the subset of ids that pass NotebookID,
// preserving order.
func FilterNotebookIDs(ids []string) []string {
	var out []string
	for _, id := range ids {
		if NotebookID(id) {
			out = append(out, id)
		}
	}
	return out
}
