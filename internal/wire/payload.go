package wire

import (
	"strconv"
	"strings"
)

// The upstream ingestion pipeline treats YouTube links as a distinct
// source type with different downstream processing, so they use a wider
// positional encoding than generic fetched URLs.

// notebookDeleteConfirm is a confirmation flag the upstream protocol
// requires on notebook deletion. Observed value; preserve exactly.
const notebookDeleteConfirm = 2

// Upstream per-request limits.
const (
	// MaxAddURLs is the most urls one add-sources call accepts.
	MaxAddURLs = 200
	// DeleteChunkLimit is the most source ids one delete-sources call accepts.
	DeleteChunkLimit = 20
)

// IsYouTubeURL reports whether the upstream service would ingest url as a
// YouTube video.
func IsYouTubeURL(url string) bool {
	return strings.Contains(url, "youtube.com") || strings.Contains(url, "youtu.be")
}

// SourcePayload encodes one URL for an add-sources call: YouTube URLs get
// the 8-slot encoding with the url in the last slot, everything else the
// 3-slot encoding with the url in the last slot.
func SourcePayload(url string) []interface{} {
	if IsYouTubeURL(url) {
		return []interface{}{nil, nil, nil, nil, nil, nil, nil, []string{url}}
	}
	return []interface{}{nil, nil, []string{url}}
}

// SourcePayloads encodes a batch of URLs.
func SourcePayloads(urls []string) []interface{} {
	payloads := make([]interface{}, 0, len(urls))
	for _, u := range urls {
		payloads = append(payloads, SourcePayload(u))
	}
	return payloads
}

// TextSourcePayload encodes a pasted-text source.
func TextSourcePayload(text, title string) []interface{} {
	return []interface{}{[]string{text, title}}
}

// AddSourcesArgs builds the params for an add-sources call.
func AddSourcesArgs(sources []interface{}, notebookID string) []interface{} {
	return []interface{}{sources, notebookID}
}

// DeleteSourcesArgs builds the params for a delete-sources call: each id
// individually wrapped, the whole set nested once more.
func DeleteSourcesArgs(sourceIDs []string) []interface{} {
	wrapped := make([][]string, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		wrapped = append(wrapped, []string{id})
	}
	return []interface{}{wrapped}
}

// DeleteNotebookArgs builds the params for a delete-notebook call.
func DeleteNotebookArgs(notebookID string) []interface{} {
	return []interface{}{[]string{notebookID}, []int{notebookDeleteConfirm}}
}

// ListNotebooksArgs builds the params for a list-notebooks call, matching
// the web UI's request shape.
func ListNotebooksArgs() []interface{} {
	return []interface{}{nil, 1, nil, []int{2}}
}

// GetNotebookArgs builds the params for a get-notebook call.
func GetNotebookArgs(notebookID string) []interface{} {
	return []interface{}{notebookID, nil, []int{2}}
}

// CreateNotebookArgs builds the params for a create-notebook call.
func CreateNotebookArgs(title, emoji string) []interface{} {
	return []interface{}{title, emoji}
}

// Chunk splits items into consecutive groups of at most size, preserving
// order. The final chunk may be shorter.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

const baseURL = "https://notebooklm.google.com"

// NotebookURL returns the browser URL of a notebook, carrying the
// authuser selector only for non-default accounts.
func NotebookURL(notebookID string, accountIndex int) string {
	u := baseURL + "/notebook/" + notebookID
	if accountIndex > 0 {
		u += "?authuser=" + strconv.Itoa(accountIndex)
	}
	return u
}
