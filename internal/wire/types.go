// Package wire decodes the batchexecute envelope into typed records and
// builds the positional payloads the upstream protocol expects. Everything
// here is pure: decoders never panic and never perform I/O, so they can be
// swapped out when the upstream format drifts without touching transport,
// auth, or rate limiting.
package wire

// SourceType classifies an ingested item.
type SourceType string

const (
	SourceTypeURL     SourceType = "url"
	SourceTypeText    SourceType = "text"
	SourceTypeYouTube SourceType = "youtube"
	SourceTypePDF     SourceType = "pdf"
	SourceTypeAudio   SourceType = "audio"
	SourceTypeUnknown SourceType = "unknown"
)

// sourceTypeByCode maps the numeric type code observed in notebook detail
// responses to a SourceType. Codes outside the table decode to unknown so
// upstream drift degrades to a label instead of an error.
var sourceTypeByCode = map[int]SourceType{
	2: SourceTypeText,
	3: SourceTypePDF,
	4: SourceTypeURL,
	6: SourceTypeYouTube,
	8: SourceTypeAudio,
}

// SourceTypeFromCode returns the SourceType for a numeric type code.
func SourceTypeFromCode(code int) SourceType {
	if t, ok := sourceTypeByCode[code]; ok {
		return t
	}
	return SourceTypeUnknown
}

// Notebook is one entry of the notebook list.
type Notebook struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SourceCount int    `json:"sources"`
	Emoji       string `json:"emoji"`
}

// Source is one ingested item attached to a notebook.
type Source struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Type     SourceType `json:"type"`
	TypeCode int        `json:"typeCode"`
	URL      string     `json:"url,omitempty"`
	Status   int        `json:"status"`
}

// NotebookDetail is a notebook together with its sources.
type NotebookDetail struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Sources []Source `json:"sources"`
}

// Account is one signed-in browser profile usable as an account selector.
// Index is the position within the filtered account list, not the raw
// upstream position: that index is what all subsequent calls pass as the
// authuser parameter.
type Account struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	IsActive  bool   `json:"isActive"`
	IsDefault bool   `json:"isDefault"`
	Index     int    `json:"index"`
}

// BatchError records one failed item of a bulk operation.
type BatchError struct {
	ItemID  string `json:"itemId"`
	Message string `json:"message"`
}

// BatchResult aggregates a bulk operation's outcome. Callers must be able
// to tell "none succeeded" from "all succeeded" from "some succeeded", so
// this is never collapsed to a single boolean.
type BatchResult struct {
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Errors    []BatchError `json:"errors,omitempty"`
}

// Defaults used when a decoded field is absent or empty.
const (
	DefaultNotebookName = "Untitled notebook"
	DefaultSourceTitle  = "Untitled"
	DefaultEmoji        = "\U0001F4D4" // stock notebook glyph
)
