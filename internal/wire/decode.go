package wire

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/nlmtools/nlmbulk/internal/validate"
)

// envelopeMarker denotes a successful fragment in the multi-line
// batchexecute response. A response without it carries no data, which is
// "empty", not an error.
const envelopeMarker = "wrb.fr"

// ErrNoCreatedID is returned when a create-notebook response contains no
// notebook id. Unlike list/detail decoding there is no sensible empty
// default for the id of the thing that was just created.
var ErrNoCreatedID = errors.New("could not create notebook")

var uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// innerData locates the wrb.fr line, parses it, and unwraps the
// double-JSON-encoded payload at the fixed envelope position. Any failure
// at any stage yields nil.
func innerData(raw string) []interface{} {
	var line string
	for _, l := range strings.Split(raw, "\n") {
		if strings.Contains(l, envelopeMarker) {
			line = l
			break
		}
	}
	if line == "" {
		return nil
	}

	var outer []interface{}
	if err := json.Unmarshal([]byte(line), &outer); err != nil {
		return nil
	}
	fragment := asArray(at(outer, 0))
	payload, ok := at(fragment, 2).(string)
	if !ok {
		return nil
	}

	var inner []interface{}
	if err := json.Unmarshal([]byte(payload), &inner); err != nil {
		return nil
	}
	return inner
}

// Positionally-indexed helpers. Out-of-range access returns the zero value
// rather than panicking: the upstream format is undocumented and entries
// shorter than expected are a normal condition.

func at(arr []interface{}, i int) interface{} {
	if i < 0 || i >= len(arr) {
		return nil
	}
	return arr[i]
}

func asArray(v interface{}) []interface{} {
	arr, _ := v.([]interface{})
	return arr
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt(v interface{}) int {
	f, _ := v.(float64)
	return int(f)
}

// sharedNotebookSentinel marks a notebook that is shared-with-you rather
// than owned. Observed value; meaning beyond "observed to work" is unknown.
const sharedNotebookSentinel = 3

// DecodeNotebookList parses a list-notebooks response. Shared notebooks
// are excluded: they must never appear in bulk-import or bulk-delete
// surfaces. A malformed response decodes to an empty list.
func DecodeNotebookList(raw string) []Notebook {
	inner := innerData(raw)
	entries := asArray(at(inner, 0))

	notebooks := make([]Notebook, 0, len(entries))
	for _, e := range entries {
		entry := asArray(e)
		if len(entry) < 3 {
			continue
		}
		if meta := asArray(at(entry, 5)); len(meta) > 0 && asInt(meta[0]) == sharedNotebookSentinel {
			continue
		}

		nb := Notebook{
			ID:          asString(at(entry, 2)),
			Name:        strings.TrimSpace(asString(at(entry, 0))),
			SourceCount: len(asArray(at(entry, 1))),
			Emoji:       asString(at(entry, 3)),
		}
		if !validate.NotebookID(nb.ID) {
			continue
		}
		if nb.Name == "" {
			nb.Name = DefaultNotebookName
		}
		if nb.Emoji == "" {
			nb.Emoji = DefaultEmoji
		}
		notebooks = append(notebooks, nb)
	}
	return notebooks
}

// DecodeNotebookDetail parses a get-notebook response into the notebook
// record and its sources. A malformed response yields a detail with no
// sources; the caller fills in the id it asked for when the response
// carries none.
func DecodeNotebookDetail(raw string) NotebookDetail {
	inner := innerData(raw)
	record := asArray(at(inner, 0))

	detail := NotebookDetail{
		Title:   strings.TrimSpace(asString(at(record, 0))),
		Sources: []Source{},
	}
	if id := asString(at(record, 2)); validate.NotebookID(id) {
		detail.ID = id
	}

	for _, e := range asArray(at(record, 3)) {
		entry := asArray(e)
		if len(entry) == 0 {
			continue
		}
		id := sourceID(at(entry, 0))
		if id == "" {
			continue
		}

		kind := asArray(at(entry, 3))
		src := Source{
			ID:       id,
			Title:    asString(at(entry, 2)),
			TypeCode: asInt(at(kind, 0)),
			URL:      asString(at(kind, 1)),
			Status:   asInt(at(entry, 4)),
		}
		src.Type = SourceTypeFromCode(src.TypeCode)
		if src.Title == "" {
			src.Title = DefaultSourceTitle
		}
		detail.Sources = append(detail.Sources, src)
	}
	return detail
}

// sourceID accepts both a bare id string and the single-element wrapper
// array some responses use.
func sourceID(v interface{}) string {
	if s := asString(v); s != "" {
		return s
	}
	return asString(at(asArray(v), 0))
}

// ExtractCreatedID scans a create-notebook response for the first
// UUID-shaped substring and returns it normalized to the canonical
// lowercase form.
func ExtractCreatedID(raw string) (string, error) {
	match := uuidPattern.FindString(raw)
	if match == "" {
		return "", ErrNoCreatedID
	}
	id, err := uuid.Parse(match)
	if err != nil {
		return "", ErrNoCreatedID
	}
	return id.String(), nil
}

// SourcesReady reports whether a notebook's sources have finished
// processing. The raw text containing `null,\"<id>` is an upstream
// artifact indicating the processed-sources field is still null.
func SourcesReady(raw, notebookID string) bool {
	return !strings.Contains(raw, `null,\"`+notebookID)
}
