package analysis

import (
	"encoding/json"
	"errors"

	"github.com/btraven00/phishguard/internal/candidates"
)

// ItemType identifies what a result item was produced from.
type ItemType string

const (
	ItemTypeURL   ItemType = "URL"
	ItemTypeEmail ItemType = "Email"
	ItemTypeURLs  ItemType = "URLs"
)

// Status is the terminal state of one submitted unit.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Mode selects how candidate URLs are sent to the scanner.
type Mode string

const (
	// ModePerItem sends one request per URL, in order.
	ModePerItem Mode = "per-item"
	// ModeBatched sends every URL in a single request.
	ModeBatched Mode = "batched"
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePerItem, "":
		return ModePerItem, nil
	case ModeBatched:
		return ModeBatched, nil
	default:
		return "", errors.New("unknown analysis mode: " + s)
	}
}

// Item is the outcome of one submitted unit. Items are not modified after
// Analyze returns them.
type Item struct {
	ID     string          `json:"id"`
	Type   ItemType        `json:"type"`
	Input  string          `json:"input,omitempty"`
	Status Status          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
	Inputs []string        `json:"inputs,omitempty"`
	Count  int             `json:"count,omitempty"`
}

// OK reports whether the item succeeded.
func (i Item) OK() bool {
	return i.Status == StatusSuccess
}

// Draft is the pending submission: candidate URLs plus optional pasted
// email content. Analyze empties it.
type Draft struct {
	URLs *candidates.Set
	Text string
}

// NewDraft returns an empty draft.
func NewDraft() *Draft {
	return &Draft{URLs: candidates.New()}
}

// Empty reports whether there is nothing to submit.
func (d *Draft) Empty() bool {
	return d == nil || ((d.URLs == nil || d.URLs.Len() == 0) && trimmed(d.Text) == "")
}

func (d *Draft) clear() {
	if d.URLs != nil {
		d.URLs.Clear()
	}

	d.Text = ""
}

// Wire payloads.
type (
	urlRequest struct {
		URL string `json:"url"`
	}

	batchRequest struct {
		URLs []string `json:"urls"`
	}

	emailRequest struct {
		Text string `json:"text"`
	}
)

// Summary counts items by status.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Summarize tallies items.
func Summarize(items []Item) Summary {
	s := Summary{Total: len(items)}

	for _, it := range items {
		if it.OK() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}

	return s
}
