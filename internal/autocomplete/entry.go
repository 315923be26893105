// Package autocomplete accumulates deduplicated search suggestions during
// a crawl and periodically checkpoints them to a durable JSON file.
package autocomplete

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Suggestion categories. Code 0 is "title" in whichever media kind the
// sequence was produced for; the offline merge resolves it to a label.
const (
	KindTitle  = 0
	KindPerson = 1
	KindGenre  = 2
)

// Entry is one (category, name, optional reference id) suggestion. Its
// durable form is the compact array [code, name] or [code, name, ref].
type Entry struct {
	Kind int
	Name string
	Ref  string
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Ref == "" {
		return json.Marshal([2]interface{}{e.Kind, e.Name})
	}
	return json.Marshal([3]interface{}{e.Kind, e.Name, e.Ref})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < 2 {
		return fmt.Errorf("autocomplete: entry needs at least [code, name], got %d elements", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.Kind); err != nil {
		return fmt.Errorf("autocomplete: bad category code: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.Name); err != nil {
		return fmt.Errorf("autocomplete: bad name: %w", err)
	}
	e.Ref = ""
	if len(raw) > 2 {
		// Older exports carried numeric reference ids.
		var s string
		if err := json.Unmarshal(raw[2], &s); err == nil {
			e.Ref = s
		} else {
			var n int64
			if err := json.Unmarshal(raw[2], &n); err != nil {
				return fmt.Errorf("autocomplete: bad reference id: %w", err)
			}
			e.Ref = strconv.FormatInt(n, 10)
		}
	}
	return nil
}
