package autocomplete

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"cinesearch/internal/models"
)

// Suggestion is the merged, labeled output shape served to the web layer.
type Suggestion struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Ref  string `json:"id,omitempty"`
}

// Label resolves a category code against the media kind its sequence was
// produced from. Code 0 is contextual: the same code means "Movie" in a
// movie sequence and "TV Show" in a TV sequence.
func Label(kind int, context models.MediaKind) string {
	switch kind {
	case KindPerson:
		return "Person"
	case KindGenre:
		return "Genre"
	case KindTitle:
		if context == models.KindTV {
			return "TV Show"
		}
		return "Movie"
	}
	return "Unknown"
}

// Merge combines a movie sequence and a TV sequence into one labeled,
// re-deduplicated list. Keys are (resolved label, lowercased name); when
// two entries collide the one carrying a reference id wins.
func Merge(movies, tv []Entry) []Suggestion {
	unique := make(map[string]Suggestion)
	var order []string

	add := func(list []Entry, context models.MediaKind) {
		for _, e := range list {
			name := strings.TrimSpace(e.Name)
			if name == "" {
				continue
			}
			label := Label(e.Kind, context)
			key := label + "|" + strings.ToLower(name)

			candidate := Suggestion{Type: label, Name: name, Ref: e.Ref}
			existing, ok := unique[key]
			if !ok {
				unique[key] = candidate
				order = append(order, key)
				continue
			}
			if existing.Ref == "" && candidate.Ref != "" {
				unique[key] = candidate
			}
		}
	}

	add(movies, models.KindMovie)
	add(tv, models.KindTV)

	out := make([]Suggestion, 0, len(order))
	for _, key := range order {
		out = append(out, unique[key])
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// ReadFile loads a flushed entry sequence. A missing file is an empty
// sequence, matching how partial crawls are merged.
func ReadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// WriteSuggestions writes the merged output as one JSON array.
func WriteSuggestions(path string, s []Suggestion) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
