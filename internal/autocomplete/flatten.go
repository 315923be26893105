package autocomplete

import (
	"cinesearch/internal/normalizer"
	"cinesearch/internal/tmdb"
)

const maxCastSuggestions = 5

// FromRecord flattens one catalog record into its suggestion candidates:
// the title (carrying the document id as reference), the top cast members
// and the genres.
func FromRecord(rec *tmdb.Record) []Entry {
	var entries []Entry

	if title := rec.DisplayTitle(); title != "" {
		entries = append(entries, Entry{
			Kind: KindTitle,
			Name: title,
			Ref:  normalizer.DocumentID(rec.ID),
		})
	}

	cast := rec.Credits.Cast
	if len(cast) > maxCastSuggestions {
		cast = cast[:maxCastSuggestions]
	}
	for _, c := range cast {
		if c.Name == "" {
			continue
		}
		entries = append(entries, Entry{Kind: KindPerson, Name: c.Name})
	}

	for _, g := range rec.Genres {
		if g.Name == "" {
			continue
		}
		entries = append(entries, Entry{Kind: KindGenre, Name: g.Name})
	}
	return entries
}
