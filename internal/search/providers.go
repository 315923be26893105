package search

import "strings"

// Streaming services brand themselves inconsistently across catalogs:
// the provider feed may list "Disney Plus" while users type "Disney+".
// The table maps each service to every stored spelling. Maintained by
// hand; entries are added when a mismatch is reported.
var providerSynonyms = map[string][]string{
	"netflix":      {"Netflix"},
	"disney+":      {"Disney Plus", "Disney+"},
	"disney plus":  {"Disney Plus", "Disney+"},
	"hulu":         {"Hulu"},
	"max":          {"Max", "HBO Max"},
	"hbo max":      {"Max", "HBO Max"},
	"apple tv+":    {"Apple TV+", "Apple TV Plus"},
	"apple tv":     {"Apple TV+", "Apple TV Plus", "Apple TV"},
	"prime video":  {"Amazon Prime Video", "Prime Video"},
	"amazon prime": {"Amazon Prime Video", "Prime Video"},
	"paramount+": {
		"Paramount Plus", "Paramount+",
		"Paramount Plus Essential", "Paramount Plus Premium",
	},
	"paramount plus": {
		"Paramount Plus", "Paramount+",
		"Paramount Plus Essential", "Paramount Plus Premium",
	},
	"peacock": {"Peacock", "Peacock Premium", "Peacock Premium Plus"},
	"tubi":    {"Tubi", "Tubi TV"},
	"starz":   {"Starz"},
	"mgm+":    {"MGM Plus", "MGM+"},
	"crunchyroll": {
		"Crunchyroll", "Crunchyroll Amazon Channel",
	},
}

// ProviderVariants returns every stored spelling that should match the
// requested provider name. Unknown providers match only themselves.
func ProviderVariants(name string) []string {
	if variants, ok := providerSynonyms[strings.ToLower(strings.TrimSpace(name))]; ok {
		return variants
	}
	return []string{strings.TrimSpace(name)}
}

// CanonicalProvider collapses any known spelling to a single form so
// cache keys for "Disney+" and "disney plus" coincide.
func CanonicalProvider(name string) string {
	if variants, ok := providerSynonyms[strings.ToLower(strings.TrimSpace(name))]; ok {
		return variants[0]
	}
	return strings.TrimSpace(name)
}

// IsKnownProvider reports whether the name resolves through the synonym
// table.
func IsKnownProvider(name string) bool {
	_, ok := providerSynonyms[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
