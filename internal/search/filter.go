package search

import (
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Filter narrows a vector search before ranking. Implementations compile
// to a mongo filter document and to a canonical string used in cache
// keys, so two equivalent filters hit the same cache slot.
type Filter interface {
	bson() bson.M
	key() string
}

// ByCategory matches documents carrying any of the given genres.
type ByCategory struct {
	Genres []string
}

func (f ByCategory) bson() bson.M {
	return bson.M{"genres": bson.M{"$in": f.Genres}}
}

func (f ByCategory) key() string {
	return "genre:" + canonical(f.Genres)
}

// ByPerson matches documents where the person appears in the cast or
// behind the camera.
type ByPerson struct {
	Name string
}

func (f ByPerson) bson() bson.M {
	name := strings.ToLower(strings.TrimSpace(f.Name))
	return bson.M{"$or": []bson.M{
		{"cast_details.searchName": name},
		{"directors": bson.M{"$regex": "^" + escapeRegex(f.Name) + "$", "$options": "i"}},
		{"creators": bson.M{"$regex": "^" + escapeRegex(f.Name) + "$", "$options": "i"}},
	}}
}

func (f ByPerson) key() string {
	return "person:" + strings.ToLower(strings.TrimSpace(f.Name))
}

// ByProvider matches documents streamable on the provider in the given
// region. Provider names are expanded through the synonym table first.
type ByProvider struct {
	Provider string
	Region   string
}

func (f ByProvider) bson() bson.M {
	region := f.Region
	if region == "" {
		region = "US"
	}
	return bson.M{
		"watch_providers." + region + ".stream": bson.M{"$in": ProviderVariants(f.Provider)},
	}
}

func (f ByProvider) key() string {
	region := f.Region
	if region == "" {
		region = "US"
	}
	return "provider:" + region + ":" + strings.ToLower(CanonicalProvider(f.Provider))
}

// And requires every member filter to match.
type And struct {
	Filters []Filter
}

func (f And) bson() bson.M {
	clauses := make([]bson.M, 0, len(f.Filters))
	for _, m := range f.Filters {
		clauses = append(clauses, m.bson())
	}
	return bson.M{"$and": clauses}
}

func (f And) key() string {
	return "and(" + joinKeys(f.Filters) + ")"
}

// Or requires at least one member filter to match.
type Or struct {
	Filters []Filter
}

func (f Or) bson() bson.M {
	clauses := make([]bson.M, 0, len(f.Filters))
	for _, m := range f.Filters {
		clauses = append(clauses, m.bson())
	}
	return bson.M{"$or": clauses}
}

func (f Or) key() string {
	return "or(" + joinKeys(f.Filters) + ")"
}

// Compile returns the mongo filter for an optional Filter, nil when
// unfiltered.
func Compile(f Filter) bson.M {
	if f == nil {
		return nil
	}
	return f.bson()
}

// FilterKey returns the canonical cache-key fragment for an optional
// Filter.
func FilterKey(f Filter) string {
	if f == nil {
		return ""
	}
	return f.key()
}

func joinKeys(filters []Filter) string {
	keys := make([]string, 0, len(filters))
	for _, f := range filters {
		keys = append(keys, f.key())
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func canonical(values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(strings.TrimSpace(v)))
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

var regexSpecials = strings.NewReplacer(
	`\`, `\\`, `.`, `\.`, `+`, `\+`, `*`, `\*`, `?`, `\?`,
	`(`, `\(`, `)`, `\)`, `[`, `\[`, `]`, `\]`, `{`, `\{`, `}`, `\}`,
	`^`, `\^`, `$`, `\$`, `|`, `\|`,
)

func escapeRegex(s string) string {
	return regexSpecials.Replace(strings.TrimSpace(s))
}
