package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestByCategoryCompilesToIn(t *testing.T) {
	f := ByCategory{Genres: []string{"Drama", "Crime"}}
	assert.Equal(t, bson.M{"genres": bson.M{"$in": []string{"Drama", "Crime"}}}, f.bson())
}

func TestByProviderExpandsSynonyms(t *testing.T) {
	f := ByProvider{Provider: "Paramount+", Region: "US"}
	m := f.bson()

	clause, ok := m["watch_providers.US.stream"].(bson.M)
	require.True(t, ok)
	variants, ok := clause["$in"].([]string)
	require.True(t, ok)
	assert.Contains(t, variants, "Paramount Plus")
	assert.Contains(t, variants, "Paramount Plus Essential")
	assert.Contains(t, variants, "Paramount Plus Premium")
}

func TestByProviderDefaultRegion(t *testing.T) {
	f := ByProvider{Provider: "Netflix"}
	m := f.bson()
	_, ok := m["watch_providers.US.stream"]
	assert.True(t, ok)
}

func TestByPersonMatchesCastAndCrew(t *testing.T) {
	f := ByPerson{Name: "Greta Gerwig"}
	m := f.bson()

	clauses, ok := m["$or"].([]bson.M)
	require.True(t, ok)
	require.Len(t, clauses, 3)
	assert.Equal(t, "greta gerwig", clauses[0]["cast_details.searchName"])
}

func TestAndCombinesClauses(t *testing.T) {
	f := And{Filters: []Filter{
		ByCategory{Genres: []string{"Drama"}},
		ByProvider{Provider: "Netflix", Region: "US"},
	}}
	m := f.bson()
	clauses, ok := m["$and"].([]bson.M)
	require.True(t, ok)
	assert.Len(t, clauses, 2)
}

func TestFilterKeyCanonical(t *testing.T) {
	a := ByCategory{Genres: []string{"Drama", "Crime"}}
	b := ByCategory{Genres: []string{" crime", "DRAMA "}}
	assert.Equal(t, a.key(), b.key())

	// And keys are order independent.
	x := And{Filters: []Filter{a, ByPerson{Name: "X"}}}
	y := And{Filters: []Filter{ByPerson{Name: "X"}, a}}
	assert.Equal(t, x.key(), y.key())
}

func TestCompileNilFilter(t *testing.T) {
	assert.Nil(t, Compile(nil))
	assert.Empty(t, FilterKey(nil))
}

func TestEscapeRegex(t *testing.T) {
	clauses := ByPerson{Name: "Mr. A+ (test)"}.bson()["$or"].([]bson.M)
	pattern := clauses[1]["directors"].(bson.M)["$regex"].(string)
	assert.Equal(t, `^Mr\. A\+ \(test\)$`, pattern)
}
