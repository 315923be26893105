package autocomplete

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinesearch/internal/models"
)

func TestLabelResolvesTitleByContext(t *testing.T) {
	assert.Equal(t, "Movie", Label(KindTitle, models.KindMovie))
	assert.Equal(t, "TV Show", Label(KindTitle, models.KindTV))
	assert.Equal(t, "Person", Label(KindPerson, models.KindMovie))
	assert.Equal(t, "Genre", Label(KindGenre, models.KindTV))
}

func TestMergeKeepsTitlesFromBothCatalogs(t *testing.T) {
	movies := []Entry{{Kind: KindTitle, Name: "Fargo", Ref: "275"}}
	tv := []Entry{{Kind: KindTitle, Name: "Fargo", Ref: "60622"}}

	merged := Merge(movies, tv)

	// Same name, different resolved labels: both survive.
	require.Len(t, merged, 2)
	types := []string{merged[0].Type, merged[1].Type}
	assert.ElementsMatch(t, []string{"Movie", "TV Show"}, types)
}

func TestMergeDeduplicatesSharedPeople(t *testing.T) {
	movies := []Entry{{Kind: KindPerson, Name: "Pedro Pascal"}}
	tv := []Entry{{Kind: KindPerson, Name: "pedro pascal"}}

	merged := Merge(movies, tv)
	require.Len(t, merged, 1)
	assert.Equal(t, "Person", merged[0].Type)
	assert.Equal(t, "Pedro Pascal", merged[0].Name)
}

func TestMergePrefersEntryWithRef(t *testing.T) {
	movies := []Entry{{Kind: KindPerson, Name: "Zendaya"}}
	tv := []Entry{{Kind: KindPerson, Name: "Zendaya", Ref: "nm999"}}

	merged := Merge(movies, tv)
	require.Len(t, merged, 1)
	assert.Equal(t, "nm999", merged[0].Ref)
}

func TestMergeSortedByName(t *testing.T) {
	movies := []Entry{
		{Kind: KindTitle, Name: "Zodiac", Ref: "1949"},
		{Kind: KindTitle, Name: "alien", Ref: "348"},
		{Kind: KindGenre, Name: "Drama"},
	}
	merged := Merge(movies, nil)

	require.Len(t, merged, 3)
	assert.Equal(t, "alien", merged[0].Name)
	assert.Equal(t, "Drama", merged[1].Name)
	assert.Equal(t, "Zodiac", merged[2].Name)
}

func TestMergeSkipsBlankNames(t *testing.T) {
	merged := Merge([]Entry{{Kind: KindGenre, Name: "  "}}, nil)
	assert.Empty(t, merged)
}
