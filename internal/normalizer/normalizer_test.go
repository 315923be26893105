package normalizer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinesearch/internal/models"
	"cinesearch/internal/tmdb"
)

func sampleMovie() *tmdb.Record {
	return &tmdb.Record{
		Kind:          models.KindMovie,
		ID:            603,
		Title:         "The Matrix",
		OriginalTitle: "The Matrix",
		Tagline:       "Welcome to the Real World.",
		Overview:      "A computer hacker learns the truth.",
		Runtime:       136,
		ReleaseDate:   "1999-03-30",
		VoteAverage:   8.2,
		VoteCount:     24000,
		Genres:        []tmdb.Named{{ID: 28, Name: "Action"}, {ID: 878, Name: "Science Fiction"}},
		Keywords: tmdb.KeywordWrap{
			Keywords: []tmdb.Named{{Name: "artificial intelligence"}, {Name: "dystopia"}},
		},
		Credits: tmdb.Credits{
			Cast: []tmdb.CastCredit{
				{Name: "Keanu Reeves", Character: "Neo", Order: 0},
				{Name: "Laurence Fishburne", Character: "Morpheus", Order: 1},
			},
			Crew: []tmdb.CrewCredit{
				{Name: "Lana Wachowski", Job: "Director", Department: "Directing"},
				{Name: "Lilly Wachowski", Job: "Director", Department: "Directing"},
				{Name: "Lana Wachowski", Job: "Writer", Department: "Writing"},
			},
		},
		ProductionCompanies: []tmdb.Named{{Name: "Warner Bros. Pictures"}},
		Providers: tmdb.WatchProviders{
			Results: map[string]tmdb.RegionOffers{
				"US": {
					Flatrate: []tmdb.ProviderOffer{{ProviderName: "Max"}},
					Rent:     []tmdb.ProviderOffer{{ProviderName: "Apple TV"}},
				},
				"DE": {
					Flatrate: []tmdb.ProviderOffer{{ProviderName: "WOW"}},
				},
			},
		},
		ExternalIDs: tmdb.ExternalIDs{IMDBID: "tt0133093"},
	}
}

func TestDocumentIDDeterministic(t *testing.T) {
	assert.Equal(t, "603", DocumentID(603))
	assert.Equal(t, DocumentID(603), DocumentID(603))
}

func TestEmbeddingTextFieldOrder(t *testing.T) {
	text := EmbeddingText(sampleMovie())
	lines := strings.Split(text, "\n")

	require.Equal(t, []string{
		"Title: The Matrix",
		"Tagline: Welcome to the Real World.",
		"Overview: A computer hacker learns the truth.",
		"Genres: Action, Science Fiction",
		"Keywords: artificial intelligence, dystopia",
		"Director: Lana Wachowski, Lilly Wachowski",
		"Starring: Keanu Reeves, Laurence Fishburne",
		"Production: Warner Bros. Pictures",
	}, lines)
}

func TestEmbeddingTextOmitsEmptyFields(t *testing.T) {
	rec := &tmdb.Record{Kind: models.KindMovie, ID: 1, Title: "Bare"}
	assert.Equal(t, "Title: Bare", EmbeddingText(rec))
}

func TestEmbeddingTextTVUsesCreator(t *testing.T) {
	rec := &tmdb.Record{
		Kind:      models.KindTV,
		ID:        1396,
		Name:      "Breaking Bad",
		CreatedBy: []tmdb.Named{{Name: "Vince Gilligan"}},
		Credits: tmdb.Credits{
			Crew: []tmdb.CrewCredit{{Name: "Michelle MacLaren", Job: "Director"}},
		},
	}
	text := EmbeddingText(rec)
	assert.Contains(t, text, "Creator: Vince Gilligan")
	assert.NotContains(t, text, "Director:")
}

func TestNormalizeMovie(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	vector := []float32{0.1, 0.2, 0.3}

	doc := Normalize(sampleMovie(), vector, []string{"US"}, now)

	assert.Equal(t, "603", doc.ID)
	assert.Equal(t, 603, doc.SourceID)
	assert.Equal(t, "The Matrix", doc.Title)
	assert.Equal(t, "the matrix", doc.TitleLower)
	assert.Equal(t, 136, doc.Runtime)
	assert.Equal(t, "1999-03-30", doc.ReleaseDate)
	assert.Equal(t, []string{"Action", "Science Fiction"}, doc.Genres)
	assert.Equal(t, []string{"Lana Wachowski", "Lilly Wachowski"}, doc.Directors)
	assert.Equal(t, "tt0133093", doc.IMDBID)
	assert.Equal(t, vector, doc.Vector)
	assert.Equal(t, now, doc.IndexedAt)
	assert.Empty(t, doc.Creators)
	assert.Empty(t, doc.Networks)

	require.Len(t, doc.CastDetails, 2)
	assert.Equal(t, "Keanu Reeves", doc.CastDetails[0].Name)
	assert.Equal(t, "keanu reeves", doc.CastDetails[0].SearchName)
	assert.Equal(t, "Neo", doc.CastDetails[0].Character)

	// Only configured regions survive.
	require.Contains(t, doc.WatchProviders, "US")
	assert.NotContains(t, doc.WatchProviders, "DE")
	assert.Equal(t, []string{"Max"}, doc.WatchProviders["US"].Stream)
	assert.Equal(t, []string{"Apple TV"}, doc.WatchProviders["US"].Rent)
}

func TestNormalizeTV(t *testing.T) {
	rec := &tmdb.Record{
		Kind:           models.KindTV,
		ID:             1396,
		Name:           "Breaking Bad",
		OriginalName:   "Breaking Bad",
		FirstAirDate:   "2008-01-20",
		EpisodeRunTime: []int{45, 47},
		CreatedBy:      []tmdb.Named{{Name: "Vince Gilligan"}},
		Networks:       []tmdb.Named{{Name: "AMC"}},
	}
	doc := Normalize(rec, nil, nil, time.Now())

	assert.Equal(t, "Breaking Bad", doc.Title)
	assert.Equal(t, "2008-01-20", doc.ReleaseDate)
	assert.Equal(t, 45, doc.Runtime)
	assert.Equal(t, []string{"Vince Gilligan"}, doc.Creators)
	assert.Equal(t, []string{"AMC"}, doc.Networks)
}

func TestNormalizeEmptyContainers(t *testing.T) {
	rec := &tmdb.Record{Kind: models.KindMovie, ID: 7, Title: "Empty"}
	doc := Normalize(rec, nil, []string{"US"}, time.Now())

	assert.NotNil(t, doc.WatchProviders)
	assert.Empty(t, doc.WatchProviders)
	assert.Empty(t, doc.Genres)
	assert.Empty(t, doc.Cast)
	assert.Empty(t, doc.Keywords)
}

func TestDocumentEmbeddingText(t *testing.T) {
	doc := &models.CatalogDocument{
		Title:     "The Matrix",
		Overview:  "A computer hacker learns the truth.",
		Genres:    []string{"Action"},
		Cast:      []string{"Keanu Reeves"},
		Directors: []string{"Lana Wachowski"},
	}
	text := DocumentEmbeddingText(doc)
	assert.Equal(t,
		"Title: The Matrix | Overview: A computer hacker learns the truth. | Genres: Action | Cast: Keanu Reeves | Directors: Lana Wachowski",
		text)
}
