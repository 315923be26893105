package search

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"cinesearch/internal/models"
)

type fakeCollection struct {
	docs     map[string]*models.CatalogDocument
	results  []models.CatalogDocument
	searches int
}

func (f *fakeCollection) FindByID(ctx context.Context, id string) (*models.CatalogDocument, error) {
	return f.docs[id], nil
}

func (f *fakeCollection) VectorSearch(ctx context.Context, vector []float32, filter bson.M, limit int64) ([]models.CatalogDocument, error) {
	f.searches++
	if int64(len(f.results)) > limit {
		return f.results[:limit], nil
	}
	return f.results, nil
}

type fakeQueryEmbedder struct {
	calls int
}

func (f *fakeQueryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return []float32{0.1, 0.9}, nil
}

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestFacade(movies, tv *fakeCollection) (*Facade, *fakeQueryEmbedder) {
	emb := &fakeQueryEmbedder{}
	f := NewFacade(FacadeOptions{
		Movies:       movies,
		TV:           tv,
		Embedder:     emb,
		CacheTTL:     time.Hour,
		DefaultLimit: 20,
		Log:          quietLog(),
	})
	return f, emb
}

func TestSearchMoviesCachesResults(t *testing.T) {
	movies := &fakeCollection{results: []models.CatalogDocument{{ID: "1", Title: "Dune"}}}
	f, _ := newTestFacade(movies, &fakeCollection{})

	first, err := f.SearchMovies(context.Background(), "desert epic", 10, nil)
	require.NoError(t, err)
	second, err := f.SearchMovies(context.Background(), "desert epic", 10, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	// The second call is served from cache.
	assert.Equal(t, 1, movies.searches)
}

func TestSearchDifferentLimitsMissCache(t *testing.T) {
	movies := &fakeCollection{results: []models.CatalogDocument{{ID: "1"}, {ID: "2"}}}
	f, _ := newTestFacade(movies, &fakeCollection{})

	_, err := f.SearchMovies(context.Background(), "q", 1, nil)
	require.NoError(t, err)
	_, err = f.SearchMovies(context.Background(), "q", 2, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, movies.searches)
}

func TestSearchAllConcatenatesMoviesThenTV(t *testing.T) {
	movies := &fakeCollection{results: []models.CatalogDocument{{ID: "m1"}}}
	tv := &fakeCollection{results: []models.CatalogDocument{{ID: "t1"}}}
	f, emb := newTestFacade(movies, tv)

	results, err := f.SearchAll(context.Background(), "q", 10, nil)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "m1", results[0].ID)
	assert.Equal(t, "t1", results[1].ID)
	// One embedding call covers both collections.
	assert.Equal(t, 1, emb.calls)
}

func TestSimilarExcludesSourceDocument(t *testing.T) {
	movies := &fakeCollection{
		docs: map[string]*models.CatalogDocument{
			"1": {ID: "1", Overview: "A desert planet epic."},
		},
		results: []models.CatalogDocument{{ID: "1"}, {ID: "2"}, {ID: "3"}},
	}
	f, emb := newTestFacade(movies, &fakeCollection{})

	results, err := f.Similar(context.Background(), models.KindMovie, "1", 2)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "2", results[0].ID)
	assert.Equal(t, "3", results[1].ID)
	// The stored overview is what gets embedded as the query.
	assert.Equal(t, 1, emb.calls)
}

func TestSimilarFallsBackToStoredVector(t *testing.T) {
	movies := &fakeCollection{
		docs: map[string]*models.CatalogDocument{
			"1": {ID: "1", Vector: []float32{0.3, 0.7}},
		},
		results: []models.CatalogDocument{{ID: "2"}},
	}
	f, emb := newTestFacade(movies, &fakeCollection{})

	results, err := f.Similar(context.Background(), models.KindMovie, "1", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Zero(t, emb.calls)
}

func TestSimilarUnknownID(t *testing.T) {
	f, _ := newTestFacade(&fakeCollection{}, &fakeCollection{})
	_, err := f.Similar(context.Background(), models.KindMovie, "404", 5)
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestGetUnknownID(t *testing.T) {
	f, _ := newTestFacade(&fakeCollection{}, &fakeCollection{})
	_, err := f.Get(context.Background(), models.KindTV, "404")
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestUnknownKindRejected(t *testing.T) {
	f, _ := newTestFacade(&fakeCollection{}, &fakeCollection{})
	_, err := f.Search(context.Background(), models.MediaKind("podcast"), "q", 5, nil)
	assert.Error(t, err)
}
