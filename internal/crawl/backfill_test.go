package crawl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinesearch/internal/models"
)

type fakeVectorStore struct {
	missing []models.CatalogDocument
	set     map[string][]float32
}

func (f *fakeVectorStore) FindMissingVectors(ctx context.Context, limit int64) ([]models.CatalogDocument, error) {
	if int64(len(f.missing)) > limit {
		return f.missing[:limit], nil
	}
	return f.missing, nil
}

func (f *fakeVectorStore) SetVector(ctx context.Context, id string, vector []float32) error {
	if f.set == nil {
		f.set = make(map[string][]float32)
	}
	f.set[id] = vector
	for i, doc := range f.missing {
		if doc.ID == id {
			f.missing = append(f.missing[:i], f.missing[i+1:]...)
			break
		}
	}
	return nil
}

func TestBackfillPatchesAllMissing(t *testing.T) {
	store := &fakeVectorStore{
		missing: []models.CatalogDocument{
			{ID: "1", Title: "Dune"},
			{ID: "2", Title: "Heat"},
		},
	}
	b := NewVectorBackfill(store, &fakeEmbedder{}, 0, quietLog())

	patched, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, patched)
	assert.Len(t, store.set, 2)
	assert.Empty(t, store.missing)
}

func TestBackfillStallsWhenEmbeddingDown(t *testing.T) {
	store := &fakeVectorStore{
		missing: []models.CatalogDocument{{ID: "1", Title: "Dune"}},
	}
	b := NewVectorBackfill(store, &fakeEmbedder{fail: true}, 0, quietLog())

	patched, err := b.Run(context.Background())
	require.NoError(t, err)

	// Nothing progressed; the pass stops instead of spinning on the same
	// batch.
	assert.Zero(t, patched)
	assert.Len(t, store.missing, 1)
}

func TestBackfillNothingToDo(t *testing.T) {
	b := NewVectorBackfill(&fakeVectorStore{}, &fakeEmbedder{}, 0, quietLog())
	patched, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, patched)
}
