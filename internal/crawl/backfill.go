package crawl

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"cinesearch/internal/models"
	"cinesearch/internal/normalizer"
)

const backfillBatch = 200

// VectorBackfill re-embeds documents written without a vector. It works
// from stored documents rather than the live source, so records deleted
// upstream still get indexed.
type VectorBackfill struct {
	docs interface {
		FindMissingVectors(ctx context.Context, limit int64) ([]models.CatalogDocument, error)
		SetVector(ctx context.Context, id string, vector []float32) error
	}
	embedder Embedder
	delayMS  int
	log      *logrus.Logger
}

func NewVectorBackfill(docs interface {
	FindMissingVectors(ctx context.Context, limit int64) ([]models.CatalogDocument, error)
	SetVector(ctx context.Context, id string, vector []float32) error
}, embedder Embedder, delayMS int, log *logrus.Logger) *VectorBackfill {
	return &VectorBackfill{docs: docs, embedder: embedder, delayMS: delayMS, log: log}
}

// Run embeds and patches batches until no unvectored documents remain.
// Returns the number of documents patched.
func (b *VectorBackfill) Run(ctx context.Context) (int, error) {
	patched := 0
	for {
		if err := ctx.Err(); err != nil {
			return patched, err
		}
		batch, err := b.docs.FindMissingVectors(ctx, backfillBatch)
		if err != nil {
			return patched, err
		}
		if len(batch) == 0 {
			b.log.WithField("patched", patched).Info("vector backfill complete")
			return patched, nil
		}
		progress := 0
		for i := range batch {
			doc := &batch[i]
			if err := ctx.Err(); err != nil {
				return patched, err
			}
			vector, err := b.embedder.Embed(ctx, normalizer.DocumentEmbeddingText(doc))
			if err != nil {
				b.log.WithError(err).WithField("id", doc.ID).Warn("embedding failed")
				continue
			}
			if err := b.docs.SetVector(ctx, doc.ID, vector); err != nil {
				b.log.WithError(err).WithField("id", doc.ID).Warn("vector write failed")
				continue
			}
			patched++
			progress++
			if b.delayMS > 0 {
				select {
				case <-ctx.Done():
					return patched, ctx.Err()
				case <-time.After(time.Duration(b.delayMS) * time.Millisecond):
				}
			}
		}
		// Every document in the batch failed; looping again would fetch
		// the same batch forever.
		if progress == 0 {
			b.log.WithField("remaining", len(batch)).Warn("vector backfill stalled")
			return patched, nil
		}
	}
}
