package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"cinesearch/internal/models"
)

// ErrNoDocument is returned when a similarity lookup names an id that is
// not in the catalog.
var ErrNoDocument = errors.New("document not found")

// Collection is the slice of the document store the façade reads.
type Collection interface {
	FindByID(ctx context.Context, id string) (*models.CatalogDocument, error)
	VectorSearch(ctx context.Context, vector []float32, filter bson.M, limit int64) ([]models.CatalogDocument, error)
}

// Embedder turns the free-text query into the vector the index ranks
// against.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Facade is the query-side entry point: it embeds the query, consults
// the TTL cache, and falls through to the vector index on a miss.
type Facade struct {
	movies       Collection
	tv           Collection
	embedder     Embedder
	cache        *Cache
	defaultLimit int
	log          *logrus.Logger
}

type FacadeOptions struct {
	Movies       Collection
	TV           Collection
	Embedder     Embedder
	CacheTTL     time.Duration
	DefaultLimit int
	Log          *logrus.Logger
	Now          func() time.Time
}

func NewFacade(opts FacadeOptions) *Facade {
	limit := opts.DefaultLimit
	if limit <= 0 {
		limit = 20
	}
	return &Facade{
		movies:       opts.Movies,
		tv:           opts.TV,
		embedder:     opts.Embedder,
		cache:        NewCache(opts.CacheTTL, opts.Now),
		defaultLimit: limit,
		log:          opts.Log,
	}
}

func (f *Facade) collection(kind models.MediaKind) (Collection, error) {
	switch kind {
	case models.KindMovie:
		return f.movies, nil
	case models.KindTV:
		return f.tv, nil
	default:
		return nil, fmt.Errorf("unknown media kind %q", kind)
	}
}

// Search embeds the query and ranks one collection against it.
func (f *Facade) Search(ctx context.Context, kind models.MediaKind, query string, limit int, filter Filter) ([]models.CatalogDocument, error) {
	vector, err := f.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return f.searchVector(ctx, kind, vector, limit, filter)
}

// SearchMovies ranks the movie collection against the query.
func (f *Facade) SearchMovies(ctx context.Context, query string, limit int, filter Filter) ([]models.CatalogDocument, error) {
	return f.Search(ctx, models.KindMovie, query, limit, filter)
}

// SearchTV ranks the TV collection against the query.
func (f *Facade) SearchTV(ctx context.Context, query string, limit int, filter Filter) ([]models.CatalogDocument, error) {
	return f.Search(ctx, models.KindTV, query, limit, filter)
}

// SearchAll queries both collections with one embedding call and returns
// movies followed by TV shows. The two lists are each ranked internally
// but are not interleaved against each other.
func (f *Facade) SearchAll(ctx context.Context, query string, limit int, filter Filter) ([]models.CatalogDocument, error) {
	vector, err := f.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	movies, err := f.searchVector(ctx, models.KindMovie, vector, limit, filter)
	if err != nil {
		return nil, err
	}
	shows, err := f.searchVector(ctx, models.KindTV, vector, limit, filter)
	if err != nil {
		return nil, err
	}
	return append(movies, shows...), nil
}

// Similar finds documents close to an existing one. The stored overview
// is embedded as the query, falling back to the document's own vector
// when it has no overview; the source document is excluded from the
// results.
func (f *Facade) Similar(ctx context.Context, kind models.MediaKind, id string, limit int) ([]models.CatalogDocument, error) {
	col, err := f.collection(kind)
	if err != nil {
		return nil, err
	}
	doc, err := col.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNoDocument
	}

	var vector []float32
	if doc.Overview != "" {
		vector, err = f.embedder.Embed(ctx, doc.Overview)
		if err != nil {
			return nil, fmt.Errorf("embedding overview: %w", err)
		}
	} else {
		vector = doc.Vector
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("document %s has no overview and no vector", id)
	}
	if limit <= 0 {
		limit = f.defaultLimit
	}

	// Fetch one extra so the source document can be dropped without
	// shorting the page.
	results, err := col.VectorSearch(ctx, vector, nil, int64(limit)+1)
	if err != nil {
		return nil, err
	}
	out := make([]models.CatalogDocument, 0, limit)
	for _, r := range results {
		if r.ID == id {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Get returns one document by id, ErrNoDocument when absent.
func (f *Facade) Get(ctx context.Context, kind models.MediaKind, id string) (*models.CatalogDocument, error) {
	col, err := f.collection(kind)
	if err != nil {
		return nil, err
	}
	doc, err := col.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNoDocument
	}
	return doc, nil
}

func (f *Facade) searchVector(ctx context.Context, kind models.MediaKind, vector []float32, limit int, filter Filter) ([]models.CatalogDocument, error) {
	col, err := f.collection(kind)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = f.defaultLimit
	}

	key := Key(kind, vector, limit, filter)
	if results, ok := f.cache.Get(key); ok {
		f.log.WithFields(logrus.Fields{"kind": kind, "limit": limit}).Debug("cache hit")
		return results, nil
	}

	results, err := col.VectorSearch(ctx, vector, Compile(filter), int64(limit))
	if err != nil {
		return nil, err
	}
	f.cache.Set(key, results)
	return results, nil
}
