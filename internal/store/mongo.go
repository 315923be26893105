package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cinesearch/internal/config"
	"cinesearch/internal/models"
)

const opTimeout = 10 * time.Second

// Mongo wraps the document database holding catalog collections and crawl
// checkpoints.
type Mongo struct {
	client      *mongo.Client
	database    *mongo.Database
	movies      *Documents
	tv          *Documents
	checkpoints *Checkpoints
	log         *logrus.Logger
}

func New(uri string, cfg config.DBConfig, log *logrus.Logger) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("can't ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)
	m := &Mongo{
		client:   client,
		database: db,
		movies: &Documents{
			col:         db.Collection(cfg.Collections.Movies),
			vectorIndex: cfg.VectorIndex,
		},
		tv: &Documents{
			col:         db.Collection(cfg.Collections.TV),
			vectorIndex: cfg.VectorIndex,
		},
		checkpoints: &Checkpoints{col: db.Collection(cfg.Collections.Checkpoints)},
		log:         log,
	}

	if err := m.createIndexes(); err != nil {
		return nil, fmt.Errorf("can't create indexes: %w", err)
	}
	return m, nil
}

func (m *Mongo) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tmdb_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "title_lower", Value: 1}}},
		{Keys: bson.D{{Key: "genres", Value: 1}}},
		{Keys: bson.D{{Key: "cast", Value: 1}}},
	}
	for _, docs := range []*Documents{m.movies, m.tv} {
		for _, idx := range indexes {
			if _, err := docs.col.Indexes().CreateOne(ctx, idx); err != nil {
				m.log.WithError(err).Warn("index creation failed")
			}
		}
	}
	return nil
}

// Documents returns the collection adapter for the given media kind.
func (m *Mongo) Documents(kind models.MediaKind) *Documents {
	if kind == models.KindTV {
		return m.tv
	}
	return m.movies
}

func (m *Mongo) Checkpoints() *Checkpoints { return m.checkpoints }

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// Documents is the adapter for one catalog collection.
type Documents struct {
	col         *mongo.Collection
	vectorIndex string
}

// FindByID returns the stored document, or nil when absent.
func (d *Documents) FindByID(ctx context.Context, id string) (*models.CatalogDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc models.CatalogDocument
	err := d.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Documents) Exists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := d.col.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Upsert fully replaces the document keyed by its id, inserting it when
// new. Re-ingesting a record is therefore idempotent.
func (d *Documents) Upsert(ctx context.Context, doc *models.CatalogDocument) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := d.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc,
		options.Replace().SetUpsert(true))
	return err
}

// Find runs a filtered query with optional sort, limit and projection.
func (d *Documents) Find(ctx context.Context, filter bson.M, sort bson.D, limit int64, projection bson.M) ([]models.CatalogDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if projection != nil {
		opts.SetProjection(projection)
	}

	cursor, err := d.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []models.CatalogDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// VectorSearch runs a similarity query against the collection's vector
// index, optionally pre-filtered.
func (d *Documents) VectorSearch(ctx context.Context, vector []float32, filter bson.M, limit int64) ([]models.CatalogDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	search := bson.D{
		{Key: "index", Value: d.vectorIndex},
		{Key: "path", Value: "vector"},
		{Key: "queryVector", Value: vector},
		{Key: "numCandidates", Value: limit * 10},
		{Key: "limit", Value: limit},
	}
	if len(filter) > 0 {
		search = append(search, bson.E{Key: "filter", Value: filter})
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: search}},
		bson.D{{Key: "$project", Value: bson.M{"vector": 0}}},
	}

	cursor, err := d.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []models.CatalogDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// FindMissingVectors returns documents that have no embedding yet, for the
// backfill pass.
func (d *Documents) FindMissingVectors(ctx context.Context, limit int64) ([]models.CatalogDocument, error) {
	return d.Find(ctx, bson.M{"vector": bson.M{"$exists": false}}, nil, limit, nil)
}

// SetVector patches only the embedding onto an existing document. This is
// the single partial-update path; everything else replaces whole documents.
func (d *Documents) SetVector(ctx context.Context, id string, vector []float32) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := d.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"vector": vector, "indexed_at": time.Now().UTC()}})
	return err
}

// Checkpoints persists crawl progress, one document per crawl domain.
type Checkpoints struct {
	col *mongo.Collection
}

// Save records cursor as the last fully completed position for key.
func (c *Checkpoints) Save(ctx context.Context, key, cursor string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := c.col.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"last_cursor": cursor, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true))
	return err
}

// Load returns the saved cursor for key, or "" when the domain has never
// been crawled.
func (c *Checkpoints) Load(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var cp models.CrawlCheckpoint
	err := c.col.FindOne(ctx, bson.M{"_id": key}).Decode(&cp)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return cp.LastCursor, nil
}
