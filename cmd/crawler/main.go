package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cinesearch/internal/autocomplete"
	"cinesearch/internal/config"
	"cinesearch/internal/crawl"
	"cinesearch/internal/embedding"
	"cinesearch/internal/logger"
	"cinesearch/internal/models"
	"cinesearch/internal/store"
	"cinesearch/internal/tmdb"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to yaml config")
		strategy   = flag.String("strategy", "date", "crawl strategy: date, pages, buckets, changes or backfill")
		kindFlag   = flag.String("kind", "movie", "media kind: movie or tv")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.File)

	var kind models.MediaKind
	switch *kindFlag {
	case "movie":
		kind = models.KindMovie
	case "tv":
		kind = models.KindTV
	default:
		log.Fatalf("unknown kind %q", *kindFlag)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.New(cfg.Credentials.MongoURI, cfg.DB, log)
	if err != nil {
		log.Fatalf("connecting to mongo: %v", err)
	}
	defer db.Close()

	embedder := embedding.NewOpenAI(cfg.Credentials.OpenAIAPIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions)
	docs := db.Documents(kind)

	if *strategy == "backfill" {
		backfill := crawl.NewVectorBackfill(docs, embedder, cfg.Crawl.DelayMS, log)
		patched, err := backfill.Run(ctx)
		if err != nil && ctx.Err() == nil {
			log.Fatalf("backfill: %v", err)
		}
		log.Infof("backfill patched %d documents", patched)
		return
	}

	source := tmdb.NewClient(cfg.Credentials.TMDBAPIKey, time.Duration(cfg.Crawl.TimeoutSec)*time.Second, log)

	acPath := cfg.Autocomplete.MoviesPath
	if kind == models.KindTV {
		acPath = cfg.Autocomplete.TVPath
	}
	sink := autocomplete.NewDeduplicator(acPath, cfg.Autocomplete.FlushThreshold, log)
	if err := sink.LoadExisting(); err != nil {
		log.WithError(err).Warn("could not load existing autocomplete file, starting fresh")
	}

	opts := crawl.Options{
		Source:      source,
		Documents:   docs,
		Checkpoints: db.Checkpoints(),
		Embedder:    embedder,
		Suggestions: sink,
		Config:      cfg.Crawl,
		Kind:        kind,
		Log:         log,
	}

	switch *strategy {
	case "date":
		opts.Policy = crawl.DatePolicy(kind, cfg.Crawl)
		err = crawl.New(opts).RunByDate(ctx)
	case "pages":
		opts.Policy = crawl.PagesPolicy(kind, cfg.Crawl)
		err = crawl.New(opts).RunByPages(ctx, crawl.PagesFilter(cfg.Crawl))
	case "buckets":
		opts.Policy = crawl.BucketPolicy(kind, cfg.Crawl)
		err = crawl.New(opts).RunByBuckets(ctx)
	case "changes":
		opts.Policy = crawl.ChangesPolicy()
		err = crawl.New(opts).RunChanges(ctx)
	default:
		log.Fatalf("unknown strategy %q", *strategy)
	}

	if err != nil {
		if ctx.Err() != nil {
			log.Info("interrupted, progress checkpointed")
			return
		}
		log.Fatalf("crawl: %v", err)
	}
}
