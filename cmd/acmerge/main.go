package main

import (
	"flag"
	"fmt"
	"os"

	"cinesearch/internal/autocomplete"
	"cinesearch/internal/config"
	"cinesearch/internal/logger"
)

// acmerge combines the per-catalog autocomplete files written by the
// crawler into a single suggestion list for the frontend.
func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to yaml config")
		outPath    = flag.String("out", "public/autocomplete.json", "merged output path")
	)
	flag.Parse()

	// The merge is purely file to file, so no credentials are needed.
	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.File)

	movies, err := autocomplete.ReadFile(cfg.Autocomplete.MoviesPath)
	if err != nil {
		log.Fatalf("reading %s: %v", cfg.Autocomplete.MoviesPath, err)
	}
	tv, err := autocomplete.ReadFile(cfg.Autocomplete.TVPath)
	if err != nil {
		log.Fatalf("reading %s: %v", cfg.Autocomplete.TVPath, err)
	}

	merged := autocomplete.Merge(movies, tv)
	if err := autocomplete.WriteSuggestions(*outPath, merged); err != nil {
		log.Fatalf("writing %s: %v", *outPath, err)
	}

	log.Infof("merged %d movie and %d tv entries into %d suggestions at %s",
		len(movies), len(tv), len(merged), *outPath)
}
