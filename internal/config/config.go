package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Credentials are the external endpoints and keys the pipeline cannot run
// without. A missing required value is the only unconditional startup
// failure.
type Credentials struct {
	TMDBAPIKey   string `env:"TMDB_API_KEY,required"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY,required"`
	MongoURI     string `env:"MONGODB_URI,required"`
}

type DBConfig struct {
	Database    string `yaml:"database"`
	Collections struct {
		Movies      string `yaml:"movies"`
		TV          string `yaml:"tv"`
		Checkpoints string `yaml:"checkpoints"`
	} `yaml:"collections"`
	VectorIndex string `yaml:"vector_index"`
}

type CrawlConfig struct {
	DelayMS        int      `yaml:"delay_ms"`
	TimeoutSec     int      `yaml:"timeout_sec"`
	StartDate      string   `yaml:"start_date"`
	FloorDate      string   `yaml:"floor_date"`
	PageCap        int      `yaml:"page_cap"`
	ResultCap      int      `yaml:"result_cap"`
	BucketWidth    float64  `yaml:"bucket_width"`
	BucketMin      float64  `yaml:"bucket_min"`
	BucketMax      float64  `yaml:"bucket_max"`
	MinRuntime     int      `yaml:"min_runtime"`
	MinVotes       int      `yaml:"min_votes"`
	StatsInterval  int      `yaml:"stats_interval"`
	Regions        []string `yaml:"regions"`
	ChangesPageCap int      `yaml:"changes_page_cap"`
}

type AutocompleteConfig struct {
	MoviesPath     string `yaml:"movies_path"`
	TVPath         string `yaml:"tv_path"`
	FlushThreshold int    `yaml:"flush_threshold"`
}

type EmbeddingConfig struct {
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

type SearchConfig struct {
	CacheTTLSec  int    `yaml:"cache_ttl_sec"`
	DefaultLimit int    `yaml:"default_limit"`
	Address      string `yaml:"address"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type Config struct {
	DB           DBConfig           `yaml:"db"`
	Crawl        CrawlConfig        `yaml:"crawl"`
	Autocomplete AutocompleteConfig `yaml:"autocomplete"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	Search       SearchConfig       `yaml:"search"`
	Log          LogConfig          `yaml:"log"`

	Credentials Credentials `yaml:"-"`
}

// LoadFile reads only the yaml config at path. Offline tools that never
// talk to an external service use it directly; credentials stay zero.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Load reads the yaml config at path and the credentials from the
// environment (a .env file is honored when present).
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	// .env is optional; real environments set the variables directly.
	_ = godotenv.Load()

	if err := env.Parse(&cfg.Credentials); err != nil {
		return nil, fmt.Errorf("missing required configuration: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DB.Database == "" {
		cfg.DB.Database = "cinesearch"
	}
	if cfg.DB.Collections.Movies == "" {
		cfg.DB.Collections.Movies = "movies"
	}
	if cfg.DB.Collections.TV == "" {
		cfg.DB.Collections.TV = "tvshows"
	}
	if cfg.DB.Collections.Checkpoints == "" {
		cfg.DB.Collections.Checkpoints = "crawler_metadata"
	}
	if cfg.DB.VectorIndex == "" {
		cfg.DB.VectorIndex = "vector_index"
	}
	if cfg.Crawl.DelayMS == 0 {
		cfg.Crawl.DelayMS = 250
	}
	if cfg.Crawl.TimeoutSec == 0 {
		cfg.Crawl.TimeoutSec = 30
	}
	if cfg.Crawl.StartDate == "" {
		cfg.Crawl.StartDate = "2025-12-31"
	}
	if cfg.Crawl.FloorDate == "" {
		cfg.Crawl.FloorDate = "1930-01-01"
	}
	if cfg.Crawl.PageCap == 0 {
		cfg.Crawl.PageCap = 500
	}
	// The discover endpoint stops returning results past this many hits
	// per query; the exact ceiling is undocumented upstream.
	if cfg.Crawl.ResultCap == 0 {
		cfg.Crawl.ResultCap = 10000
	}
	if cfg.Crawl.BucketWidth == 0 {
		cfg.Crawl.BucketWidth = 0.5
	}
	if cfg.Crawl.BucketMax == 0 {
		cfg.Crawl.BucketMax = 10
	}
	if cfg.Crawl.MinRuntime == 0 {
		cfg.Crawl.MinRuntime = 60
	}
	if cfg.Crawl.MinVotes == 0 {
		cfg.Crawl.MinVotes = 50
	}
	if cfg.Crawl.StatsInterval == 0 {
		cfg.Crawl.StatsInterval = 100
	}
	if len(cfg.Crawl.Regions) == 0 {
		cfg.Crawl.Regions = []string{"US"}
	}
	if cfg.Crawl.ChangesPageCap == 0 {
		cfg.Crawl.ChangesPageCap = 100
	}
	if cfg.Autocomplete.MoviesPath == "" {
		cfg.Autocomplete.MoviesPath = "public/autocomplete-movies.json"
	}
	if cfg.Autocomplete.TVPath == "" {
		cfg.Autocomplete.TVPath = "public/autocomplete-tv.json"
	}
	if cfg.Autocomplete.FlushThreshold == 0 {
		cfg.Autocomplete.FlushThreshold = 100
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Search.CacheTTLSec == 0 {
		cfg.Search.CacheTTLSec = 3600
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 20
	}
	if cfg.Search.Address == "" {
		cfg.Search.Address = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
