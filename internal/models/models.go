package models

import "time"

// MediaKind selects which catalog collection a record belongs to.
type MediaKind string

const (
	KindMovie MediaKind = "movie"
	KindTV    MediaKind = "tv"
)

// CastMember is one credited cast entry on a stored document.
type CastMember struct {
	Name       string `bson:"name" json:"name"`
	Character  string `bson:"character" json:"character"`
	Order      int    `bson:"order" json:"order"`
	SearchName string `bson:"searchName" json:"searchName"`
}

// Availability lists provider names per access mode for one region.
type Availability struct {
	Stream []string `bson:"stream" json:"stream"`
	Rent   []string `bson:"rent" json:"rent"`
	Buy    []string `bson:"buy" json:"buy"`
}

// CatalogDocument is the normalized, stored form of one catalog record.
// ID is the decimal string of the source id, so re-ingesting the same
// record always upserts in place instead of inserting a duplicate.
type CatalogDocument struct {
	ID                  string                  `bson:"_id" json:"id"`
	Title               string                  `bson:"title" json:"title"`
	TitleLower          string                  `bson:"title_lower" json:"title_lower"`
	OriginalTitle       string                  `bson:"original_title" json:"original_title"`
	Tagline             string                  `bson:"tagline" json:"tagline"`
	Overview            string                  `bson:"overview" json:"overview"`
	Runtime             int                     `bson:"runtime" json:"runtime"`
	ReleaseDate         string                  `bson:"release_date" json:"release_date"`
	Status              string                  `bson:"status" json:"status"`
	OriginalLanguage    string                  `bson:"original_language" json:"original_language"`
	VoteAverage         float64                 `bson:"vote_average" json:"vote_average"`
	VoteCount           int                     `bson:"vote_count" json:"vote_count"`
	Popularity          float64                 `bson:"popularity" json:"popularity"`
	Budget              int64                   `bson:"budget" json:"budget"`
	Revenue             int64                   `bson:"revenue" json:"revenue"`
	Genres              []string                `bson:"genres" json:"genres"`
	Keywords            []string                `bson:"keywords" json:"keywords"`
	Directors           []string                `bson:"directors" json:"directors"`
	Writers             []string                `bson:"writers" json:"writers"`
	Producers           []string                `bson:"producers" json:"producers"`
	Creators            []string                `bson:"creators,omitempty" json:"creators,omitempty"`
	Cast                []string                `bson:"cast" json:"cast"`
	CastDetails         []CastMember            `bson:"cast_details" json:"cast_details"`
	Networks            []string                `bson:"networks,omitempty" json:"networks,omitempty"`
	ProductionCompanies []string                `bson:"production_companies" json:"production_companies"`
	WatchProviders      map[string]Availability `bson:"watch_providers" json:"watch_providers"`
	IMDBID              string                  `bson:"imdb_id" json:"imdb_id"`
	SourceID            int                     `bson:"tmdb_id" json:"tmdb_id"`
	Homepage            string                  `bson:"homepage" json:"homepage"`
	PosterPath          string                  `bson:"poster_path" json:"poster_path"`
	BackdropPath        string                  `bson:"backdrop_path" json:"backdrop_path"`
	Vector              []float32               `bson:"vector,omitempty" json:"-"`
	IndexedAt           time.Time               `bson:"indexed_at" json:"indexed_at"`
}

// CrawlCheckpoint records the last fully completed cursor position of one
// crawl domain. It is only written after that unit of work finished, so a
// crash reprocesses the interrupted unit on restart.
type CrawlCheckpoint struct {
	ID         string    `bson:"_id"`
	LastCursor string    `bson:"last_cursor"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// CrawlStats are the running counters reported during a crawl pass.
type CrawlStats struct {
	Processed     int
	Inserted      int
	AlreadyExists int
	NotFound      int
	SkippedShort  int
	SkippedVotes  int
	Errors        int
}
