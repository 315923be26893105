package tmdb

import "cinesearch/internal/models"

// Named is the {id, name} shape the catalog uses for genres, keywords,
// networks and companies.
type Named struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CastCredit struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

type CrewCredit struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

type Credits struct {
	Cast []CastCredit `json:"cast"`
	Crew []CrewCredit `json:"crew"`
}

// KeywordWrap covers both payload shapes: movies nest keywords under
// "keywords", TV under "results".
type KeywordWrap struct {
	Keywords []Named `json:"keywords"`
	Results  []Named `json:"results"`
}

func (k KeywordWrap) All() []Named {
	if len(k.Keywords) > 0 {
		return k.Keywords
	}
	return k.Results
}

type ProviderOffer struct {
	ProviderName string `json:"provider_name"`
}

type RegionOffers struct {
	Flatrate []ProviderOffer `json:"flatrate"`
	Rent     []ProviderOffer `json:"rent"`
	Buy      []ProviderOffer `json:"buy"`
}

type WatchProviders struct {
	Results map[string]RegionOffers `json:"results"`
}

type ExternalIDs struct {
	IMDBID string `json:"imdb_id"`
}

// Record is a full catalog payload. Movie and TV responses differ in a few
// field names (title/name, release_date/first_air_date), so both sets are
// mapped and Kind says which applies.
type Record struct {
	Kind models.MediaKind `json:"-"`

	ID               int     `json:"id"`
	Adult            bool    `json:"adult"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Name             string  `json:"name"`
	OriginalName     string  `json:"original_name"`
	Tagline          string  `json:"tagline"`
	Overview         string  `json:"overview"`
	Runtime          int     `json:"runtime"`
	EpisodeRunTime   []int   `json:"episode_run_time"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	Status           string  `json:"status"`
	OriginalLanguage string  `json:"original_language"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	Budget           int64   `json:"budget"`
	Revenue          int64   `json:"revenue"`

	Genres              []Named        `json:"genres"`
	Keywords            KeywordWrap    `json:"keywords"`
	Credits             Credits        `json:"credits"`
	CreatedBy           []Named        `json:"created_by"`
	Networks            []Named        `json:"networks"`
	ProductionCompanies []Named        `json:"production_companies"`
	Providers           WatchProviders `json:"watch/providers"`
	ExternalIDs         ExternalIDs    `json:"external_ids"`

	Homepage     string `json:"homepage"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

// DisplayTitle returns the title field appropriate for the record's kind.
func (r *Record) DisplayTitle() string {
	if r.Kind == models.KindTV {
		if r.Name != "" {
			return r.Name
		}
		return r.Title
	}
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// ReleaseDay returns the release or first-air date as YYYY-MM-DD.
func (r *Record) ReleaseDay() string {
	if r.Kind == models.KindTV && r.FirstAirDate != "" {
		return r.FirstAirDate
	}
	return r.ReleaseDate
}

// RuntimeMinutes maps TV episode runtimes onto the movie runtime field.
func (r *Record) RuntimeMinutes() int {
	if r.Runtime > 0 {
		return r.Runtime
	}
	if len(r.EpisodeRunTime) > 0 {
		return r.EpisodeRunTime[0]
	}
	return 0
}

// Stub is one discover/changes result row. Only the id (and the adult
// flag) matter; everything else is refetched in full.
type Stub struct {
	ID    int  `json:"id"`
	Adult bool `json:"adult"`
}

// DiscoverPage is one page of a filtered discovery query.
type DiscoverPage struct {
	Page         int    `json:"page"`
	Results      []Stub `json:"results"`
	TotalPages   int    `json:"total_pages"`
	TotalResults int    `json:"total_results"`
}

// ChangesPage is one page of the changes-by-date feed.
type ChangesPage struct {
	Results    []Stub `json:"results"`
	TotalPages int    `json:"total_pages"`
}
