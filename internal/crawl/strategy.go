package crawl

import (
	"time"

	"cinesearch/internal/config"
	"cinesearch/internal/models"
	"cinesearch/internal/tmdb"
)

// Policy is the per-strategy knob set. The source varied these per crawl
// script without documenting why, so they stay explicit configuration
// rather than a single inferred default.
type Policy struct {
	// SkipIfExists treats an already-stored id as handled, saving the
	// embedding cost. Strategies that must pick up source-side edits
	// leave it false and overwrite.
	SkipIfExists bool

	// MinRuntime drops records shorter than this many minutes. 0 disables.
	MinRuntime int

	// AgeVoteFilter drops records older than six months whose vote count
	// is below MinVotes.
	AgeVoteFilter bool
	MinVotes      int

	// ExcludeAdult drops adult-flagged stubs before fetching details.
	ExcludeAdult bool
}

// DatePolicy is the policy of the date-descending walk: skip existing
// records, require a minimum runtime for movies.
func DatePolicy(kind models.MediaKind, cfg config.CrawlConfig) Policy {
	p := Policy{SkipIfExists: true, ExcludeAdult: true}
	if kind == models.KindMovie {
		p.MinRuntime = cfg.MinRuntime
	}
	return p
}

// PagesPolicy is the policy of the single filtered page-ascending walk.
func PagesPolicy(kind models.MediaKind, cfg config.CrawlConfig) Policy {
	p := DatePolicy(kind, cfg)
	p.AgeVoteFilter = true
	p.MinVotes = cfg.MinVotes
	return p
}

// BucketPolicy is the policy of the bucketed vote-range walk.
func BucketPolicy(kind models.MediaKind, cfg config.CrawlConfig) Policy {
	return DatePolicy(kind, cfg)
}

// ChangesPolicy always overwrites: the changes feed exists to pick up
// edits to records we already hold.
func ChangesPolicy() Policy {
	return Policy{SkipIfExists: false, ExcludeAdult: true}
}

// PagesFilter is the discovery filter used by the page-ascending walk.
func PagesFilter(cfg config.CrawlConfig) tmdb.DiscoverFilter {
	return tmdb.DiscoverFilter{
		MinRuntime:     cfg.MinRuntime,
		VoteAverageGTE: 5,
		VoteCountGTE:   cfg.MinVotes,
	}
}

const ageVoteWindow = 6 * 30 * 24 * time.Hour

// underVoteThreshold reports whether a record is old enough that a low
// vote count disqualifies it. Recent releases get a grace period to
// collect votes.
func underVoteThreshold(rec *tmdb.Record, minVotes int, now time.Time) bool {
	day := rec.ReleaseDay()
	if day == "" {
		return false
	}
	released, err := time.Parse("2006-01-02", day)
	if err != nil {
		return false
	}
	if now.Sub(released) < ageVoteWindow {
		return false
	}
	return rec.VoteCount < minVotes
}
