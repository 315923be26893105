// Package crawl implements the checkpointed crawl driver: the state
// machine that walks a crawl domain (dates, pages or vote buckets),
// funnels each record through normalization, embedding and upsert, and
// persists forward progress so a restart resumes where it left off.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"cinesearch/internal/autocomplete"
	"cinesearch/internal/config"
	"cinesearch/internal/models"
	"cinesearch/internal/normalizer"
	"cinesearch/internal/tmdb"
)

const dayFormat = "2006-01-02"

// Source is the catalog feed the driver consumes.
type Source interface {
	Fetch(ctx context.Context, kind models.MediaKind, id int) (*tmdb.Record, error)
	Discover(ctx context.Context, kind models.MediaKind, f tmdb.DiscoverFilter, page int) (*tmdb.DiscoverPage, error)
	Changes(ctx context.Context, kind models.MediaKind, date string, page int) (*tmdb.ChangesPage, error)
}

// DocumentStore is the catalog collection the driver writes into.
type DocumentStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	Upsert(ctx context.Context, doc *models.CatalogDocument) error
}

// CheckpointStore persists the last fully completed cursor per domain.
type CheckpointStore interface {
	Save(ctx context.Context, key, cursor string) error
	Load(ctx context.Context, key string) (string, error)
}

// Embedder produces the document vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SuggestionSink receives flattened autocomplete candidates.
type SuggestionSink interface {
	Add(e autocomplete.Entry) error
	Flush() error
}

// Options wires a Driver.
type Options struct {
	Source      Source
	Documents   DocumentStore
	Checkpoints CheckpointStore
	Embedder    Embedder
	Suggestions SuggestionSink
	Config      config.CrawlConfig
	Kind        models.MediaKind
	Policy      Policy
	Log         *logrus.Logger
	Now         func() time.Time
}

// Driver walks one crawl domain sequentially. All adapter calls block the
// loop; unit N+1 never starts before unit N's checkpoint write.
type Driver struct {
	source      Source
	docs        DocumentStore
	checkpoints CheckpointStore
	embedder    Embedder
	sink        SuggestionSink
	cfg         config.CrawlConfig
	kind        models.MediaKind
	policy      Policy
	log         *logrus.Logger
	now         func() time.Time

	stats models.CrawlStats
}

func New(opts Options) *Driver {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Driver{
		source:      opts.Source,
		docs:        opts.Documents,
		checkpoints: opts.Checkpoints,
		embedder:    opts.Embedder,
		sink:        opts.Suggestions,
		cfg:         opts.Config,
		kind:        opts.Kind,
		policy:      opts.Policy,
		log:         opts.Log,
		now:         now,
	}
}

// Stats returns the counters accumulated so far.
func (d *Driver) Stats() models.CrawlStats { return d.stats }

// RunByDate walks calendar days from the configured start down to the
// floor, one day per checkpoint unit. Each day is paginated internally.
func (d *Driver) RunByDate(ctx context.Context) error {
	defer d.finish()

	key := "date_" + string(d.kind)
	start, err := time.Parse(dayFormat, d.cfg.StartDate)
	if err != nil {
		return fmt.Errorf("bad start_date %q: %w", d.cfg.StartDate, err)
	}
	floor, err := time.Parse(dayFormat, d.cfg.FloorDate)
	if err != nil {
		return fmt.Errorf("bad floor_date %q: %w", d.cfg.FloorDate, err)
	}

	if cursor, err := d.checkpoints.Load(ctx, key); err != nil {
		return fmt.Errorf("loading checkpoint %s: %w", key, err)
	} else if cursor != "" {
		last, err := time.Parse(dayFormat, cursor)
		if err != nil {
			return fmt.Errorf("bad checkpoint cursor %q: %w", cursor, err)
		}
		// The checkpointed day completed; the walk is descending, so the
		// next unit is the day before it.
		start = last.AddDate(0, 0, -1)
		d.log.WithField("resume_from", start.Format(dayFormat)).Info("resuming date crawl")
	}

	for day := start; !day.Before(floor); day = day.AddDate(0, 0, -1) {
		if err := ctx.Err(); err != nil {
			return err
		}
		date := day.Format(dayFormat)
		if err := d.processDay(ctx, date); err != nil {
			return fmt.Errorf("unit %s failed: %w", date, err)
		}
		if err := d.checkpoints.Save(ctx, key, date); err != nil {
			d.log.WithError(err).WithField("cursor", date).Error("checkpoint write failed")
		}
		d.pause(ctx)
	}
	return nil
}

func (d *Driver) processDay(ctx context.Context, date string) error {
	filter := tmdb.DiscoverFilter{
		MinRuntime: d.policy.MinRuntime,
		DateMin:    date,
		DateMax:    date,
	}

	first, err := d.source.Discover(ctx, d.kind, filter, 1)
	if err != nil {
		return err
	}
	if first.TotalResults == 0 {
		return nil
	}

	totalPages := first.TotalPages
	if totalPages > d.cfg.PageCap {
		d.log.WithFields(logrus.Fields{
			"date":  date,
			"pages": totalPages,
			"cap":   d.cfg.PageCap,
		}).Warn("day exceeds source pagination ceiling, capping")
		totalPages = d.cfg.PageCap
	}

	d.log.WithFields(logrus.Fields{
		"date":    date,
		"results": first.TotalResults,
		"pages":   totalPages,
	}).Info("processing day")

	page := first
	for n := 1; n <= totalPages; n++ {
		if n > 1 {
			page, err = d.source.Discover(ctx, d.kind, filter, n)
			if err != nil {
				return err
			}
		}
		if len(page.Results) == 0 {
			return nil
		}
		if err := d.processStubs(ctx, page.Results); err != nil {
			return err
		}
		d.pause(ctx)
	}
	return nil
}

// RunByPages walks a single filtered discovery query page by page. One
// page is one checkpoint unit.
func (d *Driver) RunByPages(ctx context.Context, filter tmdb.DiscoverFilter) error {
	defer d.finish()

	key := "pages_" + string(d.kind)
	page := 1
	if cursor, err := d.checkpoints.Load(ctx, key); err != nil {
		return fmt.Errorf("loading checkpoint %s: %w", key, err)
	} else if cursor != "" {
		last, err := strconv.Atoi(cursor)
		if err != nil {
			return fmt.Errorf("bad checkpoint cursor %q: %w", cursor, err)
		}
		page = last + 1
		d.log.WithField("resume_from", page).Info("resuming page crawl")
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		pg, err := d.source.Discover(ctx, d.kind, filter, page)
		if err != nil {
			return fmt.Errorf("unit page %d failed: %w", page, err)
		}
		if len(pg.Results) == 0 {
			return nil
		}
		if err := d.processStubs(ctx, pg.Results); err != nil {
			return err
		}
		if err := d.checkpoints.Save(ctx, key, strconv.Itoa(page)); err != nil {
			d.log.WithError(err).WithField("cursor", page).Error("checkpoint write failed")
		}
		if page >= pg.TotalPages {
			return nil
		}
		page++
		d.pause(ctx)
	}
}

// RunByBuckets partitions the vote-average axis into fixed-width buckets
// and paginates each bucket to exhaustion before advancing. This routes
// around the source's per-query result ceiling: a narrow enough bucket
// stays under the cap that a single unfiltered query would hit.
func (d *Driver) RunByBuckets(ctx context.Context) error {
	defer d.finish()

	key := "buckets_" + string(d.kind)
	lo := d.cfg.BucketMin
	if cursor, err := d.checkpoints.Load(ctx, key); err != nil {
		return fmt.Errorf("loading checkpoint %s: %w", key, err)
	} else if cursor != "" {
		last, err := strconv.ParseFloat(cursor, 64)
		if err != nil {
			return fmt.Errorf("bad checkpoint cursor %q: %w", cursor, err)
		}
		lo = last + d.cfg.BucketWidth
		d.log.WithField("resume_from", lo).Info("resuming bucket crawl")
	}

	for ; lo < d.cfg.BucketMax; lo += d.cfg.BucketWidth {
		if err := ctx.Err(); err != nil {
			return err
		}
		hi := lo + d.cfg.BucketWidth
		if hi > d.cfg.BucketMax {
			hi = d.cfg.BucketMax
		}
		cursor := strconv.FormatFloat(lo, 'f', -1, 64)
		if err := d.processBucket(ctx, lo, hi); err != nil {
			return fmt.Errorf("unit bucket %s failed: %w", cursor, err)
		}
		if err := d.checkpoints.Save(ctx, key, cursor); err != nil {
			d.log.WithError(err).WithField("cursor", cursor).Error("checkpoint write failed")
		}
		d.pause(ctx)
	}
	return nil
}

func (d *Driver) processBucket(ctx context.Context, lo, hi float64) error {
	filter := tmdb.DiscoverFilter{
		MinRuntime:     d.policy.MinRuntime,
		VoteAverageGTE: lo,
		VoteAverageLTE: hi,
	}

	page := 1
	for {
		pg, err := d.source.Discover(ctx, d.kind, filter, page)
		if err != nil {
			return err
		}
		if page == 1 && pg.TotalResults > d.cfg.ResultCap {
			d.log.WithFields(logrus.Fields{
				"bucket_lo": lo,
				"bucket_hi": hi,
				"results":   pg.TotalResults,
				"cap":       d.cfg.ResultCap,
			}).Warn("bucket still exceeds result cap, narrow bucket_width to cover it fully")
		}
		if len(pg.Results) == 0 {
			return nil
		}
		if err := d.processStubs(ctx, pg.Results); err != nil {
			return err
		}
		totalPages := pg.TotalPages
		if totalPages > d.cfg.PageCap {
			totalPages = d.cfg.PageCap
		}
		if page >= totalPages {
			return nil
		}
		page++
		d.pause(ctx)
	}
}

// RunChanges walks the changes-by-date feed forward from the checkpoint
// to today, refetching and overwriting every changed record.
func (d *Driver) RunChanges(ctx context.Context) error {
	defer d.finish()

	key := "changes_" + string(d.kind)
	today := d.now().UTC().Truncate(24 * time.Hour)
	start := today
	if cursor, err := d.checkpoints.Load(ctx, key); err != nil {
		return fmt.Errorf("loading checkpoint %s: %w", key, err)
	} else if cursor != "" {
		last, err := time.Parse(dayFormat, cursor)
		if err != nil {
			return fmt.Errorf("bad checkpoint cursor %q: %w", cursor, err)
		}
		start = last.AddDate(0, 0, 1)
	}
	if start.After(today) {
		d.log.Info("changes feed is up to date")
		return nil
	}

	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return err
		}
		date := day.Format(dayFormat)
		ids, err := d.changedIDs(ctx, date)
		if err != nil {
			return fmt.Errorf("unit %s failed: %w", date, err)
		}
		d.log.WithFields(logrus.Fields{"date": date, "changed": len(ids)}).Info("processing changes")
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			d.processRecord(ctx, tmdb.Stub{ID: id})
			d.maybeLogStats()
		}
		if err := d.checkpoints.Save(ctx, key, date); err != nil {
			d.log.WithError(err).WithField("cursor", date).Error("checkpoint write failed")
		}
		d.pause(ctx)
	}
	return nil
}

func (d *Driver) changedIDs(ctx context.Context, date string) ([]int, error) {
	seen := make(map[int]struct{})
	var ids []int
	for page := 1; page <= d.cfg.ChangesPageCap; page++ {
		pg, err := d.source.Changes(ctx, d.kind, date, page)
		if err != nil {
			return nil, err
		}
		if len(pg.Results) == 0 {
			break
		}
		for _, stub := range pg.Results {
			if d.policy.ExcludeAdult && stub.Adult {
				continue
			}
			if _, ok := seen[stub.ID]; ok {
				continue
			}
			seen[stub.ID] = struct{}{}
			ids = append(ids, stub.ID)
		}
		if page >= pg.TotalPages {
			break
		}
		d.pause(ctx)
	}
	return ids, nil
}

// processStubs handles every record of one page. Only cancellation stops
// it early; individual record failures are tallied and skipped.
func (d *Driver) processStubs(ctx context.Context, stubs []tmdb.Stub) error {
	for _, stub := range stubs {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.processRecord(ctx, stub)
		d.maybeLogStats()
	}
	return nil
}

func (d *Driver) processRecord(ctx context.Context, stub tmdb.Stub) {
	d.stats.Processed++

	if d.policy.ExcludeAdult && stub.Adult {
		return
	}

	id := normalizer.DocumentID(stub.ID)
	if d.policy.SkipIfExists {
		exists, err := d.docs.Exists(ctx, id)
		if err != nil {
			d.stats.Errors++
			d.log.WithError(err).WithField("id", id).Warn("existence check failed")
			return
		}
		if exists {
			d.stats.AlreadyExists++
			return
		}
	}

	rec, err := d.source.Fetch(ctx, d.kind, stub.ID)
	if errors.Is(err, tmdb.ErrNotFound) {
		d.stats.NotFound++
		return
	}
	if err != nil {
		d.stats.Errors++
		d.log.WithError(err).WithField("id", id).Warn("fetch failed")
		return
	}

	if d.policy.MinRuntime > 0 && rec.RuntimeMinutes() < d.policy.MinRuntime {
		d.stats.SkippedShort++
		return
	}
	if d.policy.AgeVoteFilter && underVoteThreshold(rec, d.policy.MinVotes, d.now()) {
		d.stats.SkippedVotes++
		return
	}

	vector, err := d.embedder.Embed(ctx, normalizer.EmbeddingText(rec))
	if err != nil {
		// No partial document: a record without a vector is not written.
		d.stats.Errors++
		d.log.WithError(err).WithField("id", id).Warn("embedding failed")
		return
	}

	doc := normalizer.Normalize(rec, vector, d.cfg.Regions, d.now())
	if err := d.docs.Upsert(ctx, doc); err != nil {
		d.stats.Errors++
		d.log.WithError(err).WithField("id", id).Warn("upsert failed")
		return
	}
	d.stats.Inserted++

	for _, e := range autocomplete.FromRecord(rec) {
		if err := d.sink.Add(e); err != nil {
			d.log.WithError(err).Warn("autocomplete checkpoint failed")
		}
	}
}

// pause applies the cooperative inter-request delay, cut short by
// cancellation.
func (d *Driver) pause(ctx context.Context) {
	if d.cfg.DelayMS <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(d.cfg.DelayMS) * time.Millisecond):
	}
}

func (d *Driver) maybeLogStats() {
	if d.cfg.StatsInterval > 0 && d.stats.Processed%d.cfg.StatsInterval == 0 {
		d.logStats("crawl progress")
	}
}

func (d *Driver) logStats(msg string) {
	d.log.WithFields(logrus.Fields{
		"kind":           d.kind,
		"processed":      d.stats.Processed,
		"inserted":       d.stats.Inserted,
		"already_exists": d.stats.AlreadyExists,
		"not_found":      d.stats.NotFound,
		"skipped_short":  d.stats.SkippedShort,
		"skipped_votes":  d.stats.SkippedVotes,
		"errors":         d.stats.Errors,
	}).Info(msg)
}

// finish flushes buffered autocomplete entries and reports final stats.
// Runs on every termination path, including cancellation, so nothing
// accumulated in memory is lost.
func (d *Driver) finish() {
	if err := d.sink.Flush(); err != nil {
		d.log.WithError(err).Error("final autocomplete flush failed")
	}
	d.logStats("crawl finished")
}
