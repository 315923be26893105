// Package normalizer turns raw catalog payloads into the canonical stored
// document shape. Everything here is deterministic and I/O free.
package normalizer

import (
	"strconv"
	"strings"
	"time"

	"cinesearch/internal/models"
	"cinesearch/internal/tmdb"
)

const (
	maxCastDetails  = 20
	maxEmbedCast    = 5
	maxEmbedKeyword = 20
	maxCompanies    = 3
	maxWriters      = 5
	maxProducers    = 5
	maxBackfillCast = 10
	maxBackfillKw   = 10
)

// DocumentID derives the stable upsert key for a source id. The same
// source id always yields the same key.
func DocumentID(sourceID int) string {
	return strconv.Itoa(sourceID)
}

func names(list []tmdb.Named) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		if n.Name != "" {
			out = append(out, n.Name)
		}
	}
	return out
}

func uniqueOrdered(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func crewByJob(crew []tmdb.CrewCredit, job string) []string {
	var out []string
	for _, c := range crew {
		if c.Job == job {
			out = append(out, c.Name)
		}
	}
	return out
}

func crewByDepartment(crew []tmdb.CrewCredit, dept string, limit int) []string {
	var out []string
	for _, c := range crew {
		if c.Department == dept {
			out = append(out, c.Name)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func providerNames(offers []tmdb.ProviderOffer) []string {
	out := make([]string, 0, len(offers))
	for _, o := range offers {
		out = append(out, o.ProviderName)
	}
	return out
}

// EmbeddingText builds the text fed to the embedding model. The field
// order is fixed: vectors are only comparable when every call site builds
// the same sequence.
func EmbeddingText(rec *tmdb.Record) string {
	var parts []string
	parts = append(parts, "Title: "+rec.DisplayTitle())
	if rec.Tagline != "" {
		parts = append(parts, "Tagline: "+rec.Tagline)
	}
	if rec.Overview != "" {
		parts = append(parts, "Overview: "+rec.Overview)
	}
	if g := names(rec.Genres); len(g) > 0 {
		parts = append(parts, "Genres: "+strings.Join(g, ", "))
	}
	if kw := names(rec.Keywords.All()); len(kw) > 0 {
		if len(kw) > maxEmbedKeyword {
			kw = kw[:maxEmbedKeyword]
		}
		parts = append(parts, "Keywords: "+strings.Join(kw, ", "))
	}
	if rec.Kind == models.KindTV {
		if creators := names(rec.CreatedBy); len(creators) > 0 {
			parts = append(parts, "Creator: "+strings.Join(creators, ", "))
		}
	} else {
		if directors := crewByJob(rec.Credits.Crew, "Director"); len(directors) > 0 {
			parts = append(parts, "Director: "+strings.Join(directors, ", "))
		}
	}
	if len(rec.Credits.Cast) > 0 {
		top := rec.Credits.Cast
		if len(top) > maxEmbedCast {
			top = top[:maxEmbedCast]
		}
		cast := make([]string, 0, len(top))
		for _, c := range top {
			cast = append(cast, c.Name)
		}
		parts = append(parts, "Starring: "+strings.Join(cast, ", "))
	}
	if companies := names(rec.ProductionCompanies); len(companies) > 0 {
		if len(companies) > maxCompanies {
			companies = companies[:maxCompanies]
		}
		parts = append(parts, "Production: "+strings.Join(companies, ", "))
	}
	return strings.Join(parts, "\n")
}

// DocumentEmbeddingText rebuilds embedding input from an already stored
// document. Used only by the vector backfill pass, which has no raw
// payload to work from.
func DocumentEmbeddingText(doc *models.CatalogDocument) string {
	var parts []string
	if doc.Title != "" {
		parts = append(parts, "Title: "+doc.Title)
	}
	if doc.Tagline != "" {
		parts = append(parts, "Tagline: "+doc.Tagline)
	}
	if doc.Overview != "" {
		parts = append(parts, "Overview: "+doc.Overview)
	}
	if len(doc.Genres) > 0 {
		parts = append(parts, "Genres: "+strings.Join(doc.Genres, ", "))
	}
	if len(doc.Cast) > 0 {
		cast := doc.Cast
		if len(cast) > maxBackfillCast {
			cast = cast[:maxBackfillCast]
		}
		parts = append(parts, "Cast: "+strings.Join(cast, ", "))
	}
	if len(doc.Directors) > 0 {
		parts = append(parts, "Directors: "+strings.Join(doc.Directors, ", "))
	}
	if len(doc.Keywords) > 0 {
		kw := doc.Keywords
		if len(kw) > maxBackfillKw {
			kw = kw[:maxBackfillKw]
		}
		parts = append(parts, "Keywords: "+strings.Join(kw, ", "))
	}
	return strings.Join(parts, " | ")
}

// Normalize maps one catalog record plus its embedding onto the canonical
// document. Missing optional fields become empty containers, never errors.
func Normalize(rec *tmdb.Record, vector []float32, regions []string, now time.Time) *models.CatalogDocument {
	title := rec.DisplayTitle()

	castCredits := rec.Credits.Cast
	if len(castCredits) > maxCastDetails {
		castCredits = castCredits[:maxCastDetails]
	}
	castDetails := make([]models.CastMember, 0, len(castCredits))
	castNames := make([]string, 0, len(castCredits))
	for _, c := range castCredits {
		castDetails = append(castDetails, models.CastMember{
			Name:       c.Name,
			Character:  c.Character,
			Order:      c.Order,
			SearchName: strings.ToLower(c.Name),
		})
		castNames = append(castNames, c.Name)
	}

	watch := make(map[string]models.Availability, len(regions))
	for _, region := range regions {
		offers, ok := rec.Providers.Results[region]
		if !ok {
			continue
		}
		watch[region] = models.Availability{
			Stream: providerNames(offers.Flatrate),
			Rent:   providerNames(offers.Rent),
			Buy:    providerNames(offers.Buy),
		}
	}

	originalTitle := rec.OriginalTitle
	if rec.Kind == models.KindTV && rec.OriginalName != "" {
		originalTitle = rec.OriginalName
	}

	doc := &models.CatalogDocument{
		ID:                  DocumentID(rec.ID),
		Title:               title,
		TitleLower:          strings.ToLower(title),
		OriginalTitle:       originalTitle,
		Tagline:             rec.Tagline,
		Overview:            rec.Overview,
		Runtime:             rec.RuntimeMinutes(),
		ReleaseDate:         rec.ReleaseDay(),
		Status:              rec.Status,
		OriginalLanguage:    rec.OriginalLanguage,
		VoteAverage:         rec.VoteAverage,
		VoteCount:           rec.VoteCount,
		Popularity:          rec.Popularity,
		Budget:              rec.Budget,
		Revenue:             rec.Revenue,
		Genres:              uniqueOrdered(names(rec.Genres)),
		Keywords:            names(rec.Keywords.All()),
		Directors:           crewByJob(rec.Credits.Crew, "Director"),
		Writers:             crewByDepartment(rec.Credits.Crew, "Writing", maxWriters),
		Producers:           crewByJobLimit(rec.Credits.Crew, "Producer", maxProducers),
		Cast:                castNames,
		CastDetails:         castDetails,
		ProductionCompanies: names(rec.ProductionCompanies),
		WatchProviders:      watch,
		IMDBID:              rec.ExternalIDs.IMDBID,
		SourceID:            rec.ID,
		Homepage:            rec.Homepage,
		PosterPath:          rec.PosterPath,
		BackdropPath:        rec.BackdropPath,
		Vector:              vector,
		IndexedAt:           now.UTC(),
	}
	if rec.Kind == models.KindTV {
		doc.Creators = names(rec.CreatedBy)
		doc.Networks = names(rec.Networks)
	}
	return doc
}

func crewByJobLimit(crew []tmdb.CrewCredit, job string, limit int) []string {
	out := crewByJob(crew, job)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
