package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"cinesearch/internal/models"
)

// ErrNotFound reports that the catalog no longer has a record for the
// requested id. Callers treat it as a skip, not a failure.
var ErrNotFound = errors.New("tmdb: record not found")

// StatusError is any non-404 error status from the catalog API. These are
// transient from the crawl's point of view: the unit is retried on the
// next full restart, never inline.
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb: %s returned HTTP %d", e.Path, e.Code)
}

const defaultBaseURL = "https://api.themoviedb.org/3"

// Client wraps the catalog's REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

func NewClient(apiKey string, timeout time.Duration, log *logrus.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// DiscoverFilter narrows a discovery query. Zero values are omitted from
// the request.
type DiscoverFilter struct {
	SortBy         string
	IncludeAdult   bool
	MinRuntime     int
	VoteAverageGTE float64
	VoteAverageLTE float64
	VoteCountGTE   int
	DateMin        string
	DateMax        string
}

func (f DiscoverFilter) values(kind models.MediaKind) url.Values {
	v := url.Values{}
	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = "popularity.desc"
	}
	v.Set("sort_by", sortBy)
	v.Set("include_adult", strconv.FormatBool(f.IncludeAdult))
	if f.MinRuntime > 0 {
		v.Set("with_runtime.gte", strconv.Itoa(f.MinRuntime))
	}
	if f.VoteAverageGTE > 0 {
		v.Set("vote_average.gte", strconv.FormatFloat(f.VoteAverageGTE, 'f', -1, 64))
	}
	if f.VoteAverageLTE > 0 {
		v.Set("vote_average.lte", strconv.FormatFloat(f.VoteAverageLTE, 'f', -1, 64))
	}
	if f.VoteCountGTE > 0 {
		v.Set("vote_count.gte", strconv.Itoa(f.VoteCountGTE))
	}
	dateField := "primary_release_date"
	if kind == models.KindTV {
		dateField = "first_air_date"
	}
	if f.DateMin != "" {
		v.Set(dateField+".gte", f.DateMin)
	}
	if f.DateMax != "" {
		v.Set(dateField+".lte", f.DateMax)
	}
	return v
}

// Fetch retrieves the full record for one id, including credits, keywords,
// watch providers and external ids.
func (c *Client) Fetch(ctx context.Context, kind models.MediaKind, id int) (*Record, error) {
	path := fmt.Sprintf("/%s/%d", kind, id)
	v := url.Values{}
	v.Set("language", "en-US")
	v.Set("append_to_response", "credits,keywords,watch/providers,external_ids")

	var rec Record
	if err := c.get(ctx, path, v, &rec); err != nil {
		return nil, err
	}
	rec.Kind = kind
	return &rec, nil
}

// Discover returns one page of the filtered discovery listing.
func (c *Client) Discover(ctx context.Context, kind models.MediaKind, f DiscoverFilter, page int) (*DiscoverPage, error) {
	v := f.values(kind)
	v.Set("language", "en-US")
	v.Set("page", strconv.Itoa(page))

	var out DiscoverPage
	if err := c.get(ctx, fmt.Sprintf("/discover/%s", kind), v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Changes returns one page of ids that changed on the given date.
func (c *Client) Changes(ctx context.Context, kind models.MediaKind, date string, page int) (*ChangesPage, error) {
	v := url.Values{}
	v.Set("start_date", date)
	v.Set("end_date", date)
	v.Set("page", strconv.Itoa(page))

	var out ChangesPage
	if err := c.get(ctx, fmt.Sprintf("/%s/changes", kind), v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, v url.Values, out interface{}) error {
	v.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + v.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.WithError(err).Warn("failed to close response body")
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return &StatusError{Code: resp.StatusCode, Path: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
