// Catalog (TMDB v3) service implementation
//
// Response shapes based on https://developer.themoviedb.org/reference
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/watchwave/internal/models"
	"github.com/desertthunder/watchwave/internal/shared"
	"golang.org/x/time/rate"
)

const defaultCatalogBaseURL = "https://api.themoviedb.org/3"

// CatalogItem is a raw catalog result. Movies carry title/release_date, series carry name/first_air_date.
type CatalogItem struct {
	ID           int     `json:"id"`
	MediaType    string  `json:"media_type"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
}

// ToTitle resolves the item into a [models.Title].
//
// fallback is the kind implied by the endpoint; it is used when the item has no media_type.
// People (media_type "person") report ok=false.
func (c CatalogItem) ToTitle(fallback models.MediaKind) (models.Title, bool) {
	var kind models.MediaKind
	switch c.MediaType {
	case "movie":
		kind = models.KindMovie
	case "tv":
		kind = models.KindSeries
	case "":
		kind = fallback
		if kind == "" {
			kind = models.KindMovie
			if c.Title == "" && (c.Name != "" || c.FirstAirDate != "") {
				kind = models.KindSeries
			}
		}
	default:
		return models.Title{}, false
	}

	t := models.Title{
		ID:           c.ID,
		Kind:         kind,
		PosterPath:   c.PosterPath,
		BackdropPath: c.BackdropPath,
		Overview:     c.Overview,
		VoteAverage:  c.VoteAverage,
	}

	if kind == models.KindSeries {
		t.DisplayName = firstNonEmpty(c.Name, c.Title)
		t.ReleaseDate = firstNonEmpty(c.FirstAirDate, c.ReleaseDate)
	} else {
		t.DisplayName = firstNonEmpty(c.Title, c.Name)
		t.ReleaseDate = firstNonEmpty(c.ReleaseDate, c.FirstAirDate)
	}

	return t, true
}

type catalogPage struct {
	Page         int           `json:"page"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
	Results      []CatalogItem `json:"results"`
}

func (p catalogPage) toPage(fallback models.MediaKind) models.Page {
	out := models.Page{
		Page:         p.Page,
		TotalPages:   p.TotalPages,
		TotalResults: p.TotalResults,
		Results:      make([]models.Title, 0, len(p.Results)),
	}
	for _, item := range p.Results {
		if t, ok := item.ToTitle(fallback); ok {
			out.Results = append(out.Results, t)
		}
	}
	return out
}

// SortOrder is a user-facing discover sort.
type SortOrder string

const (
	SortPopularity SortOrder = "popularity"
	SortRating     SortOrder = "rating"
	SortRelease    SortOrder = "release"
	SortTitle      SortOrder = "title"
)

// ParseSortOrder validates a user-supplied sort name. Blank input selects [SortPopularity].
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return SortPopularity, nil
	case SortPopularity, SortRating, SortRelease, SortTitle:
		return o, nil
	default:
		return "", fmt.Errorf("%w: unknown sort %q", shared.ErrInvalidFlag, s)
	}
}

// sortParam maps a [SortOrder] to the catalog's sort_by value for kind.
func (s SortOrder) sortParam(kind models.MediaKind) string {
	switch s {
	case SortRating:
		return "vote_average.desc"
	case SortRelease:
		if kind == models.KindSeries {
			return "first_air_date.desc"
		}
		return "primary_release_date.desc"
	case SortTitle:
		if kind == models.KindSeries {
			return "original_name.asc"
		}
		return "title.asc"
	default:
		return "popularity.desc"
	}
}

// Filters narrows a discover request.
type Filters struct {
	Genres   []int
	Networks []int
	Year     int
	Sort     SortOrder
	Page     int
}

// PageCache persists catalog pages for offline fallback.
type PageCache interface {
	StorePage(key string, page models.Page) error
	LoadPage(key string) (models.Page, time.Time, bool, error)
}

// CatalogOpts configures a [CatalogService].
type CatalogOpts struct {
	BaseURL    string
	APIKey     string
	Language   string
	HTTPClient *http.Client
	RateLimit  float64       // requests per second
	Attempts   uint          // total attempts per request, including the first
	RetryDelay time.Duration // base delay for exponential backoff
	Cache      PageCache
	Logger     *log.Logger
}

// CatalogService implements [Catalog] against a TMDB-compatible API.
//
// Requests are rate limited and retried with exponential backoff on transport errors, 429 and 5xx responses.
type CatalogService struct {
	api      *APIClient
	apiKey   string
	language string
	limiter  *rate.Limiter
	attempts uint
	delay    time.Duration
	cache    PageCache
	logger   *log.Logger
}

// NewCatalogService creates a new [CatalogService].
func NewCatalogService(opts CatalogOpts) *CatalogService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultCatalogBaseURL
	}
	if opts.Language == "" {
		opts.Language = "en-US"
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 4
	}
	if opts.Attempts == 0 {
		opts.Attempts = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 250 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &CatalogService{
		api:      NewAPIClient(opts.BaseURL, opts.HTTPClient),
		apiKey:   opts.APIKey,
		language: opts.Language,
		limiter:  rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		attempts: opts.Attempts,
		delay:    opts.RetryDelay,
		cache:    opts.Cache,
		logger:   opts.Logger,
	}
}

// Trending returns this week's trending titles. An empty kind covers movies and series.
func (s *CatalogService) Trending(ctx context.Context, kind models.MediaKind, page int) (*models.Page, error) {
	segment := "all"
	if kind != "" {
		segment = kind.CatalogPath()
	}
	return s.listPage(ctx, "/trending/"+segment+"/week", pageQuery(page), kind)
}

// TopRated returns the highest rated titles of kind.
func (s *CatalogService) TopRated(ctx context.Context, kind models.MediaKind, page int) (*models.Page, error) {
	if kind == "" {
		kind = models.KindMovie
	}
	return s.listPage(ctx, "/"+kind.CatalogPath()+"/top_rated", pageQuery(page), kind)
}

// Upcoming returns movies about to be released.
func (s *CatalogService) Upcoming(ctx context.Context, page int) (*models.Page, error) {
	return s.listPage(ctx, "/movie/upcoming", pageQuery(page), models.KindMovie)
}

// Discover lists titles of kind matching f.
func (s *CatalogService) Discover(ctx context.Context, kind models.MediaKind, f Filters) (*models.Page, error) {
	if kind == "" {
		kind = models.KindMovie
	}

	q := pageQuery(f.Page)
	q.Set("sort_by", f.Sort.sortParam(kind))
	if len(f.Genres) > 0 {
		q.Set("with_genres", joinInts(f.Genres))
	}
	if len(f.Networks) > 0 {
		q.Set("with_networks", joinInts(f.Networks))
	}
	if f.Year > 0 {
		if kind == models.KindSeries {
			q.Set("first_air_date_year", strconv.Itoa(f.Year))
		} else {
			q.Set("primary_release_year", strconv.Itoa(f.Year))
		}
	}

	return s.listPage(ctx, "/discover/"+kind.CatalogPath(), q, kind)
}

// Search queries movies and series by free text. People are dropped from the results.
func (s *CatalogService) Search(ctx context.Context, query string, page int) (*models.Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &models.Page{Page: 1, Results: []models.Title{}}, nil
	}

	q := pageQuery(page)
	q.Set("query", query)

	var raw catalogPage
	if err := s.get(ctx, "/search/multi", q, &raw); err != nil {
		return nil, err
	}

	p := raw.toPage("")
	return &p, nil
}

// Details returns a single title.
func (s *CatalogService) Details(ctx context.Context, kind models.MediaKind, id int) (*models.Title, error) {
	if kind == "" {
		kind = models.KindMovie
	}

	var item CatalogItem
	if err := s.get(ctx, fmt.Sprintf("/%s/%d", kind.CatalogPath(), id), nil, &item); err != nil {
		var re *RemoteError
		if errors.As(err, &re) && re.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s %d", shared.ErrTitleNotFound, kind, id)
		}
		return nil, err
	}

	t, _ := item.ToTitle(kind)
	return &t, nil
}

// Genres lists the catalog genres for kind.
func (s *CatalogService) Genres(ctx context.Context, kind models.MediaKind) ([]models.Genre, error) {
	if kind == "" {
		kind = models.KindMovie
	}

	var out struct {
		Genres []models.Genre `json:"genres"`
	}
	if err := s.get(ctx, "/genre/"+kind.CatalogPath()+"/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Genres, nil
}

// listPage fetches a list endpoint, caching successes and falling back to the cache on failure.
func (s *CatalogService) listPage(ctx context.Context, path string, q url.Values, kind models.MediaKind) (*models.Page, error) {
	key := path + "?" + q.Encode()

	var raw catalogPage
	err := s.get(ctx, path, q, &raw)
	if err == nil {
		p := raw.toPage(kind)
		if s.cache != nil {
			if cerr := s.cache.StorePage(key, p); cerr != nil {
				s.logger.Warn("failed to cache catalog page", "key", key, "error", cerr)
			}
		}
		return &p, nil
	}

	if s.cache == nil {
		return nil, err
	}

	cached, fetchedAt, ok, cerr := s.cache.LoadPage(key)
	if cerr != nil || !ok {
		return nil, err
	}

	s.logger.Warn("catalog unavailable, serving cached page", "key", key, "fetched_at", fetchedAt, "error", err)
	cached.FromCache = true
	return &cached, nil
}

// get performs a rate limited, retried GET and decodes the body into out.
func (s *CatalogService) get(ctx context.Context, path string, q url.Values, out any) error {
	if q == nil {
		q = url.Values{}
	}
	if s.apiKey != "" {
		q.Set("api_key", s.apiKey)
	}
	q.Set("language", s.language)

	resp, err := retry.DoWithData(
		func() (*APIResponse, error) {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, retry.Unrecoverable(err)
			}

			resp, err := s.api.Get(ctx, path, q)
			if err != nil {
				return nil, err
			}
			if err := resp.Err(); err != nil {
				if !retryableStatus(resp.StatusCode) {
					return nil, retry.Unrecoverable(err)
				}
				return nil, err
			}
			return resp, nil
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Debug("retrying catalog request", "path", path, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return err
	}

	return resp.Decode(out)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func pageQuery(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": []string{strconv.Itoa(page)}}
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
