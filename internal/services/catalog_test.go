package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/watchwave/internal/models"
	"github.com/desertthunder/watchwave/internal/shared"
)

type memoryPageCache struct {
	mu    sync.Mutex
	pages map[string]models.Page
}

func (c *memoryPageCache) StorePage(key string, page models.Page) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pages == nil {
		c.pages = make(map[string]models.Page)
	}
	c.pages[key] = page
	return nil
}

func (c *memoryPageCache) LoadPage(key string) (models.Page, time.Time, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pages[key]
	return p, time.Now(), ok, nil
}

func newTestCatalog(t *testing.T, handler http.HandlerFunc, cache PageCache) *CatalogService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewCatalogService(CatalogOpts{
		BaseURL:    server.URL,
		APIKey:     "test_key",
		HTTPClient: server.Client(),
		RateLimit:  1000,
		Attempts:   3,
		RetryDelay: time.Millisecond,
		Cache:      cache,
	})
}

func TestCatalogItem(t *testing.T) {
	t.Run("movie media type", func(t *testing.T) {
		item := CatalogItem{ID: 603, MediaType: "movie", Title: "The Matrix", ReleaseDate: "1999-03-31", VoteAverage: 8.2}
		got, ok := item.ToTitle("")
		if !ok {
			t.Fatal("expected movie to convert")
		}
		if got.Kind != models.KindMovie || got.DisplayName != "The Matrix" || got.ReleaseDate != "1999-03-31" {
			t.Errorf("unexpected title: %+v", got)
		}
	})

	t.Run("tv media type", func(t *testing.T) {
		item := CatalogItem{ID: 1399, MediaType: "tv", Name: "Game of Thrones", FirstAirDate: "2011-04-17"}
		got, ok := item.ToTitle(models.KindMovie)
		if !ok {
			t.Fatal("expected series to convert")
		}
		if got.Kind != models.KindSeries {
			t.Errorf("expected series, got %s", got.Kind)
		}
		if got.DisplayName != "Game of Thrones" || got.Year() != "2011" {
			t.Errorf("unexpected title: %+v", got)
		}
	})

	t.Run("person is dropped", func(t *testing.T) {
		if _, ok := (CatalogItem{ID: 1, MediaType: "person", Name: "Keanu Reeves"}).ToTitle(""); ok {
			t.Error("expected person to be dropped")
		}
	})

	t.Run("fallback kind", func(t *testing.T) {
		got, _ := CatalogItem{ID: 2, Name: "Severance"}.ToTitle(models.KindSeries)
		if got.Kind != models.KindSeries || got.DisplayName != "Severance" {
			t.Errorf("unexpected title: %+v", got)
		}
	})

	t.Run("shape heuristic without fallback", func(t *testing.T) {
		got, _ := CatalogItem{ID: 3, Name: "Dark", FirstAirDate: "2017-12-01"}.ToTitle("")
		if got.Kind != models.KindSeries {
			t.Errorf("expected series from shape, got %s", got.Kind)
		}

		got, _ = CatalogItem{ID: 4, Title: "Heat"}.ToTitle("")
		if got.Kind != models.KindMovie {
			t.Errorf("expected movie from shape, got %s", got.Kind)
		}
	})
}

func TestSortOrder(t *testing.T) {
	tests := []struct {
		sort SortOrder
		kind models.MediaKind
		want string
	}{
		{SortPopularity, models.KindMovie, "popularity.desc"},
		{"", models.KindSeries, "popularity.desc"},
		{SortRating, models.KindMovie, "vote_average.desc"},
		{SortRelease, models.KindMovie, "primary_release_date.desc"},
		{SortRelease, models.KindSeries, "first_air_date.desc"},
		{SortTitle, models.KindMovie, "title.asc"},
		{SortTitle, models.KindSeries, "original_name.asc"},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort)+"/"+string(tt.kind), func(t *testing.T) {
			if got := tt.sort.sortParam(tt.kind); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	for in, want := range map[string]SortOrder{"": SortPopularity, "Rating": SortRating, " title ": SortTitle} {
		got, err := ParseSortOrder(in)
		if err != nil || got != want {
			t.Errorf("ParseSortOrder(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParseSortOrder("random"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}

func TestCatalogService(t *testing.T) {
	ctx := context.Background()

	t.Run("Trending", func(t *testing.T) {
		catalog := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/trending/all/week" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("api_key") != "test_key" {
				t.Errorf("expected api_key param, got %q", q.Get("api_key"))
			}
			if q.Get("language") != "en-US" {
				t.Errorf("expected language en-US, got %q", q.Get("language"))
			}
			if q.Get("page") != "2" {
				t.Errorf("expected page 2, got %q", q.Get("page"))
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"page":2,"total_pages":5,"total_results":100,"results":[
				{"id":603,"media_type":"movie","title":"The Matrix","release_date":"1999-03-31","vote_average":8.2},
				{"id":1399,"media_type":"tv","name":"Game of Thrones","first_air_date":"2011-04-17"},
				{"id":6384,"media_type":"person","name":"Keanu Reeves"}
			]}`))
		}, nil)

		page, err := catalog.Trending(ctx, "", 2)
		if err != nil {
			t.Fatalf("Trending failed: %v", err)
		}

		if len(page.Results) != 2 {
			t.Fatalf("expected 2 results after dropping people, got %d", len(page.Results))
		}
		if page.Results[0].Kind != models.KindMovie || page.Results[1].Kind != models.KindSeries {
			t.Errorf("unexpected kinds: %s, %s", page.Results[0].Kind, page.Results[1].Kind)
		}
		if !page.HasMore() {
			t.Error("expected more pages")
		}
	})

	t.Run("TopRated series uses fallback kind", func(t *testing.T) {
		catalog := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/tv/top_rated" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"page":1,"total_pages":1,"results":[{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20"}]}`))
		}, nil)

		page, err := catalog.TopRated(ctx, models.KindSeries, 1)
		if err != nil {
			t.Fatalf("TopRated failed: %v", err)
		}
		if len(page.Results) != 1 || page.Results[0].Kind != models.KindSeries {
			t.Fatalf("unexpected results: %+v", page.Results)
		}
		if page.Results[0].DisplayName != "Breaking Bad" {
			t.Errorf("expected Breaking Bad, got %s", page.Results[0].DisplayName)
		}
	})

	t.Run("Discover", func(t *testing.T) {
		catalog := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/discover/tv" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("sort_by") != "original_name.asc" {
				t.Errorf("expected sort_by original_name.asc, got %q", q.Get("sort_by"))
			}
			if q.Get("with_genres") != "18,80" {
				t.Errorf("expected with_genres 18,80, got %q", q.Get("with_genres"))
			}
			if q.Get("with_networks") != "213" {
				t.Errorf("expected with_networks 213, got %q", q.Get("with_networks"))
			}
			if q.Get("first_air_date_year") != "2019" {
				t.Errorf("expected first_air_date_year 2019, got %q", q.Get("first_air_date_year"))
			}
			w.Write([]byte(`{"page":1,"total_pages":1,"results":[]}`))
		}, nil)

		_, err := catalog.Discover(ctx, models.KindSeries, Filters{
			Genres:   []int{18, 80},
			Networks: []int{213},
			Year:     2019,
			Sort:     SortTitle,
		})
		if err != nil {
			t.Fatalf("Discover failed: %v", err)
		}
	})

	t.Run("Search empty query skips request", func(t *testing.T) {
		var hits atomic.Int32
		catalog := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}, nil)

		page, err := catalog.Search(ctx, "   ", 1)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(page.Results) != 0 {
			t.Errorf("expected no results, got %d", len(page.Results))
		}
		if hits.Load() != 0 {
			t.Errorf("expected no requests, got %d", hits.Load())
		}
	})

	t.Run("Search", func(t *testing.T) {
		catalog := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search/multi" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("query") != "matrix" {
				t.Errorf("expected query matrix, got %q", r.URL.Query().Get("query"))
			}
			w.Write([]byte(`{"page":1,"total_pages":1,"results":[{"id":603,"media_type":"movie","title":"The Matrix"}]}`))
		}, nil)

		page, err := catalog.Search(ctx, " matrix ", 1)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(page.Results) != 1 || page.Results[0].ID != 603 {
			t.Errorf("unexpected results: %+v", page.Results)
		}
	})

	t.Run("Details", func(t *testing.T) {
		catalog := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/movie/603" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"id":603,"title":"The Matrix","overview":"A hacker learns the truth.","release_date":"1999-03-31"}`))
		}, nil)

		title, err := catalog.Details(ctx, models.KindMovie, 603)
		if err != nil {
			t.Fatalf("Details failed: %v", err)
		}
		if title.DisplayName != "The Matrix" || title.Kind != models.KindMovie {
			t.Errorf("unexpected title: %+v", title)
		}
	})

	t.Run("Details not found", func(t *testing.T) {
		catalog := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found."}`))
		}, nil)

		_, err := catalog.Details(ctx, models.KindSeries, 1)
		if !errors.Is(err, shared.ErrTitleNotFound) {
			t.Errorf("expected ErrTitleNotFound, got %v", err)
		}
	})

	t.Run("Genres", func(t *testing.T) {
		catalog := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/genre/movie/list" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"genres":[{"id":28,"name":"Action"},{"id":35,"name":"Comedy"}]}`))
		}, nil)

		genres, err := catalog.Genres(ctx, models.KindMovie)
		if err != nil {
			t.Fatalf("Genres failed: %v", err)
		}
		if len(genres) != 2 || genres[0].Name != "Action" {
			t.Errorf("unexpected genres: %+v", genres)
		}
	})

	t.Run("retries server errors", func(t *testing.T) {
		var hits atomic.Int32
		catalog := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{"page":1,"total_pages":1,"results":[]}`))
		}, nil)

		if _, err := catalog.Upcoming(ctx, 1); err != nil {
			t.Fatalf("expected success after retries, got %v", err)
		}
		if hits.Load() != 3 {
			t.Errorf("expected 3 attempts, got %d", hits.Load())
		}
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var hits atomic.Int32
		catalog := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"status_code":7,"status_message":"Invalid API key: You must be granted a valid key."}`))
		}, nil)

		_, err := catalog.Upcoming(ctx, 1)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if msg, ok := RemoteMessage(err); !ok || msg != "Invalid API key: You must be granted a valid key." {
			t.Errorf("expected catalog status message, got %q", msg)
		}
		if hits.Load() != 1 {
			t.Errorf("expected a single attempt, got %d", hits.Load())
		}
	})

	t.Run("serves cached page when catalog fails", func(t *testing.T) {
		var fail atomic.Bool
		cache := &memoryPageCache{}
		catalog := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			if fail.Load() {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`{"page":1,"total_pages":1,"results":[{"id":603,"title":"The Matrix"}]}`))
		}, cache)

		first, err := catalog.TopRated(ctx, models.KindMovie, 1)
		if err != nil {
			t.Fatalf("TopRated failed: %v", err)
		}
		if first.FromCache {
			t.Error("fresh page should not be marked as cached")
		}

		fail.Store(true)
		second, err := catalog.TopRated(ctx, models.KindMovie, 1)
		if err != nil {
			t.Fatalf("expected cached fallback, got %v", err)
		}
		if !second.FromCache {
			t.Error("expected page to be marked as cached")
		}
		if len(second.Results) != 1 || second.Results[0].ID != 603 {
			t.Errorf("unexpected cached results: %+v", second.Results)
		}

		if _, err := catalog.TopRated(ctx, models.KindMovie, 2); err == nil {
			t.Error("expected error for uncached page")
		}
	})
}
