// package models defines the data model for the watchwave tracker
package models

import (
	"fmt"
	"strings"
	"time"
)

// MediaKind tags a [Title] as a movie or a series.
type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindSeries MediaKind = "series"
)

// ParseMediaKind accepts the user and catalog spellings of a kind ("movie", "tv", "series", "show").
func ParseMediaKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies", "film":
		return KindMovie, nil
	case "tv", "series", "show", "shows":
		return KindSeries, nil
	default:
		return "", fmt.Errorf("unknown media kind %q", s)
	}
}

// CatalogPath returns the catalog URL segment for the kind ("movie" or "tv").
func (k MediaKind) CatalogPath() string {
	if k == KindSeries {
		return "tv"
	}
	return "movie"
}

// Label returns a human-readable name for the kind.
func (k MediaKind) Label() string {
	if k == KindSeries {
		return "Series"
	}
	return "Movie"
}

// Title is a snapshot of a catalog entry the user has acted on.
//
// Descriptive fields are copied at the time of the action and never refreshed.
type Title struct {
	ID           int       `json:"id"`
	Kind         MediaKind `json:"kind"`
	DisplayName  string    `json:"displayName"`
	PosterPath   string    `json:"posterPath,omitempty"`
	BackdropPath string    `json:"backdropPath,omitempty"`
	Overview     string    `json:"overview,omitempty"`
	ReleaseDate  string    `json:"releaseDate,omitempty"`
	VoteAverage  float64   `json:"voteAverage"`
	PersonalNote string    `json:"personalNote,omitempty"`
	AddedAt      time.Time `json:"addedAt,omitzero"`
}

// Year returns the four-digit release year, or "" when the date is unknown.
func (t Title) Year() string {
	if len(t.ReleaseDate) >= 4 {
		return t.ReleaseDate[:4]
	}
	return ""
}

// Ref returns a "kind:id" reference usable with the import command.
func (t Title) Ref() string {
	return fmt.Sprintf("%s:%d", t.Kind.CatalogPath(), t.ID)
}

// Page is one page of catalog results.
type Page struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"totalPages"`
	TotalResults int     `json:"totalResults"`
	Results      []Title `json:"results"`
	FromCache    bool    `json:"fromCache,omitempty"` // served from the local cache after a failed fetch
}

// HasMore reports whether a following page exists.
func (p Page) HasMore() bool {
	return p.Page < p.TotalPages
}

// Genre is a catalog genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// User is the authenticated identity returned by the auth service.
type User struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Stats holds aggregate figures over the personal collections.
type Stats struct {
	Watched        int     `json:"watched"`
	Watchlist      int     `json:"watchlist"`
	WatchedMovies  int     `json:"watchedMovies"`
	WatchedSeries  int     `json:"watchedSeries"`
	AverageRating  float64 `json:"averageRating"`
	EstimatedHours int     `json:"estimatedHours"`
	Annotated      int     `json:"annotated"` // watched titles carrying a non-empty note
}
