// Remote watchlist endpoint on the auth service host
package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/watchwave/internal/models"
	"github.com/desertthunder/watchwave/internal/shared"
	"golang.org/x/oauth2"
)

const watchlistCreatePath = "/watchlist/create"

// WatchlistEntry is the body of POST /watchlist/create.
type WatchlistEntry struct {
	TMDBID      int    `json:"tmdb_id"`
	Title       string `json:"title"`
	PosterPath  string `json:"poster_path,omitempty"`
	Overview    string `json:"overview,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
}

// NewWatchlistEntry builds the request body for t.
func NewWatchlistEntry(t models.Title) WatchlistEntry {
	return WatchlistEntry{
		TMDBID:      t.ID,
		Title:       t.DisplayName,
		PosterPath:  t.PosterPath,
		Overview:    t.Overview,
		ReleaseDate: t.ReleaseDate,
	}
}

// WatchlistService mirrors watchlist additions to the remote service.
//
// The bearer credential is pulled from tokens on every call, so a logout takes effect immediately.
type WatchlistService struct {
	api    *APIClient
	tokens oauth2.TokenSource
}

// NewWatchlistService creates a new [WatchlistService].
func NewWatchlistService(api *APIClient, tokens oauth2.TokenSource) *WatchlistService {
	return &WatchlistService{api: api, tokens: tokens}
}

// Create records t on the remote watchlist.
//
// A duplicate is reported as an error wrapping [shared.ErrAlreadyExists].
func (s *WatchlistService) Create(ctx context.Context, t models.Title) error {
	if s.tokens == nil {
		return shared.ErrNotAuthenticated
	}
	tok, err := s.tokens.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	client := BearerClient(ctx, s.api.HTTPClient(), oauth2.StaticTokenSource(tok))

	resp, err := s.api.WithHTTPClient(client).PostJSON(ctx, watchlistCreatePath, NewWatchlistEntry(t))
	if err != nil {
		return err
	}

	if err := resp.Err(); err != nil {
		msg, _ := RemoteMessage(err)
		if resp.StatusCode == http.StatusConflict || strings.Contains(strings.ToLower(msg), "already exists") {
			return fmt.Errorf("%w: %w", shared.ErrAlreadyExists, err)
		}
		return err
	}

	return nil
}
