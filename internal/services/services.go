// package services defines the interfaces for the remote services watchwave talks to
//
// TMDB catalog, auth service, remote watchlist
package services

import (
	"context"

	"github.com/desertthunder/watchwave/internal/models"
)

// Catalog is a read-only source of movie and series metadata.
type Catalog interface {
	// Trending returns this week's trending titles. An empty kind covers both movies and series.
	Trending(ctx context.Context, kind models.MediaKind, page int) (*models.Page, error)

	// TopRated returns the highest rated titles of kind.
	TopRated(ctx context.Context, kind models.MediaKind, page int) (*models.Page, error)

	// Upcoming returns movies about to be released.
	Upcoming(ctx context.Context, page int) (*models.Page, error)

	// Discover lists titles of kind matching the filters.
	Discover(ctx context.Context, kind models.MediaKind, f Filters) (*models.Page, error)

	// Search queries movies and series by free text.
	Search(ctx context.Context, query string, page int) (*models.Page, error)

	// Details returns a single title, or an error wrapping shared.ErrTitleNotFound.
	Details(ctx context.Context, kind models.MediaKind, id int) (*models.Title, error)

	Genres(ctx context.Context, kind models.MediaKind) ([]models.Genre, error)
}

// Authenticator exchanges credentials with the remote auth service.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)

	// Me validates a stored bearer credential.
	Me(ctx context.Context, token string) (*models.User, error)
}

// RemoteWatchlist mirrors watchlist additions to the signed-in user's account.
type RemoteWatchlist interface {
	Create(ctx context.Context, t models.Title) error
}

var (
	_ Catalog         = (*CatalogService)(nil)
	_ Authenticator   = (*AuthService)(nil)
	_ RemoteWatchlist = (*WatchlistService)(nil)
)
