package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/watchwave/internal/models"
	"github.com/desertthunder/watchwave/internal/services"
	"github.com/desertthunder/watchwave/internal/shared"
	"github.com/urfave/cli/v3"
)

// parseKind reads the --kind flag. An empty value is allowed only when allowAll is set.
func parseKind(cmd *cli.Command, allowAll bool) (models.MediaKind, error) {
	raw := strings.TrimSpace(cmd.String("kind"))
	if raw == "" || raw == "all" {
		if allowAll {
			return "", nil
		}
		return models.KindMovie, nil
	}
	kind, err := models.ParseMediaKind(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	return kind, nil
}

// parseID reads the positional id argument.
func parseID(cmd *cli.Command) (int, error) {
	raw := strings.TrimSpace(cmd.StringArg("id"))
	if raw == "" {
		return 0, fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q must be a positive integer", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

// CatalogTrending lists titles trending this week.
func (r *Runner) CatalogTrending(ctx context.Context, cmd *cli.Command) error {
	kind, err := parseKind(cmd, true)
	if err != nil {
		return err
	}

	page, err := r.catalog.Trending(ctx, kind, cmd.Int("page"))
	if err != nil {
		return fmt.Errorf("failed to fetch trending titles: %w", err)
	}
	return r.writePage("Trending", page, cmd.Bool("json"), cmd.Bool("pretty"))
}

// CatalogTopRated lists the highest rated titles of a kind.
func (r *Runner) CatalogTopRated(ctx context.Context, cmd *cli.Command) error {
	kind, err := parseKind(cmd, false)
	if err != nil {
		return err
	}

	page, err := r.catalog.TopRated(ctx, kind, cmd.Int("page"))
	if err != nil {
		return fmt.Errorf("failed to fetch top rated titles: %w", err)
	}
	return r.writePage("Top Rated "+kind.Label(), page, cmd.Bool("json"), cmd.Bool("pretty"))
}

// CatalogUpcoming lists movies about to be released.
func (r *Runner) CatalogUpcoming(ctx context.Context, cmd *cli.Command) error {
	page, err := r.catalog.Upcoming(ctx, cmd.Int("page"))
	if err != nil {
		return fmt.Errorf("failed to fetch upcoming titles: %w", err)
	}
	return r.writePage("Upcoming", page, cmd.Bool("json"), cmd.Bool("pretty"))
}

// CatalogDiscover lists titles matching genre, network and year filters.
func (r *Runner) CatalogDiscover(ctx context.Context, cmd *cli.Command) error {
	kind, err := parseKind(cmd, false)
	if err != nil {
		return err
	}

	sort, err := services.ParseSortOrder(cmd.String("sort"))
	if err != nil {
		return err
	}

	filters := services.Filters{
		Genres:   cmd.IntSlice("genre"),
		Networks: cmd.IntSlice("network"),
		Year:     cmd.Int("year"),
		Sort:     sort,
		Page:     cmd.Int("page"),
	}
	if kind == models.KindMovie && len(filters.Networks) > 0 {
		r.logger.Warn("network filter only applies to series, ignoring")
		filters.Networks = nil
	}

	r.logger.Debug("discover", "kind", kind, "filters", filters)

	page, err := r.catalog.Discover(ctx, kind, filters)
	if err != nil {
		return fmt.Errorf("failed to discover titles: %w", err)
	}
	return r.writePage("Discover "+kind.Label(), page, cmd.Bool("json"), cmd.Bool("pretty"))
}

// CatalogSearch runs a multi-search over movies and series.
func (r *Runner) CatalogSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	page, err := r.catalog.Search(ctx, query, cmd.Int("page"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return r.writePage(fmt.Sprintf("Results for %q", query), page, cmd.Bool("json"), cmd.Bool("pretty"))
}

// CatalogGenres lists genre ids for a kind.
func (r *Runner) CatalogGenres(ctx context.Context, cmd *cli.Command) error {
	kind, err := parseKind(cmd, false)
	if err != nil {
		return err
	}

	genres, err := r.catalog.Genres(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to fetch genres: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(genres, cmd.Bool("pretty"))
	}

	r.writePlainHeader(kind.Label() + " Genres")
	for _, g := range genres {
		r.writePlain("  %6d  %s\n", g.ID, g.Name)
	}
	return nil
}

// CatalogOpen opens the public catalog page of a title.
func (r *Runner) CatalogOpen(ctx context.Context, cmd *cli.Command) error {
	kind, err := parseKind(cmd, false)
	if err != nil {
		return err
	}
	id, err := parseID(cmd)
	if err != nil {
		return err
	}

	url := shared.TitlePageURL(kind.CatalogPath(), id)
	r.logger.Info("opening browser", "url", url)
	if err := shared.OpenBrowser(url); err != nil {
		r.logger.Warn("could not open browser", "error", err)
		return r.writePlain("Open this URL in your browser:\n%s\n", url)
	}
	return nil
}

// CatalogPrune removes cached catalog pages older than --older-than.
func (r *Runner) CatalogPrune(ctx context.Context, cmd *cli.Command) error {
	if r.cache == nil {
		return fmt.Errorf("%w: catalog cache needs the database (run 'watchwave setup')", shared.ErrServiceUnavailable)
	}

	cutoff := r.now().Add(-cmd.Duration("older-than"))
	removed, err := r.cache.Prune(cutoff)
	if err != nil {
		return err
	}

	r.logger.Info("pruned catalog cache", "removed", removed, "cutoff", cutoff)
	return r.writePlain("✓ Removed %d cached pages\n", removed)
}
