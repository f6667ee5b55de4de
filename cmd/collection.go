package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/watchwave/internal/collection"
	"github.com/desertthunder/watchwave/internal/formatter"
	"github.com/desertthunder/watchwave/internal/models"
	"github.com/desertthunder/watchwave/internal/shared"
	"github.com/desertthunder/watchwave/internal/tasks"
	"github.com/urfave/cli/v3"
)

// resolveTitle returns the stored snapshot of the id argument, fetching it from the catalog when untracked.
func (r *Runner) resolveTitle(ctx context.Context, cmd *cli.Command) (models.Title, error) {
	id, err := parseID(cmd)
	if err != nil {
		return models.Title{}, err
	}
	if t, ok := r.store.Get(id); ok {
		return t, nil
	}

	kind, err := parseKind(cmd, false)
	if err != nil {
		return models.Title{}, err
	}

	t, err := r.catalog.Details(ctx, kind, id)
	if err != nil {
		return models.Title{}, fmt.Errorf("failed to look up %s %d: %w", kind, id, err)
	}
	return *t, nil
}

// runWithProgress prints progress updates until fn returns.
func (r *Runner) runWithProgress(fn func(chan<- tasks.ProgressUpdate)) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("   %s\n", update.Message)
		}
	}()

	fn(progressCh)
	close(progressCh)
	<-done
}

// WatchlistList prints the watchlist.
func (r *Runner) WatchlistList(ctx context.Context, cmd *cli.Command) error {
	return r.writeTitles("Watchlist", r.store.Watchlist(), cmd.Bool("json"), cmd.Bool("pretty"))
}

// WatchlistToggle adds a title to the watchlist or removes it.
func (r *Runner) WatchlistToggle(ctx context.Context, cmd *cli.Command) error {
	t, err := r.resolveTitle(ctx, cmd)
	if err != nil {
		return err
	}

	added := r.store.ToggleWatchlist(t)
	r.logger.Debug("toggled watchlist", "id", t.ID, "added", added)
	return r.writeNotice()
}

// WatchlistAdd records a title on the remote watchlist and mirrors it locally.
func (r *Runner) WatchlistAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Restore(ctx); err != nil {
		r.logger.Warn("stored session is no longer valid", "error", err)
	}

	t, err := r.resolveTitle(ctx, cmd)
	if err != nil {
		return err
	}

	r.store.AddRemote(ctx, r.remote, t)
	return r.writeNotice()
}

// WatchlistImport adds every referenced title to the watchlist.
func (r *Runner) WatchlistImport(ctx context.Context, cmd *cli.Command) error {
	refs := cmd.Args().Slice()
	if path := cmd.String("file"); path != "" {
		fromFile, err := readRefs(path)
		if err != nil {
			return err
		}
		refs = append(refs, fromFile...)
	}
	if len(refs) == 0 {
		return fmt.Errorf("%w: at least one reference or --file", shared.ErrMissingArgument)
	}

	useJSON := cmd.Bool("json")
	r.logger.Info("importing titles", "count", len(refs), "workers", cmd.Int("workers"))

	var (
		result *tasks.ImportResult
		err    error
	)
	opts := tasks.ImportOpts{NumWorkers: cmd.Int("workers")}
	if useJSON {
		result, err = tasks.ImportWatchlist(ctx, nil, r.catalog, r.store, refs, opts)
	} else {
		r.writePlain("Importing %d references...\n", len(refs))
		r.runWithProgress(func(prog chan<- tasks.ProgressUpdate) {
			result, err = tasks.ImportWatchlist(ctx, prog, r.catalog, r.store, refs, opts)
		})
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if useJSON {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlainln("")
	r.writePlainHeader("Import Complete")
	r.writePlain("Requested: %d\n", result.Requested)
	r.writePlain("Added: %d\n", len(result.Added))
	r.writePlain("Skipped: %d\n", len(result.Skipped))
	if len(result.Failed) > 0 {
		r.writePlain("\nFailed %d:\n", len(result.Failed))
		for _, f := range result.Failed {
			r.writePlain("  - %s: %s\n", f.Input, f.Error)
		}
	}
	return r.writeNotice()
}

// readRefs reads one reference per line, ignoring blanks and # comments.
func readRefs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var refs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		refs = append(refs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return refs, nil
}

// LibraryList prints watched titles.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	return r.writeTitles("Library", r.store.Watched(), cmd.Bool("json"), cmd.Bool("pretty"))
}

// LibraryToggle marks a title as watched or removes it from the library.
func (r *Runner) LibraryToggle(ctx context.Context, cmd *cli.Command) error {
	t, err := r.resolveTitle(ctx, cmd)
	if err != nil {
		return err
	}

	added := r.store.ToggleWatched(t)
	r.logger.Debug("toggled library", "id", t.ID, "added", added)
	return r.writeNotice()
}

// LibraryNote replaces the personal note of a watched title.
func (r *Runner) LibraryNote(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd)
	if err != nil {
		return err
	}

	if err := r.store.UpdateNote(id, strings.TrimSpace(cmd.String("text"))); err != nil {
		if errors.Is(err, collection.ErrNotWatched) {
			return fmt.Errorf("%w (mark it watched with 'watchwave library toggle %d' first)", err, id)
		}
		return err
	}
	return r.writeNotice()
}

// LibraryStats prints aggregate figures over the collections.
func (r *Runner) LibraryStats(ctx context.Context, cmd *cli.Command) error {
	s := r.store.Stats()
	if cmd.Bool("json") {
		return r.writeJSON(s, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Library Stats")
	r.writePlain("Watched: %d (%d movies, %d series)\n", s.Watched, s.WatchedMovies, s.WatchedSeries)
	r.writePlain("On watchlist: %d\n", s.Watchlist)
	r.writePlain("Average rating: %s\n", formatter.FormatRating(s.AverageRating))
	r.writePlain("Estimated hours: %d\n", s.EstimatedHours)
	return r.writePlain("With notes: %d\n", s.Annotated)
}

// LibraryExport writes both collections and a manifest to a directory.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.ExportOpts{Format: cmd.String("format"), OutputDir: cmd.String("output")}
	r.logger.Info("exporting collections", "format", opts.Format, "output", opts.OutputDir)

	var (
		result *tasks.ExportResult
		err    error
	)
	r.runWithProgress(func(prog chan<- tasks.ProgressUpdate) {
		result, err = tasks.ExportLibrary(prog, r.store, opts)
	})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.writePlainln("✓ Exported to %s", result.OutputDirectory)
	for _, f := range result.Files {
		r.writePlain("  - %s\n", f)
	}
	return r.writePlain("Manifest: %s\n", result.ManifestPath)
}
