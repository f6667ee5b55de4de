// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
		},
	}
}

func kindFlag(value string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "kind",
		Aliases: []string{"k"},
		Usage:   "Media kind: movie or tv",
		Value:   value,
	}
}

func pageFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:    "page",
		Aliases: []string{"p"},
		Usage:   "Result page",
		Value:   1,
	}
}

func withFlags(base []cli.Flag, extra ...cli.Flag) []cli.Flag {
	return append(extra, base...)
}

// setupCommand initializes the config file and database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize config file, database and migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.SetupDatabase,
	}
}

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in, register, and inspect the session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and store the session credential",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Account password", Sources: cli.EnvVars("WATCHWAVE_PASSWORD"), Required: true},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account (does not sign in)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first-name", Usage: "First name", Required: true},
					&cli.StringFlag{Name: "last-name", Usage: "Last name", Required: true},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Account password", Sources: cli.EnvVars("WATCHWAVE_PASSWORD"), Required: true},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Validate the stored session and show the signed-in user",
				Flags:  outputFlags(),
				Action: r.AuthStatus,
			},
		},
	}
}

// catalogCommand handles catalog browsing
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "catalog",
		Aliases: []string{"cat"},
		Usage:   "Browse and search the movie and TV catalog",
		Commands: []*cli.Command{
			{
				Name:   "trending",
				Usage:  "Titles trending this week",
				Flags:  withFlags(outputFlags(), kindFlag(""), pageFlag()),
				Action: r.CatalogTrending,
			},
			{
				Name:   "top-rated",
				Usage:  "Highest rated titles",
				Flags:  withFlags(outputFlags(), kindFlag("movie"), pageFlag()),
				Action: r.CatalogTopRated,
			},
			{
				Name:   "upcoming",
				Usage:  "Movies about to be released",
				Flags:  withFlags(outputFlags(), pageFlag()),
				Action: r.CatalogUpcoming,
			},
			{
				Name:  "discover",
				Usage: "Filter the catalog by genre, network and year",
				Flags: withFlags(outputFlags(),
					kindFlag("movie"),
					pageFlag(),
					&cli.IntSliceFlag{Name: "genre", Aliases: []string{"g"}, Usage: "Genre id (repeatable)"},
					&cli.IntSliceFlag{Name: "network", Usage: "Network id, series only (repeatable)"},
					&cli.IntFlag{Name: "year", Usage: "Release or first-air year"},
					&cli.StringFlag{Name: "sort", Usage: "popularity, rating, release, or title", Value: "popularity"},
				),
				Action: r.CatalogDiscover,
			},
			{
				Name:      "search",
				Usage:     "Search movies and series",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags:     withFlags(outputFlags(), pageFlag()),
				Action:    r.CatalogSearch,
			},
			{
				Name:   "genres",
				Usage:  "List genre ids for use with discover",
				Flags:  withFlags(outputFlags(), kindFlag("movie")),
				Action: r.CatalogGenres,
			},
			{
				Name:      "open",
				Usage:     "Open a title's page in the browser",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{kindFlag("movie")},
				Action:    r.CatalogOpen,
			},
			{
				Name:  "prune",
				Usage: "Drop cached catalog pages",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "older-than", Usage: "Keep pages fetched within this window", Value: 7 * 24 * time.Hour},
				},
				Action: r.CatalogPrune,
			},
		},
	}
}

// watchlistCommand handles the watchlist collection
func watchlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "watchlist",
		Aliases: []string{"wl"},
		Usage:   "Titles queued to watch",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Show the watchlist, newest first",
				Flags:  outputFlags(),
				Action: r.WatchlistList,
			},
			{
				Name:      "toggle",
				Usage:     "Add a title to the watchlist, or remove it if present",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{kindFlag("movie")},
				Action:    r.WatchlistToggle,
			},
			{
				Name:      "add",
				Usage:     "Add a title through the synced remote watchlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{kindFlag("movie")},
				Action:    r.WatchlistAdd,
			},
			{
				Name:      "import",
				Usage:     "Import titles by reference (movie:603, tv:1399, or a bare movie id)",
				ArgsUsage: "[ref...]",
				Flags: withFlags(outputFlags(),
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Read references from a file, one per line"},
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Concurrent lookups (max 10)", Value: 4},
				),
				Action: r.WatchlistImport,
			},
		},
	}
}

// libraryCommand handles the watched library
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Watched titles and their notes",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Show watched titles, newest first",
				Flags:  outputFlags(),
				Action: r.LibraryList,
			},
			{
				Name:      "toggle",
				Usage:     "Mark a title as watched, or remove it from the library",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{kindFlag("movie")},
				Action:    r.LibraryToggle,
			},
			{
				Name:      "note",
				Usage:     "Set the personal note of a watched title",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Note text (empty clears the note)"},
				},
				Action: r.LibraryNote,
			},
			{
				Name:   "stats",
				Usage:  "Aggregate figures over the library",
				Flags:  outputFlags(),
				Action: r.LibraryStats,
			},
			{
				Name:  "export",
				Usage: "Export watchlist and library to files",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "json, csv, markdown, or txt", Value: "json"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory (default: watchwave_export_{epoch})"},
				},
				Action: r.LibraryExport,
			},
		},
	}
}

// tuiCommand launches the interactive interface
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive terminal interface",
		Action: r.TUI,
	}
}
