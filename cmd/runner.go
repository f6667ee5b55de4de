package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/watchwave/internal/collection"
	"github.com/desertthunder/watchwave/internal/formatter"
	"github.com/desertthunder/watchwave/internal/models"
	"github.com/desertthunder/watchwave/internal/repositories"
	"github.com/desertthunder/watchwave/internal/services"
	"github.com/desertthunder/watchwave/internal/session"
	"github.com/desertthunder/watchwave/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	catalog    services.Catalog
	cache      *repositories.CatalogCache
	remote     services.RemoteWatchlist
	store      *collection.Store
	session    *session.Store
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Services left nil are built from Config.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Storage    repositories.KVStore
	Cache      *repositories.CatalogCache
	Catalog    services.Catalog
	Auth       services.Authenticator
	Remote     services.RemoteWatchlist
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Auth.Timeout.Duration}
	}
	if opts.Storage == nil {
		opts.Storage = repositories.NewMemoryStore()
	}

	if opts.Catalog == nil {
		catalogOpts := services.CatalogOpts{
			BaseURL:    opts.Config.Catalog.BaseURL,
			APIKey:     opts.Config.Catalog.APIKey,
			Language:   opts.Config.Catalog.Language,
			HTTPClient: opts.HTTPClient,
			RateLimit:  opts.Config.Catalog.RateLimit,
			Attempts:   opts.Config.Catalog.Retries,
			Logger:     shared.WithLogger(opts.Logger, "service", "catalog"),
		}
		if opts.Cache != nil {
			catalogOpts.Cache = opts.Cache
		}
		opts.Catalog = services.NewCatalogService(catalogOpts)
	}

	api := services.NewAPIClient(opts.Config.Auth.BaseURL, opts.HTTPClient)
	if opts.Auth == nil {
		opts.Auth = services.NewAuthService(api, opts.Config.Auth.RegisterPath)
	}

	sess := session.New(opts.Auth, opts.Storage, shared.WithLogger(opts.Logger, "store", "session"))
	if opts.Remote == nil {
		opts.Remote = services.NewWatchlistService(api, sess)
	}

	store := collection.New(opts.Storage, collection.Options{
		TTL:    opts.Config.Notifications.TTL.Duration,
		Logger: shared.WithLogger(opts.Logger, "store", "collection"),
	})

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		catalog:    opts.Catalog,
		cache:      opts.Cache,
		remote:     opts.Remote,
		store:      store,
		session:    sess,
		now:        time.Now,
	}
}

// SetLogger replaces the logger used by the runner.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, catalogCommand, watchlistCommand, libraryCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := formatter.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// writeTitles prints titles as an aligned list, or as JSON when useJSON is set.
func (r *Runner) writeTitles(header string, titles []models.Title, useJSON, pretty bool) error {
	if useJSON {
		if titles == nil {
			titles = []models.Title{}
		}
		return r.writeJSON(titles, pretty)
	}

	r.writePlainHeader(fmt.Sprintf("%s (%d)", header, len(titles)))
	if len(titles) == 0 {
		return r.writePlain("  (empty)\n")
	}
	for _, t := range titles {
		year := t.Year()
		if year == "" {
			year = "----"
		}
		r.writePlain("  %-14s %-6s %s (%s)  ★ %s\n",
			t.Ref(), t.Kind.Label(), t.DisplayName, year, formatter.FormatRating(t.VoteAverage))
		if t.PersonalNote != "" {
			r.writePlain("  %14s note: %s\n", "", strings.ReplaceAll(t.PersonalNote, "\n", " "))
		}
	}
	return nil
}

// writePage prints a catalog page followed by its paging footer.
func (r *Runner) writePage(header string, page *models.Page, useJSON, pretty bool) error {
	if useJSON {
		return r.writeJSON(page, pretty)
	}
	if err := r.writeTitles(header, page.Results, false, false); err != nil {
		return err
	}
	r.writePlain("\nPage %d of %d (%d results)\n", page.Page, page.TotalPages, page.TotalResults)
	if page.FromCache {
		r.writePlain("Offline: served from the local cache\n")
	}
	return nil
}

// writeNotice prints the store's pending notification while it is current.
func (r *Runner) writeNotice() error {
	n, ok := r.store.Notification()
	if !ok || !n.Current(r.now()) {
		return nil
	}
	icon := "•"
	if n.Kind == collection.Success {
		icon = "✓"
	}
	if err := r.writePlain("%s %s\n", icon, n.Message); err != nil {
		return err
	}
	if r.store.Degraded() {
		r.logger.Warn("storage is failing, changes only live until exit")
	}
	return nil
}
