package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/desertthunder/watchwave/internal/collection"
	"github.com/desertthunder/watchwave/internal/models"
	"github.com/desertthunder/watchwave/internal/services"
	"github.com/desertthunder/watchwave/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers = 4
	maxWorkers     = 10
)

// Ref identifies a catalog title to import.
type Ref struct {
	Kind models.MediaKind
	ID   int
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.Kind.CatalogPath(), r.ID)
}

// ParseRef parses "movie:603", "tv:1399" or a bare id, which is taken to be a movie.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	kindPart, idPart, found := strings.Cut(s, ":")
	if !found {
		kindPart, idPart = "movie", s
	}

	kind, err := models.ParseMediaKind(kindPart)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %q: %v", shared.ErrInvalidArgument, s, err)
	}

	id, err := strconv.Atoi(strings.TrimSpace(idPart))
	if err != nil || id <= 0 {
		return Ref{}, fmt.Errorf("%w: %q: id must be a positive integer", shared.ErrInvalidArgument, s)
	}

	return Ref{Kind: kind, ID: id}, nil
}

// ImportOpts configures [ImportWatchlist].
type ImportOpts struct {
	NumWorkers int     // Concurrent catalog lookups (default: 4, max: 10)
	RateLimit  float64 // Dispatches per second; zero leaves pacing to the catalog client
}

// ImportFailure records a reference that could not be imported.
type ImportFailure struct {
	Input string `json:"input"`
	Error string `json:"error"`
}

// ImportResult summarises an import run.
type ImportResult struct {
	Requested int             `json:"requested"`
	Added     []models.Title  `json:"added"`
	Skipped   []string        `json:"skipped"` // refs already tracked, or repeated in the input
	Failed    []ImportFailure `json:"failed"`
}

type importJob struct {
	index int
	ref   Ref
}

type importOutcome struct {
	index int
	ref   Ref
	title *models.Title
	err   error
}

// ImportWatchlist fetches the referenced titles and adds the new ones to the watchlist.
//
// Catalog lookups run in a worker pool; the store is only touched from the calling goroutine.
// Titles are added in input order. A cancelled context stops dispatching and returns ctx.Err()
// with whatever had already been fetched left unapplied.
func ImportWatchlist(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	catalog services.Catalog,
	store *collection.Store,
	inputs []string,
	opts ImportOpts,
) (*ImportResult, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog not configured", shared.ErrServiceUnavailable)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}

	result := &ImportResult{
		Requested: len(inputs),
		Added:     []models.Title{},
		Skipped:   []string{},
		Failed:    []ImportFailure{},
	}

	seen := make(map[int]bool, len(inputs))
	pending := make([]importJob, 0, len(inputs))
	for _, in := range inputs {
		ref, err := ParseRef(in)
		if err != nil {
			result.Failed = append(result.Failed, ImportFailure{Input: in, Error: err.Error()})
			continue
		}
		if seen[ref.ID] || store.IsInWatchlist(ref.ID) || store.IsWatched(ref.ID) {
			result.Skipped = append(result.Skipped, ref.String())
			continue
		}
		seen[ref.ID] = true
		pending = append(pending, importJob{index: len(pending), ref: ref})
	}

	sendProgress(prog, resolveUpdate(len(pending), len(result.Skipped)))
	if len(pending) == 0 {
		return result, nil
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	jobs := make(chan importJob, len(pending))
	outcomes := make(chan importOutcome, len(pending))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go importWorker(ctx, &wg, catalog, jobs, outcomes)
	}

	go func() {
		defer close(jobs)
		for _, job := range pending {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- job:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	fetched := make([]*models.Title, len(pending))
	completed := 0
	for out := range outcomes {
		completed++
		if out.err != nil {
			result.Failed = append(result.Failed, ImportFailure{Input: out.ref.String(), Error: out.err.Error()})
			sendProgress(prog, fetchFailedUpdate(completed, len(pending), out.ref, out.err))
			continue
		}
		fetched[out.index] = out.title
		sendProgress(prog, fetchedUpdate(completed, len(pending), out.title))
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	titles := make([]models.Title, 0, len(fetched))
	for _, t := range fetched {
		if t != nil {
			titles = append(titles, *t)
		}
	}

	result.Added = store.AddAll(titles)
	sendProgress(prog, applyUpdate(len(result.Added)))
	return result, nil
}

// importWorker fetches details for each job until jobs is closed.
func importWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	catalog services.Catalog,
	jobs <-chan importJob,
	outcomes chan<- importOutcome,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		title, err := catalog.Details(ctx, job.ref.Kind, job.ref.ID)
		outcomes <- importOutcome{index: job.index, ref: job.ref, title: title, err: err}
	}
}
