// package collection implements the personal watchlist and library store
package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/watchwave/internal/models"
	"github.com/desertthunder/watchwave/internal/repositories"
	"github.com/desertthunder/watchwave/internal/services"
	"github.com/desertthunder/watchwave/internal/shared"
)

// Storage keys for the persisted collections.
const (
	WatchlistKey = "watchwave.watchlist"
	WatchedKey   = "watchwave.watched"
)

// ErrNotWatched is returned by [Store.UpdateNote] for an id that is not in the library.
var ErrNotWatched = fmt.Errorf("%w: not in library", shared.ErrTitleNotFound)

// Options configures a [Store].
type Options struct {
	TTL    time.Duration // notification display interval
	Logger *log.Logger
	Now    func() time.Time
}

// Store holds the watchlist and the watched library.
//
// Both collections are newest-first and unique by id, and an id is never in both.
// Every mutation writes both collections back to storage in full.
type Store struct {
	mu        sync.Mutex
	storage   repositories.KVStore
	logger    *log.Logger
	ttl       time.Duration
	now       func() time.Time
	loaded    bool
	degraded  bool
	watchlist []models.Title
	watched   []models.Title
	pending   *Notification
}

// New creates a [Store] backed by storage. Nothing is read until first use or [Store.Load].
func New(storage repositories.KVStore, opts Options) *Store {
	if storage == nil {
		storage = repositories.NewMemoryStore()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultNotificationTTL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Store{
		storage: storage,
		logger:  opts.Logger,
		ttl:     opts.TTL,
		now:     opts.Now,
	}
}

// Load reads both collections from storage. It is a no-op after the first call.
//
// A missing, unreadable or corrupt entry is an empty collection.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
}

func (s *Store) load() {
	if s.loaded {
		return
	}
	s.loaded = true
	s.watched = s.read(WatchedKey)
	s.watchlist = slices.DeleteFunc(s.read(WatchlistKey), func(t models.Title) bool {
		return indexOf(s.watched, t.ID) >= 0
	})
}

func (s *Store) read(key string) []models.Title {
	data, found, err := s.storage.Get(key)
	if err != nil {
		s.logger.Warn("failed to read collection, starting empty", "key", key, "error", err)
		return []models.Title{}
	}
	if !found || len(data) == 0 {
		return []models.Title{}
	}

	titles := []models.Title{}
	if err := json.Unmarshal(data, &titles); err != nil {
		s.logger.Warn("corrupt collection, starting empty", "key", key, "error", err)
		return []models.Title{}
	}
	if titles == nil {
		return []models.Title{}
	}
	return dedupe(titles)
}

// persist writes both collections. After the first failure the store stays in memory only.
//
// The library is written first: a failed watchlist write then leaves the moved title in both
// collections on disk, which load resolves in favour of the library.
func (s *Store) persist() {
	if s.degraded {
		return
	}

	for _, entry := range []struct {
		key    string
		titles []models.Title
	}{
		{WatchedKey, s.watched},
		{WatchlistKey, s.watchlist},
	} {
		data, err := json.Marshal(entry.titles)
		if err == nil {
			err = s.storage.Set(entry.key, data)
		}
		if err != nil {
			s.degraded = true
			s.logger.Error("failed to persist collections, continuing in memory", "key", entry.key, "error", err)
			return
		}
	}
}

// Degraded reports whether a storage write has failed and changes are no longer persisted.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *Store) notify(message string, kind Severity) {
	n := newNotification(message, kind, s.now(), s.ttl)
	s.pending = &n
}

// ToggleWatchlist removes t from the watchlist if present, otherwise prepends it.
//
// It reports whether t was added. The library is not touched.
func (s *Store) ToggleWatchlist(t models.Title) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()

	if i := indexOf(s.watchlist, t.ID); i >= 0 {
		s.watchlist = slices.Delete(s.watchlist, i, i+1)
		s.persist()
		s.notify(msgWatchlistRemoved, Info)
		return false
	}

	s.watchlist = prepend(s.watchlist, s.stamp(t))
	s.persist()
	s.notify(msgWatchlistAdded, Success)
	return true
}

// ToggleWatched removes t from the library if present, discarding its note.
// Otherwise it prepends t with an empty note and drops t from the watchlist in the same update.
//
// It reports whether t was added.
func (s *Store) ToggleWatched(t models.Title) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()

	if i := indexOf(s.watched, t.ID); i >= 0 {
		s.watched = slices.Delete(s.watched, i, i+1)
		s.persist()
		s.notify(msgWatchedRemoved, Info)
		return false
	}

	entry := s.stamp(t)
	entry.PersonalNote = ""
	s.watched = prepend(s.watched, entry)
	if i := indexOf(s.watchlist, t.ID); i >= 0 {
		s.watchlist = slices.Delete(s.watchlist, i, i+1)
	}
	s.persist()
	s.notify(msgWatchedAdded, Success)
	return true
}

// UpdateNote replaces the note of the library entry id.
//
// An id outside the library returns [ErrNotWatched] and changes nothing.
func (s *Store) UpdateNote(id int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()

	i := indexOf(s.watched, id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrNotWatched, id)
	}

	s.watched[i].PersonalNote = text
	s.persist()
	s.notify(msgNoteSaved, Success)
	return nil
}

// AddRemote records t on the remote watchlist and mirrors the outcome locally.
//
// Failures never surface as errors; they become an info notification carrying the service's message.
// The returned notification is the one left pending.
func (s *Store) AddRemote(ctx context.Context, remote services.RemoteWatchlist, t models.Title) Notification {
	return s.ApplyRemote(t, remote.Create(ctx, t))
}

// ApplyRemote mirrors the outcome of a remote watchlist add for t, where err is what the remote
// returned. Callers that run the remote call elsewhere apply its result here.
func (s *Store) ApplyRemote(t models.Title, err error) Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()

	switch {
	case err == nil:
		s.addLocal(t)
		s.notify(msgRemoteAdded, Success)
	case errors.Is(err, shared.ErrAlreadyExists):
		s.addLocal(t)
		s.notify(msgRemoteDuplicate, Info)
	default:
		s.logger.Warn("remote watchlist add failed", "id", t.ID, "error", err)
		msg, ok := services.RemoteMessage(err)
		if !ok {
			msg = msgRemoteFailed
			if errors.Is(err, shared.ErrNotAuthenticated) {
				msg = msgRemoteSignedOut
			}
		}
		s.notify(msg, Info)
	}

	return *s.pending
}

func (s *Store) addLocal(t models.Title) {
	if indexOf(s.watchlist, t.ID) >= 0 || indexOf(s.watched, t.ID) >= 0 {
		return
	}
	s.watchlist = prepend(s.watchlist, s.stamp(t))
	s.persist()
}

// AddAll prepends every title not already in either collection to the watchlist, in order,
// and persists once. It returns the titles that were added.
func (s *Store) AddAll(titles []models.Title) []models.Title {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()

	added := make([]models.Title, 0, len(titles))
	for _, t := range titles {
		if indexOf(s.watchlist, t.ID) >= 0 || indexOf(s.watched, t.ID) >= 0 {
			continue
		}
		s.watchlist = prepend(s.watchlist, s.stamp(t))
		added = append(added, t)
	}

	if len(added) > 0 {
		s.persist()
		s.notify(fmt.Sprintf("Imported %d titles", len(added)), Success)
	}
	return added
}

// IsInWatchlist reports whether id is on the watchlist.
func (s *Store) IsInWatchlist(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return indexOf(s.watchlist, id) >= 0
}

// IsWatched reports whether id is in the library.
func (s *Store) IsWatched(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return indexOf(s.watched, id) >= 0
}

// Watchlist returns a copy of the watchlist, newest first.
func (s *Store) Watchlist() []models.Title {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return slices.Clone(s.watchlist)
}

// Watched returns a copy of the library, newest first.
func (s *Store) Watched() []models.Title {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return slices.Clone(s.watched)
}

// Get looks id up in the library, then the watchlist.
func (s *Store) Get(id int) (models.Title, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()

	if i := indexOf(s.watched, id); i >= 0 {
		return s.watched[i], true
	}
	if i := indexOf(s.watchlist, id); i >= 0 {
		return s.watchlist[i], true
	}
	return models.Title{}, false
}

// Notification returns the pending notification, if any. It does not check expiry.
func (s *Store) Notification() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Notification{}, false
	}
	return *s.pending, true
}

// Dismiss clears the pending notification if it is still id. It reports whether anything was cleared.
func (s *Store) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil || s.pending.ID != id {
		return false
	}
	s.pending = nil
	return true
}

func (s *Store) stamp(t models.Title) models.Title {
	t.AddedAt = s.now().UTC()
	return t
}

func indexOf(titles []models.Title, id int) int {
	return slices.IndexFunc(titles, func(t models.Title) bool { return t.ID == id })
}

func prepend(titles []models.Title, t models.Title) []models.Title {
	return slices.Insert(titles, 0, t)
}

// dedupe keeps the first (newest) occurrence of each id.
func dedupe(titles []models.Title) []models.Title {
	seen := make(map[int]bool, len(titles))
	out := titles[:0]
	for _, t := range titles {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}
