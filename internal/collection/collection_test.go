package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/desertthunder/watchwave/internal/models"
	"github.com/desertthunder/watchwave/internal/repositories"
	"github.com/desertthunder/watchwave/internal/services"
	"github.com/desertthunder/watchwave/internal/shared"
	tu "github.com/desertthunder/watchwave/internal/testing"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T, storage repositories.KVStore) (*Store, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := New(storage, Options{
		Logger: shared.NewLogger(io.Discard),
		Now:    c.Now,
	})
	return store, c
}

func ids(titles []models.Title) []int {
	out := make([]int, len(titles))
	for i, t := range titles {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestToggleWatchlist(t *testing.T) {
	t.Run("toggle twice restores membership", func(t *testing.T) {
		for _, seeded := range []bool{false, true} {
			t.Run(fmt.Sprintf("seeded=%v", seeded), func(t *testing.T) {
				store, _ := newTestStore(t, repositories.NewMemoryStore())
				if seeded {
					store.ToggleWatchlist(tu.Dune)
				}
				before := store.IsInWatchlist(tu.Dune.ID)

				store.ToggleWatchlist(tu.Dune)
				store.ToggleWatchlist(tu.Dune)

				if got := store.IsInWatchlist(tu.Dune.ID); got != before {
					t.Errorf("membership changed after paired toggles: before=%v after=%v", before, got)
				}
			})
		}
	})

	t.Run("prepends newest first", func(t *testing.T) {
		store, _ := newTestStore(t, repositories.NewMemoryStore())
		store.ToggleWatchlist(tu.Matrix)
		store.ToggleWatchlist(tu.Dune)
		store.ToggleWatchlist(tu.Severance)

		want := []int{tu.Severance.ID, tu.Dune.ID, tu.Matrix.ID}
		if got := ids(store.Watchlist()); !equalIDs(got, want) {
			t.Errorf("expected order %v, got %v", want, got)
		}
	})

	t.Run("notifications", func(t *testing.T) {
		store, _ := newTestStore(t, repositories.NewMemoryStore())

		if added := store.ToggleWatchlist(tu.Matrix); !added {
			t.Error("expected first toggle to add")
		}
		n, ok := store.Notification()
		if !ok || n.Message != "Added to Watchlist" || n.Kind != Success {
			t.Errorf("unexpected notification after add: %+v", n)
		}

		if added := store.ToggleWatchlist(tu.Matrix); added {
			t.Error("expected second toggle to remove")
		}
		n, _ = store.Notification()
		if n.Message != "Removed from Watchlist" || n.Kind != Info {
			t.Errorf("unexpected notification after remove: %+v", n)
		}
	})

	t.Run("does not touch library", func(t *testing.T) {
		store, _ := newTestStore(t, repositories.NewMemoryStore())
		store.ToggleWatched(tu.Matrix)
		store.ToggleWatchlist(tu.Dune)

		if !store.IsWatched(tu.Matrix.ID) {
			t.Error("library entry should be untouched")
		}
	})
}

func TestToggleWatched(t *testing.T) {
	t.Run("moves title out of watchlist", func(t *testing.T) {
		store, _ := newTestStore(t, repositories.NewMemoryStore())
		store.ToggleWatchlist(tu.Matrix)
		store.ToggleWatchlist(tu.Dune)

		if added := store.ToggleWatched(tu.Matrix); !added {
			t.Fatal("expected title to be added to library")
		}

		if store.IsInWatchlist(tu.Matrix.ID) {
			t.Error("title should no longer be on the watchlist")
		}
		if !store.IsWatched(tu.Matrix.ID) {
			t.Error("title should be in the library")
		}
		if !store.IsInWatchlist(tu.Dune.ID) {
			t.Error("other watchlist entries should remain")
		}

		n, _ := store.Notification()
		if n.Message != "Marked as Watched" || n.Kind != Success {
			t.Errorf("unexpected notification: %+v", n)
		}
	})

	t.Run("resets note on entry", func(t *testing.T) {
		store, _ := newTestStore(t, repositories.NewMemoryStore())
		withNote := tu.Severance
		withNote.PersonalNote = "left over"

		store.ToggleWatched(withNote)
		got, ok := store.Get(withNote.ID)
		if !ok {
			t.Fatal("expected library entry")
		}
		if got.PersonalNote != "" {
			t.Errorf("expected empty note, got %q", got.PersonalNote)
		}
		if got.AddedAt.IsZero() {
			t.Error("expected AddedAt to be stamped")
		}
	})

	t.Run("removal discards note", func(t *testing.T) {
		store, _ := newTestStore(t, repositories.NewMemoryStore())
		store.ToggleWatched(tu.Matrix)
		if err := store.UpdateNote(tu.Matrix.ID, "rewatch"); err != nil {
			t.Fatalf("UpdateNote failed: %v", err)
		}

		if added := store.ToggleWatched(tu.Matrix); added {
			t.Fatal("expected second toggle to remove")
		}
		if store.IsWatched(tu.Matrix.ID) {
			t.Error("title should be removed from library")
		}

		n, _ := store.Notification()
		if n.Message != "Removed from Library" || n.Kind != Info {
			t.Errorf("unexpected notification: %+v", n)
		}

		store.ToggleWatched(tu.Matrix)
		got, _ := store.Get(tu.Matrix.ID)
		if got.PersonalNote != "" {
			t.Errorf("note should not survive removal, got %q", got.PersonalNote)
		}
	})

	t.Run("never in both collections", func(t *testing.T) {
		store, _ := newTestStore(t, repositories.NewMemoryStore())
		for _, title := range []models.Title{tu.Matrix, tu.Dune, tu.Severance} {
			store.ToggleWatchlist(title)
			store.ToggleWatched(title)
			store.ToggleWatchlist(title)
		}

		for _, title := range []models.Title{tu.Matrix, tu.Dune, tu.Severance} {
			if store.IsWatched(title.ID) && store.IsInWatchlist(title.ID) {
				t.Errorf("title %d is in both collections", title.ID)
			}
		}
	})
}

func TestUpdateNote(t *testing.T) {
	t.Run("last write wins", func(t *testing.T) {
		store, _ := newTestStore(t, repositories.NewMemoryStore())
		store.ToggleWatched(tu.Dune)

		if err := store.UpdateNote(tu.Dune.ID, "hello"); err != nil {
			t.Fatalf("UpdateNote failed: %v", err)
		}
		got, _ := store.Get(tu.Dune.ID)
		if got.PersonalNote != "hello" {
			t.Errorf("expected note hello, got %q", got.PersonalNote)
		}

		if err := store.UpdateNote(tu.Dune.ID, "see part two"); err != nil {
			t.Fatalf("UpdateNote failed: %v", err)
		}
		got, _ = store.Get(tu.Dune.ID)
		if got.PersonalNote != "see part two" {
			t.Errorf("expected latest note, got %q", got.PersonalNote)
		}

		n, _ := store.Notification()
		if n.Message != "Note saved" || n.Kind != Success {
			t.Errorf("unexpected notification: %+v", n)
		}
	})

	t.Run("not in library", func(t *testing.T) {
		store, _ := newTestStore(t, repositories.NewMemoryStore())
		store.ToggleWatchlist(tu.Dune)
		before, _ := store.Notification()

		err := store.UpdateNote(tu.Dune.ID, "hello")
		if !errors.Is(err, ErrNotWatched) {
			t.Errorf("expected ErrNotWatched, got %v", err)
		}
		if !errors.Is(err, shared.ErrTitleNotFound) {
			t.Errorf("expected ErrTitleNotFound, got %v", err)
		}

		after, _ := store.Notification()
		if after.ID != before.ID {
			t.Error("pending notification should be untouched")
		}
		got, _ := store.Get(tu.Dune.ID)
		if got.PersonalNote != "" {
			t.Errorf("watchlist entry should not gain a note, got %q", got.PersonalNote)
		}
	})
}

func TestPersistence(t *testing.T) {
	t.Run("initializes from storage", func(t *testing.T) {
		storage := repositories.NewMemoryStore()
		data, _ := json.Marshal([]models.Title{{ID: 5, Kind: models.KindMovie, DisplayName: "Stored"}})
		if err := storage.Set(WatchlistKey, data); err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		store, _ := newTestStore(t, storage)
		if !store.IsInWatchlist(5) {
			t.Error("expected stored title on the watchlist")
		}
		if store.IsWatched(5) {
			t.Error("stored watchlist title should not be watched")
		}
	})

	t.Run("round trip through sqlite", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("NewDatabase failed: %v", err)
		}
		defer db.Close()
		if err := shared.RunMigrations(db); err != nil {
			t.Fatalf("RunMigrations failed: %v", err)
		}

		kv := repositories.NewSQLiteStore(db)
		first, _ := newTestStore(t, kv)
		first.ToggleWatchlist(tu.Matrix)
		first.ToggleWatched(tu.Severance)
		if err := first.UpdateNote(tu.Severance.ID, "outie"); err != nil {
			t.Fatalf("UpdateNote failed: %v", err)
		}

		second, _ := newTestStore(t, kv)
		if !second.IsInWatchlist(tu.Matrix.ID) {
			t.Error("watchlist should survive reload")
		}
		got, ok := second.Get(tu.Severance.ID)
		if !ok || got.PersonalNote != "outie" || got.Kind != models.KindSeries {
			t.Errorf("library entry did not survive reload: %+v", got)
		}
	})

	t.Run("corrupt entry is empty", func(t *testing.T) {
		storage := repositories.NewMemoryStore()
		storage.Set(WatchlistKey, []byte("{not json"))
		storage.Set(WatchedKey, []byte("null"))

		store, _ := newTestStore(t, storage)
		if got := store.Watchlist(); got == nil || len(got) != 0 {
			t.Errorf("expected empty watchlist, got %v", got)
		}
		if got := store.Watched(); got == nil || len(got) != 0 {
			t.Errorf("expected empty library, got %v", got)
		}
	})

	t.Run("stored overlap favours library", func(t *testing.T) {
		storage := repositories.NewMemoryStore()
		data, _ := json.Marshal([]models.Title{tu.Matrix, tu.Matrix, tu.Dune})
		storage.Set(WatchlistKey, data)
		data, _ = json.Marshal([]models.Title{tu.Dune})
		storage.Set(WatchedKey, data)

		store, _ := newTestStore(t, storage)
		if got := ids(store.Watchlist()); !equalIDs(got, []int{tu.Matrix.ID}) {
			t.Errorf("expected deduplicated watchlist [603], got %v", got)
		}
		if !store.IsWatched(tu.Dune.ID) {
			t.Error("library entry should be kept")
		}
	})

	t.Run("unreadable storage starts empty", func(t *testing.T) {
		storage := tu.NewFailingStore(nil)
		storage.FailGet = true

		store, _ := newTestStore(t, storage)
		if len(store.Watchlist()) != 0 {
			t.Error("expected empty watchlist")
		}
	})

	t.Run("write failure degrades to memory", func(t *testing.T) {
		storage := tu.NewFailingStore(nil)
		storage.FailSet = true

		store, _ := newTestStore(t, storage)
		if store.Degraded() {
			t.Fatal("store should not start degraded")
		}

		store.ToggleWatchlist(tu.Matrix)
		if !store.Degraded() {
			t.Error("expected degraded after failed write")
		}
		if !store.IsInWatchlist(tu.Matrix.ID) {
			t.Error("in-memory state should remain authoritative")
		}

		calls := storage.SetCalls
		store.ToggleWatchlist(tu.Dune)
		if storage.SetCalls != calls {
			t.Error("degraded store should stop writing")
		}
		if !store.IsInWatchlist(tu.Dune.ID) {
			t.Error("mutations should keep working in memory")
		}
	})

	t.Run("partial write keeps a moved title on restart", func(t *testing.T) {
		storage := tu.NewFailingStore(nil)
		store, _ := newTestStore(t, storage)
		store.ToggleWatchlist(tu.Matrix)

		storage.FailKey = WatchlistKey
		store.ToggleWatched(tu.Matrix)
		if !store.Degraded() {
			t.Fatal("expected degraded after failed watchlist write")
		}

		restarted, _ := newTestStore(t, storage)
		if !restarted.IsWatched(tu.Matrix.ID) {
			t.Error("moved title should be in the library after restart")
		}
		if restarted.IsInWatchlist(tu.Matrix.ID) {
			t.Error("moved title should not be on the watchlist after restart")
		}
	})

	t.Run("every mutation writes both collections", func(t *testing.T) {
		storage := tu.NewFailingStore(nil)
		store, _ := newTestStore(t, storage)

		store.ToggleWatchlist(tu.Matrix)
		if storage.SetCalls != 2 {
			t.Errorf("expected 2 writes, got %d", storage.SetCalls)
		}
		if _, ok := storage.Value(WatchedKey); !ok {
			t.Error("library should be written alongside the watchlist")
		}
	})
}

func TestNotification(t *testing.T) {
	t.Run("expires after ttl", func(t *testing.T) {
		store, c := newTestStore(t, repositories.NewMemoryStore())
		store.ToggleWatchlist(tu.Matrix)
		n, _ := store.Notification()

		if !n.Current(c.Now()) {
			t.Error("fresh notification should be current")
		}
		if !n.Current(c.Now().Add(DefaultNotificationTTL - time.Millisecond)) {
			t.Error("notification should be current just before expiry")
		}
		if n.Current(c.Now().Add(DefaultNotificationTTL)) {
			t.Error("notification should expire after the ttl")
		}
	})

	t.Run("zero value is never current", func(t *testing.T) {
		if (Notification{}).Current(time.Now()) {
			t.Error("zero notification should not be current")
		}
	})

	t.Run("latest overwrites pending", func(t *testing.T) {
		store, _ := newTestStore(t, repositories.NewMemoryStore())
		store.ToggleWatchlist(tu.Matrix)
		first, _ := store.Notification()
		store.ToggleWatched(tu.Matrix)
		second, _ := store.Notification()

		if first.ID == second.ID {
			t.Error("expected a new notification id")
		}
		if second.Message != "Marked as Watched" {
			t.Errorf("expected latest message, got %q", second.Message)
		}
	})

	t.Run("stale dismiss keeps newer notification", func(t *testing.T) {
		store, _ := newTestStore(t, repositories.NewMemoryStore())
		store.ToggleWatchlist(tu.Matrix)
		stale, _ := store.Notification()
		store.ToggleWatchlist(tu.Dune)

		if store.Dismiss(stale.ID) {
			t.Error("stale dismiss should not clear")
		}
		if _, ok := store.Notification(); !ok {
			t.Error("newer notification should still be pending")
		}

		current, _ := store.Notification()
		if !store.Dismiss(current.ID) {
			t.Error("dismissing the pending notification should clear it")
		}
		if _, ok := store.Notification(); ok {
			t.Error("expected no pending notification")
		}
	})
}

func TestAddRemote(t *testing.T) {
	ctx := context.Background()

	tc := []struct {
		name        string
		err         error
		wantMessage string
		wantKind    Severity
		wantLocal   bool
	}{
		{name: "success", wantMessage: "Added to Watchlist!", wantKind: Success, wantLocal: true},
		{
			name:        "duplicate",
			err:         fmt.Errorf("%w: %w", shared.ErrAlreadyExists, &services.RemoteError{StatusCode: 409, Message: "already exists"}),
			wantMessage: "Already in watchlist",
			wantKind:    Info,
			wantLocal:   true,
		},
		{
			name:        "service message",
			err:         &services.RemoteError{StatusCode: 500, Message: "Database timeout"},
			wantMessage: "Database timeout",
			wantKind:    Info,
		},
		{
			name:        "transport failure",
			err:         fmt.Errorf("%w: connection refused", shared.ErrServiceUnavailable),
			wantMessage: "Network error",
			wantKind:    Info,
		},
		{
			name:        "signed out",
			err:         shared.ErrNotAuthenticated,
			wantMessage: "Log in to sync your watchlist",
			wantKind:    Info,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore(t, repositories.NewMemoryStore())
			remote := &tu.MockRemoteWatchlist{Err: tt.err}

			n := store.AddRemote(ctx, remote, tu.Matrix)
			if n.Message != tt.wantMessage || n.Kind != tt.wantKind {
				t.Errorf("got notification %+v, want %q (%s)", n, tt.wantMessage, tt.wantKind)
			}
			if got := store.IsInWatchlist(tu.Matrix.ID); got != tt.wantLocal {
				t.Errorf("IsInWatchlist = %v, want %v", got, tt.wantLocal)
			}
		})
	}

	t.Run("already watched stays in library", func(t *testing.T) {
		store, _ := newTestStore(t, repositories.NewMemoryStore())
		store.ToggleWatched(tu.Matrix)

		store.AddRemote(ctx, &tu.MockRemoteWatchlist{}, tu.Matrix)
		if store.IsInWatchlist(tu.Matrix.ID) {
			t.Error("watched title must not be added to the watchlist")
		}
	})

	t.Run("ApplyRemote records a result fetched elsewhere", func(t *testing.T) {
		store, _ := newTestStore(t, repositories.NewMemoryStore())

		n := store.ApplyRemote(tu.Severance, nil)
		if n.Message != "Added to Watchlist!" || !store.IsInWatchlist(tu.Severance.ID) {
			t.Errorf("unexpected outcome %+v", n)
		}
	})
}

func TestAddAll(t *testing.T) {
	store, _ := newTestStore(t, repositories.NewMemoryStore())
	store.ToggleWatched(tu.Dune)

	added := store.AddAll([]models.Title{tu.Matrix, tu.Dune, tu.Severance, tu.Matrix})
	if got := ids(added); !equalIDs(got, []int{tu.Matrix.ID, tu.Severance.ID}) {
		t.Errorf("unexpected added titles %v", got)
	}
	if got := ids(store.Watchlist()); !equalIDs(got, []int{tu.Severance.ID, tu.Matrix.ID}) {
		t.Errorf("unexpected watchlist order %v", got)
	}

	n, _ := store.Notification()
	if n.Message != "Imported 2 titles" {
		t.Errorf("unexpected notification %q", n.Message)
	}
}

func TestStats(t *testing.T) {
	store, _ := newTestStore(t, repositories.NewMemoryStore())

	empty := store.Stats()
	if empty.Watched != 0 || empty.AverageRating != 0 {
		t.Errorf("expected zero stats, got %+v", empty)
	}

	store.ToggleWatched(tu.Matrix)
	store.ToggleWatched(tu.Severance)
	store.ToggleWatchlist(tu.Dune)
	store.UpdateNote(tu.Severance.ID, "great")

	stats := store.Stats()
	if stats.Watched != 2 || stats.Watchlist != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.WatchedMovies != 1 || stats.WatchedSeries != 1 {
		t.Errorf("unexpected kind split: %+v", stats)
	}
	if stats.AverageRating != 8.3 {
		t.Errorf("expected average 8.3, got %v", stats.AverageRating)
	}
	if stats.EstimatedHours != 4 {
		t.Errorf("expected 4 hours, got %d", stats.EstimatedHours)
	}
	if stats.Annotated != 1 {
		t.Errorf("expected 1 annotated, got %d", stats.Annotated)
	}
}
