package collection

import (
	"time"

	"github.com/desertthunder/watchwave/internal/shared"
)

// DefaultNotificationTTL is how long a notification stays current unless configured otherwise.
const DefaultNotificationTTL = 3 * time.Second

// Severity of a [Notification].
type Severity string

const (
	Success Severity = "success"
	Info    Severity = "info"
)

// Notification is a one-shot message describing the outcome of a mutation.
//
// It carries its own expiry; the display layer decides whether to render it with [Notification.Current].
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      Severity  `json:"kind"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func newNotification(message string, kind Severity, now time.Time, ttl time.Duration) Notification {
	return Notification{
		ID:        shared.GenerateID(),
		Message:   message,
		Kind:      kind,
		ExpiresAt: now.Add(ttl),
	}
}

// Current reports whether the notification should still be displayed at now.
func (n Notification) Current(now time.Time) bool {
	return n.ID != "" && now.Before(n.ExpiresAt)
}

// Notification messages.
const (
	msgWatchlistAdded   = "Added to Watchlist"
	msgWatchlistRemoved = "Removed from Watchlist"
	msgWatchedAdded     = "Marked as Watched"
	msgWatchedRemoved   = "Removed from Library"
	msgNoteSaved        = "Note saved"
	msgRemoteAdded      = "Added to Watchlist!"
	msgRemoteDuplicate  = "Already in watchlist"
	msgRemoteFailed     = "Network error"
	msgRemoteSignedOut  = "Log in to sync your watchlist"
)
