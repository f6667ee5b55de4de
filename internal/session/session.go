// package session owns the signed-in identity and its bearer credential
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/watchwave/internal/models"
	"github.com/desertthunder/watchwave/internal/repositories"
	"github.com/desertthunder/watchwave/internal/services"
	"github.com/desertthunder/watchwave/internal/shared"
	"golang.org/x/oauth2"
)

// TokenKey is the storage key of the persisted bearer credential.
const TokenKey = "watchwave.token"

const (
	loginFallback    = "Login failed"
	registerFallback = "Registration failed"
)

// State of a [Store].
type State int

const (
	Unauthenticated State = iota
	Checking              // persisted credential awaiting validation
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	default:
		return ""
	}
}

// Error is a failed auth call. Its message is the service's own text, or a generic fallback.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func newError(err error, fallback string) *Error {
	msg, ok := services.RemoteMessage(err)
	if !ok {
		msg = fallback
	}
	return &Error{Message: msg, Err: err}
}

// Store holds the session. Construct one with [New] and share it explicitly.
//
// Only one of Login, Register or Restore may be outstanding at a time;
// a second call returns [shared.ErrRequestInFlight].
type Store struct {
	mu       sync.Mutex
	auth     services.Authenticator
	storage  repositories.KVStore
	logger   *log.Logger
	state    State
	user     *models.User
	token    string
	inFlight bool
}

var _ oauth2.TokenSource = (*Store)(nil)

// New creates a [Store]. It starts in [Checking] when storage holds a credential, else [Unauthenticated].
func New(auth services.Authenticator, storage repositories.KVStore, logger *log.Logger) *Store {
	if storage == nil {
		storage = repositories.NewMemoryStore()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &Store{auth: auth, storage: storage, logger: logger, state: Unauthenticated}

	data, found, err := storage.Get(TokenKey)
	switch {
	case err != nil:
		logger.Warn("failed to read stored credential", "error", err)
	case found && strings.TrimSpace(string(data)) != "":
		s.token = strings.TrimSpace(string(data))
		s.state = Checking
	}

	return s
}

func (s *Store) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return shared.ErrRequestInFlight
	}
	s.inFlight = true
	return nil
}

func (s *Store) end() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// Restore validates the persisted credential. It does nothing unless the store is [Checking].
//
// Any failure discards the credential and leaves the store [Unauthenticated]; the cause is returned.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Checking {
		s.mu.Unlock()
		return nil
	}
	token := s.token
	s.mu.Unlock()

	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	user, err := s.auth.Me(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.logger.Info("stored credential rejected, signing out", "error", err)
		s.clear()
		return fmt.Errorf("session restore failed: %w", err)
	}

	s.user = user
	s.state = Authenticated
	s.logger.Debug("session restored", "user", user.Email)
	return nil
}

// Login exchanges credentials for a session. On failure the state is unchanged.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	resp, err := s.auth.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return newError(err, loginFallback)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = resp.Token
	s.user = resp.User
	s.state = Authenticated
	if err := s.storage.Set(TokenKey, []byte(resp.Token)); err != nil {
		s.logger.Warn("failed to persist credential, session will not survive restart", "error", err)
	}
	return nil
}

// Register creates an account. It never establishes a session; the caller logs in afterwards.
func (s *Store) Register(ctx context.Context, firstName, lastName, email, password string) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	_, err := s.auth.Register(ctx, services.RegisterRequest{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     strings.TrimSpace(email),
		Password:  password,
	})
	if err != nil {
		return newError(err, registerFallback)
	}
	return nil
}

// Logout clears the session locally.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

func (s *Store) clear() {
	s.token = ""
	s.user = nil
	s.state = Unauthenticated
	if err := s.storage.Delete(TokenKey); err != nil {
		s.logger.Warn("failed to delete stored credential", "error", err)
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Credential returns the bearer credential, which is empty unless a session exists or is being checked.
func (s *Store) Credential() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Store) Authenticated() bool {
	return s.State() == Authenticated
}

// Token implements [oauth2.TokenSource] so remote calls pick up the current credential.
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Authenticated || s.token == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: s.token, TokenType: "Bearer"}, nil
}
