// Auth service client: login, registration, and credential validation
package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/watchwave/internal/models"
	"github.com/desertthunder/watchwave/internal/shared"
	"golang.org/x/oauth2"
)

const (
	loginPath           = "/auth/login"
	defaultRegisterPath = "/auth/register"
	mePath              = "/auth/me"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of the registration endpoint.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// AuthResponse is returned by login and registration.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService talks to the remote auth service.
type AuthService struct {
	api          *APIClient
	registerPath string
}

// NewAuthService creates a new [AuthService]. An empty registerPath uses "/auth/register".
func NewAuthService(api *APIClient, registerPath string) *AuthService {
	if registerPath == "" {
		registerPath = defaultRegisterPath
	}
	return &AuthService{api: api, registerPath: registerPath}
}

// Login exchanges email and password for a bearer credential and user record.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	resp, err := s.api.PostJSON(ctx, loginPath, LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var out AuthResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%w: login response missing token", shared.ErrAuthFailed)
	}
	if out.User == nil {
		return nil, fmt.Errorf("%w: login response missing user", shared.ErrAuthFailed)
	}

	return &out, nil
}

// Register creates an account. The response token, if any, is returned untouched.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	resp, err := s.api.PostJSON(ctx, s.registerPath, req)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var out AuthResponse
	if len(resp.Body) > 0 {
		if err := resp.Decode(&out); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// Me validates token and returns the user it belongs to.
func (s *AuthService) Me(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	client := BearerClient(ctx, s.api.HTTPClient(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))

	resp, err := s.api.WithHTTPClient(client).Get(ctx, mePath, nil)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var out struct {
		User *models.User `json:"user"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("%w: response missing user", shared.ErrAuthFailed)
	}

	return out.User, nil
}

// BearerClient returns an [http.Client] that sends "Authorization: Bearer <token>" from src on every request.
//
// Requests go through base's transport.
func BearerClient(ctx context.Context, base *http.Client, src oauth2.TokenSource) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	return oauth2.NewClient(ctx, src)
}
