// OIDC implementation of the auth collaborator
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"medialog/internal/models"
	"medialog/internal/server"
	"medialog/internal/shared"
)

// AuthService authenticates the user against an OIDC provider and publishes
// session transitions. It owns the persisted token under ~/.medialog and is
// the only component allowed to change session state.
type AuthService struct {
	oauth     *oauth2.Config
	verifier  *oidc.IDTokenVerifier
	logger    *log.Logger
	addr      string
	tokenPath string

	mu        sync.Mutex
	session   models.Session
	token     *oauth2.Token
	listeners []SessionListener
}

var _ Authenticator = (*AuthService)(nil)

// storedToken is the on-disk token shape. The raw ID token is kept alongside
// the OAuth2 fields so the session can be re-verified on startup.
type storedToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
	IDToken      string    `json:"id_token"`
}

// NewAuthService creates an AuthService from configuration, performing OIDC
// discovery against the configured issuer.
func NewAuthService(ctx context.Context, config *shared.Config, logger *log.Logger) (*AuthService, error) {
	if config.Auth.Issuer == "" || config.Auth.ClientID == "" {
		return nil, fmt.Errorf("%w: OIDC issuer and client_id are required", shared.ErrMissingCredentials)
	}

	provider, err := oidc.NewProvider(ctx, config.Auth.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	return &AuthService{
		oauth: &oauth2.Config{
			ClientID:     config.Auth.ClientID,
			ClientSecret: config.Auth.ClientSecret,
			RedirectURL:  config.Auth.RedirectURI,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier:  provider.Verifier(&oidc.Config{ClientID: config.Auth.ClientID}),
		logger:    logger,
		addr:      fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		tokenPath: filepath.Join(home, ".medialog", "token.json"),
	}, nil
}

// OnSessionChange registers a listener and immediately invokes it with the
// current session state.
func (s *AuthService) OnSessionChange(fn SessionListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	current := s.session
	s.mu.Unlock()

	fn(current)
}

// Current returns the session as of the last transition.
func (s *AuthService) Current() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// SignIn runs the OAuth2 authorization-code flow: starts a localhost
// callback server, opens the provider's consent page in the browser, and
// waits for the callback or context cancellation.
func (s *AuthService) SignIn(ctx context.Context) (models.Session, error) {
	state := shared.GenerateID()
	handler := server.NewOAuthHandler(s.oauth, state)

	router := server.NewBasicRouter()
	router.Handler(handler)

	srv := &http.Server{Addr: s.addr, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("callback server error: %v", err)
		}
	}()
	defer srv.Shutdown(context.Background())

	authURL := s.oauth.AuthCodeURL(state)
	s.logger.Info("opening browser for sign in")
	if err := shared.OpenBrowser(authURL); err != nil {
		s.logger.Warnf("could not open browser, visit manually: %s", authURL)
	}

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return models.Session{}, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
		}
		return s.establish(ctx, result.Token)
	case <-ctx.Done():
		return models.Session{}, ctx.Err()
	}
}

// Resume restores a previous session from the persisted token, verifying the
// stored ID token. Returns [shared.ErrNotAuthenticated] if no token exists
// and [shared.ErrTokenExpired] if verification fails.
func (s *AuthService) Resume(ctx context.Context) (models.Session, error) {
	data, err := os.ReadFile(s.tokenPath)
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: no stored session", shared.ErrNotAuthenticated)
	}

	var stored storedToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return models.Session{}, fmt.Errorf("%w: corrupt token file", shared.ErrNotAuthenticated)
	}

	token := (&oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		Expiry:       stored.Expiry,
	}).WithExtra(map[string]any{"id_token": stored.IDToken})

	session, err := s.establish(ctx, token)
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}
	return session, nil
}

// SignOut discards the stored token and emits the unauthenticated state.
func (s *AuthService) SignOut() error {
	if err := os.Remove(s.tokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}

	s.mu.Lock()
	s.session = models.Session{}
	s.token = nil
	s.mu.Unlock()

	s.emit(models.Session{})
	return nil
}

// TokenSource returns an auto-refreshing token source for the current
// session, for use by the HTTP document store.
func (s *AuthService) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if token == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.oauth.TokenSource(ctx, token), nil
}

// establish verifies the ID token, persists credentials, updates session
// state, and notifies listeners.
func (s *AuthService) establish(ctx context.Context, token *oauth2.Token) (models.Session, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return models.Session{}, fmt.Errorf("%w: provider response missing id token", shared.ErrAuthFailed)
	}

	idToken, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: id token verification failed: %v", shared.ErrAuthFailed, err)
	}

	var claims struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return models.Session{}, fmt.Errorf("%w: failed to parse claims: %v", shared.ErrAuthFailed, err)
	}

	session := models.Session{UserID: claims.Sub, Email: claims.Email}

	if err := s.save(token, rawIDToken); err != nil {
		s.logger.Warnf("failed to persist token: %v", err)
	}

	s.mu.Lock()
	s.session = session
	s.token = token
	s.mu.Unlock()

	s.emit(session)
	return session, nil
}

// emit notifies all listeners of a session transition. Listeners are called
// outside the lock so they may call back into the service.
func (s *AuthService) emit(session models.Session) {
	s.mu.Lock()
	listeners := make([]SessionListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(session)
	}
}

func (s *AuthService) save(token *oauth2.Token, rawIDToken string) error {
	stored := storedToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
		IDToken:      rawIDToken,
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.tokenPath), 0755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	return os.WriteFile(s.tokenPath, data, 0600)
}
