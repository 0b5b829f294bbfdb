// Copyright 2024-2026 Aiku AI

// Package mastodon wraps the Mastodon API client: per-domain app
// registration, the OAuth linking flow, and the authenticated session used
// by the publisher to upload media and submit posts.
package mastodon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	api "github.com/mattn/go-mastodon"
	"github.com/rs/zerolog"
)

const (
	// oobRedirectURI makes the authorization page display the code for the
	// user to copy back into the chat, instead of redirecting anywhere.
	oobRedirectURI = "urn:ietf:wg:oauth:2.0:oob"

	appScopes = "write:statuses write:media"
)

// AccountStore persists linked account credentials per Telegram user. The
// blobs are opaque to the store.
type AccountStore interface {
	Save(ctx context.Context, tgUserID int64, credentials []byte) error
	Load(ctx context.Context, tgUserID int64) ([]byte, error)
	Delete(ctx context.Context, tgUserID int64) error
}

// AppStore persists OAuth app registrations per domain.
type AppStore interface {
	Save(ctx context.Context, domain string, app []byte) error
	Load(ctx context.Context, domain string) ([]byte, error)
}

// credentials is the persisted wire format of a linked account.
type credentials struct {
	Server       string `json:"server"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AccessToken  string `json:"access_token"`
}

// appRegistration is the persisted wire format of a registered app.
type appRegistration struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Service manages app registrations and account linking.
type Service struct {
	accounts   AccountStore
	apps       AppStore
	sessions   *SessionStore
	clientName string
	website    string
	log        zerolog.Logger
}

// NewService creates a Service. The session store holds in-flight
// authorizations and is injected so its lifetime is explicit and tests can
// seed it.
func NewService(accounts AccountStore, apps AppStore, sessions *SessionStore, clientName, website string, log zerolog.Logger) *Service {
	return &Service{
		accounts:   accounts,
		apps:       apps,
		sessions:   sessions,
		clientName: clientName,
		website:    website,
		log:        log.With().Str("component", "mastodon").Logger(),
	}
}

// Login loads the linked account of a Telegram user.
func (s *Service) Login(ctx context.Context, tgUserID int64) (*LoginUser, error) {
	blob, err := s.accounts.Load(ctx, tgUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user login data: %w", err)
	}
	var creds credentials
	if err := json.Unmarshal(blob, &creds); err != nil {
		return nil, fmt.Errorf("failed to deserialize user login data: %w", err)
	}
	return newLoginUser(&creds, tgUserID), nil
}

// BeginAuth registers an app for the domain (reusing a stored registration
// when one exists), remembers the in-flight session for the user, and
// returns the authorization URL to visit.
func (s *Service) BeginAuth(ctx context.Context, tgUserID int64, domain string) (string, error) {
	server := serverURL(domain)

	reg, err := s.loadApp(ctx, domain)
	if err != nil {
		app, err := api.RegisterApp(ctx, &api.AppConfig{
			Server:       server,
			ClientName:   s.clientName,
			Scopes:       appScopes,
			Website:      s.website,
			RedirectURIs: oobRedirectURI,
		})
		if err != nil {
			return "", fmt.Errorf("failed to register client for domain %q: %w", domain, err)
		}
		reg = &appRegistration{ClientID: app.ClientID, ClientSecret: app.ClientSecret}
		if err := s.saveApp(ctx, domain, reg); err != nil {
			return "", err
		}
		s.log.Info().Str("domain", domain).Msg("Registered new app")
	}

	s.sessions.put(tgUserID, &authSession{server: server, domain: domain, app: reg})
	return authorizeURL(server, reg.ClientID), nil
}

// HasSession reports whether the user has an authorization in flight.
func (s *Service) HasSession(tgUserID int64) bool {
	return s.sessions.get(tgUserID) != nil
}

// SessionDomain returns the domain of the user's in-flight authorization.
func (s *Service) SessionDomain(tgUserID int64) string {
	if sess := s.sessions.get(tgUserID); sess != nil {
		return sess.domain
	}
	return ""
}

// CompleteAuth exchanges the authorization code of the user's in-flight
// session for an access token and persists the linked account. The session
// is consumed whether or not the exchange succeeds.
func (s *Service) CompleteAuth(ctx context.Context, tgUserID int64, authCode string) (*LoginUser, error) {
	sess := s.sessions.take(tgUserID)
	if sess == nil {
		return nil, fmt.Errorf("no authorization in progress")
	}

	client := api.NewClient(&api.Config{
		Server:       sess.server,
		ClientID:     sess.app.ClientID,
		ClientSecret: sess.app.ClientSecret,
	})
	if err := client.AuthenticateToken(ctx, authCode, oobRedirectURI); err != nil {
		return nil, fmt.Errorf("failed to authorize for domain %q: %w", sess.domain, err)
	}

	creds := &credentials{
		Server:       sess.server,
		ClientID:     sess.app.ClientID,
		ClientSecret: sess.app.ClientSecret,
		AccessToken:  client.Config.AccessToken,
	}
	blob, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize user login data: %w", err)
	}
	if err := s.accounts.Save(ctx, tgUserID, blob); err != nil {
		return nil, fmt.Errorf("failed to save user login data: %w", err)
	}
	return newLoginUser(creds, tgUserID), nil
}

// Revoke unlinks the user's account.
func (s *Service) Revoke(ctx context.Context, user *LoginUser) error {
	return s.accounts.Delete(ctx, user.tgUserID)
}

func (s *Service) loadApp(ctx context.Context, domain string) (*appRegistration, error) {
	blob, err := s.apps.Load(ctx, domain)
	if err != nil {
		return nil, err
	}
	var reg appRegistration
	if err := json.Unmarshal(blob, &reg); err != nil {
		return nil, fmt.Errorf("failed to deserialize app registration: %w", err)
	}
	return &reg, nil
}

func (s *Service) saveApp(ctx context.Context, domain string, reg *appRegistration) error {
	blob, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("failed to serialize app registration: %w", err)
	}
	if err := s.apps.Save(ctx, domain, blob); err != nil {
		return fmt.Errorf("failed to save app registration: %w", err)
	}
	return nil
}

// serverURL normalizes a user-entered domain into a base URL.
func serverURL(domain string) string {
	if strings.HasPrefix(domain, "https://") || strings.HasPrefix(domain, "http://") {
		return domain
	}
	return "https://" + domain
}

func authorizeURL(server, clientID string) string {
	query := url.Values{
		"client_id":     {clientID},
		"redirect_uri":  {oobRedirectURI},
		"response_type": {"code"},
		"scope":         {appScopes},
	}
	return server + "/oauth/authorize?" + query.Encode()
}
