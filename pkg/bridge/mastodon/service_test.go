// Copyright 2024-2026 Aiku AI

package mastodon

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

var errMissing = errors.New("not found")

type memAccountStore struct {
	blobs map[int64][]byte
}

func newMemAccountStore() *memAccountStore {
	return &memAccountStore{blobs: make(map[int64][]byte)}
}

func (m *memAccountStore) Save(ctx context.Context, tgUserID int64, credentials []byte) error {
	m.blobs[tgUserID] = credentials
	return nil
}

func (m *memAccountStore) Load(ctx context.Context, tgUserID int64) ([]byte, error) {
	blob, ok := m.blobs[tgUserID]
	if !ok {
		return nil, errMissing
	}
	return blob, nil
}

func (m *memAccountStore) Delete(ctx context.Context, tgUserID int64) error {
	delete(m.blobs, tgUserID)
	return nil
}

type memAppStore struct {
	blobs map[string][]byte
}

func newMemAppStore() *memAppStore {
	return &memAppStore{blobs: make(map[string][]byte)}
}

func (m *memAppStore) Save(ctx context.Context, domain string, app []byte) error {
	m.blobs[domain] = app
	return nil
}

func (m *memAppStore) Load(ctx context.Context, domain string) ([]byte, error) {
	blob, ok := m.blobs[domain]
	if !ok {
		return nil, errMissing
	}
	return blob, nil
}

func newTestService(accounts AccountStore, apps AppStore, sessions *SessionStore) *Service {
	return NewService(accounts, apps, sessions, "test-client", "https://example.com", zerolog.Nop())
}

func TestSessionStoreTakeConsumes(t *testing.T) {
	t.Parallel()
	sessions := NewSessionStore()
	sessions.put(1, &authSession{domain: "mastodon.example"})

	if got := sessions.get(1); got == nil || got.domain != "mastodon.example" {
		t.Fatalf("get: got %+v", got)
	}
	if got := sessions.take(1); got == nil {
		t.Fatal("take: got nil")
	}
	if sessions.get(1) != nil {
		t.Error("take must remove the session")
	}
	if sessions.take(2) != nil {
		t.Error("take of an unknown user must return nil")
	}
}

func TestServerURL(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"mastodon.example", "https://mastodon.example"},
		{"https://mastodon.example", "https://mastodon.example"},
		{"http://localhost:3000", "http://localhost:3000"},
	}
	for _, tc := range cases {
		if got := serverURL(tc.in); got != tc.want {
			t.Errorf("serverURL(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAuthorizeURL(t *testing.T) {
	t.Parallel()
	raw := authorizeURL("https://mastodon.example", "client123")
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Host != "mastodon.example" || parsed.Path != "/oauth/authorize" {
		t.Errorf("authorize URL: got %q", raw)
	}
	query := parsed.Query()
	if query.Get("client_id") != "client123" {
		t.Errorf("client_id: got %q", query.Get("client_id"))
	}
	if query.Get("redirect_uri") != oobRedirectURI {
		t.Errorf("redirect_uri: got %q", query.Get("redirect_uri"))
	}
	if query.Get("response_type") != "code" {
		t.Errorf("response_type: got %q", query.Get("response_type"))
	}
	if query.Get("scope") != appScopes {
		t.Errorf("scope: got %q", query.Get("scope"))
	}
}

func TestBeginAuthReusesStoredApp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	apps := newMemAppStore()
	apps.blobs["mastodon.example"] = []byte(`{"client_id":"stored-id","client_secret":"stored-secret"}`)
	sessions := NewSessionStore()
	svc := newTestService(newMemAccountStore(), apps, sessions)

	authURL, err := svc.BeginAuth(ctx, 42, "mastodon.example")
	if err != nil {
		t.Fatalf("BeginAuth: %v", err)
	}
	if !strings.Contains(authURL, "client_id=stored-id") {
		t.Errorf("auth URL must use the stored registration: %q", authURL)
	}
	if !svc.HasSession(42) {
		t.Error("BeginAuth must leave a session in flight")
	}
	if got := svc.SessionDomain(42); got != "mastodon.example" {
		t.Errorf("SessionDomain: got %q", got)
	}
}

func TestSessionQueriesWithoutSession(t *testing.T) {
	t.Parallel()
	svc := newTestService(newMemAccountStore(), newMemAppStore(), NewSessionStore())
	if svc.HasSession(99) {
		t.Error("HasSession without BeginAuth must be false")
	}
	if got := svc.SessionDomain(99); got != "" {
		t.Errorf("SessionDomain without session: got %q", got)
	}
}

func TestCompleteAuthWithoutSession(t *testing.T) {
	t.Parallel()
	svc := newTestService(newMemAccountStore(), newMemAppStore(), NewSessionStore())
	if _, err := svc.CompleteAuth(context.Background(), 99, "code"); err == nil {
		t.Error("CompleteAuth without a session must fail")
	}
}

func TestLoginRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	accounts := newMemAccountStore()
	accounts.blobs[42] = []byte(`{
		"server": "https://mastodon.example",
		"client_id": "id",
		"client_secret": "secret",
		"access_token": "token"
	}`)
	svc := newTestService(accounts, newMemAppStore(), NewSessionStore())

	user, err := svc.Login(ctx, 42)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Domain() != "mastodon.example" {
		t.Errorf("Domain: got %q", user.Domain())
	}
	if user.TelegramUserID() != 42 {
		t.Errorf("TelegramUserID: got %d", user.TelegramUserID())
	}

	if err := svc.Revoke(ctx, user); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := svc.Login(ctx, 42); err == nil {
		t.Error("Login after Revoke must fail")
	}
}

func TestLoginCorruptCredentials(t *testing.T) {
	t.Parallel()
	accounts := newMemAccountStore()
	accounts.blobs[7] = []byte("not json")
	svc := newTestService(accounts, newMemAppStore(), NewSessionStore())

	if _, err := svc.Login(context.Background(), 7); err == nil {
		t.Error("Login with corrupt credentials must fail")
	}
}
