package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/errors"
	"jobscout/internal/types"
)

func stderrorsAs(err error, target **errors.AppError) bool {
	return stderrors.As(err, target)
}

// fakeProvider is a minimal identity-provider stand-in covering the
// operations the store uses.
type fakeProvider struct {
	mu         sync.Mutex
	accounts   map[string]string // email -> password
	signInErr  string            // provider code to fail sign-in with
	refreshHit int
}

func (f *fakeProvider) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts:signInWithPassword", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.signInErr != "" {
			writeProviderError(w, f.signInErr)
			return
		}
		password, ok := f.accounts[req.Email]
		if !ok {
			writeProviderError(w, "EMAIL_NOT_FOUND")
			return
		}
		if password != req.Password {
			writeProviderError(w, "INVALID_PASSWORD")
			return
		}
		writeAccount(w, req.Email)
	})
	mux.HandleFunc("/accounts:signUp", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		defer f.mu.Unlock()
		if _, exists := f.accounts[req.Email]; exists {
			writeProviderError(w, "EMAIL_EXISTS")
			return
		}
		if len(req.Password) < 6 {
			writeProviderError(w, "WEAK_PASSWORD : Password should be at least 6 characters")
			return
		}
		f.accounts[req.Email] = req.Password
		writeAccount(w, req.Email)
	})
	mux.HandleFunc("/accounts:update", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"localId": "uid-1"}`)
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.refreshHit++
		f.mu.Unlock()
		fmt.Fprint(w, `{"id_token": "refreshed-token", "refresh_token": "refresh-2", "expires_in": "3600", "user_id": "uid-1"}`)
	})
	return mux
}

func writeAccount(w http.ResponseWriter, email string) {
	uid := "uid-" + strings.SplitN(email, "@", 2)[0]
	fmt.Fprintf(w, `{"localId": %q, "email": %q, "idToken": "token-1", "refreshToken": "refresh-1", "expiresIn": "3600"}`, uid, email)
}

func writeProviderError(w http.ResponseWriter, code string) {
	w.WriteHeader(http.StatusBadRequest)
	fmt.Fprintf(w, `{"error": {"code": 400, "message": %q}}`, code)
}

func newTestStore(t *testing.T, provider *fakeProvider) *Store {
	t.Helper()
	if provider.accounts == nil {
		provider.accounts = make(map[string]string)
	}
	server := httptest.NewServer(provider.handler())
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Identity: config.IdentityConfig{
			APIKey:        "test-key",
			Endpoint:      server.URL,
			TokenEndpoint: server.URL,
			Timeout:       2 * time.Second,
		},
		Session: config.SessionConfig{
			TokenFile: filepath.Join(t.TempDir(), "session.json"),
		},
	}

	logger, _ := errors.New("error")
	store, err := NewStore(cfg, logger)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSignUpDoesNotAuthenticate(t *testing.T) {
	store := newTestStore(t, &fakeProvider{})

	identity, err := store.SignUp(context.Background(), "new@example.com", "secret123", "New User")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if identity.UID == "" {
		t.Error("expected created identity to carry a uid")
	}

	if user := store.GetCurrentUser(); user != nil {
		t.Errorf("expected no signed-in user after sign-up, got %+v", user)
	}
	token, err := store.IDToken(context.Background())
	if err != nil {
		t.Fatalf("IDToken: %v", err)
	}
	if token != "" {
		t.Errorf("expected empty token after sign-up, got %q", token)
	}
}

func TestSignInNotifiesAndPersists(t *testing.T) {
	provider := &fakeProvider{accounts: map[string]string{"user@example.com": "secret123"}}
	store := newTestStore(t, provider)

	var states []*types.Identity
	unsubscribe := store.OnAuthStateChange(func(id *types.Identity) {
		states = append(states, id)
	})
	defer unsubscribe()

	if len(states) != 1 || states[0] != nil {
		t.Fatalf("expected immediate nil delivery on registration, got %v", states)
	}

	identity, err := store.SignIn(context.Background(), "user@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if identity.UID != "uid-user" {
		t.Errorf("uid = %q, want uid-user", identity.UID)
	}
	if len(states) != 2 || states[1] == nil || states[1].UID != "uid-user" {
		t.Errorf("expected signed-in notification, got %v", states)
	}

	if user := store.GetCurrentUser(); user == nil || user.UID != "uid-user" {
		t.Errorf("GetCurrentUser = %+v, want uid-user", user)
	}
}

func TestSignInFailureMessages(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		message  string
	}{
		{
			name:     "unknown email",
			email:    "stranger@example.com",
			password: "whatever1",
			message:  "No account found with this email address.",
		},
		{
			name:     "wrong password",
			email:    "user@example.com",
			password: "wrong-password",
			message:  "Incorrect password. Please try again.",
		},
	}

	provider := &fakeProvider{accounts: map[string]string{"user@example.com": "secret123"}}
	store := newTestStore(t, provider)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.SignIn(context.Background(), tt.email, tt.password)
			if err == nil {
				t.Fatal("expected sign-in to fail")
			}
			var appErr *errors.AppError
			if !stderrorsAs(err, &appErr) {
				t.Fatalf("expected AppError, got %T", err)
			}
			if appErr.Type != errors.ErrorTypeAuth {
				t.Errorf("error type = %v, want auth", appErr.Type)
			}
			if appErr.Message != tt.message {
				t.Errorf("message = %q, want %q", appErr.Message, tt.message)
			}
		})
	}
}

func TestHumanAuthMessageDefaults(t *testing.T) {
	if got := humanAuthMessage("SOMETHING_NOVEL"); got != defaultAuthMessage {
		t.Errorf("unknown code should map to default message, got %q", got)
	}
	if got := humanAuthMessage("EMAIL_EXISTS"); got != "An account with this email already exists." {
		t.Errorf("unexpected message for EMAIL_EXISTS: %q", got)
	}
}

func TestProviderCodeFrom(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"EMAIL_NOT_FOUND", "EMAIL_NOT_FOUND"},
		{"WEAK_PASSWORD : Password should be at least 6 characters", "WEAK_PASSWORD"},
		{"  TOO_MANY_ATTEMPTS_TRY_LATER  ", "TOO_MANY_ATTEMPTS_TRY_LATER"},
	}
	for _, tt := range tests {
		if got := providerCodeFrom(tt.input); got != tt.expected {
			t.Errorf("providerCodeFrom(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestForceLogoutOncePerBurst(t *testing.T) {
	provider := &fakeProvider{accounts: map[string]string{"user@example.com": "secret123"}}
	store := newTestStore(t, provider)

	if _, err := store.SignIn(context.Background(), "user@example.com", "secret123"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	signOuts := 0
	unsubscribe := store.OnAuthStateChange(func(id *types.Identity) {
		if id == nil {
			signOuts++
		}
	})
	defer unsubscribe()
	signOuts = 0 // discard the immediate delivery

	// A burst of rejected calls all force logout; only the first acts.
	store.ForceLogout()
	store.ForceLogout()
	store.ForceLogout()

	if signOuts != 1 {
		t.Errorf("forced sign-out notified %d times, want 1", signOuts)
	}
	if user := store.GetCurrentUser(); user != nil {
		t.Errorf("expected signed-out state, got %+v", user)
	}

	// A new sign-in re-arms the guard.
	if _, err := store.SignIn(context.Background(), "user@example.com", "secret123"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	store.ForceLogout()
	if signOuts != 2 {
		t.Errorf("expected second burst to act once, notified %d times", signOuts)
	}
}

func TestListenerRegistrationOrder(t *testing.T) {
	provider := &fakeProvider{accounts: map[string]string{"user@example.com": "secret123"}}
	store := newTestStore(t, provider)

	var order []string
	store.OnAuthStateChange(func(*types.Identity) { order = append(order, "first") })
	store.OnAuthStateChange(func(*types.Identity) { order = append(order, "second") })
	order = nil

	if _, err := store.SignIn(context.Background(), "user@example.com", "secret123"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("listeners not invoked in registration order: %v", order)
	}
}

func TestIDTokenRefreshesExpiredToken(t *testing.T) {
	provider := &fakeProvider{accounts: map[string]string{"user@example.com": "secret123"}}
	store := newTestStore(t, provider)

	if _, err := store.SignIn(context.Background(), "user@example.com", "secret123"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	// Expire the stored grant. The token is opaque, so the stored deadline
	// drives the refresh decision.
	store.mu.Lock()
	store.current.ExpiresAt = time.Now().Add(-time.Minute)
	store.mu.Unlock()

	token, err := store.IDToken(context.Background())
	if err != nil {
		t.Fatalf("IDToken: %v", err)
	}
	if token != "refreshed-token" {
		t.Errorf("token = %q, want refreshed-token", token)
	}
	if provider.refreshHit != 1 {
		t.Errorf("refresh endpoint hit %d times, want 1", provider.refreshHit)
	}
}

func TestSessionRestoredAcrossStores(t *testing.T) {
	provider := &fakeProvider{accounts: map[string]string{"user@example.com": "secret123"}}

	server := httptest.NewServer(provider.handler())
	t.Cleanup(server.Close)

	tokenFile := filepath.Join(t.TempDir(), "session.json")
	cfg := &config.Config{
		Identity: config.IdentityConfig{
			APIKey:        "test-key",
			Endpoint:      server.URL,
			TokenEndpoint: server.URL,
			Timeout:       2 * time.Second,
		},
		Session: config.SessionConfig{TokenFile: tokenFile},
	}
	logger, _ := errors.New("error")

	first, err := NewStore(cfg, logger)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := first.SignIn(context.Background(), "user@example.com", "secret123"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	first.Close()

	second, err := NewStore(cfg, logger)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer second.Close()

	if user := second.GetCurrentUser(); user == nil || user.UID != "uid-user" {
		t.Errorf("restored user = %+v, want uid-user", user)
	}
}

func TestSignOutClearsSession(t *testing.T) {
	provider := &fakeProvider{accounts: map[string]string{"user@example.com": "secret123"}}
	store := newTestStore(t, provider)

	if _, err := store.SignIn(context.Background(), "user@example.com", "secret123"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	store.SignOut(context.Background())

	if user := store.GetCurrentUser(); user != nil {
		t.Errorf("expected nil user after sign-out, got %+v", user)
	}
	token, _ := store.IDToken(context.Background())
	if token != "" {
		t.Errorf("expected empty token after sign-out, got %q", token)
	}
}
