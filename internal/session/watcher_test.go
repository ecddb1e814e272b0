package session

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/errors"
	"jobscout/internal/types"
)

// Two stores sharing one token file model two processes sharing a session.
func TestExternalSignOutObservedThroughWatcher(t *testing.T) {
	provider := &fakeProvider{accounts: map[string]string{"user@example.com": "secret123"}}
	server := httptest.NewServer(provider.handler())
	t.Cleanup(server.Close)

	tokenFile := filepath.Join(t.TempDir(), "session.json")
	baseCfg := config.Config{
		Identity: config.IdentityConfig{
			APIKey:        "test-key",
			Endpoint:      server.URL,
			TokenEndpoint: server.URL,
			Timeout:       2 * time.Second,
		},
		Session: config.SessionConfig{TokenFile: tokenFile},
	}
	logger, _ := errors.New("error")

	writerCfg := baseCfg
	writer, err := NewStore(&writerCfg, logger)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { writer.Close() })

	if _, err := writer.SignIn(context.Background(), "user@example.com", "secret123"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	watcherCfg := baseCfg
	watcherCfg.Session.WatchEnabled = true
	watcherCfg.Session.DebounceDelay = 20 * time.Millisecond

	observer, err := NewStore(&watcherCfg, logger)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { observer.Close() })

	if user := observer.GetCurrentUser(); user == nil {
		t.Fatal("observer should restore the shared session")
	}

	var sawSignOut atomic.Bool
	observer.OnAuthStateChange(func(id *types.Identity) {
		if id == nil {
			sawSignOut.Store(true)
		}
	})
	sawSignOut.Store(false) // discard the immediate delivery

	writer.SignOut(context.Background())

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if sawSignOut.Load() {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}

	if !sawSignOut.Load() {
		t.Fatal("observer never saw the external sign-out")
	}
	if user := observer.GetCurrentUser(); user != nil {
		t.Errorf("observer still signed in after external sign-out: %+v", user)
	}
}
