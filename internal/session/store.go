package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/errors"
	"jobscout/internal/types"

	"github.com/golang-jwt/jwt/v5"
)

// persistedSession is the on-disk session document. One process signs in,
// every other process picks the change up through the token-file watcher.
type persistedSession struct {
	Identity     types.Identity `json:"identity"`
	IDToken      string         `json:"idToken"`
	RefreshToken string         `json:"refreshToken"`
	ExpiresAt    time.Time      `json:"expiresAt"`
}

// Listener receives the signed-in identity, or nil after sign-out.
type Listener func(*types.Identity)

// Store owns the authenticated session: credential lifecycle, the current
// identity, and the auth-state change stream. It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	identity  *identityClient
	tokenFile string
	current   *persistedSession

	listeners    map[int]Listener
	listenerSeq  int
	listenerKeys []int // registration order

	// forcedOut collapses a burst of 401s into a single forced sign-out.
	forcedOut bool

	watcher *tokenFileWatcher
	logger  *errors.Logger
}

// NewStore builds a session store, restoring any persisted session from the
// token file. When watching is enabled, external sign-ins and sign-outs by
// other processes are picked up and streamed to listeners.
func NewStore(cfg *config.Config, logger *errors.Logger) (*Store, error) {
	s := &Store{
		identity:  newIdentityClient(&cfg.Identity, logger),
		tokenFile: cfg.Session.TokenFile,
		listeners: make(map[int]Listener),
		logger:    logger,
	}

	if err := s.restore(); err != nil {
		// A corrupt session file is discarded, not fatal.
		logger.Warn("Discarding unreadable session file",
			"file", s.tokenFile,
			"error", err.Error())
		_ = os.Remove(s.tokenFile)
	}

	if cfg.Session.WatchEnabled && s.tokenFile != "" {
		watcher, err := newTokenFileWatcher(s.tokenFile, cfg.Session.DebounceDelay, s.reloadFromFile, logger)
		if err != nil {
			return nil, err
		}
		if err := watcher.Start(); err != nil {
			return nil, err
		}
		s.watcher = watcher
	}

	return s, nil
}

// Close stops the token-file watcher.
func (s *Store) Close() error {
	if s.watcher != nil {
		return s.watcher.Stop()
	}
	return nil
}

// SignIn authenticates with email and password. On success the session is
// persisted and listeners are notified.
func (s *Store) SignIn(ctx context.Context, email, password string) (*types.Identity, error) {
	tokens, err := s.identity.signInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	identity := types.Identity{
		UID:         tokens.UID,
		Email:       tokens.Email,
		DisplayName: tokens.DisplayName,
	}

	s.mu.Lock()
	s.current = &persistedSession{
		Identity:     identity,
		IDToken:      tokens.IDToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	}
	s.forcedOut = false
	s.persistLocked()
	listeners := s.snapshotListenersLocked()
	s.mu.Unlock()

	s.logger.Info("User signed in", "uid", identity.UID)
	notify(listeners, &identity)
	return &identity, nil
}

// SignUp creates an account and then deliberately leaves the user signed
// out; a fresh account must go through an explicit sign-in. The created
// identity is returned for confirmation only.
func (s *Store) SignUp(ctx context.Context, email, password, displayName string) (*types.Identity, error) {
	tokens, err := s.identity.signUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if displayName != "" {
		if err := s.identity.setDisplayName(ctx, tokens.IDToken, displayName); err != nil {
			// The account exists; a failed name write is not fatal.
			s.logger.Warn("Failed to set display name on new account",
				"uid", tokens.UID,
				"error", err.Error())
		}
	}

	s.logger.Info("Account created", "uid", tokens.UID)

	// The grant from sign-up is discarded, never persisted.
	return &types.Identity{
		UID:         tokens.UID,
		Email:       tokens.Email,
		DisplayName: displayName,
	}, nil
}

// SignOut clears the session and notifies listeners. Safe to call when
// already signed out.
func (s *Store) SignOut(ctx context.Context) {
	s.mu.Lock()
	wasSignedIn := s.current != nil
	s.current = nil
	s.forcedOut = false
	s.removeTokenFileLocked()
	listeners := s.snapshotListenersLocked()
	s.mu.Unlock()

	if wasSignedIn {
		s.logger.Info("User signed out")
		notify(listeners, nil)
	}
}

// ForceLogout signs the user out in response to a credential rejection.
// A burst of rejected calls collapses into a single sign-out.
func (s *Store) ForceLogout() {
	s.mu.Lock()
	if s.current == nil || s.forcedOut {
		s.mu.Unlock()
		return
	}
	s.forcedOut = true
	s.current = nil
	s.removeTokenFileLocked()
	listeners := s.snapshotListenersLocked()
	s.mu.Unlock()

	s.logger.Warn("Session rejected by backend, forcing sign-out")
	notify(listeners, nil)
}

// GetCurrentUser returns the signed-in identity, or nil.
func (s *Store) GetCurrentUser() *types.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	identity := s.current.Identity
	return &identity
}

// OnAuthStateChange registers a listener. The current state is delivered
// immediately, then every subsequent change, in registration order relative
// to other listeners. The returned function unsubscribes.
func (s *Store) OnAuthStateChange(fn Listener) func() {
	s.mu.Lock()
	s.listenerSeq++
	id := s.listenerSeq
	s.listeners[id] = fn
	s.listenerKeys = append(s.listenerKeys, id)

	var current *types.Identity
	if s.current != nil {
		identity := s.current.Identity
		current = &identity
	}
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
		for i, key := range s.listenerKeys {
			if key == id {
				s.listenerKeys = append(s.listenerKeys[:i], s.listenerKeys[i+1:]...)
				break
			}
		}
	}
}

// IDToken returns a currently valid bearer token, refreshing it when
// expired. Returns an empty token, never an error, when no user is signed in
// or the refresh fails; callers treat an empty token as unauthenticated.
func (s *Store) IDToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return "", nil
	}
	token := s.current.IDToken
	refreshToken := s.current.RefreshToken
	expiresAt := s.current.ExpiresAt
	s.mu.Unlock()

	if !tokenExpired(token, expiresAt) {
		return token, nil
	}

	fresh, err := s.identity.refresh(ctx, refreshToken)
	if err != nil {
		s.logger.Warn("Token refresh failed", "error", err.Error())
		return "", nil
	}

	s.mu.Lock()
	if s.current != nil {
		s.current.IDToken = fresh.IDToken
		if fresh.RefreshToken != "" {
			s.current.RefreshToken = fresh.RefreshToken
		}
		s.current.ExpiresAt = fresh.ExpiresAt
		s.persistLocked()
	}
	s.mu.Unlock()

	return fresh.IDToken, nil
}

// tokenExpired reports whether the bearer token needs a refresh. The token's
// own exp claim wins when present; the stored deadline is the fallback for
// opaque tokens.
func tokenExpired(token string, storedDeadline time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return time.Now().After(exp.Time.Add(-30 * time.Second))
		}
	}
	return !storedDeadline.IsZero() && time.Now().After(storedDeadline)
}

// restore loads a persisted session from the token file.
func (s *Store) restore() error {
	if s.tokenFile == "" {
		return nil
	}

	data, err := os.ReadFile(s.tokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var session persistedSession
	if err := json.Unmarshal(data, &session); err != nil {
		return err
	}
	if session.Identity.UID == "" || session.RefreshToken == "" {
		return errors.NewAuthError(errors.ErrCodeUnauthenticated, "incomplete session file", nil)
	}

	s.current = &session
	s.logger.Debug("Restored session", "uid", session.Identity.UID)
	return nil
}

// reloadFromFile re-reads the token file after an external change and
// notifies listeners when the signed-in identity differs.
func (s *Store) reloadFromFile() {
	s.mu.Lock()
	previousUID := ""
	if s.current != nil {
		previousUID = s.current.Identity.UID
	}

	s.current = nil
	if err := s.restore(); err != nil {
		s.logger.Warn("Ignoring unreadable session file after external change",
			"error", err.Error())
	}

	currentUID := ""
	var identity *types.Identity
	if s.current != nil {
		currentUID = s.current.Identity.UID
		copied := s.current.Identity
		identity = &copied
	}
	changed := previousUID != currentUID
	if changed {
		s.forcedOut = false
	}
	listeners := s.snapshotListenersLocked()
	s.mu.Unlock()

	if changed {
		s.logger.Info("Session changed by another process",
			"previous_uid", previousUID,
			"current_uid", currentUID)
		notify(listeners, identity)
	}
}

// persistLocked writes the current session to the token file. Caller holds
// the lock.
func (s *Store) persistLocked() {
	if s.tokenFile == "" || s.current == nil {
		return
	}

	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		s.logger.LogError(err, "Failed to encode session file")
		return
	}

	if err := os.MkdirAll(filepath.Dir(s.tokenFile), 0700); err != nil {
		s.logger.LogError(err, "Failed to create session directory")
		return
	}
	if err := os.WriteFile(s.tokenFile, data, 0600); err != nil {
		s.logger.LogError(err, "Failed to write session file")
	}
}

func (s *Store) removeTokenFileLocked() {
	if s.tokenFile == "" {
		return
	}
	if err := os.Remove(s.tokenFile); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to remove session file", "error", err.Error())
	}
}

// snapshotListenersLocked copies the listeners in registration order so they
// can be invoked outside the lock.
func (s *Store) snapshotListenersLocked() []Listener {
	listeners := make([]Listener, 0, len(s.listenerKeys))
	for _, id := range s.listenerKeys {
		if fn, ok := s.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	return listeners
}

func notify(listeners []Listener, identity *types.Identity) {
	for _, fn := range listeners {
		fn(identity)
	}
}
