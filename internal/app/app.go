// Package app wires the session store, profile cache, and backend gateway
// into one application instance shared by every command.
package app

import (
	"context"
	"fmt"

	"jobscout/internal/config"
	"jobscout/internal/errors"
	"jobscout/internal/gateway"
	"jobscout/internal/observability"
	"jobscout/internal/pipeline"
	"jobscout/internal/profile"
	"jobscout/internal/session"
	"jobscout/internal/types"
)

// App holds the long-lived application components.
type App struct {
	Config        *config.Config
	Logger        *errors.Logger
	Store         *session.Store
	Cache         *profile.Cache
	Gateway       *gateway.Client
	Observability *observability.ObservabilityManager
}

// New builds the application from configuration. The session store feeds
// bearer tokens to the gateway, and an unauthenticated response from the
// backend forces the store to sign out.
func New(cfg *config.Config, logger *errors.Logger, version string) (*App, error) {
	om, err := observability.NewObservabilityManager(
		observability.GetObservabilityConfig(cfg, version), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	store, err := session.NewStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	cache, err := profile.Open(&cfg.Store, cfg.App.OnboardingRecheck, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open profile cache: %w", err)
	}

	opts := []gateway.Option{
		gateway.WithUnauthenticatedHook(store.ForceLogout),
	}
	if cfg.Observability.Enabled {
		opts = append(opts, gateway.WithMetrics(om.GetMetrics()))
	}
	client := gateway.NewClient(cfg, store, logger, opts...)

	return &App{
		Config:        cfg,
		Logger:        logger,
		Store:         store,
		Cache:         cache,
		Gateway:       client,
		Observability: om,
	}, nil
}

// Close releases all application resources.
func (a *App) Close(ctx context.Context) error {
	a.Gateway.Close()
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("Failed to close session store", "error", err)
	}
	return a.Observability.Shutdown(ctx)
}

// CurrentUser returns the signed-in identity, or an error when nobody is.
func (a *App) CurrentUser() (*types.Identity, error) {
	identity := a.Store.GetCurrentUser()
	if identity == nil {
		return nil, errors.NewAuthError(errors.ErrCodeUnauthenticated,
			"Please sign in to continue.", nil)
	}
	return identity, nil
}

// LoadPipeline restores the signed-in user's staged pipeline state.
func (a *App) LoadPipeline(ctx context.Context) (*pipeline.State, error) {
	identity, err := a.CurrentUser()
	if err != nil {
		return nil, err
	}
	return pipeline.Load(ctx, a.Cache, identity.UID)
}

// SavePipeline persists the staged pipeline state for the signed-in user.
func (a *App) SavePipeline(ctx context.Context, state *pipeline.State) error {
	identity, err := a.CurrentUser()
	if err != nil {
		return err
	}
	return state.Persist(ctx, a.Cache, identity.UID)
}

// SignOut tears down the session: the server-side session is cleared on a
// best-effort basis while the token is still valid, the staged pipeline is
// discarded, and the local session is removed last.
func (a *App) SignOut(ctx context.Context) {
	identity := a.Store.GetCurrentUser()
	if identity == nil {
		return
	}

	if err := a.Gateway.ClearSession(ctx); err != nil {
		a.Logger.Warn("Failed to clear server-side session", "error", err)
	}
	if err := pipeline.Discard(ctx, a.Cache, identity.UID); err != nil {
		a.Logger.Warn("Failed to discard staged pipeline state", "error", err)
	}

	a.Store.SignOut(ctx)
}

// OnboardUser runs the post-sign-in bookkeeping: the local profile row is
// created or touched, and when it looks incomplete the store is re-checked
// briefly to tolerate a resume upload that has not landed yet.
func (a *App) OnboardUser(ctx context.Context) (*types.UserProfile, error) {
	identity, err := a.CurrentUser()
	if err != nil {
		return nil, err
	}

	prof, err := a.Cache.EnsureProfile(ctx, identity.UID, identity.DisplayName)
	if err != nil {
		return nil, err
	}

	if !prof.ProfileCompleted {
		completed, err := a.Cache.WaitForOnboarding(ctx, identity.UID)
		if err != nil {
			return nil, err
		}
		if completed {
			return a.Cache.Profile(ctx, identity.UID)
		}
	}

	return prof, nil
}
