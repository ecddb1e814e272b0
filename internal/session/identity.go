package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/errors"
)

// identityClient talks to the hosted identity provider's REST surface. It
// only covers the account operations the client needs: password sign-in,
// sign-up, profile update, and refresh-token exchange.
type identityClient struct {
	apiKey        string
	endpoint      string // accounts:* operations
	tokenEndpoint string // refresh-token exchange
	http          *http.Client
	logger        *errors.Logger
}

// authTokens is one credential grant from the provider.
type authTokens struct {
	UID          string
	Email        string
	DisplayName  string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

func newIdentityClient(cfg *config.IdentityConfig, logger *errors.Logger) *identityClient {
	return &identityClient{
		apiKey:        cfg.APIKey,
		endpoint:      strings.TrimRight(cfg.Endpoint, "/"),
		tokenEndpoint: strings.TrimRight(cfg.TokenEndpoint, "/"),
		http:          &http.Client{Timeout: cfg.Timeout},
		logger:        logger,
	}
}

// accountResponse mirrors the provider's accounts:* response envelope.
type accountResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

func (ic *identityClient) signInWithPassword(ctx context.Context, email, password string) (*authTokens, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	var resp accountResponse
	if err := ic.postAccounts(ctx, "signInWithPassword", payload, &resp); err != nil {
		return nil, err
	}
	return ic.tokensFromAccount(&resp), nil
}

func (ic *identityClient) signUp(ctx context.Context, email, password string) (*authTokens, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	var resp accountResponse
	if err := ic.postAccounts(ctx, "signUp", payload, &resp); err != nil {
		return nil, err
	}
	return ic.tokensFromAccount(&resp), nil
}

// setDisplayName attaches a display name to a freshly created account.
func (ic *identityClient) setDisplayName(ctx context.Context, idToken, displayName string) error {
	payload := map[string]any{
		"idToken":           idToken,
		"displayName":       displayName,
		"returnSecureToken": false,
	}

	var resp accountResponse
	return ic.postAccounts(ctx, "update", payload, &resp)
}

// refreshResponse mirrors the token-exchange response envelope.
type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

// refresh exchanges a refresh token for a fresh ID token.
func (ic *identityClient) refresh(ctx context.Context, refreshToken string) (*authTokens, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	endpoint := fmt.Sprintf("%s/token?key=%s", ic.tokenEndpoint, url.QueryEscape(ic.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.NewInternalError("REQUEST_BUILD_FAILED", "failed to build token refresh request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp refreshResponse
	if err := ic.send(req, &resp); err != nil {
		return nil, err
	}

	return &authTokens{
		UID:          resp.UserID,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiryFrom(resp.ExpiresIn),
	}, nil
}

// postAccounts issues one accounts:{op} call against the identity endpoint.
func (ic *identityClient) postAccounts(ctx context.Context, op string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.NewInternalError("ENCODE_FAILED", "failed to encode identity request", err)
	}

	endpoint := fmt.Sprintf("%s/accounts:%s?key=%s", ic.endpoint, op, url.QueryEscape(ic.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.NewInternalError("REQUEST_BUILD_FAILED", "failed to build identity request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return ic.send(req, out)
}

// send executes an identity request and decodes the response, mapping
// provider error codes onto the auth taxonomy.
func (ic *identityClient) send(req *http.Request, out any) error {
	resp, err := ic.http.Do(req)
	if err != nil {
		ic.logger.Warn("Identity provider unreachable", "error", err.Error())
		return errors.NewTransientError(errors.ErrCodeBackendUnavailable,
			"Could not reach the sign-in service. Check your connection and try again.", err)
	}
	defer resp.Body.Close()

	if err := checkProviderResponse(resp); err != nil {
		return classifyProviderError(err, ic.logger)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewAuthError(errors.ErrCodeInvalidCredentials,
			"The sign-in service returned an unreadable response.", err)
	}
	return nil
}

func (ic *identityClient) tokensFromAccount(resp *accountResponse) *authTokens {
	return &authTokens{
		UID:          resp.LocalID,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiryFrom(resp.ExpiresIn),
	}
}

// expiryFrom converts the provider's expires-in seconds string to a deadline,
// with a small safety margin so tokens are refreshed slightly early.
func expiryFrom(expiresIn string) time.Time {
	seconds, err := strconv.Atoi(expiresIn)
	if err != nil || seconds <= 0 {
		seconds = 3600
	}
	margin := 30 * time.Second
	return time.Now().Add(time.Duration(seconds)*time.Second - margin)
}
