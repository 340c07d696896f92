package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mplusd/internal/shared"
	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

const (
	EnvClientID     = "BLIZZARD_CLIENT_ID"
	EnvClientSecret = "BLIZZARD_CLIENT_SECRET"

	DefaultTokenURL  = "https://oauth.battle.net/token"
	DefaultTimeout   = 10 * time.Second
	DefaultExpiresIn = 86399 * time.Second
)

// Credentials identify this server to the token endpoint.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// RefreshRecorder observes token refresh outcomes ("success" or "error").
type RefreshRecorder interface {
	TokenRefresh(result string)
}

// Options configures a [TokenManager]. Zero values fall back to defaults.
type Options struct {
	TokenURL   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Clock      clockwork.Clock
	Getenv     func(string) string
	Logger     *log.Logger
	Metrics    RefreshRecorder
}

// TokenManager hands out a currently valid bearer token, refreshing it through the OAuth2
// client-credentials grant when the cached one is missing or about to expire.
//
// Concurrent refreshes collapse into one token endpoint call.
type TokenManager struct {
	store      TokenStore
	tokenURL   string
	timeout    time.Duration
	httpClient *http.Client
	clock      clockwork.Clock
	getenv     func(string) string
	logger     *log.Logger
	metrics    RefreshRecorder
	group      singleflight.Group
}

// NewTokenManager creates a [TokenManager] that caches into store.
func NewTokenManager(store TokenStore, opts Options) *TokenManager {
	if opts.TokenURL == "" {
		opts.TokenURL = DefaultTokenURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &TokenManager{
		store:      store,
		tokenURL:   opts.TokenURL,
		timeout:    opts.Timeout,
		httpClient: opts.HTTPClient,
		clock:      opts.Clock,
		getenv:     opts.Getenv,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// ValidToken returns a bearer token that is valid for at least [ExpiryBuffer] more.
//
// Errors wrap [shared.ErrConfiguration] when the client id or secret is unset and
// [shared.ErrUpstreamAuth] when the token endpoint fails.
func (m *TokenManager) ValidToken(ctx context.Context) (string, error) {
	if t, ok := m.store.Load(); ok && t.Valid(m.clock.Now()) {
		return t.AccessToken, nil
	}

	t, err := m.refresh(ctx, false)
	if err != nil {
		return "", err
	}
	return t.AccessToken, nil
}

// Refresh fetches a new token even if the cached one is still valid.
func (m *TokenManager) Refresh(ctx context.Context) (CachedToken, error) {
	return m.refresh(ctx, true)
}

// refresh joins or starts the single in-flight token request. The flight runs detached from
// the caller's cancellation.
func (m *TokenManager) refresh(ctx context.Context, force bool) (CachedToken, error) {
	flight := context.WithoutCancel(ctx)
	ch := m.group.DoChan("token", func() (any, error) {
		if !force {
			if t, ok := m.store.Load(); ok && t.Valid(m.clock.Now()) {
				return t, nil
			}
		}
		return m.fetch(flight)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return CachedToken{}, res.Err
		}
		return res.Val.(CachedToken), nil
	case <-ctx.Done():
		return CachedToken{}, fmt.Errorf("%w: %v", shared.ErrUpstreamAuth, ctx.Err())
	}
}

func (m *TokenManager) fetch(ctx context.Context) (CachedToken, error) {
	creds, err := m.credentials()
	if err != nil {
		m.record("error")
		return CachedToken{}, err
	}

	conf := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     m.tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, basicAuthClient(m.httpClient, creds))

	tok, err := conf.Token(ctx)
	if err != nil {
		m.record("error")
		m.logger.Error("token request failed", "url", m.tokenURL, "error", err)
		return CachedToken{}, upstreamAuthError(err)
	}

	expiresIn, reported := expiresIn(tok)
	cached := CachedToken{
		AccessToken: tok.AccessToken,
		ExpiresAt:   m.clock.Now().Add(expiresIn),
	}
	m.store.Save(cached)
	m.record("success")

	if reported {
		m.logger.Info("obtained access token", "expires_in", expiresIn)
	} else {
		m.logger.Info("obtained access token", "expires_in", "?", "assumed", expiresIn)
	}
	return cached, nil
}

// credentials reads the client id and secret from the environment on every fetch.
func (m *TokenManager) credentials() (Credentials, error) {
	c := Credentials{
		ClientID:     m.getenv(EnvClientID),
		ClientSecret: m.getenv(EnvClientSecret),
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return c, fmt.Errorf("%w: %s and %s environment variables are required",
			shared.ErrConfiguration, EnvClientID, EnvClientSecret)
	}
	return c, nil
}

// HasCredentials reports whether both credential variables are set.
func (m *TokenManager) HasCredentials() bool {
	_, err := m.credentials()
	return err == nil
}

// basicAuthClient wraps c so the token request carries base64(id:secret) as given.
// x/oauth2 URL-escapes both parts first, which changes secrets containing '+', '/' or '%'.
func basicAuthClient(c *http.Client, creds Credentials) *http.Client {
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *c
	wrapped.Transport = &basicAuthTransport{base: base, creds: creds}
	return &wrapped
}

type basicAuthTransport struct {
	base  http.RoundTripper
	creds Credentials
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.creds.ClientID, t.creds.ClientSecret)
	return t.base.RoundTrip(req)
}

func (m *TokenManager) record(result string) {
	if m.metrics != nil {
		m.metrics.TokenRefresh(result)
	}
}

func upstreamAuthError(err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) && rErr.Response != nil {
		body := strings.TrimSpace(string(rErr.Body))
		if len(body) > 200 {
			body = body[:200]
		}
		return fmt.Errorf("%w: token endpoint returned %d: %s", shared.ErrUpstreamAuth, rErr.Response.StatusCode, body)
	}
	return fmt.Errorf("%w: %v", shared.ErrUpstreamAuth, err)
}

// expiresIn reads expires_in from the token response, falling back to [DefaultExpiresIn].
func expiresIn(tok *oauth2.Token) (time.Duration, bool) {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return time.Duration(v * float64(time.Second)), true
	case int64:
		return time.Duration(v) * time.Second, true
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return time.Duration(n) * time.Second, true
		}
	}
	return DefaultExpiresIn, false
}
