// Package auth performs OpenID Connect authentication and resolves tokens
// to marketplace accounts. Account provisioning itself happens elsewhere; a
// token whose subject has no live account is rejected.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc"
	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"

	"worktyhub/backend/internal/config"
	"worktyhub/backend/internal/repository"
)

// AccountIDKey is the echo context key the middleware stores the resolved
// account id under.
const AccountIDKey = "account_id"

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Auth holds the OIDC verifiers and the account lookup used to turn bearer
// tokens into callers.
type Auth struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	apiVerifier  *oidc.IDTokenVerifier
	accounts     repository.AccountStore
	logger       Logger
	bypass       bool
	bypassID     string
}

// New creates an Auth from the application configuration. It connects to the
// provider's discovery document and prepares the token verifiers. With
// dev_bypass enabled no provider is contacted and every request acts as the
// configured dev account.
func New(ctx context.Context, cfg *config.Config, accounts repository.AccountStore, logger Logger) (*Auth, error) {
	isDev := strings.EqualFold(cfg.Environment, "dev")
	bypass := isDev && cfg.Auth.DevBypass

	a := &Auth{
		accounts: accounts,
		logger:   logger,
		bypass:   bypass,
		bypassID: cfg.Auth.DevAccountID,
	}
	if bypass {
		return a, nil
	}

	if cfg.Auth.Issuer == "" || cfg.Auth.ClientID == "" ||
		cfg.Auth.ClientSecret == "" || cfg.Auth.RedirectURL == "" {
		return nil, errors.New("auth configuration is incomplete")
	}

	provider, err := oidc.NewProvider(ctx, cfg.Auth.Issuer)
	if err != nil {
		return nil, err
	}

	a.oauth2Config = &oauth2.Config{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  cfg.Auth.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID},
	}
	a.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.Auth.ClientID})
	// Access tokens often carry an API audience rather than the client id.
	a.apiVerifier = provider.Verifier(&oidc.Config{SkipClientIDCheck: true})

	return a, nil
}

// RequireAccount is echo middleware that authenticates the request and puts
// the caller's account id on the context.
func (a *Auth) RequireAccount(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		accountID, err := a.resolveAccountID(c)
		if err != nil {
			return err
		}

		account, err := a.accounts.Get(c.Request().Context(), accountID)
		if err != nil || account.Removed {
			return echo.NewHTTPError(http.StatusUnauthorized, "no live account for token")
		}

		c.Set(AccountIDKey, account.ID)
		return next(c)
	}
}

func (a *Auth) resolveAccountID(c echo.Context) (string, error) {
	if a.bypass {
		return a.bypassID, nil
	}

	var raw string
	if header := c.Request().Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		raw = strings.TrimPrefix(header, "Bearer ")
	} else if cookie, err := c.Cookie("id_token"); err == nil {
		raw = cookie.Value
	} else {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing credentials")
	}

	token, err := a.apiVerifier.Verify(c.Request().Context(), raw)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token: "+err.Error())
	}

	// The account id rides in a dedicated claim; the bare subject is the
	// fallback for providers that mint it directly.
	var claims struct {
		AccountID string `json:"account_id"`
		Subject   string `json:"sub"`
	}
	if err := token.Claims(&claims); err != nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "failed to parse token claims")
	}
	if claims.AccountID != "" {
		return claims.AccountID, nil
	}
	return claims.Subject, nil
}

// LoginHandler starts the authorization code flow. A random state cookie
// guards against CSRF.
func (a *Auth) LoginHandler(c echo.Context) error {
	if a.bypass {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	state, err := generateState()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate state")
	}
	c.SetCookie(&http.Cookie{
		Name:     "oauthstate",
		Value:    state,
		HttpOnly: true,
		Path:     "/",
	})
	return c.Redirect(http.StatusTemporaryRedirect, a.oauth2Config.AuthCodeURL(state))
}

// CallbackHandler finishes the code flow: it checks the state, exchanges the
// code, verifies the ID token, and stores it in a session cookie.
func (a *Auth) CallbackHandler(c echo.Context) error {
	if a.bypass {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	cookie, err := c.Cookie("oauthstate")
	if err != nil || c.QueryParam("state") != cookie.Value {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid state")
	}

	token, err := a.oauth2Config.Exchange(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "token exchange failed")
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "no id_token in token response")
	}
	if _, err := a.verifier.Verify(c.Request().Context(), rawIDToken); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "failed to verify id token")
	}

	c.SetCookie(&http.Cookie{
		Name:     "id_token",
		Value:    rawIDToken,
		HttpOnly: true,
		Path:     "/",
	})
	return c.Redirect(http.StatusSeeOther, "/")
}

// LogoutHandler clears the session cookie.
func (a *Auth) LogoutHandler(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:   "id_token",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	return c.Redirect(http.StatusSeeOther, "/")
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
