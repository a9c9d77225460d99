// Package oauth builds refresh-token authenticated HTTP clients and classifies
// the failures they produce.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// ErrNotConfigured is returned when client credentials are missing.
var ErrNotConfigured = errors.New("oauth credentials not configured")

// Credentials identify an OAuth2 client holding a long-lived refresh token.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string
}

// Configured reports whether every credential needed for a refresh exchange is set.
func (c Credentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != "" && c.TokenURL != ""
}

// NewHTTPClient returns a client that exchanges the refresh token for an access
// token on first use and reuses it until it expires. Both the token exchange and
// API calls are bounded by timeout.
func NewHTTPClient(creds Credentials, timeout time.Duration) (*http.Client, error) {
	if !creds.Configured() {
		return nil, ErrNotConfigured
	}

	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  creds.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	base := &http.Client{Timeout: timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	client := oauth2.NewClient(ctx, conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken}))
	client.Timeout = timeout

	return client, nil
}

// StatusError is a non-2xx response from a data endpoint.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// IsAuthFailure reports whether err means the credentials were rejected:
// a 401/403 from the token or data endpoint, or an invalid_grant refresh.
func IsAuthFailure(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.ErrorCode == "invalid_grant" || retrieveErr.ErrorCode == "unauthorized_client" {
			return true
		}
		if retrieveErr.Response != nil {
			code := retrieveErr.Response.StatusCode
			return code == http.StatusUnauthorized || code == http.StatusForbidden
		}
	}

	return false
}
