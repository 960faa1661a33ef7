// Package credentials persists the client's access and refresh tokens and the
// signed-in username between runs.
package credentials

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/my-budget-client/internal/common"
	"github.com/Veraticus/my-budget-client/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Credentials is the persisted session: the token pair plus the username.
type Credentials struct {
	oauth2.Token
	Username string `json:"username,omitempty"`
}

// Store loads, saves and clears persisted credentials.
// Load returns zero Credentials and no error when nothing is stored.
type Store interface {
	Load() (Credentials, error)
	Save(creds Credentials) error
	Clear() error
}

// HasToken reports whether an access token is present.
func (c Credentials) HasToken() bool {
	return c.AccessToken != ""
}

// Apply sets the bearer Authorization header on req.
func (c Credentials) Apply(req *http.Request) error {
	if !c.HasToken() {
		return common.ErrNotAuthenticated
	}
	c.SetAuthHeader(req)
	return nil
}

// FromTokens builds credentials from a login or refresh response.
// The access token's sub and exp claims are read without verifying the
// signature; they only fill in the username and expiry when known.
func FromTokens(tokens model.Tokens, username string) Credentials {
	creds := Credentials{
		Token: oauth2.Token{
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			TokenType:    tokens.TokenType,
		},
		Username: username,
	}

	claims, err := peekClaims(tokens.AccessToken)
	if err != nil {
		slog.Debug("access token is not a readable JWT", "error", err)
		return creds
	}
	if creds.Username == "" {
		creds.Username = claims.Subject
	}
	if claims.ExpiresAt != nil {
		creds.Expiry = claims.ExpiresAt.Time
	}
	return creds
}

// Expired reports whether the access token has a known expiry in the past.
func (c Credentials) Expired(now time.Time) bool {
	return !c.Expiry.IsZero() && now.After(c.Expiry)
}

func peekClaims(accessToken string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token claims: %w", err)
	}
	return claims, nil
}
