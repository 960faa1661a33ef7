package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Veraticus/my-budget-client/internal/common"
	"github.com/Veraticus/my-budget-client/internal/credentials"
	"github.com/Veraticus/my-budget-client/internal/model"
)

// Initialize seeds the auth store from the persisted credentials.
func (c *Client) Initialize() error {
	return c.auth.Initialize(c.creds)
}

// Login exchanges a username and password for tokens, persists them and
// marks the store as signed in. A rejected login leaves existing state alone.
func (c *Client) Login(ctx context.Context, username, password string) (*model.Tokens, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/auth/login", model.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.publicFetch(req)
	if err != nil {
		c.logger.Error("Error logging in", "username", username, "error", err)
		if common.StatusCode(err) == http.StatusUnauthorized {
			return nil, common.NewUserError("incorrect username or password", err)
		}
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var tokens model.Tokens
	if err := decode(resp, &tokens); err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("failed to log in: no access token in response")
	}

	creds := credentials.FromTokens(tokens, username)
	if err := c.creds.Save(creds); err != nil {
		return nil, fmt.Errorf("failed to save credentials: %w", err)
	}

	c.auth.SignIn(creds.Username)
	c.logger.Info("Logged in", "username", creds.Username)
	return &tokens, nil
}

// RefreshToken trades the stored refresh token for a new access token.
// A rejected refresh token ends the session like any other 401.
func (c *Client) RefreshToken(ctx context.Context) (*model.Tokens, error) {
	stored, err := c.creds.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	if stored.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token stored: %w", common.ErrNotAuthenticated)
	}

	path := "/v1/auth/refresh-token?refresh_token=" + url.QueryEscape(stored.RefreshToken)
	req, err := c.newRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.secureFetch(req)
	if err != nil {
		c.logger.Error("Error refreshing token", "error", err)
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var tokens model.Tokens
	if err := decode(resp, &tokens); err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = stored.RefreshToken
	}

	creds := credentials.FromTokens(tokens, stored.Username)
	if err := c.creds.Save(creds); err != nil {
		return nil, fmt.Errorf("failed to save credentials: %w", err)
	}

	c.auth.SignIn(creds.Username)
	return &tokens, nil
}

// Logout revokes the access token on the service and clears local state.
// Local state is cleared even when the service call fails. A 401 means the
// token is already dead and counts as success; every other failure,
// including 429, is returned.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/logout", nil, nil)
	if !common.EndsSession(err) {
		c.endSession()
	}

	if err == nil || errors.Is(err, common.ErrNotAuthenticated) || errors.Is(err, common.ErrSessionExpired) {
		return nil
	}
	c.logger.Error("Error logging out", "error", err)
	return fmt.Errorf("failed to log out: %w", err)
}

// Register creates an account. It does not sign in; call Login afterwards.
// A 400 means the email is taken or the password was refused.
func (c *Client) Register(ctx context.Context, reg model.RegisterRequest) (*model.RegisteredUser, error) {
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid registration: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/auth/register", reg)
	if err != nil {
		return nil, err
	}

	resp, err := c.publicFetch(req)
	if err != nil {
		c.logger.Error("Error registering", "username", reg.Username, "error", err)
		if common.StatusCode(err) == http.StatusBadRequest {
			return nil, common.NewUserError("registration refused: the email is already registered or the password is too weak", err)
		}
		return nil, fmt.Errorf("failed to register: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var user model.RegisteredUser
	if err := decode(resp, &user); err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}

	c.logger.Info("Registered", "username", user.Username)
	return &user, nil
}

// ChangePassword replaces the signed-in user's password. A wrong current
// password is a 400 and leaves the session intact.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) (string, error) {
	if len(newPassword) < 8 {
		return "", errors.New("new password must be at least 8 characters")
	}

	var resp model.MessageResponse
	body := model.PasswordChangeRequest{OldPassword: oldPassword, NewPassword: newPassword}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/change-password", body, &resp); err != nil {
		c.logger.Error("Error changing password", "error", err)
		if common.StatusCode(err) == http.StatusBadRequest {
			return "", common.NewUserError("password not changed: the current password is wrong or the new one is too weak", err)
		}
		return "", fmt.Errorf("failed to change password: %w", err)
	}

	if resp.Message == "" {
		resp.Message = "Password changed successfully."
	}
	return resp.Message, nil
}
