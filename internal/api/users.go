package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Veraticus/my-budget-client/internal/model"
)

// FetchUserProfile loads the signed-in user's profile and publishes it to the store.
func (c *Client) FetchUserProfile(ctx context.Context) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := c.doJSON(ctx, http.MethodGet, "/v1/user/profile", nil, &profile); err != nil {
		c.logger.Error("Error fetching user profile", "error", err)
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}

	c.auth.Profile.Set(profile)
	return &profile, nil
}

// UpdateUserProfile patches the signed-in user's profile.
func (c *Client) UpdateUserProfile(ctx context.Context, update model.UserProfileUpdate) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/user/profile", update, &profile); err != nil {
		c.logger.Error("Error updating user profile", "error", err)
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}

	c.auth.Profile.Set(profile)
	return &profile, nil
}
