package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Veraticus/my-budget-client/internal/model"
)

// FetchBuildInfo returns the service's version information. It sends no
// credentials and never touches the auth state.
func (c *Client) FetchBuildInfo(ctx context.Context) (model.BuildInfo, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/version", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.publicFetch(req)
	if err != nil {
		c.logger.Error("Error fetching build info", "error", err)
		return nil, fmt.Errorf("failed to fetch build info: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var info model.BuildInfo
	if err := decode(resp, &info); err != nil {
		c.logger.Error("Error fetching build info", "error", err)
		return nil, fmt.Errorf("failed to fetch build info: %w", err)
	}
	return info, nil
}
