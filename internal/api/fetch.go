package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Veraticus/my-budget-client/internal/common"
)

// newRequest builds a request against the service. A non-nil body is encoded
// as JSON.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// newAuthedRequest is newRequest plus the stored bearer token.
func (c *Client) newAuthedRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	creds, err := c.creds.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	if err := creds.Apply(req); err != nil {
		return nil, err
	}

	return req, nil
}

// secureFetch performs req and checks the status. On 401 and 429 it clears
// the stored credentials, marks the store signed out and fails with
// ErrSessionExpired or ErrRateLimited; the caller never sees the body.
// Other non-2xx statuses fail with ErrNetwork and touch no state. On success
// the response is returned unread and the caller must close its body.
func (c *Client) secureFetch(req *http.Request) (*http.Response, error) {
	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusTooManyRequests:
		discard(resp)
		c.endSession()
		return nil, common.NewStatusError(resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		discard(resp)
		return nil, common.NewStatusError(resp.StatusCode)
	}

	return resp, nil
}

// publicFetch performs req with the same status mapping as secureFetch but
// without any session side effects.
func (c *Client) publicFetch(req *http.Request) (*http.Response, error) {
	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		discard(resp)
		return nil, common.NewStatusError(resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.wait(req.Context()); err != nil {
			return nil, err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// endSession clears persisted tokens and flips the store to signed out.
func (c *Client) endSession() {
	if err := c.creds.Clear(); err != nil {
		c.logger.Error("Failed to clear credentials", "error", err)
	}
	c.auth.Expire()
}

// doJSON sends an authenticated request and decodes the response into out
// when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newAuthedRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.secureFetch(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		return nil
	}
	return decode(resp, out)
}

func decode(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
