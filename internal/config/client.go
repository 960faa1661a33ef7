package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/my-budget-client/internal/common"
	"github.com/spf13/viper"
)

// AppName names the config and data directories.
const AppName = "budget"

// ClientConfig holds everything needed to talk to the budget service.
type ClientConfig struct {
	APIURL          string
	CredentialsFile string
	Timeout         time.Duration
	RateLimit       int // requests per minute, 0 disables throttling
}

// DefaultClientConfig returns the built-in defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		APIURL:  "http://localhost:8000",
		Timeout: 30 * time.Second,
	}
}

// LoadClientConfig reads the client configuration with this precedence:
// 1. Viper (config file or BUDGET_ env vars)
// 2. Direct environment variables (API_URL)
// 3. Defaults
func LoadClientConfig(v *viper.Viper) (ClientConfig, error) {
	cfg := DefaultClientConfig()

	apiURL := v.GetString("api.url")
	if apiURL == "" {
		apiURL = os.Getenv("API_URL")
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	if v.IsSet("api.timeout") {
		cfg.Timeout = v.GetDuration("api.timeout")
	}
	cfg.RateLimit = v.GetInt("api.rate_limit")

	if path := v.GetString("credentials.file"); path != "" {
		cfg.CredentialsFile = ExpandPath(path)
	} else {
		dir, err := DataDir()
		if err != nil {
			return ClientConfig{}, fmt.Errorf("failed to resolve data directory: %w", err)
		}
		cfg.CredentialsFile = filepath.Join(dir, "credentials.json")
	}

	if err := cfg.Validate(); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c ClientConfig) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("%w: api.url is required", common.ErrMissingConfig)
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("%w: api.url: %v", common.ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: api.url must be http or https, got %q", common.ErrInvalidConfig, c.APIURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: api.url has no host", common.ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: api.timeout cannot be negative", common.ErrInvalidConfig)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: api.rate_limit cannot be negative", common.ErrInvalidConfig)
	}
	return nil
}
