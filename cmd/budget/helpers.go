package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/my-budget-client/internal/api"
	"github.com/Veraticus/my-budget-client/internal/cli"
	"github.com/Veraticus/my-budget-client/internal/config"
	"github.com/Veraticus/my-budget-client/internal/credentials"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initClient builds an API client from the loaded configuration and seeds
// its auth store from the credentials file.
func initClient(cmd *cobra.Command) (*api.Client, error) {
	cfg, err := config.LoadClientConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(cfg.APIURL,
		api.WithCredentials(credentials.NewFileStore(cfg.CredentialsFile)),
		api.WithTimeout(cfg.Timeout),
		api.WithRateLimit(cfg.RateLimit),
		api.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, err
	}

	if err := client.Initialize(); err != nil {
		return nil, err
	}

	watchSession(client, cmd.ErrOrStderr())
	slog.Debug("Budget client ready", "api_url", cfg.APIURL, "credentials", cfg.CredentialsFile)
	return client, nil
}

// watchSession prints a notice when a signed-in session is ended by the service.
func watchSession(client *api.Client, w io.Writer) {
	signedIn := false
	client.Auth().Authenticated.Subscribe(func(authenticated bool) {
		if signedIn && !authenticated {
			fmt.Fprintln(w, cli.FormatWarning("Signed out: stored credentials were cleared."))
		}
		signedIn = authenticated
	})
}

func parseID(arg, what string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID %q", what, arg)
	}
	return id, nil
}

// parsePeriod reads YYYY-MM. An empty string means the current month.
func parsePeriod(period string, now time.Time) (year, month int, err error) {
	if period == "" {
		return now.Year(), int(now.Month()), nil
	}
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid period %q, expected YYYY-MM", period)
	}
	return t.Year(), int(t.Month()), nil
}

// parseDate accepts YYYY-MM-DD. An empty string means today.
func parseDate(date string, now time.Time) (string, error) {
	if date == "" {
		return now.Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	return date, nil
}

// stringFlag returns a pointer to the flag value only when the flag was set.
func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	value, _ := cmd.Flags().GetString(name)
	return &value
}

func floatFlag(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	value, _ := cmd.Flags().GetFloat64(name)
	return &value
}

func boolFlag(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	value, _ := cmd.Flags().GetBool(name)
	return &value
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

// renderRows lays out label/value pairs for a detail box. Empty values are skipped.
func renderRows(rows [][2]string) string {
	var b strings.Builder
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", cli.BoldStyle.Render(fmt.Sprintf("%-10s", row[0])), row[1])
	}
	return strings.TrimRight(b.String(), "\n")
}
