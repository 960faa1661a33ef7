package main

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/Veraticus/my-budget-client/internal/cli"
	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print client and service version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "budget %s\n", version)

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			info, err := client.FetchBuildInfo(cmd.Context())
			if err != nil {
				slog.Debug("Build info unavailable", "error", err)
				fmt.Fprintln(out, cli.FormatWarning("service unreachable at "+client.BaseURL()))
				return nil
			}

			keys := make([]string, 0, len(info))
			for k := range info {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			fmt.Fprintf(out, "service %s\n", client.BaseURL())
			for _, k := range keys {
				fmt.Fprintf(out, "  %s: %v\n", k, info[k])
			}
			return nil
		},
	}
}
