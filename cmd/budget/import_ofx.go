package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"text/tabwriter"

	"github.com/Veraticus/my-budget-client/internal/api"
	"github.com/Veraticus/my-budget-client/internal/cli"
	"github.com/Veraticus/my-budget-client/internal/common"
	"github.com/Veraticus/my-budget-client/internal/ofx"
	"github.com/spf13/cobra"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Create transactions from OFX or QFX (Quicken) files exported from your bank.
Debits become expenses and credits become income.

Examples:
  # Import single file
  budget import-ofx ~/Downloads/checking_jan_2024.qfx

  # Import several exports; lines present in more than one are created once
  budget import-ofx ~/Downloads/*.qfx

  # Preview without creating anything
  budget import-ofx --dry-run ~/Downloads/card.ofx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without creating transactions")
	cmd.Flags().Int("category", 0, "category ID assigned to every imported transaction")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	categoryID, _ := cmd.Flags().GetInt("category")
	out := cmd.OutOrStdout()

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	parser := ofx.NewParser(categoryID)
	var entries []ofx.Entry
	for _, path := range files {
		parsed, err := parseOFXFile(cmd.Context(), parser, path)
		if err != nil {
			return err
		}
		slog.Info("Parsed statement", "file", filepath.Base(path), "transactions", len(parsed))
		entries = append(entries, parsed...)
	}

	unique := ofx.Dedupe(entries)
	if skipped := len(entries) - len(unique); skipped > 0 {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Skipping %d duplicate transactions", skipped)))
	}
	if len(unique) == 0 {
		fmt.Fprintln(out, cli.FormatWarning("No transactions found in the given files."))
		return nil
	}

	if dryRun {
		fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%d transactions from %d accounts (dry run)",
			len(unique), len(ofx.Accounts(unique)))))
		return writeEntries(out, unique)
	}

	client, err := initClient(cmd)
	if err != nil {
		return err
	}

	created, failed, err := createEntries(cmd.Context(), client, unique, out)
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d of %d transactions", created, len(unique))))
	if failed > 0 {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d transactions could not be created; see the log for details", failed)))
	}
	return err
}

// createEntries sends entries one at a time. It stops early when the session
// ends or the user interrupts; other failures are counted and skipped.
func createEntries(ctx context.Context, client *api.Client, entries []ofx.Entry, out io.Writer) (created, failed int, err error) {
	var done atomic.Int64
	handler := cli.NewInterruptHandler(out)
	ctx, stop := handler.HandleInterrupts(ctx, func() string {
		return fmt.Sprintf("%d of %d transactions were imported before stopping.", done.Load(), len(entries))
	})
	defer stop()

	bar := cli.NewProgressBar(out, len(entries), "Importing transactions...")
	for _, entry := range entries {
		if ctx.Err() != nil {
			return created, failed, ctx.Err()
		}

		if _, err := client.CreateTransaction(ctx, entry.Request); err != nil {
			if common.EndsSession(err) || errors.Is(err, common.ErrNotAuthenticated) || ctx.Err() != nil {
				return created, failed, err
			}
			common.LogError(slog.Default(), err, "Failed to import transaction", common.Fields{
				"fitid":   entry.FITID,
				"account": entry.AccountID,
				"date":    entry.Request.Date,
			})
			failed++
		} else {
			created++
			done.Add(1)
		}

		if err := bar.Add(1); err != nil {
			slog.Debug("Failed to update progress bar", "error", err)
		}
	}

	return created, failed, nil
}

func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

func parseOFXFile(ctx context.Context, parser *ofx.Parser, path string) ([]ofx.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	entries, err := parser.Parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", filepath.Base(path), err)
	}
	return entries, nil
}

func writeEntries(out io.Writer, entries []ofx.Entry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tAMOUNT\tACCOUNT\tDESCRIPTION\tNOTE")
	for _, e := range entries {
		sign := "-"
		if e.Request.IsIncome {
			sign = "+"
		}
		fmt.Fprintf(w, "%s\t%s%.2f\t%s\t%s\t%s\n",
			e.Request.Date, sign, e.Request.Amount, e.AccountID,
			truncate(deref(e.Request.Description), 40), truncate(deref(e.Request.Note), 30))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}
