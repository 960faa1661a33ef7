package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/my-budget-client/internal/api"
	"github.com/Veraticus/my-budget-client/internal/cli"
	"github.com/Veraticus/my-budget-client/internal/model"
	"github.com/Veraticus/my-budget-client/internal/store"
	"github.com/spf13/cobra"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"transaction", "tx"},
		Short:   "Manage income and expense transactions",
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(recentTransactionsCmd())
	cmd.AddCommand(showTransactionCmd())
	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(updateTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			month, _ := cmd.Flags().GetString("month")
			categoryID, _ := cmd.Flags().GetInt("category")
			limit, _ := cmd.Flags().GetInt("limit")

			prefix := ""
			if month != "" {
				year, m, err := parsePeriod(month, time.Now())
				if err != nil {
					return err
				}
				prefix = fmt.Sprintf("%04d-%02d", year, m)
			}

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			transactions, err := client.FetchTransactions(cmd.Context())
			if err != nil {
				return err
			}

			// Category names are best effort; ids are shown when the lookup fails.
			if _, err := client.FetchCategories(cmd.Context()); err != nil {
				slog.Warn("Failed to load category names", "error", err)
			}
			categories := client.Auth().Categories

			transactions = filterTransactions(transactions, prefix, categoryID)
			if limit > 0 && len(transactions) > limit {
				transactions = transactions[:limit]
			}

			return writeTransactions(cmd.OutOrStdout(), transactions, categories)
		},
	}

	cmd.Flags().String("month", "", "only show transactions in this month (YYYY-MM)")
	cmd.Flags().Int("category", 0, "only show transactions in this category ID")
	cmd.Flags().Int("limit", 0, "show at most this many transactions")

	return cmd
}

func recentTransactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the latest transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			transactions, err := client.FetchRecentTransactions(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if _, err := client.FetchCategories(cmd.Context()); err != nil {
				slog.Warn("Failed to load category names", "error", err)
			}

			return writeTransactions(cmd.OutOrStdout(), transactions, client.Auth().Categories)
		},
	}

	cmd.Flags().Int("limit", 10, "how many transactions to show")

	return cmd
}

func showTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "transaction")
			if err != nil {
				return err
			}

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			tx, err := client.FetchTransaction(cmd.Context(), id)
			if err != nil {
				return err
			}

			category := "-"
			if tx.HasCategory() {
				category = "#" + strconv.Itoa(*tx.CategoryID)
				if cat, err := client.FetchCategory(cmd.Context(), *tx.CategoryID); err != nil {
					slog.Warn("Failed to load category name", "category_id", *tx.CategoryID, "error", err)
				} else {
					category = categoryLabel(*cat)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(fmt.Sprintf("Transaction %d", tx.TransactionID), renderRows([][2]string{
				{"Date", tx.Date},
				{"Amount", cli.FormatAmount(tx.Amount, tx.IsIncome)},
				{"Category", category},
				{"About", deref(tx.Description)},
				{"Note", deref(tx.Note)},
				{"Location", deref(tx.Location)},
				{"Created", tx.CreatedAt},
			})))
			return nil
		},
	}
}

// writeTransactions prints transactions as a table with income and expense
// totals. Category names come from categories when it knows the id.
func writeTransactions(out io.Writer, transactions []model.Transaction, categories *store.CategoryCache) error {
	if len(transactions) == 0 {
		fmt.Fprintln(out, cli.InfoStyle.Render("No transactions found."))
		return nil
	}

	var income, expenses float64
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tAMOUNT\tCATEGORY\tDESCRIPTION")
	for _, tx := range transactions {
		category := "-"
		if tx.HasCategory() {
			if cat, ok := categories.Find(*tx.CategoryID); ok {
				category = cat.Name
			} else {
				category = "#" + strconv.Itoa(*tx.CategoryID)
			}
		}
		sign := "-"
		if tx.IsIncome {
			sign = "+"
			income += tx.Amount
		} else {
			expenses += tx.Amount
		}
		fmt.Fprintf(w, "%d\t%s\t%s%.2f\t%s\t%s\n",
			tx.TransactionID, tx.Date, sign, tx.Amount, category, truncate(deref(tx.Description), 40))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}

	fmt.Fprintf(out, "\n%s  %s  %s\n",
		cli.SubtleStyle.Render(fmt.Sprintf("%d transactions", len(transactions))),
		cli.FormatAmount(income, true),
		cli.FormatAmount(expenses, false))
	return nil
}

// filterTransactions keeps transactions whose date starts with prefix and,
// when categoryID is set, that belong to that category. The result is
// sorted newest first.
func filterTransactions(transactions []model.Transaction, prefix string, categoryID int) []model.Transaction {
	filtered := make([]model.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if prefix != "" && (len(tx.Date) < len(prefix) || tx.Date[:len(prefix)] != prefix) {
			continue
		}
		if categoryID != 0 && (!tx.HasCategory() || *tx.CategoryID != categoryID) {
			continue
		}
		filtered = append(filtered, tx)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Date != filtered[j].Date {
			return filtered[i].Date > filtered[j].Date
		}
		return filtered[i].TransactionID > filtered[j].TransactionID
	})
	return filtered
}

func addTransactionFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("amount", 0, "amount, always positive")
	cmd.Flags().String("date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().Bool("income", false, "record as income instead of an expense")
	cmd.Flags().Int("category", 0, "category ID")
	cmd.Flags().String("description", "", "description")
	cmd.Flags().String("note", "", "note")
	cmd.Flags().String("location", "", "location")
}

func addTransactionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := transactionFromFlags(cmd, model.TransactionCreateRequest{}, time.Now())
			if err != nil {
				return err
			}

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			tx, err := client.CreateTransaction(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Recorded transaction %d: %s on %s", tx.TransactionID, cli.FormatAmount(tx.Amount, tx.IsIncome), tx.Date)))
			return nil
		},
	}

	addTransactionFlags(cmd)
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func updateTransactionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a transaction",
		Long: `Change a transaction. Fields not given as flags keep their current value.

With --adjust-category the transaction amount is then added to its
category's budget limit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "transaction")
			if err != nil {
				return err
			}
			adjust, _ := cmd.Flags().GetBool("adjust-category")

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			// The service replaces the whole record, so start from the current one.
			current, err := client.FetchTransaction(cmd.Context(), id)
			if err != nil {
				return err
			}

			req, err := transactionFromFlags(cmd, requestFromTransaction(*current), time.Now())
			if err != nil {
				return err
			}

			var tx *model.Transaction
			if adjust {
				tx, err = client.UpdateTransactionAndAdjustCategory(cmd.Context(), id, req)
			} else {
				tx, err = client.UpdateTransaction(cmd.Context(), id, req)
			}

			var partial *api.PartialUpdateError
			if errors.As(err, &partial) {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning(
					fmt.Sprintf("Transaction %d was updated, but its category limit was not adjusted.", id)))
				return err
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated transaction %d", tx.TransactionID)))
			return nil
		},
	}

	addTransactionFlags(cmd)
	cmd.Flags().Bool("adjust-category", false, "add the amount to the category's budget limit afterwards")

	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "transaction")
			if err != nil {
				return err
			}

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			if err := client.DeleteTransaction(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted transaction %d", id)))
			return nil
		},
	}
}

// transactionFromFlags overlays the flags that were set onto base.
func transactionFromFlags(cmd *cobra.Command, base model.TransactionCreateRequest, now time.Time) (model.TransactionCreateRequest, error) {
	req := base

	if amount := floatFlag(cmd, "amount"); amount != nil {
		req.Amount = *amount
	}
	if req.Amount <= 0 {
		return req, fmt.Errorf("amount must be positive; use --income for money coming in")
	}

	date, err := parseDate(deref(stringFlag(cmd, "date")), now)
	if err != nil {
		return req, err
	}
	if cmd.Flags().Changed("date") || req.Date == "" {
		req.Date = date
	}

	if income := boolFlag(cmd, "income"); income != nil {
		req.IsIncome = *income
	}
	if cmd.Flags().Changed("category") {
		id, _ := cmd.Flags().GetInt("category")
		req.CategoryID = model.IntPtr(id)
	}
	if v := stringFlag(cmd, "description"); v != nil {
		req.Description = v
	}
	if v := stringFlag(cmd, "note"); v != nil {
		req.Note = v
	}
	if v := stringFlag(cmd, "location"); v != nil {
		req.Location = v
	}

	return req, nil
}

func requestFromTransaction(tx model.Transaction) model.TransactionCreateRequest {
	return model.TransactionCreateRequest{
		Description: tx.Description,
		Note:        tx.Note,
		Location:    tx.Location,
		CategoryID:  tx.CategoryID,
		Date:        tx.Date,
		Amount:      tx.Amount,
		IsIncome:    tx.IsIncome,
	}
}
