package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/my-budget-client/internal/cli"
	"github.com/Veraticus/my-budget-client/internal/model"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func reportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reports",
		Aliases: []string{"report"},
		Short:   "Monthly spending reports",
	}

	cmd.PersistentFlags().String("month", "", "report month (YYYY-MM, default current month)")

	cmd.AddCommand(expensesReportCmd())
	cmd.AddCommand(overviewReportCmd())
	cmd.AddCommand(percentagesReportCmd())
	cmd.AddCommand(dashboardCmd())

	return cmd
}

func reportPeriod(cmd *cobra.Command) (int, int, error) {
	month, _ := cmd.Flags().GetString("month")
	return parsePeriod(month, time.Now())
}

func expensesReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expenses",
		Short: "Spending per category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, month, err := reportPeriod(cmd)
			if err != nil {
				return err
			}

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			expenses, err := client.FetchCategoryExpenses(cmd.Context(), year, month)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Expenses for %04d-%02d", year, month)))
			return writeExpenses(out, expenses, nil)
		},
	}
}

func overviewReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Income, expenses and balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, month, err := reportPeriod(cmd)
			if err != nil {
				return err
			}

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			overview, err := client.FetchBudgetOverview(cmd.Context(), year, month)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(
				fmt.Sprintf("%s Overview %04d-%02d", cli.ChartIcon, year, month),
				renderOverview(*overview)))
			return nil
		},
	}
}

func percentagesReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "percentages",
		Short: "Spending per category as a share of income",
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, month, err := reportPeriod(cmd)
			if err != nil {
				return err
			}

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			shares, err := client.FetchExpensePercentages(cmd.Context(), year, month)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Share of income spent, %04d-%02d", year, month)))
			return writePercentages(out, shares)
		},
	}
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Overview, per-category spending and limits in one view",
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, month, err := reportPeriod(cmd)
			if err != nil {
				return err
			}

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			var (
				overview   *model.BudgetOverviewReport
				expenses   []model.CategoryExpenseReport
				categories []model.Category
			)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				var err error
				overview, err = client.FetchBudgetOverview(ctx, year, month)
				return err
			})
			g.Go(func() error {
				var err error
				expenses, err = client.FetchCategoryExpenses(ctx, year, month)
				return err
			})
			g.Go(func() error {
				var err error
				categories, err = client.FetchCategories(ctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.RenderBox(
				fmt.Sprintf("%s Dashboard %04d-%02d", cli.ChartIcon, year, month),
				renderOverview(*overview)))
			fmt.Fprintln(out)

			limits := make(map[int]model.Category, len(categories))
			for _, cat := range categories {
				limits[cat.ID] = cat
			}
			return writeExpenses(out, expenses, limits)
		},
	}
}

func renderOverview(o model.BudgetOverviewReport) string {
	balance := cli.SuccessStyle.Render(fmt.Sprintf("%.2f", o.Balance))
	if o.Balance < 0 {
		balance = cli.ErrorStyle.Render(fmt.Sprintf("%.2f", o.Balance))
	}
	return fmt.Sprintf("%s %s\n%s %s\n%s %s",
		cli.BoldStyle.Render("Income   "), cli.FormatAmount(o.TotalIncome, true),
		cli.BoldStyle.Render("Expenses "), cli.FormatAmount(o.TotalExpenses, false),
		cli.BoldStyle.Render("Balance  "), balance)
}

// writeExpenses prints spending per category, largest first. When limits is
// non-nil each row also shows usage against the category's limit.
func writeExpenses(out io.Writer, expenses []model.CategoryExpenseReport, limits map[int]model.Category) error {
	if len(expenses) == 0 {
		fmt.Fprintln(out, cli.InfoStyle.Render("No expenses recorded for this month."))
		return nil
	}

	sorted := append([]model.CategoryExpenseReport(nil), expenses...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalAmount > sorted[j].TotalAmount
	})

	var total float64
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if limits != nil {
		fmt.Fprintln(w, "CATEGORY\tUSED\tSPENT / LIMIT")
	} else {
		fmt.Fprintln(w, "CATEGORY\tSPENT")
	}
	for _, e := range sorted {
		total += e.TotalAmount
		if limits == nil {
			fmt.Fprintf(w, "%s\t%.2f\n", e.CategoryName, e.TotalAmount)
			continue
		}
		limit := limits[e.ID].BudgetedLimit
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.CategoryName, usagePercent(e.TotalAmount, limit), cli.FormatUsage(e.TotalAmount, limit))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}

	fmt.Fprintf(out, "\n%s %.2f\n", cli.BoldStyle.Render("Total"), total)
	return nil
}

// writePercentages prints each category's share of income, largest first.
// Shares are 0 when the month had no income.
func writePercentages(out io.Writer, shares []model.CategoryExpensePercentage) error {
	if len(shares) == 0 {
		fmt.Fprintln(out, cli.InfoStyle.Render("No expenses recorded for this month."))
		return nil
	}

	sorted := append([]model.CategoryExpensePercentage(nil), shares...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Percentage > sorted[j].Percentage
	})

	var total float64
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tOF INCOME")
	for _, s := range sorted {
		total += s.Percentage
		fmt.Fprintf(w, "%s\t%.1f%%\n", s.CategoryName, s.Percentage)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}

	fmt.Fprintf(out, "\n%s %.1f%%\n", cli.BoldStyle.Render("Total"), total)
	return nil
}

func usagePercent(spent, limit float64) string {
	if limit <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", spent/limit*100)
}
