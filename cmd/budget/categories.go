package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/Veraticus/my-budget-client/internal/cli"
	"github.com/Veraticus/my-budget-client/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "Manage spending categories",
		Long:    `List, add, update and delete spending categories and adjust their budget limits.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(showCategoryCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())
	cmd.AddCommand(adjustCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			categories, err := client.FetchCategories(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(categories) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No categories found. Use 'budget categories add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tBUDGETED\tLIMIT\tACTIVE\tDESCRIPTION")
			for _, cat := range categories {
				fmt.Fprintf(w, "%d\t%s\t%.2f\t%.2f\t%t\t%s\n",
					cat.ID, categoryLabel(cat), cat.BudgetedAmount, cat.BudgetedLimit, cat.IsActive,
					truncate(cat.Description, 50))
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to write table: %w", err)
			}

			fmt.Fprintf(out, "\n%s\n", cli.SubtleStyle.Render(fmt.Sprintf("%d categories", len(categories))))
			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := model.CategoryCreateRequest{Name: args[0]}
			req.BudgetedAmount, _ = cmd.Flags().GetFloat64("amount")
			req.BudgetedLimit, _ = cmd.Flags().GetFloat64("limit")
			req.ColorCode, _ = cmd.Flags().GetString("color")
			req.Icon, _ = cmd.Flags().GetString("icon")
			req.Description, _ = cmd.Flags().GetString("description")

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			category, err := client.CreateCategory(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Created category %q (ID %d)", category.Name, category.ID)))
			return nil
		},
	}

	cmd.Flags().Float64("amount", 0, "budgeted amount")
	cmd.Flags().Float64("limit", 0, "budget limit")
	cmd.Flags().String("color", "#7C83FD", "color code")
	cmd.Flags().String("icon", "", "icon")
	cmd.Flags().String("description", "", "description")

	return cmd
}

func updateCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change category fields",
		Long:  `Only the fields given as flags are sent; everything else is left as it is.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "category")
			if err != nil {
				return err
			}

			req := model.CategoryUpdateRequest{
				Name:           stringFlag(cmd, "name"),
				ColorCode:      stringFlag(cmd, "color"),
				Description:    stringFlag(cmd, "description"),
				Icon:           stringFlag(cmd, "icon"),
				BudgetedAmount: floatFlag(cmd, "amount"),
				BudgetedLimit:  floatFlag(cmd, "limit"),
				IsActive:       boolFlag(cmd, "active"),
			}
			if req.Empty() {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			category, err := client.UpdateCategory(cmd.Context(), id, req)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Updated category %q (ID %d)", category.Name, category.ID)))
			return nil
		},
	}

	cmd.Flags().String("name", "", "new name")
	cmd.Flags().Float64("amount", 0, "budgeted amount")
	cmd.Flags().Float64("limit", 0, "budget limit")
	cmd.Flags().String("color", "", "color code")
	cmd.Flags().String("icon", "", "icon")
	cmd.Flags().String("description", "", "description")
	cmd.Flags().Bool("active", true, "whether the category is active")

	return cmd
}

func showCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "category")
			if err != nil {
				return err
			}

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			cat, err := client.FetchCategory(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(categoryLabel(*cat), renderRows([][2]string{
				{"ID", strconv.Itoa(cat.ID)},
				{"Budgeted", fmt.Sprintf("%.2f", cat.BudgetedAmount)},
				{"Limit", fmt.Sprintf("%.2f", cat.BudgetedLimit)},
				{"Active", strconv.FormatBool(cat.IsActive)},
				{"Color", cat.ColorCode},
				{"About", cat.Description},
				{"Updated", cat.UpdatedAt},
			})))
			return nil
		},
	}
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "category")
			if err != nil {
				return err
			}

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			msg, err := client.DeleteCategory(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(msg))
			return nil
		},
	}
}

func adjustCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adjust <id> <delta>",
		Short: "Add delta to a category's budget limit",
		Long: `Add delta to a category's budget limit. Use a negative delta to lower it:

  budget categories adjust 3 -- -25`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "category")
			if err != nil {
				return err
			}
			delta, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid delta %q: %w", args[1], err)
			}

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			category, err := client.AdjustCategoryLimit(cmd.Context(), id, delta)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Limit of %q is now %.2f", category.Name, category.BudgetedLimit)))
			return nil
		},
	}
}

func categoryLabel(cat model.Category) string {
	if cat.Icon != "" {
		return cat.Icon + " " + cat.Name
	}
	return cat.Name
}
