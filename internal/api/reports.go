package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Veraticus/my-budget-client/internal/model"
)

// FetchCategoryExpenses returns the per-category expense totals for a month.
func (c *Client) FetchCategoryExpenses(ctx context.Context, year, month int) ([]model.CategoryExpenseReport, error) {
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}

	var reports []model.CategoryExpenseReport
	path := fmt.Sprintf("/v1/reports/categories/expenses/%d/%d", year, month)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &reports); err != nil {
		c.logger.Error("Error fetching category expenses", "year", year, "month", month, "error", err)
		return nil, fmt.Errorf("failed to fetch category expenses: %w", err)
	}
	return reports, nil
}

// FetchExpensePercentages returns each category's spending as a percentage
// of the month's income.
func (c *Client) FetchExpensePercentages(ctx context.Context, year, month int) ([]model.CategoryExpensePercentage, error) {
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}

	var reports []model.CategoryExpensePercentage
	path := fmt.Sprintf("/v1/reports/categories/expense-percentages/%d/%d", year, month)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &reports); err != nil {
		c.logger.Error("Error fetching expense percentages", "year", year, "month", month, "error", err)
		return nil, fmt.Errorf("failed to fetch expense percentages: %w", err)
	}
	return reports, nil
}

// FetchBudgetOverview returns total income, expenses and balance for a month.
func (c *Client) FetchBudgetOverview(ctx context.Context, year, month int) (*model.BudgetOverviewReport, error) {
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}

	var report model.BudgetOverviewReport
	path := fmt.Sprintf("/v1/reports/budgets/%d/%d/budget-overview", year, month)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &report); err != nil {
		c.logger.Error("Error fetching budget overview", "year", year, "month", month, "error", err)
		return nil, fmt.Errorf("failed to fetch budget overview: %w", err)
	}
	return &report, nil
}

func validatePeriod(year, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("month must be between 1 and 12, got %d", month)
	}
	if year < 1 {
		return fmt.Errorf("year must be positive, got %d", year)
	}
	return nil
}
