package model

// CategoryExpenseReport is the total spent in one category over a period.
type CategoryExpenseReport struct {
	CategoryName string  `json:"category_name"`
	TotalAmount  float64 `json:"total_amount"`
	ID           int     `json:"id"`
}

// BudgetOverviewReport summarizes income and expenses over a period.
type BudgetOverviewReport struct {
	TotalIncome   float64 `json:"total_income"`
	TotalExpenses float64 `json:"total_expenses"`
	Balance       float64 `json:"balance"`
}

// BuildInfo is the service's version payload. Its shape is not fixed.
type BuildInfo map[string]any

// CategoryExpensePercentage is one category's spending as a percentage of the
// period's income. It is 0 when the period has no income.
type CategoryExpensePercentage struct {
	CategoryName string  `json:"category_name"`
	Percentage   float64 `json:"percentage"`
	ID           int     `json:"id"`
}
