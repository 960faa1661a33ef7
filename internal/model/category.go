package model

// Category is a spending category with its budget figures.
type Category struct {
	Name           string  `json:"name"`
	ColorCode      string  `json:"color_code"`
	Icon           string  `json:"icon"`
	Description    string  `json:"description"`
	CreatedAt      string  `json:"created_at,omitempty"`
	UpdatedAt      string  `json:"updated_at,omitempty"`
	BudgetedAmount float64 `json:"budgeted_amount"`
	BudgetedLimit  float64 `json:"budgeted_limit"`
	ID             int     `json:"id"`
	IsActive       bool    `json:"is_active"`
}

// CategoryCreateRequest is the body for creating a category.
type CategoryCreateRequest struct {
	Name           string  `json:"name"`
	ColorCode      string  `json:"color_code"`
	Description    string  `json:"description"`
	Icon           string  `json:"icon"`
	BudgetedAmount float64 `json:"budgeted_amount"`
	BudgetedLimit  float64 `json:"budgeted_limit"`
}

// CategoryUpdateRequest is a partial category update. Only non-nil fields are sent.
type CategoryUpdateRequest struct {
	Name           *string  `json:"name,omitempty"`
	ColorCode      *string  `json:"color_code,omitempty"`
	Description    *string  `json:"description,omitempty"`
	Icon           *string  `json:"icon,omitempty"`
	BudgetedAmount *float64 `json:"budgeted_amount,omitempty"`
	BudgetedLimit  *float64 `json:"budgeted_limit,omitempty"`
	IsActive       *bool    `json:"is_active,omitempty"`
}

// Empty reports whether the update would change nothing.
func (r CategoryUpdateRequest) Empty() bool {
	return r.Name == nil && r.ColorCode == nil && r.Description == nil && r.Icon == nil &&
		r.BudgetedAmount == nil && r.BudgetedLimit == nil && r.IsActive == nil
}

// FullUpdate builds an update request carrying every writable field of c.
func (c Category) FullUpdate() CategoryUpdateRequest {
	return CategoryUpdateRequest{
		Name:           &c.Name,
		ColorCode:      &c.ColorCode,
		Description:    &c.Description,
		Icon:           &c.Icon,
		BudgetedAmount: &c.BudgetedAmount,
		BudgetedLimit:  &c.BudgetedLimit,
		IsActive:       &c.IsActive,
	}
}
