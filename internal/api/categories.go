package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Veraticus/my-budget-client/internal/common"
	"github.com/Veraticus/my-budget-client/internal/model"
)

// FetchCategories lists the user's categories and refreshes the category cache.
func (c *Client) FetchCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.doJSON(ctx, http.MethodGet, "/v1/categories", nil, &categories); err != nil {
		c.logger.Error("Error fetching categories", "error", err)
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	c.auth.Categories.Replace(categories)
	return categories, nil
}

// CreateCategory creates a category.
func (c *Client) CreateCategory(ctx context.Context, req model.CategoryCreateRequest) (*model.Category, error) {
	var category model.Category
	if err := c.doJSON(ctx, http.MethodPost, "/v1/categories", req, &category); err != nil {
		c.logger.Error("Error creating category", "name", req.Name, "error", err)
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}

// UpdateCategory applies a full or partial update to a category.
func (c *Client) UpdateCategory(ctx context.Context, id int, req model.CategoryUpdateRequest) (*model.Category, error) {
	var category model.Category
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/v1/categories/%d", id), req, &category); err != nil {
		c.logger.Error("Error updating category", "category_id", id, "error", err)
		return nil, fmt.Errorf("failed to update category %d: %w", id, err)
	}
	return &category, nil
}

// DeleteCategory deletes a category and returns a confirmation message.
// A 404 fails with common.ErrNotFound instead of the generic network error.
func (c *Client) DeleteCategory(ctx context.Context, id int) (string, error) {
	err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/v1/categories/%d", id), nil, nil)
	if common.StatusCode(err) == http.StatusNotFound {
		err = &common.StatusError{Err: common.ErrNotFound, StatusCode: http.StatusNotFound}
	}
	if err != nil {
		c.logger.Error("Error deleting category", "category_id", id, "error", err)
		return "", fmt.Errorf("failed to delete category %d: %w", id, err)
	}

	return fmt.Sprintf("Category with ID %d deleted successfully.", id), nil
}

// AdjustCategoryLimit adds delta to a category's budgeted limit. It re-reads
// the category list, then writes the category back with the new limit.
// Adjustments to the same category through one Client run one at a time, so
// concurrent callers in this process do not lose each other's deltas. The
// read and the write are still two requests; another process can interleave.
func (c *Client) AdjustCategoryLimit(ctx context.Context, categoryID int, delta float64) (*model.Category, error) {
	unlock := c.categoryLocks.lock(categoryID)
	defer unlock()

	// Read from this fetch's own result. The shared cache can be overwritten
	// by any other fetch still in flight.
	categories, err := c.FetchCategories(ctx)
	if err != nil {
		return nil, err
	}

	category, ok := findCategory(categories, categoryID)
	if !ok {
		return nil, fmt.Errorf("category %d: %w", categoryID, common.ErrNotFound)
	}

	update := category.FullUpdate()
	limit := category.BudgetedLimit + delta
	update.BudgetedLimit = &limit

	c.logger.Debug("Adjusting category limit",
		"category_id", categoryID,
		"old_limit", category.BudgetedLimit,
		"new_limit", limit)

	return c.UpdateCategory(ctx, categoryID, update)
}

func findCategory(categories []model.Category, id int) (model.Category, bool) {
	for _, cat := range categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return model.Category{}, false
}

// FetchCategory loads one category. A 404 fails with common.ErrNotFound.
func (c *Client) FetchCategory(ctx context.Context, id int) (*model.Category, error) {
	var category model.Category
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/v1/categories/%d", id), nil, &category)
	if common.StatusCode(err) == http.StatusNotFound {
		err = &common.StatusError{Err: common.ErrNotFound, StatusCode: http.StatusNotFound}
	}
	if err != nil {
		c.logger.Error("Error fetching category", "category_id", id, "error", err)
		return nil, fmt.Errorf("failed to fetch category %d: %w", id, err)
	}
	return &category, nil
}
