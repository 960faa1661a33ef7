package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Veraticus/my-budget-client/internal/common"
	"github.com/Veraticus/my-budget-client/internal/model"
)

// PartialUpdateError reports that a transaction was updated but the follow-up
// category adjustment failed. The transaction update is not rolled back.
type PartialUpdateError struct {
	Err         error
	Transaction *model.Transaction
}

func (e *PartialUpdateError) Error() string {
	return fmt.Sprintf("transaction %d updated but category limit was not adjusted: %v",
		e.Transaction.TransactionID, e.Err)
}

func (e *PartialUpdateError) Unwrap() error {
	return e.Err
}

// FetchTransactions lists the user's transactions.
func (c *Client) FetchTransactions(ctx context.Context) ([]model.Transaction, error) {
	var transactions []model.Transaction
	if err := c.doJSON(ctx, http.MethodGet, "/v1/transactions", nil, &transactions); err != nil {
		c.logger.Error("Error fetching transactions", "error", err)
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return transactions, nil
}

// FetchTransaction loads one transaction. A 404 fails with common.ErrNotFound.
func (c *Client) FetchTransaction(ctx context.Context, id int) (*model.Transaction, error) {
	var transaction model.Transaction
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/v1/transactions/%d", id), nil, &transaction)
	if common.StatusCode(err) == http.StatusNotFound {
		err = &common.StatusError{Err: common.ErrNotFound, StatusCode: http.StatusNotFound}
	}
	if err != nil {
		c.logger.Error("Error fetching transaction", "transaction_id", id, "error", err)
		return nil, fmt.Errorf("failed to fetch transaction %d: %w", id, err)
	}
	return &transaction, nil
}

// FetchRecentTransactions returns up to limit transactions, newest first.
// The service answers 404 when there are none, which is returned as an
// empty list.
func (c *Client) FetchRecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	if limit < 1 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	var transactions []model.Transaction
	path := "/v1/transactions/recent?limit=" + strconv.Itoa(limit)
	err := c.doJSON(ctx, http.MethodGet, path, nil, &transactions)
	if common.StatusCode(err) == http.StatusNotFound {
		return []model.Transaction{}, nil
	}
	if err != nil {
		c.logger.Error("Error fetching recent transactions", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to fetch recent transactions: %w", err)
	}
	return transactions, nil
}

// CreateTransaction creates a transaction. Unset optional fields are sent as null.
func (c *Client) CreateTransaction(ctx context.Context, req model.TransactionCreateRequest) (*model.Transaction, error) {
	var transaction model.Transaction
	if err := c.doJSON(ctx, http.MethodPost, "/v1/transactions", req.Normalized(), &transaction); err != nil {
		c.logger.Error("Error creating transaction", "error", err)
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	c.logger.Debug("Transaction created", "transaction_id", transaction.TransactionID)
	return &transaction, nil
}

// UpdateTransaction replaces a transaction. Unset optional fields are sent as null.
func (c *Client) UpdateTransaction(ctx context.Context, id int, req model.TransactionUpdateRequest) (*model.Transaction, error) {
	var transaction model.Transaction
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/v1/transactions/%d", id), req.Normalized(), &transaction); err != nil {
		c.logger.Error("Error updating transaction", "transaction_id", id, "error", err)
		return nil, fmt.Errorf("failed to update transaction %d: %w", id, err)
	}
	return &transaction, nil
}

// UpdateTransactionAndAdjustCategory updates a transaction and then adds its
// amount to its category's budgeted limit. When the second step fails the
// updated transaction is returned together with a *PartialUpdateError.
func (c *Client) UpdateTransactionAndAdjustCategory(ctx context.Context, id int, req model.TransactionUpdateRequest) (*model.Transaction, error) {
	transaction, err := c.UpdateTransaction(ctx, id, req)
	if err != nil {
		return nil, err
	}

	if !transaction.HasCategory() {
		return transaction, nil
	}

	if _, err := c.AdjustCategoryLimit(ctx, *transaction.CategoryID, transaction.Amount); err != nil {
		c.logger.Error("Error adjusting category after transaction update",
			"transaction_id", id,
			"category_id", *transaction.CategoryID,
			"error", err)
		return transaction, &PartialUpdateError{Transaction: transaction, Err: err}
	}

	return transaction, nil
}

// DeleteTransaction deletes a transaction. The service returns no body.
func (c *Client) DeleteTransaction(ctx context.Context, id int) error {
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/v1/transactions/%d", id), nil, nil); err != nil {
		c.logger.Error("Error deleting transaction", "transaction_id", id, "error", err)
		return fmt.Errorf("failed to delete transaction %d: %w", id, err)
	}
	return nil
}
