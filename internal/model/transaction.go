package model

import "strings"

// Transaction is a single income or expense entry as returned by the budget service.
// Income and expense are told apart by IsIncome, not by the sign of Amount.
type Transaction struct {
	Description   *string `json:"Description"`
	Note          *string `json:"Note"`
	Location      *string `json:"Location"`
	CategoryID    *int    `json:"CategoryID"`
	Date          string  `json:"Date"`
	CreatedAt     string  `json:"CreatedAt,omitempty"`
	Amount        float64 `json:"Amount"`
	TransactionID int     `json:"TransactionID"`
	UserID        int     `json:"UserID"`
	IsIncome      bool    `json:"Is_Income"`
}

// HasCategory reports whether the transaction references a category.
func (t Transaction) HasCategory() bool {
	return t.CategoryID != nil && *t.CategoryID != 0
}

// TransactionCreateRequest is the body sent when creating or updating a transaction.
// Optional fields are always serialized; unset ones go out as null.
type TransactionCreateRequest struct {
	Description *string `json:"Description"`
	Note        *string `json:"Note"`
	Location    *string `json:"Location"`
	CategoryID  *int    `json:"CategoryID"`
	Date        string  `json:"Date"`
	Amount      float64 `json:"Amount"`
	IsIncome    bool    `json:"Is_Income"`
}

// TransactionUpdateRequest has the same shape as a create request.
type TransactionUpdateRequest = TransactionCreateRequest

// Normalized returns a copy where blank optional strings and a zero category
// id are replaced by nil, so they serialize as null.
func (r TransactionCreateRequest) Normalized() TransactionCreateRequest {
	r.Description = nonBlank(r.Description)
	r.Note = nonBlank(r.Note)
	r.Location = nonBlank(r.Location)
	if r.CategoryID != nil && *r.CategoryID == 0 {
		r.CategoryID = nil
	}
	return r
}

func nonBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to i.
func IntPtr(i int) *int {
	return &i
}
