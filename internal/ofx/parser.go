// Package ofx turns OFX/QFX bank and credit card statements into
// transaction create requests for the budget service.
package ofx

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/my-budget-client/internal/model"
	"github.com/aclindsa/ofxgo"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tag alone on a line with its closing bracket missing.
	unclosedTagRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// merchantPrefixes are card-processor noise some banks put in front of the payee.
var merchantPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

// Entry is one statement line converted to a create request.
type Entry struct {
	FITID     string
	AccountID string
	Type      string
	Request   model.TransactionCreateRequest
}

// Key identifies an entry across overlapping statement exports.
func (e Entry) Key() string {
	if e.FITID != "" {
		return e.AccountID + "/" + e.FITID
	}
	desc := ""
	if e.Request.Description != nil {
		desc = *e.Request.Description
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%.2f:%t:%s",
		e.AccountID, e.Request.Date, e.Request.Amount, e.Request.IsIncome, desc)))
	return fmt.Sprintf("%x", sum)
}

// Parser reads OFX/QFX statements.
type Parser struct {
	categoryID *int
}

// NewParser creates a parser. A non-zero categoryID is attached to every entry.
func NewParser(categoryID int) *Parser {
	p := &Parser{}
	if categoryID != 0 {
		p.categoryID = model.IntPtr(categoryID)
	}
	return p
}

// preprocess fixes formatting issues that ofxgo rejects.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return unclosedTagRegex.ReplaceAllString(content, "$1>")
}

// Parse reads a statement and returns its entries in file order.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) ([]Entry, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var entries []Entry
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			entries = append(entries, p.convertAll(stmt.BankTranList.Transactions, string(stmt.BankAcctFrom.AcctID))...)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			entries = append(entries, p.convertAll(stmt.BankTranList.Transactions, string(stmt.CCAcctFrom.AcctID))...)
		}
	}

	slog.Debug("Parsed OFX statement",
		"entries", len(entries),
		"bank_statements", len(resp.Bank),
		"cc_statements", len(resp.CreditCard))

	return entries, nil
}

func (p *Parser) convertAll(transactions []ofxgo.Transaction, accountID string) []Entry {
	entries := make([]Entry, 0, len(transactions))
	for _, tx := range transactions {
		entries = append(entries, p.convert(tx, accountID))
	}
	return entries
}

// convert maps an OFX line onto a create request. OFX signs debits negative;
// the service wants a positive amount with the income flag set for credits.
func (p *Parser) convert(tx ofxgo.Transaction, accountID string) Entry {
	amount, _ := tx.TrnAmt.Float64()
	merchant := extractMerchantName(tx)

	req := model.TransactionCreateRequest{
		Amount:     math.Abs(amount),
		Date:       tx.DtPosted.Time.Format("2006-01-02"),
		IsIncome:   amount > 0,
		CategoryID: p.categoryID,
	}
	if merchant != "" {
		req.Description = model.StringPtr(merchant)
	}
	if note := buildNote(tx, merchant); note != "" {
		req.Note = model.StringPtr(note)
	}

	return Entry{
		FITID:     string(tx.FiTID),
		AccountID: accountID,
		Type:      fmt.Sprintf("%v", tx.TrnType),
		Request:   req,
	}
}

// buildNote keeps the raw bank text when it differs from the cleaned merchant.
func buildNote(tx ofxgo.Transaction, merchant string) string {
	var parts []string
	if tx.CheckNum != "" {
		parts = append(parts, "Check #"+string(tx.CheckNum))
	}
	if name := strings.TrimSpace(string(tx.Name)); name != "" && name != merchant {
		parts = append(parts, name)
	}
	if memo := strings.TrimSpace(string(tx.Memo)); memo != "" && memo != merchant {
		parts = append(parts, memo)
	}
	return strings.Join(parts, " | ")
}

// extractMerchantName picks the cleanest merchant name OFX offers.
func extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// "MM/DD " date stamps at the front
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

// Dedupe drops entries whose Key was already seen, keeping the first.
func Dedupe(entries []Entry) []Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		key := e.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

// Accounts returns the distinct account ids in entries, sorted.
func Accounts(entries []Entry) []string {
	set := make(map[string]bool)
	for _, e := range entries {
		if e.AccountID != "" {
			set[e.AccountID] = true
		}
	}

	accounts := make([]string, 0, len(set))
	for acct := range set {
		accounts = append(accounts, acct)
	}
	sort.Strings(accounts)
	return accounts
}
