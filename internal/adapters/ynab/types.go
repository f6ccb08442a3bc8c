// Package ynab provides a minimal client for the YNAB v1 REST API covering
// what the memo sync needs: payee lookup, transactions by payee, and memo
// updates.
package ynab

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MemoLimit is the maximum memo length YNAB accepts.
const MemoLimit = 500

// Milliunits is YNAB's fixed-point amount representation: one dollar is
// 1000 milliunits. Outflows are negative.
type Milliunits int64

// Cents converts to cents, truncating toward zero. YNAB amounts are always
// whole cents so no precision is lost.
func (m Milliunits) Cents() int64 {
	return int64(m) / 10
}

// Abs returns the absolute value.
func (m Milliunits) Abs() Milliunits {
	if m < 0 {
		return -m
	}
	return m
}

// Dollars renders the amount as "$12.34" (or "-$12.34").
func (m Milliunits) Dollars() string {
	c := m.Cents()
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}

// Date wraps time.Time with YNAB's "2006-01-02" JSON encoding.
type Date struct {
	time.Time
}

// UnmarshalJSON parses a YNAB date string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// MarshalJSON renders the date as a YNAB date string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format("2006-01-02"))
}

// Transaction is one ledger entry.
type Transaction struct {
	ID        string     `json:"id"`
	Date      Date       `json:"date"`
	Amount    Milliunits `json:"amount"`
	Memo      string     `json:"memo"`
	Approved  bool       `json:"approved"`
	PayeeID   string     `json:"payee_id"`
	PayeeName string     `json:"payee_name"`
	Deleted   bool       `json:"deleted"`
}

// ApprovalStatus returns "approved" or "unapproved" for allow-set checks.
func (t Transaction) ApprovalStatus() string {
	if t.Approved {
		return "approved"
	}
	return "unapproved"
}

// Payee is a YNAB payee.
type Payee struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
}
