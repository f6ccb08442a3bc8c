package ynab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrPayeeNotFound indicates a configured payee does not exist in the budget.
var ErrPayeeNotFound = errors.New("payee not found in budget")

// NeedsMemoFilter selects the transactions awaiting annotation.
type NeedsMemoFilter struct {
	// PayeeNeedsMemo is the staging payee marking transactions to process
	// (e.g. "Amazon - Needs Memo"). Ignored in empty-memo mode.
	PayeeNeedsMemo string

	// PayeeProcessed is the payee written back after annotation ("Amazon").
	PayeeProcessed string

	// MatchEmptyMemo selects by empty memo under the processed payee instead
	// of requiring the staging payee.
	MatchEmptyMemo bool

	// Force includes transactions that already carry a memo.
	Force bool

	// LookbackDays bounds how far back transactions are considered.
	LookbackDays int

	// ApprovedStatuses is the allow-set of approval states ("approved",
	// "unapproved"). Empty means both.
	ApprovedStatuses []string

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (f NeedsMemoFilter) allowsStatus(status string) bool {
	if len(f.ApprovedStatuses) == 0 {
		return true
	}
	for _, s := range f.ApprovedStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// FetchNeedsMemo returns the transactions to annotate and the processed
// payee to stamp onto them.
func FetchNeedsMemo(ctx context.Context, api API, budgetID string, filter NeedsMemoFilter, logger *slog.Logger) ([]Transaction, Payee, error) {
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now
	if filter.Now != nil {
		now = filter.Now
	}

	payees, err := api.Payees(ctx, budgetID)
	if err != nil {
		return nil, Payee{}, fmt.Errorf("failed to fetch payees: %w", err)
	}

	processed, ok := findPayee(payees, filter.PayeeProcessed)
	if !ok {
		return nil, Payee{}, fmt.Errorf("%w: %q", ErrPayeeNotFound, filter.PayeeProcessed)
	}

	minDate := now().AddDate(0, 0, -filter.LookbackDays)

	var source Payee
	if filter.MatchEmptyMemo || filter.Force {
		source = processed
	} else {
		staging, ok := findPayee(payees, filter.PayeeNeedsMemo)
		if !ok {
			return nil, Payee{}, fmt.Errorf("%w: %q", ErrPayeeNotFound, filter.PayeeNeedsMemo)
		}
		source = staging
	}

	transactions, err := api.TransactionsByPayee(ctx, budgetID, source.ID)
	if err != nil {
		return nil, Payee{}, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	var selected []Transaction
	for _, t := range transactions {
		if t.Date.Before(minDate) {
			continue
		}
		switch {
		case filter.Force:
			// Force mode: everything in the window, memo or not.
		case filter.MatchEmptyMemo:
			if t.Memo != "" || !filter.allowsStatus(t.ApprovalStatus()) {
				continue
			}
		default:
			// Staging-payee mode matches the original behavior: only
			// unapproved transactions are pending review.
			if t.Approved {
				continue
			}
		}
		selected = append(selected, t)
	}

	logger.Debug("Selected transactions needing memos",
		"total", len(transactions),
		"selected", len(selected),
		"payee", source.Name,
	)

	return selected, processed, nil
}

func findPayee(payees []Payee, name string) (Payee, bool) {
	for _, p := range payees {
		if p.Name == name {
			return p, true
		}
	}
	return Payee{}, false
}
