// Package matcher pairs YNAB transactions with Amazon order charges.
//
// Matching is by exact amount (in cents) with deterministic tie-breaking:
//   - smallest date difference wins
//   - then the order with the fewest charges (the simpler case)
//   - remaining ties go to the AmbiguityPolicy
//
// Charges are not consumed across transactions: an order split into several
// charges legitimately annotates several transactions with the same memo.
//
// Example usage:
//
//	m := matcher.New(matcher.DefaultConfig(), matcher.PickFirst{}, matcher.AcceptDates{}, logger)
//	results := m.Match(transactions, charges)
package matcher

import (
	"log/slog"
	"sort"
	"time"

	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/amazon"
	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/ynab"
)

// Matcher pairs ledger transactions with order charges. It performs no I/O;
// interactive decisions are delegated to the injected policies.
type Matcher struct {
	config    Config
	ambiguity AmbiguityPolicy
	dates     DateMismatchPolicy
	logger    *slog.Logger
}

// New creates a matcher with the given config and policies.
func New(config Config, ambiguity AmbiguityPolicy, dates DateMismatchPolicy, logger *slog.Logger) *Matcher {
	if ambiguity == nil {
		ambiguity = PickFirst{}
	}
	if dates == nil {
		dates = RejectDates{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{
		config:    config,
		ambiguity: ambiguity,
		dates:     dates,
		logger:    logger,
	}
}

// Match produces one MatchResult per transaction. An empty charge pool
// yields all-no-match results, never an error.
func (m *Matcher) Match(transactions []ynab.Transaction, charges []amazon.Charge) []MatchResult {
	byAmount := make(map[int64][]int, len(charges))
	for i, charge := range charges {
		cents := int64(charge.Amount.Abs())
		byAmount[cents] = append(byAmount[cents], i)
	}

	results := make([]MatchResult, 0, len(transactions))
	for _, txn := range transactions {
		results = append(results, m.matchOne(txn, charges, byAmount))
	}
	return results
}

func (m *Matcher) matchOne(txn ynab.Transaction, charges []amazon.Charge, byAmount map[int64][]int) MatchResult {
	result := MatchResult{Transaction: txn}

	amount := txn.Amount.Abs().Cents()
	if amount == 0 {
		m.logger.Warn("Skipping transaction with zero amount", "transaction_id", txn.ID)
		result.Reason = "zero amount"
		return result
	}

	var candidates []amazon.Charge
	for _, idx := range byAmount[amount] {
		candidates = append(candidates, charges[idx])
	}

	if len(candidates) == 0 && m.config.RelaxedDateMatch && m.config.DateToleranceDays > 0 {
		candidates = m.relaxedCandidates(txn, charges, amount)
	}

	result.Candidates = len(candidates)
	if len(candidates) == 0 {
		result.Reason = "no matching charge"
		return result
	}

	m.sortCandidates(txn, candidates)

	pick := 0
	if len(candidates) > 1 && m.tied(txn, candidates[0], candidates[1]) {
		ties := m.tiedPrefix(txn, candidates)
		choice, err := m.ambiguity.Resolve(txn, ties)
		if err != nil {
			m.logger.Warn("Ambiguity resolution failed", "transaction_id", txn.ID, "error", err)
			result.Reason = "ambiguous candidates"
			return result
		}
		if choice < 0 || choice >= len(ties) {
			result.Reason = "ambiguous candidates"
			return result
		}
		pick = choice
	}

	charge := candidates[pick]
	delta := dateDelta(txn.Date.Time, charge.Date)
	result.DateDelta = delta

	if delta > m.config.DateToleranceDays {
		accept, err := m.dates.Accept(txn, charge, delta)
		if err != nil {
			m.logger.Warn("Date mismatch resolution failed", "transaction_id", txn.ID, "error", err)
			accept = false
		}
		if !accept {
			result.Reason = "date mismatch rejected"
			return result
		}
	}

	result.Charge = &charge
	result.Partial = charge.Partial()
	return result
}

// relaxedCandidates re-queries by order total when no charge matched the
// exact amount: a charge qualifies if its order total equals the transaction
// amount and its order date lies within the tolerance window.
func (m *Matcher) relaxedCandidates(txn ynab.Transaction, charges []amazon.Charge, amount int64) []amazon.Charge {
	var candidates []amazon.Charge
	for _, charge := range charges {
		if int64(charge.OrderTotal.Abs()) != amount {
			continue
		}
		if dateDelta(txn.Date.Time, charge.OrderDate) > m.config.DateToleranceDays {
			continue
		}
		candidates = append(candidates, charge)
	}
	if len(candidates) > 0 {
		m.logger.Debug("Matched via relaxed date search",
			"transaction_id", txn.ID,
			"candidates", len(candidates),
		)
	}
	return candidates
}

// sortCandidates orders candidates by date closeness, then simplicity
// (fewest sibling charges), then order number for stability.
func (m *Matcher) sortCandidates(txn ynab.Transaction, candidates []amazon.Charge) {
	sort.SliceStable(candidates, func(i, j int) bool {
		di := dateDelta(txn.Date.Time, candidates[i].Date)
		dj := dateDelta(txn.Date.Time, candidates[j].Date)
		if di != dj {
			return di < dj
		}
		if candidates[i].SiblingCharges != candidates[j].SiblingCharges {
			return candidates[i].SiblingCharges < candidates[j].SiblingCharges
		}
		return candidates[i].OrderNumber < candidates[j].OrderNumber
	})
}

// tied reports whether two candidates are indistinguishable by the
// deterministic tie-break keys.
func (m *Matcher) tied(txn ynab.Transaction, a, b amazon.Charge) bool {
	return dateDelta(txn.Date.Time, a.Date) == dateDelta(txn.Date.Time, b.Date) &&
		a.SiblingCharges == b.SiblingCharges
}

// tiedPrefix returns the leading run of candidates tied with the first.
func (m *Matcher) tiedPrefix(txn ynab.Transaction, candidates []amazon.Charge) []amazon.Charge {
	end := 1
	for end < len(candidates) && m.tied(txn, candidates[0], candidates[end]) {
		end++
	}
	return candidates[:end]
}

func dateDelta(a, b time.Time) int {
	delta := a.Sub(b)
	if delta < 0 {
		delta = -delta
	}
	return int(delta.Hours() / 24)
}
