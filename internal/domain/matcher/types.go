package matcher

import (
	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/amazon"
	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/ynab"
)

// Config holds matcher configuration
type Config struct {
	// DateToleranceDays is how many days a charge date may differ from the
	// transaction date before the date-mismatch policy is consulted.
	// A mismatch within tolerance is accepted silently.
	DateToleranceDays int

	// RelaxedDateMatch enables the fallback search when no charge matches
	// by exact amount: charges whose order total equals the transaction
	// amount and whose order date is within DateToleranceDays qualify.
	RelaxedDateMatch bool
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		DateToleranceDays: 0,
		RelaxedDateMatch:  false,
	}
}

// MatchResult is the outcome of pairing one ledger transaction with the
// charge pool. A nil Charge means no-match; Reason says why.
type MatchResult struct {
	Transaction ynab.Transaction
	Charge      *amazon.Charge
	Partial     bool // charge amount < order total (split shipment)
	DateDelta   int  // days between charge and transaction dates
	Candidates  int  // how many charges matched by amount
	Reason      string
}

// Matched reports whether a charge was paired.
func (r MatchResult) Matched() bool {
	return r.Charge != nil
}

// AmbiguityPolicy resolves ties between equally good candidate charges.
// Implementations may prompt the user (interactive mode) or pick
// deterministically. Returning a negative index rejects the match.
type AmbiguityPolicy interface {
	Resolve(txn ynab.Transaction, candidates []amazon.Charge) (int, error)
}

// DateMismatchPolicy decides whether a match whose dates differ beyond
// tolerance should stand.
type DateMismatchPolicy interface {
	Accept(txn ynab.Transaction, charge amazon.Charge, deltaDays int) (bool, error)
}

// PickFirst deterministically resolves ambiguity by taking the first
// candidate in the matcher's stable sort order.
type PickFirst struct{}

// Resolve returns the first candidate.
func (PickFirst) Resolve(_ ynab.Transaction, _ []amazon.Charge) (int, error) {
	return 0, nil
}

// RejectAmbiguous refuses all ambiguous matches.
type RejectAmbiguous struct{}

// Resolve rejects the match.
func (RejectAmbiguous) Resolve(_ ynab.Transaction, _ []amazon.Charge) (int, error) {
	return -1, nil
}

// AcceptDates accepts any date mismatch.
type AcceptDates struct{}

// Accept always accepts.
func (AcceptDates) Accept(_ ynab.Transaction, _ amazon.Charge, _ int) (bool, error) {
	return true, nil
}

// RejectDates rejects any date mismatch beyond tolerance.
type RejectDates struct{}

// Accept always rejects.
func (RejectDates) Accept(_ ynab.Transaction, _ amazon.Charge, _ int) (bool, error) {
	return false, nil
}
