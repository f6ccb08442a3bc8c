package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/amazon"
	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/ynab"
)

// Prompter asks the user to resolve ambiguous matches and date mismatches.
// It implements the matcher's AmbiguityPolicy and DateMismatchPolicy.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a prompter reading from in and writing to out
// (usually os.Stdin and os.Stdout).
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Resolve shows the tied candidates and asks for a pick. Entering "s"
// (or nothing) skips the transaction.
func (p *Prompter) Resolve(txn ynab.Transaction, candidates []amazon.Charge) (int, error) {
	fmt.Fprintf(p.out, "\nMultiple orders match transaction %s (%s on %s):\n",
		txn.ID, txn.Amount.Dollars(), txn.Date.Format("2006-01-02"))

	for i, charge := range candidates {
		fmt.Fprintf(p.out, "  [%d] order %s charged %s on %s (%d item(s))\n",
			i+1,
			charge.OrderNumber,
			charge.Amount.Dollars(),
			charge.Date.Format("2006-01-02"),
			len(charge.Items),
		)
	}
	fmt.Fprintf(p.out, "Pick 1-%d or [s]kip: ", len(candidates))

	answer, err := p.readLine()
	if err != nil {
		return -1, err
	}
	if answer == "" || answer == "s" {
		return -1, nil
	}

	pick, err := strconv.Atoi(answer)
	if err != nil || pick < 1 || pick > len(candidates) {
		fmt.Fprintf(p.out, "Invalid choice %q, skipping.\n", answer)
		return -1, nil
	}
	return pick - 1, nil
}

// Accept asks whether a match with a large date gap should stand.
func (p *Prompter) Accept(txn ynab.Transaction, charge amazon.Charge, deltaDays int) (bool, error) {
	fmt.Fprintf(p.out, "\nTransaction %s (%s) matches order %s but the dates differ by %d day(s).\n",
		txn.ID, txn.Date.Format("2006-01-02"), charge.OrderNumber, deltaDays)
	fmt.Fprint(p.out, "Accept this match? [y/N]: ")

	answer, err := p.readLine()
	if err != nil {
		return false, err
	}
	return answer == "y" || answer == "yes", nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}
