package cli

import (
	"fmt"
	"strings"

	"github.com/eshaffer321/ynab-amazon-sync/internal/application/sync"
	"github.com/eshaffer321/ynab-amazon-sync/internal/infrastructure/storage"
)

// PrintHeader prints the run banner
func PrintHeader(dryRun bool) {
	mode := "PRODUCTION"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Printf("ynab-amazon-sync (%s mode)\n", mode)
}

// PrintDiffs prints pending memo changes from a dry run
func PrintDiffs(diffs []sync.MemoDiff) {
	if len(diffs) == 0 {
		fmt.Println("No memo changes pending.")
		return
	}

	fmt.Printf("Pending memo changes (%d):\n", len(diffs))
	for _, diff := range diffs {
		fmt.Println(strings.Repeat("-", 60))
		fmt.Printf("%s  %s  %s  order %s\n",
			diff.Date.Format("2006-01-02"),
			diff.TransactionID,
			diff.Amount.Dollars(),
			diff.OrderNumber,
		)
		if diff.OldMemo != "" {
			fmt.Printf("  - %s\n", diff.OldMemo)
		}
		fmt.Printf("  + %s\n", diff.NewMemo)
	}
	fmt.Println(strings.Repeat("-", 60))
}

// PrintRunSummary prints the run result summary
func PrintRunSummary(summary *sync.RunSummary, repo storage.Repository) {
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Summary: Found=%d Matched=%d Updated=%d Skipped=%d Unmatched=%d Errors=%d\n",
		summary.TransactionsFound,
		summary.Matched,
		summary.Updated,
		summary.Skipped,
		summary.Unmatched,
		summary.Failed)

	if len(summary.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, err := range summary.Errors {
			fmt.Printf("  - %v\n", err)
		}
	}

	if repo != nil {
		stats, _ := repo.GetStats()
		if stats != nil && stats.TotalAnnotations > 0 {
			fmt.Printf("\nLast 30 days: Annotations=%d Updated=%d Unmatched=%d Partial=%d\n",
				stats.TotalAnnotations,
				stats.UpdatedCount,
				stats.UnmatchedCount,
				stats.PartialCount)
		}
	}

	if !summary.DryRun && summary.Updated > 0 {
		fmt.Println("\nSync completed successfully.")
	}
}
