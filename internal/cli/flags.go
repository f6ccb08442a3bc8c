// Package cli holds flag parsing, console output, and interactive prompts
// shared by the commands.
package cli

import (
	"flag"

	"github.com/eshaffer321/ynab-amazon-sync/internal/application/sync"
)

// SyncFlags are the flags for one-shot sync commands
type SyncFlags struct {
	ConfigPath     string
	DryRun         bool
	Force          bool
	MatchEmptyMemo bool
	NonInteractive bool
	LookbackDays   int
	MaxOrders      int
	OrderNumber    string
	ForceRefresh   bool
	Verbose        bool
}

// ParseSyncFlags parses sync flags from the command line
func ParseSyncFlags() SyncFlags {
	var flags SyncFlags
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "Path to config file")
	flag.BoolVar(&flags.DryRun, "dry-run", false, "Show memo changes without writing them")
	flag.BoolVar(&flags.Force, "force", false, "Overwrite memos that already exist")
	flag.BoolVar(&flags.MatchEmptyMemo, "match-empty-memo", false, "Select by empty memo instead of the staging payee")
	flag.BoolVar(&flags.NonInteractive, "non-interactive", false, "Never prompt; ambiguous matches are skipped")
	flag.IntVar(&flags.LookbackDays, "days", 0, "Days to look back (0 = config default)")
	flag.IntVar(&flags.MaxOrders, "max", 0, "Maximum orders to consider (0 = all)")
	flag.StringVar(&flags.OrderNumber, "order", "", "Only annotate against this order number")
	flag.BoolVar(&flags.ForceRefresh, "refresh", false, "Bypass the order cache")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// ToSyncOptions converts SyncFlags to sync.Options. lookbackDefault fills
// in when the -days flag was left at zero.
func (f SyncFlags) ToSyncOptions(lookbackDefault int) sync.Options {
	days := f.LookbackDays
	if days <= 0 {
		days = lookbackDefault
	}
	return sync.Options{
		DryRun:         f.DryRun,
		Force:          f.Force,
		MatchEmptyMemo: f.MatchEmptyMemo,
		LookbackDays:   days,
		MaxOrders:      f.MaxOrders,
		OrderNumber:    f.OrderNumber,
		ForceRefresh:   f.ForceRefresh,
	}
}
