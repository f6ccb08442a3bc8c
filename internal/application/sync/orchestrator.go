// Package sync orchestrates one annotation pass: fetch transactions and
// orders, match them, render memos, and write the results back to YNAB.
package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/amazon"
	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/ynab"
	"github.com/eshaffer321/ynab-amazon-sync/internal/domain/matcher"
	"github.com/eshaffer321/ynab-amazon-sync/internal/domain/memo"
	"github.com/eshaffer321/ynab-amazon-sync/internal/infrastructure/storage"
)

// Run executes one sync pass. The returned summary is never nil; a non-nil
// error means the run aborted before annotation could start.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.New().String(),
		StartedAt: o.now().UTC(),
		DryRun:    opts.DryRun,
	}

	o.logger.Info("Starting sync run",
		"run_id", summary.RunID,
		"dry_run", opts.DryRun,
		"force", opts.Force,
		"lookback_days", opts.LookbackDays,
	)

	o.startRun(summary, opts)

	transactions, processed, err := o.fetchTransactions(ctx, opts)
	if err != nil {
		return o.fail(summary, fmt.Errorf("failed to fetch transactions: %w", err))
	}
	summary.TransactionsFound = len(transactions)

	if len(transactions) == 0 {
		o.logger.Info("No transactions need memos", "run_id", summary.RunID)
		o.completeRun(summary)
		return summary, nil
	}

	charges, err := o.fetchCharges(ctx, opts)
	if err != nil {
		return o.fail(summary, fmt.Errorf("failed to fetch orders: %w", err))
	}

	results := o.matcher.Match(transactions, charges)
	for _, result := range results {
		o.annotate(ctx, summary, result, processed, opts)
	}

	o.completeRun(summary)
	o.logger.Info("Sync run finished",
		"run_id", summary.RunID,
		"found", summary.TransactionsFound,
		"matched", summary.Matched,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"unmatched", summary.Unmatched,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (o *Orchestrator) fetchTransactions(ctx context.Context, opts Options) ([]ynab.Transaction, ynab.Payee, error) {
	filter := ynab.NeedsMemoFilter{
		PayeeNeedsMemo:   o.config.PayeeNeedsMemo,
		PayeeProcessed:   o.config.PayeeProcessed,
		MatchEmptyMemo:   opts.MatchEmptyMemo,
		Force:            opts.Force,
		LookbackDays:     opts.LookbackDays,
		ApprovedStatuses: o.config.ApprovedStatuses,
		Now:              o.now,
	}
	return ynab.FetchNeedsMemo(ctx, o.api, o.config.BudgetID, filter, o.logger)
}

func (o *Orchestrator) fetchCharges(ctx context.Context, opts Options) ([]amazon.Charge, error) {
	orders, err := o.source.FetchOrders(ctx, amazon.FetchOptions{
		Days:         opts.LookbackDays,
		ForceRefresh: opts.ForceRefresh,
		MaxOrders:    opts.MaxOrders,
	})
	if err != nil {
		return nil, err
	}

	if opts.OrderNumber != "" {
		var filtered []amazon.Order
		for _, order := range orders {
			if order.Number == opts.OrderNumber {
				filtered = append(filtered, order)
			}
		}
		orders = filtered
	}

	charges := amazon.BuildCharges(orders)
	o.logger.Debug("Fetched order charges", "orders", len(orders), "charges", len(charges))
	return charges, nil
}

func (o *Orchestrator) annotate(ctx context.Context, summary *RunSummary, result matcher.MatchResult, processed ynab.Payee, opts Options) {
	txn := result.Transaction

	if !result.Matched() {
		summary.Unmatched++
		o.logger.Warn("No order charge matched transaction",
			"transaction_id", txn.ID,
			"amount", txn.Amount,
			"date", txn.Date.Format("2006-01-02"),
			"reason", result.Reason,
		)
		o.record(summary, &storage.AnnotationRecord{
			TransactionID:    txn.ID,
			TransactionDate:  txn.Date.Time,
			AmountMilliunits: int64(txn.Amount),
			Status:           storage.AnnotationStatusUnmatched,
			Reason:           result.Reason,
			DryRun:           opts.DryRun,
		})
		return
	}

	summary.Matched++
	charge := *result.Charge
	body := o.renderer.Render(ctx, charge)

	if txn.Memo == body {
		summary.Skipped++
		o.logger.Debug("Memo already up to date", "transaction_id", txn.ID)
		return
	}

	if txn.Memo != "" {
		// Overwriting an existing memo only happens under force; surface
		// the order the old memo pointed at for the audit log.
		o.logger.Debug("Overwriting existing memo",
			"transaction_id", txn.ID,
			"previous_order_url", memo.ExtractOrderURL(txn.Memo),
		)
	}

	record := &storage.AnnotationRecord{
		TransactionID:    txn.ID,
		TransactionDate:  txn.Date.Time,
		AmountMilliunits: int64(txn.Amount),
		OrderNumber:      charge.OrderNumber,
		Memo:             body,
		PreviousMemo:     txn.Memo,
		Partial:          result.Partial,
		DateDeltaDays:    result.DateDelta,
		DryRun:           opts.DryRun,
	}

	if opts.DryRun {
		summary.Diffs = append(summary.Diffs, MemoDiff{
			TransactionID: txn.ID,
			Date:          txn.Date.Time,
			Amount:        txn.Amount,
			OrderNumber:   charge.OrderNumber,
			OldMemo:       txn.Memo,
			NewMemo:       body,
		})
		record.Status = storage.AnnotationStatusDryRun
		o.record(summary, record)
		return
	}

	if err := o.api.UpdateTransaction(ctx, o.config.BudgetID, txn.ID, body, processed.ID); err != nil {
		summary.Failed++
		summary.Errors = append(summary.Errors,
			fmt.Errorf("transaction %s (order %s): %w", txn.ID, charge.OrderNumber, err))
		o.logger.Error("Failed to update transaction",
			"transaction_id", txn.ID,
			"order_number", charge.OrderNumber,
			"error", err,
		)
		record.Status = storage.AnnotationStatusFailed
		record.ErrorMessage = err.Error()
		o.record(summary, record)
		return
	}

	summary.Updated++
	o.logger.Info("Annotated transaction",
		"transaction_id", txn.ID,
		"order_number", charge.OrderNumber,
		"partial", result.Partial,
		"memo_length", len(body),
	)
	record.Status = storage.AnnotationStatusUpdated
	o.record(summary, record)
}

func (o *Orchestrator) startRun(summary *RunSummary, opts Options) {
	if o.repo == nil {
		return
	}
	err := o.repo.StartRun(&storage.RunRecord{
		ID:           summary.RunID,
		StartedAt:    summary.StartedAt,
		LookbackDays: opts.LookbackDays,
		DryRun:       opts.DryRun,
	})
	if err != nil {
		// Tracking failures never block the sync itself.
		o.logger.Warn("Failed to start run tracking", "run_id", summary.RunID, "error", err)
	}
}

func (o *Orchestrator) completeRun(summary *RunSummary) {
	summary.CompletedAt = o.now().UTC()
	if o.repo == nil {
		return
	}

	status := storage.RunStatusCompleted
	if summary.Failed > 0 {
		status = storage.RunStatusCompletedWithError
	}
	errorMessage := ""
	if summary.Err != nil {
		status = storage.RunStatusFailed
		errorMessage = summary.Err.Error()
	}

	completedAt := summary.CompletedAt
	err := o.repo.CompleteRun(&storage.RunRecord{
		ID:                  summary.RunID,
		StartedAt:           summary.StartedAt,
		CompletedAt:         &completedAt,
		DryRun:              summary.DryRun,
		TransactionsFound:   summary.TransactionsFound,
		TransactionsUpdated: summary.Updated,
		TransactionsSkipped: summary.Skipped + summary.Unmatched,
		TransactionsErrored: summary.Failed,
		Status:              status,
		ErrorMessage:        errorMessage,
	})
	if err != nil {
		o.logger.Warn("Failed to complete run tracking", "run_id", summary.RunID, "error", err)
	}
}

func (o *Orchestrator) fail(summary *RunSummary, err error) (*RunSummary, error) {
	summary.Err = err
	o.logger.Error("Sync run aborted", "run_id", summary.RunID, "error", err)
	o.completeRun(summary)
	return summary, err
}

func (o *Orchestrator) record(summary *RunSummary, record *storage.AnnotationRecord) {
	if o.repo == nil {
		return
	}
	record.RunID = summary.RunID
	record.AnnotatedAt = o.now().UTC()
	if err := o.repo.SaveAnnotation(record); err != nil {
		o.logger.Warn("Failed to save annotation record",
			"transaction_id", record.TransactionID,
			"error", err,
		)
	}
}
