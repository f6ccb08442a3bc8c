package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/amazon"
	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/ynab"
	"github.com/eshaffer321/ynab-amazon-sync/internal/domain/matcher"
	"github.com/eshaffer321/ynab-amazon-sync/internal/domain/memo"
	"github.com/eshaffer321/ynab-amazon-sync/internal/infrastructure/storage"
)

type memoUpdate struct {
	TransactionID string
	Memo          string
	PayeeID       string
}

type fakeYNAB struct {
	payees       []ynab.Payee
	transactions map[string][]ynab.Transaction // keyed by payee ID
	updates      []memoUpdate
	updateErr    error
}

func (f *fakeYNAB) Payees(_ context.Context, _ string) ([]ynab.Payee, error) {
	return f.payees, nil
}

func (f *fakeYNAB) TransactionsByPayee(_ context.Context, _, payeeID string) ([]ynab.Transaction, error) {
	return f.transactions[payeeID], nil
}

func (f *fakeYNAB) UpdateTransaction(_ context.Context, _, transactionID, body, payeeID string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, memoUpdate{transactionID, body, payeeID})
	return nil
}

type fakeOrders struct {
	orders []amazon.Order
	err    error
}

func (f *fakeOrders) FetchOrders(_ context.Context, _ amazon.FetchOptions) ([]amazon.Order, error) {
	return f.orders, f.err
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
}

func centsPtr(v int64) *amazon.Cents {
	c := amazon.Cents(v)
	return &c
}

func widgetOrder() amazon.Order {
	return amazon.Order{
		Number: "111-2222222-3333333",
		Date:   time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC),
		Total:  2999,
		Link:   amazon.OrderLink("111-2222222-3333333"),
		Items:  []amazon.Item{{Title: "Widget", Price: centsPtr(2999), Quantity: 1}},
	}
}

func stagedTransaction(id string, amount ynab.Milliunits, day int) ynab.Transaction {
	return ynab.Transaction{
		ID:        id,
		Amount:    amount,
		Date:      ynab.Date{Time: time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC)},
		PayeeID:   "p-staging",
		PayeeName: "Amazon - Needs Memo",
	}
}

func newTestOrchestrator(api *fakeYNAB, source *fakeOrders, repo storage.Repository) *Orchestrator {
	config := Config{
		BudgetID:       "budget-1",
		PayeeNeedsMemo: "Amazon - Needs Memo",
		PayeeProcessed: "Amazon",
	}
	m := matcher.New(matcher.Config{DateToleranceDays: 5}, matcher.PickFirst{}, matcher.RejectDates{}, nil)
	renderer := memo.NewRenderer(memo.Config{WithPrices: true}, nil, nil)
	o := NewOrchestrator(config, api, source, m, renderer, repo, nil)
	o.now = fixedNow
	return o
}

func defaultFakeYNAB(transactions ...ynab.Transaction) *fakeYNAB {
	return &fakeYNAB{
		payees: []ynab.Payee{
			{ID: "p-staging", Name: "Amazon - Needs Memo"},
			{ID: "p-amazon", Name: "Amazon"},
		},
		transactions: map[string][]ynab.Transaction{"p-staging": transactions},
	}
}

func TestRun_AnnotatesMatchedTransaction(t *testing.T) {
	// Arrange
	api := defaultFakeYNAB(stagedTransaction("t1", -29990, 28))
	source := &fakeOrders{orders: []amazon.Order{widgetOrder()}}
	repo := storage.NewMockRepository()
	o := newTestOrchestrator(api, source, repo)

	// Act
	summary, err := o.Run(context.Background(), Options{LookbackDays: 30})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TransactionsFound)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, 1, summary.Updated)
	assert.Zero(t, summary.Failed)

	require.Len(t, api.updates, 1)
	assert.Equal(t, "t1", api.updates[0].TransactionID)
	assert.Equal(t, "Widget ($29.99) | Order #111-2222222-3333333", api.updates[0].Memo)
	assert.Equal(t, "p-amazon", api.updates[0].PayeeID, "payee moves to the processed payee")

	annotations, err := repo.ListAnnotations(storage.AnnotationFilters{RunID: summary.RunID})
	require.NoError(t, err)
	require.Len(t, annotations, 1)
	assert.Equal(t, storage.AnnotationStatusUpdated, annotations[0].Status)

	run, err := repo.GetRun(summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, storage.RunStatusCompleted, run.Status)
	assert.Equal(t, 1, run.TransactionsUpdated)
}

func TestRun_DryRunReportsDiffWithoutWriting(t *testing.T) {
	api := defaultFakeYNAB(stagedTransaction("t1", -29990, 28))
	source := &fakeOrders{orders: []amazon.Order{widgetOrder()}}
	o := newTestOrchestrator(api, source, storage.NewMockRepository())

	summary, err := o.Run(context.Background(), Options{DryRun: true, LookbackDays: 30})

	require.NoError(t, err)
	assert.Empty(t, api.updates)
	require.Len(t, summary.Diffs, 1)
	diff := summary.Diffs[0]
	assert.Equal(t, "t1", diff.TransactionID)
	assert.Equal(t, "", diff.OldMemo)
	assert.Equal(t, "Widget ($29.99) | Order #111-2222222-3333333", diff.NewMemo)
	assert.Zero(t, summary.Updated)
}

func TestRun_UnmatchedTransactionRecorded(t *testing.T) {
	api := defaultFakeYNAB(stagedTransaction("t1", -12345, 28))
	source := &fakeOrders{orders: []amazon.Order{widgetOrder()}}
	repo := storage.NewMockRepository()
	o := newTestOrchestrator(api, source, repo)

	summary, err := o.Run(context.Background(), Options{LookbackDays: 30})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Unmatched)
	assert.Empty(t, api.updates)

	annotations, _ := repo.ListAnnotations(storage.AnnotationFilters{Status: storage.AnnotationStatusUnmatched})
	require.Len(t, annotations, 1)
	assert.Equal(t, "no matching charge", annotations[0].Reason)
}

func TestRun_SkipsWhenMemoAlreadyCurrent(t *testing.T) {
	txn := stagedTransaction("t1", -29990, 28)
	txn.Memo = "Widget ($29.99) | Order #111-2222222-3333333"
	api := defaultFakeYNAB(txn)
	source := &fakeOrders{orders: []amazon.Order{widgetOrder()}}
	o := newTestOrchestrator(api, source, nil)

	summary, err := o.Run(context.Background(), Options{LookbackDays: 30})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, api.updates)
}

func TestRun_WriteFailureRecordedAndContinues(t *testing.T) {
	api := defaultFakeYNAB(
		stagedTransaction("t1", -29990, 28),
		stagedTransaction("t2", -29990, 28),
	)
	api.updateErr = errors.New("service unavailable")
	source := &fakeOrders{orders: []amazon.Order{widgetOrder()}}
	repo := storage.NewMockRepository()
	o := newTestOrchestrator(api, source, repo)

	summary, err := o.Run(context.Background(), Options{LookbackDays: 30})

	require.NoError(t, err, "per-write failures are not fatal")
	assert.Equal(t, 2, summary.Failed)
	assert.Len(t, summary.Errors, 2)

	run, err := repo.GetRun(summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, storage.RunStatusCompletedWithError, run.Status)
}

func TestRun_OrderFetchFailureIsFatal(t *testing.T) {
	api := defaultFakeYNAB(stagedTransaction("t1", -29990, 28))
	source := &fakeOrders{err: errors.New("scraper exited 1")}
	repo := storage.NewMockRepository()
	o := newTestOrchestrator(api, source, repo)

	summary, err := o.Run(context.Background(), Options{LookbackDays: 30})

	require.Error(t, err)
	require.NotNil(t, summary)
	assert.Error(t, summary.Err)

	run, repoErr := repo.GetRun(summary.RunID)
	require.NoError(t, repoErr)
	assert.Equal(t, storage.RunStatusFailed, run.Status)
}

func TestRun_NoTransactionsShortCircuits(t *testing.T) {
	api := defaultFakeYNAB()
	source := &fakeOrders{err: errors.New("should not be called")}
	o := newTestOrchestrator(api, source, nil)

	summary, err := o.Run(context.Background(), Options{LookbackDays: 30})

	require.NoError(t, err)
	assert.Zero(t, summary.TransactionsFound)
}

func TestRun_OrderNumberFilter(t *testing.T) {
	api := defaultFakeYNAB(stagedTransaction("t1", -29990, 28))
	other := widgetOrder()
	other.Number = "999-0000000-0000000"
	source := &fakeOrders{orders: []amazon.Order{other, widgetOrder()}}
	o := newTestOrchestrator(api, source, nil)

	summary, err := o.Run(context.Background(), Options{
		LookbackDays: 30,
		OrderNumber:  "999-0000000-0000000",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Matched)
	require.Len(t, api.updates, 1)
	assert.Contains(t, api.updates[0].Memo, "Order #999-0000000-0000000")
}

func TestRun_SplitOrderAnnotatesBothCharges(t *testing.T) {
	// A split order: $40.00 and $19.98 charges of a $59.98 total. Both
	// transactions get partial-warning memos listing the whole order.
	order := amazon.Order{
		Number: "111-4444444-5555555",
		Date:   time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC),
		Total:  5998,
		Items: []amazon.Item{
			{Title: "Thing One", Price: centsPtr(4000)},
			{Title: "Thing Two", Price: centsPtr(1998)},
		},
		Transactions: []amazon.SubTransaction{
			{Amount: 4000, Date: time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC)},
			{Amount: 1998, Date: time.Date(2025, 6, 29, 0, 0, 0, 0, time.UTC)},
		},
	}
	api := defaultFakeYNAB(
		stagedTransaction("t1", -40000, 28),
		stagedTransaction("t2", -19980, 29),
	)
	source := &fakeOrders{orders: []amazon.Order{order}}
	o := newTestOrchestrator(api, source, nil)

	summary, err := o.Run(context.Background(), Options{LookbackDays: 30})

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Updated)
	require.Len(t, api.updates, 2)
	for _, update := range api.updates {
		assert.Contains(t, update.Memo, "[Partial - order total $59.98]")
		assert.Contains(t, update.Memo, "Order #111-4444444-5555555")
	}
}
