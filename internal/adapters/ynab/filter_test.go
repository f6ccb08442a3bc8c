package ynab

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves canned payees and transactions.
type fakeAPI struct {
	payees       []Payee
	transactions map[string][]Transaction
	updates      []string
}

func (f *fakeAPI) Payees(_ context.Context, _ string) ([]Payee, error) {
	return f.payees, nil
}

func (f *fakeAPI) TransactionsByPayee(_ context.Context, _ string, payeeID string) ([]Transaction, error) {
	return f.transactions[payeeID], nil
}

func (f *fakeAPI) UpdateTransaction(_ context.Context, _, transactionID, _, _ string) error {
	f.updates = append(f.updates, transactionID)
	return nil
}

func testDate(day int) Date {
	return Date{Time: time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC)}
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
}

func TestFetchNeedsMemo_StagingPayeeMode(t *testing.T) {
	api := &fakeAPI{
		payees: []Payee{
			{ID: "p1", Name: "Amazon"},
			{ID: "p2", Name: "Amazon - Needs Memo"},
		},
		transactions: map[string][]Transaction{
			"p2": {
				{ID: "t1", Date: testDate(20), Amount: -29990, Approved: false},
				{ID: "t2", Date: testDate(21), Amount: -5000, Approved: true},  // approved: already reviewed
				{ID: "t3", Date: testDate(1), Amount: -1000, Approved: false}, // outside window
			},
		},
	}

	filter := NeedsMemoFilter{
		PayeeNeedsMemo: "Amazon - Needs Memo",
		PayeeProcessed: "Amazon",
		LookbackDays:   14,
		Now:            fixedNow,
	}

	selected, processed, err := FetchNeedsMemo(context.Background(), api, "b1", filter, nil)
	require.NoError(t, err)
	assert.Equal(t, "p1", processed.ID)
	require.Len(t, selected, 1)
	assert.Equal(t, "t1", selected[0].ID)
}

func TestFetchNeedsMemo_EmptyMemoMode(t *testing.T) {
	api := &fakeAPI{
		payees: []Payee{{ID: "p1", Name: "Amazon"}},
		transactions: map[string][]Transaction{
			"p1": {
				{ID: "t1", Date: testDate(20), Amount: -29990, Approved: true},
				{ID: "t2", Date: testDate(21), Amount: -5000, Approved: true, Memo: "already annotated"},
				{ID: "t3", Date: testDate(22), Amount: -2000, Approved: false},
			},
		},
	}

	filter := NeedsMemoFilter{
		PayeeProcessed:   "Amazon",
		MatchEmptyMemo:   true,
		LookbackDays:     14,
		ApprovedStatuses: []string{"approved"},
		Now:              fixedNow,
	}

	selected, _, err := FetchNeedsMemo(context.Background(), api, "b1", filter, nil)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "t1", selected[0].ID)
}

func TestFetchNeedsMemo_ForceIncludesMemoed(t *testing.T) {
	api := &fakeAPI{
		payees: []Payee{{ID: "p1", Name: "Amazon"}},
		transactions: map[string][]Transaction{
			"p1": {
				{ID: "t1", Date: testDate(20), Amount: -29990, Memo: "old memo", Approved: true},
				{ID: "t2", Date: testDate(21), Amount: -5000, Approved: false},
			},
		},
	}

	filter := NeedsMemoFilter{
		PayeeProcessed: "Amazon",
		Force:          true,
		LookbackDays:   14,
		Now:            fixedNow,
	}

	selected, _, err := FetchNeedsMemo(context.Background(), api, "b1", filter, nil)
	require.NoError(t, err)
	assert.Len(t, selected, 2)
}

func TestFetchNeedsMemo_MissingProcessedPayee(t *testing.T) {
	api := &fakeAPI{payees: []Payee{{ID: "p2", Name: "Amazon - Needs Memo"}}}

	filter := NeedsMemoFilter{
		PayeeNeedsMemo: "Amazon - Needs Memo",
		PayeeProcessed: "Amazon",
		LookbackDays:   14,
		Now:            fixedNow,
	}

	_, _, err := FetchNeedsMemo(context.Background(), api, "b1", filter, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPayeeNotFound)
}

func TestFetchNeedsMemo_MissingStagingPayee(t *testing.T) {
	api := &fakeAPI{payees: []Payee{{ID: "p1", Name: "Amazon"}}}

	filter := NeedsMemoFilter{
		PayeeNeedsMemo: "Amazon - Needs Memo",
		PayeeProcessed: "Amazon",
		LookbackDays:   14,
		Now:            fixedNow,
	}

	_, _, err := FetchNeedsMemo(context.Background(), api, "b1", filter, nil)
	assert.ErrorIs(t, err, ErrPayeeNotFound)
}
