package ynab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMilliunits(t *testing.T) {
	assert.Equal(t, int64(-2999), Milliunits(-29990).Cents())
	assert.Equal(t, int64(2999), Milliunits(29990).Cents())
	assert.Equal(t, Milliunits(29990), Milliunits(-29990).Abs())
	assert.Equal(t, "-$29.99", Milliunits(-29990).Dollars())
	assert.Equal(t, "$0.05", Milliunits(50).Dollars())
}

func TestDate_UnmarshalJSON(t *testing.T) {
	var tx Transaction
	err := json.Unmarshal([]byte(`{"id": "t1", "date": "2025-06-01", "amount": -29990}`), &tx)
	require.NoError(t, err)
	assert.Equal(t, 2025, tx.Date.Year())
	assert.Equal(t, "June", tx.Date.Month().String())
	assert.Equal(t, 1, tx.Date.Day())
}

func TestClient_Payees(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/budgets/budget-1/payees", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"data": {
				"payees": [
					{"id": "p1", "name": "Amazon", "deleted": false},
					{"id": "p2", "name": "Amazon - Needs Memo", "deleted": false},
					{"id": "p3", "name": "Gone", "deleted": true}
				]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-token", nil)
	client.SetBaseURL(server.URL)

	payees, err := client.Payees(context.Background(), "budget-1")
	require.NoError(t, err)
	require.Len(t, payees, 2, "deleted payees are filtered out")
	assert.Equal(t, "Amazon", payees[0].Name)
}

func TestClient_TransactionsByPayee(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/budgets/budget-1/payees/p2/transactions", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"data": {
				"transactions": [
					{"id": "t1", "date": "2025-06-02", "amount": -29990, "memo": "", "approved": false}
				]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-token", nil)
	client.SetBaseURL(server.URL)

	transactions, err := client.TransactionsByPayee(context.Background(), "budget-1", "p2")
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, Milliunits(-29990), transactions[0].Amount)
	assert.Equal(t, "unapproved", transactions[0].ApprovalStatus())
}

func TestClient_UpdateTransaction(t *testing.T) {
	var captured map[string]map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/budgets/budget-1/transactions/t1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"data": {"transaction": {"id": "t1"}}}`))
	}))
	defer server.Close()

	client := NewClient("test-token", nil)
	client.SetBaseURL(server.URL)

	err := client.UpdateTransaction(context.Background(), "budget-1", "t1", "Widget ($29.99) | Order #111", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget ($29.99) | Order #111", captured["transaction"]["memo"])
	assert.Equal(t, "p1", captured["transaction"]["payee_id"])
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"id": "404.2", "name": "resource_not_found", "detail": "Budget not found"}}`))
	}))
	defer server.Close()

	client := NewClient("test-token", nil)
	client.SetBaseURL(server.URL)

	_, err := client.Payees(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Budget not found")
}
