package ynab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// API is the surface the sync engine needs from YNAB. The concrete Client
// implements it; tests substitute fakes.
type API interface {
	Payees(ctx context.Context, budgetID string) ([]Payee, error)
	TransactionsByPayee(ctx context.Context, budgetID, payeeID string) ([]Transaction, error)
	UpdateTransaction(ctx context.Context, budgetID, transactionID, memo, payeeID string) error
}

// Client talks to the YNAB v1 API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Compile-time check that Client implements API
var _ API = (*Client)(nil)

// NewClient creates a YNAB API client. Transient failures and rate limits
// are retried with backoff.
func NewClient(token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.Logger = nil // the slog logger below covers request logging

	return &Client{
		token:      token,
		baseURL:    "https://api.ynab.com/v1",
		httpClient: retryClient.StandardClient(),
		logger:     logger.With("system", "ynab"),
	}
}

// SetBaseURL overrides the API base URL (used in tests).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

type payeesResponse struct {
	Data struct {
		Payees []Payee `json:"payees"`
	} `json:"data"`
}

type transactionsResponse struct {
	Data struct {
		Transactions []Transaction `json:"transactions"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Detail string `json:"detail"`
	} `json:"error"`
}

// Payees returns all non-deleted payees for a budget.
func (c *Client) Payees(ctx context.Context, budgetID string) ([]Payee, error) {
	var resp payeesResponse
	path := fmt.Sprintf("/budgets/%s/payees", budgetID)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}

	payees := make([]Payee, 0, len(resp.Data.Payees))
	for _, p := range resp.Data.Payees {
		if p.Deleted {
			continue
		}
		payees = append(payees, p)
	}
	return payees, nil
}

// TransactionsByPayee returns all non-deleted transactions for a payee.
func (c *Client) TransactionsByPayee(ctx context.Context, budgetID, payeeID string) ([]Transaction, error) {
	var resp transactionsResponse
	path := fmt.Sprintf("/budgets/%s/payees/%s/transactions", budgetID, payeeID)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}

	transactions := make([]Transaction, 0, len(resp.Data.Transactions))
	for _, t := range resp.Data.Transactions {
		if t.Deleted {
			continue
		}
		transactions = append(transactions, t)
	}
	return transactions, nil
}

// UpdateTransaction writes a memo and payee onto a transaction.
func (c *Client) UpdateTransaction(ctx context.Context, budgetID, transactionID, memo, payeeID string) error {
	body := map[string]any{
		"transaction": map[string]any{
			"memo":     memo,
			"payee_id": payeeID,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction update: %w", err)
	}

	path := fmt.Sprintf("/budgets/%s/transactions/%s", budgetID, transactionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.do(req, nil); err != nil {
		return err
	}

	c.logger.Debug("Updated transaction", "transaction_id", transactionID, "memo_length", len(memo))
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Detail != "" {
			return fmt.Errorf("YNAB API error: %s (%s)", errResp.Error.Detail, errResp.Error.Name)
		}
		return fmt.Errorf("YNAB API returned status %d: %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
