package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSummarizer(t *testing.T, handler http.HandlerFunc) *Summarizer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := NewSummarizer(Config{APIKey: "test-key", Model: "gpt-4o-mini"})
	s.SetBaseURL(server.URL)
	return s
}

func TestSummarize_Success(t *testing.T) {
	s := newTestSummarizer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var request chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "gpt-4o-mini", request.Model)
		require.Len(t, request.Messages, 2)
		assert.Contains(t, request.Messages[1].Content, "at most 80 characters")
		assert.Contains(t, request.Messages[1].Content, "Widget")

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": " Assorted widgets \n"}},
			},
		})
	})

	summary, err := s.Summarize(context.Background(), []string{"Widget", "Gadget"}, 80)

	require.NoError(t, err)
	assert.Equal(t, "Assorted widgets", summary)
}

func TestSummarize_APIError(t *testing.T) {
	s := newTestSummarizer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"message": "Rate limit reached",
				"type":    "rate_limit_error",
				"code":    "rate_limit_exceeded",
			},
		})
	})

	_, err := s.Summarize(context.Background(), []string{"Widget"}, 80)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Rate limit reached")
}

func TestSummarize_NoChoices(t *testing.T) {
	s := newTestSummarizer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	_, err := s.Summarize(context.Background(), []string{"Widget"}, 80)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestSummarize_NoItems(t *testing.T) {
	s := NewSummarizer(Config{APIKey: "test-key"})

	_, err := s.Summarize(context.Background(), nil, 80)

	require.Error(t, err)
}
