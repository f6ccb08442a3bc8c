// Package openai summarizes item lists with the OpenAI chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Config holds OpenAI integration settings.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
}

// DefaultConfig returns the default model settings.
func DefaultConfig() Config {
	return Config{
		Model:       "gpt-4o-mini",
		Temperature: 0.2,
	}
}

// Summarizer condenses item title lists into short plain-text memo bodies.
// It implements the memo package's Summarizer interface.
type Summarizer struct {
	config     Config
	httpClient *http.Client
	baseURL    string
}

// NewSummarizer creates a summarizer with a 30 second request timeout.
func NewSummarizer(config Config) *Summarizer {
	if config.Model == "" {
		config.Model = DefaultConfig().Model
	}
	return &Summarizer{
		config:  config,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetBaseURL overrides the API endpoint, used in tests.
func (s *Summarizer) SetBaseURL(url string) {
	s.baseURL = strings.TrimSuffix(url, "/")
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const systemPrompt = "You summarize lists of purchased item names into a single short " +
	"description for a budgeting app memo field. Respond with plain text only: no " +
	"markdown, no quotes, no trailing punctuation. Stay under the character limit " +
	"given in the request."

// Summarize asks the model for a description of items within maxLength
// characters. The caller is expected to validate the returned length; the
// model is instructed but not trusted to honor the budget.
func (s *Summarizer) Summarize(ctx context.Context, items []string, maxLength int) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("no items to summarize")
	}

	prompt := fmt.Sprintf("Summarize these %d items in at most %d characters:\n%s",
		len(items), maxLength, strings.Join(items, "\n"))

	request := chatCompletionRequest{
		Model: s.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: s.config.Temperature,
	}

	response, err := s.createChatCompletion(ctx, request)
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func (s *Summarizer) createChatCompletion(ctx context.Context, request chatCompletionRequest) (*chatCompletionResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
				Code    string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
			return nil, fmt.Errorf("OpenAI API error: %s (type: %s, code: %s)",
				errorResp.Error.Message, errorResp.Error.Type, errorResp.Error.Code)
		}
		return nil, fmt.Errorf("OpenAI API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response chatCompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &response, nil
}
