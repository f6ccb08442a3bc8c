package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/amazon"
	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/ynab"
)

func promptTxn() ynab.Transaction {
	return ynab.Transaction{
		ID:     "t1",
		Amount: -29990,
		Date:   ynab.Date{Time: time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC)},
	}
}

func promptCandidates() []amazon.Charge {
	return []amazon.Charge{
		{OrderNumber: "111", Amount: 2999, Date: time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC)},
		{OrderNumber: "222", Amount: 2999, Date: time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC)},
	}
}

func TestPrompter_ResolvePick(t *testing.T) {
	out := &bytes.Buffer{}
	p := NewPrompter(strings.NewReader("2\n"), out)

	pick, err := p.Resolve(promptTxn(), promptCandidates())

	require.NoError(t, err)
	assert.Equal(t, 1, pick)
	assert.Contains(t, out.String(), "order 111")
	assert.Contains(t, out.String(), "order 222")
}

func TestPrompter_ResolveSkip(t *testing.T) {
	for _, input := range []string{"s\n", "\n", "banana\n", "9\n"} {
		p := NewPrompter(strings.NewReader(input), &bytes.Buffer{})

		pick, err := p.Resolve(promptTxn(), promptCandidates())

		require.NoError(t, err)
		assert.Equal(t, -1, pick, "input %q skips", input)
	}
}

func TestPrompter_AcceptDates(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"y\n", true},
		{"yes\n", true},
		{"n\n", false},
		{"\n", false},
	}

	for _, tt := range tests {
		p := NewPrompter(strings.NewReader(tt.input), &bytes.Buffer{})

		ok, err := p.Accept(promptTxn(), promptCandidates()[0], 7)

		require.NoError(t, err)
		assert.Equal(t, tt.expected, ok, "input %q", tt.input)
	}
}
