// Package memo renders ledger memos from matched order charges.
//
// Rendering is pure: given the same charge and configuration the output is
// identical, and the body never exceeds the configured length limit. When a
// memo would overflow, an optional Summarizer is consulted; if it is absent
// or fails, deterministic truncation keeps as many leading items as fit and
// always preserves the order reference.
package memo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eshaffer321/ynab-amazon-sync/internal/adapters/amazon"
)

// DefaultMaxLength is the YNAB memo field limit.
const DefaultMaxLength = 500

// truncationMarker is appended when item lines are dropped.
const truncationMarker = "..."

// Summarizer produces a shortened plain-text description of an item list
// within a length budget. Implementations may call external services and
// may fail; the renderer always has a deterministic fallback.
type Summarizer interface {
	Summarize(ctx context.Context, items []string, maxLength int) (string, error)
}

// Config holds rendering options.
type Config struct {
	MaxLength              int  // 0 means DefaultMaxLength
	WithPrices             bool // include item prices when known
	UseMarkdown            bool // render item/order links as markdown
	SuppressPartialWarning bool
}

// Renderer builds memo bodies.
type Renderer struct {
	config     Config
	summarizer Summarizer
	logger     *slog.Logger
}

// NewRenderer creates a renderer. summarizer may be nil.
func NewRenderer(config Config, summarizer Summarizer, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		config:     config,
		summarizer: summarizer,
		logger:     logger,
	}
}

func (r *Renderer) maxLength() int {
	if r.config.MaxLength > 0 {
		return r.config.MaxLength
	}
	return DefaultMaxLength
}

// Render produces the memo body for a charge:
//
//	[Partial - order total $59.98] Widget ($29.99), Gadget ($4.99) | Order #111-2222222-3333333
func (r *Renderer) Render(ctx context.Context, charge amazon.Charge) string {
	prefix := ""
	if charge.Partial() && !r.config.SuppressPartialWarning {
		prefix = fmt.Sprintf("[Partial - order total %s] ", charge.OrderTotal.Abs().Dollars())
	}

	plainRef := "Order #" + charge.OrderNumber
	ref := plainRef
	if r.config.UseMarkdown && charge.Link != "" {
		ref = fmt.Sprintf("[%s](%s)", plainRef, charge.Link)
	}

	items := r.itemStrings(charge.Items, r.config.UseMarkdown)
	body := compose(prefix, strings.Join(items, ", "), ref)
	if len(body) <= r.maxLength() {
		return body
	}

	// Summaries and truncated fallbacks stay plain text: formatting only
	// spends characters the memo no longer has.
	if summary, ok := r.summarize(ctx, charge, prefix, plainRef); ok {
		return summary
	}

	return r.truncate(charge, prefix, plainRef)
}

func (r *Renderer) summarize(ctx context.Context, charge amazon.Charge, prefix, plainRef string) (string, bool) {
	if r.summarizer == nil {
		return "", false
	}

	budget := r.maxLength() - len(prefix) - len(" | ") - len(plainRef)
	if budget <= 0 {
		return "", false
	}

	titles := make([]string, 0, len(charge.Items))
	for _, item := range charge.Items {
		titles = append(titles, item.Title)
	}

	summary, err := r.summarizer.Summarize(ctx, titles, budget)
	if err != nil {
		r.logger.Warn("Summarizer failed, falling back to truncation",
			"order_number", charge.OrderNumber,
			"error", err,
		)
		return "", false
	}

	summary = strings.TrimSpace(StripMarkdown(summary))
	if summary == "" {
		return "", false
	}

	body := compose(prefix, summary, plainRef)
	if len(body) > r.maxLength() {
		r.logger.Warn("Summarizer exceeded budget, falling back to truncation",
			"order_number", charge.OrderNumber,
			"summary_length", len(summary),
		)
		return "", false
	}
	return body, true
}

// truncate keeps leading items that fit and appends the truncation marker.
// The order reference is never dropped or shortened.
func (r *Renderer) truncate(charge amazon.Charge, prefix, plainRef string) string {
	tail := " | " + plainRef
	budget := r.maxLength() - len(tail)

	items := r.itemStrings(charge.Items, false)
	var kept []string
	for _, item := range items {
		trial := append(kept[:len(kept):len(kept)], item)
		if len(prefix)+len(strings.Join(trial, ", "))+len(truncationMarker) <= budget {
			kept = trial
			continue
		}
		break
	}

	head := prefix + strings.Join(kept, ", ")
	if len(kept) < len(items) {
		head += truncationMarker
	}

	body := head + tail
	if len(body) > r.maxLength() {
		// Even the prefix alone overflows; clamp it and keep the reference.
		over := len(body) - r.maxLength()
		if over < len(head) {
			head = head[:len(head)-over]
		} else {
			head = ""
		}
		body = head + tail
	}
	return body
}

func (r *Renderer) itemStrings(items []amazon.Item, markdown bool) []string {
	rendered := make([]string, 0, len(items))
	for _, item := range items {
		title := item.Title
		if markdown && item.URL != "" {
			title = fmt.Sprintf("[%s](%s)", item.Title, item.URL)
		}
		if r.config.WithPrices && item.Price != nil {
			rendered = append(rendered, fmt.Sprintf("%s (%s)", title, item.Price.Dollars()))
			continue
		}
		rendered = append(rendered, title)
	}
	return rendered
}

func compose(prefix, items, ref string) string {
	if items == "" {
		return prefix + ref
	}
	return prefix + items + " | " + ref
}
