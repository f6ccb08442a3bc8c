package amazon

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// scraperOutput mirrors the JSON emitted by amazon-order-scraper.
type scraperOutput struct {
	Orders []scraperOrder `json:"orders"`
}

type scraperOrder struct {
	OrderID      string               `json:"orderId"`
	OrderDate    string               `json:"orderDate"` // ISO 8601: "2025-12-13"
	Total        string               `json:"total"`     // "$116.20"
	Link         string               `json:"link"`
	Items        []scraperItem        `json:"items"`
	Transactions []scraperTransaction `json:"transactions"`
}

type scraperItem struct {
	Name     string `json:"name"`
	Price    string `json:"price"` // "$14.99", may be empty
	Quantity int    `json:"quantity"`
	URL      string `json:"url"`
}

type scraperTransaction struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
	Type   string `json:"type"` // "charge" or "refund"
}

// ParseScraperOutput decodes the scraper CLI's JSON into orders. Individual
// malformed orders are skipped with a warning rather than failing the whole
// fetch.
func ParseScraperOutput(r io.Reader, logger *slog.Logger) ([]Order, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var out scraperOutput
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode scraper output: %w", err)
	}

	orders := make([]Order, 0, len(out.Orders))
	for _, so := range out.Orders {
		order, err := convertOrder(so)
		if err != nil {
			logger.Warn("Skipping malformed order", "order_number", so.OrderID, "error", err)
			continue
		}
		orders = append(orders, order)
	}

	return orders, nil
}

func convertOrder(so scraperOrder) (Order, error) {
	if so.OrderID == "" {
		return Order{}, fmt.Errorf("missing order id")
	}

	date, err := parseDate(so.OrderDate)
	if err != nil {
		return Order{}, fmt.Errorf("failed to parse order date %q: %w", so.OrderDate, err)
	}

	total, err := ParseAmount(so.Total)
	if err != nil {
		return Order{}, fmt.Errorf("failed to parse total %q: %w", so.Total, err)
	}

	link := so.Link
	if link == "" {
		link = OrderLink(so.OrderID)
	}

	order := Order{
		Number: so.OrderID,
		Date:   date,
		Total:  total,
		Link:   link,
	}

	for _, si := range so.Items {
		item := Item{
			Title:    si.Name,
			Quantity: si.Quantity,
			URL:      si.URL,
		}
		if si.Price != "" {
			price, err := ParseAmount(si.Price)
			if err != nil {
				return Order{}, fmt.Errorf("failed to parse item price %q: %w", si.Price, err)
			}
			item.Price = &price
		}
		order.Items = append(order.Items, item)
	}

	for _, st := range so.Transactions {
		txDate, err := parseDate(st.Date)
		if err != nil {
			return Order{}, fmt.Errorf("failed to parse transaction date %q: %w", st.Date, err)
		}
		amount, err := ParseAmount(st.Amount)
		if err != nil {
			return Order{}, fmt.Errorf("failed to parse transaction amount %q: %w", st.Amount, err)
		}
		if st.Type == "refund" && amount > 0 {
			amount = -amount
		}
		order.Transactions = append(order.Transactions, SubTransaction{
			Amount: amount,
			Date:   txDate,
		})
	}

	return order, nil
}

// ParseAmount converts a display amount like "$1,116.20" or "-$5.00" to
// cents without going through floating point.
func ParseAmount(s string) (Cents, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	negative := false
	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = cleaned[1:]
	}
	cleaned = strings.TrimPrefix(cleaned, "$")
	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = cleaned[1:]
	}

	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}

	dollarPart := cleaned
	centPart := "0"
	if idx := strings.Index(cleaned, "."); idx >= 0 {
		dollarPart = cleaned[:idx]
		centPart = cleaned[idx+1:]
		if len(centPart) != 2 {
			return 0, fmt.Errorf("expected two decimal places in %q", s)
		}
		if dollarPart == "" {
			dollarPart = "0"
		}
	}

	dollars, err := strconv.ParseInt(dollarPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid dollar amount %q", s)
	}
	cents, err := strconv.ParseInt(centPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cent amount %q", s)
	}

	total := dollars*100 + cents
	if negative {
		total = -total
	}
	return Cents(total), nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	// The scraper emits ISO dates; older versions used US format.
	for _, layout := range []string{"2006-01-02", "01/02/2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}
