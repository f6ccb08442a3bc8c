// Package amazon provides the Amazon order source adapter.
//
// Order history is produced by the amazon-order-scraper CLI (npm package),
// which handles login and browser scraping. This package shells out to the
// CLI, parses its JSON output into typed orders and charges, and optionally
// caches results on disk between runs.
package amazon

import (
	"fmt"
	"time"
)

// Cents is a monetary amount in US cents. Amounts are stored as integers to
// keep matching exact; refunds are negative.
type Cents int64

// Dollars renders the amount as "$12.34" (or "-$12.34").
func (c Cents) Dollars() string {
	v := int64(c)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}

// Abs returns the absolute value.
func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

// Order is a single checkout event. An order may be charged in several
// sub-transactions when shipments split.
type Order struct {
	Number       string           `json:"number"`
	Date         time.Time        `json:"date"`
	Total        Cents            `json:"total"`
	Link         string           `json:"link"`
	Items        []Item           `json:"items"`
	Transactions []SubTransaction `json:"transactions"`
}

// Item is one line item of an order. Price is nil when the scraper could not
// determine it (e.g. full details disabled).
type Item struct {
	Title    string `json:"title"`
	Price    *Cents `json:"price,omitempty"`
	Quantity int    `json:"quantity"`
	URL      string `json:"url,omitempty"`
}

// SubTransaction is one charge resulting from an order.
type SubTransaction struct {
	Amount Cents     `json:"amount"`
	Date   time.Time `json:"date"`
}

// Charge is a sub-transaction joined with its owning order. This is the unit
// the matcher works against: one charge pairs with one ledger transaction.
type Charge struct {
	OrderNumber    string
	Link           string
	Amount         Cents
	Date           time.Time
	OrderTotal     Cents
	OrderDate      time.Time
	Items          []Item
	SiblingCharges int // total charges on the owning order, including this one
}

// Partial reports whether this charge covers less than the full order total,
// i.e. the order shipped (and billed) in several pieces.
func (c Charge) Partial() bool {
	return c.Amount.Abs() < c.OrderTotal.Abs()
}

// BuildCharges flattens fetched orders into the charge list the matcher
// consumes. Orders without any sub-transaction (payment still pending) yield
// nothing.
func BuildCharges(orders []Order) []Charge {
	var charges []Charge
	for _, order := range orders {
		for _, sub := range order.Transactions {
			charges = append(charges, Charge{
				OrderNumber:    order.Number,
				Link:           order.Link,
				Amount:         sub.Amount,
				Date:           sub.Date,
				OrderTotal:     order.Total,
				OrderDate:      order.Date,
				Items:          order.Items,
				SiblingCharges: len(order.Transactions),
			})
		}
	}
	return charges
}

// FetchOptions configures how orders are fetched.
type FetchOptions struct {
	Days         int  // lookback window
	ForceRefresh bool // bypass any cache layer
	MaxOrders    int  // 0 = no limit
}

// OrderLink builds the order-details URL for an order number.
func OrderLink(orderNumber string) string {
	return "https://www.amazon.com/gp/your-account/order-details?orderID=" + orderNumber
}
