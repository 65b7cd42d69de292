package orders

import (
	"fmt"
	"time"

	"github.com/inkwell-books/inkwell/internal/shared"
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPlaced    Status = "placed"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	status := Status(raw)
	switch status {
	case StatusPlaced, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("orders: unknown status %q: %w", raw, shared.ErrInvalidArgument)
}

// transitions holds the forward-only fulfilment graph. Cancellation is
// allowed only before the order ships.
var transitions = map[Status][]Status{
	StatusPlaced:  {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusShipped, StatusCancelled},
	StatusShipped: {StatusDelivered},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Item is one line of an order. Title and unit price are snapshots taken at
// order time; later catalog changes never rewrite past orders.
type Item struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// Subtotal returns quantity times unit price.
func (i Item) Subtotal() int64 {
	return int64(i.Quantity) * i.UnitPrice
}

// Order tracks one purchase through fulfilment.
type Order struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Items     []Item    `json:"items"`
	Total     int64     `json:"total"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
