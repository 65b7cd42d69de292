package subscription

import (
	"fmt"
	"time"

	"github.com/inkwell-books/inkwell/internal/shared"
)

// Status is the stored lifecycle state of a subscription.
type Status string

// Lifecycle states. New subscriptions are created active (payment settles
// upstream); pending is reachable only through the administrative status
// override. cancelled and expired are terminal for the guarded transitions.
const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	status := Status(raw)
	switch status {
	case StatusPending, StatusActive, StatusCancelled, StatusExpired:
		return status, nil
	}
	return "", fmt.Errorf("subscription: unknown status %q: %w", raw, shared.ErrInvalidArgument)
}

// Subscription is one paid term belonging to a single user. A user
// accumulates many rows over time but at most one may be effectively active.
type Subscription struct {
	ID        int64
	UserID    int64
	PlanID    string
	Status    Status
	StartDate time.Time
	EndDate   time.Time
	AutoRenew bool
	PaymentID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectivelyActiveAt reports whether the subscription grants access at the
// given instant. The stored status alone is not sufficient: expiry is not
// swept automatically, so a row can read active long after its end date.
// Every access decision goes through this predicate, never the raw status.
func (s *Subscription) EffectivelyActiveAt(now time.Time) bool {
	return s.Status == StatusActive && s.EndDate.After(now)
}

// EffectivelyActive evaluates the predicate against the current time.
func (s *Subscription) EffectivelyActive() bool {
	return s.EffectivelyActiveAt(time.Now().UTC())
}
