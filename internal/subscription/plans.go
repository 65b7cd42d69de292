package subscription

import (
	"fmt"
	"time"

	"github.com/inkwell-books/inkwell/internal/shared"
)

// Plan is a fixed subscription tier.
type Plan struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Price        int64    `json:"price"`
	DurationDays int      `json:"duration_days"`
	Features     []string `json:"features"`
}

// Duration returns the plan term as a time.Duration.
func (p Plan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}

var plans = []Plan{
	{
		ID:           "basic",
		Name:         "Basic",
		Price:        99,
		DurationDays: 30,
		Features:     []string{"ebook_access", "bookmarks"},
	},
	{
		ID:           "standard",
		Name:         "Standard",
		Price:        299,
		DurationDays: 30,
		Features:     []string{"ebook_access", "bookmarks", "audiobooks", "offline_reading"},
	},
	{
		ID:           "premium",
		Name:         "Premium",
		Price:        499,
		DurationDays: 90,
		Features:     []string{"ebook_access", "bookmarks", "audiobooks", "offline_reading", "early_releases", "family_sharing"},
	},
}

// Plans returns the fixed plan table.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// PlanByID looks up a plan; unknown ids are an InvalidArgument.
func PlanByID(id string) (Plan, error) {
	for _, plan := range plans {
		if plan.ID == id {
			return plan, nil
		}
	}
	return Plan{}, fmt.Errorf("subscription: unknown plan %q: %w", id, shared.ErrInvalidArgument)
}
