package subscription

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-books/inkwell/internal/authz"
	"github.com/inkwell-books/inkwell/internal/shared"
)

// RepositoryPort abstracts persistence for the lifecycle manager.
type RepositoryPort interface {
	CreateExclusive(ctx context.Context, sub Subscription) (Subscription, error)
	FindByID(ctx context.Context, id int64) (Subscription, error)
	FindCurrentByUser(ctx context.Context, userID int64) (Subscription, error)
	ListByUser(ctx context.Context, userID int64) ([]Subscription, error)
	Cancel(ctx context.Context, userID int64) (Subscription, error)
	SetAutoRenew(ctx context.Context, userID int64, autoRenew bool) (Subscription, error)
	Extend(ctx context.Context, id int64, days int) (Subscription, error)
	SetStatus(ctx context.Context, id int64, status Status) (Subscription, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// Service governs subscription state transitions.
type Service struct {
	repo  RepositoryPort
	audit shared.AuditPort
	now   func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit shared.AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: func() time.Time { return time.Now().UTC() }}
}

// Plans returns the fixed plan table.
func (s *Service) Plans() []Plan {
	return Plans()
}

// Subscribe creates an active subscription for the principal. The plan must
// exist; a still-effective subscription is a Conflict. The uniqueness check
// and insert are serialized per user by the repository, so concurrent calls
// cannot both pass the check. Payment is settled upstream; an absent payment
// reference gets an opaque one.
func (s *Service) Subscribe(ctx context.Context, principal authz.Principal, planID, paymentID string, autoRenew bool) (Subscription, error) {
	plan, err := PlanByID(planID)
	if err != nil {
		return Subscription{}, err
	}
	if paymentID == "" {
		paymentID = uuid.NewString()
	}
	now := s.now()
	sub := Subscription{
		UserID:    principal.ID,
		PlanID:    plan.ID,
		Status:    StatusActive,
		StartDate: now,
		EndDate:   now.Add(plan.Duration()),
		AutoRenew: autoRenew,
		PaymentID: paymentID,
	}
	return s.repo.CreateExclusive(ctx, sub)
}

// Cancel moves the principal's active subscription to cancelled and forces
// auto-renew off. With no active row the call fails NotFound, including a
// repeat cancel.
func (s *Service) Cancel(ctx context.Context, principal authz.Principal) (Subscription, error) {
	sub, err := s.repo.Cancel(ctx, principal.ID)
	if err != nil {
		return Subscription{}, fmt.Errorf("subscription: no active subscription to cancel: %w", err)
	}
	return sub, nil
}

// SetAutoRenew flips the auto-renew flag on the active subscription without
// any state transition.
func (s *Service) SetAutoRenew(ctx context.Context, principal authz.Principal, autoRenew bool) (Subscription, error) {
	sub, err := s.repo.SetAutoRenew(ctx, principal.ID, autoRenew)
	if err != nil {
		return Subscription{}, fmt.Errorf("subscription: no active subscription: %w", err)
	}
	return sub, nil
}

// Current returns the principal's latest subscription and whether it grants
// access right now.
func (s *Service) Current(ctx context.Context, principal authz.Principal) (Subscription, bool, error) {
	sub, err := s.repo.FindCurrentByUser(ctx, principal.ID)
	if err != nil {
		return Subscription{}, false, err
	}
	return sub, sub.EffectivelyActiveAt(s.now()), nil
}

// History returns the principal's full subscription history.
func (s *Service) History(ctx context.Context, principal authz.Principal) ([]Subscription, error) {
	return s.repo.ListByUser(ctx, principal.ID)
}

// Extend pushes a subscription's end date forward by days. Administrative
// operation; it deliberately ignores the stored status, so it can make an
// expired-looking row effective again without touching the status field.
func (s *Service) Extend(ctx context.Context, actor authz.Principal, id int64, days int) (Subscription, error) {
	if days <= 0 {
		return Subscription{}, fmt.Errorf("subscription: extension days must be positive: %w", shared.ErrInvalidArgument)
	}
	sub, err := s.repo.Extend(ctx, id, days)
	if err != nil {
		return Subscription{}, err
	}
	s.recordAudit(ctx, actor, "subscription.extended", id, map[string]any{"days": days})
	return sub, nil
}

// SetStatus is the administrative escape hatch: any state to any state,
// bypassing the guarded transitions. Unknown states are rejected.
func (s *Service) SetStatus(ctx context.Context, actor authz.Principal, id int64, rawStatus string) (Subscription, error) {
	status, err := ParseStatus(rawStatus)
	if err != nil {
		return Subscription{}, err
	}
	sub, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return Subscription{}, err
	}
	s.recordAudit(ctx, actor, "subscription.status_overridden", id, map[string]any{"status": rawStatus})
	return sub, nil
}

// Get fetches a subscription by id (administrative view).
func (s *Service) Get(ctx context.Context, id int64) (Subscription, error) {
	return s.repo.FindByID(ctx, id)
}

// ExpireStale normalizes rows that still read active past their end date.
// Run from the background sweep; access checks never depend on it because
// they go through the effectively-active predicate.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	return s.repo.ExpireStale(ctx, s.now())
}

func (s *Service) recordAudit(ctx context.Context, actor authz.Principal, action string, subID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "subscription",
		EntityID: strconv.FormatInt(subID, 10),
		Meta:     meta,
	})
}
