package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/inkwell-books/inkwell/internal/authz"
	"github.com/inkwell-books/inkwell/internal/shared"
)

// RepositoryPort abstracts persistence for order tracking.
type RepositoryPort interface {
	Create(ctx context.Context, order Order) (Order, error)
	FindByID(ctx context.Context, id int64) (Order, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Order, int, error)
	List(ctx context.Context, limit, offset int) ([]Order, int, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status) (Order, error)
}

// ItemInput is one requested order line.
type ItemInput struct {
	Title     string
	Quantity  int
	UnitPrice int64
}

// Service tracks orders through fulfilment.
type Service struct {
	repo  RepositoryPort
	audit shared.AuditPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit shared.AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Place creates a new order in the placed state. Items are snapshots; the
// total is computed here and never recomputed from the catalog.
func (s *Service) Place(ctx context.Context, principal authz.Principal, items []ItemInput) (Order, error) {
	if len(items) == 0 {
		return Order{}, fmt.Errorf("orders: order needs at least one item: %w", shared.ErrInvalidArgument)
	}
	order := Order{UserID: principal.ID, Status: StatusPlaced}
	for _, in := range items {
		if strings.TrimSpace(in.Title) == "" {
			return Order{}, fmt.Errorf("orders: item title is required: %w", shared.ErrInvalidArgument)
		}
		if in.Quantity <= 0 {
			return Order{}, fmt.Errorf("orders: item quantity must be positive: %w", shared.ErrInvalidArgument)
		}
		if in.UnitPrice < 0 {
			return Order{}, fmt.Errorf("orders: item price must not be negative: %w", shared.ErrInvalidArgument)
		}
		item := Item{Title: strings.TrimSpace(in.Title), Quantity: in.Quantity, UnitPrice: in.UnitPrice}
		order.Items = append(order.Items, item)
		order.Total += item.Subtotal()
	}
	return s.repo.Create(ctx, order)
}

// Get returns an order visible to the principal: owners see their own,
// holders of manage_orders see any.
func (s *Service) Get(ctx context.Context, principal authz.Principal, id int64) (Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if order.UserID != principal.ID {
		if err := authz.Authorize(principal, authz.HasPermission(authz.PermManageOrders)); err != nil {
			// Hide the order's existence from other customers.
			return Order{}, shared.ErrNotFound
		}
	}
	return order, nil
}

// ListOwn returns one page of the principal's orders.
func (s *Service) ListOwn(ctx context.Context, principal authz.Principal, page, perPage int) ([]Order, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	orders, total, err := s.repo.ListByUser(ctx, principal.ID, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return orders, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// ListAll returns one page across every user.
func (s *Service) ListAll(ctx context.Context, page, perPage int) ([]Order, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	orders, total, err := s.repo.List(ctx, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return orders, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// UpdateStatus applies a guarded forward-only transition. Backward moves and
// cancellation after shipment are Conflicts; unknown targets are
// InvalidArguments. The write is conditioned on the observed status, so a
// concurrent transition surfaces as a Conflict rather than a lost update.
func (s *Service) UpdateStatus(ctx context.Context, actor authz.Principal, id int64, rawStatus string) (Order, error) {
	to, err := ParseStatus(rawStatus)
	if err != nil {
		return Order{}, err
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(current.Status, to) {
		return Order{}, fmt.Errorf("orders: cannot move order from %s to %s: %w", current.Status, to, shared.ErrConflict)
	}
	order, err := s.repo.UpdateStatus(ctx, id, current.Status, to)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Order{}, fmt.Errorf("orders: order changed concurrently: %w", shared.ErrConflict)
		}
		return Order{}, err
	}
	s.recordAudit(ctx, actor, "order.status_changed", id, map[string]any{
		"from": string(current.Status),
		"to":   string(to),
	})
	return order, nil
}

func (s *Service) recordAudit(ctx context.Context, actor authz.Principal, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "order",
		EntityID: strconv.FormatInt(orderID, 10),
		Meta:     meta,
	})
}
