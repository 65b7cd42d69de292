package orders

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-books/inkwell/internal/authz"
	"github.com/inkwell-books/inkwell/internal/shared"
)

type mockRepository struct {
	nextID int64
	orders map[int64]Order
}

func newMockRepository() *mockRepository {
	return &mockRepository{nextID: 1, orders: map[int64]Order{}}
}

func (m *mockRepository) Create(_ context.Context, order Order) (Order, error) {
	order.ID = m.nextID
	order.CreatedAt = time.Now().UTC()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		order.Items[i].ID = int64(i + 1)
	}
	m.nextID++
	m.orders[order.ID] = order
	return order, nil
}

func (m *mockRepository) FindByID(_ context.Context, id int64) (Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return Order{}, shared.ErrNotFound
	}
	return order, nil
}

func (m *mockRepository) sorted(filter func(Order) bool) []Order {
	var out []Order
	for _, order := range m.orders {
		if filter(order) {
			out = append(out, order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func paginate(all []Order, limit, offset int) []Order {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

func (m *mockRepository) ListByUser(_ context.Context, userID int64, limit, offset int) ([]Order, int, error) {
	all := m.sorted(func(o Order) bool { return o.UserID == userID })
	return paginate(all, limit, offset), len(all), nil
}

func (m *mockRepository) List(_ context.Context, limit, offset int) ([]Order, int, error) {
	all := m.sorted(func(Order) bool { return true })
	return paginate(all, limit, offset), len(all), nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, id int64, from, to Status) (Order, error) {
	order, ok := m.orders[id]
	if !ok || order.Status != from {
		return Order{}, shared.ErrNotFound
	}
	order.Status = to
	order.UpdatedAt = time.Now().UTC()
	m.orders[id] = order
	return order, nil
}

type mockAudit struct {
	logs []shared.AuditLog
}

func (m *mockAudit) Record(_ context.Context, log shared.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func newTestService() (*Service, *mockRepository, *mockAudit) {
	repo := newMockRepository()
	audit := &mockAudit{}
	return NewService(repo, audit), repo, audit
}

func customer(id int64) authz.Principal {
	return authz.Principal{ID: id, Role: authz.RoleCustomer, Active: true}
}

func staff() authz.Principal {
	return authz.Principal{
		ID:          1,
		Role:        authz.RoleStaff,
		Permissions: authz.DefaultPermissionsForRole(authz.RoleStaff),
		Active:      true,
	}
}

func TestPlaceComputesTotal(t *testing.T) {
	svc, _, _ := newTestService()

	order, err := svc.Place(context.Background(), customer(4), []ItemInput{
		{Title: "The Go Programming Language", Quantity: 2, UnitPrice: 450},
		{Title: "Designing Data-Intensive Applications", Quantity: 1, UnitPrice: 550},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPlaced, order.Status)
	assert.Equal(t, int64(1450), order.Total)
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(900), order.Items[0].Subtotal())
}

func TestPlaceValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Place(ctx, customer(4), nil)
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.Place(ctx, customer(4), []ItemInput{{Title: "x", Quantity: 0, UnitPrice: 10}})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.Place(ctx, customer(4), []ItemInput{{Title: "x", Quantity: -1, UnitPrice: 10}})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.Place(ctx, customer(4), []ItemInput{{Title: "  ", Quantity: 1, UnitPrice: 10}})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.Place(ctx, customer(4), []ItemInput{{Title: "x", Quantity: 1, UnitPrice: -5}})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestTransitionMatrix(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusPlaced, StatusPaid}:       true,
		{StatusPlaced, StatusCancelled}:  true,
		{StatusPaid, StatusShipped}:      true,
		{StatusPaid, StatusCancelled}:    true,
		{StatusShipped, StatusDelivered}: true,
	}
	all := []Status{StatusPlaced, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled}
	for _, from := range all {
		for _, to := range all {
			got := CanTransition(from, to)
			want := allowed[[2]Status{from, to}]
			if got != want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	svc, _, audit := newTestService()
	ctx := context.Background()

	order, err := svc.Place(ctx, customer(4), []ItemInput{{Title: "x", Quantity: 1, UnitPrice: 100}})
	require.NoError(t, err)

	for _, next := range []string{"paid", "shipped", "delivered"} {
		order, err = svc.UpdateStatus(ctx, staff(), order.ID, next)
		require.NoError(t, err)
		assert.Equal(t, Status(next), order.Status)
	}
	require.Len(t, audit.logs, 3)
	assert.Equal(t, "order.status_changed", audit.logs[0].Action)

	// Delivered is terminal.
	_, err = svc.UpdateStatus(ctx, staff(), order.ID, "paid")
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestUpdateStatusCancelBeforeShipmentOnly(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	order, err := svc.Place(ctx, customer(4), []ItemInput{{Title: "x", Quantity: 1, UnitPrice: 100}})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, staff(), order.ID, "cancelled")
	require.NoError(t, err)

	shipped, err := svc.Place(ctx, customer(4), []ItemInput{{Title: "y", Quantity: 1, UnitPrice: 100}})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, staff(), shipped.ID, "paid")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, staff(), shipped.ID, "shipped")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, staff(), shipped.ID, "cancelled")
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestUpdateStatusUnknown(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	order, err := svc.Place(ctx, customer(4), []ItemInput{{Title: "x", Quantity: 1, UnitPrice: 100}})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, staff(), order.ID, "returned")
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.UpdateStatus(ctx, staff(), 999, "paid")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetVisibility(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	order, err := svc.Place(ctx, customer(4), []ItemInput{{Title: "x", Quantity: 1, UnitPrice: 100}})
	require.NoError(t, err)

	_, err = svc.Get(ctx, customer(4), order.ID)
	require.NoError(t, err)

	// Other customers cannot see it, and cannot tell it exists.
	_, err = svc.Get(ctx, customer(5), order.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Get(ctx, staff(), order.ID)
	require.NoError(t, err)
}

func TestListOwnPagination(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := svc.Place(ctx, customer(4), []ItemInput{{Title: "x", Quantity: 1, UnitPrice: 100}})
		require.NoError(t, err)
	}
	_, err := svc.Place(ctx, customer(5), []ItemInput{{Title: "y", Quantity: 1, UnitPrice: 100}})
	require.NoError(t, err)

	orders, pagination, err := svc.ListOwn(ctx, customer(4), 2, 10)
	require.NoError(t, err)
	assert.Len(t, orders, 10)
	assert.Equal(t, 25, pagination.Total)
	assert.Equal(t, 3, pagination.TotalPages)

	all, pagination, err := svc.ListAll(ctx, 1, 100)
	require.NoError(t, err)
	assert.Len(t, all, 26)
	assert.Equal(t, 26, pagination.Total)
}
