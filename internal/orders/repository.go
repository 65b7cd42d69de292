package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-books/inkwell/internal/platform/db"
	"github.com/inkwell-books/inkwell/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orderColumns = `id, user_id, total, status, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	if err := row.Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, shared.ErrNotFound
		}
		return Order{}, err
	}
	return o, nil
}

// Create inserts the order and its line items in one transaction.
func (r *Repository) Create(ctx context.Context, order Order) (Order, error) {
	var created Order
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO orders (user_id, total, status, created_at, updated_at)
			 VALUES ($1, $2, $3, NOW(), NOW())
			 RETURNING `+orderColumns,
			order.UserID, order.Total, string(order.Status))
		var err error
		created, err = scanOrder(row)
		if err != nil {
			return err
		}
		for _, item := range order.Items {
			var itemID int64
			err := tx.QueryRow(ctx,
				`INSERT INTO order_items (order_id, title, quantity, unit_price)
				 VALUES ($1, $2, $3, $4)
				 RETURNING id`,
				created.ID, item.Title, item.Quantity, item.UnitPrice).Scan(&itemID)
			if err != nil {
				return err
			}
			item.ID = itemID
			created.Items = append(created.Items, item)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return created, nil
}

// FindByID fetches an order with its items.
func (r *Repository) FindByID(ctx context.Context, id int64) (Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}
	if err := r.loadItems(ctx, &order); err != nil {
		return Order{}, err
	}
	return order, nil
}

func (r *Repository) loadItems(ctx context.Context, order *Order) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, quantity, unit_price FROM order_items WHERE order_id = $1 ORDER BY id`, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Title, &item.Quantity, &item.UnitPrice); err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

// ListByUser returns one page of the user's orders, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Order, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	orders, err := r.collect(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// List returns one page across all users, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Order, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	orders, err := r.collect(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *Repository) collect(ctx context.Context, rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	var out []Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateStatus moves the order to the given status only when the stored
// status matches from, which makes the guarded transition atomic.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to Status) (Order, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE orders SET status = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $2
		 RETURNING `+orderColumns, id, string(from), string(to))
	order, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}
	if err := r.loadItems(ctx, &order); err != nil {
		return Order{}, err
	}
	return order, nil
}
