package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-books/inkwell/internal/platform/db"
	"github.com/inkwell-books/inkwell/internal/shared"
)

// Advisory lock class for per-user subscription serialization.
const lockClassSubscription int32 = 7

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const subscriptionColumns = `id, user_id, plan_id, status, start_date, end_date, auto_renew, payment_id, created_at, updated_at`

func scanSubscription(row pgx.Row) (Subscription, error) {
	var sub Subscription
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.Status, &sub.StartDate, &sub.EndDate, &sub.AutoRenew, &sub.PaymentID, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subscription{}, shared.ErrNotFound
		}
		return Subscription{}, err
	}
	return sub, nil
}

// CreateExclusive inserts a new subscription while holding a per-user
// advisory lock for the whole check-then-insert sequence. Two concurrent
// subscribe calls for the same user serialize here, so both can never
// observe "no active subscription". Rows whose end date has already passed
// are normalized to expired inside the same transaction; the conflict check
// itself never trusts the stored status alone.
func (r *Repository) CreateExclusive(ctx context.Context, sub Subscription) (Subscription, error) {
	var created Subscription
	err := db.WithKeyedTx(ctx, r.pool, lockClassSubscription, sub.UserID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE subscriptions SET status = 'expired', updated_at = NOW() WHERE user_id = $1 AND status = 'active' AND end_date <= $2`,
			sub.UserID, sub.StartDate); err != nil {
			return err
		}
		var existing int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM subscriptions WHERE user_id = $1 AND status = 'active' AND end_date > $2 LIMIT 1`,
			sub.UserID, sub.StartDate).Scan(&existing)
		if err == nil {
			return fmt.Errorf("subscription: user already has an active subscription: %w", shared.ErrConflict)
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		row := tx.QueryRow(ctx,
			`INSERT INTO subscriptions (user_id, plan_id, status, start_date, end_date, auto_renew, payment_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
			 RETURNING `+subscriptionColumns,
			sub.UserID, sub.PlanID, string(sub.Status), sub.StartDate, sub.EndDate, sub.AutoRenew, sub.PaymentID)
		created, err = scanSubscription(row)
		return err
	})
	if err != nil {
		return Subscription{}, err
	}
	return created, nil
}

// FindByID fetches a subscription by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (Subscription, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	return scanSubscription(row)
}

// FindCurrentByUser returns the user's most recent subscription.
func (r *Repository) FindCurrentByUser(ctx context.Context, userID int64) (Subscription, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, userID)
	return scanSubscription(row)
}

// ListByUser returns the user's full subscription history, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Subscription, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Cancel moves the user's active subscription to cancelled and clears
// auto-renew in a single statement. No active row means shared.ErrNotFound,
// which also makes a second cancel fail the same way.
func (r *Repository) Cancel(ctx context.Context, userID int64) (Subscription, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE subscriptions SET status = 'cancelled', auto_renew = FALSE, updated_at = NOW()
		 WHERE user_id = $1 AND status = 'active'
		 RETURNING `+subscriptionColumns, userID)
	return scanSubscription(row)
}

// SetAutoRenew flips the auto-renew flag on the user's active subscription.
func (r *Repository) SetAutoRenew(ctx context.Context, userID int64, autoRenew bool) (Subscription, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE subscriptions SET auto_renew = $2, updated_at = NOW()
		 WHERE user_id = $1 AND status = 'active'
		 RETURNING `+subscriptionColumns, userID, autoRenew)
	return scanSubscription(row)
}

// Extend pushes the end date forward by the given number of days without
// touching the status field.
func (r *Repository) Extend(ctx context.Context, id int64, days int) (Subscription, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE subscriptions SET end_date = end_date + make_interval(days => $2), updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+subscriptionColumns, id, days)
	return scanSubscription(row)
}

// SetStatus overwrites the stored status unconditionally.
func (r *Repository) SetStatus(ctx context.Context, id int64, status Status) (Subscription, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE subscriptions SET status = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+subscriptionColumns, id, string(status))
	return scanSubscription(row)
}

// ExpireStale flips rows that still read active past their end date to
// expired and returns how many were touched.
func (r *Repository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE subscriptions SET status = 'expired', updated_at = NOW() WHERE status = 'active' AND end_date <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
