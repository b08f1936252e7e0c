package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
)

const orderColumns = `id, product, amount, user_id, created_at, updated_at`

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Get(ctx context.Context, id int64) (model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Order{}, model.ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("find order by id: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) Insert(ctx context.Context, o model.Order) (model.Order, error) {
	created, err := scanOrder(r.pool.QueryRow(ctx,
		`INSERT INTO orders (product, amount, user_id)
		 VALUES ($1, $2, $3)
		 RETURNING `+orderColumns,
		o.Product, o.Amount, o.UserID))
	if pgCode(err) == pgForeignKeyViolation {
		return model.Order{}, model.ErrUnknownUser
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("create order: %w", err)
	}
	return created, nil
}

func (r *OrderRepository) Update(ctx context.Context, id int64, patch model.OrderPatch) (model.Order, error) {
	updated, err := scanOrder(r.pool.QueryRow(ctx,
		`UPDATE orders
		 SET product = COALESCE($2, product), amount = COALESCE($3, amount), updated_at = now()
		 WHERE id = $1
		 RETURNING `+orderColumns,
		id, patch.Product, patch.Amount))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Order{}, model.ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("update order: %w", err)
	}
	return updated, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete order: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanOrder(row pgx.Row) (model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.Product, &o.Amount, &o.UserID, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
