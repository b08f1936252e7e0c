package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
)

// SQLite keeps timestamps as fixed-width UTC text so they sort
// chronologically and need no driver-side conversion.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteUserRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db, now: utcNow}
}

func (r *SQLiteUserRepository) Get(ctx context.Context, id int64) (model.User, error) {
	u, err := scanSQLiteUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *SQLiteUserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanSQLiteUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *SQLiteUserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *SQLiteUserRepository) Insert(ctx context.Context, u model.User) (model.User, error) {
	now := r.now().Format(sqliteTimeLayout)
	created, err := scanSQLiteUser(r.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING `+userColumns,
		u.Name, u.Email, u.PasswordHash, now, now))
	if isUniqueViolation(err) {
		return model.User{}, model.ErrEmailTaken
	}
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (r *SQLiteUserRepository) Update(ctx context.Context, id int64, patch model.UserPatch) (model.User, error) {
	updated, err := scanSQLiteUser(r.db.QueryRowContext(ctx,
		`UPDATE users
		 SET name = COALESCE(?, name), email = COALESCE(?, email), updated_at = ?
		 WHERE id = ?
		 RETURNING `+userColumns,
		patch.Name, patch.Email, r.now().Format(sqliteTimeLayout), id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if isUniqueViolation(err) {
		return model.User{}, model.ErrEmailTaken
	}
	if err != nil {
		return model.User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

func (r *SQLiteUserRepository) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	return res.RowsAffected()
}

type SQLiteOrderRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteOrderRepository(db *sql.DB) *SQLiteOrderRepository {
	return &SQLiteOrderRepository{db: db, now: utcNow}
}

func (r *SQLiteOrderRepository) Get(ctx context.Context, id int64) (model.Order, error) {
	o, err := scanSQLiteOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, model.ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("find order by id: %w", err)
	}
	return o, nil
}

func (r *SQLiteOrderRepository) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanSQLiteOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *SQLiteOrderRepository) Insert(ctx context.Context, o model.Order) (model.Order, error) {
	now := r.now().Format(sqliteTimeLayout)
	created, err := scanSQLiteOrder(r.db.QueryRowContext(ctx,
		`INSERT INTO orders (product, amount, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING `+orderColumns,
		o.Product, o.Amount, o.UserID, now, now))
	if isForeignKeyViolation(err) {
		return model.Order{}, model.ErrUnknownUser
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("create order: %w", err)
	}
	return created, nil
}

func (r *SQLiteOrderRepository) Update(ctx context.Context, id int64, patch model.OrderPatch) (model.Order, error) {
	updated, err := scanSQLiteOrder(r.db.QueryRowContext(ctx,
		`UPDATE orders
		 SET product = COALESCE(?, product), amount = COALESCE(?, amount), updated_at = ?
		 WHERE id = ?
		 RETURNING `+orderColumns,
		patch.Product, patch.Amount, r.now().Format(sqliteTimeLayout), id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, model.ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("update order: %w", err)
	}
	return updated, nil
}

func (r *SQLiteOrderRepository) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete order: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteUser(row rowScanner) (model.User, error) {
	var (
		u                    model.User
		createdAt, updatedAt string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &createdAt, &updatedAt); err != nil {
		return model.User{}, err
	}
	var err error
	if u.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return model.User{}, fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = time.Parse(sqliteTimeLayout, updatedAt); err != nil {
		return model.User{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return u, nil
}

func scanSQLiteOrder(row rowScanner) (model.Order, error) {
	var (
		o                    model.Order
		createdAt, updatedAt string
	)
	if err := row.Scan(&o.ID, &o.Product, &o.Amount, &o.UserID, &createdAt, &updatedAt); err != nil {
		return model.Order{}, err
	}
	var err error
	if o.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return model.Order{}, fmt.Errorf("parse created_at: %w", err)
	}
	if o.UpdatedAt, err = time.Parse(sqliteTimeLayout, updatedAt); err != nil {
		return model.Order{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return o, nil
}

func isUniqueViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY constraint failed")
}

// isConstraint matches the extended result code, falling back to the
// primary code plus message when extended codes are not reported.
func isConstraint(err error, extended int, marker string) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.Code() == extended {
		return true
	}
	return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), marker)
}

func utcNow() time.Time {
	return time.Now().UTC()
}
