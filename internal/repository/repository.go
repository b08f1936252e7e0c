package repository

import (
	"context"

	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
)

// UserStore is the narrow store contract over the users table. Lookups of
// missing rows return model.ErrUserNotFound; Delete reports the number of
// rows removed instead.
type UserStore interface {
	Get(ctx context.Context, id int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Insert(ctx context.Context, u model.User) (model.User, error)
	Update(ctx context.Context, id int64, patch model.UserPatch) (model.User, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// OrderStore is the narrow store contract over the orders table.
type OrderStore interface {
	Get(ctx context.Context, id int64) (model.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Order, error)
	Insert(ctx context.Context, o model.Order) (model.Order, error)
	Update(ctx context.Context, id int64, patch model.OrderPatch) (model.Order, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

var (
	_ UserStore  = (*UserRepository)(nil)
	_ UserStore  = (*SQLiteUserRepository)(nil)
	_ UserStore  = (*MemoryUserRepository)(nil)
	_ OrderStore = (*OrderRepository)(nil)
	_ OrderStore = (*SQLiteOrderRepository)(nil)
	_ OrderStore = (*MemoryOrderRepository)(nil)
	_ UserStore  = (*MockUserStore)(nil)
	_ OrderStore = (*MockOrderStore)(nil)
)
