package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
)

// MemoryDB is a process-local users/orders store with the same semantics as
// the SQL schema: unique emails, order ownership by an existing user, and
// cascading deletes. It backs tests and STORE_DRIVER=memory.
type MemoryDB struct {
	mu          sync.RWMutex
	users       map[int64]model.User
	orders      map[int64]model.Order
	nextUserID  int64
	nextOrderID int64
	now         func() time.Time
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:  map[int64]model.User{},
		orders: map[int64]model.Order{},
		now:    utcNow,
	}
}

func (db *MemoryDB) Users() *MemoryUserRepository {
	return &MemoryUserRepository{db: db}
}

func (db *MemoryDB) Orders() *MemoryOrderRepository {
	return &MemoryOrderRepository{db: db}
}

type MemoryUserRepository struct {
	db *MemoryDB
}

func (r *MemoryUserRepository) Get(_ context.Context, id int64) (model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if u, ok := r.db.userByEmailLocked(email); ok {
		return u, nil
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *MemoryUserRepository) List(_ context.Context) ([]model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	users := make([]model.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *MemoryUserRepository) Insert(_ context.Context, u model.User) (model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, taken := r.db.userByEmailLocked(u.Email); taken {
		return model.User{}, model.ErrEmailTaken
	}

	r.db.nextUserID++
	now := r.db.now()
	u.ID = r.db.nextUserID
	u.CreatedAt = now
	u.UpdatedAt = now
	r.db.users[u.ID] = u
	return u, nil
}

func (r *MemoryUserRepository) Update(_ context.Context, id int64, patch model.UserPatch) (model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}

	if patch.Email != nil {
		if other, taken := r.db.userByEmailLocked(*patch.Email); taken && other.ID != id {
			return model.User{}, model.ErrEmailTaken
		}
		u.Email = *patch.Email
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}

	u.UpdatedAt = r.db.now()
	r.db.users[id] = u
	return u, nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id int64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[id]; !ok {
		return 0, nil
	}

	delete(r.db.users, id)
	for orderID, o := range r.db.orders {
		if o.UserID == id {
			delete(r.db.orders, orderID)
		}
	}
	return 1, nil
}

func (db *MemoryDB) userByEmailLocked(email string) (model.User, bool) {
	for _, u := range db.users {
		if u.Email == email {
			return u, true
		}
	}
	return model.User{}, false
}

type MemoryOrderRepository struct {
	db *MemoryDB
}

func (r *MemoryOrderRepository) Get(_ context.Context, id int64) (model.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	o, ok := r.db.orders[id]
	if !ok {
		return model.Order{}, model.ErrOrderNotFound
	}
	return o, nil
}

func (r *MemoryOrderRepository) ListByUser(_ context.Context, userID int64) ([]model.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	orders := make([]model.Order, 0)
	for _, o := range r.db.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders, nil
}

func (r *MemoryOrderRepository) Insert(_ context.Context, o model.Order) (model.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[o.UserID]; !ok {
		return model.Order{}, model.ErrUnknownUser
	}

	r.db.nextOrderID++
	now := r.db.now()
	o.ID = r.db.nextOrderID
	o.CreatedAt = now
	o.UpdatedAt = now
	r.db.orders[o.ID] = o
	return o, nil
}

func (r *MemoryOrderRepository) Update(_ context.Context, id int64, patch model.OrderPatch) (model.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	o, ok := r.db.orders[id]
	if !ok {
		return model.Order{}, model.ErrOrderNotFound
	}
	if patch.Product != nil {
		o.Product = *patch.Product
	}
	if patch.Amount != nil {
		o.Amount = *patch.Amount
	}

	o.UpdatedAt = r.db.now()
	r.db.orders[id] = o
	return o, nil
}

func (r *MemoryOrderRepository) Delete(_ context.Context, id int64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.orders[id]; !ok {
		return 0, nil
	}
	delete(r.db.orders, id)
	return 1, nil
}
