// Package gateway turns authenticated HTTP calls into backend commands and
// enforces the ownership rules the backends do not know about.
package gateway

import (
	"context"

	"github.com/jaivikTh/nest-microsrv-kit/internal/command"
	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
	"github.com/jaivikTh/nest-microsrv-kit/pkg/apierror"
)

// Caller sends one command and waits for its reply. *rpc.Client implements it.
type Caller interface {
	Call(ctx context.Context, cmd string, payload any, out any) error
}

type Dispatcher struct {
	users  Caller
	orders Caller
}

func NewDispatcher(users, orders Caller) *Dispatcher {
	return &Dispatcher{users: users, orders: orders}
}

func (d *Dispatcher) CreateUser(ctx context.Context, req model.CreateUserRequest) (model.User, error) {
	var user model.User
	err := d.users.Call(ctx, command.CreateUser, command.CreateUserPayload{Name: req.Name, Email: req.Email}, &user)
	return user, err
}

func (d *Dispatcher) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	if err := d.users.Call(ctx, command.GetUsers, struct{}{}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (d *Dispatcher) GetUser(ctx context.Context, id int64) (model.User, error) {
	var user model.User
	err := d.users.Call(ctx, command.GetUser, command.UserIDPayload{ID: id}, &user)
	return user, err
}

func (d *Dispatcher) UpdateUser(ctx context.Context, id int64, req model.UpdateUserRequest) (model.User, error) {
	var user model.User
	err := d.users.Call(ctx, command.UpdateUser, command.UpdateUserPayload{ID: id, Name: req.Name, Email: req.Email}, &user)
	return user, err
}

func (d *Dispatcher) DeleteUser(ctx context.Context, id int64) (model.DeleteResult, error) {
	var n int64
	if err := d.users.Call(ctx, command.DeleteUser, command.UserIDPayload{ID: id}, &n); err != nil {
		return model.DeleteResult{}, err
	}
	return model.DeleteResult{ID: id, Deleted: n}, nil
}

// CreateOrder always files the order under the principal.
func (d *Dispatcher) CreateOrder(ctx context.Context, p model.Principal, req model.CreateOrderRequest) (model.Order, error) {
	var order model.Order
	payload := command.CreateOrderPayload{Product: req.Product, Amount: req.Amount, UserID: p.UserID}
	err := d.orders.Call(ctx, command.CreateOrder, payload, &order)
	return order, err
}

func (d *Dispatcher) ListOwnOrders(ctx context.Context, p model.Principal) ([]model.Order, error) {
	return d.listOrders(ctx, p.UserID)
}

// OrdersForUser refuses any user other than the principal before a
// command is sent.
func (d *Dispatcher) OrdersForUser(ctx context.Context, p model.Principal, userID int64) ([]model.Order, error) {
	if userID != p.UserID {
		return nil, apierror.Forbidden("Access denied: You can only access your own orders")
	}
	return d.listOrders(ctx, userID)
}

func (d *Dispatcher) GetOrder(ctx context.Context, p model.Principal, id int64) (model.Order, error) {
	var order model.Order
	err := d.orders.Call(ctx, command.GetOrder, command.OrderRefPayload{ID: id, UserID: p.UserID}, &order)
	return order, err
}

func (d *Dispatcher) UpdateOrder(ctx context.Context, p model.Principal, id int64, req model.UpdateOrderRequest) (model.Order, error) {
	var order model.Order
	payload := command.UpdateOrderPayload{ID: id, UserID: p.UserID, Product: req.Product, Amount: req.Amount}
	err := d.orders.Call(ctx, command.UpdateOrder, payload, &order)
	return order, err
}

func (d *Dispatcher) DeleteOrder(ctx context.Context, p model.Principal, id int64) (model.DeleteResult, error) {
	var n int64
	if err := d.orders.Call(ctx, command.DeleteOrder, command.OrderRefPayload{ID: id, UserID: p.UserID}, &n); err != nil {
		return model.DeleteResult{}, err
	}
	return model.DeleteResult{ID: id, Deleted: n}, nil
}

func (d *Dispatcher) listOrders(ctx context.Context, userID int64) ([]model.Order, error) {
	orders := []model.Order{}
	if err := d.orders.Call(ctx, command.GetUserOrders, command.UserOrdersPayload{UserID: userID}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
