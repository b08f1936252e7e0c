package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
	"github.com/jaivikTh/nest-microsrv-kit/internal/repository"
	"github.com/jaivikTh/nest-microsrv-kit/pkg/apierror"
)

// OrderService serves the order-service commands. Every lookup is scoped to
// the owning user; another user's order is reported as missing.
type OrderService struct {
	orders repository.OrderStore
}

func NewOrderService(orders repository.OrderStore) *OrderService {
	return &OrderService{orders: orders}
}

func (s *OrderService) Create(ctx context.Context, userID int64, product string, amount float64) (model.Order, error) {
	if amount <= 0 {
		return model.Order{}, apierror.BadRequest("Order amount must be greater than 0")
	}

	order, err := s.orders.Insert(ctx, model.Order{
		Product: strings.TrimSpace(product),
		Amount:  amount,
		UserID:  userID,
	})
	if err != nil {
		if errors.Is(err, model.ErrUnknownUser) {
			return model.Order{}, apierror.BadRequest("User does not exist")
		}
		return model.Order{}, internal("insert order", err)
	}

	return order, nil
}

func (s *OrderService) Get(ctx context.Context, id, userID int64) (model.Order, error) {
	return s.owned(ctx, id, userID)
}

// ListByUser returns the user's orders, newest first.
func (s *OrderService) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, internal("list orders", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

func (s *OrderService) Update(ctx context.Context, id, userID int64, patch model.OrderPatch) (model.Order, error) {
	if patch.Amount != nil && *patch.Amount <= 0 {
		return model.Order{}, apierror.BadRequest("Order amount must be greater than 0")
	}

	if _, err := s.owned(ctx, id, userID); err != nil {
		return model.Order{}, err
	}

	if patch.Product != nil {
		product := strings.TrimSpace(*patch.Product)
		patch.Product = &product
	}

	order, err := s.orders.Update(ctx, id, patch)
	if err != nil {
		return model.Order{}, orderError("update order", err)
	}
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, id, userID int64) (int64, error) {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return 0, err
	}

	n, err := s.orders.Delete(ctx, id)
	if err != nil {
		return 0, internal("delete order", err)
	}
	if n == 0 {
		return 0, apierror.NotFound("Order not found")
	}
	return n, nil
}

func (s *OrderService) owned(ctx context.Context, id, userID int64) (model.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return model.Order{}, orderError("get order", err)
	}
	if order.UserID != userID {
		return model.Order{}, apierror.NotFound("Order not found")
	}
	return order, nil
}

func orderError(op string, err error) error {
	if errors.Is(err, model.ErrOrderNotFound) {
		return apierror.NotFound("Order not found")
	}
	return internal(op, err)
}
