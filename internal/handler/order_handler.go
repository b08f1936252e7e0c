package handler

import (
	"net/http"

	"github.com/jaivikTh/nest-microsrv-kit/internal/gateway"
	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
)

// OrderHandler serves /orders. Every call acts on behalf of the principal.
type OrderHandler struct {
	dispatcher *gateway.Dispatcher
}

func NewOrderHandler(dispatcher *gateway.Dispatcher) *OrderHandler {
	return &OrderHandler{dispatcher: dispatcher}
}

func (h *OrderHandler) List(r *http.Request) (Result, error) {
	principal, err := principalFrom(r)
	if err != nil {
		return Result{}, err
	}

	orders, err := h.dispatcher.ListOwnOrders(r.Context(), principal)
	if err != nil {
		return Result{}, err
	}
	return OK("Orders retrieved successfully", orders), nil
}

func (h *OrderHandler) Create(r *http.Request) (Result, error) {
	principal, err := principalFrom(r)
	if err != nil {
		return Result{}, err
	}

	var payload model.CreateOrderRequest
	if err := bind(r, &payload); err != nil {
		return Result{}, err
	}

	order, err := h.dispatcher.CreateOrder(r.Context(), principal, payload)
	if err != nil {
		return Result{}, err
	}
	return Created("Order created successfully", order), nil
}

func (h *OrderHandler) Get(r *http.Request) (Result, error) {
	principal, id, err := principalAndID(r)
	if err != nil {
		return Result{}, err
	}

	order, err := h.dispatcher.GetOrder(r.Context(), principal, id)
	if err != nil {
		return Result{}, err
	}
	return OK("Order retrieved successfully", order), nil
}

func (h *OrderHandler) Update(r *http.Request) (Result, error) {
	principal, id, err := principalAndID(r)
	if err != nil {
		return Result{}, err
	}

	var payload model.UpdateOrderRequest
	if err := bind(r, &payload); err != nil {
		return Result{}, err
	}

	order, err := h.dispatcher.UpdateOrder(r.Context(), principal, id, payload)
	if err != nil {
		return Result{}, err
	}
	return OK("Order updated successfully", order), nil
}

func (h *OrderHandler) Delete(r *http.Request) (Result, error) {
	principal, id, err := principalAndID(r)
	if err != nil {
		return Result{}, err
	}

	res, err := h.dispatcher.DeleteOrder(r.Context(), principal, id)
	if err != nil {
		return Result{}, err
	}
	return OK("Order deleted successfully", res), nil
}

func (h *OrderHandler) ListByUser(r *http.Request) (Result, error) {
	principal, err := principalFrom(r)
	if err != nil {
		return Result{}, err
	}

	userID, err := pathID(r, "userId")
	if err != nil {
		return Result{}, err
	}

	orders, err := h.dispatcher.OrdersForUser(r.Context(), principal, userID)
	if err != nil {
		return Result{}, err
	}
	return OK("User orders retrieved successfully", orders), nil
}

func principalAndID(r *http.Request) (model.Principal, int64, error) {
	principal, err := principalFrom(r)
	if err != nil {
		return model.Principal{}, 0, err
	}

	id, err := pathID(r, "id")
	if err != nil {
		return model.Principal{}, 0, err
	}
	return principal, id, nil
}
