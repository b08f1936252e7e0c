package command

import (
	"context"

	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
	"github.com/jaivikTh/nest-microsrv-kit/internal/rpc"
	"github.com/jaivikTh/nest-microsrv-kit/internal/service"
)

// RegisterUserCommands exposes svc on the user-service RPC server.
func RegisterUserCommands(s *rpc.Server, svc *service.UserService) {
	rpc.Handle(s, CreateUser, func(ctx context.Context, in CreateUserPayload) (any, error) {
		return svc.Create(ctx, in.Name, in.Email)
	})
	rpc.Handle(s, GetUsers, func(ctx context.Context, _ struct{}) (any, error) {
		return svc.List(ctx)
	})
	rpc.Handle(s, GetUser, func(ctx context.Context, in UserIDPayload) (any, error) {
		return svc.Get(ctx, in.ID)
	})
	rpc.Handle(s, UpdateUser, func(ctx context.Context, in UpdateUserPayload) (any, error) {
		return svc.Update(ctx, in.ID, model.UserPatch{Name: in.Name, Email: in.Email})
	})
	rpc.Handle(s, DeleteUser, func(ctx context.Context, in UserIDPayload) (any, error) {
		return svc.Delete(ctx, in.ID)
	})
}

// RegisterOrderCommands exposes svc on the order-service RPC server.
func RegisterOrderCommands(s *rpc.Server, svc *service.OrderService) {
	rpc.Handle(s, CreateOrder, func(ctx context.Context, in CreateOrderPayload) (any, error) {
		return svc.Create(ctx, in.UserID, in.Product, in.Amount)
	})
	rpc.Handle(s, GetOrder, func(ctx context.Context, in OrderRefPayload) (any, error) {
		return svc.Get(ctx, in.ID, in.UserID)
	})
	rpc.Handle(s, GetUserOrders, func(ctx context.Context, in UserOrdersPayload) (any, error) {
		return svc.ListByUser(ctx, in.UserID)
	})
	rpc.Handle(s, UpdateOrder, func(ctx context.Context, in UpdateOrderPayload) (any, error) {
		return svc.Update(ctx, in.ID, in.UserID, model.OrderPatch{Product: in.Product, Amount: in.Amount})
	})
	rpc.Handle(s, DeleteOrder, func(ctx context.Context, in OrderRefPayload) (any, error) {
		return svc.Delete(ctx, in.ID, in.UserID)
	})
}
