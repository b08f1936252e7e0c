// Package command defines the gateway-to-backend command contract: the
// command names, their payloads and the backend handlers that serve them.
package command

const (
	CreateUser = "create_user"
	GetUsers   = "get_users"
	GetUser    = "get_user"
	UpdateUser = "update_user"
	DeleteUser = "delete_user"

	CreateOrder   = "create_order"
	GetOrder      = "get_order"
	GetUserOrders = "get_user_orders"
	UpdateOrder   = "update_order"
	DeleteOrder   = "delete_order"
)

type CreateUserPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UserIDPayload struct {
	ID int64 `json:"id"`
}

type UpdateUserPayload struct {
	ID    int64   `json:"id"`
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

type CreateOrderPayload struct {
	Product string  `json:"product"`
	Amount  float64 `json:"amount"`
	UserID  int64   `json:"userId"`
}

// OrderRefPayload addresses one order on behalf of its owner.
type OrderRefPayload struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"userId"`
}

type UserOrdersPayload struct {
	UserID int64 `json:"userId"`
}

type UpdateOrderPayload struct {
	ID      int64    `json:"id"`
	UserID  int64    `json:"userId"`
	Product *string  `json:"product,omitempty"`
	Amount  *float64 `json:"amount,omitempty"`
}
