package model

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name" validate:"omitnil,min=2,max=100"`
	Email *string `json:"email" validate:"omitnil,email"`
}

type CreateOrderRequest struct {
	Product string  `json:"product" validate:"required,min=1,max=255"`
	Amount  float64 `json:"amount" validate:"gt=0,money"`
}

type UpdateOrderRequest struct {
	Product *string  `json:"product" validate:"omitnil,min=1,max=255"`
	Amount  *float64 `json:"amount" validate:"omitnil,gt=0,money"`
}
