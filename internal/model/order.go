package model

import "time"

type Order struct {
	ID        int64     `json:"id"`
	Product   string    `json:"product"`
	Amount    float64   `json:"amount"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type OrderPatch struct {
	Product *string
	Amount  *float64
}

// DeleteResult is returned by delete endpoints.
type DeleteResult struct {
	ID      int64 `json:"id"`
	Deleted int64 `json:"deleted"`
}
