package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusTicketed  OrderStatus = "ticketed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

type Order struct {
	ID           int64
	Number       string
	UserID       int64
	TotalCents   int64
	Status       OrderStatus
	ContactName  string
	ContactPhone string
	ContactEmail string
	ExpiresAt    *time.Time
	PaidAt       *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
