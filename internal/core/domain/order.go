package domain

import (
	"math"
	"time"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// OrderItem snapshots a product at the time the order was placed.
type OrderItem struct {
	ProductID   string  `json:"productId" bson:"product_id"`
	ProductName string  `json:"productName" bson:"product_name"`
	Price       float64 `json:"price" bson:"price"`
}

// Order is owned by a single user and removed together with it.
type Order struct {
	ID         string      `json:"id" bson:"_id"`
	UserID     string      `json:"userId" bson:"user_id"`
	Items      []OrderItem `json:"items" bson:"items"`
	TotalPrice float64     `json:"totalPrice" bson:"total_price"`
	Status     OrderStatus `json:"status" bson:"status"`
	OrderDate  time.Time   `json:"orderDate" bson:"order_date"`
}

// TotalOf sums item prices rounded to cents.
func TotalOf(items []OrderItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Price
	}
	return math.Round(sum*100) / 100
}
