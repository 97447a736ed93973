package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// orderTransitions lists the statuses reachable from each non-terminal status.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusShipped, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

const OrderPlacedNote = "Order placed successfully"

type Order struct {
	ID              int64               `json:"order_id"`
	UserID          string              `json:"user_id"`
	UserName        string              `json:"user_name"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Status          OrderStatus         `json:"status"`
	DeliveryAddress string              `json:"delivery_address"`
	CustomerNotes   *string             `json:"customer_notes"`
	OrderDate       time.Time           `json:"order_date"`
	DeliveryDate    *time.Time          `json:"delivery_date"`
	Items           []OrderItem         `json:"order_items"`
	StatusHistory   []StatusHistoryItem `json:"status_history,omitempty"`
}

type OrderItem struct {
	ID        int64           `json:"order_item_id"`
	OrderID   int64           `json:"order_id"`
	FoodID    int64           `json:"food_id"`
	FoodName  string          `json:"food_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// StatusHistoryItem is one append-only entry of an order's status log.
type StatusHistoryItem struct {
	ID        int64       `json:"history_id"`
	OrderID   int64       `json:"order_id"`
	Status    OrderStatus `json:"status"`
	Notes     *string     `json:"notes"`
	ChangedAt time.Time   `json:"changed_at"`
}

// CalculateTotal sums quantity times captured unit price over items.
func CalculateTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

type CreateOrderRequest struct {
	DeliveryAddress string                   `json:"delivery_address" binding:"required"`
	CustomerNotes   *string                  `json:"customer_notes"`
	Items           []CreateOrderItemRequest `json:"order_items" binding:"required,min=1,dive"`
}

type CreateOrderItemRequest struct {
	FoodID   int64 `json:"food_id" binding:"required"`
	Quantity int   `json:"quantity" binding:"required,gt=0"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required,oneof=Pending Processing Shipped Delivered Cancelled"`
	Notes  *string     `json:"notes"`
	// Force skips the transition table. Administrative override only.
	Force bool `json:"force"`
}
