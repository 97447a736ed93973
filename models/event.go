package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderEventCreated        = "created"
	OrderEventStatusUpdated  = "status_updated"
	OrderEventPendingTimeout = "pending_timeout"
)

type OrderEvent struct {
	OrderID  int64           `json:"order_id"`
	UserID   string          `json:"user_id"`
	Type     string          `json:"type"`
	Status   OrderStatus     `json:"status"`
	Total    decimal.Decimal `json:"total"`
	Occurred time.Time       `json:"occurred"`
}

func NewOrderEvent(order *Order, eventType string) OrderEvent {
	return OrderEvent{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Type:     eventType,
		Status:   order.Status,
		Total:    order.TotalAmount,
		Occurred: time.Now().UTC(),
	}
}
