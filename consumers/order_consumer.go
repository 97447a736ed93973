package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"parampara-foods/config"
	"parampara-foods/middlewares"
	"parampara-foods/models"
	"parampara-foods/utils"
)

// OrderHandler is the part of the order service the consumer drives.
type OrderHandler interface {
	ExpirePendingOrder(ctx context.Context, orderID int64) (bool, error)
	LowStockFoods(ctx context.Context, orderID int64) ([]models.FoodItem, error)
}

var errMalformed = errors.New("malformed order event")

type OrderConsumer struct {
	ch     *amqp.Channel
	cfg    *config.Config
	orders OrderHandler
}

func NewOrderConsumer(ch *amqp.Channel, cfg *config.Config, orders OrderHandler) *OrderConsumer {
	return &OrderConsumer{ch: ch, cfg: cfg, orders: orders}
}

// Start registers the order and dead-letter consumers. Deliveries are handled
// until ctx is cancelled or the channel closes.
func (c *OrderConsumer) Start(ctx context.Context) error {
	msgs, err := c.ch.Consume(
		c.cfg.OrderQueue,
		"parampara-foods", // consumer tag
		false,             // auto-ack
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register order consumer: %w", err)
	}

	dlqMsgs, err := c.ch.Consume(c.cfg.DeadLetterQueue, "parampara-foods-dlq", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register dead-letter consumer: %w", err)
	}

	go c.loop(ctx, msgs, c.processOrderMessage)
	go c.loop(ctx, dlqMsgs, c.processDeadLetterMessage)
	return nil
}

func (c *OrderConsumer) loop(ctx context.Context, msgs <-chan amqp.Delivery, handle func(context.Context, amqp.Delivery)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				utils.Zlog.Warn("delivery channel closed")
				return
			}
			handle(ctx, msg)
		}
	}
}

func (c *OrderConsumer) processOrderMessage(ctx context.Context, msg amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			utils.Zlog.Error("panic while handling order event", zap.Any("panic", r))
			_ = msg.Nack(false, false)
		}
	}()

	var event models.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil || event.OrderID <= 0 {
		utils.Zlog.Warn("rejecting order event", zap.ByteString("body", msg.Body), zap.Error(errMalformed))
		middlewares.RecordOrderEvent("malformed", false)
		_ = msg.Nack(false, false)
		return
	}

	log := utils.Zlog.With(zap.Int64("order_id", event.OrderID), zap.String("type", event.Type))
	if err := c.handle(ctx, event, log); err != nil {
		log.Error("order event failed", zap.Error(err))
		middlewares.RecordOrderEvent(event.Type, false)
		_ = msg.Nack(false, false)
		return
	}

	middlewares.RecordOrderEvent(event.Type, true)
	if err := msg.Ack(false); err != nil {
		log.Warn("ack failed", zap.Error(err))
	}
}

func (c *OrderConsumer) handle(ctx context.Context, event models.OrderEvent, log *zap.Logger) error {
	switch event.Type {
	case models.OrderEventCreated:
		log.Info("order created", zap.String("user_id", event.UserID), zap.String("total", event.Total.StringFixed(2)))
		low, err := c.orders.LowStockFoods(ctx, event.OrderID)
		if err != nil {
			return err
		}
		for _, food := range low {
			log.Warn("food is low on stock",
				zap.Int64("food_id", food.ID),
				zap.Int("stock_quantity", food.StockQuantity),
				zap.Int("min_stock_level", food.MinStockLevel))
		}
		middlewares.RecordLowStock(len(low))
	case models.OrderEventStatusUpdated:
		log.Info("order status updated", zap.String("status", string(event.Status)))
	case models.OrderEventPendingTimeout:
		cancelled, err := c.orders.ExpirePendingOrder(ctx, event.OrderID)
		if err != nil {
			return err
		}
		log.Info("pending timeout handled", zap.Bool("cancelled", cancelled))
	default:
		log.Warn("unknown order event type")
	}
	return nil
}

func (c *OrderConsumer) processDeadLetterMessage(_ context.Context, msg amqp.Delivery) {
	utils.Zlog.Error("dead-lettered order event",
		zap.ByteString("body", msg.Body),
		zap.String("type", msg.Type),
		zap.Any("x-death", msg.Headers["x-death"]))
	if err := msg.Ack(false); err != nil {
		utils.Zlog.Warn("ack failed", zap.Error(err))
	}
}
