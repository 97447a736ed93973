package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"parampara-foods/config"
	"parampara-foods/models"
	"parampara-foods/utils"
)

const (
	DefaultPriority    = 5
	CancelledPriority  = 8
	LargeOrderPriority = 9
)

// largeOrderTotal is the total above which a new order is published with
// LargeOrderPriority.
var largeOrderTotal = decimal.NewFromInt(1000)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	Cfg     *config.Config

	pub            publisher
	delayedEnabled bool
}

func NewRabbitMQ(cfg *config.Config) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &RabbitMQ{
		Conn:    conn,
		Channel: ch,
		Cfg:     cfg,
		pub:     ch,
	}, nil
}

func (r *RabbitMQ) SetupQueues() error {
	dlx := r.Cfg.DeadLetterQueue + "_exchange"

	if err := r.Channel.ExchangeDeclare(dlx, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := r.Channel.QueueDeclare(
		r.Cfg.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-queue-type": "classic"},
	); err != nil {
		return err
	}
	if err := r.Channel.QueueBind(r.Cfg.DeadLetterQueue, r.Cfg.DeadLetterQueue, dlx, false, nil); err != nil {
		return err
	}

	if err := r.Channel.ExchangeDeclare(r.Cfg.OrderExchange, "fanout", true, false, false, false, nil); err != nil {
		return err
	}

	if _, err := r.Channel.QueueDeclare(
		r.Cfg.OrderQueue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-max-priority":            r.Cfg.MaxPriority,
			"x-dead-letter-exchange":    dlx,
			"x-dead-letter-routing-key": r.Cfg.DeadLetterQueue,
		},
	); err != nil {
		return err
	}
	if err := r.Channel.QueueBind(r.Cfg.OrderQueue, "", r.Cfg.OrderExchange, false, nil); err != nil {
		return err
	}

	// Needs the rabbitmq_delayed_message_exchange plugin. A failed declare
	// closes the channel, so it runs last and on a channel of its own.
	r.delayedEnabled = r.setupDelayedExchange()
	return nil
}

func (r *RabbitMQ) setupDelayedExchange() bool {
	ch, err := r.Conn.Channel()
	if err != nil {
		utils.Zlog.Warn("delayed exchange unavailable", zap.Error(err))
		return false
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		r.Cfg.DelayExchange,
		"x-delayed-message",
		true,
		false,
		false,
		false,
		amqp.Table{"x-delayed-type": "direct"},
	); err != nil {
		utils.Zlog.Warn("delayed exchange not supported, pending timeouts disabled", zap.Error(err))
		return false
	}
	if err := ch.QueueBind(r.Cfg.OrderQueue, "", r.Cfg.DelayExchange, false, nil); err != nil {
		utils.Zlog.Warn("failed to bind order queue to delayed exchange", zap.Error(err))
		return false
	}
	return true
}

// EventPriority maps an event to its queue priority: cancellations and
// large new orders jump ahead of routine updates.
func EventPriority(event models.OrderEvent) uint8 {
	switch {
	case event.Status == models.OrderStatusCancelled:
		return CancelledPriority
	case event.Type == models.OrderEventCreated && event.Total.GreaterThan(largeOrderTotal):
		return LargeOrderPriority
	}
	return DefaultPriority
}

func newPublishing(event models.OrderEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		ContentType:  "application/json",
		Type:         event.Type,
		Body:         body,
	}, nil
}

func (r *RabbitMQ) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	msg, err := newPublishing(event)
	if err != nil {
		return err
	}
	msg.Priority = EventPriority(event)

	return r.pub.PublishWithContext(ctx, r.Cfg.OrderExchange, "", false, false, msg)
}

// PublishDelayedEvent delivers event to the order queue after delay. It is
// a no-op when the broker has no delayed-message support.
func (r *RabbitMQ) PublishDelayedEvent(ctx context.Context, event models.OrderEvent, delay time.Duration) error {
	if !r.delayedEnabled {
		utils.Zlog.Debug("delayed exchange disabled, dropping delayed event",
			zap.Int64("order_id", event.OrderID), zap.String("type", event.Type))
		return nil
	}

	msg, err := newPublishing(event)
	if err != nil {
		return err
	}
	msg.Headers = amqp.Table{"x-delay": delay.Milliseconds()}

	return r.pub.PublishWithContext(ctx, r.Cfg.DelayExchange, "", false, false, msg)
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		if err := r.Channel.Close(); err != nil {
			utils.Zlog.Warn("closing rabbitmq channel", zap.Error(err))
		}
	}
	if r.Conn != nil {
		if err := r.Conn.Close(); err != nil {
			utils.Zlog.Warn("closing rabbitmq connection", zap.Error(err))
		}
	}
}
