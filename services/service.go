package services

import (
	"context"
	"errors"
	"time"

	"parampara-foods/apperror"
	"parampara-foods/models"
	"parampara-foods/repositories"
)

// Caller is the authenticated principal a request runs as.
type Caller struct {
	UserID string
	Role   string
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// EventPublisher publishes order events. Implemented by rabbitmq.RabbitMQ.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event models.OrderEvent) error
	PublishDelayedEvent(ctx context.Context, event models.OrderEvent, delay time.Duration) error
}

// notFoundOr maps repositories.ErrNotFound to a NotFound error with msg and
// wraps anything else as internal.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.NotFound(msg)
	}
	return apperror.Wrap(err, msg)
}

// passThrough returns app errors unchanged and wraps the rest.
func passThrough(err error, msg string) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Wrap(err, msg)
}
