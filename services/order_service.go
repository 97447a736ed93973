package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"parampara-foods/apperror"
	"parampara-foods/models"
	"parampara-foods/repositories"
	"parampara-foods/utils"
)

const PendingTimeoutNote = "Automatically cancelled after pending timeout"

type OrderOptions struct {
	// RestockOnCancel returns item quantities to stock when an order is
	// cancelled. Off by default.
	RestockOnCancel bool
	// PendingTimeout, when positive, schedules an automatic cancellation of
	// orders still Pending after this long.
	PendingTimeout time.Duration
}

type OrderService struct {
	db     *sql.DB
	foods  *repositories.FoodRepository
	orders *repositories.OrderRepository
	users  *repositories.UserRepository
	events EventPublisher
	opts   OrderOptions
	now    func() time.Time

	// OnStockRejected is called for every line rejected for missing stock.
	OnStockRejected func(foodID int64)
}

func NewOrderService(db *sql.DB, events EventPublisher, opts OrderOptions) *OrderService {
	return &OrderService{
		db:     db,
		foods:  repositories.NewFoodRepository(db),
		orders: repositories.NewOrderRepository(db),
		users:  repositories.NewUserRepository(db),
		events: events,
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type orderLine struct {
	foodID   int64
	quantity int
}

// mergeLines validates the requested lines and folds duplicate food ids into
// one line, keeping first-seen order.
func mergeLines(items []models.CreateOrderItemRequest) ([]orderLine, error) {
	if len(items) == 0 {
		return nil, apperror.Validation("Order must contain at least one item")
	}

	index := make(map[int64]int, len(items))
	lines := make([]orderLine, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, apperror.Validation(fmt.Sprintf("Quantity for food item %d must be greater than zero", item.FoodID))
		}
		if i, ok := index[item.FoodID]; ok {
			lines[i].quantity += item.Quantity
			continue
		}
		index[item.FoodID] = len(lines)
		lines = append(lines, orderLine{foodID: item.FoodID, quantity: item.Quantity})
	}
	return lines, nil
}

// CreateOrder places an order for userID. Every food row is locked in
// ascending id order, checked, priced and decremented inside one
// transaction, so a failure leaves stock untouched.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, req models.CreateOrderRequest) (*models.Order, error) {
	address := strings.TrimSpace(req.DeliveryAddress)
	if address == "" {
		return nil, apperror.Validation("Delivery address is required")
	}
	lines, err := mergeLines(req.Items)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.Unauthorized("User not found")
	}
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to load user")
	}

	lockOrder := make([]orderLine, len(lines))
	copy(lockOrder, lines)
	sort.Slice(lockOrder, func(i, j int) bool { return lockOrder[i].foodID < lockOrder[j].foodID })

	now := s.now()
	order := &models.Order{
		UserID:          user.ID,
		UserName:        user.DisplayName(),
		Status:          models.OrderStatusPending,
		DeliveryAddress: address,
		CustomerNotes:   req.CustomerNotes,
		OrderDate:       now,
	}

	err = repositories.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		foods := s.foods.WithTx(tx)
		orders := s.orders.WithTx(tx)

		locked, err := s.reserveStock(ctx, foods, lockOrder)
		if err != nil {
			return err
		}

		order.Items = make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			food := locked[line.foodID]
			order.Items = append(order.Items, models.OrderItem{
				FoodID:    line.foodID,
				FoodName:  food.Name,
				Quantity:  line.quantity,
				UnitPrice: food.EffectivePrice(),
			})
		}
		order.TotalAmount = models.CalculateTotal(order.Items)

		id, err := orders.Create(ctx, order)
		if err != nil {
			return apperror.Wrap(err, "Failed to create order")
		}
		order.ID = id

		for i := range order.Items {
			order.Items[i].OrderID = id
			itemID, err := orders.CreateItem(ctx, &order.Items[i])
			if err != nil {
				return apperror.Wrap(err, "Failed to add order item")
			}
			order.Items[i].ID = itemID
		}

		note := models.OrderPlacedNote
		entry := models.StatusHistoryItem{OrderID: id, Status: models.OrderStatusPending, Notes: &note, ChangedAt: now}
		historyID, err := orders.AppendHistory(ctx, &entry)
		if err != nil {
			return apperror.Wrap(err, "Failed to record order history")
		}
		entry.ID = historyID
		order.StatusHistory = []models.StatusHistoryItem{entry}
		return nil
	})
	if err != nil {
		if apperror.Is(err, apperror.KindInternal) {
			utils.Zlog.Error("create order failed", zap.String("user_id", userID), zap.Error(err))
		} else {
			utils.Zlog.Warn("order rejected", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, passThrough(err, "Failed to create order")
	}

	utils.Zlog.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.String("user_id", userID),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.Int("items", len(order.Items)),
	)

	s.publish(ctx, models.NewOrderEvent(order, models.OrderEventCreated))
	if s.opts.PendingTimeout > 0 && s.events != nil {
		event := models.NewOrderEvent(order, models.OrderEventPendingTimeout)
		if err := s.events.PublishDelayedEvent(ctx, event, s.opts.PendingTimeout); err != nil {
			utils.Zlog.Warn("failed to schedule pending timeout", zap.Int64("order_id", order.ID), zap.Error(err))
		}
	}
	return order, nil
}

// reserveStock locks the foods of lines in the given order, checks each is
// available with enough stock, and takes the quantities out with the guarded
// decrement. Callers pass lines sorted by food id.
func (s *OrderService) reserveStock(ctx context.Context, foods *repositories.FoodRepository, lines []orderLine) (map[int64]*models.FoodItem, error) {
	locked := make(map[int64]*models.FoodItem, len(lines))
	for _, line := range lines {
		food, err := foods.GetForUpdate(ctx, line.foodID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.Validation(fmt.Sprintf("Food item %d not found", line.foodID))
		}
		if err != nil {
			return nil, apperror.Wrap(err, "Failed to load food item")
		}
		if !food.IsAvailable {
			return nil, apperror.Validation(fmt.Sprintf("Food item %d is not available", line.foodID))
		}
		if food.StockQuantity < line.quantity {
			s.stockRejected(line.foodID)
			return nil, apperror.Validation(fmt.Sprintf("Insufficient stock for food item %d: available %d, requested %d",
				line.foodID, food.StockQuantity, line.quantity))
		}
		locked[line.foodID] = food
	}

	for _, line := range lines {
		ok, err := foods.DecrementStock(ctx, line.foodID, line.quantity)
		if err != nil {
			return nil, apperror.Wrap(err, "Failed to update stock")
		}
		if !ok {
			s.stockRejected(line.foodID)
			return nil, apperror.Validation(fmt.Sprintf("Insufficient stock for food item %d", line.foodID))
		}
	}
	return locked, nil
}

func (s *OrderService) stockRejected(foodID int64) {
	if s.OnStockRejected != nil {
		s.OnStockRejected(foodID)
	}
}

func (s *OrderService) publish(ctx context.Context, event models.OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		utils.Zlog.Warn("failed to publish order event",
			zap.Int64("order_id", event.OrderID), zap.String("type", event.Type), zap.Error(err))
	}
}

// UpdateOrderStatus moves an order along the transition table. Force skips
// the table but still requires a known status.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, req models.UpdateOrderStatusRequest) (*models.Order, error) {
	return s.changeStatus(ctx, orderID, req.Status, req.Notes, req.Force, nil)
}

// ExpirePendingOrder cancels orderID if, and only if, it is still Pending.
// It reports whether the order was cancelled.
func (s *OrderService) ExpirePendingOrder(ctx context.Context, orderID int64) (bool, error) {
	pending := models.OrderStatusPending
	note := PendingTimeoutNote
	_, err := s.changeStatus(ctx, orderID, models.OrderStatusCancelled, &note, false, &pending)
	if errors.Is(err, errStatusMoved) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

var errStatusMoved = errors.New("order status changed since the event was scheduled")

func (s *OrderService) changeStatus(ctx context.Context, orderID int64, next models.OrderStatus,
	notes *string, force bool, expect *models.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, apperror.Validation(fmt.Sprintf("Invalid order status %q", next))
	}

	var previous models.OrderStatus
	err := repositories.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		orders := s.orders.WithTx(tx)

		current, err := orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "Order not found")
		}
		previous = current.Status

		if expect != nil && current.Status != *expect {
			return errStatusMoved
		}
		if !force {
			if current.Status == next {
				return apperror.Validation(fmt.Sprintf("Order is already %s", next))
			}
			if !current.Status.CanTransitionTo(next) {
				return apperror.Validation(fmt.Sprintf("Cannot change order status from %s to %s", current.Status, next))
			}
		}

		// Stock was returned on cancel; reviving the order takes it out again.
		if s.opts.RestockOnCancel && current.Status == models.OrderStatusCancelled && next != models.OrderStatusCancelled {
			if err := s.rereserve(ctx, tx, orderID); err != nil {
				return err
			}
		}

		now := s.now()
		var deliveredAt *time.Time
		if next == models.OrderStatusDelivered {
			deliveredAt = &now
		}
		if err := orders.UpdateStatus(ctx, orderID, next, deliveredAt); err != nil {
			return apperror.Wrap(err, "Failed to update order status")
		}
		if _, err := orders.AppendHistory(ctx, &models.StatusHistoryItem{
			OrderID: orderID, Status: next, Notes: notes, ChangedAt: now,
		}); err != nil {
			return apperror.Wrap(err, "Failed to record order history")
		}

		if next == models.OrderStatusCancelled && current.Status != models.OrderStatusCancelled && s.opts.RestockOnCancel {
			return s.restock(ctx, tx, orderID)
		}
		return nil
	})
	if errors.Is(err, errStatusMoved) {
		return nil, err
	}
	if err != nil {
		if apperror.Is(err, apperror.KindInternal) {
			utils.Zlog.Error("update order status failed", zap.Int64("order_id", orderID), zap.Error(err))
		}
		return nil, passThrough(err, "Failed to update order status")
	}

	utils.Zlog.Info("order status updated",
		zap.Int64("order_id", orderID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
		zap.Bool("forced", force),
	)

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, models.NewOrderEvent(order, models.OrderEventStatusUpdated))
	return order, nil
}

func (s *OrderService) restock(ctx context.Context, tx *sql.Tx, orderID int64) error {
	grouped, err := s.orders.WithTx(tx).ListItems(ctx, []int64{orderID})
	if err != nil {
		return apperror.Wrap(err, "Failed to load order items")
	}
	foods := s.foods.WithTx(tx)
	for _, item := range grouped[orderID] {
		if err := foods.IncrementStock(ctx, item.FoodID, item.Quantity); err != nil {
			return apperror.Wrap(err, "Failed to restock food item")
		}
	}
	return nil
}

// rereserve takes a revived order's quantities out of stock again.
func (s *OrderService) rereserve(ctx context.Context, tx *sql.Tx, orderID int64) error {
	grouped, err := s.orders.WithTx(tx).ListItems(ctx, []int64{orderID})
	if err != nil {
		return apperror.Wrap(err, "Failed to load order items")
	}
	items := grouped[orderID]
	lines, err := mergeLines(toItemRequests(items))
	if err != nil {
		return err
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].foodID < lines[j].foodID })

	_, err = s.reserveStock(ctx, s.foods.WithTx(tx), lines)
	return err
}

func toItemRequests(items []models.OrderItem) []models.CreateOrderItemRequest {
	reqs := make([]models.CreateOrderItemRequest, len(items))
	for i, item := range items {
		reqs[i] = models.CreateOrderItemRequest{FoodID: item.FoodID, Quantity: item.Quantity}
	}
	return reqs
}

// loadOrder reads an order with its items.
func (s *OrderService) loadOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "Order not found")
	}
	grouped, err := s.orders.ListItems(ctx, []int64{orderID})
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to load order items")
	}
	if items := grouped[orderID]; items != nil {
		order.Items = items
	}
	return order, nil
}

// ListOrders returns every order for admins and the caller's own orders
// otherwise, newest first.
func (s *OrderService) ListOrders(ctx context.Context, caller Caller) ([]models.Order, error) {
	userID := caller.UserID
	if caller.IsAdmin() {
		userID = ""
	}

	orders, err := s.orders.List(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to list orders")
	}

	ids := make([]int64, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	grouped, err := s.orders.ListItems(ctx, ids)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to load order items")
	}
	for i := range orders {
		if items := grouped[orders[i].ID]; items != nil {
			orders[i].Items = items
		}
	}
	return orders, nil
}

// GetOrder returns an order the caller may see. Other users' orders are
// reported as missing.
func (s *OrderService) GetOrder(ctx context.Context, caller Caller, orderID int64) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && order.UserID != caller.UserID {
		return nil, apperror.NotFound("Order not found")
	}
	return order, nil
}

func (s *OrderService) GetOrderHistory(ctx context.Context, caller Caller, orderID int64) ([]models.StatusHistoryItem, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "Order not found")
	}
	if !caller.IsAdmin() && order.UserID != caller.UserID {
		return nil, apperror.NotFound("Order not found")
	}

	history, err := s.orders.ListHistory(ctx, orderID)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to load order history")
	}
	return history, nil
}

// LowStockFoods returns the foods of an order whose stock is at or below
// their minimum level.
func (s *OrderService) LowStockFoods(ctx context.Context, orderID int64) ([]models.FoodItem, error) {
	grouped, err := s.orders.ListItems(ctx, []int64{orderID})
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to load order items")
	}

	low := []models.FoodItem{}
	for _, item := range grouped[orderID] {
		food, err := s.foods.GetByID(ctx, item.FoodID)
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, apperror.Wrap(err, "Failed to load food")
		}
		if food.IsLowStock() {
			low = append(low, *food)
		}
	}
	return low, nil
}
