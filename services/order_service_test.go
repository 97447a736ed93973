package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parampara-foods/apperror"
	"parampara-foods/models"
)

func newTestOrderService(t *testing.T, opts OrderOptions) (*OrderService, sqlmock.Sqlmock, *fakeEvents) {
	db, mock := newMockDB(t)
	events := &fakeEvents{}
	svc := NewOrderService(db, events, opts)
	svc.now = func() time.Time { return fixedNow }
	return svc, mock, events
}

func expectUser(mock sqlmock.Sqlmock, id string) {
	mock.ExpectQuery(`FROM users u JOIN roles r .+ WHERE u.id = \?`).
		WithArgs(id).
		WillReturnRows(userRows(id, "asha@example.com", "Asha", models.RoleUser, nil))
}

func TestCreateOrder_MergesLinesAndLocksInIDOrder(t *testing.T) {
	svc, mock, events := newTestOrderService(t, OrderOptions{PendingTimeout: 15 * time.Minute})

	expectUser(mock, "u-1")
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM food_items f .+ FOR UPDATE`).WithArgs(int64(2)).
		WillReturnRows(foodRows(foodFixture{id: 2, name: "Basmati", mrp: "100.00", sale: "80.00", stock: 10, available: true}))
	mock.ExpectQuery(`FROM food_items f .+ FOR UPDATE`).WithArgs(int64(5)).
		WillReturnRows(foodRows(foodFixture{id: 5, name: "Ghee", mrp: "50.00", stock: 3, available: true}))
	mock.ExpectExec(`SET stock_quantity = stock_quantity - \?`).WithArgs(2, sqlmock.AnyArg(), int64(2), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET stock_quantity = stock_quantity - \?`).WithArgs(3, sqlmock.AnyArg(), int64(5), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO orders`).
		WithArgs("u-1", "310", models.OrderStatusPending, "12 MG Road", nil, fixedNow).
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectExec(`INSERT INTO order_items`).WithArgs(int64(77), int64(5), 3, "50").
		WillReturnResult(sqlmock.NewResult(1001, 1))
	mock.ExpectExec(`INSERT INTO order_items`).WithArgs(int64(77), int64(2), 2, "80").
		WillReturnResult(sqlmock.NewResult(1002, 1))
	mock.ExpectExec(`INSERT INTO order_status_history`).
		WithArgs(int64(77), models.OrderStatusPending, models.OrderPlacedNote, fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	order, err := svc.CreateOrder(context.Background(), "u-1", models.CreateOrderRequest{
		DeliveryAddress: "  12 MG Road ",
		Items: []models.CreateOrderItemRequest{
			{FoodID: 5, Quantity: 1},
			{FoodID: 2, Quantity: 2},
			{FoodID: 5, Quantity: 2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(77), order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "Asha", order.UserName)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Ghee", order.Items[0].FoodName)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(80).Equal(order.Items[1].UnitPrice))
	assert.True(t, decimal.NewFromInt(310).Equal(order.TotalAmount))
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, models.OrderPlacedNote, *order.StatusHistory[0].Notes)

	require.Len(t, events.events, 1)
	assert.Equal(t, models.OrderEventCreated, events.events[0].Type)
	require.Len(t, events.delayed, 1)
	assert.Equal(t, models.OrderEventPendingTimeout, events.delayed[0].Type)
	assert.Equal(t, 15*time.Minute, events.delays[0])
}

func TestCreateOrder_InsufficientStockRollsBack(t *testing.T) {
	svc, mock, events := newTestOrderService(t, OrderOptions{})
	var rejected []int64
	svc.OnStockRejected = func(id int64) { rejected = append(rejected, id) }

	expectUser(mock, "u-1")
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(2)).
		WillReturnRows(foodRows(foodFixture{id: 2, name: "Basmati", mrp: "100.00", stock: 1, available: true}))
	mock.ExpectRollback()

	_, err := svc.CreateOrder(context.Background(), "u-1", models.CreateOrderRequest{
		DeliveryAddress: "12 MG Road",
		Items:           []models.CreateOrderItemRequest{{FoodID: 2, Quantity: 2}},
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Contains(t, err.Error(), "Insufficient stock for food item 2")
	assert.Equal(t, []int64{2}, rejected)
	assert.Empty(t, events.events)
}

func TestCreateOrder_GuardedDecrementRejectionRollsBack(t *testing.T) {
	svc, mock, _ := newTestOrderService(t, OrderOptions{})

	expectUser(mock, "u-1")
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(2)).
		WillReturnRows(foodRows(foodFixture{id: 2, name: "Basmati", mrp: "100.00", stock: 5, available: true}))
	mock.ExpectExec(`SET stock_quantity = stock_quantity - \?`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.CreateOrder(context.Background(), "u-1", models.CreateOrderRequest{
		DeliveryAddress: "12 MG Road",
		Items:           []models.CreateOrderItemRequest{{FoodID: 2, Quantity: 2}},
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestCreateOrder_UnknownAndUnavailableFood(t *testing.T) {
	t.Run("unknown", func(t *testing.T) {
		svc, mock, _ := newTestOrderService(t, OrderOptions{})
		expectUser(mock, "u-1")
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(9)).WillReturnRows(foodRows())
		mock.ExpectRollback()

		_, err := svc.CreateOrder(context.Background(), "u-1", models.CreateOrderRequest{
			DeliveryAddress: "x",
			Items:           []models.CreateOrderItemRequest{{FoodID: 9, Quantity: 1}},
		})
		assert.True(t, apperror.Is(err, apperror.KindValidation))
		assert.Contains(t, err.Error(), "Food item 9 not found")
	})

	t.Run("unavailable", func(t *testing.T) {
		svc, mock, _ := newTestOrderService(t, OrderOptions{})
		expectUser(mock, "u-1")
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(3)).
			WillReturnRows(foodRows(foodFixture{id: 3, name: "Honey", mrp: "10", stock: 50, available: false}))
		mock.ExpectRollback()

		_, err := svc.CreateOrder(context.Background(), "u-1", models.CreateOrderRequest{
			DeliveryAddress: "x",
			Items:           []models.CreateOrderItemRequest{{FoodID: 3, Quantity: 1}},
		})
		assert.Contains(t, err.Error(), "Food item 3 is not available")
	})
}

func TestCreateOrder_InputValidation(t *testing.T) {
	cases := map[string]models.CreateOrderRequest{
		"no lines":      {DeliveryAddress: "x"},
		"zero quantity": {DeliveryAddress: "x", Items: []models.CreateOrderItemRequest{{FoodID: 1, Quantity: 0}}},
		"no address":    {DeliveryAddress: "   ", Items: []models.CreateOrderItemRequest{{FoodID: 1, Quantity: 1}}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _, _ := newTestOrderService(t, OrderOptions{})
			_, err := svc.CreateOrder(context.Background(), "u-1", req)
			assert.True(t, apperror.Is(err, apperror.KindValidation))
		})
	}
}

func TestCreateOrder_UnknownUser(t *testing.T) {
	svc, mock, _ := newTestOrderService(t, OrderOptions{})
	mock.ExpectQuery(`FROM users u`).WithArgs("ghost").WillReturnRows(sqlmock.NewRows(userCols))

	_, err := svc.CreateOrder(context.Background(), "ghost", models.CreateOrderRequest{
		DeliveryAddress: "x",
		Items:           []models.CreateOrderItemRequest{{FoodID: 1, Quantity: 1}},
	})
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
}

func TestUpdateOrderStatus_RejectsInvalidTransition(t *testing.T) {
	svc, mock, events := newTestOrderService(t, OrderOptions{})
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM orders o .+ FOR UPDATE`).WithArgs(int64(4)).
		WillReturnRows(orderRows(4, "u-1", models.OrderStatusDelivered))
	mock.ExpectRollback()

	_, err := svc.UpdateOrderStatus(context.Background(), 4, models.UpdateOrderStatusRequest{Status: models.OrderStatusPending})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Contains(t, err.Error(), "from Delivered to Pending")
	assert.Empty(t, events.events)
}

func TestUpdateOrderStatus_ForceBypassesTable(t *testing.T) {
	svc, mock, _ := newTestOrderService(t, OrderOptions{})
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(4)).
		WillReturnRows(orderRows(4, "u-1", models.OrderStatusDelivered))
	mock.ExpectExec(`UPDATE orders SET status = \? WHERE`).WithArgs(models.OrderStatusProcessing, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO order_status_history`).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM orders o`).WithArgs(int64(4)).
		WillReturnRows(orderRows(4, "u-1", models.OrderStatusProcessing))
	mock.ExpectQuery(`FROM order_items oi`).WithArgs(int64(4)).WillReturnRows(sqlmock.NewRows(itemCols))

	order, err := svc.UpdateOrderStatus(context.Background(), 4, models.UpdateOrderStatusRequest{
		Status: models.OrderStatusProcessing, Force: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
}

func TestUpdateOrderStatus_DeliveredStampsDate(t *testing.T) {
	svc, mock, events := newTestOrderService(t, OrderOptions{})
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(4)).
		WillReturnRows(orderRows(4, "u-1", models.OrderStatusShipped))
	mock.ExpectExec(`UPDATE orders SET status = \?, delivery_date = \?`).
		WithArgs(models.OrderStatusDelivered, fixedNow, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO order_status_history`).
		WithArgs(int64(4), models.OrderStatusDelivered, "Left at door", fixedNow).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM orders o`).WithArgs(int64(4)).
		WillReturnRows(orderRows(4, "u-1", models.OrderStatusDelivered))
	mock.ExpectQuery(`FROM order_items oi`).WithArgs(int64(4)).WillReturnRows(sqlmock.NewRows(itemCols))

	_, err := svc.UpdateOrderStatus(context.Background(), 4, models.UpdateOrderStatusRequest{
		Status: models.OrderStatusDelivered, Notes: strp("Left at door"),
	})
	require.NoError(t, err)
	require.Len(t, events.events, 1)
	assert.Equal(t, models.OrderEventStatusUpdated, events.events[0].Type)
	assert.Equal(t, models.OrderStatusDelivered, events.events[0].Status)
}

func TestUpdateOrderStatus_CancelRestocksWhenEnabled(t *testing.T) {
	svc, mock, _ := newTestOrderService(t, OrderOptions{RestockOnCancel: true})
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(4)).
		WillReturnRows(orderRows(4, "u-1", models.OrderStatusProcessing))
	mock.ExpectExec(`UPDATE orders SET status`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO order_status_history`).WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery(`FROM order_items oi`).WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, 4, 2, "Basmati", 2, "80.00").AddRow(2, 4, 5, "Ghee", 3, "50.00"))
	mock.ExpectExec(`SET stock_quantity = stock_quantity \+ \?`).WithArgs(2, sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET stock_quantity = stock_quantity \+ \?`).WithArgs(3, sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM orders o`).WillReturnRows(orderRows(4, "u-1", models.OrderStatusCancelled))
	mock.ExpectQuery(`FROM order_items oi`).WillReturnRows(sqlmock.NewRows(itemCols))

	_, err := svc.UpdateOrderStatus(context.Background(), 4, models.UpdateOrderStatusRequest{Status: models.OrderStatusCancelled})
	require.NoError(t, err)
}

func TestUpdateOrderStatus_ReviveCancelledTakesStockAgain(t *testing.T) {
	svc, mock, _ := newTestOrderService(t, OrderOptions{RestockOnCancel: true})
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(4)).
		WillReturnRows(orderRows(4, "u-1", models.OrderStatusCancelled))
	mock.ExpectQuery(`FROM order_items oi`).WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, 4, 5, "Ghee", 3, "50.00").AddRow(2, 4, 2, "Basmati", 2, "80.00"))
	mock.ExpectQuery(`FROM food_items f .+ FOR UPDATE`).WithArgs(int64(2)).
		WillReturnRows(foodRows(foodFixture{id: 2, name: "Basmati", mrp: "80.00", stock: 10, available: true}))
	mock.ExpectQuery(`FROM food_items f .+ FOR UPDATE`).WithArgs(int64(5)).
		WillReturnRows(foodRows(foodFixture{id: 5, name: "Ghee", mrp: "50.00", stock: 10, available: true}))
	mock.ExpectExec(`SET stock_quantity = stock_quantity - \?`).WithArgs(2, sqlmock.AnyArg(), int64(2), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET stock_quantity = stock_quantity - \?`).WithArgs(3, sqlmock.AnyArg(), int64(5), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE orders SET status = \? WHERE`).WithArgs(models.OrderStatusProcessing, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO order_status_history`).WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM orders o`).WillReturnRows(orderRows(4, "u-1", models.OrderStatusProcessing))
	mock.ExpectQuery(`FROM order_items oi`).WillReturnRows(sqlmock.NewRows(itemCols))

	order, err := svc.UpdateOrderStatus(context.Background(), 4, models.UpdateOrderStatusRequest{
		Status: models.OrderStatusProcessing, Force: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
}

func TestUpdateOrderStatus_ReviveCancelledShortOfStock(t *testing.T) {
	svc, mock, _ := newTestOrderService(t, OrderOptions{RestockOnCancel: true})
	var rejected []int64
	svc.OnStockRejected = func(foodID int64) { rejected = append(rejected, foodID) }

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(4)).
		WillReturnRows(orderRows(4, "u-1", models.OrderStatusCancelled))
	mock.ExpectQuery(`FROM order_items oi`).WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, 4, 5, "Ghee", 3, "50.00"))
	mock.ExpectQuery(`FROM food_items f .+ FOR UPDATE`).WithArgs(int64(5)).
		WillReturnRows(foodRows(foodFixture{id: 5, name: "Ghee", mrp: "50.00", stock: 1, available: true}))
	mock.ExpectRollback()

	_, err := svc.UpdateOrderStatus(context.Background(), 4, models.UpdateOrderStatusRequest{
		Status: models.OrderStatusPending, Force: true,
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Contains(t, err.Error(), "Insufficient stock for food item 5")
	assert.Equal(t, []int64{5}, rejected)
}

func TestUpdateOrderStatus_ReviveCancelledLeavesStockWhenRestockOff(t *testing.T) {
	svc, mock, _ := newTestOrderService(t, OrderOptions{})
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(4)).
		WillReturnRows(orderRows(4, "u-1", models.OrderStatusCancelled))
	mock.ExpectExec(`UPDATE orders SET status = \? WHERE`).WithArgs(models.OrderStatusPending, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO order_status_history`).WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM orders o`).WillReturnRows(orderRows(4, "u-1", models.OrderStatusPending))
	mock.ExpectQuery(`FROM order_items oi`).WillReturnRows(sqlmock.NewRows(itemCols))

	_, err := svc.UpdateOrderStatus(context.Background(), 4, models.UpdateOrderStatusRequest{
		Status: models.OrderStatusPending, Force: true,
	})
	require.NoError(t, err)
}

func TestUpdateOrderStatus_ForcedPendingToDelivered(t *testing.T) {
	svc, mock, _ := newTestOrderService(t, OrderOptions{})
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(4)).
		WillReturnRows(orderRows(4, "u-1", models.OrderStatusPending))
	mock.ExpectExec(`UPDATE orders SET status = \?, delivery_date = \?`).
		WithArgs(models.OrderStatusDelivered, fixedNow, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO order_status_history`).
		WithArgs(int64(4), models.OrderStatusDelivered, nil, fixedNow).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM orders o`).WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(4, "u-1", "Asha", "310.00", "Delivered",
			"12 MG Road", nil, fixedNow, fixedNow))
	mock.ExpectQuery(`FROM order_items oi`).WithArgs(int64(4)).WillReturnRows(sqlmock.NewRows(itemCols))

	order, err := svc.UpdateOrderStatus(context.Background(), 4, models.UpdateOrderStatusRequest{
		Status: models.OrderStatusDelivered, Force: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, order.Status)
	require.NotNil(t, order.DeliveryDate)
	assert.True(t, fixedNow.Equal(*order.DeliveryDate))

	mock.ExpectQuery(`FROM orders o`).WithArgs(int64(4)).
		WillReturnRows(orderRows(4, "u-1", models.OrderStatusDelivered))
	mock.ExpectQuery(`FROM order_status_history`).WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"history_id", "order_id", "status", "notes", "changed_at"}).
			AddRow(1, 4, "Pending", models.OrderPlacedNote, fixedNow.Add(-time.Hour)).
			AddRow(2, 4, "Delivered", nil, fixedNow))

	history, err := svc.GetOrderHistory(context.Background(), Caller{UserID: "u-1"}, 4)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.OrderStatusPending, history[0].Status)
	assert.Equal(t, models.OrderStatusDelivered, history[1].Status)
}

func TestUpdateOrderStatus_CancelKeepsStockByDefault(t *testing.T) {
	svc, mock, _ := newTestOrderService(t, OrderOptions{})
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(orderRows(4, "u-1", models.OrderStatusPending))
	mock.ExpectExec(`UPDATE orders SET status`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO order_status_history`).WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM orders o`).WillReturnRows(orderRows(4, "u-1", models.OrderStatusCancelled))
	mock.ExpectQuery(`FROM order_items oi`).WillReturnRows(sqlmock.NewRows(itemCols))

	_, err := svc.UpdateOrderStatus(context.Background(), 4, models.UpdateOrderStatusRequest{Status: models.OrderStatusCancelled})
	require.NoError(t, err)
}

func TestUpdateOrderStatus_NotFound(t *testing.T) {
	svc, mock, _ := newTestOrderService(t, OrderOptions{})
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows(orderCols))
	mock.ExpectRollback()

	_, err := svc.UpdateOrderStatus(context.Background(), 404, models.UpdateOrderStatusRequest{Status: models.OrderStatusShipped})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestExpirePendingOrder_SkipsOrdersThatMoved(t *testing.T) {
	svc, mock, _ := newTestOrderService(t, OrderOptions{})
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(4)).
		WillReturnRows(orderRows(4, "u-1", models.OrderStatusShipped))
	mock.ExpectRollback()

	cancelled, err := svc.ExpirePendingOrder(context.Background(), 4)
	require.NoError(t, err)
	assert.False(t, cancelled)
}

func TestExpirePendingOrder_CancelsPending(t *testing.T) {
	svc, mock, _ := newTestOrderService(t, OrderOptions{})
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(4)).
		WillReturnRows(orderRows(4, "u-1", models.OrderStatusPending))
	mock.ExpectExec(`UPDATE orders SET status`).WithArgs(models.OrderStatusCancelled, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO order_status_history`).
		WithArgs(int64(4), models.OrderStatusCancelled, PendingTimeoutNote, fixedNow).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM orders o`).WillReturnRows(orderRows(4, "u-1", models.OrderStatusCancelled))
	mock.ExpectQuery(`FROM order_items oi`).WillReturnRows(sqlmock.NewRows(itemCols))

	cancelled, err := svc.ExpirePendingOrder(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, cancelled)
}

func TestListOrders_ScopesByRole(t *testing.T) {
	svc, mock, _ := newTestOrderService(t, OrderOptions{})

	mock.ExpectQuery(`FROM orders o LEFT JOIN users u ON u.id = o.user_id WHERE o.user_id = \? ORDER BY`).
		WithArgs("u-1").
		WillReturnRows(orderRows(4, "u-1", models.OrderStatusPending))
	mock.ExpectQuery(`FROM order_items oi`).WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, 4, 2, "Basmati", 2, "80.00"))

	orders, err := svc.ListOrders(context.Background(), Caller{UserID: "u-1", Role: models.RoleUser})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)

	mock.ExpectQuery(`FROM orders o LEFT JOIN users u ON u.id = o.user_id ORDER BY`).
		WillReturnRows(sqlmock.NewRows(orderCols))
	orders, err = svc.ListOrders(context.Background(), Caller{UserID: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestGetOrder_HidesOtherUsersOrders(t *testing.T) {
	svc, mock, _ := newTestOrderService(t, OrderOptions{})
	mock.ExpectQuery(`FROM orders o`).WithArgs(int64(4)).WillReturnRows(orderRows(4, "u-2", models.OrderStatusPending))
	mock.ExpectQuery(`FROM order_items oi`).WillReturnRows(sqlmock.NewRows(itemCols))

	_, err := svc.GetOrder(context.Background(), Caller{UserID: "u-1", Role: models.RoleUser}, 4)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestGetOrderHistory(t *testing.T) {
	svc, mock, _ := newTestOrderService(t, OrderOptions{})
	mock.ExpectQuery(`FROM orders o`).WithArgs(int64(4)).WillReturnRows(orderRows(4, "u-1", models.OrderStatusShipped))
	mock.ExpectQuery(`FROM order_status_history`).WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"history_id", "order_id", "status", "notes", "changed_at"}).
			AddRow(1, 4, "Pending", models.OrderPlacedNote, fixedNow).
			AddRow(2, 4, "Shipped", nil, fixedNow.Add(time.Hour)))

	history, err := svc.GetOrderHistory(context.Background(), Caller{UserID: "u-1"}, 4)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.OrderStatusPending, history[0].Status)
	assert.Nil(t, history[1].Notes)
}

func TestLowStockFoods(t *testing.T) {
	svc, mock, _ := newTestOrderService(t, OrderOptions{})
	mock.ExpectQuery(`FROM order_items oi`).WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow(1, 4, 2, "Basmati", 2, "80.00").
			AddRow(2, 4, 7, "Ghee", 1, "150.00"))
	mock.ExpectQuery(`WHERE f.food_id = \?`).WithArgs(int64(2)).
		WillReturnRows(foodRows(foodFixture{id: 2, name: "Basmati", mrp: "80.00", stock: 3, available: true}))
	mock.ExpectQuery(`WHERE f.food_id = \?`).WithArgs(int64(7)).
		WillReturnRows(foodRows(foodFixture{id: 7, name: "Ghee", mrp: "150.00", stock: 40, available: true}))

	low, err := svc.LowStockFoods(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, int64(2), low[0].ID)
}
