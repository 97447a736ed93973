package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parampara-foods/models"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var userCols = []string{"id", "email", "phone_number", "full_name", "address", "password_hash", "role_id",
	"role", "auth_provider", "google_id", "google_picture", "created_at", "last_login_at"}

func userRows(id, email, fullName, role string, passwordHash interface{}) *sqlmock.Rows {
	roleID := 2
	if role == models.RoleAdmin {
		roleID = 1
	}
	return sqlmock.NewRows(userCols).AddRow(id, email, nil, fullName, nil, passwordHash, roleID,
		role, models.AuthProviderLocal, nil, nil, fixedNow, nil)
}

var foodCols = []string{
	"food_id", "name", "description", "mrp", "sale_price", "category_id", "category_name",
	"is_available", "is_organic", "stock_quantity", "image_url", "brand", "unit", "quantity",
	"tags", "view_count", "rating", "review_count", "min_stock_level", "created_at", "updated_at",
}

type foodFixture struct {
	id        int64
	name      string
	mrp       string
	sale      interface{}
	stock     int
	available bool
	views     int
}

func foodRows(foods ...foodFixture) *sqlmock.Rows {
	rows := sqlmock.NewRows(foodCols)
	for _, f := range foods {
		rows.AddRow(f.id, f.name, "desc", f.mrp, f.sale, 1, "Staples", f.available, true, f.stock,
			nil, nil, "kg", "1", nil, f.views, "5.00", 0, 5, fixedNow, fixedNow)
	}
	return rows
}

var orderCols = []string{"order_id", "user_id", "user_name", "total_amount", "status",
	"delivery_address", "customer_notes", "order_date", "delivery_date"}

func orderRows(id int64, userID string, status models.OrderStatus) *sqlmock.Rows {
	return sqlmock.NewRows(orderCols).AddRow(id, userID, "Asha", "310.00", string(status),
		"12 MG Road", nil, fixedNow, nil)
}

var itemCols = []string{"order_item_id", "order_id", "food_id", "name", "quantity", "unit_price"}

type fakeEvents struct {
	mu      sync.Mutex
	events  []models.OrderEvent
	delayed []models.OrderEvent
	delays  []time.Duration
}

func (f *fakeEvents) PublishOrderEvent(_ context.Context, event models.OrderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEvents) PublishDelayedEvent(_ context.Context, event models.OrderEvent, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delayed = append(f.delayed, event)
	f.delays = append(f.delays, delay)
	return nil
}

func strp(s string) *string { return &s }
