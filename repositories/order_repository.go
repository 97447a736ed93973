package repositories

import (
	"context"
	"database/sql"
	"time"

	"parampara-foods/models"
)

const orderColumns = `o.order_id, o.user_id, COALESCE(NULLIF(u.full_name, ''), u.email, u.phone_number, ''),
	o.total_amount, o.status, o.delivery_address, o.customer_notes, o.order_date, o.delivery_date`

const orderFrom = `FROM orders o LEFT JOIN users u ON u.id = o.user_id`

// lockedOrderColumns reads orders alone so FOR UPDATE does not also lock the
// owner's user row. UserName is left empty.
const lockedOrderColumns = `o.order_id, o.user_id, '', o.total_amount, o.status, o.delivery_address,
	o.customer_notes, o.order_date, o.delivery_date`

type OrderRepository struct {
	db DBTX
}

func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *sql.Tx) *OrderRepository {
	return &OrderRepository{db: tx}
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.UserID, &o.UserName, &o.TotalAmount, &o.Status,
		&o.DeliveryAddress, &o.CustomerNotes, &o.OrderDate, &o.DeliveryDate)
	if err != nil {
		return nil, err
	}
	o.Items = []models.OrderItem{}
	return &o, nil
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (user_id, total_amount, status, delivery_address, customer_notes, order_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.UserID, o.TotalAmount, o.Status, o.DeliveryAddress, o.CustomerNotes, o.OrderDate)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *OrderRepository) CreateItem(ctx context.Context, item *models.OrderItem) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO order_items (order_id, food_id, quantity, unit_price) VALUES (?, ?, ?, ?)`,
		item.OrderID, item.FoodID, item.Quantity, item.UnitPrice)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *OrderRepository) AppendHistory(ctx context.Context, h *models.StatusHistoryItem) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, status, notes, changed_at) VALUES (?, ?, ?, ?)`,
		h.OrderID, h.Status, h.Notes, h.ChangedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` `+orderFrom+` WHERE o.order_id = ?`, id))
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return o, nil
}

// GetForUpdate locks the order row for the rest of the transaction.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+lockedOrderColumns+` FROM orders o WHERE o.order_id = ? FOR UPDATE`, id))
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return o, nil
}

// List returns orders newest first. An empty userID lists every order.
func (r *OrderRepository) List(ctx context.Context, userID string) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` ` + orderFrom
	var args []interface{}
	if userID != "" {
		query += ` WHERE o.user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY o.order_date DESC, o.order_id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// ListItems loads the lines of the given orders keyed by order id, in insert
// order, with the current food name.
func (r *OrderRepository) ListItems(ctx context.Context, orderIDs []int64) (map[int64][]models.OrderItem, error) {
	grouped := make(map[int64][]models.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return grouped, nil
	}

	args := make([]interface{}, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_item_id, oi.order_id, oi.food_id, COALESCE(f.name, ''), oi.quantity, oi.unit_price
		FROM order_items oi
		LEFT JOIN food_items f ON f.food_id = oi.food_id
		WHERE oi.order_id IN (`+placeholders(len(orderIDs))+`)
		ORDER BY oi.order_id ASC, oi.order_item_id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.FoodID, &item.FoodName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		grouped[item.OrderID] = append(grouped[item.OrderID], item)
	}
	return grouped, rows.Err()
}

// ListHistory returns the status log of an order oldest first.
func (r *OrderRepository) ListHistory(ctx context.Context, orderID int64) ([]models.StatusHistoryItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT history_id, order_id, status, notes, changed_at
		FROM order_status_history
		WHERE order_id = ?
		ORDER BY changed_at ASC, history_id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []models.StatusHistoryItem{}
	for rows.Next() {
		var h models.StatusHistoryItem
		if err := rows.Scan(&h.ID, &h.OrderID, &h.Status, &h.Notes, &h.ChangedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// UpdateStatus sets the status and, when deliveredAt is non-nil, the
// delivery date.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus, deliveredAt *time.Time) error {
	if deliveredAt != nil {
		_, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ?, delivery_date = ? WHERE order_id = ?`,
			status, *deliveredAt, id)
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE order_id = ?`, status, id)
	return err
}
