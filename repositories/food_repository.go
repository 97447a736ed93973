package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parampara-foods/models"
)

const foodColumns = `f.food_id, f.name, f.description, f.mrp, f.sale_price, f.category_id,
	COALESCE(c.name, ''), f.is_available, f.is_organic, f.stock_quantity, f.image_url,
	f.brand, f.unit, f.quantity, f.tags, f.view_count, f.rating, f.review_count,
	f.min_stock_level, f.created_at, f.updated_at`

const foodFrom = `FROM food_items f LEFT JOIN categories c ON c.category_id = f.category_id`

type FoodRepository struct {
	db DBTX
}

func NewFoodRepository(db DBTX) *FoodRepository {
	return &FoodRepository{db: db}
}

func (r *FoodRepository) WithTx(tx *sql.Tx) *FoodRepository {
	return &FoodRepository{db: tx}
}

func scanFood(row rowScanner) (*models.FoodItem, error) {
	var f models.FoodItem
	err := row.Scan(
		&f.ID, &f.Name, &f.Description, &f.MRP, &f.SalePrice, &f.CategoryID,
		&f.CategoryName, &f.IsAvailable, &f.IsOrganic, &f.StockQuantity, &f.ImageURL,
		&f.Brand, &f.Unit, &f.Quantity, &f.Tags, &f.ViewCount, &f.Rating, &f.ReviewCount,
		&f.MinStockLevel, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FoodRepository) queryFoods(ctx context.Context, query string, args ...interface{}) ([]models.FoodItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	foods := []models.FoodItem{}
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, fmt.Errorf("scan food item: %w", err)
		}
		foods = append(foods, *f)
	}
	return foods, rows.Err()
}

// ListAvailable returns available foods ordered by name, optionally limited to
// one category.
func (r *FoodRepository) ListAvailable(ctx context.Context, categoryID *int64) ([]models.FoodItem, error) {
	query := `SELECT ` + foodColumns + ` ` + foodFrom + ` WHERE f.is_available = TRUE`
	var args []interface{}
	if categoryID != nil {
		query += ` AND f.category_id = ?`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY f.name ASC`
	return r.queryFoods(ctx, query, args...)
}

func (r *FoodRepository) GetByID(ctx context.Context, id int64) (*models.FoodItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+foodColumns+` `+foodFrom+` WHERE f.food_id = ?`, id)
	f, err := scanFood(row)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return f, nil
}

// GetForUpdate reads a food row and holds an exclusive row lock on it until
// the surrounding transaction ends. Must be called on a tx-bound repository.
func (r *FoodRepository) GetForUpdate(ctx context.Context, id int64) (*models.FoodItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+foodColumns+` `+foodFrom+` WHERE f.food_id = ? FOR UPDATE`, id)
	f, err := scanFood(row)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return f, nil
}

func (r *FoodRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM food_items WHERE food_id = ?)`, id).Scan(&exists)
	return exists, err
}

func (r *FoodRepository) Create(ctx context.Context, f *models.FoodItem) (int64, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO food_items (name, description, mrp, sale_price, category_id, is_available,
			is_organic, stock_quantity, image_url, brand, unit, quantity, tags, rating,
			min_stock_level, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Name, f.Description, f.MRP, f.SalePrice, f.CategoryID, f.IsAvailable,
		f.IsOrganic, f.StockQuantity, f.ImageURL, f.Brand, f.Unit, f.Quantity, f.Tags, f.Rating,
		f.MinStockLevel, now, now,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update overwrites the editable fields. Counters (views, rating, reviews)
// are owned by their own operations and are left alone.
func (r *FoodRepository) Update(ctx context.Context, f *models.FoodItem) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE food_items
		SET name = ?, description = ?, mrp = ?, sale_price = ?, category_id = ?, is_available = ?,
			is_organic = ?, stock_quantity = ?, image_url = ?, brand = ?, unit = ?, quantity = ?,
			tags = ?, min_stock_level = ?, updated_at = ?
		WHERE food_id = ?`,
		f.Name, f.Description, f.MRP, f.SalePrice, f.CategoryID, f.IsAvailable,
		f.IsOrganic, f.StockQuantity, f.ImageURL, f.Brand, f.Unit, f.Quantity,
		f.Tags, f.MinStockLevel, time.Now().UTC(), f.ID,
	)
	return err
}

func (r *FoodRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM food_items WHERE food_id = ?`, id)
	if err != nil {
		return inUseIfReferenced(err)
	}
	return affectedOne(res)
}

func (r *FoodRepository) IncrementViewCount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE food_items SET view_count = view_count + 1 WHERE food_id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// DecrementStock removes quantity from stock only if enough remains. It
// returns false when the guard rejected the update.
func (r *FoodRepository) DecrementStock(ctx context.Context, id int64, quantity int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE food_items
		SET stock_quantity = stock_quantity - ?, updated_at = ?
		WHERE food_id = ? AND stock_quantity >= ?`,
		quantity, time.Now().UTC(), id, quantity,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *FoodRepository) IncrementStock(ctx context.Context, id int64, quantity int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE food_items SET stock_quantity = stock_quantity + ?, updated_at = ? WHERE food_id = ?`,
		quantity, time.Now().UTC(), id,
	)
	return err
}

// Search matches q as a substring of name, description, brand, tags or
// category name.
func (r *FoodRepository) Search(ctx context.Context, q string, limit int) ([]models.FoodItem, error) {
	pattern := likePattern(q)
	query := `SELECT ` + foodColumns + ` ` + foodFrom + `
		WHERE f.is_available = TRUE AND (
			f.name LIKE ? OR f.description LIKE ? OR f.brand LIKE ? OR f.tags LIKE ? OR c.name LIKE ?)
		ORDER BY f.name ASC
		LIMIT ?`
	return r.queryFoods(ctx, query, pattern, pattern, pattern, pattern, pattern, limit)
}

func (r *FoodRepository) NameSuggestions(ctx context.Context, q string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT name FROM food_items
		WHERE is_available = TRUE AND name LIKE ?
		ORDER BY name ASC
		LIMIT ?`, likePattern(q), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// RefreshRating recomputes the rating and review count of a food from its
// feedback rows. Foods without feedback keep the default rating of 5.
func (r *FoodRepository) RefreshRating(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE food_items
		SET rating = COALESCE((SELECT ROUND(AVG(rating), 2) FROM feedback WHERE food_id = ?), 5.00),
			review_count = (SELECT COUNT(*) FROM feedback WHERE food_id = ?)
		WHERE food_id = ?`, id, id, id)
	return err
}
