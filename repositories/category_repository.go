package repositories

import (
	"context"
	"database/sql"
	"time"

	"parampara-foods/models"
)

type CategoryRepository struct {
	db DBTX
}

func NewCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) WithTx(tx *sql.Tx) *CategoryRepository {
	return &CategoryRepository{db: tx}
}

func scanCategory(row rowScanner) (*models.Category, error) {
	var c models.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) ListActive(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category_id, name, description, is_active, created_at
		FROM categories
		WHERE is_active = TRUE
		ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// GetByID returns the category whether or not it is active.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `
		SELECT category_id, name, description, is_active, created_at
		FROM categories WHERE category_id = ?`, id))
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (name, description, is_active, created_at) VALUES (?, ?, ?, ?)`,
		c.Name, c.Description, c.IsActive, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *CategoryRepository) Update(ctx context.Context, c *models.Category) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, description = ? WHERE category_id = ?`,
		c.Name, c.Description, c.ID)
	return err
}

func (r *CategoryRepository) Deactivate(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE categories SET is_active = FALSE WHERE category_id = ?`, id)
	return err
}
