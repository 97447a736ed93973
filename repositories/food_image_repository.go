package repositories

import (
	"context"
	"database/sql"

	"parampara-foods/models"
)

const imageColumns = `image_id, food_id, image_url, alt_text, display_order, is_primary, created_at`

type FoodImageRepository struct {
	db DBTX
}

func NewFoodImageRepository(db DBTX) *FoodImageRepository {
	return &FoodImageRepository{db: db}
}

func (r *FoodImageRepository) WithTx(tx *sql.Tx) *FoodImageRepository {
	return &FoodImageRepository{db: tx}
}

func scanImage(row rowScanner) (*models.FoodImage, error) {
	var img models.FoodImage
	err := row.Scan(&img.ID, &img.FoodID, &img.ImageURL, &img.AltText, &img.DisplayOrder, &img.IsPrimary, &img.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *FoodImageRepository) ListByFood(ctx context.Context, foodID int64) ([]models.FoodImage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+imageColumns+` FROM food_images
		WHERE food_id = ?
		ORDER BY display_order ASC, image_id ASC`, foodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := []models.FoodImage{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, *img)
	}
	return images, rows.Err()
}

// ListByFoods groups the images of several foods by food id.
func (r *FoodImageRepository) ListByFoods(ctx context.Context, foodIDs []int64) (map[int64][]models.FoodImage, error) {
	grouped := make(map[int64][]models.FoodImage, len(foodIDs))
	if len(foodIDs) == 0 {
		return grouped, nil
	}

	args := make([]interface{}, len(foodIDs))
	for i, id := range foodIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+imageColumns+` FROM food_images
		WHERE food_id IN (`+placeholders(len(foodIDs))+`)
		ORDER BY food_id ASC, display_order ASC, image_id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		grouped[img.FoodID] = append(grouped[img.FoodID], *img)
	}
	return grouped, rows.Err()
}

func (r *FoodImageRepository) GetByID(ctx context.Context, id int64) (*models.FoodImage, error) {
	img, err := scanImage(r.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM food_images WHERE image_id = ?`, id))
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return img, nil
}

// ClearPrimary unsets the primary flag on every image of foodID except
// exceptID. Pass 0 to clear all of them.
func (r *FoodImageRepository) ClearPrimary(ctx context.Context, foodID, exceptID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE food_images SET is_primary = FALSE
		WHERE food_id = ? AND image_id <> ? AND is_primary = TRUE`, foodID, exceptID)
	return err
}

func (r *FoodImageRepository) Create(ctx context.Context, img *models.FoodImage) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO food_images (food_id, image_url, alt_text, display_order, is_primary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		img.FoodID, img.ImageURL, img.AltText, img.DisplayOrder, img.IsPrimary, img.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *FoodImageRepository) Update(ctx context.Context, img *models.FoodImage) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE food_images SET image_url = ?, alt_text = ?, display_order = ?, is_primary = ?
		WHERE image_id = ?`,
		img.ImageURL, img.AltText, img.DisplayOrder, img.IsPrimary, img.ID)
	return err
}

func (r *FoodImageRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM food_images WHERE image_id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}
