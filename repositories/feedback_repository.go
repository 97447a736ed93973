package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"parampara-foods/models"
)

type FeedbackRepository struct {
	db DBTX
}

func NewFeedbackRepository(db DBTX) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// List returns feedback newest first, optionally for a single food.
func (r *FeedbackRepository) List(ctx context.Context, foodID *int64) ([]models.Feedback, error) {
	query := `
		SELECT fb.feedback_id, fb.user_id, COALESCE(NULLIF(u.full_name, ''), u.email, u.phone_number, ''),
			fb.rating, fb.comment, fb.food_id, fb.created_at
		FROM feedback fb
		LEFT JOIN users u ON u.id = fb.user_id`
	var args []interface{}
	if foodID != nil {
		query += ` WHERE fb.food_id = ?`
		args = append(args, *foodID)
	}
	query += ` ORDER BY fb.created_at DESC, fb.feedback_id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Feedback{}
	for rows.Next() {
		var fb models.Feedback
		if err := rows.Scan(&fb.ID, &fb.UserID, &fb.UserName, &fb.Rating, &fb.Comment, &fb.FoodID, &fb.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, fb)
	}
	return list, rows.Err()
}

func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO feedback (user_id, rating, comment, food_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		fb.UserID, fb.Rating, fb.Comment, fb.FoodID, fb.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AverageRating is the mean rating rounded to two places, zero when there
// are no matching rows.
func (r *FeedbackRepository) AverageRating(ctx context.Context, foodID *int64) (decimal.Decimal, error) {
	query := `SELECT AVG(rating) FROM feedback`
	var args []interface{}
	if foodID != nil {
		query += ` WHERE food_id = ?`
		args = append(args, *foodID)
	}

	var avg decimal.NullDecimal
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&avg); err != nil {
		return decimal.Zero, err
	}
	if !avg.Valid {
		return decimal.Zero, nil
	}
	return avg.Decimal.Round(2), nil
}
