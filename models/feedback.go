package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Feedback struct {
	ID        int64     `json:"feedback_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment"`
	FoodID    *int64    `json:"food_id"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateFeedbackRequest struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment"`
	FoodID  *int64  `json:"food_id"`
}

type AverageRatingResponse struct {
	FoodID        *int64          `json:"food_id,omitempty"`
	AverageRating decimal.Decimal `json:"average_rating"`
}
