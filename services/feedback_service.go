package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"parampara-foods/apperror"
	"parampara-foods/models"
	"parampara-foods/repositories"
	"parampara-foods/utils"
)

type FeedbackService struct {
	db       *sql.DB
	feedback *repositories.FeedbackRepository
	foods    *repositories.FoodRepository
	users    *repositories.UserRepository
	now      func() time.Time
}

func NewFeedbackService(db *sql.DB) *FeedbackService {
	return &FeedbackService{
		db:       db,
		feedback: repositories.NewFeedbackRepository(db),
		foods:    repositories.NewFoodRepository(db),
		users:    repositories.NewUserRepository(db),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *FeedbackService) ListFeedback(ctx context.Context, foodID *int64) ([]models.Feedback, error) {
	list, err := s.feedback.List(ctx, foodID)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to list feedback")
	}
	return list, nil
}

// CreateFeedback records a rating. Feedback tied to a food also refreshes
// that food's rating and review count.
func (s *FeedbackService) CreateFeedback(ctx context.Context, userID string, req models.CreateFeedbackRequest) (*models.Feedback, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.Unauthorized("User not found")
	}
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to load user")
	}

	if req.Rating < models.MinRating || req.Rating > models.MaxRating {
		return nil, apperror.Validation(fmt.Sprintf("Rating must be between %d and %d", models.MinRating, models.MaxRating))
	}
	if req.FoodID != nil {
		exists, err := s.foods.Exists(ctx, *req.FoodID)
		if err != nil {
			return nil, apperror.Wrap(err, "Failed to load food item")
		}
		if !exists {
			return nil, apperror.Validation("Invalid food ID")
		}
	}

	fb := &models.Feedback{
		UserID:    user.ID,
		UserName:  user.DisplayName(),
		Rating:    req.Rating,
		Comment:   req.Comment,
		FoodID:    req.FoodID,
		CreatedAt: s.now(),
	}

	err = repositories.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		id, err := repositories.NewFeedbackRepository(tx).Create(ctx, fb)
		if err != nil {
			return err
		}
		fb.ID = id
		if fb.FoodID != nil {
			return s.foods.WithTx(tx).RefreshRating(ctx, *fb.FoodID)
		}
		return nil
	})
	if err != nil {
		utils.Zlog.Error("create feedback failed", zap.String("user_id", userID), zap.Error(err))
		return nil, apperror.Wrap(err, "Failed to create feedback")
	}
	return fb, nil
}

func (s *FeedbackService) AverageRating(ctx context.Context, foodID *int64) (*models.AverageRatingResponse, error) {
	avg, err := s.feedback.AverageRating(ctx, foodID)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to compute average rating")
	}
	return &models.AverageRatingResponse{FoodID: foodID, AverageRating: avg}, nil
}
