package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"

	"parampara-foods/apperror"
	"parampara-foods/models"
	"parampara-foods/repositories"
	"parampara-foods/utils"
)

type FoodImageService struct {
	db     *sql.DB
	foods  *repositories.FoodRepository
	images *repositories.FoodImageRepository
	now    func() time.Time
}

func NewFoodImageService(db *sql.DB) *FoodImageService {
	return &FoodImageService{
		db:     db,
		foods:  repositories.NewFoodRepository(db),
		images: repositories.NewFoodImageRepository(db),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *FoodImageService) ListImages(ctx context.Context, foodID int64) ([]models.FoodImage, error) {
	images, err := s.images.ListByFood(ctx, foodID)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to list food images")
	}
	return images, nil
}

// AddImage attaches an image to a food. A primary image demotes every other
// image of the same food in the same transaction.
func (s *FoodImageService) AddImage(ctx context.Context, req models.CreateFoodImageRequest) (*models.FoodImage, error) {
	if strings.TrimSpace(req.ImageURL) == "" {
		return nil, apperror.Validation("Image URL is required")
	}
	exists, err := s.foods.Exists(ctx, req.FoodID)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to load food item")
	}
	if !exists {
		return nil, apperror.NotFound("Food item not found")
	}

	img := &models.FoodImage{
		FoodID:       req.FoodID,
		ImageURL:     req.ImageURL,
		AltText:      req.AltText,
		DisplayOrder: req.DisplayOrder,
		IsPrimary:    req.IsPrimary,
		CreatedAt:    s.now(),
	}

	err = repositories.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		images := s.images.WithTx(tx)
		if img.IsPrimary {
			if err := images.ClearPrimary(ctx, img.FoodID, 0); err != nil {
				return err
			}
		}
		id, err := images.Create(ctx, img)
		if err != nil {
			return err
		}
		img.ID = id
		return nil
	})
	if err != nil {
		utils.Zlog.Error("add food image failed", zap.Int64("food_id", req.FoodID), zap.Error(err))
		return nil, apperror.Wrap(err, "Failed to add food image")
	}
	return img, nil
}

func (s *FoodImageService) UpdateImage(ctx context.Context, id int64, req models.UpdateFoodImageRequest) (*models.FoodImage, error) {
	if strings.TrimSpace(req.ImageURL) == "" {
		return nil, apperror.Validation("Image URL is required")
	}
	img, err := s.images.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Food image not found")
	}

	img.ImageURL = req.ImageURL
	img.AltText = req.AltText
	img.DisplayOrder = req.DisplayOrder
	img.IsPrimary = req.IsPrimary

	err = repositories.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		images := s.images.WithTx(tx)
		if img.IsPrimary {
			if err := images.ClearPrimary(ctx, img.FoodID, img.ID); err != nil {
				return err
			}
		}
		return images.Update(ctx, img)
	})
	if err != nil {
		utils.Zlog.Error("update food image failed", zap.Int64("image_id", id), zap.Error(err))
		return nil, apperror.Wrap(err, "Failed to update food image")
	}
	return img, nil
}

// DeleteImage removes an image. Deleting the primary leaves the food without
// one until another image is marked primary.
func (s *FoodImageService) DeleteImage(ctx context.Context, id int64) error {
	if err := s.images.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Food image not found")
	}
	return nil
}
