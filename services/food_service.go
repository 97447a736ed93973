package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"parampara-foods/apperror"
	"parampara-foods/models"
	"parampara-foods/repositories"
	"parampara-foods/utils"
)

const (
	DefaultSearchLimit     = 10
	DefaultSuggestionLimit = 5
)

// ViewCounter decides whether a read of a food counts as a view.
type ViewCounter interface {
	ShouldCount(ctx context.Context, foodID int64, clientKey string) (bool, error)
}

type FoodService struct {
	foods      *repositories.FoodRepository
	categories *repositories.CategoryRepository
	images     *repositories.FoodImageRepository
	views      ViewCounter
}

func NewFoodService(db *sql.DB, views ViewCounter) *FoodService {
	return &FoodService{
		foods:      repositories.NewFoodRepository(db),
		categories: repositories.NewCategoryRepository(db),
		images:     repositories.NewFoodImageRepository(db),
		views:      views,
	}
}

func (s *FoodService) ListFoods(ctx context.Context, categoryID *int64, includeImages bool) ([]models.FoodResponse, error) {
	foods, err := s.foods.ListAvailable(ctx, categoryID)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to list food items")
	}

	var images map[int64][]models.FoodImage
	if includeImages && len(foods) > 0 {
		ids := make([]int64, len(foods))
		for i := range foods {
			ids[i] = foods[i].ID
		}
		if images, err = s.images.ListByFoods(ctx, ids); err != nil {
			return nil, apperror.Wrap(err, "Failed to load food images")
		}
	}

	resp := make([]models.FoodResponse, 0, len(foods))
	for i := range foods {
		r := models.NewFoodResponse(&foods[i])
		if includeImages {
			r.Images = images[foods[i].ID]
			if r.Images == nil {
				r.Images = []models.FoodImage{}
			}
		}
		resp = append(resp, r)
	}
	return resp, nil
}

// GetFood returns a food with its gallery and records a view. clientKey
// identifies the reader for view de-duplication.
func (s *FoodService) GetFood(ctx context.Context, id int64, clientKey string) (*models.FoodResponse, error) {
	food, err := s.foods.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Food item not found")
	}

	count := true
	if s.views != nil {
		count, err = s.views.ShouldCount(ctx, id, clientKey)
		if err != nil {
			utils.Zlog.Warn("view dedup unavailable, counting view", zap.Int64("food_id", id), zap.Error(err))
			count = true
		}
	}
	if count {
		if err := s.foods.IncrementViewCount(ctx, id); err != nil {
			return nil, notFoundOr(err, "Food item not found")
		}
		food.ViewCount++
	}

	images, err := s.images.ListByFood(ctx, id)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to load food images")
	}

	resp := models.NewFoodResponse(food)
	resp.Images = images
	return &resp, nil
}

func (s *FoodService) validateFood(ctx context.Context, item *models.FoodItem) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return apperror.Validation("Name is required")
	}
	if !item.MRP.IsPositive() {
		return apperror.Validation("MRP must be greater than zero")
	}
	if item.SalePrice.Valid && item.SalePrice.Decimal.IsNegative() {
		return apperror.Validation("Sale price cannot be negative")
	}
	if item.StockQuantity < 0 {
		return apperror.Validation("Stock quantity cannot be negative")
	}

	category, err := s.categories.GetByID(ctx, item.CategoryID)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && !category.IsActive) {
		return apperror.Validation("Invalid category ID")
	}
	if err != nil {
		return apperror.Wrap(err, "Failed to load category")
	}
	return nil
}

func (s *FoodService) CreateFood(ctx context.Context, req models.CreateFoodRequest) (*models.FoodResponse, error) {
	item := req.ToFoodItem()
	if err := s.validateFood(ctx, item); err != nil {
		return nil, err
	}

	id, err := s.foods.Create(ctx, item)
	if err != nil {
		utils.Zlog.Error("create food failed", zap.String("name", item.Name), zap.Error(err))
		return nil, apperror.Wrap(err, "Failed to create food item")
	}
	utils.Zlog.Info("food created", zap.Int64("food_id", id), zap.String("name", item.Name))

	created, err := s.foods.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Food item not found")
	}
	resp := models.NewFoodResponse(created)
	return &resp, nil
}

func (s *FoodService) UpdateFood(ctx context.Context, id int64, req models.CreateFoodRequest) (*models.FoodResponse, error) {
	if _, err := s.foods.GetByID(ctx, id); err != nil {
		return nil, notFoundOr(err, "Food item not found")
	}

	item := req.ToFoodItem()
	item.ID = id
	if err := s.validateFood(ctx, item); err != nil {
		return nil, err
	}
	if err := s.foods.Update(ctx, item); err != nil {
		utils.Zlog.Error("update food failed", zap.Int64("food_id", id), zap.Error(err))
		return nil, apperror.Wrap(err, "Failed to update food item")
	}

	updated, err := s.foods.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Food item not found")
	}
	resp := models.NewFoodResponse(updated)
	return &resp, nil
}

func (s *FoodService) DeleteFood(ctx context.Context, id int64) error {
	if err := s.foods.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrInUse) {
			return apperror.Validation("Food item is referenced by existing orders or feedback")
		}
		return notFoundOr(err, "Food item not found")
	}
	utils.Zlog.Info("food deleted", zap.Int64("food_id", id))
	return nil
}

// SearchFoods matches q against name, description, brand, tags and category
// name. An empty query matches nothing.
func (s *FoodService) SearchFoods(ctx context.Context, q string, limit int) ([]models.FoodResponse, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.FoodResponse{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	foods, err := s.foods.Search(ctx, q, limit)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to search food items")
	}
	resp := make([]models.FoodResponse, 0, len(foods))
	for i := range foods {
		resp = append(resp, models.NewFoodResponse(&foods[i]))
	}
	return resp, nil
}

func (s *FoodService) Suggestions(ctx context.Context, q string, limit int) ([]string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	names, err := s.foods.NameSuggestions(ctx, q, limit)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to load suggestions")
	}
	return names, nil
}

type CategoryService struct {
	categories *repositories.CategoryRepository
}

func NewCategoryService(db *sql.DB) *CategoryService {
	return &CategoryService{categories: repositories.NewCategoryRepository(db)}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to list categories")
	}
	return categories, nil
}

// GetCategory returns an active category. Deactivated ones are not found.
func (s *CategoryService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Category not found")
	}
	if !category.IsActive {
		return nil, apperror.NotFound("Category not found")
	}
	return category, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Name is required")
	}

	category := &models.Category{Name: name, Description: req.Description, IsActive: true}
	id, err := s.categories.Create(ctx, category)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to create category")
	}
	utils.Zlog.Info("category created", zap.Int64("category_id", id), zap.String("name", name))

	created, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Category not found")
	}
	return created, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, req models.CategoryRequest) (*models.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Name is required")
	}

	category.Name = name
	category.Description = req.Description
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, apperror.Wrap(err, "Failed to update category")
	}
	return category, nil
}

// DeleteCategory deactivates the category. Its foods are left as they are.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return err
	}
	if err := s.categories.Deactivate(ctx, id); err != nil {
		return apperror.Wrap(err, "Failed to delete category")
	}
	utils.Zlog.Info("category deactivated", zap.Int64("category_id", id))
	return nil
}
