package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"parampara-foods/models"
	"parampara-foods/services"
)

type FoodController struct {
	foods *services.FoodService
}

func NewFoodController(foods *services.FoodService) *FoodController {
	return &FoodController{foods: foods}
}

// ListFoods handles GET /foods?categoryId=&includeImages=.
func (ctl *FoodController) ListFoods(c *gin.Context) {
	categoryID, ok := optionalInt64Query(c, "categoryId")
	if !ok {
		return
	}
	includeImages, _ := strconv.ParseBool(c.Query("includeImages"))

	foods, err := ctl.foods.ListFoods(c.Request.Context(), categoryID, includeImages)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, foods)
}

func (ctl *FoodController) GetFood(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	food, err := ctl.foods.GetFood(c.Request.Context(), id, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, food)
}

func (ctl *FoodController) CreateFood(c *gin.Context) {
	var req models.CreateFoodRequest
	if !bindJSON(c, &req) {
		return
	}
	food, err := ctl.foods.CreateFood(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, food)
}

func (ctl *FoodController) UpdateFood(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.CreateFoodRequest
	if !bindJSON(c, &req) {
		return
	}
	food, err := ctl.foods.UpdateFood(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, food)
}

func (ctl *FoodController) DeleteFood(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.foods.DeleteFood(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *FoodController) SearchFoods(c *gin.Context) {
	limit, ok := limitQuery(c)
	if !ok {
		return
	}
	foods, err := ctl.foods.SearchFoods(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, foods)
}

func (ctl *FoodController) Suggestions(c *gin.Context) {
	limit, ok := limitQuery(c)
	if !ok {
		return
	}
	names, err := ctl.foods.Suggestions(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, names)
}

type CategoryController struct {
	categories *services.CategoryService
}

func NewCategoryController(categories *services.CategoryService) *CategoryController {
	return &CategoryController{categories: categories}
}

func (ctl *CategoryController) ListCategories(c *gin.Context) {
	categories, err := ctl.categories.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (ctl *CategoryController) GetCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	category, err := ctl.categories.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (ctl *CategoryController) CreateCategory(c *gin.Context) {
	var req models.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := ctl.categories.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (ctl *CategoryController) UpdateCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := ctl.categories.UpdateCategory(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (ctl *CategoryController) DeleteCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.categories.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type FoodImageController struct {
	images *services.FoodImageService
}

func NewFoodImageController(images *services.FoodImageService) *FoodImageController {
	return &FoodImageController{images: images}
}

func (ctl *FoodImageController) ListImages(c *gin.Context) {
	foodID, ok := idParam(c, "foodId")
	if !ok {
		return
	}
	images, err := ctl.images.ListImages(c.Request.Context(), foodID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, images)
}

func (ctl *FoodImageController) AddImage(c *gin.Context) {
	var req models.CreateFoodImageRequest
	if !bindJSON(c, &req) {
		return
	}
	image, err := ctl.images.AddImage(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, image)
}

func (ctl *FoodImageController) UpdateImage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateFoodImageRequest
	if !bindJSON(c, &req) {
		return
	}
	image, err := ctl.images.UpdateImage(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, image)
}

func (ctl *FoodImageController) DeleteImage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.images.DeleteImage(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
