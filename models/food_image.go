package models

import "time"

type FoodImage struct {
	ID           int64     `json:"image_id"`
	FoodID       int64     `json:"food_id"`
	ImageURL     string    `json:"image_url"`
	AltText      *string   `json:"alt_text"`
	DisplayOrder int       `json:"display_order"`
	IsPrimary    bool      `json:"is_primary"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateFoodImageRequest struct {
	FoodID       int64   `json:"food_id" binding:"required"`
	ImageURL     string  `json:"image_url" binding:"required"`
	AltText      *string `json:"alt_text"`
	DisplayOrder int     `json:"display_order"`
	IsPrimary    bool    `json:"is_primary"`
}

type UpdateFoodImageRequest struct {
	ImageURL     string  `json:"image_url" binding:"required"`
	AltText      *string `json:"alt_text"`
	DisplayOrder int     `json:"display_order"`
	IsPrimary    bool    `json:"is_primary"`
}
