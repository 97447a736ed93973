package models

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type FoodItem struct {
	ID            int64               `json:"food_id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	MRP           decimal.Decimal     `json:"mrp"`
	SalePrice     decimal.NullDecimal `json:"sale_price"`
	CategoryID    int64               `json:"category_id"`
	CategoryName  string              `json:"category_name"`
	IsAvailable   bool                `json:"is_available"`
	IsOrganic     bool                `json:"is_organic"`
	StockQuantity int                 `json:"stock_quantity"`
	ImageURL      *string             `json:"image_url"`
	Brand         *string             `json:"brand"`
	Unit          string              `json:"unit"`
	Quantity      decimal.Decimal     `json:"quantity"`
	Tags          *string             `json:"tags"`
	ViewCount     int                 `json:"view_count"`
	Rating        decimal.Decimal     `json:"rating"`
	ReviewCount   int                 `json:"review_count"`
	MinStockLevel int                 `json:"min_stock_level"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// IsOnSale reports whether a sale price is set and undercuts the MRP.
func (f *FoodItem) IsOnSale() bool {
	return f.SalePrice.Valid && f.SalePrice.Decimal.LessThan(f.MRP)
}

// EffectivePrice is the price a customer pays right now.
func (f *FoodItem) EffectivePrice() decimal.Decimal {
	if f.IsOnSale() {
		return f.SalePrice.Decimal
	}
	return f.MRP
}

// DiscountPercentage is nil unless the item is on sale.
func (f *FoodItem) DiscountPercentage() *decimal.Decimal {
	if !f.IsOnSale() || f.MRP.IsZero() {
		return nil
	}
	pct := f.MRP.Sub(f.SalePrice.Decimal).Div(f.MRP).Mul(hundred).Round(2)
	return &pct
}

func (f *FoodItem) IsLowStock() bool {
	return f.StockQuantity <= f.MinStockLevel
}

type FoodResponse struct {
	FoodItem
	Price              decimal.Decimal  `json:"price"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
	IsOnSale           bool             `json:"is_on_sale"`
	IsLowStock         bool             `json:"is_low_stock"`
	Images             []FoodImage      `json:"images,omitempty"`
}

func NewFoodResponse(f *FoodItem) FoodResponse {
	return FoodResponse{
		FoodItem:           *f,
		Price:              f.EffectivePrice(),
		DiscountPercentage: f.DiscountPercentage(),
		IsOnSale:           f.IsOnSale(),
		IsLowStock:         f.IsLowStock(),
	}
}

type CreateFoodRequest struct {
	Name          string              `json:"name" binding:"required,max=100"`
	Description   string              `json:"description" binding:"required"`
	MRP           decimal.Decimal     `json:"mrp"`
	SalePrice     decimal.NullDecimal `json:"sale_price"`
	CategoryID    int64               `json:"category_id" binding:"required"`
	IsAvailable   *bool               `json:"is_available"`
	IsOrganic     *bool               `json:"is_organic"`
	StockQuantity int                 `json:"stock_quantity" binding:"min=0"`
	ImageURL      *string             `json:"image_url"`
	Brand         *string             `json:"brand"`
	Unit          string              `json:"unit"`
	Quantity      decimal.NullDecimal `json:"quantity"`
	Tags          *string             `json:"tags"`
	MinStockLevel *int                `json:"min_stock_level"`
}

// ToFoodItem applies the catalog defaults: available, organic, sold per kg,
// quantity 1, low-stock threshold 5, rating 5.0.
func (r *CreateFoodRequest) ToFoodItem() *FoodItem {
	item := &FoodItem{
		Name:          r.Name,
		Description:   r.Description,
		MRP:           r.MRP,
		SalePrice:     r.SalePrice,
		CategoryID:    r.CategoryID,
		IsAvailable:   true,
		IsOrganic:     true,
		StockQuantity: r.StockQuantity,
		ImageURL:      r.ImageURL,
		Brand:         r.Brand,
		Unit:          "kg",
		Quantity:      decimal.NewFromInt(1),
		Tags:          r.Tags,
		Rating:        decimal.NewFromInt(5),
		MinStockLevel: 5,
	}
	if r.IsAvailable != nil {
		item.IsAvailable = *r.IsAvailable
	}
	if r.IsOrganic != nil {
		item.IsOrganic = *r.IsOrganic
	}
	if r.Unit != "" {
		item.Unit = r.Unit
	}
	if r.Quantity.Valid {
		item.Quantity = r.Quantity.Decimal
	}
	if r.MinStockLevel != nil {
		item.MinStockLevel = *r.MinStockLevel
	}
	return item
}
