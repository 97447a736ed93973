package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFoodItem_EffectivePrice(t *testing.T) {
	cases := []struct {
		name     string
		mrp      string
		sale     *string
		want     string
		discount *string
	}{
		{name: "no sale price", mrp: "100", want: "100"},
		{name: "on sale", mrp: "100", sale: strPtr("80"), want: "80", discount: strPtr("20")},
		{name: "sale equal to mrp", mrp: "100", sale: strPtr("100"), want: "100"},
		{name: "sale above mrp", mrp: "100", sale: strPtr("120"), want: "100"},
		{name: "fractional discount", mrp: "300", sale: strPtr("199"), want: "199", discount: strPtr("33.67")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := &FoodItem{MRP: dec(tc.mrp)}
			if tc.sale != nil {
				item.SalePrice = decimal.NewNullDecimal(dec(*tc.sale))
			}

			assert.True(t, dec(tc.want).Equal(item.EffectivePrice()), "got %s", item.EffectivePrice())
			if tc.discount == nil {
				assert.Nil(t, item.DiscountPercentage())
				return
			}
			require.NotNil(t, item.DiscountPercentage())
			assert.True(t, dec(*tc.discount).Equal(*item.DiscountPercentage()), "got %s", item.DiscountPercentage())
		})
	}
}

func TestFoodItem_IsLowStock(t *testing.T) {
	item := &FoodItem{StockQuantity: 5, MinStockLevel: 5}
	assert.True(t, item.IsLowStock())
	item.StockQuantity = 6
	assert.False(t, item.IsLowStock())
}

func TestCreateFoodRequest_Defaults(t *testing.T) {
	req := CreateFoodRequest{Name: "Jaggery", Description: "Organic", MRP: dec("120"), CategoryID: 2}
	item := req.ToFoodItem()

	assert.True(t, item.IsAvailable)
	assert.True(t, item.IsOrganic)
	assert.Equal(t, "kg", item.Unit)
	assert.Equal(t, 5, item.MinStockLevel)
	assert.True(t, decimal.NewFromInt(1).Equal(item.Quantity))
}

func TestOrderStatus_Transitions(t *testing.T) {
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusProcessing))
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusCancelled))
	assert.True(t, OrderStatusShipped.CanTransitionTo(OrderStatusDelivered))
	assert.False(t, OrderStatusPending.CanTransitionTo(OrderStatusDelivered))
	assert.False(t, OrderStatusDelivered.CanTransitionTo(OrderStatusPending))
	assert.False(t, OrderStatusCancelled.CanTransitionTo(OrderStatusProcessing))
	assert.False(t, OrderStatusProcessing.CanTransitionTo(OrderStatusProcessing))

	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatus("Lost").IsValid())
}

func TestCalculateTotal(t *testing.T) {
	items := []OrderItem{
		{Quantity: 3, UnitPrice: dec("80")},
		{Quantity: 2, UnitPrice: dec("12.50")},
	}
	assert.True(t, dec("265").Equal(CalculateTotal(items)))
	assert.True(t, decimal.Zero.Equal(CalculateTotal(nil)))
}

func TestUser_DisplayName(t *testing.T) {
	email := "asha@example.com"
	phone := "+919800000000"
	empty := ""

	assert.Equal(t, email, (&User{Email: &email, FullName: &empty}).DisplayName())
	assert.Equal(t, phone, (&User{PhoneNumber: &phone}).DisplayName())
	name := "Asha"
	assert.Equal(t, name, (&User{Email: &email, FullName: &name}).DisplayName())
}

func strPtr(s string) *string { return &s }
