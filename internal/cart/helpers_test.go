package cart_test

import (
	"time"

	"cake_heaven_back_end/internal/cart"
	"cake_heaven_back_end/internal/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

func product(price float64) models.Product {
	return models.Product{
		ID:     uuid.NewString(),
		Name:   gofakeit.Dessert(),
		Price:  price,
		Stock:  gofakeit.IntRange(10, 50),
		Flavor: gofakeit.Dessert(),
		Weight: "1kg",
	}
}

func discounted(price, discount float64) models.Product {
	p := product(price)
	p.DiscountPrice = &discount
	return p
}

func randomProduct() models.Product {
	p := product(gofakeit.Price(100, 900))
	if gofakeit.Bool() {
		d := p.Price * 0.8
		p.DiscountPrice = &d
	}
	return p
}

func newSession(policy cart.InvalidationPolicy) *cart.Session {
	return cart.NewSession(gofakeit.UUID(), policy)
}

func percentCoupon(amount float64, maxDiscount *float64, minimum float64) models.Coupon {
	now := time.Now()
	return models.Coupon{
		ID:              uuid.New(),
		Code:            "CAKE10",
		DiscountType:    models.DiscountPercentage,
		DiscountAmount:  amount,
		MinimumPurchase: minimum,
		MaximumDiscount: maxDiscount,
		ValidFrom:       now.Add(-time.Hour),
		ValidUntil:      now.Add(time.Hour),
		IsActive:        true,
	}
}

func ptr[T any](v T) *T {
	return &v
}
