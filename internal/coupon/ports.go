package coupon

import (
	"context"

	"cake_heaven_back_end/internal/models"

	"github.com/google/uuid"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (models.Coupon, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Create(ctx context.Context, c models.Coupon) error
	Update(ctx context.Context, c models.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountUserUsage(ctx context.Context, couponID uuid.UUID, userID string) (int, error)
	// RecordUsage stores the usage and increments the coupon's used count.
	RecordUsage(ctx context.Context, usage models.CouponUsage) error
}

// ActiveCache keeps the list served by the "browse coupons" endpoint.
type ActiveCache interface {
	Get(ctx context.Context) ([]models.Coupon, bool, error)
	Set(ctx context.Context, coupons []models.Coupon) error
	Invalidate(ctx context.Context) error
}

// CategoryLookup resolves the category of each product id it knows about.
type CategoryLookup interface {
	Categories(ctx context.Context, productIDs []string) (map[string]string, error)
}
