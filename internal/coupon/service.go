package coupon

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"cake_heaven_back_end/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	repo    Repository
	cache   ActiveCache
	catalog CategoryLookup
	log     *zap.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithCache(cache ActiveCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithCategoryLookup(catalog CategoryLookup) Option {
	return func(s *Service) { s.catalog = catalog }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeCode canonicalises a code the way it is stored.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Apply checks whether the code can be used on the described cart and returns the discount.
// Eligibility failures come back as *RejectionError.
func (s *Service) Apply(ctx context.Context, userID string, req models.ApplyRequest) (models.AppliedCoupon, error) {
	code := NormalizeCode(req.Code)
	if code == "" {
		return models.AppliedCoupon{}, fmt.Errorf("%w: code is required", ErrInvalidInput)
	}
	if req.CartTotal < 0 {
		return models.AppliedCoupon{}, fmt.Errorf("%w: cart total must not be negative", ErrInvalidInput)
	}

	c, err := s.repo.GetByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return models.AppliedCoupon{}, reject(ReasonNotFound, "invalid coupon code")
	}
	if err != nil {
		return models.AppliedCoupon{}, fmt.Errorf("repo.GetByCode: %w", err)
	}

	now := s.now()
	switch c.Status(now) {
	case models.CouponInactive:
		return models.AppliedCoupon{}, reject(ReasonInactive, "this coupon is no longer active")
	case models.CouponUpcoming:
		return models.AppliedCoupon{}, reject(ReasonNotYetActive, "this coupon is not valid yet")
	case models.CouponExpired:
		return models.AppliedCoupon{}, reject(ReasonExpired, "coupon expired")
	}

	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return models.AppliedCoupon{}, reject(ReasonUsageLimitExceeded, "usage limit reached")
	}

	if req.CartTotal < c.MinimumPurchase {
		return models.AppliedCoupon{}, reject(ReasonBelowMinimum, "minimum purchase not met: %.2f required", c.MinimumPurchase)
	}

	if c.PerUserLimit != nil && userID != "" {
		used, err := s.repo.CountUserUsage(ctx, c.ID, userID)
		if err != nil {
			return models.AppliedCoupon{}, fmt.Errorf("repo.CountUserUsage: %w", err)
		}
		if used >= *c.PerUserLimit {
			return models.AppliedCoupon{}, reject(ReasonPerUserLimitExceeded, "you have already used this coupon the maximum number of times")
		}
	}

	if c.Restricted() {
		ok, err := s.appliesTo(ctx, c, req.Products)
		if err != nil {
			return models.AppliedCoupon{}, err
		}
		if !ok {
			return models.AppliedCoupon{}, reject(ReasonNotApplicable, "coupon not applicable to items in cart")
		}
	}

	return models.AppliedCoupon{
		Coupon:   c,
		Discount: ComputeDiscount(c, req.CartTotal),
	}, nil
}

func (s *Service) appliesTo(ctx context.Context, c models.Coupon, lines []models.ApplyLine) (bool, error) {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if slices.Contains(c.ApplicableProducts, line.Product) {
			return true, nil
		}
		ids = append(ids, line.Product)
	}

	if len(c.ApplicableCategories) == 0 || s.catalog == nil || len(ids) == 0 {
		return false, nil
	}

	categories, err := s.catalog.Categories(ctx, ids)
	if err != nil {
		return false, fmt.Errorf("catalog.Categories: %w", err)
	}
	for _, id := range ids {
		if cat, ok := categories[id]; ok && slices.Contains(c.ApplicableCategories, cat) {
			return true, nil
		}
	}
	return false, nil
}

type CreateInput struct {
	Code                 string              `json:"code" binding:"required"`
	Description          string              `json:"description"`
	DiscountType         models.DiscountType `json:"discountType" binding:"required"`
	DiscountAmount       float64             `json:"discountAmount" binding:"required"`
	MinimumPurchase      float64             `json:"minimumPurchase"`
	MaximumDiscount      *float64            `json:"maximumDiscount"`
	ValidFrom            time.Time           `json:"validFrom"`
	ValidUntil           time.Time           `json:"validUntil" binding:"required"`
	UsageLimit           *int                `json:"usageLimit"`
	PerUserLimit         *int                `json:"perUserLimit"`
	ApplicableProducts   []string            `json:"applicableProducts"`
	ApplicableCategories []string            `json:"applicableCategories"`
}

func (s *Service) Create(ctx context.Context, in CreateInput, createdBy string) (models.Coupon, error) {
	now := s.now()
	if in.ValidFrom.IsZero() {
		in.ValidFrom = now
	}

	c := models.Coupon{
		ID:                   uuid.New(),
		Code:                 NormalizeCode(in.Code),
		Description:          in.Description,
		DiscountType:         in.DiscountType,
		DiscountAmount:       in.DiscountAmount,
		MinimumPurchase:      in.MinimumPurchase,
		MaximumDiscount:      in.MaximumDiscount,
		ValidFrom:            in.ValidFrom,
		ValidUntil:           in.ValidUntil,
		IsActive:             true,
		UsageLimit:           in.UsageLimit,
		PerUserLimit:         in.PerUserLimit,
		ApplicableProducts:   in.ApplicableProducts,
		ApplicableCategories: in.ApplicableCategories,
		CreatedBy:            createdBy,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := validate(c); err != nil {
		return models.Coupon{}, err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return models.Coupon{}, fmt.Errorf("repo.Create: %w", err)
	}
	s.invalidateCache(ctx)

	s.log.Info("✅ coupon created", zap.String("code", c.Code), zap.String("created_by", createdBy))
	return c, nil
}

type UpdateInput struct {
	IsActive        *bool      `json:"isActive"`
	UsageLimit      *int       `json:"usageLimit"`
	PerUserLimit    *int       `json:"perUserLimit"`
	MinimumPurchase *float64   `json:"minimumPurchase"`
	MaximumDiscount *float64   `json:"maximumDiscount"`
	ValidUntil      *time.Time `json:"validUntil"`
}

func (in UpdateInput) empty() bool {
	return in.IsActive == nil && in.UsageLimit == nil && in.PerUserLimit == nil &&
		in.MinimumPurchase == nil && in.MaximumDiscount == nil && in.ValidUntil == nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (models.Coupon, error) {
	if in.empty() {
		return models.Coupon{}, fmt.Errorf("%w: no update provided", ErrInvalidInput)
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return models.Coupon{}, fmt.Errorf("repo.GetByID: %w", err)
	}

	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if in.UsageLimit != nil {
		c.UsageLimit = in.UsageLimit
	}
	if in.PerUserLimit != nil {
		c.PerUserLimit = in.PerUserLimit
	}
	if in.MinimumPurchase != nil {
		c.MinimumPurchase = *in.MinimumPurchase
	}
	if in.MaximumDiscount != nil {
		c.MaximumDiscount = in.MaximumDiscount
	}
	if in.ValidUntil != nil {
		c.ValidUntil = *in.ValidUntil
	}
	c.UpdatedAt = s.now()

	if err := validate(c); err != nil {
		return models.Coupon{}, err
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return models.Coupon{}, fmt.Errorf("repo.Update: %w", err)
	}
	s.invalidateCache(ctx)
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("repo.Delete: %w", err)
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Coupon, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return models.Coupon{}, fmt.Errorf("repo.GetByID: %w", err)
	}
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]models.Coupon, error) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.List: %w", err)
	}
	return coupons, nil
}

// ListActive returns the coupons a shopper can currently browse.
func (s *Service) ListActive(ctx context.Context) ([]models.Coupon, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Warn("⚠️ active coupon cache read failed", zap.Error(err))
		}
		if ok {
			return s.filterActive(cached), nil
		}
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.List: %w", err)
	}
	active := s.filterActive(all)

	if s.cache != nil {
		if err := s.cache.Set(ctx, active); err != nil {
			s.log.Warn("⚠️ active coupon cache write failed", zap.Error(err))
		}
	}
	return active, nil
}

// filterActive runs on cached entries too, so a coupon expiring inside the cache TTL disappears on time.
func (s *Service) filterActive(coupons []models.Coupon) []models.Coupon {
	now := s.now()
	active := make([]models.Coupon, 0, len(coupons))
	for _, c := range coupons {
		if c.Status(now) != models.CouponActive {
			continue
		}
		if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
			continue
		}
		active = append(active, c)
	}
	return active
}

// Redeem records that userID used the coupon on the order identified by orderRef.
func (s *Service) Redeem(ctx context.Context, couponID uuid.UUID, userID, orderRef string) error {
	usage := models.CouponUsage{
		ID:       uuid.New(),
		CouponID: couponID,
		UserID:   userID,
		OrderRef: orderRef,
		UsedAt:   s.now(),
	}
	if err := s.repo.RecordUsage(ctx, usage); err != nil {
		return fmt.Errorf("repo.RecordUsage: %w", err)
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *Service) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("⚠️ active coupon cache invalidation failed", zap.Error(err))
	}
}

func validate(c models.Coupon) error {
	if c.Code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidInput)
	}

	switch c.DiscountType {
	case models.DiscountPercentage:
		if c.DiscountAmount <= 0 || c.DiscountAmount > 100 {
			return fmt.Errorf("%w: percentage must be greater than 0 and at most 100", ErrInvalidInput)
		}
	case models.DiscountFixed:
		if c.DiscountAmount <= 0 {
			return fmt.Errorf("%w: fixed amount must be positive", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown discount type %q", ErrInvalidInput, c.DiscountType)
	}

	if c.MinimumPurchase < 0 {
		return fmt.Errorf("%w: minimum purchase must not be negative", ErrInvalidInput)
	}
	if c.MaximumDiscount != nil && *c.MaximumDiscount <= 0 {
		return fmt.Errorf("%w: maximum discount must be positive", ErrInvalidInput)
	}
	if !c.ValidUntil.After(c.ValidFrom) {
		return fmt.Errorf("%w: validUntil must be after validFrom", ErrInvalidInput)
	}
	if c.UsageLimit != nil && *c.UsageLimit < 0 {
		return fmt.Errorf("%w: usage limit must not be negative", ErrInvalidInput)
	}
	if c.PerUserLimit != nil && *c.PerUserLimit < 0 {
		return fmt.Errorf("%w: per-user limit must not be negative", ErrInvalidInput)
	}
	return nil
}
