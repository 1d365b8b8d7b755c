package repository

import (
	"context"
	"errors"
	"fmt"

	"cake_heaven_back_end/internal/coupon"
	"cake_heaven_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// maxCASAttempts bounds the compare-and-set loop on used_count.
const maxCASAttempts = 5

const couponColumns = `id, code, description, discount_type, discount_amount, minimum_purchase,
	maximum_discount, valid_from, valid_until, is_active, usage_limit, per_user_limit, used_count,
	applicable_products, applicable_categories, created_by, created_at, updated_at`

type scyllaCouponRepository struct {
	session *gocql.Session
}

// NewScyllaCoupons stores coupons in the coupons, coupons_by_code and coupon_usage tables.
func NewScyllaCoupons(session *gocql.Session) coupon.Repository {
	return &scyllaCouponRepository{session: session}
}

func scanScyllaCoupon(scan func(dest ...any) error) (models.Coupon, error) {
	var (
		c            models.Coupon
		id           gocql.UUID
		discountType string
	)
	err := scan(&id, &c.Code, &c.Description, &discountType, &c.DiscountAmount, &c.MinimumPurchase,
		&c.MaximumDiscount, &c.ValidFrom, &c.ValidUntil, &c.IsActive, &c.UsageLimit, &c.PerUserLimit,
		&c.UsedCount, &c.ApplicableProducts, &c.ApplicableCategories, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.Coupon{}, err
	}
	c.ID = uuid.UUID(id)
	c.DiscountType = models.DiscountType(discountType)
	return c, nil
}

func (r *scyllaCouponRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Coupon, error) {
	q := r.session.Query(`SELECT `+couponColumns+` FROM coupons WHERE id = ?`, gocql.UUID(id)).WithContext(ctx)
	c, err := scanScyllaCoupon(q.Scan)
	if errors.Is(err, gocql.ErrNotFound) {
		return models.Coupon{}, coupon.ErrNotFound
	}
	if err != nil {
		return models.Coupon{}, fmt.Errorf("select coupon: %w", err)
	}
	return c, nil
}

func (r *scyllaCouponRepository) GetByCode(ctx context.Context, code string) (models.Coupon, error) {
	var id gocql.UUID
	err := r.session.Query(`SELECT id FROM coupons_by_code WHERE code = ?`, code).WithContext(ctx).Scan(&id)
	if errors.Is(err, gocql.ErrNotFound) {
		return models.Coupon{}, coupon.ErrNotFound
	}
	if err != nil {
		return models.Coupon{}, fmt.Errorf("select coupons_by_code: %w", err)
	}
	return r.GetByID(ctx, uuid.UUID(id))
}

func (r *scyllaCouponRepository) List(ctx context.Context) ([]models.Coupon, error) {
	iter := r.session.Query(`SELECT ` + couponColumns + ` FROM coupons`).WithContext(ctx).Iter()
	scanner := iter.Scanner()

	var coupons []models.Coupon
	for scanner.Next() {
		c, err := scanScyllaCoupon(scanner.Scan)
		if err != nil {
			_ = iter.Close()
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return coupons, nil
}

// Create reserves the code with a lightweight transaction so two admins cannot create the same code.
func (r *scyllaCouponRepository) Create(ctx context.Context, c models.Coupon) error {
	applied, err := r.session.Query(`INSERT INTO coupons_by_code (code, id) VALUES (?, ?) IF NOT EXISTS`,
		c.Code, gocql.UUID(c.ID)).WithContext(ctx).MapScanCAS(map[string]any{})
	if err != nil {
		return fmt.Errorf("reserve code: %w", err)
	}
	if !applied {
		return coupon.ErrCodeExists
	}

	if err := r.insert(ctx, c); err != nil {
		_ = r.session.Query(`DELETE FROM coupons_by_code WHERE code = ?`, c.Code).WithContext(ctx).Exec()
		return err
	}
	return nil
}

func (r *scyllaCouponRepository) insert(ctx context.Context, c models.Coupon) error {
	err := r.session.Query(`INSERT INTO coupons (`+couponColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gocql.UUID(c.ID), c.Code, c.Description, string(c.DiscountType), c.DiscountAmount, c.MinimumPurchase,
		c.MaximumDiscount, c.ValidFrom, c.ValidUntil, c.IsActive, c.UsageLimit, c.PerUserLimit, c.UsedCount,
		c.ApplicableProducts, c.ApplicableCategories, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// Update rewrites the editable columns. used_count is owned by RecordUsage and left alone.
func (r *scyllaCouponRepository) Update(ctx context.Context, c models.Coupon) error {
	applied, err := r.session.Query(`UPDATE coupons SET is_active = ?, usage_limit = ?, per_user_limit = ?,
		minimum_purchase = ?, maximum_discount = ?, valid_until = ?, updated_at = ? WHERE id = ? IF EXISTS`,
		c.IsActive, c.UsageLimit, c.PerUserLimit, c.MinimumPurchase, c.MaximumDiscount, c.ValidUntil,
		c.UpdatedAt, gocql.UUID(c.ID)).WithContext(ctx).MapScanCAS(map[string]any{})
	if err != nil {
		return fmt.Errorf("update coupon: %w", err)
	}
	if !applied {
		return coupon.ErrNotFound
	}
	return nil
}

func (r *scyllaCouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	batch := r.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`DELETE FROM coupons WHERE id = ?`, gocql.UUID(id))
	batch.Query(`DELETE FROM coupons_by_code WHERE code = ?`, c.Code)
	batch.Query(`DELETE FROM coupon_usage WHERE coupon_id = ?`, gocql.UUID(id))
	if err := r.session.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	return nil
}

func (r *scyllaCouponRepository) CountUserUsage(ctx context.Context, couponID uuid.UUID, userID string) (int, error) {
	var n int
	err := r.session.Query(`SELECT COUNT(*) FROM coupon_usage WHERE coupon_id = ? AND user_id = ?`,
		gocql.UUID(couponID), userID).WithContext(ctx).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count coupon_usage: %w", err)
	}
	return n, nil
}

// RecordUsage bumps used_count with compare-and-set, then stores the usage row.
func (r *scyllaCouponRepository) RecordUsage(ctx context.Context, usage models.CouponUsage) error {
	id := gocql.UUID(usage.CouponID)

	var current int
	if err := r.session.Query(`SELECT used_count FROM coupons WHERE id = ?`, id).WithContext(ctx).Scan(&current); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return coupon.ErrNotFound
		}
		return fmt.Errorf("select used_count: %w", err)
	}

	for attempt := 0; ; attempt++ {
		if attempt == maxCASAttempts {
			return fmt.Errorf("increment used_count: gave up after %d attempts", maxCASAttempts)
		}

		var observed int
		applied, err := r.session.Query(`UPDATE coupons SET used_count = ? WHERE id = ? IF used_count = ?`,
			current+1, id, current).WithContext(ctx).ScanCAS(&observed)
		if err != nil {
			return fmt.Errorf("increment used_count: %w", err)
		}
		if applied {
			break
		}
		current = observed
	}

	err := r.session.Query(`INSERT INTO coupon_usage (coupon_id, user_id, id, order_ref, used_at) VALUES (?, ?, ?, ?, ?)`,
		id, usage.UserID, gocql.UUID(usage.ID), usage.OrderRef, usage.UsedAt).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("insert coupon_usage: %w", err)
	}
	return nil
}
