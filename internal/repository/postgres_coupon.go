package repository

import (
	"context"
	"errors"
	"fmt"

	"cake_heaven_back_end/internal/coupon"
	"cake_heaven_back_end/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type postgresCouponRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresCoupons(pool *pgxpool.Pool) coupon.Repository {
	return &postgresCouponRepository{pool: pool}
}

func scanPostgresCoupon(row pgx.Row) (models.Coupon, error) {
	var (
		c            models.Coupon
		discountType string
	)
	err := row.Scan(&c.ID, &c.Code, &c.Description, &discountType, &c.DiscountAmount, &c.MinimumPurchase,
		&c.MaximumDiscount, &c.ValidFrom, &c.ValidUntil, &c.IsActive, &c.UsageLimit, &c.PerUserLimit,
		&c.UsedCount, &c.ApplicableProducts, &c.ApplicableCategories, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.Coupon{}, err
	}
	c.DiscountType = models.DiscountType(discountType)
	return c, nil
}

func (r *postgresCouponRepository) get(ctx context.Context, where string, arg any) (models.Coupon, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE `+where, arg)
	c, err := scanPostgresCoupon(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Coupon{}, coupon.ErrNotFound
	}
	if err != nil {
		return models.Coupon{}, fmt.Errorf("row.Scan: %w", err)
	}
	return c, nil
}

func (r *postgresCouponRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Coupon, error) {
	return r.get(ctx, "id = $1", id)
}

func (r *postgresCouponRepository) GetByCode(ctx context.Context, code string) (models.Coupon, error) {
	return r.get(ctx, "code = $1", code)
}

func (r *postgresCouponRepository) List(ctx context.Context) ([]models.Coupon, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	var coupons []models.Coupon
	for rows.Next() {
		c, err := scanPostgresCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	return coupons, nil
}

func (r *postgresCouponRepository) Create(ctx context.Context, c models.Coupon) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO coupons (`+couponColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		c.ID, c.Code, c.Description, string(c.DiscountType), c.DiscountAmount, c.MinimumPurchase,
		c.MaximumDiscount, c.ValidFrom, c.ValidUntil, c.IsActive, c.UsageLimit, c.PerUserLimit, c.UsedCount,
		nonNil(c.ApplicableProducts), nonNil(c.ApplicableCategories), c.CreatedBy, c.CreatedAt, c.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return coupon.ErrCodeExists
	}
	if err != nil {
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

func (r *postgresCouponRepository) Update(ctx context.Context, c models.Coupon) error {
	tag, err := r.pool.Exec(ctx, `UPDATE coupons SET is_active = $1, usage_limit = $2, per_user_limit = $3,
		minimum_purchase = $4, maximum_discount = $5, valid_until = $6, updated_at = $7 WHERE id = $8`,
		c.IsActive, c.UsageLimit, c.PerUserLimit, c.MinimumPurchase, c.MaximumDiscount, c.ValidUntil,
		c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("update coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

func (r *postgresCouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

func (r *postgresCouponRepository) CountUserUsage(ctx context.Context, couponID uuid.UUID, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM coupon_usage WHERE coupon_id = $1 AND user_id = $2`,
		couponID, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count coupon_usage: %w", err)
	}
	return n, nil
}

func (r *postgresCouponRepository) RecordUsage(ctx context.Context, usage models.CouponUsage) error {
	_, err := withTx(ctx, r.pool, func(tx pgx.Tx) (struct{}, error) {
		tag, err := tx.Exec(ctx, `UPDATE coupons SET used_count = used_count + 1 WHERE id = $1`, usage.CouponID)
		if err != nil {
			return struct{}{}, fmt.Errorf("increment used_count: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return struct{}{}, coupon.ErrNotFound
		}

		_, err = tx.Exec(ctx, `INSERT INTO coupon_usage (id, coupon_id, user_id, order_ref, used_at)
			VALUES ($1, $2, $3, $4, $5)`, usage.ID, usage.CouponID, usage.UserID, usage.OrderRef, usage.UsedAt)
		if err != nil {
			return struct{}{}, fmt.Errorf("insert coupon_usage: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
