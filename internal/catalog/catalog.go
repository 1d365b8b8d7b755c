package catalog

import (
	"context"
	"errors"
	"fmt"

	"cake_heaven_back_end/internal/models"

	"go.uber.org/zap"
)

var ErrProductNotFound = errors.New("product not found")

// Repository reads products from the catalog store.
type Repository interface {
	GetProduct(ctx context.Context, id string) (models.Product, error)
	GetProducts(ctx context.Context, ids []string) ([]models.Product, error)
}

// Cache keeps product snapshots close to the cart.
type Cache interface {
	GetProduct(ctx context.Context, id string) (models.Product, bool, error)
	SetProduct(ctx context.Context, p models.Product) error
}

// Catalog serves product snapshots for carts and category lookups for coupon restrictions.
type Catalog struct {
	repo  Repository
	cache Cache
	log   *zap.Logger
}

func New(repo Repository, cache Cache, log *zap.Logger) *Catalog {
	return &Catalog{repo: repo, cache: cache, log: log}
}

func (c *Catalog) Product(ctx context.Context, id string) (models.Product, error) {
	if c.cache != nil {
		p, ok, err := c.cache.GetProduct(ctx, id)
		if err != nil {
			c.log.Warn("⚠️ product cache read failed", zap.String("product_id", id), zap.Error(err))
		}
		if ok {
			return p, nil
		}
	}

	p, err := c.repo.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, fmt.Errorf("repo.GetProduct: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.SetProduct(ctx, p); err != nil {
			c.log.Warn("⚠️ product cache write failed", zap.String("product_id", id), zap.Error(err))
		}
	}
	return p, nil
}

// Categories maps each known product id to its category. Unknown ids are left out.
func (c *Catalog) Categories(ctx context.Context, ids []string) (map[string]string, error) {
	products, err := c.repo.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("repo.GetProducts: %w", err)
	}

	out := make(map[string]string, len(products))
	for _, p := range products {
		if p.CategoryID != "" {
			out[p.ID] = p.CategoryID
		}
	}
	return out, nil
}
