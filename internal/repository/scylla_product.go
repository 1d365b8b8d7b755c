package repository

import (
	"context"
	"errors"
	"fmt"

	"cake_heaven_back_end/internal/catalog"
	"cake_heaven_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

const productColumns = `product_id, name, price, discount_price, stock, flavor, weight, category_id, image_urls`

type scyllaProductRepository struct {
	session *gocql.Session
}

func NewScyllaProducts(session *gocql.Session) catalog.Repository {
	return &scyllaProductRepository{session: session}
}

func scanScyllaProduct(scan func(dest ...any) error) (models.Product, error) {
	var (
		p  models.Product
		id gocql.UUID
	)
	if err := scan(&id, &p.Name, &p.Price, &p.DiscountPrice, &p.Stock, &p.Flavor, &p.Weight, &p.CategoryID, &p.Images); err != nil {
		return models.Product{}, err
	}
	p.ID = id.String()
	return p, nil
}

func (r *scyllaProductRepository) GetProduct(ctx context.Context, id string) (models.Product, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return models.Product{}, catalog.ErrProductNotFound
	}

	q := r.session.Query(`SELECT `+productColumns+` FROM products WHERE product_id = ?`, gocql.UUID(pid)).WithContext(ctx)
	p, err := scanScyllaProduct(q.Scan)
	if errors.Is(err, gocql.ErrNotFound) {
		return models.Product{}, catalog.ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

func (r *scyllaProductRepository) GetProducts(ctx context.Context, ids []string) ([]models.Product, error) {
	keys := make([]gocql.UUID, 0, len(ids))
	for _, id := range ids {
		if pid, err := uuid.Parse(id); err == nil {
			keys = append(keys, gocql.UUID(pid))
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	iter := r.session.Query(`SELECT `+productColumns+` FROM products WHERE product_id IN ?`, keys).WithContext(ctx).Iter()
	scanner := iter.Scanner()

	var products []models.Product
	for scanner.Next() {
		p, err := scanScyllaProduct(scanner.Scan)
		if err != nil {
			_ = iter.Close()
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return products, nil
}
