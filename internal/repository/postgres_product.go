package repository

import (
	"context"
	"errors"
	"fmt"

	"cake_heaven_back_end/internal/catalog"
	"cake_heaven_back_end/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresProductRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresProducts(pool *pgxpool.Pool) catalog.Repository {
	return &postgresProductRepository{pool: pool}
}

func scanPostgresProduct(row pgx.Row) (models.Product, error) {
	var (
		p  models.Product
		id uuid.UUID
	)
	if err := row.Scan(&id, &p.Name, &p.Price, &p.DiscountPrice, &p.Stock, &p.Flavor, &p.Weight, &p.CategoryID, &p.Images); err != nil {
		return models.Product{}, err
	}
	p.ID = id.String()
	return p, nil
}

func (r *postgresProductRepository) GetProduct(ctx context.Context, id string) (models.Product, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return models.Product{}, catalog.ErrProductNotFound
	}

	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE product_id = $1`, pid)
	p, err := scanPostgresProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Product{}, catalog.ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("row.Scan: %w", err)
	}
	return p, nil
}

func (r *postgresProductRepository) GetProducts(ctx context.Context, ids []string) ([]models.Product, error) {
	keys := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if pid, err := uuid.Parse(id); err == nil {
			keys = append(keys, pid)
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE product_id = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanPostgresProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	return products, nil
}
