package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/floracrm/flowershop-backend/internal/model"
)

const productColumns = `id, shop_id, name, sku, price_cents, stock, created_at`

type ProductRepositoryInterface interface {
	GetByID(ctx context.Context, shopID, id int64) (*model.Product, error)
	ListByShop(ctx context.Context, shopID int64) ([]model.Product, error)
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, shopID, id int64) error
}

type ProductRepository struct {
	DB *sql.DB
}

func (r *ProductRepository) GetByID(ctx context.Context, shopID, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE shop_id=$1 AND id=$2`
	var p model.Product
	err := r.DB.QueryRowContext(ctx, query, shopID, id).Scan(
		&p.ID, &p.ShopID, &p.Name, &p.SKU, &p.PriceCents, &p.Stock, &p.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) ListByShop(ctx context.Context, shopID int64) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE shop_id=$1 ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.ShopID, &p.Name, &p.SKU, &p.PriceCents, &p.Stock, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) Create(ctx context.Context, p *model.Product) error {
	p.CreatedAt = time.Now()
	query := `
        INSERT INTO products (shop_id, name, sku, price_cents, stock, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query, p.ShopID, p.Name, p.SKU, p.PriceCents, p.Stock, p.CreatedAt).Scan(&p.ID)
}

func (r *ProductRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products SET name=$1, sku=$2, price_cents=$3, stock=$4 WHERE shop_id=$5 AND id=$6
    `
	_, err := r.DB.ExecContext(ctx, query, p.Name, p.SKU, p.PriceCents, p.Stock, p.ShopID, p.ID)
	return err
}

func (r *ProductRepository) Delete(ctx context.Context, shopID, id int64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM products WHERE shop_id=$1 AND id=$2`, shopID, id)
	return err
}

var _ ProductRepositoryInterface = (*ProductRepository)(nil)
