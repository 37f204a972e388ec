package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/floracrm/flowershop-backend/internal/errors"
	"github.com/floracrm/flowershop-backend/internal/model"
)

const audienceColumns = `id, shop_id, user_id, name, description, status, kind, field, customer_ids, created_at`

type AudienceRepositoryInterface interface {
	GetByID(ctx context.Context, shopID, id int64) (*model.Audience, error)
	ListByShop(ctx context.Context, shopID int64) ([]model.Audience, error)
	Create(ctx context.Context, a *model.Audience) error
	Update(ctx context.Context, a *model.Audience) error
	UpdateCustomerIDs(ctx context.Context, shopID, id int64, customerIDs []int64) error
	Delete(ctx context.Context, shopID, id int64) error
}

type AudienceRepository struct {
	DB *sql.DB
}

func (r *AudienceRepository) scanAudience(row interface{ Scan(...any) error }) (*model.Audience, error) {
	var a model.Audience
	ids := pq.Int64Array{}
	err := row.Scan(
		&a.ID, &a.ShopID, &a.UserID, &a.Name, &a.Description,
		&a.Status, &a.Kind, &a.Field, &ids, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.CustomerIDs = []int64(ids)
	return &a, nil
}

func (r *AudienceRepository) GetByID(ctx context.Context, shopID, id int64) (*model.Audience, error) {
	query := `SELECT ` + audienceColumns + ` FROM audiences WHERE shop_id=$1 AND id=$2`
	a, err := r.scanAudience(r.DB.QueryRowContext(ctx, query, shopID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewAudienceNotFound(id)
		}
		return nil, err
	}
	return a, nil
}

func (r *AudienceRepository) ListByShop(ctx context.Context, shopID int64) ([]model.Audience, error) {
	query := `SELECT ` + audienceColumns + ` FROM audiences WHERE shop_id=$1 ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	audiences := []model.Audience{}
	for rows.Next() {
		a, err := r.scanAudience(rows)
		if err != nil {
			return nil, err
		}
		audiences = append(audiences, *a)
	}
	return audiences, rows.Err()
}

func (r *AudienceRepository) Create(ctx context.Context, a *model.Audience) error {
	a.CreatedAt = time.Now()
	if a.Status == "" {
		a.Status = model.AudienceStatusActive
	}
	if a.CustomerIDs == nil {
		a.CustomerIDs = []int64{}
	}
	query := `
        INSERT INTO audiences (shop_id, user_id, name, description, status, kind, field, customer_ids, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		a.ShopID, a.UserID, a.Name, a.Description, a.Status, a.Kind, a.Field,
		pq.Array(a.CustomerIDs), a.CreatedAt,
	).Scan(&a.ID)
}

func (r *AudienceRepository) Update(ctx context.Context, a *model.Audience) error {
	query := `
        UPDATE audiences
        SET name=$1, description=$2, status=$3, field=$4
        WHERE shop_id=$5 AND id=$6
    `
	_, err := r.DB.ExecContext(ctx, query, a.Name, a.Description, a.Status, a.Field, a.ShopID, a.ID)
	return err
}

func (r *AudienceRepository) UpdateCustomerIDs(ctx context.Context, shopID, id int64, customerIDs []int64) error {
	if customerIDs == nil {
		customerIDs = []int64{}
	}
	query := `UPDATE audiences SET customer_ids=$1 WHERE shop_id=$2 AND id=$3`
	_, err := r.DB.ExecContext(ctx, query, pq.Array(customerIDs), shopID, id)
	return err
}

func (r *AudienceRepository) Delete(ctx context.Context, shopID, id int64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM audiences WHERE shop_id=$1 AND id=$2`, shopID, id)
	return err
}

var _ AudienceRepositoryInterface = (*AudienceRepository)(nil)
