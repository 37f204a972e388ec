package repository

import (
	"context"
	"database/sql"

	appErrors "github.com/floracrm/flowershop-backend/internal/errors"
	"github.com/floracrm/flowershop-backend/internal/model"
)

type ShopRepositoryInterface interface {
	GetByID(ctx context.Context, id int64) (*model.Shop, error)
	GetByUserID(ctx context.Context, userID int64) (*model.Shop, error)
	UpdateSenderIdentity(ctx context.Context, shopID int64, senderName, senderEmail string) error
}

type ShopRepository struct {
	DB *sql.DB
}

func (r *ShopRepository) GetByID(ctx context.Context, id int64) (*model.Shop, error) {
	query := `
        SELECT id, user_id, name, sender_name, sender_email, created_at
        FROM shops WHERE id = $1
    `
	var s model.Shop
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.Name, &s.SenderName, &s.SenderEmail, &s.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrShopNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *ShopRepository) GetByUserID(ctx context.Context, userID int64) (*model.Shop, error) {
	query := `
        SELECT id, user_id, name, sender_name, sender_email, created_at
        FROM shops WHERE user_id = $1
    `
	var s model.Shop
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.Name, &s.SenderName, &s.SenderEmail, &s.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrShopNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *ShopRepository) UpdateSenderIdentity(ctx context.Context, shopID int64, senderName, senderEmail string) error {
	query := `UPDATE shops SET sender_name=$1, sender_email=$2 WHERE id=$3`
	_, err := r.DB.ExecContext(ctx, query, senderName, senderEmail, shopID)
	return err
}

var _ ShopRepositoryInterface = (*ShopRepository)(nil)
