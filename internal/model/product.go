package model

import "time"

type Product struct {
	ID         int64     `db:"id" json:"id"`
	ShopID     int64     `db:"shop_id" json:"shop_id"`
	Name       string    `db:"name" json:"name"`
	SKU        string    `db:"sku" json:"sku"`
	PriceCents int64     `db:"price_cents" json:"price_cents"`
	Stock      int       `db:"stock" json:"stock"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
