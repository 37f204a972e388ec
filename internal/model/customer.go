package model

import "time"

type Customer struct {
	ID              int64      `db:"id" json:"id"`
	ShopID          int64      `db:"shop_id" json:"shop_id"`
	FirstName       string     `db:"first_name" json:"first_name"`
	LastName        string     `db:"last_name" json:"last_name"`
	Email           string     `db:"email" json:"email"`
	Phone           string     `db:"phone" json:"phone,omitempty"`
	VIP             bool       `db:"vip" json:"vip"`
	Birthday        *time.Time `db:"birthday" json:"birthday,omitempty"`
	TotalSpentCents int64      `db:"total_spent_cents" json:"total_spent_cents"`
	LastOrderAt     *time.Time `db:"last_order_at" json:"last_order_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}
