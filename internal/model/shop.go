package model

import "time"

// Shop is the multi-tenancy boundary. Every customer, audience and campaign
// belongs to exactly one shop.
type Shop struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	SenderName  string    `db:"sender_name" json:"sender_name"`
	SenderEmail string    `db:"sender_email" json:"sender_email"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
