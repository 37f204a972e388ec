package model

import "time"

const (
	AudienceKindPredefined = "predefined"
	AudienceKindCustom     = "custom"

	AudienceStatusActive   = "active"
	AudienceStatusInactive = "inactive"
	AudienceStatusDraft    = "draft"
)

// Audience is a named rule (predefined) or explicit customer list (custom).
// For predefined audiences membership is computed on read from the customer
// table; CustomerIDs is only meaningful for custom audiences.
type Audience struct {
	ID          int64     `db:"id" json:"id"`
	ShopID      int64     `db:"shop_id" json:"shop_id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	Status      string    `db:"status" json:"status"`
	Kind        string    `db:"kind" json:"kind"`
	Field       string    `db:"field" json:"field,omitempty"`
	CustomerIDs []int64   `db:"customer_ids" json:"customer_ids"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// AddCustomerIDs appends ids that are not already present and returns how
// many were actually added. Insertion order is preserved for display.
func (a *Audience) AddCustomerIDs(ids []int64) int {
	seen := make(map[int64]struct{}, len(a.CustomerIDs))
	for _, id := range a.CustomerIDs {
		seen[id] = struct{}{}
	}
	added := 0
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		a.CustomerIDs = append(a.CustomerIDs, id)
		added++
	}
	return added
}

// RemoveCustomerIDs drops the given ids and returns how many were removed.
func (a *Audience) RemoveCustomerIDs(ids []int64) int {
	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := a.CustomerIDs[:0]
	removed := 0
	for _, id := range a.CustomerIDs {
		if _, ok := drop[id]; ok {
			removed++
			continue
		}
		kept = append(kept, id)
	}
	a.CustomerIDs = kept
	return removed
}
