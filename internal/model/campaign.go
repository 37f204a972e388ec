package model

import "time"

// Campaign statuses. Transitions only move forward: draft -> scheduled -> sent,
// draft -> sent, and any state -> failed. See CanTransition.
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusScheduled = "scheduled"
	CampaignStatusSent      = "sent"
	CampaignStatusFailed    = "failed"
)

type Campaign struct {
	ID           int64      `db:"id" json:"id"`
	ShopID       int64      `db:"shop_id" json:"shop_id"`
	UserID       int64      `db:"user_id" json:"user_id"`
	Name         string     `db:"name" json:"name"`
	Subject      string     `db:"subject" json:"subject"`
	Body         string     `db:"body" json:"body"`
	AudienceType string     `db:"audience_type" json:"audience_type"`
	AudienceID   *int64     `db:"audience_id" json:"audience_id,omitempty"`
	Status       string     `db:"status" json:"status"`
	ScheduledFor *time.Time `db:"scheduled_for" json:"scheduled_for,omitempty"`
	SentAt       *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// CanTransition reports whether a campaign status change is allowed.
// Backward moves (e.g. sent -> draft) and moves out of failed are rejected.
func (c *Campaign) CanTransition(to string) bool {
	switch c.Status {
	case CampaignStatusDraft:
		return to == CampaignStatusScheduled || to == CampaignStatusSent || to == CampaignStatusFailed
	case CampaignStatusScheduled:
		return to == CampaignStatusSent || to == CampaignStatusFailed
	case CampaignStatusSent:
		return to == CampaignStatusFailed
	default:
		// failed is terminal
		return false
	}
}
