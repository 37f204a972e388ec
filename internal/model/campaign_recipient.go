package model

import "time"

// CampaignRecipient statuses. pending -> sent and pending -> failed are the
// only allowed moves; sent and failed are terminal.
const (
	RecipientStatusPending = "pending"
	RecipientStatusSent    = "sent"
	RecipientStatusFailed  = "failed"
)

// CampaignRecipient is one customer's delivery record within a campaign.
// Rows are created once, alongside the campaign, and only their status,
// sent_at and last_error fields change afterwards.
type CampaignRecipient struct {
	ID                int64      `db:"id" json:"id"`
	CampaignID        int64      `db:"campaign_id" json:"campaign_id"`
	CustomerID        int64      `db:"customer_id" json:"customer_id"`
	Status            string     `db:"status" json:"status"`
	SentAt            *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	LastError         string     `db:"last_error" json:"last_error,omitempty"`
	ProviderMessageID string     `db:"provider_message_id" json:"provider_message_id,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// RecipientCounts is the aggregate delivery progress of one campaign.
type RecipientCounts struct {
	Pending int `json:"pending"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

func (rc RecipientCounts) Total() int {
	return rc.Pending + rc.Sent + rc.Failed
}
