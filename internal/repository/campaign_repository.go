package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	appErrors "github.com/floracrm/flowershop-backend/internal/errors"
	"github.com/floracrm/flowershop-backend/internal/model"
)

const campaignColumns = `id, shop_id, user_id, name, subject, body, audience_type, audience_id, status, scheduled_for, sent_at, created_at, updated_at`

// PendingRecipient is one dispatchable unit: the recipient row joined with
// the customer fields the dispatcher personalizes with.
type PendingRecipient struct {
	RecipientID int64
	CustomerID  int64
	Email       string
	FirstName   string
	LastName    string
}

type CampaignRepositoryInterface interface {
	// CreateWithRecipients inserts the campaign and one pending recipient row
	// per customer in a single transaction. Either everything lands or
	// nothing does.
	CreateWithRecipients(ctx context.Context, c *model.Campaign, customerIDs []int64) error

	GetByID(ctx context.Context, shopID, id int64) (*model.Campaign, error)
	// GetByIDUnscoped is for internal consumers (queue, scheduler) that hold
	// a campaign id without a tenant context.
	GetByIDUnscoped(ctx context.Context, id int64) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, shopID int64, offset, limit int, status string) ([]model.Campaign, int, error)

	// ListDue returns scheduled campaigns whose scheduled_for has passed.
	ListDue(ctx context.Context, now time.Time) ([]model.Campaign, error)

	// ClaimScheduled conditionally moves a campaign scheduled -> sent and
	// reports whether this caller won the claim. Two concurrent scheduler
	// runs cannot both win.
	ClaimScheduled(ctx context.Context, campaignID int64) (bool, error)

	MarkSent(ctx context.Context, campaignID int64, sentAt time.Time) error
	MarkFailed(ctx context.Context, campaignID int64) error

	ListPendingRecipients(ctx context.Context, campaignID int64) ([]PendingRecipient, error)
	MarkRecipientSent(ctx context.Context, recipientID int64, sentAt time.Time, providerMessageID string) error
	MarkRecipientFailed(ctx context.Context, recipientID int64, failedAt time.Time, reason string) error
	MarkAllPendingRecipientsFailed(ctx context.Context, campaignID int64, reason string) error
	CountRecipientsByStatus(ctx context.Context, campaignID int64) (model.RecipientCounts, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) CreateWithRecipients(ctx context.Context, c *model.Campaign, customerIDs []int64) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO campaigns (shop_id, user_id, name, subject, body, audience_type, audience_id, status, scheduled_for, sent_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id
    `
	err = tx.QueryRowContext(ctx, query,
		c.ShopID, c.UserID, c.Name, c.Subject, c.Body, c.AudienceType,
		c.AudienceID, c.Status, c.ScheduledFor, c.SentAt, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return err
	}

	recipientQuery := `
        INSERT INTO campaign_recipients (campaign_id, customer_id, status, created_at, updated_at)
        VALUES ($1, $2, 'pending', $3, $3)
    `
	for _, customerID := range customerIDs {
		if _, err := tx.ExecContext(ctx, recipientQuery, c.ID, customerID, c.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *CampaignRepository) scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID, &c.ShopID, &c.UserID, &c.Name, &c.Subject, &c.Body,
		&c.AudienceType, &c.AudienceID, &c.Status, &c.ScheduledFor,
		&c.SentAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, shopID, id int64) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE shop_id=$1 AND id=$2`
	c, err := r.scanCampaign(r.DB.QueryRowContext(ctx, query, shopID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) GetByIDUnscoped(ctx context.Context, id int64) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := r.scanCampaign(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context, shopID int64, offset, limit int, status string) ([]model.Campaign, int, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	base := psql.Select(campaignColumns).From("campaigns").Where(sq.Eq{"shop_id": shopID})
	count := psql.Select("COUNT(*)").From("campaigns").Where(sq.Eq{"shop_id": shopID})
	if status != "" {
		base = base.Where(sq.Eq{"status": status})
		count = count.Where(sq.Eq{"status": status})
	}

	query, args, err := base.OrderBy("id DESC").Limit(uint64(limit)).Offset(uint64(offset)).ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := []model.Campaign{}
	for rows.Next() {
		c, err := r.scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery, countArgs, err := count.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// ====================== Scheduling ======================

func (r *CampaignRepository) ListDue(ctx context.Context, now time.Time) ([]model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE status='scheduled' AND scheduled_for <= $1 ORDER BY scheduled_for`
	rows, err := r.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []model.Campaign{}
	for rows.Next() {
		c, err := r.scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepository) ClaimScheduled(ctx context.Context, campaignID int64) (bool, error) {
	// The WHERE status='scheduled' clause is the claim: it is atomic at the
	// storage layer, so only one caller sees rows affected.
	res, err := r.DB.ExecContext(ctx,
		`UPDATE campaigns SET status='sent', updated_at=NOW() WHERE id=$1 AND status='scheduled'`,
		campaignID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *CampaignRepository) MarkSent(ctx context.Context, campaignID int64, sentAt time.Time) error {
	// A failed campaign stays failed.
	_, err := r.DB.ExecContext(ctx,
		`UPDATE campaigns SET status='sent', sent_at=$1, updated_at=NOW() WHERE id=$2 AND status <> 'failed'`,
		sentAt, campaignID,
	)
	return err
}

func (r *CampaignRepository) MarkFailed(ctx context.Context, campaignID int64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE campaigns SET status='failed', updated_at=NOW() WHERE id=$1`,
		campaignID,
	)
	return err
}

// ====================== Recipients ======================

func (r *CampaignRepository) ListPendingRecipients(ctx context.Context, campaignID int64) ([]PendingRecipient, error) {
	query := `
        SELECT cr.id, cr.customer_id, c.email, c.first_name, c.last_name
        FROM campaign_recipients cr
        JOIN customers c ON c.id = cr.customer_id
        WHERE cr.campaign_id = $1 AND cr.status = 'pending'
        ORDER BY cr.id
    `
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := []PendingRecipient{}
	for rows.Next() {
		var p PendingRecipient
		if err := rows.Scan(&p.RecipientID, &p.CustomerID, &p.Email, &p.FirstName, &p.LastName); err != nil {
			return nil, err
		}
		recipients = append(recipients, p)
	}
	return recipients, rows.Err()
}

func (r *CampaignRepository) MarkRecipientSent(ctx context.Context, recipientID int64, sentAt time.Time, providerMessageID string) error {
	// Terminal states never move again, hence the status='pending' guard.
	_, err := r.DB.ExecContext(ctx,
		`UPDATE campaign_recipients SET status='sent', sent_at=$1, provider_message_id=$2, updated_at=NOW() WHERE id=$3 AND status='pending'`,
		sentAt, providerMessageID, recipientID,
	)
	return err
}

func (r *CampaignRepository) MarkRecipientFailed(ctx context.Context, recipientID int64, failedAt time.Time, reason string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE campaign_recipients SET status='failed', sent_at=$1, last_error=$2, updated_at=NOW() WHERE id=$3 AND status='pending'`,
		failedAt, reason, recipientID,
	)
	return err
}

func (r *CampaignRepository) MarkAllPendingRecipientsFailed(ctx context.Context, campaignID int64, reason string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE campaign_recipients SET status='failed', last_error=$1, updated_at=NOW() WHERE campaign_id=$2 AND status='pending'`,
		reason, campaignID,
	)
	return err
}

func (r *CampaignRepository) CountRecipientsByStatus(ctx context.Context, campaignID int64) (model.RecipientCounts, error) {
	query := `SELECT status, COUNT(*) FROM campaign_recipients WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return model.RecipientCounts{}, err
	}
	defer rows.Close()

	var counts model.RecipientCounts
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return model.RecipientCounts{}, err
		}
		switch status {
		case model.RecipientStatusPending:
			counts.Pending = n
		case model.RecipientStatusSent:
			counts.Sent = n
		case model.RecipientStatusFailed:
			counts.Failed = n
		}
	}
	return counts, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
