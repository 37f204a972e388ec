package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/floracrm/flowershop-backend/internal/errors"
	"github.com/floracrm/flowershop-backend/internal/mailer"
	"github.com/floracrm/flowershop-backend/internal/model"
	"github.com/floracrm/flowershop-backend/internal/queue"
	"github.com/floracrm/flowershop-backend/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ShopRepo     repository.ShopRepositoryInterface
	Audiences    *AudienceService
	Queue        queue.Queue
	Sender       mailer.Sender
	Logger       zerolog.Logger
}

// CreateCampaignInput is the creation request after HTTP decoding.
type CreateCampaignInput struct {
	Name         string
	Subject      string
	Body         string
	Audience     AudienceDescriptor
	SendNow      bool
	ScheduledFor *time.Time
}

// CampaignStatus is what the external poller sees: the campaign status plus
// per-recipient delivery counts.
type CampaignStatus struct {
	CampaignID int64                 `json:"campaign_id"`
	Status     string                `json:"status"`
	Recipients model.RecipientCounts `json:"recipients"`
}

// CreateCampaign resolves the audience once, freezes it into recipient rows
// and determines the initial status. The recipient set never changes after
// this call, no matter how the audience is mutated later.
//
// Dispatch (for SendNow) is asynchronous: this returns before any email goes
// out, and send failures are only observable via GetCampaignStatus.
func (s *CampaignService) CreateCampaign(ctx context.Context, shopID, userID int64, in CreateCampaignInput) (*model.Campaign, error) {
	customers, err := s.Audiences.Resolve(ctx, shopID, in.Audience)
	if err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return nil, appErrors.ErrNoRecipients
	}

	campaign := &model.Campaign{
		ShopID:       shopID,
		UserID:       userID,
		Name:         in.Name,
		Subject:      in.Subject,
		Body:         in.Body,
		AudienceType: in.Audience.Type,
		Status:       model.CampaignStatusDraft,
		ScheduledFor: in.ScheduledFor,
	}
	if in.Audience.Type == AudienceTypeAudience {
		id := in.Audience.AudienceID
		campaign.AudienceID = &id
	}

	sendNow := false
	switch {
	case in.ScheduledFor != nil:
		campaign.Status = model.CampaignStatusScheduled
	case in.SendNow:
		// Sent is claimed optimistically; the dispatch pass confirms it.
		campaign.Status = model.CampaignStatusSent
		sendNow = true
	}

	customerIDs := make([]int64, 0, len(customers))
	for _, c := range customers {
		customerIDs = append(customerIDs, c.ID)
	}
	if err := s.CampaignRepo.CreateWithRecipients(ctx, campaign, customerIDs); err != nil {
		return nil, err
	}

	if sendNow {
		// The creation itself succeeded at this point; a send failure is a
		// campaign-status matter, never a creation error.
		if !s.Sender.IsConfigured() {
			s.Logger.Error().Int64("campaign_id", campaign.ID).Msg("email sender unconfigured, campaign marked failed")
			s.failCampaign(ctx, campaign, appErrors.ErrSenderUnconfigured.Error())
			return campaign, nil
		}
		if err := s.Queue.Publish(ctx, queue.DispatchJob{CampaignID: campaign.ID}); err != nil {
			s.Logger.Error().Err(err).Int64("campaign_id", campaign.ID).Msg("failed to enqueue dispatch job")
			s.failCampaign(ctx, campaign, "dispatch job could not be enqueued")
		}
	}

	return campaign, nil
}

func (s *CampaignService) failCampaign(ctx context.Context, campaign *model.Campaign, reason string) {
	if err := s.CampaignRepo.MarkAllPendingRecipientsFailed(ctx, campaign.ID, reason); err != nil {
		s.Logger.Error().Err(err).Int64("campaign_id", campaign.ID).Msg("failed to fail pending recipients")
	}
	if err := s.CampaignRepo.MarkFailed(ctx, campaign.ID); err != nil {
		s.Logger.Error().Err(err).Int64("campaign_id", campaign.ID).Msg("failed to mark campaign failed")
	}
	campaign.Status = model.CampaignStatusFailed
}

func (s *CampaignService) GetCampaign(ctx context.Context, shopID, id int64) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(ctx, shopID, id)
}

// GetCampaignStatus is the read path polled by clients while a campaign is
// scheduled or in flight. Pure read, no mutation.
func (s *CampaignService) GetCampaignStatus(ctx context.Context, shopID, id int64) (*CampaignStatus, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.CampaignRepo.CountRecipientsByStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CampaignStatus{
		CampaignID: campaign.ID,
		Status:     campaign.Status,
		Recipients: counts,
	}, nil
}

// ListCampaigns fetches campaigns with pagination.
func (s *CampaignService) ListCampaigns(ctx context.Context, shopID int64, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	campaigns, total, err := s.CampaignRepo.ListCampaigns(ctx, shopID, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}
	return campaigns, pagination, nil
}
