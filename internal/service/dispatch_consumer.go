package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/floracrm/flowershop-backend/internal/queue"
	"github.com/floracrm/flowershop-backend/internal/repository"
)

// DispatchJobHandler adapts the dispatcher to the queue: it loads the
// campaign and its shop for a job and runs one dispatch pass. Registered on
// the in-memory queue by the server, and on AMQP by the worker.
func DispatchJobHandler(campaignRepo repository.CampaignRepositoryInterface, shopRepo repository.ShopRepositoryInterface, dispatcher *Dispatcher, logger zerolog.Logger) func(ctx context.Context, job queue.DispatchJob) error {
	return func(ctx context.Context, job queue.DispatchJob) error {
		campaign, err := campaignRepo.GetByIDUnscoped(ctx, job.CampaignID)
		if err != nil {
			logger.Error().Err(err).Int64("campaign_id", job.CampaignID).Msg("failed to load campaign for dispatch job")
			return err
		}
		shop, err := shopRepo.GetByID(ctx, campaign.ShopID)
		if err != nil {
			logger.Error().Err(err).Int64("campaign_id", job.CampaignID).Msg("failed to load shop for dispatch job")
			return err
		}
		return dispatcher.Dispatch(ctx, campaign, shop)
	}
}
