package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/floracrm/flowershop-backend/internal/repository"
)

// Scheduler moves due scheduled campaigns into dispatch. It is polled on an
// external interval and is safe to invoke repeatedly and concurrently: the
// conditional claim in the repository guarantees each campaign is dispatched
// at most once, however often or rarely the poll fires.
type Scheduler struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ShopRepo     repository.ShopRepositoryInterface
	Dispatcher   *Dispatcher
	Logger       zerolog.Logger
}

// ProcessScheduledCampaigns claims and dispatches every campaign whose
// scheduled time has passed, returning how many this invocation dispatched.
// Zero eligible campaigns is a no-op.
func (s *Scheduler) ProcessScheduledCampaigns(ctx context.Context, now time.Time) (int, error) {
	due, err := s.CampaignRepo.ListDue(ctx, now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range due {
		campaign := &due[i]
		log := s.Logger.With().Int64("campaign_id", campaign.ID).Logger()

		// Claim before dispatching. A concurrent run that lost the claim
		// sees zero rows affected and skips the campaign.
		claimed, err := s.CampaignRepo.ClaimScheduled(ctx, campaign.ID)
		if err != nil {
			log.Error().Err(err).Msg("failed to claim scheduled campaign")
			continue
		}
		if !claimed {
			log.Info().Msg("campaign already claimed, skipping")
			continue
		}

		shop, err := s.ShopRepo.GetByID(ctx, campaign.ShopID)
		if err != nil {
			log.Error().Err(err).Msg("failed to load shop for claimed campaign")
			if err := s.CampaignRepo.MarkFailed(ctx, campaign.ID); err != nil {
				log.Error().Err(err).Msg("failed to mark campaign failed")
			}
			continue
		}

		// The recipient set was frozen at creation; nothing is re-resolved.
		if err := s.Dispatcher.Dispatch(ctx, campaign, shop); err != nil {
			log.Error().Err(err).Msg("dispatch pass failed")
			continue
		}
		processed++
	}
	return processed, nil
}
