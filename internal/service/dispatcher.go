package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	appErrors "github.com/floracrm/flowershop-backend/internal/errors"
	"github.com/floracrm/flowershop-backend/internal/mailer"
	"github.com/floracrm/flowershop-backend/internal/model"
	"github.com/floracrm/flowershop-backend/internal/repository"
)

const (
	defaultBatchSize          = 50
	defaultBatchDelay         = time.Second
	defaultMaxConcurrentSends = 10
)

// Dispatcher sends a campaign's pending emails in throttled batches.
// Batches run sequentially with a fixed delay in between; within a batch at
// most MaxConcurrentSends provider calls are in flight at once. BatchSize
// paces the overall send rate, MaxConcurrentSends bounds the connection
// fan-out, so the two are configured independently.
type Dispatcher struct {
	CampaignRepo       repository.CampaignRepositoryInterface
	Sender             mailer.Sender
	BatchSize          int
	BatchDelay         time.Duration
	MaxConcurrentSends int
	Logger             zerolog.Logger
}

func NewDispatcher(campaignRepo repository.CampaignRepositoryInterface, sender mailer.Sender, batchSize int, batchDelay time.Duration, maxConcurrentSends int, logger zerolog.Logger) *Dispatcher {
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}
	if batchDelay < 0 {
		batchDelay = defaultBatchDelay
	}
	if maxConcurrentSends < 1 {
		maxConcurrentSends = defaultMaxConcurrentSends
	}
	return &Dispatcher{
		CampaignRepo:       campaignRepo,
		Sender:             sender,
		BatchSize:          batchSize,
		BatchDelay:         batchDelay,
		MaxConcurrentSends: maxConcurrentSends,
		Logger:             logger,
	}
}

// Dispatch runs one full dispatch pass for the campaign. Its observable
// result is persisted state: each recipient row ends up sent or failed, and
// the campaign ends up sent (pass completed, regardless of per-recipient
// failures) or failed (sender unconfigured). Errors from individual sends
// never abort the pass.
func (d *Dispatcher) Dispatch(ctx context.Context, campaign *model.Campaign, shop *model.Shop) error {
	log := d.Logger.With().Int64("campaign_id", campaign.ID).Logger()

	// Defense in depth: the creation path already checks this, but the
	// configuration can change between creation and a scheduled send.
	// Recipients are backfilled as failed rather than left pending forever.
	if !d.Sender.IsConfigured() {
		log.Error().Msg("email sender unconfigured, failing campaign")
		if err := d.CampaignRepo.MarkAllPendingRecipientsFailed(ctx, campaign.ID, appErrors.ErrSenderUnconfigured.Error()); err != nil {
			log.Error().Err(err).Msg("failed to fail pending recipients")
		}
		return d.CampaignRepo.MarkFailed(ctx, campaign.ID)
	}

	recipients, err := d.CampaignRepo.ListPendingRecipients(ctx, campaign.ID)
	if err != nil {
		return err
	}
	log.Info().Int("recipients", len(recipients)).Msg("starting dispatch pass")

	sem := semaphore.NewWeighted(int64(d.MaxConcurrentSends))
	for start := 0; start < len(recipients); start += d.BatchSize {
		if start > 0 && d.BatchDelay > 0 {
			time.Sleep(d.BatchDelay)
		}
		end := start + d.BatchSize
		if end > len(recipients) {
			end = len(recipients)
		}
		d.sendBatch(ctx, campaign, shop, recipients[start:end], sem)
	}

	if err := d.CampaignRepo.MarkSent(ctx, campaign.ID, time.Now()); err != nil {
		return err
	}
	log.Info().Msg("dispatch pass completed")
	return nil
}

func (d *Dispatcher) sendBatch(ctx context.Context, campaign *model.Campaign, shop *model.Shop, batch []repository.PendingRecipient, sem *semaphore.Weighted) {
	done := make(chan struct{}, len(batch))
	for _, recipient := range batch {
		if err := sem.Acquire(ctx, 1); err != nil {
			done <- struct{}{}
			continue
		}
		go func(recipient repository.PendingRecipient) {
			defer sem.Release(1)
			defer func() { done <- struct{}{} }()
			d.sendOne(ctx, campaign, shop, recipient)
		}(recipient)
	}
	for range batch {
		<-done
	}
}

// sendOne personalizes, validates and sends a single email. Any failure is
// recorded on that recipient's row only.
func (d *Dispatcher) sendOne(ctx context.Context, campaign *model.Campaign, shop *model.Shop, recipient repository.PendingRecipient) {
	log := d.Logger.With().Int64("campaign_id", campaign.ID).Int64("recipient_id", recipient.RecipientID).Logger()

	data := MergeData{
		FirstName: recipient.FirstName,
		LastName:  recipient.LastName,
		Email:     recipient.Email,
		ShopName:  shop.Name,
	}
	subject := ReplaceMergeTags(campaign.Subject, data)
	body := ReplaceMergeTags(campaign.Body, data)

	if !strings.Contains(recipient.Email, "@") {
		d.failRecipient(ctx, log, recipient.RecipientID, "invalid email address: "+recipient.Email)
		return
	}

	providerID, err := d.Sender.Send(ctx, mailer.Email{
		FromName:  shop.SenderName,
		FromEmail: shop.SenderEmail,
		To:        recipient.Email,
		Subject:   subject,
		HTML:      body,
	})
	if err != nil {
		d.failRecipient(ctx, log, recipient.RecipientID, err.Error())
		return
	}

	if err := d.CampaignRepo.MarkRecipientSent(ctx, recipient.RecipientID, time.Now(), providerID); err != nil {
		// A persistence failure here is itself a per-recipient problem; the
		// rest of the batch continues.
		log.Error().Err(err).Msg("failed to record sent status")
	}
}

func (d *Dispatcher) failRecipient(ctx context.Context, log zerolog.Logger, recipientID int64, reason string) {
	log.Warn().Str("reason", reason).Msg("recipient send failed")
	if err := d.CampaignRepo.MarkRecipientFailed(ctx, recipientID, time.Now(), reason); err != nil {
		log.Error().Err(err).Msg("failed to record failed status")
	}
}
