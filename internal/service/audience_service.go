package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/floracrm/flowershop-backend/internal/model"
	"github.com/floracrm/flowershop-backend/internal/repository"
)

// Audience descriptor types stored on campaigns.
const (
	AudienceTypeAll      = "all"      // every customer of the shop
	AudienceTypeAudience = "audience" // a saved audience (predefined rule or custom list)
	AudienceTypeCustomer = "customer" // a single customer, used for test sends
)

// AudienceDescriptor identifies what a campaign targets.
type AudienceDescriptor struct {
	Type       string
	AudienceID int64
	CustomerID int64
}

// Predefined-segment parameters.
const (
	newCustomerWindow   = 30 * 24 * time.Hour
	inactiveWindow      = 90 * 24 * time.Hour
	highSpenderMinCents = 50000
)

type AudienceService struct {
	AudienceRepo repository.AudienceRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	Logger       zerolog.Logger
}

// Resolve turns a descriptor into the concrete customer list it targets.
// Pure read: resolving never mutates anything. A single-customer descriptor
// still yields a list so downstream code needs no branching.
func (s *AudienceService) Resolve(ctx context.Context, shopID int64, desc AudienceDescriptor) ([]model.Customer, error) {
	switch desc.Type {
	case AudienceTypeAll:
		return s.CustomerRepo.ListByShop(ctx, shopID)

	case AudienceTypeCustomer:
		customer, err := s.CustomerRepo.GetByID(ctx, shopID, desc.CustomerID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			// Missing or foreign customers resolve to nobody, same as stale
			// ids in a custom list.
			return []model.Customer{}, nil
		}
		return []model.Customer{*customer}, nil

	case AudienceTypeAudience:
		audience, err := s.AudienceRepo.GetByID(ctx, shopID, desc.AudienceID)
		if err != nil {
			return nil, err
		}
		if audience.Kind == model.AudienceKindPredefined {
			return s.resolvePredefined(ctx, shopID, audience.Name)
		}
		// Custom lists re-fetch against the current customer table scoped to
		// the shop, dropping ids that no longer resolve.
		return s.CustomerRepo.ListByIDs(ctx, shopID, audience.CustomerIDs)

	default:
		return nil, fmt.Errorf("unknown audience descriptor type: %q", desc.Type)
	}
}

// resolvePredefined dispatches on the fixed, case-sensitive segment names.
// An unknown name yields an empty list rather than an error; that keeps a
// misnamed audience from breaking dashboards, at the cost of masking the
// misconfiguration, so it is logged.
func (s *AudienceService) resolvePredefined(ctx context.Context, shopID int64, name string) ([]model.Customer, error) {
	now := time.Now()
	switch name {
	case "All Customers":
		return s.CustomerRepo.ListByShop(ctx, shopID)
	case "New Customers":
		return s.CustomerRepo.ListNew(ctx, shopID, now.Add(-newCustomerWindow))
	case "VIP Customers":
		return s.CustomerRepo.ListVIP(ctx, shopID)
	case "High Spenders":
		return s.CustomerRepo.ListHighSpenders(ctx, shopID, highSpenderMinCents)
	case "Birthday Club":
		return s.CustomerRepo.ListBirthdayMonth(ctx, shopID, now.Month())
	case "Inactive Customers":
		return s.CustomerRepo.ListInactive(ctx, shopID, now.Add(-inactiveWindow))
	default:
		s.Logger.Warn().Str("segment", name).Msg("unknown predefined segment resolves to empty list")
		return []model.Customer{}, nil
	}
}

func (s *AudienceService) CreateAudience(ctx context.Context, a *model.Audience) (*model.Audience, error) {
	if a.Kind != model.AudienceKindPredefined && a.Kind != model.AudienceKindCustom {
		return nil, fmt.Errorf("invalid audience kind: %q", a.Kind)
	}
	if err := s.AudienceRepo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AudienceService) GetAudience(ctx context.Context, shopID, id int64) (*model.Audience, error) {
	return s.AudienceRepo.GetByID(ctx, shopID, id)
}

func (s *AudienceService) ListAudiences(ctx context.Context, shopID int64) ([]model.Audience, error) {
	return s.AudienceRepo.ListByShop(ctx, shopID)
}

func (s *AudienceService) UpdateAudience(ctx context.Context, a *model.Audience) error {
	if _, err := s.AudienceRepo.GetByID(ctx, a.ShopID, a.ID); err != nil {
		return err
	}
	return s.AudienceRepo.Update(ctx, a)
}

func (s *AudienceService) DeleteAudience(ctx context.Context, shopID, id int64) error {
	if _, err := s.AudienceRepo.GetByID(ctx, shopID, id); err != nil {
		return err
	}
	// Deleting an audience never cascades to customers.
	return s.AudienceRepo.Delete(ctx, shopID, id)
}

// AddCustomers admits the candidates that belong to the shop into a custom
// audience's list, deduplicated. Returns how many were actually added, which
// for a mixed valid/foreign input equals the valid-and-new subset size.
func (s *AudienceService) AddCustomers(ctx context.Context, shopID, audienceID int64, customerIDs []int64) (int, error) {
	audience, err := s.AudienceRepo.GetByID(ctx, shopID, audienceID)
	if err != nil {
		return 0, err
	}
	if audience.Kind != model.AudienceKindCustom {
		return 0, fmt.Errorf("audience %d is not a custom audience", audienceID)
	}

	// Tenant check: only ids resolving within this shop are admitted.
	valid, err := s.CustomerRepo.ListByIDs(ctx, shopID, customerIDs)
	if err != nil {
		return 0, err
	}
	validIDs := make([]int64, 0, len(valid))
	for _, c := range valid {
		validIDs = append(validIDs, c.ID)
	}

	added := audience.AddCustomerIDs(validIDs)
	if added == 0 {
		return 0, nil
	}
	if err := s.AudienceRepo.UpdateCustomerIDs(ctx, shopID, audienceID, audience.CustomerIDs); err != nil {
		return 0, err
	}
	return added, nil
}

// RemoveCustomers drops the given ids from a custom audience's list and
// returns how many were removed.
func (s *AudienceService) RemoveCustomers(ctx context.Context, shopID, audienceID int64, customerIDs []int64) (int, error) {
	audience, err := s.AudienceRepo.GetByID(ctx, shopID, audienceID)
	if err != nil {
		return 0, err
	}
	if audience.Kind != model.AudienceKindCustom {
		return 0, fmt.Errorf("audience %d is not a custom audience", audienceID)
	}

	removed := audience.RemoveCustomerIDs(customerIDs)
	if removed == 0 {
		return 0, nil
	}
	if err := s.AudienceRepo.UpdateCustomerIDs(ctx, shopID, audienceID, audience.CustomerIDs); err != nil {
		return 0, err
	}
	return removed, nil
}
