package appErrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions the HTTP layer maps to response codes.
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrShopNotFound       = errors.New("no shop found for current user")
	ErrNoRecipients       = errors.New("audience resolved to zero recipients; campaign not created")
	ErrSenderUnconfigured = errors.New("email sender is not configured")
)

// ErrCampaignNotFound carries the missing campaign id.
type ErrCampaignNotFound struct {
	CampaignID int64
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

func NewCampaignNotFound(id int64) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

type ErrAudienceNotFound struct {
	AudienceID int64
}

func (e *ErrAudienceNotFound) Error() string {
	return fmt.Sprintf("audience with ID %d not found", e.AudienceID)
}

func NewAudienceNotFound(id int64) error {
	return &ErrAudienceNotFound{AudienceID: id}
}

type ErrCustomerNotFound struct {
	CustomerID int64
}

func (e *ErrCustomerNotFound) Error() string {
	return fmt.Sprintf("customer with ID %d not found", e.CustomerID)
}

func NewCustomerNotFound(id int64) error {
	return &ErrCustomerNotFound{CustomerID: id}
}

// IsNotFound reports whether err is any of the not-found conditions.
func IsNotFound(err error) bool {
	var ec *ErrCampaignNotFound
	var ea *ErrAudienceNotFound
	var ecu *ErrCustomerNotFound
	return errors.Is(err, ErrShopNotFound) || errors.As(err, &ec) || errors.As(err, &ea) || errors.As(err, &ecu)
}
