package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/floracrm/flowershop-backend/internal/repository"
	"github.com/floracrm/flowershop-backend/internal/service"
)

type CampaignHandler struct {
	ShopRepo repository.ShopRepositoryInterface
	Service  *service.CampaignService
}

func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var body struct {
		CampaignName string  `json:"campaignName"`
		Subject      string  `json:"subject"`
		EmailBody    string  `json:"emailBody"`
		AudienceType string  `json:"audienceType"`
		AudienceID   *int64  `json:"audienceId"`
		CustomerID   *int64  `json:"customerId"`
		SendNow      bool    `json:"sendNow"`
		ScheduledFor *string `json:"scheduledFor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.CampaignName == "" || body.Subject == "" || body.EmailBody == "" {
		respondError(w, http.StatusBadRequest, "campaignName, subject and emailBody are required")
		return
	}

	desc := service.AudienceDescriptor{Type: body.AudienceType}
	switch {
	case body.CustomerID != nil:
		// A bare customerId is a single-recipient test send.
		desc.Type = service.AudienceTypeCustomer
		desc.CustomerID = *body.CustomerID
	case body.AudienceType == service.AudienceTypeAudience:
		if body.AudienceID == nil {
			respondError(w, http.StatusBadRequest, "audienceId is required for audienceType \"audience\"")
			return
		}
		desc.AudienceID = *body.AudienceID
	case body.AudienceType == service.AudienceTypeAll:
	default:
		respondError(w, http.StatusBadRequest, "unknown audienceType")
		return
	}

	in := service.CreateCampaignInput{
		Name:     body.CampaignName,
		Subject:  body.Subject,
		Body:     body.EmailBody,
		Audience: desc,
		SendNow:  body.SendNow,
	}
	if body.ScheduledFor != nil {
		t, err := time.Parse(time.RFC3339, *body.ScheduledFor)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid scheduledFor timestamp")
			return
		}
		in.ScheduledFor = &t
	}

	userID, _ := userIDFrom(r.Context())
	campaign, err := h.Service.CreateCampaign(r.Context(), shop.ID, userID, in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, campaign)
}

func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := h.Service.ListCampaigns(r.Context(), shop.ID, page, pageSize, status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	campaign, err := h.Service.GetCampaign(r.Context(), shop.ID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, campaign)
}

// GetCampaignStatus is polled by clients while a campaign is scheduled or
// has pending recipients.
func (h *CampaignHandler) GetCampaignStatus(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	status, err := h.Service.GetCampaignStatus(r.Context(), shop.ID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}
