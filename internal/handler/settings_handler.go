package handler

import (
	"encoding/json"
	"net/http"

	"github.com/asaskevich/govalidator"

	"github.com/floracrm/flowershop-backend/internal/repository"
)

// SettingsHandler manages the shop's sender identity, which feeds the From
// header and the {{shopName}} merge tag.
type SettingsHandler struct {
	ShopRepo repository.ShopRepositoryInterface
}

func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"shopName":    shop.Name,
		"senderName":  shop.SenderName,
		"senderEmail": shop.SenderEmail,
	})
}

func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var body struct {
		SenderName  string `json:"senderName"`
		SenderEmail string `json:"senderEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !govalidator.IsEmail(body.SenderEmail) {
		respondError(w, http.StatusBadRequest, "a valid senderEmail is required")
		return
	}

	if err := h.ShopRepo.UpdateSenderIdentity(r.Context(), shop.ID, body.SenderName, body.SenderEmail); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"senderName":  body.SenderName,
		"senderEmail": body.SenderEmail,
	})
}
