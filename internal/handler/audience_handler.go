package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/floracrm/flowershop-backend/internal/model"
	"github.com/floracrm/flowershop-backend/internal/repository"
	"github.com/floracrm/flowershop-backend/internal/service"
)

type AudienceHandler struct {
	ShopRepo repository.ShopRepositoryInterface
	Service  *service.AudienceService
}

func (h *AudienceHandler) CreateAudience(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Status      string `json:"status"`
		Kind        string `json:"kind"`
		Field       string `json:"field"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name == "" || body.Kind == "" {
		respondError(w, http.StatusBadRequest, "name and kind are required")
		return
	}

	userID, _ := userIDFrom(r.Context())
	audience := &model.Audience{
		ShopID:      shop.ID,
		UserID:      userID,
		Name:        body.Name,
		Description: body.Description,
		Status:      body.Status,
		Kind:        body.Kind,
		Field:       body.Field,
	}
	created, err := h.Service.CreateAudience(r.Context(), audience)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *AudienceHandler) ListAudiences(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	audiences, err := h.Service.ListAudiences(r.Context(), shop.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": audiences})
}

func (h *AudienceHandler) GetAudience(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	audience, err := h.Service.GetAudience(r.Context(), shop.ID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, audience)
}

func (h *AudienceHandler) UpdateAudience(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	audience, err := h.Service.GetAudience(r.Context(), shop.ID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var body struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
		Field       *string `json:"field"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name != nil {
		audience.Name = *body.Name
	}
	if body.Description != nil {
		audience.Description = *body.Description
	}
	if body.Status != nil {
		audience.Status = *body.Status
	}
	if body.Field != nil {
		audience.Field = *body.Field
	}

	if err := h.Service.UpdateAudience(r.Context(), audience); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, audience)
}

func (h *AudienceHandler) DeleteAudience(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	if err := h.Service.DeleteAudience(r.Context(), shop.ID, id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AddCustomers admits shop-owned customer ids into a custom audience. The
// returned added count covers only the admitted subset.
func (h *AudienceHandler) AddCustomers(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	var body struct {
		CustomerIDs []int64 `json:"customerIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	added, err := h.Service.AddCustomers(r.Context(), shop.ID, id, body.CustomerIDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"added": added})
}

func (h *AudienceHandler) RemoveCustomers(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	var body struct {
		CustomerIDs []int64 `json:"customerIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	removed, err := h.Service.RemoveCustomers(r.Context(), shop.ID, id, body.CustomerIDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}
