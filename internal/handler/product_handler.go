package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/floracrm/flowershop-backend/internal/model"
	"github.com/floracrm/flowershop-backend/internal/repository"
)

type ProductHandler struct {
	ShopRepo    repository.ShopRepositoryInterface
	ProductRepo repository.ProductRepositoryInterface
}

type productPayload struct {
	Name       string `json:"name"`
	SKU        string `json:"sku"`
	PriceCents int64  `json:"priceCents"`
	Stock      int    `json:"stock"`
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var body productPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	product := &model.Product{
		ShopID:     shop.ID,
		Name:       body.Name,
		SKU:        body.SKU,
		PriceCents: body.PriceCents,
		Stock:      body.Stock,
	}
	if err := h.ProductRepo.Create(r.Context(), product); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	products, err := h.ProductRepo.ListByShop(r.Context(), shop.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": products})
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	product, err := h.ProductRepo.GetByID(r.Context(), shop.ID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if product == nil {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}

	var body productPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	product.Name = body.Name
	product.SKU = body.SKU
	product.PriceCents = body.PriceCents
	product.Stock = body.Stock

	if err := h.ProductRepo.Update(r.Context(), product); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	if err := h.ProductRepo.Delete(r.Context(), shop.ID, id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
