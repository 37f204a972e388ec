package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	appErrors "github.com/floracrm/flowershop-backend/internal/errors"
	"github.com/floracrm/flowershop-backend/internal/model"
	"github.com/floracrm/flowershop-backend/internal/repository"
)

type CustomerHandler struct {
	ShopRepo     repository.ShopRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
}

type customerPayload struct {
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	VIP             bool    `json:"vip"`
	Birthday        *string `json:"birthday"`
	TotalSpentCents int64   `json:"totalSpentCents"`
}

// apply copies the payload onto the customer. Email validity is checked by
// the handlers before this runs.
func (p *customerPayload) apply(c *model.Customer) error {
	c.FirstName = p.FirstName
	c.LastName = p.LastName
	c.Email = p.Email
	c.Phone = p.Phone
	c.VIP = p.VIP
	c.TotalSpentCents = p.TotalSpentCents
	if p.Birthday != nil {
		t, err := time.Parse("2006-01-02", *p.Birthday)
		if err != nil {
			return err
		}
		c.Birthday = &t
	}
	return nil
}

func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var body customerPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !govalidator.IsEmail(body.Email) {
		respondError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	customer := &model.Customer{ShopID: shop.ID}
	if err := body.apply(customer); err != nil {
		respondError(w, http.StatusBadRequest, "invalid birthday, expected YYYY-MM-DD")
		return
	}

	if err := h.CustomerRepo.Create(r.Context(), customer); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	vipOnly := r.URL.Query().Get("vip") == "true"
	search := r.URL.Query().Get("search")

	customers, total, err := h.CustomerRepo.ListFiltered(r.Context(), shop.ID, vipOnly, search, (page-1)*pageSize, pageSize)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data": customers,
		"pagination": map[string]int{
			"page":        page,
			"page_size":   pageSize,
			"total_count": total,
		},
	})
}

func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	customer, err := h.CustomerRepo.GetByID(r.Context(), shop.ID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if customer == nil {
		respondServiceError(w, appErrors.NewCustomerNotFound(id))
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	customer, err := h.CustomerRepo.GetByID(r.Context(), shop.ID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if customer == nil {
		respondServiceError(w, appErrors.NewCustomerNotFound(id))
		return
	}

	var body customerPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !govalidator.IsEmail(body.Email) {
		respondError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if err := body.apply(customer); err != nil {
		respondError(w, http.StatusBadRequest, "invalid birthday, expected YYYY-MM-DD")
		return
	}

	if err := h.CustomerRepo.Update(r.Context(), customer); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	shop, err := currentShop(r.Context(), h.ShopRepo)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	if err := h.CustomerRepo.Delete(r.Context(), shop.ID, id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
