package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dhobighat/dhobighat/internal/domain/catalog"
)

type serviceRequest struct {
	Name        string          `json:"name" validate:"required"`
	Category    string          `json:"category" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Active      bool            `json:"isActive"`
}

type serviceResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Active      bool            `json:"isActive"`
}

// ListServices handles GET /services: the active catalog customers order
// from.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.List(r.Context(), false)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]serviceResponse, len(list))
	for i, s := range list {
		resp[i] = toServiceResponse(&s)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateService handles POST /admin/services.
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Price.IsNegative() {
		h.writeError(w, r, &validationError{cause: errBadValue("price must not be negative")})
		return
	}

	s := toService(&req)
	s.ID = uuid.NewString()
	if err := h.catalog.Create(r.Context(), s); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toServiceResponse(s))
}

// UpdateService handles PUT /admin/services/{id}.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Price.IsNegative() {
		h.writeError(w, r, &validationError{cause: errBadValue("price must not be negative")})
		return
	}

	s := toService(&req)
	s.ID = chi.URLParam(r, "id")
	if err := h.catalog.Update(r.Context(), s); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toServiceResponse(s))
}

// DeleteService handles DELETE /admin/services/{id} via soft delete.
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "service deactivated"})
}

func toService(req *serviceRequest) *catalog.Service {
	icon := req.Icon
	if icon == "" {
		icon = "Shirt"
	}
	return &catalog.Service{
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		Description: req.Description,
		Icon:        icon,
		Active:      req.Active,
	}
}

func toServiceResponse(s *catalog.Service) serviceResponse {
	return serviceResponse{
		ID:          s.ID,
		Name:        s.Name,
		Category:    s.Category,
		Price:       s.Price,
		Description: s.Description,
		Icon:        s.Icon,
		Active:      s.Active,
	}
}
