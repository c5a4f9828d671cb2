package handler

import (
	"net/http"
	"time"

	"github.com/dhobighat/dhobighat/internal/domain/customer"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type addressRequest struct {
	Label      string `json:"label"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Default    bool   `json:"isDefault"`
}

type customerResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	Role      string            `json:"role"`
	Addresses []addressResponse `json:"addresses"`
	CreatedAt time.Time         `json:"createdAt"`
}

type addressResponse struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Default    bool   `json:"isDefault"`
}

type sessionResponse struct {
	Token    string           `json:"token"`
	Customer customerResponse `json:"customer"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.accounts.Register(r.Context(), customer.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	token, err := h.sessions.Issue(r.Context(), c.ID, c.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		Token:    token,
		Customer: toCustomerResponse(c),
	})
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	token, err := h.sessions.Issue(r.Context(), c.ID, c.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Token:    token,
		Customer: toCustomerResponse(c),
	})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Revoke(r.Context(), bearerToken(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	c, err := h.accounts.Get(r.Context(), actor.CustomerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(c))
}

// AddAddress handles POST /auth/addresses.
func (h *Handler) AddAddress(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	var req addressRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	addr, err := h.accounts.AddAddress(r.Context(), actor.CustomerID, customer.Address{
		Label:      req.Label,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Default:    req.Default,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAddressResponse(*addr))
}

func toCustomerResponse(c *customer.Customer) customerResponse {
	addrs := make([]addressResponse, len(c.Addresses))
	for i, a := range c.Addresses {
		addrs[i] = toAddressResponse(a)
	}
	return customerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Role:      string(c.Role),
		Addresses: addrs,
		CreatedAt: c.CreatedAt,
	}
}

func toAddressResponse(a customer.Address) addressResponse {
	return addressResponse{
		ID:         a.ID,
		Label:      a.Label,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Default:    a.Default,
	}
}
