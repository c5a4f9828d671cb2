// Package handler exposes the domain services over HTTP.
//
// Request bodies are decoded into typed DTOs and validated with
// go-playground/validator before they reach the domain layer; the domain
// never sees a loosely-typed map.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dhobighat/dhobighat/internal/domain/auth"
	"github.com/dhobighat/dhobighat/internal/domain/catalog"
	"github.com/dhobighat/dhobighat/internal/domain/coupon"
	"github.com/dhobighat/dhobighat/internal/domain/customer"
	"github.com/dhobighat/dhobighat/internal/domain/order"
	"github.com/dhobighat/dhobighat/internal/domain/review"
)

// Handler bundles the domain services behind the HTTP surface.
type Handler struct {
	accounts *customer.Account
	sessions *auth.Sessions
	catalog  catalog.Repository
	coupons  coupon.Repository
	quotes   coupon.Validator
	orders   *order.Service
	reviews  *review.Service
	validate *validator.Validate
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	accounts *customer.Account,
	sessions *auth.Sessions,
	catalogRepo catalog.Repository,
	coupons coupon.Repository,
	quotes coupon.Validator,
	orders *order.Service,
	reviews *review.Service,
) *Handler {
	return &Handler{
		accounts: accounts,
		sessions: sessions,
		catalog:  catalogRepo,
		coupons:  coupons,
		quotes:   quotes,
		orders:   orders,
		reviews:  reviews,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Routes builds the chi router for the API.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(h.RequireAuth).Post("/logout", h.Logout)
		r.With(h.RequireAuth).Get("/me", h.Me)
		r.With(h.RequireAuth).Post("/addresses", h.AddAddress)
	})

	r.Get("/services", h.ListServices)

	r.Route("/orders", func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Post("/", h.PlaceOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Get("/{id}/history", h.OrderHistory)
	})

	r.Get("/coupons", h.ListActiveCoupons)
	r.Post("/coupons/validate", h.ValidateCoupon)

	r.Route("/reviews", func(r chi.Router) {
		r.Get("/", h.ListReviews)
		r.With(h.RequireAuth).Post("/", h.CreateReview)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.RequireAuth, h.RequireAdmin)

		r.Put("/orders/{id}/status", h.UpdateOrderStatus)

		r.Get("/coupons", h.ListCoupons)
		r.Post("/coupons", h.CreateCoupon)
		r.Put("/coupons/{code}", h.UpdateCoupon)
		r.Delete("/coupons/{code}", h.DeleteCoupon)

		r.Post("/services", h.CreateService)
		r.Put("/services/{id}", h.UpdateService)
		r.Delete("/services/{id}", h.DeleteService)
	})

	return r
}

// decode reads and validates a JSON request body into dst.
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errBadBody
	}
	if err := h.validate.Struct(dst); err != nil {
		return &validationError{cause: err}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
