package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dhobighat/dhobighat/internal/domain/coupon"
)

type validateCouponRequest struct {
	Code     string          `json:"code" validate:"required"`
	Subtotal decimal.Decimal `json:"subtotal" validate:"required"`
}

type validateCouponResponse struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

type couponRequest struct {
	Code        string           `json:"code" validate:"required,min=3,max=32"`
	Kind        string           `json:"kind" validate:"required,oneof=percentage fixed"`
	Value       decimal.Decimal  `json:"value" validate:"required"`
	MinOrder    decimal.Decimal  `json:"minOrder"`
	MaxDiscount *decimal.Decimal `json:"maxDiscount,omitempty"`
	ValidFrom   time.Time        `json:"validFrom" validate:"required"`
	ValidUntil  time.Time        `json:"validUntil" validate:"required"`
	UsageLimit  int              `json:"usageLimit" validate:"min=0"`
	Active      bool             `json:"isActive"`
	Description string           `json:"description"`
}

type couponResponse struct {
	Code        string           `json:"code"`
	Kind        string           `json:"kind"`
	Value       decimal.Decimal  `json:"value"`
	MinOrder    decimal.Decimal  `json:"minOrder"`
	MaxDiscount *decimal.Decimal `json:"maxDiscount,omitempty"`
	ValidFrom   time.Time        `json:"validFrom"`
	ValidUntil  time.Time        `json:"validUntil"`
	UsageLimit  int              `json:"usageLimit"`
	UsedCount   int              `json:"usedCount"`
	Active      bool             `json:"isActive"`
	Description string           `json:"description"`
}

// ValidateCoupon handles POST /coupons/validate: a read-only preview of
// the discount a code would yield for a given subtotal. No usage slot is
// consumed here.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	discount, err := h.quotes.Validate(r.Context(), req.Code, req.Subtotal)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, validateCouponResponse{
		Code:     coupon.NormalizeCode(req.Code),
		Discount: discount,
	})
}

// ListActiveCoupons handles GET /coupons: the public listing of currently
// active coupons shown on the offers page.
func (h *Handler) ListActiveCoupons(w http.ResponseWriter, r *http.Request) {
	list, err := h.coupons.List(r.Context(), false)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]couponResponse, len(list))
	for i := range list {
		resp[i] = toCouponResponse(&list[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListCoupons handles GET /admin/coupons.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	list, err := h.coupons.List(r.Context(), true)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]couponResponse, len(list))
	for i := range list {
		resp[i] = toCouponResponse(&list[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateCoupon handles POST /admin/coupons.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validateCouponRule(&req); err != nil {
		h.writeError(w, r, err)
		return
	}

	c := toCoupon(&req)
	if err := h.coupons.Create(r.Context(), c); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCouponResponse(c))
}

// UpdateCoupon handles PUT /admin/coupons/{code}.
func (h *Handler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.Code = chi.URLParam(r, "code")
	if err := validateCouponRule(&req); err != nil {
		h.writeError(w, r, err)
		return
	}

	c := toCoupon(&req)
	if err := h.coupons.Update(r.Context(), c); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCouponResponse(c))
}

// DeleteCoupon handles DELETE /admin/coupons/{code}. Coupons are
// deactivated, never physically deleted, because orders may reference
// the code.
func (h *Handler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.coupons.Deactivate(r.Context(), chi.URLParam(r, "code")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "coupon deactivated"})
}

// validateCouponRule checks the cross-field constraints the struct tags
// cannot express.
func validateCouponRule(req *couponRequest) error {
	switch {
	case !req.Value.IsPositive():
		return &validationError{cause: errBadValue("value must be positive")}
	case req.Kind == string(coupon.KindPercentage) && req.Value.GreaterThan(decimal.NewFromInt(100)):
		return &validationError{cause: errBadValue("percentage value must be at most 100")}
	case req.MinOrder.IsNegative():
		return &validationError{cause: errBadValue("minOrder must not be negative")}
	case req.MaxDiscount != nil && !req.MaxDiscount.IsPositive():
		return &validationError{cause: errBadValue("maxDiscount must be positive")}
	case req.ValidUntil.Before(req.ValidFrom):
		return &validationError{cause: errBadValue("validUntil must not be before validFrom")}
	}
	return nil
}

func toCoupon(req *couponRequest) *coupon.Coupon {
	return &coupon.Coupon{
		Code:        coupon.NormalizeCode(req.Code),
		Kind:        coupon.DiscountKind(req.Kind),
		Value:       req.Value,
		MinOrder:    req.MinOrder,
		MaxDiscount: req.MaxDiscount,
		ValidFrom:   req.ValidFrom,
		ValidUntil:  req.ValidUntil,
		UsageLimit:  req.UsageLimit,
		Active:      req.Active,
		Description: req.Description,
	}
}

func toCouponResponse(c *coupon.Coupon) couponResponse {
	return couponResponse{
		Code:        c.Code,
		Kind:        string(c.Kind),
		Value:       c.Value,
		MinOrder:    c.MinOrder,
		MaxDiscount: c.MaxDiscount,
		ValidFrom:   c.ValidFrom,
		ValidUntil:  c.ValidUntil,
		UsageLimit:  c.UsageLimit,
		UsedCount:   c.UsedCount,
		Active:      c.Active,
		Description: c.Description,
	}
}
