package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/dhobighat/dhobighat/internal/domain/auth"
	"github.com/dhobighat/dhobighat/internal/domain/catalog"
	"github.com/dhobighat/dhobighat/internal/domain/coupon"
	"github.com/dhobighat/dhobighat/internal/domain/customer"
	"github.com/dhobighat/dhobighat/internal/domain/order"
	"github.com/dhobighat/dhobighat/internal/domain/review"
)

// errorResponse is the envelope returned for every failed request.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var errBadBody = errors.New("invalid request body")

// errBadValue builds a field-constraint error for checks that validator
// struct tags cannot express.
func errBadValue(msg string) error {
	return errors.New(msg)
}

// validationError wraps a validator.v10 error so mapError can classify it.
type validationError struct {
	cause error
}

func (e *validationError) Error() string { return e.cause.Error() }

// writeError maps a domain error to an HTTP status and writes the error
// envelope. Anything unrecognized is a store-level failure: logged and
// surfaced as 500 without leaking internals.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := classify(err)
	if code == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		msg = "internal server error"
	}
	writeJSON(w, code, errorResponse{Code: code, Message: msg})
}

func classify(err error) (int, string) {
	var vErr *validationError
	switch {
	case errors.Is(err, errBadBody), errors.As(err, &vErr):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, customer.ErrBadPassword):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, customer.ErrEmailTaken):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, coupon.ErrNotFound):
		return http.StatusNotFound, err.Error()

	// The usage-limit race lost at commit time is a conflict: the coupon
	// looked valid at pricing but another checkout took the last slot.
	case errors.Is(err, coupon.ErrUsageExhausted):
		return http.StatusConflict, coupon.ErrUsageExhausted.Error()

	case errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrExpired),
		isCouponBelowMinimum(err),
		errors.Is(err, order.ErrEmptyItems),
		isOrderValidation(err),
		errors.Is(err, review.ErrInvalidRating),
		errors.Is(err, review.ErrNotDelivered),
		errors.Is(err, review.ErrAlreadyReviewed):
		return http.StatusUnprocessableEntity, err.Error()

	default:
		var itErr *order.InvalidTransitionError
		if errors.As(err, &itErr) {
			return http.StatusUnprocessableEntity, itErr.Error()
		}
		return http.StatusInternalServerError, err.Error()
	}
}

func isCouponBelowMinimum(err error) bool {
	var bmErr *coupon.BelowMinimumError
	return errors.As(err, &bmErr)
}

func isOrderValidation(err error) bool {
	var (
		iqErr *order.InvalidQuantityError
		ipErr *order.InvalidPriceError
	)
	return errors.As(err, &iqErr) || errors.As(err, &ipErr)
}
