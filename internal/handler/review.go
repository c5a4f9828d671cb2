package handler

import (
	"net/http"
	"time"
)

type createReviewRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

type reviewResponse struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"orderId"`
	CustomerID string    `json:"customerId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ListReviews handles GET /reviews.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	list, err := h.reviews.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]reviewResponse, len(list))
	for i, rv := range list {
		resp[i] = reviewResponse{
			ID:         rv.ID,
			OrderID:    rv.OrderID,
			CustomerID: rv.CustomerID,
			Rating:     rv.Rating,
			Comment:    rv.Comment,
			CreatedAt:  rv.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateReview handles POST /reviews. Only the customer who placed a
// delivered order may review it.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	var req createReviewRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	rv, err := h.reviews.Create(r.Context(), actor.CustomerID, req.OrderID, req.Rating, req.Comment)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, reviewResponse{
		ID:         rv.ID,
		OrderID:    rv.OrderID,
		CustomerID: rv.CustomerID,
		Rating:     rv.Rating,
		Comment:    rv.Comment,
		CreatedAt:  rv.CreatedAt,
	})
}
