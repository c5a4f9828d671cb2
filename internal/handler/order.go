package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dhobighat/dhobighat/internal/domain/order"
)

type orderItemRequest struct {
	Garment     string          `json:"garment" validate:"required"`
	Quantity    int             `json:"quantity" validate:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	ServiceType string          `json:"serviceType" validate:"required"`
}

type placeOrderRequest struct {
	Items         []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	Address       addressRequest     `json:"address" validate:"required"`
	PickupDate    string             `json:"pickupDate" validate:"required,datetime=2006-01-02"`
	PickupSlot    string             `json:"pickupSlot" validate:"required"`
	DeliveryDate  string             `json:"deliveryDate" validate:"required,datetime=2006-01-02"`
	DeliverySlot  string             `json:"deliverySlot" validate:"required"`
	PaymentMethod string             `json:"paymentMethod" validate:"omitempty,oneof=cash_on_delivery online"`
	CouponCode    string             `json:"couponCode"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type orderItemResponse struct {
	Garment     string          `json:"garment"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	ServiceType string          `json:"serviceType"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	CustomerID    string              `json:"customerId"`
	Items         []orderItemResponse `json:"items"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Discount      decimal.Decimal     `json:"discount"`
	Total         decimal.Decimal     `json:"total"`
	CouponCode    string              `json:"couponCode,omitempty"`
	Status        string              `json:"status"`
	PickupDate    string              `json:"pickupDate"`
	PickupSlot    string              `json:"pickupSlot"`
	DeliveryDate  string              `json:"deliveryDate"`
	DeliverySlot  string              `json:"deliverySlot"`
	Address       addressResponse     `json:"address"`
	PaymentMethod string              `json:"paymentMethod"`
	PaymentStatus string              `json:"paymentStatus"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

type statusChangeResponse struct {
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changedAt"`
}

const dateLayout = "2006-01-02"

// PlaceOrder handles POST /orders.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	var req placeOrderRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	pickupDate, _ := time.Parse(dateLayout, req.PickupDate)
	deliveryDate, _ := time.Parse(dateLayout, req.DeliveryDate)

	items := make([]order.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.Item{
			Garment:     it.Garment,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			ServiceType: it.ServiceType,
		}
	}

	o, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		CustomerID: actor.CustomerID,
		Items:      items,
		Address: order.Address{
			Label:      req.Address.Label,
			Street:     req.Address.Street,
			City:       req.Address.City,
			State:      req.Address.State,
			PostalCode: req.Address.PostalCode,
		},
		Pickup:        order.Schedule{Date: pickupDate, Slot: req.PickupSlot},
		Delivery:      order.Schedule{Date: deliveryDate, Slot: req.DeliverySlot},
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
		CouponCode:    req.CouponCode,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

// GetOrder handles GET /orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	o, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// ListOrders handles GET /orders. Admins may filter by customerId and
// status; customers always see only their own orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	f := order.Filter{
		CustomerID: r.URL.Query().Get("customerId"),
		Status:     order.Status(r.URL.Query().Get("status")),
	}

	list, err := h.orders.ListOrders(r.Context(), f, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]orderResponse, len(list))
	for i := range list {
		resp[i] = toOrderResponse(&list[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// OrderHistory handles GET /orders/{id}/history.
func (h *Handler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	changes, err := h.orders.History(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]statusChangeResponse, len(changes))
	for i, c := range changes {
		resp[i] = statusChangeResponse{Status: string(c.Status), ChangedAt: c.ChangedAt}
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateOrderStatus handles PUT /admin/orders/{id}/status.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	var req updateStatusRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	o, err := h.orders.AdvanceStatus(r.Context(), chi.URLParam(r, "id"), order.Status(req.Status), actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			Garment:     it.Garment,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			ServiceType: it.ServiceType,
		}
	}
	return orderResponse{
		ID:           o.ID,
		CustomerID:   o.CustomerID,
		Items:        items,
		Subtotal:     o.Subtotal,
		Discount:     o.Discount,
		Total:        o.Total,
		CouponCode:   o.CouponCode,
		Status:       string(o.Status),
		PickupDate:   o.Pickup.Date.Format(dateLayout),
		PickupSlot:   o.Pickup.Slot,
		DeliveryDate: o.Delivery.Date.Format(dateLayout),
		DeliverySlot: o.Delivery.Slot,
		Address: addressResponse{
			ID:         o.Address.ID,
			Label:      o.Address.Label,
			Street:     o.Address.Street,
			City:       o.Address.City,
			State:      o.Address.State,
			PostalCode: o.Address.PostalCode,
		},
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}
