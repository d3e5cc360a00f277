package rest

import (
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
)

type createOrderRequest struct {
	Items           []createOrderItem      `json:"items"`
	ShippingAddress shippingAddressPayload `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	OrderNotes      string                 `json:"orderNotes"`
}

type createOrderItem struct {
	Product  string `json:"product"`
	Quantity int32  `json:"quantity"`
}

type updateStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber"`
}

type shippingAddressPayload struct {
	Street      string `json:"street"`
	City        string `json:"city"`
	State       string `json:"state,omitempty"`
	ZipCode     string `json:"zipCode,omitempty"`
	Country     string `json:"country"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Email       string `json:"email,omitempty"`
}

type orderItemPayload struct {
	Product  string `json:"product"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int32  `json:"quantity"`
	Image    string `json:"image,omitempty"`
}

type orderPayload struct {
	ID              string                 `json:"id"`
	OrderNumber     string                 `json:"orderNumber"`
	Customer        string                 `json:"customer"`
	Items           []orderItemPayload     `json:"items"`
	TotalAmount     int64                  `json:"totalAmount"`
	Status          string                 `json:"status"`
	PaymentStatus   string                 `json:"paymentStatus"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ShippingAddress shippingAddressPayload `json:"shippingAddress"`
	OrderNotes      string                 `json:"orderNotes,omitempty"`
	TrackingNumber  string                 `json:"trackingNumber,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

type timelineEventPayload struct {
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurredAt"`
}

type createOrderResponse struct {
	Order      orderPayload `json:"order"`
	SessionID  string       `json:"sessionId,omitempty"`
	PaymentURL string       `json:"paymentUrl,omitempty"`
}

type orderDetailsResponse struct {
	Order    orderPayload           `json:"order"`
	Timeline []timelineEventPayload `json:"timeline"`
}

func toAddressPayload(a domain.ShippingAddress) shippingAddressPayload {
	return shippingAddressPayload{
		Street:      a.Street,
		City:        a.City,
		State:       a.State,
		ZipCode:     a.ZipCode,
		Country:     a.Country,
		PhoneNumber: a.PhoneNumber,
		Email:       a.Email,
	}
}

func toOrderPayload(o domain.Order) orderPayload {
	items := make([]orderItemPayload, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemPayload{
			Product:  item.ProductID,
			Name:     item.Name,
			Price:    item.PriceMinor,
			Quantity: item.Qty,
			Image:    item.Image,
		})
	}

	return orderPayload{
		ID:              o.ID,
		OrderNumber:     o.Number,
		Customer:        o.CustomerID,
		Items:           items,
		TotalAmount:     o.AmountMinor,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		PaymentMethod:   string(o.PaymentMethod),
		ShippingAddress: toAddressPayload(o.Address),
		OrderNotes:      o.Notes,
		TrackingNumber:  o.TrackingNumber,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toOrderPayloads(orders []domain.Order) []orderPayload {
	payloads := make([]orderPayload, 0, len(orders))
	for _, o := range orders {
		payloads = append(payloads, toOrderPayload(o))
	}
	return payloads
}

func toTimelinePayloads(events []domain.TimelineEvent) []timelineEventPayload {
	payloads := make([]timelineEventPayload, 0, len(events))
	for _, event := range events {
		payloads = append(payloads, timelineEventPayload{
			Type:     event.Type,
			Reason:   event.Reason,
			Occurred: event.Occurred,
		})
	}
	return payloads
}

func toPagination(page order.Page) *pagination {
	return &pagination{
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
		TotalOrders: page.TotalOrders,
		HasNext:     page.HasNext,
		HasPrev:     page.HasPrev,
	}
}
