package petstore

import (
	lifecycle "github.com/goliatone/go-lifecycle"
)

// Order envelope states (retail order model).
const (
	OrderStateInitial    = "initial_state"
	OrderStatePlaced     = "placed"
	OrderStateApproved   = "approved"
	OrderStateProcessing = "processing"
	OrderStateDelivered  = "delivered"
)

// MaxOrderQuantity bounds a single order.
const MaxOrderQuantity = 10

// Order is the decoded retail order record.
type Order struct {
	PetID          string  `json:"petId"`
	Quantity       int     `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	TotalAmount    float64 `json:"totalAmount,omitempty"`
	ShipDate       string  `json:"shipDate,omitempty"`
	Complete       bool    `json:"complete,omitempty"`
	TrackingNumber string  `json:"tracking_number,omitempty"`
	PlacedAt       string  `json:"placed_at,omitempty"`
	ApprovedAt     string  `json:"approved_at,omitempty"`
	ShippedAt      string  `json:"shipped_at,omitempty"`
	DeliveredAt    string  `json:"deliveredAt,omitempty"`
}

// DecodeOrder maps entity attributes onto an Order.
func DecodeOrder(e *lifecycle.Entity) (*Order, error) {
	var order Order
	if err := lifecycle.Decode(e, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// FulfillmentOrder envelope states (warehouse order model). This is a
// distinct entity type from Order; the two schemas are intentionally kept
// separate.
const (
	FulfillmentStateWaiting       = "waiting_to_fulfill"
	FulfillmentStatePicking       = "picking"
	FulfillmentStateWaitingToSend = "waiting_to_send"
	FulfillmentStateSent          = "sent"
	FulfillmentStateDelivered     = "delivered"
)

// FulfillmentOrder is the decoded warehouse order record.
type FulfillmentOrder struct {
	Reference   string `json:"reference,omitempty"`
	ItemCount   int    `json:"item_count"`
	Picker      string `json:"picker,omitempty"`
	PickedAt    string `json:"picked_at,omitempty"`
	SentAt      string `json:"sent_at,omitempty"`
	DeliveredAt string `json:"delivered_at,omitempty"`
}

// DecodeFulfillmentOrder maps entity attributes onto a FulfillmentOrder.
func DecodeFulfillmentOrder(e *lifecycle.Entity) (*FulfillmentOrder, error) {
	var order FulfillmentOrder
	if err := lifecycle.Decode(e, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
