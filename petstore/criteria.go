package petstore

import (
	"strings"

	lifecycle "github.com/goliatone/go-lifecycle"
)

// Reason codes attached to failing verdicts.
const (
	CodePetNameRequired    = "PET_NAME_REQUIRED"
	CodePetStatusInvalid   = "PET_STATUS_INVALID"
	CodePetPriceNegative   = "PET_PRICE_NEGATIVE"
	CodePetAdoptionInvalid = "PET_ADOPTION_STATUS_INVALID"
	CodePetHealthInvalid   = "PET_HEALTH_STATUS_INVALID"
	CodePetInventorySkew   = "PET_INVENTORY_SKEW"
	CodePetUnavailable     = "PET_UNAVAILABLE"
	CodePetPhotoMissing    = "PET_PHOTO_MISSING"

	CodeOrderPetRequired    = "ORDER_PET_REQUIRED"
	CodeOrderQuantityZero   = "ORDER_QUANTITY_ZERO"
	CodeOrderQuantityLimit  = "ORDER_QUANTITY_LIMIT"
	CodeOrderUnitPrice      = "ORDER_UNIT_PRICE_INVALID"
	CodeOrderTotalMismatch  = "ORDER_TOTAL_MISMATCH"
	CodeOrderDeliveredAt    = "ORDER_DELIVERED_AT_MISSING"
	CodeFulfillmentItems    = "FULFILLMENT_ITEMS_REQUIRED"
	CodeFulfillmentPicker   = "FULFILLMENT_PICKER_UNASSIGNED"
	CodeFulfillmentSentAt   = "FULFILLMENT_SENT_AT_MISSING"
	CodeFulfillmentTimeline = "FULFILLMENT_TIMELINE_INVALID"
)

// NewValidPetCriterion builds the pet validation battery: required fields,
// allow-listed statuses, price bounds, then inventory consistency. A
// missing photo URL is advisory only.
func NewValidPetCriterion(logger lifecycle.Logger) lifecycle.Criterion {
	return lifecycle.NewBattery("valid_pet", logger,
		lifecycle.SubCheck{
			Name: "required_fields",
			Run: func(e *lifecycle.Entity) error {
				pet, err := DecodePet(e)
				if err != nil {
					return err
				}
				if strings.TrimSpace(pet.Name) == "" {
					return lifecycle.Reject(CodePetNameRequired, "pet name is required")
				}
				if strings.TrimSpace(pet.Status) == "" {
					return lifecycle.Reject(CodePetStatusInvalid, "pet status is required")
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "format",
			Run: func(e *lifecycle.Entity) error {
				pet, _ := DecodePet(e)
				if !inList(pet.Status, petStatuses) {
					return lifecycle.Reject(CodePetStatusInvalid, "pet status %q not in %v", pet.Status, petStatuses)
				}
				if pet.Price < 0 {
					return lifecycle.Reject(CodePetPriceNegative, "pet price %.2f must be >= 0", pet.Price)
				}
				if pet.AdoptionStatus != "" && !inList(pet.AdoptionStatus, adoptionStatuses) {
					return lifecycle.Reject(CodePetAdoptionInvalid, "adoption status %q not in %v", pet.AdoptionStatus, adoptionStatuses)
				}
				if pet.HealthStatus != "" && !inList(pet.HealthStatus, healthStatuses) {
					return lifecycle.Reject(CodePetHealthInvalid, "health status %q not in %v", pet.HealthStatus, healthStatuses)
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "inventory_consistency",
			Run: func(e *lifecycle.Entity) error {
				pet, _ := DecodePet(e)
				if pet.TotalPets != nil && pet.AvailablePets != nil && *pet.AvailablePets > *pet.TotalPets {
					return lifecycle.Reject(CodePetInventorySkew,
						"available pets %d exceeds total pets %d", *pet.AvailablePets, *pet.TotalPets)
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name:     "photo_urls",
			Advisory: true,
			Run: func(e *lifecycle.Entity) error {
				pet, _ := DecodePet(e)
				if len(pet.PhotoURLs) == 0 {
					return lifecycle.Reject(CodePetPhotoMissing, "pet has no photo urls; listings convert better with photos")
				}
				return nil
			},
		},
	)
}

// NewPetAvailableCriterion gates reservations: the pet must be available
// for sale and not under treatment or recovering.
func NewPetAvailableCriterion(logger lifecycle.Logger) lifecycle.Criterion {
	return lifecycle.NewBattery("pet_available", logger,
		lifecycle.SubCheck{
			Name: "availability",
			Run: func(e *lifecycle.Entity) error {
				pet, err := DecodePet(e)
				if err != nil {
					return err
				}
				if !pet.Adoptable() {
					return lifecycle.Reject(CodePetUnavailable,
						"pet not adoptable: adoption_status=%q health_status=%q", pet.AdoptionStatus, pet.HealthStatus)
				}
				return nil
			},
		},
	)
}

// NewValidOrderCriterion builds the retail order battery. The delivered
// state rule is a hard failure here: a delivered order must carry its
// delivery timestamp.
func NewValidOrderCriterion(logger lifecycle.Logger) lifecycle.Criterion {
	return lifecycle.NewBattery("valid_order", logger,
		lifecycle.SubCheck{
			Name: "required_fields",
			Run: func(e *lifecycle.Entity) error {
				order, err := DecodeOrder(e)
				if err != nil {
					return err
				}
				if strings.TrimSpace(order.PetID) == "" {
					return lifecycle.Reject(CodeOrderPetRequired, "order petId is required")
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "quantity_range",
			Run: func(e *lifecycle.Entity) error {
				order, _ := DecodeOrder(e)
				if order.Quantity <= 0 {
					return lifecycle.Reject(CodeOrderQuantityZero, "order quantity must be > 0, got %d", order.Quantity)
				}
				if order.Quantity > MaxOrderQuantity {
					return lifecycle.Reject(CodeOrderQuantityLimit,
						"order quantity %d exceeds the %d per-order limit", order.Quantity, MaxOrderQuantity)
				}
				if order.UnitPrice <= 0 {
					return lifecycle.Reject(CodeOrderUnitPrice, "order unit price must be > 0, got %.2f", order.UnitPrice)
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "total_consistency",
			Run: func(e *lifecycle.Entity) error {
				order, _ := DecodeOrder(e)
				if order.TotalAmount == 0 {
					return nil
				}
				want := order.UnitPrice * float64(order.Quantity)
				if diff := order.TotalAmount - want; diff > 0.005 || diff < -0.005 {
					return lifecycle.Reject(CodeOrderTotalMismatch,
						"totalAmount %.2f does not match unit_price*quantity %.2f", order.TotalAmount, want)
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "delivery_rule",
			Run: func(e *lifecycle.Entity) error {
				order, _ := DecodeOrder(e)
				if strings.EqualFold(e.State, OrderStateDelivered) && strings.TrimSpace(order.DeliveredAt) == "" {
					return lifecycle.Reject(CodeOrderDeliveredAt, "delivered order is missing deliveredAt")
				}
				return nil
			},
		},
	)
}

// NewFulfillmentOrderCriterion builds the warehouse order battery. An
// unassigned picker during picking is advisory only; the sent timestamps
// and their ordering are hard rules.
func NewFulfillmentOrderCriterion(logger lifecycle.Logger) lifecycle.Criterion {
	return lifecycle.NewBattery("fulfillment_order", logger,
		lifecycle.SubCheck{
			Name: "required_fields",
			Run: func(e *lifecycle.Entity) error {
				order, err := DecodeFulfillmentOrder(e)
				if err != nil {
					return err
				}
				if order.ItemCount <= 0 {
					return lifecycle.Reject(CodeFulfillmentItems, "fulfillment order item count must be > 0, got %d", order.ItemCount)
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name:     "picker_assignment",
			Advisory: true,
			Run: func(e *lifecycle.Entity) error {
				order, _ := DecodeFulfillmentOrder(e)
				if strings.EqualFold(e.State, FulfillmentStatePicking) && strings.TrimSpace(order.Picker) == "" {
					return lifecycle.Reject(CodeFulfillmentPicker, "order is picking with no picker assigned")
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "sent_rule",
			Run: func(e *lifecycle.Entity) error {
				order, _ := DecodeFulfillmentOrder(e)
				if strings.EqualFold(e.State, FulfillmentStateSent) && strings.TrimSpace(order.SentAt) == "" {
					return lifecycle.Reject(CodeFulfillmentSentAt, "sent order is missing sent_at")
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "timeline_order",
			Run: func(e *lifecycle.Entity) error {
				sentAt, okSent := e.Time("sent_at")
				deliveredAt, okDelivered := e.Time("delivered_at")
				if okSent && okDelivered && sentAt.After(deliveredAt) {
					return lifecycle.Reject(CodeFulfillmentTimeline,
						"sent_at %s is after delivered_at %s", sentAt, deliveredAt)
				}
				return nil
			},
		},
	)
}

func inList(value string, list []string) bool {
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}
