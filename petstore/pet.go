// Package petstore implements the pet adoption and order fulfillment
// lifecycle: criteria gating pet/order transitions and processors carrying
// their side effects, including the cross-entity coupling between a
// delivered order and the sold pet.
package petstore

import (
	lifecycle "github.com/goliatone/go-lifecycle"
)

// Entity types owned by this package.
const (
	EntityTypePet              = "pet"
	EntityTypeOrder            = "order"
	EntityTypeFulfillmentOrder = "fulfillment_order"
)

// Pet envelope states.
const (
	PetStateInitial   = "initial_state"
	PetStateAvailable = "available"
	PetStatePending   = "pending"
	PetStateSold      = "sold"
)

// Adoption statuses tracked as an attribute, parallel to the envelope state.
const (
	AdoptionAvailable = "Available"
	AdoptionReserved  = "Reserved"
	AdoptionAdopted   = "Adopted"
)

// Health statuses gating re-entry to the available state.
const (
	HealthHealthy        = "Healthy"
	HealthUnderTreatment = "Under Treatment"
	HealthRecovering     = "Recovering"
)

var petStatuses = []string{"available", "pending", "sold"}

var adoptionStatuses = []string{AdoptionAvailable, AdoptionReserved, AdoptionAdopted}

var healthStatuses = []string{HealthHealthy, HealthUnderTreatment, HealthRecovering}

// Pet is the decoded pet record.
type Pet struct {
	Name           string   `json:"name"`
	Status         string   `json:"status"`
	Category       string   `json:"category,omitempty"`
	Price          float64  `json:"price"`
	PhotoURLs      []string `json:"photoUrls,omitempty"`
	AdoptionStatus string   `json:"adoption_status,omitempty"`
	HealthStatus   string   `json:"health_status,omitempty"`
	TotalPets      *int     `json:"total_pets,omitempty"`
	AvailablePets  *int     `json:"available_pets,omitempty"`
	ReservedAt     string   `json:"reserved_at,omitempty"`
	SoldAt         string   `json:"sold_at,omitempty"`
}

// DecodePet maps entity attributes onto a Pet.
func DecodePet(e *lifecycle.Entity) (*Pet, error) {
	var pet Pet
	if err := lifecycle.Decode(e, &pet); err != nil {
		return nil, err
	}
	return &pet, nil
}

// Adoptable reports whether the pet can enter a reservation.
func (p *Pet) Adoptable() bool {
	if p == nil {
		return false
	}
	switch p.HealthStatus {
	case HealthUnderTreatment, HealthRecovering:
		return false
	}
	return p.AdoptionStatus == "" || p.AdoptionStatus == AdoptionAvailable
}
