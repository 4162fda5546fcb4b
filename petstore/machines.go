package petstore

import (
	lifecycle "github.com/goliatone/go-lifecycle"
	"github.com/goliatone/go-lifecycle/machine"
)

// PetDefinition declares the pet sale state machine.
func PetDefinition() machine.Definition {
	return machine.Definition{
		ID:      EntityTypePet,
		Version: "v1",
		States: []machine.StateDef{
			{Name: PetStateInitial, Initial: true},
			{Name: PetStateAvailable},
			{Name: PetStatePending},
			{Name: PetStateSold, Terminal: true},
		},
		Transitions: []machine.TransitionDef{
			{
				Name:     "activate",
				From:     []string{PetStateInitial},
				To:       PetStateAvailable,
				Criteria: []string{"valid_pet"},
			},
			{
				Name:      "reserve",
				From:      []string{PetStateAvailable},
				To:        PetStatePending,
				Criteria:  []string{"valid_pet", "pet_available"},
				Processor: "reserve_pet",
			},
			{
				Name:      "complete_sale",
				From:      []string{PetStatePending},
				To:        PetStateSold,
				Processor: "complete_sale",
			},
			{
				Name:      "restock",
				From:      []string{PetStateAvailable},
				To:        PetStateAvailable,
				Processor: "restock",
			},
			{
				Name:      "return_to_available",
				From:      []string{PetStatePending},
				To:        PetStateAvailable,
				Criteria:  []string{"valid_pet"},
				Processor: "health_check",
			},
		},
	}
}

// OrderDefinition declares the retail order state machine.
func OrderDefinition() machine.Definition {
	return machine.Definition{
		ID:      EntityTypeOrder,
		Version: "v1",
		States: []machine.StateDef{
			{Name: OrderStateInitial, Initial: true},
			{Name: OrderStatePlaced},
			{Name: OrderStateApproved},
			{Name: OrderStateProcessing},
			{Name: OrderStateDelivered, Terminal: true},
		},
		Transitions: []machine.TransitionDef{
			{
				Name:      "place",
				From:      []string{OrderStateInitial},
				To:        OrderStatePlaced,
				Criteria:  []string{"valid_order"},
				Processor: "create_order",
			},
			{
				Name:      "approve",
				From:      []string{OrderStatePlaced},
				To:        OrderStateApproved,
				Criteria:  []string{"valid_order"},
				Processor: "approve_order",
			},
			{
				Name:      "process",
				From:      []string{OrderStateApproved},
				To:        OrderStateProcessing,
				Criteria:  []string{"valid_order"},
				Processor: "ship_order",
			},
			{
				Name:      "deliver",
				From:      []string{OrderStateProcessing},
				To:        OrderStateDelivered,
				Criteria:  []string{"valid_order"},
				Processor: "complete_delivery",
			},
		},
	}
}

// FulfillmentOrderDefinition declares the warehouse order state machine.
// It is a second, independent order model; the schemas are not merged.
func FulfillmentOrderDefinition() machine.Definition {
	return machine.Definition{
		ID:      EntityTypeFulfillmentOrder,
		Version: "v1",
		States: []machine.StateDef{
			{Name: FulfillmentStateWaiting, Initial: true},
			{Name: FulfillmentStatePicking},
			{Name: FulfillmentStateWaitingToSend},
			{Name: FulfillmentStateSent},
			{Name: FulfillmentStateDelivered, Terminal: true},
		},
		Transitions: []machine.TransitionDef{
			{
				Name:      "start_picking",
				From:      []string{FulfillmentStateWaiting},
				To:        FulfillmentStatePicking,
				Criteria:  []string{"fulfillment_order"},
				Processor: "start_picking",
			},
			{
				Name:     "ready_to_send",
				From:     []string{FulfillmentStatePicking},
				To:       FulfillmentStateWaitingToSend,
				Criteria: []string{"fulfillment_order"},
			},
			{
				Name:      "send",
				From:      []string{FulfillmentStateWaitingToSend},
				To:        FulfillmentStateSent,
				Criteria:  []string{"fulfillment_order"},
				Processor: "mark_sent",
			},
			{
				Name:      "deliver",
				From:      []string{FulfillmentStateSent},
				To:        FulfillmentStateDelivered,
				Criteria:  []string{"fulfillment_order"},
				Processor: "mark_delivered",
			},
		},
	}
}

// Register wires every petstore criterion and processor into the
// registries and compiles the three machines into the set.
func Register(
	set *machine.Set,
	criteria *machine.CriterionRegistry,
	processors *machine.ProcessorRegistry,
	deps Deps,
	inventory InventoryClient,
) error {
	deps.normalize()

	for name, c := range map[string]lifecycle.Criterion{
		"valid_pet":         NewValidPetCriterion(deps.Logger),
		"pet_available":     NewPetAvailableCriterion(deps.Logger),
		"valid_order":       NewValidOrderCriterion(deps.Logger),
		"fulfillment_order": NewFulfillmentOrderCriterion(deps.Logger),
	} {
		if err := criteria.Register(name, c); err != nil {
			return err
		}
	}

	for _, p := range []lifecycle.Processor{
		NewCreateOrderProcessor(deps),
		NewApproveOrderProcessor(deps, 0),
		NewShipOrderProcessor(deps),
		NewCompleteDeliveryProcessor(deps),
		NewReservePetProcessor(deps),
		NewCompleteSaleProcessor(deps),
		NewHealthCheckProcessor(deps),
		NewRestockProcessor(deps, inventory),
		NewStartPickingProcessor(deps),
		NewMarkSentProcessor(deps),
		NewMarkDeliveredProcessor(deps),
	} {
		if err := processors.Register(p.Name(), p); err != nil {
			return err
		}
	}

	for _, def := range []machine.Definition{
		PetDefinition(),
		OrderDefinition(),
		FulfillmentOrderDefinition(),
	} {
		m, err := machine.Compile(def, criteria, processors, deps.Service, machine.WithLogger(deps.Logger))
		if err != nil {
			return err
		}
		set.Add(m)
	}
	return nil
}
