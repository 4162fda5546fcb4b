package petstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	lifecycle "github.com/goliatone/go-lifecycle"
)

// PaymentCeiling is the maximum amount the simulated payment gateway
// authorizes in a single charge.
const PaymentCeiling = 10_000.0

// Deps bundles the collaborators shared by the petstore processors.
type Deps struct {
	Service lifecycle.EntityService
	Logger  lifecycle.Logger
	Clock   func() time.Time
	IDGen   func() string
}

func (d *Deps) normalize() {
	if d.Clock == nil {
		d.Clock = func() time.Time { return time.Now().UTC() }
	}
	if d.IDGen == nil {
		d.IDGen = uuid.NewString
	}
	d.Logger = lifecycle.NormalizeLogger(d.Logger)
}

// CreateOrderProcessor validates the referenced Pet through the
// coordinator as a primary call and computes the order total. A pet that
// is missing or not available aborts order placement.
type CreateOrderProcessor struct {
	deps  Deps
	coord *lifecycle.Coordinator
}

// NewCreateOrderProcessor wires the processor.
func NewCreateOrderProcessor(deps Deps) *CreateOrderProcessor {
	deps.normalize()
	return &CreateOrderProcessor{
		deps:  deps,
		coord: lifecycle.NewCoordinator(deps.Service, deps.Logger),
	}
}

func (p *CreateOrderProcessor) Name() string { return "create_order" }

func (p *CreateOrderProcessor) Process(ctx context.Context, e *lifecycle.Entity, params lifecycle.Params) (*lifecycle.Entity, *lifecycle.Outcome, error) {
	order, err := DecodeOrder(e)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(order.PetID) == "" {
		return nil, nil, lifecycle.NewError(lifecycle.ErrPreconditionFailed, "order petId is required", nil, map[string]any{
			"entity_id": e.ID,
		})
	}

	// Primary cross-entity check: availability failures must propagate.
	petRef := lifecycle.Ref{ID: order.PetID, Type: EntityTypePet, Version: 1}
	pet, err := p.coord.RequireEntity(ctx, petRef, PetStateAvailable)
	if err != nil {
		return nil, nil, err
	}
	decoded, err := DecodePet(pet)
	if err != nil {
		return nil, nil, err
	}
	if !decoded.Adoptable() {
		return nil, nil, lifecycle.NewError(
			lifecycle.ErrPreconditionFailed,
			fmt.Sprintf("pet %s is not adoptable", order.PetID),
			nil,
			map[string]any{"pet_id": order.PetID, "health_status": decoded.HealthStatus},
		)
	}

	if order.UnitPrice == 0 {
		order.UnitPrice = decoded.Price
	}
	order.TotalAmount = order.UnitPrice * float64(order.Quantity)
	order.PlacedAt = p.deps.Clock().Format(time.RFC3339)
	if err := lifecycle.Encode(e, order); err != nil {
		return nil, nil, err
	}

	p.deps.Logger.WithContext(ctx).Info(
		"order %s placed for pet %s total=%.2f", e.ID, order.PetID, order.TotalAmount,
	)
	return e, nil, nil
}

// ApproveOrderProcessor authorizes payment against a fixed ceiling and
// stamps a tracking number.
type ApproveOrderProcessor struct {
	deps    Deps
	ceiling float64
}

// NewApproveOrderProcessor wires the processor. A zero ceiling uses the
// package default.
func NewApproveOrderProcessor(deps Deps, ceiling float64) *ApproveOrderProcessor {
	deps.normalize()
	if ceiling <= 0 {
		ceiling = PaymentCeiling
	}
	return &ApproveOrderProcessor{deps: deps, ceiling: ceiling}
}

func (p *ApproveOrderProcessor) Name() string { return "approve_order" }

func (p *ApproveOrderProcessor) Process(ctx context.Context, e *lifecycle.Entity, params lifecycle.Params) (*lifecycle.Entity, *lifecycle.Outcome, error) {
	order, err := DecodeOrder(e)
	if err != nil {
		return nil, nil, err
	}

	amount := order.TotalAmount
	if payment := params.Map("payment_data"); payment != nil {
		if v, ok := payment.Float("amount"); ok {
			amount = v
		}
	}
	if amount > p.ceiling {
		return nil, nil, lifecycle.NewError(
			lifecycle.ErrExternalCall,
			fmt.Sprintf("payment of %.2f exceeds the %.2f authorization ceiling", amount, p.ceiling),
			nil,
			map[string]any{"entity_id": e.ID, "amount": amount},
		)
	}

	order.TrackingNumber = "TRK-" + strings.ToUpper(p.deps.IDGen()[:8])
	order.ApprovedAt = p.deps.Clock().Format(time.RFC3339)
	if err := lifecycle.Encode(e, order); err != nil {
		return nil, nil, err
	}

	p.deps.Logger.WithContext(ctx).Info(
		"order %s approved: charged %.2f, tracking %s", e.ID, amount, order.TrackingNumber,
	)
	return e, nil, nil
}

// ShipOrderProcessor stamps the shipment timestamp and logs a customer
// notification. Notification is log-only; there is no delivery guarantee.
type ShipOrderProcessor struct {
	deps Deps
}

// NewShipOrderProcessor wires the processor.
func NewShipOrderProcessor(deps Deps) *ShipOrderProcessor {
	deps.normalize()
	return &ShipOrderProcessor{deps: deps}
}

func (p *ShipOrderProcessor) Name() string { return "ship_order" }

func (p *ShipOrderProcessor) Process(ctx context.Context, e *lifecycle.Entity, _ lifecycle.Params) (*lifecycle.Entity, *lifecycle.Outcome, error) {
	order, err := DecodeOrder(e)
	if err != nil {
		return nil, nil, err
	}
	order.ShippedAt = p.deps.Clock().Format(time.RFC3339)
	if order.ShipDate == "" {
		order.ShipDate = order.ShippedAt
	}
	if err := lifecycle.Encode(e, order); err != nil {
		return nil, nil, err
	}
	p.deps.Logger.WithContext(ctx).Info(
		"order %s shipped, notifying customer: your order is on its way (tracking %s)",
		e.ID, order.TrackingNumber,
	)
	return e, nil, nil
}

// CompleteDeliveryProcessor marks the order complete and then triggers the
// pet's complete_sale transition best-effort: the order's own completion
// never rolls back when the pet-side sync fails.
type CompleteDeliveryProcessor struct {
	deps  Deps
	coord *lifecycle.Coordinator
}

// NewCompleteDeliveryProcessor wires the processor.
func NewCompleteDeliveryProcessor(deps Deps) *CompleteDeliveryProcessor {
	deps.normalize()
	return &CompleteDeliveryProcessor{
		deps:  deps,
		coord: lifecycle.NewCoordinator(deps.Service, deps.Logger),
	}
}

func (p *CompleteDeliveryProcessor) Name() string { return "complete_delivery" }

func (p *CompleteDeliveryProcessor) Process(ctx context.Context, e *lifecycle.Entity, _ lifecycle.Params) (*lifecycle.Entity, *lifecycle.Outcome, error) {
	order, err := DecodeOrder(e)
	if err != nil {
		return nil, nil, err
	}
	order.DeliveredAt = p.deps.Clock().Format(time.RFC3339)
	order.Complete = true
	if err := lifecycle.Encode(e, order); err != nil {
		return nil, nil, err
	}

	outcome := &lifecycle.Outcome{}
	if petID := strings.TrimSpace(order.PetID); petID != "" {
		attempt := p.coord.AttemptTransition(ctx,
			lifecycle.Ref{ID: petID, Type: EntityTypePet, Version: 1},
			"complete_sale", nil, PetStatePending,
		)
		outcome.Record(attempt)
	}

	p.deps.Logger.WithContext(ctx).Info("order %s delivered", e.ID)
	return e, outcome, nil
}

// ReservePetProcessor flips the adoption status to Reserved and creates a
// new retail order for the reservation. Advancing the fresh order is
// best-effort; reservation itself commits regardless.
type ReservePetProcessor struct {
	deps  Deps
	coord *lifecycle.Coordinator
}

// NewReservePetProcessor wires the processor.
func NewReservePetProcessor(deps Deps) *ReservePetProcessor {
	deps.normalize()
	return &ReservePetProcessor{
		deps:  deps,
		coord: lifecycle.NewCoordinator(deps.Service, deps.Logger),
	}
}

func (p *ReservePetProcessor) Name() string { return "reserve_pet" }

func (p *ReservePetProcessor) Process(ctx context.Context, e *lifecycle.Entity, params lifecycle.Params) (*lifecycle.Entity, *lifecycle.Outcome, error) {
	pet, err := DecodePet(e)
	if err != nil {
		return nil, nil, err
	}
	pet.AdoptionStatus = AdoptionReserved
	pet.ReservedAt = p.deps.Clock().Format(time.RFC3339)
	if err := lifecycle.Encode(e, pet); err != nil {
		return nil, nil, err
	}

	quantity := 1
	if orderData := params.Map("order_data"); orderData != nil {
		if q, ok := orderData.Float("quantity"); ok && q > 0 {
			quantity = int(q)
		}
	}
	order := &lifecycle.Entity{
		Type:  EntityTypeOrder,
		State: OrderStateInitial,
		Attributes: map[string]any{
			"petId":      e.ID,
			"quantity":   quantity,
			"unit_price": pet.Price,
		},
	}
	saved, err := p.deps.Service.Save(ctx, order)
	if err != nil {
		return nil, nil, lifecycle.NewError(lifecycle.ErrExternalCall, "failed to create reservation order", err, map[string]any{
			"pet_id": e.ID,
		})
	}

	outcome := &lifecycle.Outcome{}
	attempt := p.coord.AttemptTransition(ctx,
		saved.Ref(), "place", nil, OrderStateInitial,
	)
	outcome.Record(attempt)

	p.deps.Logger.WithContext(ctx).Info(
		"pet %s reserved, order %s created", e.ID, saved.ID,
	)
	return e, outcome, nil
}

// CompleteSaleProcessor finalizes the pet side of a delivered order.
type CompleteSaleProcessor struct {
	deps Deps
}

// NewCompleteSaleProcessor wires the processor.
func NewCompleteSaleProcessor(deps Deps) *CompleteSaleProcessor {
	deps.normalize()
	return &CompleteSaleProcessor{deps: deps}
}

func (p *CompleteSaleProcessor) Name() string { return "complete_sale" }

func (p *CompleteSaleProcessor) Process(ctx context.Context, e *lifecycle.Entity, _ lifecycle.Params) (*lifecycle.Entity, *lifecycle.Outcome, error) {
	pet, err := DecodePet(e)
	if err != nil {
		return nil, nil, err
	}
	pet.Status = "sold"
	pet.AdoptionStatus = AdoptionAdopted
	pet.SoldAt = p.deps.Clock().Format(time.RFC3339)
	if err := lifecycle.Encode(e, pet); err != nil {
		return nil, nil, err
	}
	p.deps.Logger.WithContext(ctx).Info("pet %s sold", e.ID)
	return e, nil, nil
}

// HealthCheckProcessor applies health data from the transition params and
// resets the adoption status when the pet has recovered.
type HealthCheckProcessor struct {
	deps Deps
}

// NewHealthCheckProcessor wires the processor.
func NewHealthCheckProcessor(deps Deps) *HealthCheckProcessor {
	deps.normalize()
	return &HealthCheckProcessor{deps: deps}
}

func (p *HealthCheckProcessor) Name() string { return "health_check" }

func (p *HealthCheckProcessor) Process(ctx context.Context, e *lifecycle.Entity, params lifecycle.Params) (*lifecycle.Entity, *lifecycle.Outcome, error) {
	pet, err := DecodePet(e)
	if err != nil {
		return nil, nil, err
	}
	if health := params.Map("health_data"); health != nil {
		if status := health.String("health_status"); status != "" {
			if !inList(status, healthStatuses) {
				return nil, nil, lifecycle.NewError(
					lifecycle.ErrPreconditionFailed,
					fmt.Sprintf("unknown health status %q", status),
					nil,
					map[string]any{"entity_id": e.ID},
				)
			}
			pet.HealthStatus = status
		}
	}
	if pet.HealthStatus == HealthHealthy {
		pet.AdoptionStatus = AdoptionAvailable
	}
	if err := lifecycle.Encode(e, pet); err != nil {
		return nil, nil, err
	}
	p.deps.Logger.WithContext(ctx).Info("pet %s health recorded: %s", e.ID, pet.HealthStatus)
	return e, nil, nil
}

// InventoryClient is the slice of the petstore REST API the restock
// processor consumes.
type InventoryClient interface {
	Inventory(ctx context.Context) (map[string]int, error)
}

// RestockProcessor queries store inventory and computes restock quantities
// from a simple tiered heuristic. Inventory lookups fall back to zero
// counts on any network failure; restocking is never on the critical path.
type RestockProcessor struct {
	deps   Deps
	client InventoryClient
}

// NewRestockProcessor wires the processor.
func NewRestockProcessor(deps Deps, client InventoryClient) *RestockProcessor {
	deps.normalize()
	return &RestockProcessor{deps: deps, client: client}
}

func (p *RestockProcessor) Name() string { return "restock" }

func (p *RestockProcessor) Process(ctx context.Context, e *lifecycle.Entity, _ lifecycle.Params) (*lifecycle.Entity, *lifecycle.Outcome, error) {
	logger := p.deps.Logger.WithContext(ctx)

	inventory := map[string]int{}
	if p.client != nil {
		fetched, err := p.client.Inventory(ctx)
		if err != nil {
			logger.Warn("inventory lookup failed, assuming zero stock: %v", err)
		} else {
			inventory = fetched
		}
	}

	available := inventory["available"]
	restock := 0
	switch {
	case available < 5:
		restock = 20
	case available < 20:
		restock = 10
	}
	e.Set("available_inventory", available)
	e.Set("restock_quantity", restock)
	e.SetTime("restock_checked_at", p.deps.Clock())

	logger.Info("restock check: available=%d restock=%d", available, restock)
	return e, nil, nil
}

// NewStartPickingProcessor assigns a picker to a warehouse order.
func NewStartPickingProcessor(deps Deps) lifecycle.Processor {
	deps.normalize()
	return lifecycle.ProcessorFunc{
		ID: "start_picking",
		Fn: func(ctx context.Context, e *lifecycle.Entity, _ lifecycle.Params) (*lifecycle.Entity, *lifecycle.Outcome, error) {
			order, err := DecodeFulfillmentOrder(e)
			if err != nil {
				return nil, nil, err
			}
			if order.Picker == "" {
				order.Picker = "picker-" + deps.IDGen()[:8]
			}
			order.PickedAt = deps.Clock().Format(time.RFC3339)
			if err := lifecycle.Encode(e, order); err != nil {
				return nil, nil, err
			}
			deps.Logger.WithContext(ctx).Info("order %s picking started by %s", e.ID, order.Picker)
			return e, nil, nil
		},
	}
}

// NewMarkSentProcessor stamps the shipment time on a warehouse order.
func NewMarkSentProcessor(deps Deps) lifecycle.Processor {
	deps.normalize()
	return lifecycle.ProcessorFunc{
		ID: "mark_sent",
		Fn: func(ctx context.Context, e *lifecycle.Entity, _ lifecycle.Params) (*lifecycle.Entity, *lifecycle.Outcome, error) {
			order, err := DecodeFulfillmentOrder(e)
			if err != nil {
				return nil, nil, err
			}
			order.SentAt = deps.Clock().Format(time.RFC3339)
			if err := lifecycle.Encode(e, order); err != nil {
				return nil, nil, err
			}
			deps.Logger.WithContext(ctx).Info("order %s sent", e.ID)
			return e, nil, nil
		},
	}
}

// NewMarkDeliveredProcessor stamps the delivery time on a warehouse order.
func NewMarkDeliveredProcessor(deps Deps) lifecycle.Processor {
	deps.normalize()
	return lifecycle.ProcessorFunc{
		ID: "mark_delivered",
		Fn: func(ctx context.Context, e *lifecycle.Entity, _ lifecycle.Params) (*lifecycle.Entity, *lifecycle.Outcome, error) {
			order, err := DecodeFulfillmentOrder(e)
			if err != nil {
				return nil, nil, err
			}
			order.DeliveredAt = deps.Clock().Format(time.RFC3339)
			if err := lifecycle.Encode(e, order); err != nil {
				return nil, nil, err
			}
			deps.Logger.WithContext(ctx).Info("order %s delivered", e.ID)
			return e, nil, nil
		},
	}
}
