// server/internal/matching/engine.go
package matching

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"freight-exchange-api-server/internal/geo"
	"freight-exchange-api-server/internal/models"
	"freight-exchange-api-server/internal/pricing"

	"github.com/google/uuid"
)

// RouteSuggester proposes ranked route candidates for a shipment's
// endpoints. An empty result means "no suggestion available" and never
// blocks shipment creation.
type RouteSuggester interface {
	Suggest(pickup, delivery string, maxResults int) []models.RouteCandidate
}

// Engine owns the Shipment -> Offer -> Tour -> Transaction lifecycle and
// its invariants. It is safe for concurrent use: serialization of competing
// transitions is delegated to the Store's compare-and-swap contract.
type Engine struct {
	store         Store
	routes        RouteSuggester
	sink          EventSink
	commissionPct float64
	currency      string
	now           func() time.Time
}

func NewEngine(store Store, routes RouteSuggester, sink EventSink, commissionPct float64, currency string) *Engine {
	return &Engine{
		store:         store,
		routes:        routes,
		sink:          sink,
		commissionPct: commissionPct,
		currency:      currency,
		now:           time.Now,
	}
}

// newID builds a readable unique id like "SHP-4F7A91C2".
func newID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(uuid.New().String()[:8]))
}

// emit forwards one committed transition to the event sink. A sink error
// fails the owning operation: the durable notification record is part of
// the transition contract, so every caller compensates its committed
// write before surfacing the error.
func (e *Engine) emit(ctx context.Context, event Event) error {
	if e.sink == nil {
		return nil
	}
	event.At = e.now()
	if err := e.sink.On(ctx, event); err != nil {
		return fmt.Errorf("dispatch %s event: %w", event.Kind, err)
	}
	return nil
}

// ---------- Shipments ----------

type CreateShipmentInput struct {
	Pickup         models.Address
	Delivery       models.Address
	Cargo          models.Cargo
	BudgetRSD      float64
	PickupDeadline time.Time
	DeliverBy      time.Time
}

// CreateShipment records a new draft shipment, attaches route suggestions
// and an advisory price estimate. The estimate never binds anyone: the
// accepted offer's bid is the authoritative amount.
func (e *Engine) CreateShipment(ctx context.Context, shipperID string, in CreateShipmentInput) (*models.Shipment, error) {
	now := e.now()
	shipment := &models.Shipment{
		ShipmentID:      newID("SHP"),
		ShipperID:       shipperID,
		Pickup:          in.Pickup,
		Delivery:        in.Delivery,
		Cargo:           in.Cargo,
		BudgetRSD:       in.BudgetRSD,
		PickupDeadline:  in.PickupDeadline,
		DeliverBy:       in.DeliverBy,
		PackagingAdvice: packagingAdvice(in.Cargo.WeightKG),
		Status:          models.ShipmentDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Routes are derived artifacts: recompute them whenever the endpoints
	// are set. An unknown city simply yields no suggestions.
	shipment.SuggestedRoutes = e.routes.Suggest(in.Pickup.City, in.Delivery.City, 5)
	shipment.EstimatedPrice = e.estimatePrice(shipment)

	if err := e.store.InsertShipment(ctx, shipment); err != nil {
		return nil, fmt.Errorf("insert shipment: %w", err)
	}

	if err := e.emit(ctx, Event{Kind: EventShipmentCreated, Shipment: shipment}); err != nil {
		if rbErr := e.store.DeleteShipment(ctx, shipment.ShipmentID); rbErr != nil {
			log.Printf("CRITICAL: shipment %s not removed after failed dispatch: %v", shipment.ShipmentID, rbErr)
		}
		return nil, err
	}
	return shipment, nil
}

// estimatePrice computes the advisory price shown to the shipper. Bulk
// pallet cargo inside the fixed table uses the pallet-table strategy;
// everything else goes through the continuous formula.
func (e *Engine) estimatePrice(shipment *models.Shipment) float64 {
	distanceKM := 0.0
	routeClass := models.CorridorHighway
	if len(shipment.SuggestedRoutes) > 0 {
		top := shipment.SuggestedRoutes[0]
		distanceKM = top.TotalDistanceKM
		if len(top.Corridors) == 1 {
			routeClass = top.Corridors[0].Class
		}
	} else if shipment.Pickup.Latitude != 0 || shipment.Pickup.Longitude != 0 {
		distanceKM = geo.DistanceKM(
			shipment.Pickup.Latitude, shipment.Pickup.Longitude,
			shipment.Delivery.Latitude, shipment.Delivery.Longitude,
		)
	}

	pallets := shipment.Cargo.PalletCount
	if pallets >= 1 && pallets <= 5 {
		if price := pricing.PalletTablePrice(pallets, distanceKM); price > 0 {
			return price
		}
	}
	if pallets <= 0 {
		pallets = 1
	}
	return pricing.Price(distanceKM, models.VehicleTruck, shipment.Cargo.Urgency, pallets, routeClass)
}

// packagingAdvice suggests eco packaging by cargo weight.
func packagingAdvice(weightKG float64) string {
	switch {
	case weightKG <= 0:
		return ""
	case weightKG <= 5:
		return "Biodegradable small box (up to 5kg): recycled cardboard with biodegradable padding"
	case weightKG <= 20:
		return "Medium recycled box (5-20kg): reinforced cardboard with natural fiber padding"
	default:
		return "Large crate with eco protection (>20kg): wooden pallet with biodegradable foil"
	}
}

// PublishShipment moves a draft shipment onto the freight board and
// announces it to carriers with an active vehicle.
func (e *Engine) PublishShipment(ctx context.Context, shipperID, shipmentID string) (*models.Shipment, error) {
	shipment, err := e.store.GetShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.ShipperID != shipperID {
		return nil, ErrForbidden
	}

	if err := e.store.TransitionShipment(ctx, shipmentID, models.ShipmentDraft, models.ShipmentPublished); err != nil {
		return nil, err
	}
	shipment.Status = models.ShipmentPublished

	recipients, err := e.store.ListCarriersWithActiveVehicle(ctx)
	if err != nil {
		log.Printf("CRITICAL: shipment %s published but carrier broadcast list failed: %v", shipmentID, err)
		recipients = nil
	}
	if err := e.emit(ctx, Event{Kind: EventShipmentPublished, Shipment: shipment, Recipients: recipients}); err != nil {
		if rbErr := e.store.TransitionShipment(ctx, shipmentID, models.ShipmentPublished, models.ShipmentDraft); rbErr != nil {
			log.Printf("CRITICAL: shipment %s publish not rolled back after failed dispatch: %v", shipmentID, rbErr)
		}
		return nil, err
	}
	return shipment, nil
}

// CancelShipment withdraws a published shipment before assignment and
// rejects any pending offers on it.
func (e *Engine) CancelShipment(ctx context.Context, shipperID, shipmentID string) (*models.Shipment, error) {
	shipment, err := e.store.GetShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.ShipperID != shipperID {
		return nil, ErrForbidden
	}

	if err := e.store.TransitionShipment(ctx, shipmentID, models.ShipmentPublished, models.ShipmentCancelled); err != nil {
		return nil, err
	}
	shipment.Status = models.ShipmentCancelled

	rejected, err := e.store.RejectPendingOffers(ctx, shipmentID)
	if err != nil {
		log.Printf("CRITICAL: shipment %s cancelled but pending offers not rejected: %v", shipmentID, err)
	}
	recipients := make([]string, 0, len(rejected))
	for _, offer := range rejected {
		recipients = append(recipients, offer.CarrierID)
	}

	if err := e.emit(ctx, Event{Kind: EventShipmentCancelled, Shipment: shipment, Recipients: recipients}); err != nil {
		if rbErr := e.store.TransitionShipment(ctx, shipmentID, models.ShipmentCancelled, models.ShipmentPublished); rbErr != nil {
			log.Printf("CRITICAL: shipment %s cancellation not rolled back after failed dispatch: %v", shipmentID, rbErr)
		}
		for _, offer := range rejected {
			if rbErr := e.store.UpdateOfferStatus(ctx, offer.OfferID, models.OfferRejected, models.OfferPending); rbErr != nil {
				log.Printf("CRITICAL: offer %s not restored to pending after failed dispatch: %v", offer.OfferID, rbErr)
			}
		}
		return nil, err
	}
	return shipment, nil
}

func (e *Engine) GetShipment(ctx context.Context, shipmentID string) (*models.Shipment, error) {
	return e.store.GetShipment(ctx, shipmentID)
}

func (e *Engine) ListMyShipments(ctx context.Context, shipperID string) ([]models.Shipment, error) {
	return e.store.ListShipmentsByShipper(ctx, shipperID)
}

// ListOpenShipments returns the published freight board.
func (e *Engine) ListOpenShipments(ctx context.Context) ([]models.Shipment, error) {
	return e.store.ListShipmentsByStatus(ctx, models.ShipmentPublished)
}

// ---------- Offers ----------

type CreateOfferInput struct {
	ShipmentID string
	VehicleID  string
	PriceRSD   float64
	Note       string
}

// CreateOffer records a carrier's bid on a published shipment.
func (e *Engine) CreateOffer(ctx context.Context, carrierID string, in CreateOfferInput) (*models.Offer, error) {
	shipment, err := e.store.GetShipment(ctx, in.ShipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.ShipperID == carrierID {
		return nil, fmt.Errorf("%w: cannot bid on own shipment", ErrForbidden)
	}
	if shipment.Status != models.ShipmentPublished {
		return nil, fmt.Errorf("%w: shipment is %s", ErrInvalidState, shipment.Status)
	}
	if in.PriceRSD <= 0 {
		return nil, fmt.Errorf("%w: bid price must be positive", ErrInvalidState)
	}

	vehicle, err := e.store.GetVehicle(ctx, in.VehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.OwnerCarrierID != carrierID {
		return nil, fmt.Errorf("%w: vehicle belongs to another carrier", ErrForbidden)
	}
	if !vehicle.Active || vehicle.Status != models.VehicleAvailable {
		return nil, fmt.Errorf("%w: vehicle is not available", ErrInvalidState)
	}

	now := e.now()
	offer := &models.Offer{
		OfferID:    newID("OFR"),
		ShipmentID: in.ShipmentID,
		CarrierID:  carrierID,
		VehicleID:  in.VehicleID,
		PriceRSD:   in.PriceRSD,
		Note:       in.Note,
		Status:     models.OfferPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.store.InsertOffer(ctx, offer); err != nil {
		return nil, err
	}

	if err := e.emit(ctx, Event{Kind: EventOfferReceived, Shipment: shipment, Offer: offer}); err != nil {
		if rbErr := e.store.DeleteOffer(ctx, offer.OfferID); rbErr != nil {
			log.Printf("CRITICAL: offer %s not removed after failed dispatch: %v", offer.OfferID, rbErr)
		}
		return nil, err
	}
	return offer, nil
}

// AcceptOffer performs the atomic acceptance group: the chosen offer wins,
// every sibling is rejected, the shipment becomes assigned, and a tour
// plus an escrow transaction are created in one commit. The transaction
// amount is the offer's bid price, never a recomputation.
func (e *Engine) AcceptOffer(ctx context.Context, shipperID, offerID string) (*models.Tour, error) {
	offer, err := e.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	shipment, err := e.store.GetShipment(ctx, offer.ShipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.ShipperID != shipperID {
		return nil, ErrForbidden
	}
	if offer.Status != models.OfferPending {
		return nil, fmt.Errorf("%w: offer is %s", ErrInvalidState, offer.Status)
	}
	if shipment.Status != models.ShipmentPublished {
		return nil, fmt.Errorf("%w: shipment is %s", ErrInvalidState, shipment.Status)
	}

	now := e.now()
	tour := &models.Tour{
		TourID:     newID("TUR"),
		ShipmentID: shipment.ShipmentID,
		OfferID:    offer.OfferID,
		ShipperID:  shipment.ShipperID,
		CarrierID:  offer.CarrierID,
		VehicleID:  offer.VehicleID,
		Status:     models.TourCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	commission, payout := pricing.Split(offer.PriceRSD, e.commissionPct)
	txn := &models.Transaction{
		TransactionID:    newID("TRX"),
		TourID:           tour.TourID,
		AmountRSD:        offer.PriceRSD,
		Currency:         e.currency,
		CommissionPct:    e.commissionPct,
		CommissionRSD:    commission,
		CarrierPayoutRSD: payout,
		Status:           models.TxnReserved,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	rejected, err := e.store.AcceptOfferGroup(ctx, shipment.ShipmentID, offer.OfferID, tour, txn)
	if err != nil {
		return nil, err
	}
	offer.Status = models.OfferAccepted
	shipment.Status = models.ShipmentAssigned

	event := Event{
		Kind:             EventOfferAccepted,
		Shipment:         shipment,
		Offer:            offer,
		RejectedSiblings: rejected,
		Tour:             tour,
		Transaction:      txn,
	}
	if err := e.emit(ctx, event); err != nil {
		if rbErr := e.store.RevertAcceptOfferGroup(ctx, shipment.ShipmentID, offer.OfferID, rejected, tour.TourID); rbErr != nil {
			log.Printf("CRITICAL: acceptance of offer %s not rolled back after failed dispatch: %v", offer.OfferID, rbErr)
		}
		return nil, err
	}

	if err := e.store.SetVehicleStatus(ctx, offer.VehicleID, models.VehicleInTrip); err != nil {
		log.Printf("CRITICAL: tour %s created but vehicle %s status not updated: %v", tour.TourID, offer.VehicleID, err)
	}
	return tour, nil
}

// DeclineOffer rejects a single pending offer without touching its siblings.
func (e *Engine) DeclineOffer(ctx context.Context, shipperID, offerID string) error {
	offer, err := e.store.GetOffer(ctx, offerID)
	if err != nil {
		return err
	}
	shipment, err := e.store.GetShipment(ctx, offer.ShipmentID)
	if err != nil {
		return err
	}
	if shipment.ShipperID != shipperID {
		return ErrForbidden
	}

	if err := e.store.UpdateOfferStatus(ctx, offerID, models.OfferPending, models.OfferRejected); err != nil {
		return err
	}
	offer.Status = models.OfferRejected

	if err := e.emit(ctx, Event{Kind: EventOfferRejected, Shipment: shipment, Offer: offer}); err != nil {
		if rbErr := e.store.UpdateOfferStatus(ctx, offerID, models.OfferRejected, models.OfferPending); rbErr != nil {
			log.Printf("CRITICAL: offer %s not restored to pending after failed dispatch: %v", offerID, rbErr)
		}
		return err
	}
	return nil
}

func (e *Engine) ListOffersForShipment(ctx context.Context, shipperID, shipmentID string) ([]models.Offer, error) {
	shipment, err := e.store.GetShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.ShipperID != shipperID {
		return nil, ErrForbidden
	}
	return e.store.ListOffersByShipment(ctx, shipmentID)
}

func (e *Engine) ListMyOffers(ctx context.Context, carrierID string) ([]models.Offer, error) {
	return e.store.ListOffersByCarrier(ctx, carrierID)
}

// ---------- Tours ----------

// getTourForCarrier loads a tour and verifies the caller is its carrier.
func (e *Engine) getTourForCarrier(ctx context.Context, carrierID, tourID string) (*models.Tour, error) {
	tour, err := e.store.GetTour(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if tour.CarrierID != carrierID {
		return nil, ErrForbidden
	}
	return tour, nil
}

// ConfirmTour is the carrier's acceptance of a freshly created tour.
func (e *Engine) ConfirmTour(ctx context.Context, carrierID, tourID string) (*models.Tour, error) {
	if _, err := e.getTourForCarrier(ctx, carrierID, tourID); err != nil {
		return nil, err
	}

	now := e.now()
	tour, err := e.store.TransitionTour(ctx, tourID, models.TourCreated, models.TourConfirmed, func(t *models.Tour) {
		t.ConfirmedAt = now
	})
	if err != nil {
		return nil, err
	}

	if err := e.emit(ctx, Event{Kind: EventTourConfirmed, Tour: tour}); err != nil {
		if _, rbErr := e.store.TransitionTour(ctx, tourID, models.TourConfirmed, models.TourCreated, func(t *models.Tour) {
			t.ConfirmedAt = time.Time{}
		}); rbErr != nil {
			log.Printf("CRITICAL: tour %s confirmation not rolled back after failed dispatch: %v", tourID, rbErr)
		}
		return nil, err
	}
	return tour, nil
}

// DeclineTour lets a carrier walk away from an unconfirmed tour. The
// shipment reopens for offers, the escrow reservation is cancelled and
// the vehicle is freed.
func (e *Engine) DeclineTour(ctx context.Context, carrierID, tourID, reason string) (*models.Tour, error) {
	if _, err := e.getTourForCarrier(ctx, carrierID, tourID); err != nil {
		return nil, err
	}

	tour, err := e.store.CancelTourGroup(ctx, tourID, reason, e.now())
	if err != nil {
		return nil, err
	}

	if err := e.emit(ctx, Event{Kind: EventTourDeclined, Tour: tour, Reason: reason}); err != nil {
		if rbErr := e.store.RevertCancelTourGroup(ctx, tourID); rbErr != nil {
			log.Printf("CRITICAL: cancellation of tour %s not rolled back after failed dispatch: %v", tourID, rbErr)
		}
		return nil, err
	}
	return tour, nil
}

// ConfirmPickup records cargo pickup and puts the shipment in transit.
func (e *Engine) ConfirmPickup(ctx context.Context, carrierID, tourID string) (*models.Tour, error) {
	if _, err := e.getTourForCarrier(ctx, carrierID, tourID); err != nil {
		return nil, err
	}

	now := e.now()
	tour, err := e.store.TransitionTour(ctx, tourID, models.TourConfirmed, models.TourPickedUp, func(t *models.Tour) {
		t.PickupAt = now
	})
	if err != nil {
		return nil, err
	}

	if err := e.store.TransitionShipment(ctx, tour.ShipmentID, models.ShipmentAssigned, models.ShipmentInTransit); err != nil {
		log.Printf("CRITICAL: tour %s picked up but shipment %s not moved to in_transit: %v", tourID, tour.ShipmentID, err)
	}

	if err := e.emit(ctx, Event{Kind: EventPickupConfirmed, Tour: tour}); err != nil {
		if _, rbErr := e.store.TransitionTour(ctx, tourID, models.TourPickedUp, models.TourConfirmed, func(t *models.Tour) {
			t.PickupAt = time.Time{}
		}); rbErr != nil {
			log.Printf("CRITICAL: pickup on tour %s not rolled back after failed dispatch: %v", tourID, rbErr)
		}
		if rbErr := e.store.TransitionShipment(ctx, tour.ShipmentID, models.ShipmentInTransit, models.ShipmentAssigned); rbErr != nil {
			log.Printf("CRITICAL: shipment %s not moved back to assigned after failed dispatch: %v", tour.ShipmentID, rbErr)
		}
		return nil, err
	}
	return tour, nil
}

// ConfirmDelivery completes the tour. Lateness against the shipment's
// requested delivery window is charged per started 15-minute block and
// deducted from the carrier payout; the platform commission is computed
// from the gross amount and never changes.
func (e *Engine) ConfirmDelivery(ctx context.Context, carrierID, tourID string) (*models.Tour, error) {
	tour, err := e.getTourForCarrier(ctx, carrierID, tourID)
	if err != nil {
		return nil, err
	}
	if tour.Status != models.TourPickedUp {
		return nil, fmt.Errorf("%w: tour is %s", ErrInvalidState, tour.Status)
	}

	shipment, err := e.store.GetShipment(ctx, tour.ShipmentID)
	if err != nil {
		return nil, err
	}
	txn, err := e.store.GetTransactionByTour(ctx, tourID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	penalty := 0.0
	if !shipment.DeliverBy.IsZero() && now.After(shipment.DeliverBy) {
		// Any lateness at all starts the first block, so partial minutes
		// round up.
		minutesLate := int(math.Ceil(now.Sub(shipment.DeliverBy).Minutes()))
		penalty = pricing.Penalty(minutesLate)
		// The penalty can never reach into the commission share.
		if maxPenalty := txn.AmountRSD - txn.CommissionRSD; penalty > maxPenalty {
			penalty = maxPenalty
		}
	}

	tour, txn, err = e.store.CaptureDeliveryGroup(ctx, tourID, now, penalty)
	if err != nil {
		return nil, err
	}

	if err := e.emit(ctx, Event{Kind: EventDeliveryConfirmed, Shipment: shipment, Tour: tour, Transaction: txn}); err != nil {
		if rbErr := e.store.RevertCaptureDeliveryGroup(ctx, tourID, penalty); rbErr != nil {
			log.Printf("CRITICAL: delivery capture on tour %s not rolled back after failed dispatch: %v", tourID, rbErr)
		}
		return nil, err
	}
	return tour, nil
}

func (e *Engine) GetTour(ctx context.Context, tourID string) (*models.Tour, error) {
	return e.store.GetTour(ctx, tourID)
}

func (e *Engine) GetTourByShipment(ctx context.Context, shipmentID string) (*models.Tour, error) {
	return e.store.GetTourByShipment(ctx, shipmentID)
}

func (e *Engine) ListMyTours(ctx context.Context, carrierID string) ([]models.Tour, error) {
	return e.store.ListToursByCarrier(ctx, carrierID)
}

func (e *Engine) ListToursForShipper(ctx context.Context, shipperID string) ([]models.Tour, error) {
	return e.store.ListToursByShipper(ctx, shipperID)
}

func (e *Engine) GetTransactionByTour(ctx context.Context, tourID string) (*models.Transaction, error) {
	return e.store.GetTransactionByTour(ctx, tourID)
}

// AttachProof stores an uploaded proof photo reference on the tour.
func (e *Engine) AttachProof(ctx context.Context, carrierID, tourID, stage string, media models.MediaPointer) error {
	tour, err := e.getTourForCarrier(ctx, carrierID, tourID)
	if err != nil {
		return err
	}
	switch tour.Status {
	case models.TourConfirmed, models.TourPickedUp:
		// Proof uploads are allowed while the tour is underway.
	default:
		return fmt.Errorf("%w: tour is %s", ErrInvalidState, tour.Status)
	}
	return e.store.AttachTourProof(ctx, tourID, stage, media)
}
