package matching_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"freight-exchange-api-server/internal/matching"
	"freight-exchange-api-server/internal/models"
	"freight-exchange-api-server/internal/routing"
	"freight-exchange-api-server/internal/storage"
)

// sinkRecorder captures engine events, optionally failing every delivery.
type sinkRecorder struct {
	mu     sync.Mutex
	events []matching.Event
	fail   error
}

func (s *sinkRecorder) On(ctx context.Context, event matching.Event) error {
	if s.fail != nil {
		return s.fail
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *sinkRecorder) last(t *testing.T) matching.Event {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		t.Fatal("no events recorded")
	}
	return s.events[len(s.events)-1]
}

type fixture struct {
	store  *storage.Memory
	sink   *sinkRecorder
	engine *matching.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemory()
	sink := &sinkRecorder{}
	engine := matching.NewEngine(store, routing.NewEngine(store), sink, 15, "RSD")
	return &fixture{store: store, sink: sink, engine: engine}
}

// addCarrier registers a carrier with one active, available vehicle and
// returns the vehicle id.
func (f *fixture) addCarrier(t *testing.T, carrierID string) string {
	t.Helper()
	ctx := context.Background()
	err := f.store.InsertUser(ctx, &models.User{
		UserID: carrierID,
		Email:  carrierID + "@example.com",
		Role:   models.RoleCarrier,
	})
	if err != nil {
		t.Fatalf("insert carrier: %v", err)
	}
	vehicleID := "VEH-" + carrierID
	err = f.store.InsertVehicle(ctx, &models.Vehicle{
		VehicleID:      vehicleID,
		OwnerCarrierID: carrierID,
		Specs:          models.VehicleSpecs{Class: models.VehicleTruck},
		Active:         true,
		Status:         models.VehicleAvailable,
	})
	if err != nil {
		t.Fatalf("insert vehicle: %v", err)
	}
	return vehicleID
}

// publishedShipment creates and publishes a shipment for the shipper.
func (f *fixture) publishedShipment(t *testing.T, shipperID string, deliverBy time.Time) *models.Shipment {
	t.Helper()
	ctx := context.Background()
	shipment, err := f.engine.CreateShipment(ctx, shipperID, matching.CreateShipmentInput{
		Pickup:    models.Address{City: "Beograd"},
		Delivery:  models.Address{City: "Nis"},
		Cargo:     models.Cargo{WeightKG: 800, PalletCount: 2, Urgency: "standard"},
		DeliverBy: deliverBy,
	})
	if err != nil {
		t.Fatalf("create shipment: %v", err)
	}
	if shipment.Status != models.ShipmentDraft {
		t.Fatalf("new shipment status = %s, want draft", shipment.Status)
	}
	shipment, err = f.engine.PublishShipment(ctx, shipperID, shipment.ShipmentID)
	if err != nil {
		t.Fatalf("publish shipment: %v", err)
	}
	return shipment
}

func TestAcceptOfferCreatesTourAndEscrow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vehicleA := f.addCarrier(t, "carrier-a")
	f.addCarrier(t, "carrier-b")
	shipment := f.publishedShipment(t, "shipper-1", time.Now().Add(24*time.Hour))

	offerA, err := f.engine.CreateOffer(ctx, "carrier-a", matching.CreateOfferInput{
		ShipmentID: shipment.ShipmentID, VehicleID: vehicleA, PriceRSD: 1000,
	})
	if err != nil {
		t.Fatalf("offer A: %v", err)
	}
	offerB, err := f.engine.CreateOffer(ctx, "carrier-b", matching.CreateOfferInput{
		ShipmentID: shipment.ShipmentID, VehicleID: "VEH-carrier-b", PriceRSD: 1200,
	})
	if err != nil {
		t.Fatalf("offer B: %v", err)
	}

	tour, err := f.engine.AcceptOffer(ctx, "shipper-1", offerA.OfferID)
	if err != nil {
		t.Fatalf("accept offer: %v", err)
	}
	if tour.Status != models.TourCreated {
		t.Errorf("tour status = %s, want created", tour.Status)
	}
	if tour.CarrierID != "carrier-a" || tour.VehicleID != vehicleA {
		t.Errorf("tour assigned to %s/%s, want carrier-a/%s", tour.CarrierID, tour.VehicleID, vehicleA)
	}

	// The accepted bid is the authoritative amount, not any estimate.
	txn, err := f.engine.GetTransactionByTour(ctx, tour.TourID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if txn.Status != models.TxnReserved {
		t.Errorf("transaction status = %s, want reserved", txn.Status)
	}
	if txn.AmountRSD != 1000 || txn.CommissionRSD != 150 || txn.CarrierPayoutRSD != 850 {
		t.Errorf("split = %v/%v/%v, want 1000/150/850", txn.AmountRSD, txn.CommissionRSD, txn.CarrierPayoutRSD)
	}

	// Losing sibling is rejected, shipment assigned, vehicle in trip.
	if got, _ := f.store.GetOffer(ctx, offerB.OfferID); got.Status != models.OfferRejected {
		t.Errorf("sibling offer status = %s, want rejected", got.Status)
	}
	if got, _ := f.store.GetShipment(ctx, shipment.ShipmentID); got.Status != models.ShipmentAssigned {
		t.Errorf("shipment status = %s, want assigned", got.Status)
	}
	if got, _ := f.store.GetVehicle(ctx, vehicleA); got.Status != models.VehicleInTrip {
		t.Errorf("vehicle status = %s, want in_trip", got.Status)
	}

	event := f.sink.last(t)
	if event.Kind != matching.EventOfferAccepted {
		t.Fatalf("last event = %s, want offer_accepted", event.Kind)
	}
	if len(event.RejectedSiblings) != 1 || event.RejectedSiblings[0].OfferID != offerB.OfferID {
		t.Errorf("rejected siblings = %+v, want exactly offer B", event.RejectedSiblings)
	}
}

func TestAcceptOfferConcurrentOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addCarrier(t, "carrier-a")
	f.addCarrier(t, "carrier-b")
	shipment := f.publishedShipment(t, "shipper-1", time.Now().Add(24*time.Hour))

	offerIDs := make([]string, 2)
	for i, carrier := range []string{"carrier-a", "carrier-b"} {
		offer, err := f.engine.CreateOffer(ctx, carrier, matching.CreateOfferInput{
			ShipmentID: shipment.ShipmentID, VehicleID: "VEH-" + carrier, PriceRSD: 1000,
		})
		if err != nil {
			t.Fatalf("offer %s: %v", carrier, err)
		}
		offerIDs[i] = offer.OfferID
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range offerIDs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.engine.AcceptOffer(ctx, "shipper-1", offerIDs[i])
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, matching.ErrInvalidState) {
			t.Errorf("loser error = %v, want ErrInvalidState", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("%d acceptances succeeded, want exactly 1", succeeded)
	}

	tours, err := f.store.ListToursByShipper(ctx, "shipper-1")
	if err != nil {
		t.Fatalf("list tours: %v", err)
	}
	if len(tours) != 1 {
		t.Fatalf("%d tours created, want exactly 1", len(tours))
	}
}

func TestCreateOfferGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vehicleA := f.addCarrier(t, "carrier-a")
	f.addCarrier(t, "carrier-b")
	shipment := f.publishedShipment(t, "shipper-1", time.Now().Add(24*time.Hour))

	cases := []struct {
		name    string
		carrier string
		in      matching.CreateOfferInput
		want    error
	}{
		{
			"own shipment",
			"shipper-1",
			matching.CreateOfferInput{ShipmentID: shipment.ShipmentID, VehicleID: vehicleA, PriceRSD: 900},
			matching.ErrForbidden,
		},
		{
			"someone else's vehicle",
			"carrier-b",
			matching.CreateOfferInput{ShipmentID: shipment.ShipmentID, VehicleID: vehicleA, PriceRSD: 900},
			matching.ErrForbidden,
		},
		{
			"non-positive price",
			"carrier-a",
			matching.CreateOfferInput{ShipmentID: shipment.ShipmentID, VehicleID: vehicleA, PriceRSD: 0},
			matching.ErrInvalidState,
		},
		{
			"unknown shipment",
			"carrier-a",
			matching.CreateOfferInput{ShipmentID: "SHP-MISSING", VehicleID: vehicleA, PriceRSD: 900},
			matching.ErrNotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.CreateOffer(ctx, tc.carrier, tc.in)
			if !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
		})
	}

	// Duplicate bid from the same carrier.
	if _, err := f.engine.CreateOffer(ctx, "carrier-a", matching.CreateOfferInput{
		ShipmentID: shipment.ShipmentID, VehicleID: vehicleA, PriceRSD: 900,
	}); err != nil {
		t.Fatalf("first offer: %v", err)
	}
	_, err := f.engine.CreateOffer(ctx, "carrier-a", matching.CreateOfferInput{
		ShipmentID: shipment.ShipmentID, VehicleID: vehicleA, PriceRSD: 950,
	})
	if !errors.Is(err, matching.ErrDuplicateOffer) {
		t.Errorf("duplicate bid error = %v, want ErrDuplicateOffer", err)
	}
}

func TestOfferOnUnpublishedShipment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vehicleA := f.addCarrier(t, "carrier-a")

	draft, err := f.engine.CreateShipment(ctx, "shipper-1", matching.CreateShipmentInput{
		Pickup:   models.Address{City: "Beograd"},
		Delivery: models.Address{City: "Nis"},
		Cargo:    models.Cargo{WeightKG: 100},
	})
	if err != nil {
		t.Fatalf("create shipment: %v", err)
	}

	_, err = f.engine.CreateOffer(ctx, "carrier-a", matching.CreateOfferInput{
		ShipmentID: draft.ShipmentID, VehicleID: vehicleA, PriceRSD: 900,
	})
	if !errors.Is(err, matching.ErrInvalidState) {
		t.Errorf("offer on draft error = %v, want ErrInvalidState", err)
	}
}

func TestCancelShipmentRejectsPendingOffers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addCarrier(t, "carrier-a")
	f.addCarrier(t, "carrier-b")
	shipment := f.publishedShipment(t, "shipper-1", time.Now().Add(24*time.Hour))

	for _, carrier := range []string{"carrier-a", "carrier-b"} {
		if _, err := f.engine.CreateOffer(ctx, carrier, matching.CreateOfferInput{
			ShipmentID: shipment.ShipmentID, VehicleID: "VEH-" + carrier, PriceRSD: 1000,
		}); err != nil {
			t.Fatalf("offer %s: %v", carrier, err)
		}
	}

	cancelled, err := f.engine.CancelShipment(ctx, "shipper-1", shipment.ShipmentID)
	if err != nil {
		t.Fatalf("cancel shipment: %v", err)
	}
	if cancelled.Status != models.ShipmentCancelled {
		t.Errorf("shipment status = %s, want cancelled", cancelled.Status)
	}

	offers, err := f.store.ListOffersByShipment(ctx, shipment.ShipmentID)
	if err != nil {
		t.Fatalf("list offers: %v", err)
	}
	for _, offer := range offers {
		if offer.Status != models.OfferRejected {
			t.Errorf("offer %s status = %s, want rejected", offer.OfferID, offer.Status)
		}
	}

	event := f.sink.last(t)
	if event.Kind != matching.EventShipmentCancelled {
		t.Fatalf("last event = %s, want shipment_cancelled", event.Kind)
	}
	if len(event.Recipients) != 2 {
		t.Errorf("recipients = %v, want both bidding carriers", event.Recipients)
	}

	// A cancelled shipment cannot be cancelled or published again.
	if _, err := f.engine.CancelShipment(ctx, "shipper-1", shipment.ShipmentID); !errors.Is(err, matching.ErrInvalidState) {
		t.Errorf("double cancel error = %v, want ErrInvalidState", err)
	}
}

func TestDeclineTourReopensShipment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vehicleA := f.addCarrier(t, "carrier-a")
	shipment := f.publishedShipment(t, "shipper-1", time.Now().Add(24*time.Hour))

	offer, err := f.engine.CreateOffer(ctx, "carrier-a", matching.CreateOfferInput{
		ShipmentID: shipment.ShipmentID, VehicleID: vehicleA, PriceRSD: 1000,
	})
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	tour, err := f.engine.AcceptOffer(ctx, "shipper-1", offer.OfferID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	declined, err := f.engine.DeclineTour(ctx, "carrier-a", tour.TourID, "vehicle breakdown")
	if err != nil {
		t.Fatalf("decline tour: %v", err)
	}
	if declined.Status != models.TourCancelled || declined.CancelReason != "vehicle breakdown" {
		t.Errorf("declined tour = %s/%q, want cancelled with reason", declined.Status, declined.CancelReason)
	}

	if got, _ := f.store.GetShipment(ctx, shipment.ShipmentID); got.Status != models.ShipmentPublished {
		t.Errorf("shipment status = %s, want republished", got.Status)
	}
	if txn, _ := f.store.GetTransactionByTour(ctx, tour.TourID); txn.Status != models.TxnCancelled {
		t.Errorf("transaction status = %s, want cancelled", txn.Status)
	}
	if got, _ := f.store.GetVehicle(ctx, vehicleA); got.Status != models.VehicleAvailable {
		t.Errorf("vehicle status = %s, want available", got.Status)
	}
}

func TestDeclineTourAfterConfirmFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vehicleA := f.addCarrier(t, "carrier-a")
	shipment := f.publishedShipment(t, "shipper-1", time.Now().Add(24*time.Hour))

	offer, _ := f.engine.CreateOffer(ctx, "carrier-a", matching.CreateOfferInput{
		ShipmentID: shipment.ShipmentID, VehicleID: vehicleA, PriceRSD: 1000,
	})
	tour, _ := f.engine.AcceptOffer(ctx, "shipper-1", offer.OfferID)
	if _, err := f.engine.ConfirmTour(ctx, "carrier-a", tour.TourID); err != nil {
		t.Fatalf("confirm tour: %v", err)
	}

	if _, err := f.engine.DeclineTour(ctx, "carrier-a", tour.TourID, "changed my mind"); !errors.Is(err, matching.ErrInvalidState) {
		t.Errorf("decline after confirm error = %v, want ErrInvalidState", err)
	}
}

func TestDeliveryLifecycleOnTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vehicleA := f.addCarrier(t, "carrier-a")
	shipment := f.publishedShipment(t, "shipper-1", time.Now().Add(24*time.Hour))

	offer, _ := f.engine.CreateOffer(ctx, "carrier-a", matching.CreateOfferInput{
		ShipmentID: shipment.ShipmentID, VehicleID: vehicleA, PriceRSD: 2000,
	})
	tour, _ := f.engine.AcceptOffer(ctx, "shipper-1", offer.OfferID)

	if _, err := f.engine.ConfirmTour(ctx, "carrier-a", tour.TourID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	picked, err := f.engine.ConfirmPickup(ctx, "carrier-a", tour.TourID)
	if err != nil {
		t.Fatalf("pickup: %v", err)
	}
	if picked.Status != models.TourPickedUp || picked.PickupAt.IsZero() {
		t.Errorf("picked tour = %s (pickupAt zero: %v), want picked_up with timestamp", picked.Status, picked.PickupAt.IsZero())
	}
	if got, _ := f.store.GetShipment(ctx, shipment.ShipmentID); got.Status != models.ShipmentInTransit {
		t.Errorf("shipment status = %s, want in_transit", got.Status)
	}

	delivered, err := f.engine.ConfirmDelivery(ctx, "carrier-a", tour.TourID)
	if err != nil {
		t.Fatalf("delivery: %v", err)
	}
	if delivered.Status != models.TourDelivered || delivered.DeliveredAt.IsZero() {
		t.Errorf("delivered tour = %s, want delivered with timestamp", delivered.Status)
	}

	txn, _ := f.engine.GetTransactionByTour(ctx, tour.TourID)
	if txn.Status != models.TxnCaptured {
		t.Errorf("transaction status = %s, want captured", txn.Status)
	}
	if txn.PenaltyRSD != 0 {
		t.Errorf("penalty = %v, want 0 for on-time delivery", txn.PenaltyRSD)
	}
	if txn.CarrierPayoutRSD != 1700 || txn.CommissionRSD != 300 {
		t.Errorf("split = %v/%v, want 1700/300", txn.CarrierPayoutRSD, txn.CommissionRSD)
	}
	if got, _ := f.store.GetShipment(ctx, shipment.ShipmentID); got.Status != models.ShipmentDelivered {
		t.Errorf("shipment status = %s, want delivered", got.Status)
	}
	if got, _ := f.store.GetVehicle(ctx, vehicleA); got.Status != models.VehicleAvailable {
		t.Errorf("vehicle status = %s, want available again", got.Status)
	}
}

func TestLateDeliveryPenalizesPayoutOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vehicleA := f.addCarrier(t, "carrier-a")
	// Deadline 20 minutes in the past: two started 15-minute blocks.
	shipment := f.publishedShipment(t, "shipper-1", time.Now().Add(-20*time.Minute))

	offer, _ := f.engine.CreateOffer(ctx, "carrier-a", matching.CreateOfferInput{
		ShipmentID: shipment.ShipmentID, VehicleID: vehicleA, PriceRSD: 10000,
	})
	tour, _ := f.engine.AcceptOffer(ctx, "shipper-1", offer.OfferID)
	f.engine.ConfirmTour(ctx, "carrier-a", tour.TourID)
	f.engine.ConfirmPickup(ctx, "carrier-a", tour.TourID)

	if _, err := f.engine.ConfirmDelivery(ctx, "carrier-a", tour.TourID); err != nil {
		t.Fatalf("delivery: %v", err)
	}

	txn, _ := f.engine.GetTransactionByTour(ctx, tour.TourID)
	if txn.PenaltyRSD != 1000 {
		t.Errorf("penalty = %v, want 1000 for 20 minutes late", txn.PenaltyRSD)
	}
	// Commission is computed on the gross amount and untouched by the
	// penalty; the deduction lands on the carrier payout.
	if txn.CommissionRSD != 1500 {
		t.Errorf("commission = %v, want 1500", txn.CommissionRSD)
	}
	if txn.CarrierPayoutRSD != 7500 {
		t.Errorf("payout = %v, want 7500", txn.CarrierPayoutRSD)
	}
	if total := txn.CommissionRSD + txn.CarrierPayoutRSD + txn.PenaltyRSD; total != txn.AmountRSD {
		t.Errorf("commission+payout+penalty = %v, want amount %v", total, txn.AmountRSD)
	}
}

func TestBarelyLateDeliveryChargesFirstBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vehicleA := f.addCarrier(t, "carrier-a")
	// Less than a minute past the deadline still starts the first block.
	shipment := f.publishedShipment(t, "shipper-1", time.Now().Add(-30*time.Second))

	offer, _ := f.engine.CreateOffer(ctx, "carrier-a", matching.CreateOfferInput{
		ShipmentID: shipment.ShipmentID, VehicleID: vehicleA, PriceRSD: 10000,
	})
	tour, _ := f.engine.AcceptOffer(ctx, "shipper-1", offer.OfferID)
	f.engine.ConfirmTour(ctx, "carrier-a", tour.TourID)
	f.engine.ConfirmPickup(ctx, "carrier-a", tour.TourID)

	if _, err := f.engine.ConfirmDelivery(ctx, "carrier-a", tour.TourID); err != nil {
		t.Fatalf("delivery: %v", err)
	}

	txn, _ := f.engine.GetTransactionByTour(ctx, tour.TourID)
	if txn.PenaltyRSD != 500 {
		t.Errorf("penalty = %v, want 500 for 30 seconds late", txn.PenaltyRSD)
	}
	if txn.CarrierPayoutRSD != 8000 {
		t.Errorf("payout = %v, want 8000", txn.CarrierPayoutRSD)
	}
}

func TestAcceptOfferAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vehicleA := f.addCarrier(t, "carrier-a")
	shipment := f.publishedShipment(t, "shipper-1", time.Now().Add(24*time.Hour))

	offer, _ := f.engine.CreateOffer(ctx, "carrier-a", matching.CreateOfferInput{
		ShipmentID: shipment.ShipmentID, VehicleID: vehicleA, PriceRSD: 1000,
	})

	if _, err := f.engine.AcceptOffer(ctx, "shipper-2", offer.OfferID); !errors.Is(err, matching.ErrForbidden) {
		t.Errorf("foreign accept error = %v, want ErrForbidden", err)
	}
	if err := f.engine.DeclineOffer(ctx, "shipper-2", offer.OfferID); !errors.Is(err, matching.ErrForbidden) {
		t.Errorf("foreign decline error = %v, want ErrForbidden", err)
	}
	if _, err := f.engine.ConfirmTour(ctx, "carrier-x", "TUR-MISSING"); !errors.Is(err, matching.ErrNotFound) {
		t.Errorf("confirm unknown tour error = %v, want ErrNotFound", err)
	}
}

func TestDeclineOfferLeavesSiblingsAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addCarrier(t, "carrier-a")
	f.addCarrier(t, "carrier-b")
	shipment := f.publishedShipment(t, "shipper-1", time.Now().Add(24*time.Hour))

	offerA, _ := f.engine.CreateOffer(ctx, "carrier-a", matching.CreateOfferInput{
		ShipmentID: shipment.ShipmentID, VehicleID: "VEH-carrier-a", PriceRSD: 1000,
	})
	offerB, _ := f.engine.CreateOffer(ctx, "carrier-b", matching.CreateOfferInput{
		ShipmentID: shipment.ShipmentID, VehicleID: "VEH-carrier-b", PriceRSD: 1100,
	})

	if err := f.engine.DeclineOffer(ctx, "shipper-1", offerA.OfferID); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if got, _ := f.store.GetOffer(ctx, offerA.OfferID); got.Status != models.OfferRejected {
		t.Errorf("offer A status = %s, want rejected", got.Status)
	}
	if got, _ := f.store.GetOffer(ctx, offerB.OfferID); got.Status != models.OfferPending {
		t.Errorf("offer B status = %s, want still pending", got.Status)
	}
	if got, _ := f.store.GetShipment(ctx, shipment.ShipmentID); got.Status != models.ShipmentPublished {
		t.Errorf("shipment status = %s, want still published", got.Status)
	}

	// Declining twice hits the CAS.
	if err := f.engine.DeclineOffer(ctx, "shipper-1", offerA.OfferID); !errors.Is(err, matching.ErrInvalidState) {
		t.Errorf("double decline error = %v, want ErrInvalidState", err)
	}
}

func TestSinkFailureFailsOperation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sink.fail = errors.New("inbox write failed")

	_, err := f.engine.CreateShipment(ctx, "shipper-1", matching.CreateShipmentInput{
		Pickup:   models.Address{City: "Beograd"},
		Delivery: models.Address{City: "Nis"},
		Cargo:    models.Cargo{WeightKG: 100},
	})
	if err == nil {
		t.Fatal("expected error when the event sink fails")
	}

	// The failed creation leaves nothing behind.
	shipments, err := f.store.ListShipmentsByShipper(ctx, "shipper-1")
	if err != nil {
		t.Fatalf("list shipments: %v", err)
	}
	if len(shipments) != 0 {
		t.Errorf("%d shipments persisted after failed creation, want 0", len(shipments))
	}
}

func TestSinkFailureRollsBackAcceptance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vehicleA := f.addCarrier(t, "carrier-a")
	f.addCarrier(t, "carrier-b")
	shipment := f.publishedShipment(t, "shipper-1", time.Now().Add(24*time.Hour))

	offerA, err := f.engine.CreateOffer(ctx, "carrier-a", matching.CreateOfferInput{
		ShipmentID: shipment.ShipmentID, VehicleID: vehicleA, PriceRSD: 1000,
	})
	if err != nil {
		t.Fatalf("offer A: %v", err)
	}
	offerB, err := f.engine.CreateOffer(ctx, "carrier-b", matching.CreateOfferInput{
		ShipmentID: shipment.ShipmentID, VehicleID: "VEH-carrier-b", PriceRSD: 1200,
	})
	if err != nil {
		t.Fatalf("offer B: %v", err)
	}

	f.sink.fail = errors.New("inbox write failed")
	if _, err := f.engine.AcceptOffer(ctx, "shipper-1", offerA.OfferID); err == nil {
		t.Fatal("expected error when the event sink fails")
	}

	// The acceptance is unwound completely: the shipment is back on the
	// board, both offers are pending again, no tour or escrow exists and
	// the vehicle stays free.
	if got, _ := f.store.GetShipment(ctx, shipment.ShipmentID); got.Status != models.ShipmentPublished {
		t.Errorf("shipment status = %s, want published after rollback", got.Status)
	}
	if got, _ := f.store.GetOffer(ctx, offerA.OfferID); got.Status != models.OfferPending {
		t.Errorf("winning offer status = %s, want restored to pending", got.Status)
	}
	if got, _ := f.store.GetOffer(ctx, offerB.OfferID); got.Status != models.OfferPending {
		t.Errorf("sibling offer status = %s, want restored to pending", got.Status)
	}
	tours, err := f.store.ListToursByShipper(ctx, "shipper-1")
	if err != nil {
		t.Fatalf("list tours: %v", err)
	}
	if len(tours) != 0 {
		t.Errorf("%d tours persisted after rollback, want 0", len(tours))
	}
	if got, _ := f.store.GetVehicle(ctx, vehicleA); got.Status != models.VehicleAvailable {
		t.Errorf("vehicle status = %s, want available after rollback", got.Status)
	}

	// Once the sink recovers the same acceptance goes through.
	f.sink.fail = nil
	tour, err := f.engine.AcceptOffer(ctx, "shipper-1", offerA.OfferID)
	if err != nil {
		t.Fatalf("retry accept: %v", err)
	}
	if tour.Status != models.TourCreated {
		t.Errorf("retried tour status = %s, want created", tour.Status)
	}
}

func TestCreateShipmentEstimateAndAdvice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Seed a catalog corridor so the estimate uses the suggested route.
	f.store.AddLocation(models.Location{Name: "Beograd", IsMajor: true})
	f.store.AddLocation(models.Location{Name: "Nis", IsMajor: true})
	f.store.AddCorridor(models.Corridor{
		Name: "A1 Beograd-Nis", Class: "highway", From: "Beograd", To: "Nis",
		DistanceKM: 237, TollRoad: true, Priority: 1,
	})

	shipment, err := f.engine.CreateShipment(ctx, "shipper-1", matching.CreateShipmentInput{
		Pickup:   models.Address{City: "Beograd"},
		Delivery: models.Address{City: "Nis"},
		Cargo:    models.Cargo{WeightKG: 900, PalletCount: 3, Urgency: "standard"},
	})
	if err != nil {
		t.Fatalf("create shipment: %v", err)
	}

	if len(shipment.SuggestedRoutes) == 0 {
		t.Fatal("expected route suggestions from the seeded corridor")
	}
	if !shipment.SuggestedRoutes[0].Recommended {
		t.Error("top suggestion should be recommended")
	}
	// 3 pallets over 237 km falls in the >200 km tier of the pallet table.
	if shipment.EstimatedPrice != 11850 {
		t.Errorf("estimate = %v, want 11850 from the pallet table", shipment.EstimatedPrice)
	}
	if shipment.PackagingAdvice == "" {
		t.Error("expected packaging advice for 900 kg cargo")
	}
}
