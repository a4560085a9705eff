// server/internal/storage/memory.go
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"freight-exchange-api-server/internal/matching"
	"freight-exchange-api-server/internal/models"
)

// Memory is an in-memory implementation of the matching store, the route
// catalog and the notification inbox. It backs tests and local development;
// production runs on Mongo. One mutex guards everything, which also gives
// the grouped operations their atomicity.
type Memory struct {
	mu sync.RWMutex

	users         map[string]*models.User // keyed by userID
	usersByEmail  map[string]string
	vehicles      map[string]*models.Vehicle
	shipments     map[string]*models.Shipment
	offers        map[string]*models.Offer
	tours         map[string]*models.Tour
	transactions  map[string]*models.Transaction // keyed by tourID
	notifications map[string]*models.Notification

	locations map[string]models.Location
	corridors []models.Corridor
}

func NewMemory() *Memory {
	return &Memory{
		users:         make(map[string]*models.User),
		usersByEmail:  make(map[string]string),
		vehicles:      make(map[string]*models.Vehicle),
		shipments:     make(map[string]*models.Shipment),
		offers:        make(map[string]*models.Offer),
		tours:         make(map[string]*models.Tour),
		transactions:  make(map[string]*models.Transaction),
		notifications: make(map[string]*models.Notification),
		locations:     make(map[string]models.Location),
	}
}

// ---------- Users ----------

func (m *Memory) InsertUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.usersByEmail[user.Email]; exists {
		return fmt.Errorf("user with email %s already exists", user.Email)
	}
	clone := *user
	m.users[user.UserID] = &clone
	m.usersByEmail[user.Email] = user.UserID
	return nil
}

func (m *Memory) GetUser(ctx context.Context, userID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[userID]
	if !ok {
		return nil, matching.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	userID, ok := m.usersByEmail[email]
	if !ok {
		return nil, matching.ErrNotFound
	}
	clone := *m.users[userID]
	return &clone, nil
}

// ---------- Vehicles ----------

func (m *Memory) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *vehicle
	m.vehicles[vehicle.VehicleID] = &clone
	return nil
}

func (m *Memory) GetVehicle(ctx context.Context, vehicleID string) (*models.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, ok := m.vehicles[vehicleID]
	if !ok {
		return nil, matching.ErrNotFound
	}
	clone := *vehicle
	return &clone, nil
}

func (m *Memory) ListVehiclesByCarrier(ctx context.Context, carrierID string) ([]models.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Vehicle{}
	for _, v := range m.vehicles {
		if v.OwnerCarrierID == carrierID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleID < out[j].VehicleID })
	return out, nil
}

func (m *Memory) SetVehicleStatus(ctx context.Context, vehicleID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vehicle, ok := m.vehicles[vehicleID]
	if !ok {
		return matching.ErrNotFound
	}
	vehicle.Status = status
	vehicle.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) ListCarriersWithActiveVehicle(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	out := []string{}
	for _, v := range m.vehicles {
		if v.Active && !seen[v.OwnerCarrierID] {
			seen[v.OwnerCarrierID] = true
			out = append(out, v.OwnerCarrierID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ---------- Shipments ----------

func (m *Memory) InsertShipment(ctx context.Context, shipment *models.Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *shipment
	m.shipments[shipment.ShipmentID] = &clone
	return nil
}

func (m *Memory) DeleteShipment(ctx context.Context, shipmentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shipments[shipmentID]; !ok {
		return matching.ErrNotFound
	}
	delete(m.shipments, shipmentID)
	return nil
}

func (m *Memory) GetShipment(ctx context.Context, shipmentID string) (*models.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	shipment, ok := m.shipments[shipmentID]
	if !ok {
		return nil, matching.ErrNotFound
	}
	clone := *shipment
	return &clone, nil
}

func (m *Memory) ListShipmentsByShipper(ctx context.Context, shipperID string) ([]models.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Shipment{}
	for _, s := range m.shipments {
		if s.ShipperID == shipperID {
			out = append(out, *s)
		}
	}
	sortShipmentsNewestFirst(out)
	return out, nil
}

func (m *Memory) ListShipmentsByStatus(ctx context.Context, status string) ([]models.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Shipment{}
	for _, s := range m.shipments {
		if s.Status == status {
			out = append(out, *s)
		}
	}
	sortShipmentsNewestFirst(out)
	return out, nil
}

func sortShipmentsNewestFirst(shipments []models.Shipment) {
	sort.Slice(shipments, func(i, j int) bool {
		if !shipments[i].CreatedAt.Equal(shipments[j].CreatedAt) {
			return shipments[i].CreatedAt.After(shipments[j].CreatedAt)
		}
		return shipments[i].ShipmentID < shipments[j].ShipmentID
	})
}

func (m *Memory) TransitionShipment(ctx context.Context, shipmentID, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitionShipmentLocked(shipmentID, from, to)
}

func (m *Memory) transitionShipmentLocked(shipmentID, from, to string) error {
	shipment, ok := m.shipments[shipmentID]
	if !ok {
		return matching.ErrNotFound
	}
	if shipment.Status != from {
		return fmt.Errorf("%w: shipment is %s, expected %s", matching.ErrInvalidState, shipment.Status, from)
	}
	shipment.Status = to
	shipment.UpdatedAt = time.Now()
	return nil
}

// ---------- Offers ----------

func (m *Memory) InsertOffer(ctx context.Context, offer *models.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.offers {
		if existing.ShipmentID == offer.ShipmentID && existing.CarrierID == offer.CarrierID {
			return matching.ErrDuplicateOffer
		}
	}
	clone := *offer
	m.offers[offer.OfferID] = &clone
	return nil
}

func (m *Memory) DeleteOffer(ctx context.Context, offerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.offers[offerID]; !ok {
		return matching.ErrNotFound
	}
	delete(m.offers, offerID)
	return nil
}

func (m *Memory) GetOffer(ctx context.Context, offerID string) (*models.Offer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	offer, ok := m.offers[offerID]
	if !ok {
		return nil, matching.ErrNotFound
	}
	clone := *offer
	return &clone, nil
}

func (m *Memory) ListOffersByShipment(ctx context.Context, shipmentID string) ([]models.Offer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Offer{}
	for _, o := range m.offers {
		if o.ShipmentID == shipmentID {
			out = append(out, *o)
		}
	}
	sortOffersNewestFirst(out)
	return out, nil
}

func (m *Memory) ListOffersByCarrier(ctx context.Context, carrierID string) ([]models.Offer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Offer{}
	for _, o := range m.offers {
		if o.CarrierID == carrierID {
			out = append(out, *o)
		}
	}
	sortOffersNewestFirst(out)
	return out, nil
}

func sortOffersNewestFirst(offers []models.Offer) {
	sort.Slice(offers, func(i, j int) bool {
		if !offers[i].CreatedAt.Equal(offers[j].CreatedAt) {
			return offers[i].CreatedAt.After(offers[j].CreatedAt)
		}
		return offers[i].OfferID < offers[j].OfferID
	})
}

func (m *Memory) UpdateOfferStatus(ctx context.Context, offerID, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	offer, ok := m.offers[offerID]
	if !ok {
		return matching.ErrNotFound
	}
	if offer.Status != from {
		return fmt.Errorf("%w: offer is %s, expected %s", matching.ErrInvalidState, offer.Status, from)
	}
	offer.Status = to
	offer.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) RejectPendingOffers(ctx context.Context, shipmentID string) ([]models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rejectPendingOffersLocked(shipmentID, ""), nil
}

// rejectPendingOffersLocked rejects every pending offer on the shipment
// except the one with exceptOfferID, returning the rejected offers.
func (m *Memory) rejectPendingOffersLocked(shipmentID, exceptOfferID string) []models.Offer {
	rejected := []models.Offer{}
	for _, o := range m.offers {
		if o.ShipmentID == shipmentID && o.Status == models.OfferPending && o.OfferID != exceptOfferID {
			o.Status = models.OfferRejected
			o.UpdatedAt = time.Now()
			rejected = append(rejected, *o)
		}
	}
	sortOffersNewestFirst(rejected)
	return rejected
}

func (m *Memory) AcceptOfferGroup(ctx context.Context, shipmentID, offerID string, tour *models.Tour, txn *models.Transaction) ([]models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	offer, ok := m.offers[offerID]
	if !ok {
		return nil, matching.ErrNotFound
	}
	if offer.Status != models.OfferPending {
		return nil, fmt.Errorf("%w: offer is %s", matching.ErrInvalidState, offer.Status)
	}
	// The shipment transition is the serialization point: a concurrent
	// acceptance that got here first already moved it off published.
	if err := m.transitionShipmentLocked(shipmentID, models.ShipmentPublished, models.ShipmentAssigned); err != nil {
		return nil, err
	}

	offer.Status = models.OfferAccepted
	offer.UpdatedAt = time.Now()
	rejected := m.rejectPendingOffersLocked(shipmentID, offerID)

	tourClone := *tour
	m.tours[tour.TourID] = &tourClone
	txnClone := *txn
	m.transactions[tour.TourID] = &txnClone
	return rejected, nil
}

func (m *Memory) RevertAcceptOfferGroup(ctx context.Context, shipmentID, offerID string, rejected []models.Offer, tourID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tours, tourID)
	delete(m.transactions, tourID)

	now := time.Now()
	if offer, ok := m.offers[offerID]; ok {
		offer.Status = models.OfferPending
		offer.UpdatedAt = now
	}
	for _, r := range rejected {
		if offer, ok := m.offers[r.OfferID]; ok {
			offer.Status = models.OfferPending
			offer.UpdatedAt = now
		}
	}
	return m.transitionShipmentLocked(shipmentID, models.ShipmentAssigned, models.ShipmentPublished)
}

// ---------- Tours ----------

func (m *Memory) GetTour(ctx context.Context, tourID string) (*models.Tour, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tour, ok := m.tours[tourID]
	if !ok {
		return nil, matching.ErrNotFound
	}
	clone := *tour
	return &clone, nil
}

func (m *Memory) GetTourByShipment(ctx context.Context, shipmentID string) (*models.Tour, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tours {
		if t.ShipmentID == shipmentID && t.Status != models.TourCancelled {
			clone := *t
			return &clone, nil
		}
	}
	return nil, matching.ErrNotFound
}

func (m *Memory) ListToursByCarrier(ctx context.Context, carrierID string) ([]models.Tour, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Tour{}
	for _, t := range m.tours {
		if t.CarrierID == carrierID {
			out = append(out, *t)
		}
	}
	sortToursNewestFirst(out)
	return out, nil
}

func (m *Memory) ListToursByShipper(ctx context.Context, shipperID string) ([]models.Tour, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Tour{}
	for _, t := range m.tours {
		if t.ShipperID == shipperID {
			out = append(out, *t)
		}
	}
	sortToursNewestFirst(out)
	return out, nil
}

func sortToursNewestFirst(tours []models.Tour) {
	sort.Slice(tours, func(i, j int) bool {
		if !tours[i].CreatedAt.Equal(tours[j].CreatedAt) {
			return tours[i].CreatedAt.After(tours[j].CreatedAt)
		}
		return tours[i].TourID < tours[j].TourID
	})
}

func (m *Memory) TransitionTour(ctx context.Context, tourID, from, to string, mutate func(*models.Tour)) (*models.Tour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tour, ok := m.tours[tourID]
	if !ok {
		return nil, matching.ErrNotFound
	}
	if tour.Status != from {
		return nil, fmt.Errorf("%w: tour is %s, expected %s", matching.ErrInvalidState, tour.Status, from)
	}
	tour.Status = to
	if mutate != nil {
		mutate(tour)
	}
	tour.UpdatedAt = time.Now()
	clone := *tour
	return &clone, nil
}

func (m *Memory) CancelTourGroup(ctx context.Context, tourID, reason string, now time.Time) (*models.Tour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tour, ok := m.tours[tourID]
	if !ok {
		return nil, matching.ErrNotFound
	}
	if tour.Status != models.TourCreated {
		return nil, fmt.Errorf("%w: tour is %s, only unconfirmed tours can be declined", matching.ErrInvalidState, tour.Status)
	}

	tour.Status = models.TourCancelled
	tour.CancelReason = reason
	tour.UpdatedAt = now

	// Reopen the shipment for new offers.
	if shipment, ok := m.shipments[tour.ShipmentID]; ok {
		shipment.Status = models.ShipmentPublished
		shipment.UpdatedAt = now
	}
	if txn, ok := m.transactions[tourID]; ok {
		txn.Status = models.TxnCancelled
		txn.UpdatedAt = now
	}
	if vehicle, ok := m.vehicles[tour.VehicleID]; ok {
		vehicle.Status = models.VehicleAvailable
		vehicle.UpdatedAt = now
	}

	clone := *tour
	return &clone, nil
}

func (m *Memory) RevertCancelTourGroup(ctx context.Context, tourID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tour, ok := m.tours[tourID]
	if !ok {
		return matching.ErrNotFound
	}
	if tour.Status != models.TourCancelled {
		return fmt.Errorf("%w: tour is %s, expected %s", matching.ErrInvalidState, tour.Status, models.TourCancelled)
	}

	now := time.Now()
	tour.Status = models.TourCreated
	tour.CancelReason = ""
	tour.UpdatedAt = now

	if shipment, ok := m.shipments[tour.ShipmentID]; ok {
		shipment.Status = models.ShipmentAssigned
		shipment.UpdatedAt = now
	}
	if txn, ok := m.transactions[tourID]; ok {
		txn.Status = models.TxnReserved
		txn.UpdatedAt = now
	}
	if vehicle, ok := m.vehicles[tour.VehicleID]; ok {
		vehicle.Status = models.VehicleInTrip
		vehicle.UpdatedAt = now
	}
	return nil
}

func (m *Memory) CaptureDeliveryGroup(ctx context.Context, tourID string, now time.Time, penalty float64) (*models.Tour, *models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tour, ok := m.tours[tourID]
	if !ok {
		return nil, nil, matching.ErrNotFound
	}
	if tour.Status != models.TourPickedUp {
		return nil, nil, fmt.Errorf("%w: tour is %s, expected %s", matching.ErrInvalidState, tour.Status, models.TourPickedUp)
	}
	txn, ok := m.transactions[tourID]
	if !ok {
		return nil, nil, matching.ErrNotFound
	}

	tour.Status = models.TourDelivered
	tour.DeliveredAt = now
	tour.UpdatedAt = now

	if shipment, ok := m.shipments[tour.ShipmentID]; ok {
		shipment.Status = models.ShipmentDelivered
		shipment.UpdatedAt = now
	}

	txn.Status = models.TxnCaptured
	txn.PenaltyRSD = penalty
	txn.CarrierPayoutRSD -= penalty
	txn.CapturedAt = now
	txn.UpdatedAt = now

	if vehicle, ok := m.vehicles[tour.VehicleID]; ok {
		vehicle.Status = models.VehicleAvailable
		vehicle.UpdatedAt = now
	}

	tourClone := *tour
	txnClone := *txn
	return &tourClone, &txnClone, nil
}

func (m *Memory) RevertCaptureDeliveryGroup(ctx context.Context, tourID string, penalty float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tour, ok := m.tours[tourID]
	if !ok {
		return matching.ErrNotFound
	}
	if tour.Status != models.TourDelivered {
		return fmt.Errorf("%w: tour is %s, expected %s", matching.ErrInvalidState, tour.Status, models.TourDelivered)
	}

	now := time.Now()
	tour.Status = models.TourPickedUp
	tour.DeliveredAt = time.Time{}
	tour.UpdatedAt = now

	if shipment, ok := m.shipments[tour.ShipmentID]; ok {
		shipment.Status = models.ShipmentInTransit
		shipment.UpdatedAt = now
	}
	if txn, ok := m.transactions[tourID]; ok {
		txn.Status = models.TxnReserved
		txn.PenaltyRSD = 0
		txn.CarrierPayoutRSD += penalty
		txn.CapturedAt = time.Time{}
		txn.UpdatedAt = now
	}
	if vehicle, ok := m.vehicles[tour.VehicleID]; ok {
		vehicle.Status = models.VehicleInTrip
		vehicle.UpdatedAt = now
	}
	return nil
}

func (m *Memory) AttachTourProof(ctx context.Context, tourID, stage string, media models.MediaPointer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tour, ok := m.tours[tourID]
	if !ok {
		return matching.ErrNotFound
	}
	switch stage {
	case "pickup":
		tour.PickupProof = append(tour.PickupProof, media)
	case "delivery":
		tour.DeliveryProof = append(tour.DeliveryProof, media)
	default:
		return fmt.Errorf("unknown proof stage %q", stage)
	}
	tour.UpdatedAt = time.Now()
	return nil
}

// ---------- Transactions ----------

func (m *Memory) GetTransactionByTour(ctx context.Context, tourID string) (*models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	txn, ok := m.transactions[tourID]
	if !ok {
		return nil, matching.ErrNotFound
	}
	clone := *txn
	return &clone, nil
}

// ---------- Notifications ----------

func (m *Memory) InsertNotification(ctx context.Context, notification *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *notification
	m.notifications[notification.NotificationID] = &clone
	return nil
}

func (m *Memory) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Notification{}
	for _, n := range m.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].NotificationID < out[j].NotificationID
	})
	return out, nil
}

func (m *Memory) MarkNotificationRead(ctx context.Context, recipientID, notificationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	notification, ok := m.notifications[notificationID]
	if !ok || notification.RecipientID != recipientID {
		return matching.ErrNotFound
	}
	notification.IsRead = true
	return nil
}

// ---------- Route catalog ----------

func (m *Memory) AddLocation(location models.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[location.Name] = location
}

func (m *Memory) AddCorridor(corridor models.Corridor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.corridors = append(m.corridors, corridor)
}

func (m *Memory) Location(name string) (models.Location, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.locations[name]
	return loc, ok
}

func (m *Memory) MajorLocations() []models.Location {
	m.mu.RLock()
	defer m.mu.RUnlock()
	majors := []models.Location{}
	for _, loc := range m.locations {
		if loc.IsMajor {
			majors = append(majors, loc)
		}
	}
	sort.Slice(majors, func(i, j int) bool { return majors[i].Name < majors[j].Name })
	return majors
}

func (m *Memory) CorridorsBetween(a, b string) []models.Corridor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matches := []models.Corridor{}
	for _, c := range m.corridors {
		if (c.From == a && c.To == b) || (c.From == b && c.To == a) {
			matches = append(matches, c)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Priority != matches[j].Priority {
			return matches[i].Priority < matches[j].Priority
		}
		return matches[i].Name < matches[j].Name
	})
	return matches
}
