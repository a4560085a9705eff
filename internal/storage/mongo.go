// server/internal/storage/mongo.go
package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"freight-exchange-api-server/internal/matching"
	"freight-exchange-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is the production store. Every state transition is a filtered
// UpdateOne: the filter carries the expected current status, so whichever
// concurrent writer matches first wins and the loser sees ErrInvalidState.
// Grouped operations run the primary CAS first and roll back by hand when
// a follow-up write fails.
type Mongo struct {
	db *mongo.Database
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

// EnsureIndexes creates the indexes the store's invariants rely on, most
// importantly the one-offer-per-carrier-per-shipment constraint.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{"users", mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{"shipments", mongo.IndexModel{
			Keys:    bson.D{{Key: "shipmentID", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{"offers", mongo.IndexModel{
			Keys:    bson.D{{Key: "shipmentID", Value: 1}, {Key: "carrierID", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{"offers", mongo.IndexModel{
			Keys:    bson.D{{Key: "offerID", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{"tours", mongo.IndexModel{
			Keys:    bson.D{{Key: "tourID", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{"transactions", mongo.IndexModel{
			Keys:    bson.D{{Key: "tourID", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{"notifications", mongo.IndexModel{
			Keys: bson.D{{Key: "recipientID", Value: 1}, {Key: "createdAt", Value: -1}},
		}},
		{"locations", mongo.IndexModel{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}
	for _, idx := range indexes {
		if _, err := m.db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.collection, err)
		}
	}
	return nil
}

// ---------- Users ----------

func (m *Mongo) InsertUser(ctx context.Context, user *models.User) error {
	_, err := m.db.Collection("users").InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("user with email %s already exists", user.Email)
	}
	return err
}

func (m *Mongo) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := m.db.Collection("users").FindOne(ctx, bson.M{"userID": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, matching.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (m *Mongo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := m.db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, matching.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ---------- Vehicles ----------

func (m *Mongo) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	_, err := m.db.Collection("vehicles").InsertOne(ctx, vehicle)
	return err
}

func (m *Mongo) GetVehicle(ctx context.Context, vehicleID string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := m.db.Collection("vehicles").FindOne(ctx, bson.M{"vehicleID": vehicleID}).Decode(&vehicle)
	if err == mongo.ErrNoDocuments {
		return nil, matching.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (m *Mongo) ListVehiclesByCarrier(ctx context.Context, carrierID string) ([]models.Vehicle, error) {
	cursor, err := m.db.Collection("vehicles").Find(ctx, bson.M{"ownerCarrierID": carrierID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	vehicles := []models.Vehicle{}
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (m *Mongo) SetVehicleStatus(ctx context.Context, vehicleID, status string) error {
	result, err := m.db.Collection("vehicles").UpdateOne(ctx,
		bson.M{"vehicleID": vehicleID},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return matching.ErrNotFound
	}
	return nil
}

func (m *Mongo) ListCarriersWithActiveVehicle(ctx context.Context) ([]string, error) {
	raw, err := m.db.Collection("vehicles").Distinct(ctx, "ownerCarrierID", bson.M{"active": true})
	if err != nil {
		return nil, err
	}
	carriers := []string{}
	for _, v := range raw {
		if id, ok := v.(string); ok {
			carriers = append(carriers, id)
		}
	}
	return carriers, nil
}

// ---------- Shipments ----------

func (m *Mongo) InsertShipment(ctx context.Context, shipment *models.Shipment) error {
	_, err := m.db.Collection("shipments").InsertOne(ctx, shipment)
	return err
}

func (m *Mongo) DeleteShipment(ctx context.Context, shipmentID string) error {
	result, err := m.db.Collection("shipments").DeleteOne(ctx, bson.M{"shipmentID": shipmentID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return matching.ErrNotFound
	}
	return nil
}

func (m *Mongo) GetShipment(ctx context.Context, shipmentID string) (*models.Shipment, error) {
	var shipment models.Shipment
	err := m.db.Collection("shipments").FindOne(ctx, bson.M{"shipmentID": shipmentID}).Decode(&shipment)
	if err == mongo.ErrNoDocuments {
		return nil, matching.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (m *Mongo) listShipments(ctx context.Context, filter bson.M) ([]models.Shipment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.db.Collection("shipments").Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	shipments := []models.Shipment{}
	if err := cursor.All(ctx, &shipments); err != nil {
		return nil, err
	}
	return shipments, nil
}

func (m *Mongo) ListShipmentsByShipper(ctx context.Context, shipperID string) ([]models.Shipment, error) {
	return m.listShipments(ctx, bson.M{"shipperID": shipperID})
}

func (m *Mongo) ListShipmentsByStatus(ctx context.Context, status string) ([]models.Shipment, error) {
	return m.listShipments(ctx, bson.M{"status": status})
}

func (m *Mongo) TransitionShipment(ctx context.Context, shipmentID, from, to string) error {
	result, err := m.db.Collection("shipments").UpdateOne(ctx,
		bson.M{"shipmentID": shipmentID, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Distinguish a missing shipment from a lost race.
		if _, err := m.GetShipment(ctx, shipmentID); err != nil {
			return err
		}
		return fmt.Errorf("%w: shipment %s is not %s", matching.ErrInvalidState, shipmentID, from)
	}
	return nil
}

// ---------- Offers ----------

func (m *Mongo) InsertOffer(ctx context.Context, offer *models.Offer) error {
	_, err := m.db.Collection("offers").InsertOne(ctx, offer)
	if mongo.IsDuplicateKeyError(err) {
		return matching.ErrDuplicateOffer
	}
	return err
}

func (m *Mongo) DeleteOffer(ctx context.Context, offerID string) error {
	result, err := m.db.Collection("offers").DeleteOne(ctx, bson.M{"offerID": offerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return matching.ErrNotFound
	}
	return nil
}

func (m *Mongo) GetOffer(ctx context.Context, offerID string) (*models.Offer, error) {
	var offer models.Offer
	err := m.db.Collection("offers").FindOne(ctx, bson.M{"offerID": offerID}).Decode(&offer)
	if err == mongo.ErrNoDocuments {
		return nil, matching.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (m *Mongo) listOffers(ctx context.Context, filter bson.M) ([]models.Offer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.db.Collection("offers").Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	offers := []models.Offer{}
	if err := cursor.All(ctx, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

func (m *Mongo) ListOffersByShipment(ctx context.Context, shipmentID string) ([]models.Offer, error) {
	return m.listOffers(ctx, bson.M{"shipmentID": shipmentID})
}

func (m *Mongo) ListOffersByCarrier(ctx context.Context, carrierID string) ([]models.Offer, error) {
	return m.listOffers(ctx, bson.M{"carrierID": carrierID})
}

func (m *Mongo) UpdateOfferStatus(ctx context.Context, offerID, from, to string) error {
	result, err := m.db.Collection("offers").UpdateOne(ctx,
		bson.M{"offerID": offerID, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		if _, err := m.GetOffer(ctx, offerID); err != nil {
			return err
		}
		return fmt.Errorf("%w: offer %s is not %s", matching.ErrInvalidState, offerID, from)
	}
	return nil
}

func (m *Mongo) RejectPendingOffers(ctx context.Context, shipmentID string) ([]models.Offer, error) {
	return m.rejectPendingOffers(ctx, shipmentID, "")
}

func (m *Mongo) rejectPendingOffers(ctx context.Context, shipmentID, exceptOfferID string) ([]models.Offer, error) {
	filter := bson.M{"shipmentID": shipmentID, "status": models.OfferPending}
	if exceptOfferID != "" {
		filter["offerID"] = bson.M{"$ne": exceptOfferID}
	}
	rejected, err := m.listOffers(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(rejected) == 0 {
		return rejected, nil
	}
	_, err = m.db.Collection("offers").UpdateMany(ctx, filter,
		bson.M{"$set": bson.M{"status": models.OfferRejected, "updatedAt": time.Now()}},
	)
	if err != nil {
		return nil, err
	}
	for i := range rejected {
		rejected[i].Status = models.OfferRejected
	}
	return rejected, nil
}

func (m *Mongo) AcceptOfferGroup(ctx context.Context, shipmentID, offerID string, tour *models.Tour, txn *models.Transaction) ([]models.Offer, error) {
	now := time.Now()

	// The shipment CAS is the serialization point: a concurrent acceptance
	// that got here first already moved it off published.
	if err := m.TransitionShipment(ctx, shipmentID, models.ShipmentPublished, models.ShipmentAssigned); err != nil {
		return nil, err
	}

	result, err := m.db.Collection("offers").UpdateOne(ctx,
		bson.M{"offerID": offerID, "status": models.OfferPending},
		bson.M{"$set": bson.M{"status": models.OfferAccepted, "updatedAt": now}},
	)
	if err != nil || result.MatchedCount == 0 {
		m.rollbackShipmentAssignment(ctx, shipmentID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: offer %s is not pending", matching.ErrInvalidState, offerID)
	}

	rejected, err := m.rejectPendingOffers(ctx, shipmentID, offerID)
	if err != nil {
		log.Printf("CRITICAL: offer %s accepted but sibling offers not rejected: %v", offerID, err)
		rejected = []models.Offer{}
	}

	if _, err := m.db.Collection("tours").InsertOne(ctx, tour); err != nil {
		m.rollbackShipmentAssignment(ctx, shipmentID)
		if _, rbErr := m.db.Collection("offers").UpdateOne(ctx,
			bson.M{"offerID": offerID},
			bson.M{"$set": bson.M{"status": models.OfferPending, "updatedAt": time.Now()}},
		); rbErr != nil {
			log.Printf("CRITICAL: tour insert failed and offer %s rollback failed too: %v", offerID, rbErr)
		}
		return nil, fmt.Errorf("insert tour: %w", err)
	}

	if _, err := m.db.Collection("transactions").InsertOne(ctx, txn); err != nil {
		// The tour exists without its escrow record. This needs an operator.
		log.Printf("CRITICAL: tour %s created but escrow transaction insert failed: %v", tour.TourID, err)
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	return rejected, nil
}

// RevertAcceptOfferGroup is best effort: each write is attempted even if
// an earlier one failed, and the first failure is reported.
func (m *Mongo) RevertAcceptOfferGroup(ctx context.Context, shipmentID, offerID string, rejected []models.Offer, tourID string) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	_, err := m.db.Collection("tours").DeleteOne(ctx, bson.M{"tourID": tourID})
	keep(err)
	_, err = m.db.Collection("transactions").DeleteOne(ctx, bson.M{"tourID": tourID})
	keep(err)

	now := time.Now()
	_, err = m.db.Collection("offers").UpdateOne(ctx,
		bson.M{"offerID": offerID, "status": models.OfferAccepted},
		bson.M{"$set": bson.M{"status": models.OfferPending, "updatedAt": now}},
	)
	keep(err)
	for _, r := range rejected {
		_, err = m.db.Collection("offers").UpdateOne(ctx,
			bson.M{"offerID": r.OfferID, "status": models.OfferRejected},
			bson.M{"$set": bson.M{"status": models.OfferPending, "updatedAt": now}},
		)
		keep(err)
	}

	keep(m.TransitionShipment(ctx, shipmentID, models.ShipmentAssigned, models.ShipmentPublished))
	return firstErr
}

func (m *Mongo) rollbackShipmentAssignment(ctx context.Context, shipmentID string) {
	if err := m.TransitionShipment(ctx, shipmentID, models.ShipmentAssigned, models.ShipmentPublished); err != nil {
		log.Printf("CRITICAL: shipment %s stuck in assigned after failed acceptance: %v", shipmentID, err)
	}
}

// ---------- Tours ----------

func (m *Mongo) GetTour(ctx context.Context, tourID string) (*models.Tour, error) {
	var tour models.Tour
	err := m.db.Collection("tours").FindOne(ctx, bson.M{"tourID": tourID}).Decode(&tour)
	if err == mongo.ErrNoDocuments {
		return nil, matching.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tour, nil
}

func (m *Mongo) GetTourByShipment(ctx context.Context, shipmentID string) (*models.Tour, error) {
	var tour models.Tour
	err := m.db.Collection("tours").FindOne(ctx,
		bson.M{"shipmentID": shipmentID, "status": bson.M{"$ne": models.TourCancelled}},
	).Decode(&tour)
	if err == mongo.ErrNoDocuments {
		return nil, matching.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tour, nil
}

func (m *Mongo) listTours(ctx context.Context, filter bson.M) ([]models.Tour, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.db.Collection("tours").Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	tours := []models.Tour{}
	if err := cursor.All(ctx, &tours); err != nil {
		return nil, err
	}
	return tours, nil
}

func (m *Mongo) ListToursByCarrier(ctx context.Context, carrierID string) ([]models.Tour, error) {
	return m.listTours(ctx, bson.M{"carrierID": carrierID})
}

func (m *Mongo) ListToursByShipper(ctx context.Context, shipperID string) ([]models.Tour, error) {
	return m.listTours(ctx, bson.M{"shipperID": shipperID})
}

func (m *Mongo) TransitionTour(ctx context.Context, tourID, from, to string, mutate func(*models.Tour)) (*models.Tour, error) {
	tour, err := m.GetTour(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if tour.Status != from {
		return nil, fmt.Errorf("%w: tour %s is %s, expected %s", matching.ErrInvalidState, tourID, tour.Status, from)
	}

	tour.Status = to
	if mutate != nil {
		mutate(tour)
	}
	tour.UpdatedAt = time.Now()

	// ReplaceOne keyed on the old status keeps this a CAS.
	result, err := m.db.Collection("tours").ReplaceOne(ctx,
		bson.M{"tourID": tourID, "status": from}, tour)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: tour %s is no longer %s", matching.ErrInvalidState, tourID, from)
	}
	return tour, nil
}

func (m *Mongo) CancelTourGroup(ctx context.Context, tourID, reason string, now time.Time) (*models.Tour, error) {
	tour, err := m.TransitionTour(ctx, tourID, models.TourCreated, models.TourCancelled, func(t *models.Tour) {
		t.CancelReason = reason
	})
	if err != nil {
		return nil, err
	}

	if err := m.TransitionShipment(ctx, tour.ShipmentID, models.ShipmentAssigned, models.ShipmentPublished); err != nil {
		log.Printf("CRITICAL: tour %s cancelled but shipment %s not republished: %v", tourID, tour.ShipmentID, err)
	}
	if _, err := m.db.Collection("transactions").UpdateOne(ctx,
		bson.M{"tourID": tourID, "status": models.TxnReserved},
		bson.M{"$set": bson.M{"status": models.TxnCancelled, "updatedAt": now}},
	); err != nil {
		log.Printf("CRITICAL: tour %s cancelled but escrow not released: %v", tourID, err)
	}
	if err := m.SetVehicleStatus(ctx, tour.VehicleID, models.VehicleAvailable); err != nil {
		log.Printf("CRITICAL: tour %s cancelled but vehicle %s not freed: %v", tourID, tour.VehicleID, err)
	}
	return tour, nil
}

func (m *Mongo) RevertCancelTourGroup(ctx context.Context, tourID string) error {
	tour, err := m.TransitionTour(ctx, tourID, models.TourCancelled, models.TourCreated, func(t *models.Tour) {
		t.CancelReason = ""
	})
	if err != nil {
		return err
	}

	if err := m.TransitionShipment(ctx, tour.ShipmentID, models.ShipmentPublished, models.ShipmentAssigned); err != nil {
		log.Printf("CRITICAL: tour %s restored but shipment %s not reassigned: %v", tourID, tour.ShipmentID, err)
	}
	if _, err := m.db.Collection("transactions").UpdateOne(ctx,
		bson.M{"tourID": tourID, "status": models.TxnCancelled},
		bson.M{"$set": bson.M{"status": models.TxnReserved, "updatedAt": time.Now()}},
	); err != nil {
		log.Printf("CRITICAL: tour %s restored but escrow not re-reserved: %v", tourID, err)
	}
	if err := m.SetVehicleStatus(ctx, tour.VehicleID, models.VehicleInTrip); err != nil {
		log.Printf("CRITICAL: tour %s restored but vehicle %s not re-bound: %v", tourID, tour.VehicleID, err)
	}
	return nil
}

func (m *Mongo) CaptureDeliveryGroup(ctx context.Context, tourID string, now time.Time, penalty float64) (*models.Tour, *models.Transaction, error) {
	txn, err := m.GetTransactionByTour(ctx, tourID)
	if err != nil {
		return nil, nil, err
	}

	tour, err := m.TransitionTour(ctx, tourID, models.TourPickedUp, models.TourDelivered, func(t *models.Tour) {
		t.DeliveredAt = now
	})
	if err != nil {
		return nil, nil, err
	}

	if _, err := m.db.Collection("shipments").UpdateOne(ctx,
		bson.M{"shipmentID": tour.ShipmentID},
		bson.M{"$set": bson.M{"status": models.ShipmentDelivered, "updatedAt": now}},
	); err != nil {
		log.Printf("CRITICAL: tour %s delivered but shipment %s not closed: %v", tourID, tour.ShipmentID, err)
	}

	txn.Status = models.TxnCaptured
	txn.PenaltyRSD = penalty
	txn.CarrierPayoutRSD -= penalty
	txn.CapturedAt = now
	txn.UpdatedAt = now
	result, err := m.db.Collection("transactions").ReplaceOne(ctx,
		bson.M{"tourID": tourID, "status": models.TxnReserved}, txn)
	if err != nil || result.MatchedCount == 0 {
		log.Printf("CRITICAL: tour %s delivered but escrow capture failed: %v", tourID, err)
		return nil, nil, fmt.Errorf("capture transaction for tour %s failed", tourID)
	}

	if err := m.SetVehicleStatus(ctx, tour.VehicleID, models.VehicleAvailable); err != nil {
		log.Printf("CRITICAL: tour %s delivered but vehicle %s not freed: %v", tourID, tour.VehicleID, err)
	}
	return tour, txn, nil
}

func (m *Mongo) RevertCaptureDeliveryGroup(ctx context.Context, tourID string, penalty float64) error {
	tour, err := m.TransitionTour(ctx, tourID, models.TourDelivered, models.TourPickedUp, func(t *models.Tour) {
		t.DeliveredAt = time.Time{}
	})
	if err != nil {
		return err
	}

	now := time.Now()
	if _, err := m.db.Collection("shipments").UpdateOne(ctx,
		bson.M{"shipmentID": tour.ShipmentID},
		bson.M{"$set": bson.M{"status": models.ShipmentInTransit, "updatedAt": now}},
	); err != nil {
		log.Printf("CRITICAL: tour %s reopened but shipment %s not returned to in_transit: %v", tourID, tour.ShipmentID, err)
	}
	if _, err := m.db.Collection("transactions").UpdateOne(ctx,
		bson.M{"tourID": tourID, "status": models.TxnCaptured},
		bson.M{"$set": bson.M{
			"status":     models.TxnReserved,
			"penaltyRSD": 0.0,
			"capturedAt": time.Time{},
			"updatedAt":  now,
		}, "$inc": bson.M{"carrierPayoutRSD": penalty}},
	); err != nil {
		log.Printf("CRITICAL: tour %s reopened but escrow capture not reverted: %v", tourID, err)
	}
	if err := m.SetVehicleStatus(ctx, tour.VehicleID, models.VehicleInTrip); err != nil {
		log.Printf("CRITICAL: tour %s reopened but vehicle %s not re-bound: %v", tourID, tour.VehicleID, err)
	}
	return nil
}

func (m *Mongo) AttachTourProof(ctx context.Context, tourID, stage string, media models.MediaPointer) error {
	var field string
	switch stage {
	case "pickup":
		field = "pickupProof"
	case "delivery":
		field = "deliveryProof"
	default:
		return fmt.Errorf("unknown proof stage %q", stage)
	}
	result, err := m.db.Collection("tours").UpdateOne(ctx,
		bson.M{"tourID": tourID},
		bson.M{"$push": bson.M{field: media}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return matching.ErrNotFound
	}
	return nil
}

// ---------- Transactions ----------

func (m *Mongo) GetTransactionByTour(ctx context.Context, tourID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := m.db.Collection("transactions").FindOne(ctx, bson.M{"tourID": tourID}).Decode(&txn)
	if err == mongo.ErrNoDocuments {
		return nil, matching.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// ---------- Notifications ----------

func (m *Mongo) InsertNotification(ctx context.Context, notification *models.Notification) error {
	_, err := m.db.Collection("notifications").InsertOne(ctx, notification)
	return err
}

func (m *Mongo) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool) ([]models.Notification, error) {
	filter := bson.M{"recipientID": recipientID}
	if unreadOnly {
		filter["isRead"] = false
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(100)
	cursor, err := m.db.Collection("notifications").Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (m *Mongo) MarkNotificationRead(ctx context.Context, recipientID, notificationID string) error {
	result, err := m.db.Collection("notifications").UpdateOne(ctx,
		bson.M{"notificationID": notificationID, "recipientID": recipientID},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return matching.ErrNotFound
	}
	return nil
}

// ---------- Route catalog ----------

// Location implements the routing catalog against the locations collection.
func (m *Mongo) Location(name string) (models.Location, bool) {
	var loc models.Location
	err := m.db.Collection("locations").FindOne(context.Background(), bson.M{"name": name}).Decode(&loc)
	if err != nil {
		return models.Location{}, false
	}
	return loc, true
}

func (m *Mongo) MajorLocations() []models.Location {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := m.db.Collection("locations").Find(context.Background(), bson.M{"isMajor": true}, opts)
	if err != nil {
		log.Printf("catalog: list major locations failed: %v", err)
		return nil
	}
	defer cursor.Close(context.Background())
	locations := []models.Location{}
	if err := cursor.All(context.Background(), &locations); err != nil {
		log.Printf("catalog: decode major locations failed: %v", err)
		return nil
	}
	return locations
}

func (m *Mongo) CorridorsBetween(a, b string) []models.Corridor {
	filter := bson.M{"$or": []bson.M{
		{"from": a, "to": b},
		{"from": b, "to": a},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := m.db.Collection("corridors").Find(context.Background(), filter, opts)
	if err != nil {
		log.Printf("catalog: corridors between %s and %s failed: %v", a, b, err)
		return nil
	}
	defer cursor.Close(context.Background())
	corridors := []models.Corridor{}
	if err := cursor.All(context.Background(), &corridors); err != nil {
		log.Printf("catalog: decode corridors failed: %v", err)
		return nil
	}
	return corridors
}
