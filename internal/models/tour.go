// server/internal/models/tour.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tour lifecycle statuses: created -> confirmed -> picked_up -> delivered,
// with created -> cancelled the only escape hatch. A confirmed tour cannot
// be abandoned through this path.
const (
	TourCreated   = "created"
	TourConfirmed = "confirmed"
	TourPickedUp  = "picked_up"
	TourDelivered = "delivered"
	TourCancelled = "cancelled"
)

// Tour is the execution record created when an offer is accepted.
// Exactly one tour exists per shipment.
type Tour struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TourID        string             `bson:"tourID" json:"tourID"` // e.g. "TUR-7C1E55A0"
	ShipmentID    string             `bson:"shipmentID" json:"shipmentID"`
	OfferID       string             `bson:"offerID" json:"offerID"`
	ShipperID     string             `bson:"shipperID" json:"shipperID"`
	CarrierID     string             `bson:"carrierID" json:"carrierID"`
	VehicleID     string             `bson:"vehicleID" json:"vehicleID"`
	Status        string             `bson:"status" json:"status"`
	CancelReason  string             `bson:"cancelReason,omitempty" json:"cancelReason"`
	ConfirmedAt   time.Time          `bson:"confirmedAt,omitempty" json:"confirmedAt"`
	PickupAt      time.Time          `bson:"pickupAt,omitempty" json:"pickupAt"`
	DeliveredAt   time.Time          `bson:"deliveredAt,omitempty" json:"deliveredAt"`
	PickupProof   []MediaPointer     `bson:"pickupProof,omitempty" json:"pickupProof"`
	DeliveryProof []MediaPointer     `bson:"deliveryProof,omitempty" json:"deliveryProof"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
