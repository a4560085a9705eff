package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Offer statuses. An offer is terminal once accepted or rejected.
const (
	OfferPending  = "pending"
	OfferAccepted = "accepted"
	OfferRejected = "rejected"
)

// Offer is a carrier's priced bid against one shipment.
// At most one accepted offer may exist per shipment, and a carrier
// may hold at most one offer per shipment.
type Offer struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OfferID    string             `bson:"offerID" json:"offerID"` // e.g. "OFR-9B3D02E1"
	ShipmentID string             `bson:"shipmentID" json:"shipmentID"`
	CarrierID  string             `bson:"carrierID" json:"carrierID"`
	VehicleID  string             `bson:"vehicleID" json:"vehicleID"`
	PriceRSD   float64            `bson:"priceRSD" json:"priceRSD"`
	Note       string             `bson:"note,omitempty" json:"note"`
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
