// server/internal/models/shipment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shipment lifecycle statuses. Transitions are owned by the matching engine:
// draft -> published -> assigned -> in_transit -> delivered, with
// published -> cancelled reachable before assignment.
const (
	ShipmentDraft     = "draft"
	ShipmentPublished = "published"
	ShipmentAssigned  = "assigned"
	ShipmentInTransit = "in_transit"
	ShipmentDelivered = "delivered"
	ShipmentCancelled = "cancelled"
)

// Shipment is a posted transport request.
type Shipment struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ShipmentID      string             `bson:"shipmentID" json:"shipmentID"` // e.g. "SHP-4F7A91C2"
	ShipperID       string             `bson:"shipperID" json:"shipperID"`
	Pickup          Address            `bson:"pickup" json:"pickup"`
	Delivery        Address            `bson:"delivery" json:"delivery"`
	Cargo           Cargo              `bson:"cargo" json:"cargo"`
	BudgetRSD       float64            `bson:"budgetRSD,omitempty" json:"budgetRSD"`
	EstimatedPrice  float64            `bson:"estimatedPrice,omitempty" json:"estimatedPrice"` // advisory only, the accepted bid is authoritative
	PackagingAdvice string             `bson:"packagingAdvice,omitempty" json:"packagingAdvice"`
	SuggestedRoutes []RouteCandidate   `bson:"suggestedRoutes,omitempty" json:"suggestedRoutes"`
	PickupDeadline  time.Time          `bson:"pickupDeadline,omitempty" json:"pickupDeadline"`
	DeliverBy       time.Time          `bson:"deliverBy,omitempty" json:"deliverBy"`
	Status          string             `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
