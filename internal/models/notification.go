// server/internal/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification event kinds.
const (
	NotifShipmentPublished = "shipment_published"
	NotifShipmentCancelled = "shipment_cancelled"
	NotifShipmentAssigned  = "shipment_assigned"
	NotifOfferReceived     = "offer_received"
	NotifOfferAccepted     = "offer_accepted"
	NotifOfferRejected     = "offer_rejected"
	NotifTourConfirmed     = "tour_confirmed"
	NotifTourDeclined      = "tour_declined"
	NotifPickupConfirmed   = "pickup_confirmed"
	NotifDeliveryConfirmed = "delivery_confirmed"
	NotifPaymentProcessed  = "payment_processed"
	NotifRatingRequest     = "rating_request"
)

// Notification is a durable inbox record for one recipient. It is created by
// the matching engine on every state transition and mutated only by the
// recipient marking it read.
type Notification struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NotificationID string             `bson:"notificationID" json:"notificationID"` // e.g. "NTF-3E8C47D9"
	RecipientID    string             `bson:"recipientID" json:"recipientID"`
	Kind           string             `bson:"kind" json:"kind"`
	Title          string             `bson:"title" json:"title"`
	Message        string             `bson:"message" json:"message"`
	ActionURL      string             `bson:"actionURL,omitempty" json:"actionURL"`
	ShipmentID     string             `bson:"shipmentID,omitempty" json:"shipmentID"`
	TourID         string             `bson:"tourID,omitempty" json:"tourID"`
	IsRead         bool               `bson:"isRead" json:"isRead"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
