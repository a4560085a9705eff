// server/internal/matching/events.go
package matching

import (
	"context"
	"time"

	"freight-exchange-api-server/internal/models"
)

// Event kinds, one per engine transition.
const (
	EventShipmentCreated   = "shipment_created"
	EventShipmentPublished = "shipment_published"
	EventShipmentCancelled = "shipment_cancelled"
	EventOfferReceived     = "offer_received"
	EventOfferAccepted     = "offer_accepted"
	EventOfferRejected     = "offer_rejected"
	EventTourConfirmed     = "tour_confirmed"
	EventTourDeclined      = "tour_declined"
	EventPickupConfirmed   = "pickup_confirmed"
	EventDeliveryConfirmed = "delivery_confirmed"
)

// Event is a domain event describing one committed transition. Exactly one
// event is emitted per mutating operation, after the transition is durably
// committed, never before.
type Event struct {
	Kind             string
	At               time.Time
	Shipment         *models.Shipment
	Offer            *models.Offer
	RejectedSiblings []models.Offer
	Tour             *models.Tour
	Transaction      *models.Transaction
	Reason           string
	// Broadcast recipients for board-level events (published/cancelled);
	// party-level recipients are derived from the entities themselves.
	Recipients []string
}

// EventSink receives engine events. The notification dispatcher implements
// this; an error from the sink fails the owning operation because the
// durable inbox record is part of the transition's contract.
type EventSink interface {
	On(ctx context.Context, event Event) error
}
