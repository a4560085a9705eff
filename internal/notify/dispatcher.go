// server/internal/notify/dispatcher.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"freight-exchange-api-server/internal/matching"
	"freight-exchange-api-server/internal/models"

	"github.com/google/uuid"
)

// InboxStore persists durable notification records.
type InboxStore interface {
	InsertNotification(ctx context.Context, notification *models.Notification) error
}

// Pusher delivers a live payload to a connected user. The websocket hub
// implements this; an error just means the user is not connected right now.
type Pusher interface {
	Send(userID string, message []byte) error
}

const defaultPushTimeout = 2 * time.Second

// Dispatcher turns engine events into per-recipient notifications. Inbox
// records are written synchronously and their failure fails the engine
// operation; the live push is best-effort on a bounded goroutine.
type Dispatcher struct {
	inbox       InboxStore
	pusher      Pusher
	pushTimeout time.Duration
	now         func() time.Time
}

func NewDispatcher(inbox InboxStore, pusher Pusher) *Dispatcher {
	return &Dispatcher{
		inbox:       inbox,
		pusher:      pusher,
		pushTimeout: defaultPushTimeout,
		now:         time.Now,
	}
}

// On implements matching.EventSink.
func (d *Dispatcher) On(ctx context.Context, event matching.Event) error {
	records := d.expand(event)
	for _, record := range records {
		if err := d.inbox.InsertNotification(ctx, record); err != nil {
			return fmt.Errorf("persist notification %s for %s: %w", record.Kind, record.RecipientID, err)
		}
	}
	if d.pusher != nil {
		for _, record := range records {
			go d.push(record)
		}
	}
	return nil
}

// push sends one record over the live channel. Offline users and slow
// writes are not errors worth failing anything over.
func (d *Dispatcher) push(record *models.Notification) {
	payload, err := json.Marshal(record)
	if err != nil {
		log.Printf("notification %s: marshal failed: %v", record.NotificationID, err)
		return
	}
	done := make(chan error, 1)
	go func() { done <- d.pusher.Send(record.RecipientID, payload) }()
	select {
	case err := <-done:
		if err != nil {
			log.Printf("live push to %s skipped: %v", record.RecipientID, err)
		}
	case <-time.After(d.pushTimeout):
		log.Printf("live push to %s timed out", record.RecipientID)
	}
}

func newNotificationID() string {
	return "NTF-" + strings.ToUpper(uuid.New().String()[:8])
}

func (d *Dispatcher) record(recipientID, kind, title, message string) *models.Notification {
	return &models.Notification{
		NotificationID: newNotificationID(),
		RecipientID:    recipientID,
		Kind:           kind,
		Title:          title,
		Message:        message,
		CreatedAt:      d.now(),
	}
}

// expand maps one engine event to its recipient notifications.
func (d *Dispatcher) expand(event matching.Event) []*models.Notification {
	out := []*models.Notification{}
	add := func(n *models.Notification) {
		if event.Shipment != nil {
			n.ShipmentID = event.Shipment.ShipmentID
			if n.ActionURL == "" {
				n.ActionURL = "/shipments/" + event.Shipment.ShipmentID
			}
		}
		if event.Tour != nil {
			n.TourID = event.Tour.TourID
			n.ActionURL = "/tours/" + event.Tour.TourID
		}
		out = append(out, n)
	}

	switch event.Kind {
	case matching.EventShipmentPublished:
		title := "📦 New cargo available"
		message := cargoSummary(event.Shipment)
		for _, carrierID := range event.Recipients {
			add(d.record(carrierID, models.NotifShipmentPublished, title, message))
		}

	case matching.EventShipmentCancelled:
		for _, carrierID := range event.Recipients {
			add(d.record(carrierID, models.NotifShipmentCancelled,
				"Shipment cancelled",
				"The shipment you bid on was withdrawn by the shipper."))
		}

	case matching.EventOfferReceived:
		add(d.record(event.Shipment.ShipperID, models.NotifOfferReceived,
			"💰 New offer received",
			fmt.Sprintf("A carrier offered %.0f RSD for your shipment.", event.Offer.PriceRSD)))

	case matching.EventOfferAccepted:
		add(d.record(event.Offer.CarrierID, models.NotifOfferAccepted,
			"✅ Your offer was accepted",
			fmt.Sprintf("Your offer of %.0f RSD won. Confirm the tour to get going.", event.Offer.PriceRSD)))
		for _, sibling := range event.RejectedSiblings {
			add(d.record(sibling.CarrierID, models.NotifOfferRejected,
				"Offer not selected",
				"The shipper went with another carrier this time."))
		}
		add(d.record(event.Shipment.ShipperID, models.NotifShipmentAssigned,
			"🚚 Carrier assigned",
			fmt.Sprintf("Your shipment is assigned for %.0f RSD, awaiting carrier confirmation.", event.Offer.PriceRSD)))

	case matching.EventOfferRejected:
		add(d.record(event.Offer.CarrierID, models.NotifOfferRejected,
			"Offer not selected",
			"The shipper declined your offer."))

	case matching.EventTourConfirmed:
		add(d.record(event.Tour.ShipperID, models.NotifTourConfirmed,
			"Tour confirmed",
			"The carrier confirmed the tour and is heading to pickup."))

	case matching.EventTourDeclined:
		message := "The carrier declined the tour. Your shipment is published again."
		if event.Reason != "" {
			message = fmt.Sprintf("The carrier declined the tour (%s). Your shipment is published again.", event.Reason)
		}
		add(d.record(event.Tour.ShipperID, models.NotifTourDeclined, "Tour declined", message))

	case matching.EventPickupConfirmed:
		add(d.record(event.Tour.ShipperID, models.NotifPickupConfirmed,
			"📦 Cargo picked up",
			"Your cargo is on the move."))

	case matching.EventDeliveryConfirmed:
		add(d.record(event.Tour.ShipperID, models.NotifDeliveryConfirmed,
			"✅ Cargo delivered",
			"Your shipment was delivered."))
		if event.Transaction != nil {
			add(d.record(event.Tour.CarrierID, models.NotifPaymentProcessed,
				"💸 Payment processed",
				fmt.Sprintf("Your payout of %.0f RSD is on its way.", event.Transaction.CarrierPayoutRSD)))
		}
		add(d.record(event.Tour.ShipperID, models.NotifRatingRequest,
			"⭐ Rate your carrier",
			"How did the delivery go?"))
		add(d.record(event.Tour.CarrierID, models.NotifRatingRequest,
			"⭐ Rate your shipper",
			"How did the tour go?"))
	}
	return out
}

func cargoSummary(shipment *models.Shipment) string {
	if shipment == nil {
		return ""
	}
	route := fmt.Sprintf("%s → %s", shipment.Pickup.City, shipment.Delivery.City)
	if shipment.Cargo.PalletCount > 0 {
		return fmt.Sprintf("%s, %d pallets (%.0f kg)", route, shipment.Cargo.PalletCount, shipment.Cargo.WeightKG)
	}
	return fmt.Sprintf("%s, %.0f kg", route, shipment.Cargo.WeightKG)
}
