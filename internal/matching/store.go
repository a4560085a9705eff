// server/internal/matching/store.go
package matching

import (
	"context"
	"time"

	"freight-exchange-api-server/internal/models"
)

// Store is the durable persistence boundary of the matching engine. The
// contract for every transition method is compare-and-swap: the write only
// happens when the entity is still in the expected state, and a miss
// surfaces as ErrInvalidState. The grouped methods commit their whole
// effect or none of it; two concurrent calls on the same shipment or tour
// are serialized so that only the first succeeds.
type Store interface {
	// Users.
	InsertUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// Vehicles.
	InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error
	GetVehicle(ctx context.Context, vehicleID string) (*models.Vehicle, error)
	ListVehiclesByCarrier(ctx context.Context, carrierID string) ([]models.Vehicle, error)
	SetVehicleStatus(ctx context.Context, vehicleID, status string) error
	// ListCarriersWithActiveVehicle supports the new-cargo broadcast.
	ListCarriersWithActiveVehicle(ctx context.Context) ([]string, error)

	// Shipments.
	InsertShipment(ctx context.Context, shipment *models.Shipment) error
	// DeleteShipment compensates a failed creation; it is not a user-facing
	// operation.
	DeleteShipment(ctx context.Context, shipmentID string) error
	GetShipment(ctx context.Context, shipmentID string) (*models.Shipment, error)
	ListShipmentsByShipper(ctx context.Context, shipperID string) ([]models.Shipment, error)
	ListShipmentsByStatus(ctx context.Context, status string) ([]models.Shipment, error)
	TransitionShipment(ctx context.Context, shipmentID, from, to string) error

	// Offers. InsertOffer enforces the (shipment, carrier) uniqueness
	// constraint and returns ErrDuplicateOffer on violation.
	InsertOffer(ctx context.Context, offer *models.Offer) error
	// DeleteOffer compensates a failed creation.
	DeleteOffer(ctx context.Context, offerID string) error
	GetOffer(ctx context.Context, offerID string) (*models.Offer, error)
	ListOffersByShipment(ctx context.Context, shipmentID string) ([]models.Offer, error)
	ListOffersByCarrier(ctx context.Context, carrierID string) ([]models.Offer, error)
	UpdateOfferStatus(ctx context.Context, offerID, from, to string) error
	// RejectPendingOffers rejects every pending offer on a shipment and
	// returns the offers it rejected.
	RejectPendingOffers(ctx context.Context, shipmentID string) ([]models.Offer, error)

	// AcceptOfferGroup performs the four-way atomic acceptance: the offer
	// becomes accepted, every pending sibling becomes rejected, the
	// shipment moves published -> assigned, and the tour and transaction
	// are created. The shipment transition is the serialization point:
	// if the shipment is no longer published the whole group fails with
	// ErrInvalidState and nothing is written.
	AcceptOfferGroup(ctx context.Context, shipmentID, offerID string, tour *models.Tour, txn *models.Transaction) (rejected []models.Offer, err error)

	// RevertAcceptOfferGroup undoes a committed acceptance whose mandatory
	// notification records could not be persisted: the tour and transaction
	// are removed, the winning offer and its rejected siblings return to
	// pending, and the shipment goes back on the board.
	RevertAcceptOfferGroup(ctx context.Context, shipmentID, offerID string, rejected []models.Offer, tourID string) error

	// Tours.
	GetTour(ctx context.Context, tourID string) (*models.Tour, error)
	GetTourByShipment(ctx context.Context, shipmentID string) (*models.Tour, error)
	ListToursByCarrier(ctx context.Context, carrierID string) ([]models.Tour, error)
	ListToursByShipper(ctx context.Context, shipperID string) ([]models.Tour, error)
	// TransitionTour moves a tour from -> to under CAS and applies mutate
	// to stamp timestamps before the write. Returns the updated tour.
	TransitionTour(ctx context.Context, tourID, from, to string, mutate func(*models.Tour)) (*models.Tour, error)
	// CancelTourGroup cancels an unconfirmed tour: tour created ->
	// cancelled, shipment back to published (reopening it for offers),
	// transaction -> cancelled, vehicle freed.
	CancelTourGroup(ctx context.Context, tourID, reason string, now time.Time) (*models.Tour, error)
	// RevertCancelTourGroup undoes CancelTourGroup when its notifications
	// could not be persisted.
	RevertCancelTourGroup(ctx context.Context, tourID string) error
	// CaptureDeliveryGroup completes a tour: tour picked_up -> delivered,
	// shipment -> delivered, transaction reserved -> captured with the
	// penalty recorded against the carrier payout, vehicle freed.
	CaptureDeliveryGroup(ctx context.Context, tourID string, now time.Time, penalty float64) (*models.Tour, *models.Transaction, error)
	// RevertCaptureDeliveryGroup undoes CaptureDeliveryGroup when its
	// notifications could not be persisted.
	RevertCaptureDeliveryGroup(ctx context.Context, tourID string, penalty float64) error
	AttachTourProof(ctx context.Context, tourID, stage string, media models.MediaPointer) error

	// Transactions.
	GetTransactionByTour(ctx context.Context, tourID string) (*models.Transaction, error)
}
