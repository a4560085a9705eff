// server/internal/models/transaction.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction statuses. Funds are reserved when the tour is created,
// captured on delivery confirmation, and paid out by the external
// settlement provider. The record only tracks intent and status;
// no money moves here.
const (
	TxnReserved  = "reserved"
	TxnCaptured  = "captured"
	TxnPaidOut   = "paid_out"
	TxnRefunded  = "refunded"
	TxnCancelled = "cancelled"
)

// Transaction is the escrow record bound 1:1 to a tour.
// Invariant: CommissionRSD + CarrierPayoutRSD + PenaltyRSD == AmountRSD.
type Transaction struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TransactionID    string             `bson:"transactionID" json:"transactionID"` // e.g. "TRX-0D9F6B21"
	TourID           string             `bson:"tourID" json:"tourID"`
	AmountRSD        float64            `bson:"amountRSD" json:"amountRSD"`
	Currency         string             `bson:"currency" json:"currency"`
	CommissionPct    float64            `bson:"commissionPct" json:"commissionPct"`
	CommissionRSD    float64            `bson:"commissionRSD" json:"commissionRSD"`
	PenaltyRSD       float64            `bson:"penaltyRSD" json:"penaltyRSD"`
	CarrierPayoutRSD float64            `bson:"carrierPayoutRSD" json:"carrierPayoutRSD"`
	Status           string             `bson:"status" json:"status"`
	CapturedAt       time.Time          `bson:"capturedAt,omitempty" json:"capturedAt"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}
