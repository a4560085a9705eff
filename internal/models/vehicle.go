// server/internal/models/vehicle.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle statuses.
const (
	VehicleAvailable   = "available"
	VehicleInTrip      = "in_trip"
	VehicleMaintenance = "maintenance"
)

// Vehicle classes recognized by the pricing calculator.
const (
	VehicleVan     = "van"
	VehicleTruck   = "truck"
	VehicleTrailer = "trailer"
	VehicleMega    = "mega"
)

type VehicleSpecs struct {
	Class          string  `bson:"class" json:"class"` // van, truck, trailer, mega
	Refrigerated   bool    `bson:"refrigerated" json:"refrigerated"`
	PayloadKG      float64 `bson:"payloadKG" json:"payloadKG"`
	VolumeCBM      float64 `bson:"volumeCBM" json:"volumeCBM"`
	PalletCapacity int     `bson:"palletCapacity,omitempty" json:"palletCapacity"`
}

// Vehicle is a carrier capability record, read-only input to
// offer eligibility and pricing.
type Vehicle struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID        string             `bson:"vehicleID" json:"vehicleID"` // e.g. "VEH-1A2B3C4D"
	PlateNumber      string             `bson:"plateNumber" json:"plateNumber"`
	OwnerCarrierID   string             `bson:"ownerCarrierID" json:"ownerCarrierID"`
	Model            string             `bson:"model" json:"model"`
	Specs            VehicleSpecs       `bson:"specs" json:"specs"`
	Active           bool               `bson:"active" json:"active"`
	Status           string             `bson:"status" json:"status"`
	RegistrationDocs []MediaPointer     `bson:"registrationDocs,omitempty" json:"registrationDocs"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}
