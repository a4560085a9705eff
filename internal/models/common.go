// server/internal/models/common.go
package models

// Address is a structured object holding a location descriptor.
type Address struct {
	City      string  `bson:"city" json:"city"`
	FullText  string  `bson:"fullText" json:"fullText"`
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// Cargo describes what is being transported.
type Cargo struct {
	WeightKG    float64 `bson:"weightKG" json:"weightKG"`
	VolumeCBM   float64 `bson:"volumeCBM,omitempty" json:"volumeCBM"`
	PalletCount int     `bson:"palletCount,omitempty" json:"palletCount"`
	Type        string  `bson:"type" json:"type"`       // general, refrigerated, oversized, ...
	Urgency     string  `bson:"urgency" json:"urgency"` // standard, asap, weekend, today
}

// MediaPointer references a document stored on S3 or a similar service.
type MediaPointer struct {
	ID       string `bson:"id" json:"id"`
	URL      string `bson:"url" json:"url"`
	FileName string `bson:"fileName" json:"fileName"`
	FileType string `bson:"fileType" json:"fileType"` // e.g. "image/jpeg"
}
