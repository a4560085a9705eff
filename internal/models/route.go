// server/internal/models/route.go
package models

// Corridor classes, also used as route classes by the pricing calculator.
const (
	CorridorHighway  = "highway"
	CorridorMainRoad = "main_road"
	CorridorRegional = "regional"
	CorridorLocal    = "local"
)

// Location is a named point in the corridor catalog.
type Location struct {
	Name       string  `bson:"name" json:"name"`
	PostalCode string  `bson:"postalCode,omitempty" json:"postalCode"`
	Region     string  `bson:"region,omitempty" json:"region"`
	Latitude   float64 `bson:"latitude,omitempty" json:"latitude"`
	Longitude  float64 `bson:"longitude,omitempty" json:"longitude"`
	IsMajor    bool    `bson:"isMajor" json:"isMajor"`
}

// Corridor is a named directed edge between two catalog locations.
// Lower numeric priority means a preferred corridor.
type Corridor struct {
	Name       string  `bson:"name" json:"name"`
	Code       string  `bson:"code" json:"code"`
	Class      string  `bson:"class" json:"class"`
	From       string  `bson:"from" json:"from"`
	To         string  `bson:"to" json:"to"`
	DistanceKM float64 `bson:"distanceKM" json:"distanceKM"`
	TollRoad   bool    `bson:"tollRoad" json:"tollRoad"`
	Priority   int     `bson:"priority" json:"priority"`
}

// RouteCandidate is a ranked route proposal for a shipment. The cost fields
// are decision-support estimates for carriers, never billed amounts.
type RouteCandidate struct {
	Name            string     `bson:"name" json:"name"`
	Kind            string     `bson:"kind" json:"kind"` // direct, transit
	TransitLocation string     `bson:"transitLocation,omitempty" json:"transitLocation,omitempty"`
	Corridors       []Corridor `bson:"corridors" json:"corridors"`
	TotalDistanceKM float64    `bson:"totalDistanceKM" json:"totalDistanceKM"`
	TravelTimeHours float64    `bson:"travelTimeHours" json:"travelTimeHours"`
	TollCostRSD     float64    `bson:"tollCostRSD" json:"tollCostRSD"`
	FuelCostRSD     float64    `bson:"fuelCostRSD" json:"fuelCostRSD"`
	Priority        int        `bson:"priority" json:"priority"`
	Recommended     bool       `bson:"recommended" json:"recommended"`
}
