// server/internal/routing/catalog.go
package routing

import "freight-exchange-api-server/internal/models"

// Catalog is the read-only location/corridor data source the suggestion
// engine runs against.
type Catalog interface {
	// Location looks up a catalog location by name.
	Location(name string) (models.Location, bool)
	// MajorLocations returns every location flagged major, sorted by name.
	MajorLocations() []models.Location
	// CorridorsBetween returns corridors connecting two locations in either
	// direction, sorted by (priority, name).
	CorridorsBetween(a, b string) []models.Corridor
}
