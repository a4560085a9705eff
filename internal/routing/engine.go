// server/internal/routing/engine.go
package routing

import (
	"fmt"
	"sort"

	"freight-exchange-api-server/internal/models"
)

// Average speed in km/h by corridor class, used for travel time estimates.
var speedByClass = map[string]float64{
	"highway":   90,
	"main_road": 70,
	"regional":  60,
	"local":     50,
	"mixed":     75,
}

// Toll and fuel estimation constants (RSD). Estimates are decision support
// for carriers; billed amounts come from the pricing calculator only.
const (
	tollPerKMHighway      = 5.0
	tollPerKMOther        = 2.0
	fuelLitersPer100KM    = 35.0
	dieselPricePerLiter   = 170.0
	defaultMaxSuggestions = 5
)

// Engine proposes ranked route candidates between named catalog locations.
// Suggestion is synchronous, side-effect-free and safe for any number of
// concurrent callers.
type Engine struct {
	catalog Catalog
}

func NewEngine(catalog Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Suggest returns up to maxResults route candidates between two locations,
// direct corridors first merged with one-transit paths through major
// locations, sorted by (priority, total distance). Unknown locations yield
// an empty list, never an error.
func (e *Engine) Suggest(pickup, delivery string, maxResults int) []models.RouteCandidate {
	if maxResults <= 0 {
		maxResults = defaultMaxSuggestions
	}

	pickupLoc, ok := e.catalog.Location(pickup)
	if !ok {
		return []models.RouteCandidate{}
	}
	deliveryLoc, ok := e.catalog.Location(delivery)
	if !ok {
		return []models.RouteCandidate{}
	}

	candidates := e.directCandidates(pickupLoc, deliveryLoc)
	candidates = append(candidates, e.transitCandidates(pickupLoc, deliveryLoc)...)

	// Sort ascending by priority, then distance; name breaks remaining ties
	// so repeated calls return the same order.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority < candidates[j].Priority
		}
		if candidates[i].TotalDistanceKM != candidates[j].TotalDistanceKM {
			return candidates[i].TotalDistanceKM < candidates[j].TotalDistanceKM
		}
		return candidates[i].Name < candidates[j].Name
	})

	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}
	for i := range candidates {
		candidates[i].Recommended = i == 0
	}
	return candidates
}

// directCandidates builds one candidate per corridor directly connecting
// the endpoints.
func (e *Engine) directCandidates(pickup, delivery models.Location) []models.RouteCandidate {
	candidates := []models.RouteCandidate{}

	for _, corridor := range e.catalog.CorridorsBetween(pickup.Name, delivery.Name) {
		candidates = append(candidates, models.RouteCandidate{
			Name:            fmt.Sprintf("Direct route: %s", corridor.Name),
			Kind:            "direct",
			Corridors:       []models.Corridor{corridor},
			TotalDistanceKM: corridor.DistanceKM,
			TravelTimeHours: travelTimeHours(corridor.DistanceKM, corridor.Class),
			TollCostRSD:     tollCost([]models.Corridor{corridor}),
			FuelCostRSD:     fuelCost(corridor.DistanceKM),
			Priority:        corridor.Priority,
		})
	}
	return candidates
}

// transitCandidates builds two-leg candidates through every major location
// other than the endpoints. Only pairs where both legs exist survive; the
// candidate ranks as the worse of the two leg priorities.
func (e *Engine) transitCandidates(pickup, delivery models.Location) []models.RouteCandidate {
	candidates := []models.RouteCandidate{}

	for _, transit := range e.catalog.MajorLocations() {
		if transit.Name == pickup.Name || transit.Name == delivery.Name {
			continue
		}

		firstLegs := e.catalog.CorridorsBetween(pickup.Name, transit.Name)
		if len(firstLegs) == 0 {
			continue
		}
		secondLegs := e.catalog.CorridorsBetween(transit.Name, delivery.Name)
		if len(secondLegs) == 0 {
			continue
		}

		firstLeg := firstLegs[0]
		secondLeg := secondLegs[0]
		totalDistance := firstLeg.DistanceKM + secondLeg.DistanceKM
		legs := []models.Corridor{firstLeg, secondLeg}

		priority := firstLeg.Priority
		if secondLeg.Priority > priority {
			priority = secondLeg.Priority
		}

		candidates = append(candidates, models.RouteCandidate{
			Name:            fmt.Sprintf("Route via %s", transit.Name),
			Kind:            "transit",
			TransitLocation: transit.Name,
			Corridors:       legs,
			TotalDistanceKM: totalDistance,
			TravelTimeHours: travelTimeHours(totalDistance, "mixed"),
			TollCostRSD:     tollCost(legs),
			FuelCostRSD:     fuelCost(totalDistance),
			Priority:        priority,
		})
	}
	return candidates
}

func travelTimeHours(distanceKM float64, class string) float64 {
	if distanceKM <= 0 {
		return 0
	}
	speed, ok := speedByClass[class]
	if !ok {
		speed = speedByClass["main_road"]
	}
	// Round to one decimal, enough resolution for carrier planning.
	return float64(int(distanceKM/speed*10+0.5)) / 10
}

func tollCost(corridors []models.Corridor) float64 {
	total := 0.0
	for _, corridor := range corridors {
		if !corridor.TollRoad {
			continue
		}
		rate := tollPerKMOther
		if corridor.Class == models.CorridorHighway {
			rate = tollPerKMHighway
		}
		total += corridor.DistanceKM * rate
	}
	return total
}

func fuelCost(distanceKM float64) float64 {
	if distanceKM <= 0 {
		return 0
	}
	litersNeeded := distanceKM * fuelLitersPer100KM / 100
	return litersNeeded * dieselPricePerLiter
}
