// server/internal/pricing/calculator.go
package pricing

import "math"

// Dynamic transport price calculator. All functions in this package are
// total and deterministic: identical inputs always yield identical output,
// and invalid numeric input yields 0 instead of an error. Validation is
// the caller's job.

// Base price per kilometer (RSD) by vehicle class.
var basePricePerKM = map[string]float64{
	"van":     25.0,
	"truck":   35.0,
	"trailer": 45.0,
	"mega":    45.0,
}

// Urgency multipliers.
var urgencyMultipliers = map[string]float64{
	"standard": 1.0, // ready within 3 business days
	"asap":     1.8,
	"weekend":  1.4,
	"today":    2.5, // same-day emergency
}

// Route class multipliers. Highway is the cheapest to run.
var routeMultipliers = map[string]float64{
	"highway":   1.0,
	"main_road": 1.1,
	"regional":  1.2,
	"local":     1.3,
}

// Price per pallet (RSD).
const palletBasePrice = 500.0

// roundUpTo50 rounds an amount up to the nearest 50 RSD increment.
func roundUpTo50(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	return math.Ceil(amount/50.0) * 50.0
}

// Price calculates the total transport price.
//
// amount = (baseRate*distance + palletPrice*count) * urgency * route,
// rounded up to the nearest 50 RSD. Non-positive distance or pallet
// count yields 0.
func Price(distanceKM float64, vehicleClass, urgency string, palletCount int, routeClass string) float64 {
	if distanceKM <= 0 || palletCount <= 0 {
		return 0
	}

	baseKMPrice, ok := basePricePerKM[vehicleClass]
	if !ok {
		baseKMPrice = basePricePerKM["truck"]
	}

	urgencyMultiplier, ok := urgencyMultipliers[urgency]
	if !ok {
		urgencyMultiplier = 1.0
	}

	routeMultiplier, ok := routeMultipliers[routeClass]
	if !ok {
		routeMultiplier = 1.0
	}

	baseTotal := baseKMPrice*distanceKM + palletBasePrice*float64(palletCount)
	return roundUpTo50(baseTotal * urgencyMultiplier * routeMultiplier)
}

// Fixed price tiers for the bulk pallet flow, keyed by pallet count.
var (
	palletPricesUpTo200KM = map[int]float64{1: 4000, 2: 6400, 3: 8400, 4: 10000, 5: 12000}
	palletPricesOver200KM = map[int]float64{1: 5500, 2: 9000, 3: 11850, 4: 14200, 5: 17000}
)

// PalletTablePrice is the fixed-table pricing strategy for bulk pallet
// cargo: two distance tiers (up to 200 km and over), priced per pallet
// count. Counts outside the table yield 0. Shares the rounding contract
// with Price.
func PalletTablePrice(palletCount int, distanceKM float64) float64 {
	if distanceKM <= 0 || palletCount <= 0 {
		return 0
	}

	table := palletPricesUpTo200KM
	if distanceKM > 200 {
		table = palletPricesOver200KM
	}
	return roundUpTo50(table[palletCount])
}

// Split divides a gross amount into platform commission and carrier payout.
// commission = amount * pct / 100; the payout is the remainder, so the two
// always sum back to the amount.
func Split(amount, commissionPct float64) (commission, payout float64) {
	if amount <= 0 {
		return 0, 0
	}
	commission = amount * commissionPct / 100.0
	return commission, amount - commission
}
