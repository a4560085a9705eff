// server/internal/pricing/penalty.go
package pricing

// Late-delivery penalty: 500 RSD per started 15-minute block.
const (
	PenaltyPerPeriod  = 500.0
	penaltyPeriodMins = 15
)

// Penalty calculates the late-delivery penalty. There is no grace period:
// the first minute of lateness starts the first block, and each block
// boundary (minute 15, 30, ...) starts the next one. Zero or negative
// minutes yield 0.
func Penalty(minutesLate int) float64 {
	if minutesLate <= 0 {
		return 0
	}
	periods := minutesLate/penaltyPeriodMins + 1
	return PenaltyPerPeriod * float64(periods)
}
