package pricing

import "testing"

func TestPriceKnownValues(t *testing.T) {
	cases := []struct {
		name        string
		distanceKM  float64
		vehicle     string
		urgency     string
		palletCount int
		routeClass  string
		want        float64
	}{
		// 35*100 + 500 = 4000, multipliers 1.0
		{"truck standard highway", 100, "truck", "standard", 1, "highway", 4000},
		// (25*100 + 500) * 1.0 = 3000
		{"van standard highway", 100, "van", "standard", 1, "highway", 3000},
		// (45*100 + 500) * 2.5 = 12500
		{"trailer same-day", 100, "trailer", "today", 1, "highway", 12500},
		// (35*10 + 500) * 1.0 * 1.3 = 1105 -> rounds up to 1150
		{"local road rounds up", 10, "truck", "standard", 1, "local", 1150},
		// unknown vehicle class falls back to truck rates
		{"unknown vehicle class", 100, "rickshaw", "standard", 1, "highway", 4000},
		// unknown urgency and route class fall back to 1.0
		{"unknown multipliers", 100, "truck", "whenever", 1, "gravel", 4000},
		{"zero distance", 0, "truck", "standard", 1, "highway", 0},
		{"negative distance", -5, "truck", "standard", 1, "highway", 0},
		{"zero pallets", 100, "truck", "standard", 0, "highway", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Price(tc.distanceKM, tc.vehicle, tc.urgency, tc.palletCount, tc.routeClass)
			if got != tc.want {
				t.Errorf("Price(%v, %q, %q, %d, %q) = %v, want %v",
					tc.distanceKM, tc.vehicle, tc.urgency, tc.palletCount, tc.routeClass, got, tc.want)
			}
		})
	}
}

func TestPriceMonotonicInDistance(t *testing.T) {
	prev := 0.0
	for km := 10.0; km <= 1000; km += 10 {
		got := Price(km, "truck", "asap", 2, "main_road")
		if got < prev {
			t.Fatalf("price decreased with distance: Price(%v km) = %v < %v", km, got, prev)
		}
		prev = got
	}
}

func TestPriceMonotonicInPalletCount(t *testing.T) {
	prev := 0.0
	for count := 1; count <= 20; count++ {
		got := Price(250, "trailer", "weekend", count, "regional")
		if got < prev {
			t.Fatalf("price decreased with pallet count: Price(%d pallets) = %v < %v", count, got, prev)
		}
		prev = got
	}
}

func TestPriceDeterministic(t *testing.T) {
	first := Price(137.5, "van", "today", 3, "regional")
	for i := 0; i < 100; i++ {
		if got := Price(137.5, "van", "today", 3, "regional"); got != first {
			t.Fatalf("price not deterministic: got %v, first call returned %v", got, first)
		}
	}
}

func TestPriceAlwaysMultipleOf50(t *testing.T) {
	for km := 1.0; km < 500; km += 7.3 {
		got := Price(km, "truck", "asap", 2, "local")
		if rem := int(got) % 50; rem != 0 || got != float64(int(got)) {
			t.Fatalf("Price(%v km) = %v is not a multiple of 50", km, got)
		}
	}
}

func TestPalletTablePrice(t *testing.T) {
	cases := []struct {
		name        string
		palletCount int
		distanceKM  float64
		want        float64
	}{
		{"one pallet short haul", 1, 150, 4000},
		{"one pallet long haul", 1, 350, 5500},
		{"tier boundary stays low", 3, 200, 8400},
		{"just past tier boundary", 3, 200.1, 11850},
		{"five pallets long haul", 5, 400, 17000},
		{"count outside table", 6, 150, 0},
		{"zero pallets", 0, 150, 0},
		{"zero distance", 2, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PalletTablePrice(tc.palletCount, tc.distanceKM)
			if got != tc.want {
				t.Errorf("PalletTablePrice(%d, %v) = %v, want %v", tc.palletCount, tc.distanceKM, got, tc.want)
			}
		})
	}
}

func TestSplitConservation(t *testing.T) {
	amounts := []float64{1000, 4000, 13750, 17000, 50}
	for _, amount := range amounts {
		commission, payout := Split(amount, 15)
		if commission+payout != amount {
			t.Errorf("Split(%v, 15): commission %v + payout %v != amount", amount, commission, payout)
		}
		if commission != amount*0.15 {
			t.Errorf("Split(%v, 15): commission = %v, want %v", amount, commission, amount*0.15)
		}
	}

	if c, p := Split(0, 15); c != 0 || p != 0 {
		t.Errorf("Split(0, 15) = (%v, %v), want (0, 0)", c, p)
	}
}
