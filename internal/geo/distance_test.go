package geo

import (
	"math"
	"testing"
)

func TestDistanceKM(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKM                 float64
		toleranceKM            float64
	}{
		{"same point", 44.7866, 20.4489, 44.7866, 20.4489, 0, 0.001},
		{"Beograd to Novi Sad", 44.7866, 20.4489, 45.2671, 19.8335, 72, 3},
		{"Beograd to Nis", 44.7866, 20.4489, 43.3209, 21.8958, 200, 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DistanceKM(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			if math.Abs(got-tc.wantKM) > tc.toleranceKM {
				t.Errorf("DistanceKM = %v, want %v ± %v", got, tc.wantKM, tc.toleranceKM)
			}
		})
	}
}
