package tracking

import (
	"context"
	"testing"
	"time"
)

func TestMemoryTrailPreservesOrder(t *testing.T) {
	store := NewMemoryTrail()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := store.Append(ctx, "TUR-ORDER", Position{
			Latitude:   44.8 + float64(i)*0.1,
			Longitude:  20.4,
			RecordedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	trail, err := store.Trail(ctx, "TUR-ORDER")
	if err != nil {
		t.Fatalf("trail: %v", err)
	}
	if len(trail) != 3 {
		t.Fatalf("trail length = %d, want 3", len(trail))
	}
	for i := 1; i < len(trail); i++ {
		if trail[i].RecordedAt.Before(trail[i-1].RecordedAt) {
			t.Errorf("trail out of order at %d: %v before %v", i, trail[i].RecordedAt, trail[i-1].RecordedAt)
		}
	}
}

func TestMemoryTrailIsolatesTours(t *testing.T) {
	store := NewMemoryTrail()
	ctx := context.Background()

	store.Append(ctx, "TUR-A", Position{Latitude: 44.8, Longitude: 20.4, RecordedAt: time.Now()})

	trail, err := store.Trail(ctx, "TUR-B")
	if err != nil {
		t.Fatalf("trail: %v", err)
	}
	if len(trail) != 0 {
		t.Errorf("trail for other tour = %d positions, want 0", len(trail))
	}
}

func TestTrailKey(t *testing.T) {
	if got := trailKey("TUR-1A2B3C4D"); got != "tour_trail:TUR-1A2B3C4D" {
		t.Errorf("trailKey = %q", got)
	}
}
