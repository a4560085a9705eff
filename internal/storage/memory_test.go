// server/internal/storage/memory_test.go
package storage

import (
	"testing"

	"freight-exchange-api-server/internal/models"
)

func TestMajorLocationsSortedByName(t *testing.T) {
	store := NewMemory()
	// Insert out of order; the catalog promises name order regardless.
	for _, loc := range []models.Location{
		{Name: "Novi Sad", IsMajor: true},
		{Name: "Beograd", IsMajor: true},
		{Name: "Subotica", IsMajor: false},
		{Name: "Kragujevac", IsMajor: true},
	} {
		store.AddLocation(loc)
	}

	majors := store.MajorLocations()
	want := []string{"Beograd", "Kragujevac", "Novi Sad"}
	if len(majors) != len(want) {
		t.Fatalf("got %d major locations, want %d", len(majors), len(want))
	}
	for i, name := range want {
		if majors[i].Name != name {
			t.Errorf("majors[%d] = %s, want %s", i, majors[i].Name, name)
		}
	}
}
