package fleet

import (
	"path/filepath"
	"testing"

	"rentdesk/internal/storage"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "rentdesk.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestResolveByPlateCaseInsensitive(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.UpsertVehicle("AB123CD", "Škoda Octavia"); err != nil {
		t.Fatal(err)
	}

	vehicle, err := NewResolver(db).Resolve("ab123cd")
	if err != nil {
		t.Fatal(err)
	}
	if vehicle == nil || vehicle.Plate != "AB123CD" {
		t.Fatalf("vehicle=%+v", vehicle)
	}
}

func TestResolveByNameFragment(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.UpsertVehicle("AB123CD", "Škoda Octavia Combi"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.UpsertVehicle("ZV456EF", "VW Passat"); err != nil {
		t.Fatal(err)
	}

	vehicle, err := NewResolver(db).Resolve("Octavia")
	if err != nil {
		t.Fatal(err)
	}
	if vehicle == nil || vehicle.Plate != "AB123CD" {
		t.Fatalf("vehicle=%+v", vehicle)
	}
}

func TestResolvePlateWinsOverName(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.UpsertVehicle("AB123CD", "Škoda Octavia"); err != nil {
		t.Fatal(err)
	}
	// A vehicle whose name contains another vehicle's plate must not
	// shadow the exact plate match.
	if _, err := db.UpsertVehicle("ZV456EF", "Demo AB123CD"); err != nil {
		t.Fatal(err)
	}

	vehicle, err := NewResolver(db).Resolve("AB123CD")
	if err != nil {
		t.Fatal(err)
	}
	if vehicle == nil || vehicle.Plate != "AB123CD" {
		t.Fatalf("vehicle=%+v", vehicle)
	}
}

func TestResolveMissIsNotAnError(t *testing.T) {
	db := openTestDB(t)

	vehicle, err := NewResolver(db).Resolve("XY999ZZ")
	if err != nil {
		t.Fatal(err)
	}
	if vehicle != nil {
		t.Fatalf("vehicle=%+v", vehicle)
	}
}
