package pipeline

import (
	"path/filepath"
	"testing"
	"time"

	"rentdesk/internal"
	"rentdesk/internal/fleet"
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

func testMessage() internal.RawMessage {
	return internal.RawMessage{
		UID:        "42",
		Sender:     "rezervacie@autopozicovna.sk",
		Subject:    "Nová objednávka BR10234",
		ReceivedAt: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}
}

func TestIngestCreatesDraft(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.UpsertVehicle("AB123CD", "Škoda Octavia"); err != nil {
		t.Fatal(err)
	}

	res := Extract(sampleReservation)
	vehicle, err := fleet.NewResolver(db).Resolve(*res.VehicleCode)
	if err != nil {
		t.Fatal(err)
	}
	if vehicle == nil {
		t.Fatal("fleet match expected")
	}
	res.VehicleID = internal.Int64Ptr(vehicle.ID)

	outcome, err := NewIngestor(db).Ingest(testMessage(), res)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != IngestedNew {
		t.Fatalf("outcome=%s", outcome)
	}

	records, err := db.ListEmailRecords(storage.EmailFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records=%d", len(records))
	}
	rec := records[0]
	if rec.Status != internal.EmailStatusNew {
		t.Fatalf("status=%s", rec.Status)
	}
	if rec.OrderNumber == nil || *rec.OrderNumber != "BR10234" {
		t.Fatalf("orderNumber=%v", rec.OrderNumber)
	}
	if rec.BookingID == nil {
		t.Fatal("bookingId not set")
	}

	booking, err := db.GetBooking(*rec.BookingID)
	if err != nil {
		t.Fatal(err)
	}
	if booking == nil || booking.Status != internal.BookingStatusDraft {
		t.Fatalf("booking=%+v", booking)
	}
	if booking.VehicleID == nil || *booking.VehicleID != vehicle.ID {
		t.Fatalf("vehicleId=%v", booking.VehicleID)
	}
	if booking.DailyKilometers != 300 {
		t.Fatalf("dailyKilometers=%v", booking.DailyKilometers)
	}
}

func TestIngestIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ingestor := NewIngestor(db)
	res := Extract(sampleReservation)

	if outcome, err := ingestor.Ingest(testMessage(), res); err != nil || outcome != IngestedNew {
		t.Fatalf("first: outcome=%s err=%v", outcome, err)
	}
	outcome, err := ingestor.Ingest(testMessage(), res)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != SkippedDuplicate {
		t.Fatalf("second: outcome=%s", outcome)
	}

	records, err := db.ListEmailRecords(storage.EmailFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records=%d", len(records))
	}
}

func TestIngestBlacklistShortCircuit(t *testing.T) {
	db := openTestDB(t)
	if err := db.AddBlacklistEntry("BR10234", "chargeback"); err != nil {
		t.Fatal(err)
	}

	outcome, err := NewIngestor(db).Ingest(testMessage(), Extract(sampleReservation))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != SkippedBlacklisted {
		t.Fatalf("outcome=%s", outcome)
	}
	if !outcome.Durable() {
		t.Fatal("blacklist skip must be durable")
	}

	records, err := db.ListEmailRecords(storage.EmailFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Fatalf("records=%d", len(records))
	}
}

func TestIngestRejectsIncompleteExtraction(t *testing.T) {
	db := openTestDB(t)

	outcome, err := NewIngestor(db).Ingest(testMessage(), Extract("dobrý deň, 500 km"))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != SkippedIncomplete {
		t.Fatalf("outcome=%s", outcome)
	}
	if outcome.Durable() {
		t.Fatal("incomplete skip must keep the message unread")
	}

	records, err := db.ListEmailRecords(storage.EmailFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Fatalf("records=%d", len(records))
	}
}

func TestIngestDateFallbacks(t *testing.T) {
	db := openTestDB(t)
	ingestor := NewIngestor(db)
	fixed := time.Date(2026, 8, 28, 15, 30, 0, 0, time.Local)
	ingestor.now = func() time.Time { return fixed }

	res := Extract("Číslo objednávky BR77\nOdoberateľ Eva Malá")
	if outcome, err := ingestor.Ingest(testMessage(), res); err != nil || outcome != IngestedNew {
		t.Fatalf("outcome=%s err=%v", outcome, err)
	}

	records, err := db.ListEmailRecords(storage.EmailFilter{})
	if err != nil {
		t.Fatal(err)
	}
	booking, err := db.GetBooking(*records[0].BookingID)
	if err != nil {
		t.Fatal(err)
	}

	wantStart := time.Date(2026, 9, 4, 9, 0, 0, 0, time.Local).Format(time.RFC3339)
	if booking.StartDate != wantStart {
		t.Fatalf("startDate=%s want %s", booking.StartDate, wantStart)
	}
	wantEnd := time.Date(2026, 9, 11, 9, 0, 0, 0, time.Local).Format(time.RFC3339)
	if booking.EndDate != wantEnd {
		t.Fatalf("endDate=%s want %s", booking.EndDate, wantEnd)
	}
	if booking.TotalPrice != 0 || booking.Deposit != 0 {
		t.Fatalf("amount defaults: %+v", booking)
	}
}
