package pipeline

import (
	"testing"
	"time"
)

const sampleReservation = `Dobrý deň,
Číslo objednávky BR10234
Odoberateľ Ján Novák
E-mail: jan.novak@example.sk
Telefón: +421 903 123 456
Miesto prevzatia: Bratislava
Vozidlo: Škoda Octavia AB123CD 45,00 € 180,00 €
Termín: 05.09.2026 09:00:00 - 12.09.2026 09:00:00
Celková cena: 180,00 €
Depozit: 300,00 €
Počet povolených km 300 km
Cena za km navyše: 0,25 €
Spôsob platby: karta
`

func TestExtractSampleReservation(t *testing.T) {
	res := Extract(sampleReservation)

	if res.OrderNumber == nil || *res.OrderNumber != "BR10234" {
		t.Fatalf("orderNumber=%v", res.OrderNumber)
	}
	if res.CustomerName == nil || *res.CustomerName != "Ján Novák" {
		t.Fatalf("customerName=%v", res.CustomerName)
	}
	if res.CustomerEmail == nil || *res.CustomerEmail != "jan.novak@example.sk" {
		t.Fatalf("customerEmail=%v", res.CustomerEmail)
	}
	if res.VehicleCode == nil || *res.VehicleCode != "AB123CD" {
		t.Fatalf("vehicleCode=%v", res.VehicleCode)
	}
	if res.VehicleName == nil || *res.VehicleName != "Škoda Octavia" {
		t.Fatalf("vehicleName=%v", res.VehicleName)
	}
	if res.PricePerDay == nil || *res.PricePerDay != 45 {
		t.Fatalf("pricePerDay=%v", res.PricePerDay)
	}
	if res.DailyKilometers == nil || *res.DailyKilometers != 300 {
		t.Fatalf("dailyKilometers=%v", res.DailyKilometers)
	}
	if res.TotalPrice == nil || *res.TotalPrice != 180 {
		t.Fatalf("totalPrice=%v", res.TotalPrice)
	}
	if res.Deposit == nil || *res.Deposit != 300 {
		t.Fatalf("deposit=%v", res.Deposit)
	}
	if res.ExtraKilometerRate == nil || *res.ExtraKilometerRate != 0.25 {
		t.Fatalf("extraKilometerRate=%v", res.ExtraKilometerRate)
	}
	if res.PickupLocation == nil || *res.PickupLocation != "Bratislava" {
		t.Fatalf("pickupLocation=%v", res.PickupLocation)
	}
	if res.PaymentMethodLabel == nil || *res.PaymentMethodLabel != "karta" {
		t.Fatalf("paymentMethodLabel=%v", res.PaymentMethodLabel)
	}

	wantStart := time.Date(2026, 9, 5, 9, 0, 0, 0, time.Local)
	if res.StartDate == nil || !res.StartDate.Equal(wantStart) {
		t.Fatalf("startDate=%v", res.StartDate)
	}
	wantEnd := time.Date(2026, 9, 12, 9, 0, 0, 0, time.Local)
	if res.EndDate == nil || !res.EndDate.Equal(wantEnd) {
		t.Fatalf("endDate=%v", res.EndDate)
	}
}

func TestExtractISODateRange(t *testing.T) {
	res := Extract("Termín: 2026-09-05 09:00:00 - 2026-09-12 09:00:00")
	if res.StartDate == nil || res.StartDate.Day() != 5 {
		t.Fatalf("startDate=%v", res.StartDate)
	}
	if res.EndDate == nil || res.EndDate.Day() != 12 {
		t.Fatalf("endDate=%v", res.EndDate)
	}
}

func TestExtractKilometerPriority(t *testing.T) {
	text := "Počet povolených km: 300 km\nNajazdíte maximálne 500 km"
	res := Extract(text)
	if res.DailyKilometers == nil || *res.DailyKilometers != 300 {
		t.Fatalf("dailyKilometers=%v", res.DailyKilometers)
	}
}

func TestExtractPerDayKilometers(t *testing.T) {
	res := Extract("V cene je 250 km na deň")
	if res.DailyKilometers == nil || *res.DailyKilometers != 250 {
		t.Fatalf("dailyKilometers=%v", res.DailyKilometers)
	}
}

func TestExtractBareKilometersLastResort(t *testing.T) {
	res := Extract("maximálne 500 km")
	if res.DailyKilometers == nil || *res.DailyKilometers != 500 {
		t.Fatalf("dailyKilometers=%v", res.DailyKilometers)
	}
}

func TestExtractReturnLocationOverridesPickup(t *testing.T) {
	text := "Miesto prevzatia: Bratislava\nMiesto vrátenia: Košice"
	res := Extract(text)
	if res.PickupLocation == nil || *res.PickupLocation != "Košice" {
		t.Fatalf("pickupLocation=%v", res.PickupLocation)
	}
}

func TestExtractSameReturnLocationKeepsPickup(t *testing.T) {
	text := "Miesto prevzatia: Bratislava\nMiesto vrátenia: Bratislava"
	res := Extract(text)
	if res.PickupLocation == nil || *res.PickupLocation != "Bratislava" {
		t.Fatalf("pickupLocation=%v", res.PickupLocation)
	}
}

func TestExtractFailClosed(t *testing.T) {
	for _, text := range []string{"", "dobrý deň, pozdravujem", "500 km"} {
		res := Extract(text)
		if res.Ingestable() {
			t.Fatalf("text %q should not be ingestable", text)
		}
	}
}

func TestExtractUnlabeledVehicleLine(t *testing.T) {
	text := "Číslo objednávky BR10234\nŠkoda Octavia AB123CD 45,00 €"
	res := Extract(text)
	if res.VehicleCode == nil || *res.VehicleCode != "AB123CD" {
		t.Fatalf("vehicleCode=%v", res.VehicleCode)
	}
	// the order line holds a 7-char alphanumeric token; it must not be
	// mistaken for a plate
	if res.VehicleName == nil || *res.VehicleName != "Škoda Octavia" {
		t.Fatalf("vehicleName=%v", res.VehicleName)
	}
}

func TestConfidence(t *testing.T) {
	res := Extract(sampleReservation)
	c := Confidence(res)
	if c < 0.9 {
		t.Fatalf("confidence=%v", c)
	}
	if Confidence(Extract("nič")) != 0 {
		t.Fatalf("empty text should score 0")
	}
}
