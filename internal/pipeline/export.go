package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"rentdesk/internal"
)

// ExportRecordsToXLSX dumps processing records with their parsed
// payloads for offline review.
func ExportRecordsToXLSX(records []internal.EmailRecord, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"id", "message_id", "sender", "subject", "order_number",
		"received_at", "processed_at", "status", "action_taken", "confidence",
		"customer_name", "vehicle_code", "vehicle_name", "start_date", "end_date",
		"total_price", "deposit", "daily_km", "pickup_location", "booking_id",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, rec := range records {
		var parsed internal.ParsedReservation
		_ = json.Unmarshal([]byte(rec.ParsedJSON), &parsed)

		row := i + 2
		values := []any{
			rec.ID, rec.MessageID, rec.Sender, rec.Subject, deref(rec.OrderNumber),
			rec.ReceivedAt, rec.ProcessedAt, rec.Status, deref(rec.ActionTaken), rec.Confidence,
			deref(parsed.CustomerName), deref(parsed.VehicleCode), deref(parsed.VehicleName),
			timeValue(parsed.StartDate), timeValue(parsed.EndDate),
			floatValue(parsed.TotalPrice), floatValue(parsed.Deposit), floatValue(parsed.DailyKilometers),
			deref(parsed.PickupLocation), int64Value(rec.BookingID),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func floatValue(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func int64Value(v *int64) any {
	if v == nil {
		return ""
	}
	return *v
}

func timeValue(v *time.Time) any {
	if v == nil {
		return ""
	}
	return v.Format(time.RFC3339)
}
