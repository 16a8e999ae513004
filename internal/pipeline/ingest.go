package pipeline

import (
	"encoding/json"
	"time"

	"rentdesk/internal"
	"rentdesk/internal/storage"
)

// IngestOutcome classifies one ingestion attempt. Only outcomes marked
// durable allow the poller to flip the message's read flag.
type IngestOutcome string

const (
	IngestedNew        IngestOutcome = "ingested"
	SkippedDuplicate   IngestOutcome = "skipped_duplicate"
	SkippedBlacklisted IngestOutcome = "skipped_blacklisted"
	SkippedIncomplete  IngestOutcome = "skipped_incomplete"
)

// Durable reports whether the attempt reached a state that must not be
// retried: either a draft was written, or the skip was intentional.
// Incomplete extraction is not durable; the message stays unread.
func (o IngestOutcome) Durable() bool {
	return o == IngestedNew || o == SkippedDuplicate || o == SkippedBlacklisted
}

// Ingestor is the idempotency/blacklist guard plus the draft writer.
type Ingestor struct {
	db  *storage.DB
	now func() time.Time
}

func NewIngestor(db *storage.DB) *Ingestor {
	return &Ingestor{db: db, now: time.Now}
}

// Ingest guards and, when allowed, persists a draft booking with its
// processing record in one transaction.
func (s *Ingestor) Ingest(msg internal.RawMessage, res internal.ParsedReservation) (IngestOutcome, error) {
	if !res.Ingestable() {
		return SkippedIncomplete, nil
	}
	orderNumber := *res.OrderNumber

	entry, err := s.db.GetBlacklistEntry(orderNumber)
	if err != nil {
		return "", err
	}
	if entry != nil {
		return SkippedBlacklisted, nil
	}

	exists, err := s.db.OrderNumberExists(orderNumber)
	if err != nil {
		return "", err
	}
	if exists {
		return SkippedDuplicate, nil
	}

	parsedJSON, err := json.Marshal(res)
	if err != nil {
		return "", err
	}

	booking := s.buildDraft(res)
	record := internal.EmailRecord{
		MessageID:   msg.UID,
		Sender:      msg.Sender,
		Subject:     msg.Subject,
		OrderNumber: res.OrderNumber,
		ReceivedAt:  msg.ReceivedAt.UTC().Format(time.RFC3339),
		Confidence:  Confidence(res),
		ParsedJSON:  string(parsedJSON),
	}

	if _, _, err := s.db.InsertDraft(booking, record); err != nil {
		return "", err
	}
	return IngestedNew, nil
}

// buildDraft applies the review-friendly defaults exactly once: missing
// dates fall back to a week out, amounts to zero.
func (s *Ingestor) buildDraft(res internal.ParsedReservation) internal.Booking {
	start := s.defaultStart()
	if res.StartDate != nil {
		start = *res.StartDate
	}
	end := start.AddDate(0, 0, 7)
	if res.EndDate != nil {
		end = *res.EndDate
	}

	return internal.Booking{
		OrderNumber:        *res.OrderNumber,
		CustomerName:       *res.CustomerName,
		CustomerEmail:      res.CustomerEmail,
		CustomerPhone:      res.CustomerPhone,
		VehicleID:          res.VehicleID,
		VehicleName:        res.VehicleName,
		StartDate:          start.Format(time.RFC3339),
		EndDate:            end.Format(time.RFC3339),
		TotalPrice:         zeroDefault(res.TotalPrice),
		Deposit:            zeroDefault(res.Deposit),
		DailyKilometers:    zeroDefault(res.DailyKilometers),
		ExtraKilometerRate: zeroDefault(res.ExtraKilometerRate),
		PaymentMethod:      res.PaymentMethodLabel,
		PickupLocation:     res.PickupLocation,
	}
}

func (s *Ingestor) defaultStart() time.Time {
	base := s.now().AddDate(0, 0, 7)
	return time.Date(base.Year(), base.Month(), base.Day(), 9, 0, 0, 0, base.Location())
}

func zeroDefault(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
