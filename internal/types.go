package internal

import "time"

// RawMessage is one decoded mail item. It lives only for the duration of a
// single poll cycle; nothing in it is persisted except through an
// EmailRecord snapshot.
type RawMessage struct {
	UID         string
	Sender      string
	Subject     string
	Text        string
	HTML        string
	ReceivedAt  time.Time
	Attachments []Attachment
}

type Attachment struct {
	FileName string
	Content  []byte
}

// ParsedReservation holds best-effort extracted fields. Absence is a nil
// pointer; defaults are applied once, by the ingestion writer.
type ParsedReservation struct {
	OrderNumber        *string    `json:"orderNumber,omitempty"`
	CustomerName       *string    `json:"customerName,omitempty"`
	CustomerEmail      *string    `json:"customerEmail,omitempty"`
	CustomerPhone      *string    `json:"customerPhone,omitempty"`
	CustomerAddress    *string    `json:"customerAddress,omitempty"`
	VehicleCode        *string    `json:"vehicleCode,omitempty"`
	VehicleName        *string    `json:"vehicleName,omitempty"`
	VehicleID          *int64     `json:"vehicleId,omitempty"`
	PricePerDay        *float64   `json:"pricePerDay,omitempty"`
	StartDate          *time.Time `json:"startDate,omitempty"`
	EndDate            *time.Time `json:"endDate,omitempty"`
	TotalPrice         *float64   `json:"totalPrice,omitempty"`
	Deposit            *float64   `json:"deposit,omitempty"`
	DailyKilometers    *float64   `json:"dailyKilometers,omitempty"`
	ExtraKilometerRate *float64   `json:"extraKilometerRate,omitempty"`
	PaymentMethodLabel *string    `json:"paymentMethodLabel,omitempty"`
	PickupLocation     *string    `json:"pickupLocation,omitempty"`
	FuelLevel          *string    `json:"fuelLevel,omitempty"`
	Odometer           *float64   `json:"odometer,omitempty"`
	ReturnConditions   *string    `json:"returnConditions,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	InsuranceInfo      *string    `json:"insuranceInfo,omitempty"`
}

// Ingestable reports whether the reservation carries the minimum the
// writer accepts: an order number (the dedup key) and a customer name.
func (r ParsedReservation) Ingestable() bool {
	return r.OrderNumber != nil && r.CustomerName != nil
}

const (
	EmailStatusNew       = "new"
	EmailStatusProcessed = "processed"
	EmailStatusRejected  = "rejected"
	EmailStatusArchived  = "archived"

	ActionApproved = "approved"
	ActionRejected = "rejected"
	ActionArchived = "archived"
	ActionDeleted  = "deleted"

	BookingStatusDraft     = "draft"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// EmailRecord is the persisted processing row for one ingested message.
// The pipeline only ever creates these; status transitions belong to the
// management API.
type EmailRecord struct {
	ID          int64
	MessageID   string
	Sender      string
	Subject     string
	OrderNumber *string
	ReceivedAt  string
	ProcessedAt string
	Status      string
	ActionTaken *string
	Confidence  float64
	ErrorText   *string
	Notes       *string
	Tags        *string
	BookingID   *int64
	Blacklisted bool
	ParsedJSON  string
}

type Booking struct {
	ID                 int64
	OrderNumber        string
	CustomerName       string
	CustomerEmail      *string
	CustomerPhone      *string
	VehicleID          *int64
	VehicleName        *string
	StartDate          string
	EndDate            string
	TotalPrice         float64
	Deposit            float64
	DailyKilometers    float64
	ExtraKilometerRate float64
	PaymentMethod      *string
	PickupLocation     *string
	Status             string
	CreatedAt          string
}

type Vehicle struct {
	ID    int64
	Plate string
	Name  string
}

type BlacklistEntry struct {
	OrderNumber string
	Reason      string
	CreatedAt   string
}

type ActionLogEntry struct {
	ID        int64
	EmailID   int64
	Actor     string
	Action    string
	Note      string
	CreatedAt string
}

// PollResult summarizes one poll cycle.
type PollResult struct {
	MessagesSeen int `json:"messagesSeen"`
	Ingested     int `json:"ingested"`
	Skipped      int `json:"skipped"`
	Errors       int `json:"errors"`
}

func StringPtr(v string) *string    { return &v }
func FloatPtr(v float64) *float64   { return &v }
func Int64Ptr(v int64) *int64       { return &v }
func TimePtr(v time.Time) *time.Time { return &v }
