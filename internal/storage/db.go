package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"rentdesk/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS vehicles (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  plate TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_vehicles_plate ON vehicles(plate);

CREATE TABLE IF NOT EXISTS bookings (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  orderNumber TEXT NOT NULL UNIQUE,
  customerName TEXT NOT NULL,
  customerEmail TEXT,
  customerPhone TEXT,
  vehicleId INTEGER,
  vehicleName TEXT,
  startDate TEXT NOT NULL,
  endDate TEXT NOT NULL,
  totalPrice REAL NOT NULL DEFAULT 0,
  deposit REAL NOT NULL DEFAULT 0,
  dailyKilometers REAL NOT NULL DEFAULT 0,
  extraKilometerRate REAL NOT NULL DEFAULT 0,
  paymentMethod TEXT,
  pickupLocation TEXT,
  status TEXT NOT NULL DEFAULT 'draft',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(vehicleId) REFERENCES vehicles(id)
);

CREATE TABLE IF NOT EXISTS email_records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  messageId TEXT NOT NULL,
  sender TEXT,
  subject TEXT,
  orderNumber TEXT,
  receivedAt TEXT,
  processedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  status TEXT NOT NULL DEFAULT 'new',
  actionTaken TEXT,
  confidence REAL NOT NULL DEFAULT 0,
  errorText TEXT,
  notes TEXT,
  tags TEXT,
  bookingId INTEGER,
  blacklisted INTEGER NOT NULL DEFAULT 0,
  parsedJson TEXT NOT NULL,
  FOREIGN KEY(bookingId) REFERENCES bookings(id)
);
CREATE INDEX IF NOT EXISTS idx_email_records_orderNumber ON email_records(orderNumber);
CREATE INDEX IF NOT EXISTS idx_email_records_status ON email_records(status);

CREATE TABLE IF NOT EXISTS blacklist (
  orderNumber TEXT PRIMARY KEY,
  reason TEXT NOT NULL DEFAULT '',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS action_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  emailId INTEGER NOT NULL,
  actor TEXT NOT NULL,
  action TEXT NOT NULL,
  note TEXT NOT NULL DEFAULT '',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(emailId) REFERENCES email_records(id)
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertVehicle(plate, name string) (internal.Vehicle, error) {
	_, err := d.conn.Exec(`
INSERT INTO vehicles (plate, name) VALUES (?, ?)
ON CONFLICT(plate) DO UPDATE SET name = excluded.name
`, plate, name)
	if err != nil {
		return internal.Vehicle{}, err
	}

	var v internal.Vehicle
	err = d.conn.QueryRow(`SELECT id, plate, name FROM vehicles WHERE plate = ?`, plate).
		Scan(&v.ID, &v.Plate, &v.Name)
	if err != nil {
		return internal.Vehicle{}, err
	}
	return v, nil
}

func (d *DB) FindVehicleByPlate(code string) (*internal.Vehicle, error) {
	var v internal.Vehicle
	err := d.conn.QueryRow(`
SELECT id, plate, name FROM vehicles WHERE plate = ? COLLATE NOCASE LIMIT 1
`, code).Scan(&v.ID, &v.Plate, &v.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (d *DB) FindVehicleByNameLike(fragment string) (*internal.Vehicle, error) {
	var v internal.Vehicle
	err := d.conn.QueryRow(`
SELECT id, plate, name FROM vehicles
WHERE name LIKE '%' || ? || '%' COLLATE NOCASE
ORDER BY id ASC LIMIT 1
`, fragment).Scan(&v.ID, &v.Plate, &v.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (d *DB) ListVehicles() ([]internal.Vehicle, error) {
	rows, err := d.conn.Query(`SELECT id, plate, name FROM vehicles ORDER BY plate ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Vehicle
	for rows.Next() {
		var v internal.Vehicle
		if err := rows.Scan(&v.ID, &v.Plate, &v.Name); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (d *DB) AddBlacklistEntry(orderNumber, reason string) error {
	_, err := d.conn.Exec(`
INSERT INTO blacklist (orderNumber, reason) VALUES (?, ?)
ON CONFLICT(orderNumber) DO UPDATE SET reason = excluded.reason
`, orderNumber, reason)
	return err
}

func (d *DB) RemoveBlacklistEntry(orderNumber string) error {
	_, err := d.conn.Exec(`DELETE FROM blacklist WHERE orderNumber = ?`, orderNumber)
	return err
}

func (d *DB) GetBlacklistEntry(orderNumber string) (*internal.BlacklistEntry, error) {
	var entry internal.BlacklistEntry
	err := d.conn.QueryRow(`
SELECT orderNumber, reason, createdAt FROM blacklist WHERE orderNumber = ?
`, orderNumber).Scan(&entry.OrderNumber, &entry.Reason, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (d *DB) ListBlacklist() ([]internal.BlacklistEntry, error) {
	rows, err := d.conn.Query(`SELECT orderNumber, reason, createdAt FROM blacklist ORDER BY createdAt DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.BlacklistEntry
	for rows.Next() {
		var entry internal.BlacklistEntry
		if err := rows.Scan(&entry.OrderNumber, &entry.Reason, &entry.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// OrderNumberExists checks both processing records and bookings: manual
// entry can create a booking with no record, and either one makes a new
// ingestion a duplicate.
func (d *DB) OrderNumberExists(orderNumber string) (bool, error) {
	var count int
	err := d.conn.QueryRow(`
SELECT
  (SELECT COUNT(1) FROM email_records WHERE orderNumber = ?) +
  (SELECT COUNT(1) FROM bookings WHERE orderNumber = ?)
`, orderNumber, orderNumber).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertDraft persists the draft booking and its processing record in
// one transaction; either both land or neither does.
func (d *DB) InsertDraft(booking internal.Booking, record internal.EmailRecord) (int64, int64, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(`
INSERT INTO bookings (
  orderNumber, customerName, customerEmail, customerPhone,
  vehicleId, vehicleName, startDate, endDate,
  totalPrice, deposit, dailyKilometers, extraKilometerRate,
  paymentMethod, pickupLocation, status
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, booking.OrderNumber, booking.CustomerName, booking.CustomerEmail, booking.CustomerPhone,
		booking.VehicleID, booking.VehicleName, booking.StartDate, booking.EndDate,
		booking.TotalPrice, booking.Deposit, booking.DailyKilometers, booking.ExtraKilometerRate,
		booking.PaymentMethod, booking.PickupLocation, internal.BookingStatusDraft)
	if err != nil {
		return 0, 0, err
	}
	bookingID, err := result.LastInsertId()
	if err != nil {
		return 0, 0, err
	}

	result, err = tx.Exec(`
INSERT INTO email_records (
  messageId, sender, subject, orderNumber, receivedAt,
  status, confidence, bookingId, blacklisted, parsedJson
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
`, record.MessageID, record.Sender, record.Subject, record.OrderNumber, record.ReceivedAt,
		internal.EmailStatusNew, record.Confidence, bookingID, record.ParsedJSON)
	if err != nil {
		return 0, 0, err
	}
	recordID, err := result.LastInsertId()
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return recordID, bookingID, nil
}

const emailRecordColumns = `
id, messageId, sender, subject, orderNumber, receivedAt, processedAt,
status, actionTaken, confidence, errorText, notes, tags, bookingId, blacklisted, parsedJson`

func scanEmailRecord(row interface{ Scan(...any) error }) (internal.EmailRecord, error) {
	var rec internal.EmailRecord
	err := row.Scan(
		&rec.ID, &rec.MessageID, &rec.Sender, &rec.Subject, &rec.OrderNumber,
		&rec.ReceivedAt, &rec.ProcessedAt, &rec.Status, &rec.ActionTaken,
		&rec.Confidence, &rec.ErrorText, &rec.Notes, &rec.Tags, &rec.BookingID,
		&rec.Blacklisted, &rec.ParsedJSON,
	)
	return rec, err
}

func (d *DB) GetEmailRecord(id int64) (*internal.EmailRecord, error) {
	row := d.conn.QueryRow(`SELECT `+emailRecordColumns+` FROM email_records WHERE id = ?`, id)
	rec, err := scanEmailRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type EmailFilter struct {
	Status string
	Sender string
	From   string
	To     string
	Limit  int
}

func (d *DB) ListEmailRecords(filter EmailFilter) ([]internal.EmailRecord, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Sender != "" {
		where = append(where, "sender LIKE '%' || ? || '%'")
		args = append(args, filter.Sender)
	}
	if filter.From != "" {
		where = append(where, "receivedAt >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		where = append(where, "receivedAt <= ?")
		args = append(args, filter.To)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	rows, err := d.conn.Query(
		`SELECT `+emailRecordColumns+` FROM email_records WHERE `+strings.Join(where, " AND ")+
			` ORDER BY processedAt DESC LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.EmailRecord
	for rows.Next() {
		rec, err := scanEmailRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ApplyEmailAction performs one approval-workflow transition: record
// status + actionTaken, the linked booking's status when requested, and
// exactly one action-log row, all in one transaction.
func (d *DB) ApplyEmailAction(emailID int64, status, action, actor, note string, bookingStatus string) error {
	rec, err := d.GetEmailRecord(emailID)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("email record not found: %d", emailID)
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
UPDATE email_records SET status = ?, actionTaken = ?, notes = COALESCE(?, notes) WHERE id = ?
`, status, action, nullable(note), emailID); err != nil {
		return err
	}

	if bookingStatus != "" && rec.BookingID != nil {
		if _, err := tx.Exec(`UPDATE bookings SET status = ? WHERE id = ?`, bookingStatus, *rec.BookingID); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
INSERT INTO action_log (emailId, actor, action, note) VALUES (?, ?, ?, ?)
`, emailID, actor, action, note); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *DB) ListActionLog(emailID int64) ([]internal.ActionLogEntry, error) {
	rows, err := d.conn.Query(`
SELECT id, emailId, actor, action, note, createdAt
FROM action_log WHERE emailId = ? ORDER BY id ASC
`, emailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ActionLogEntry
	for rows.Next() {
		var entry internal.ActionLogEntry
		if err := rows.Scan(&entry.ID, &entry.EmailID, &entry.Actor, &entry.Action, &entry.Note, &entry.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (d *DB) GetBooking(id int64) (*internal.Booking, error) {
	var b internal.Booking
	err := d.conn.QueryRow(`
SELECT id, orderNumber, customerName, customerEmail, customerPhone,
       vehicleId, vehicleName, startDate, endDate,
       totalPrice, deposit, dailyKilometers, extraKilometerRate,
       paymentMethod, pickupLocation, status, createdAt
FROM bookings WHERE id = ?
`, id).Scan(
		&b.ID, &b.OrderNumber, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone,
		&b.VehicleID, &b.VehicleName, &b.StartDate, &b.EndDate,
		&b.TotalPrice, &b.Deposit, &b.DailyKilometers, &b.ExtraKilometerRate,
		&b.PaymentMethod, &b.PickupLocation, &b.Status, &b.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func nullable(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
