package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"officebook/internal/models"
)

const bookingColumns = `id, office_id, office_name, renter_id, start_at, end_at, timezone,
       attendees, total_amount, status, created_at, confirmed_at,
       payment_external_id, payment_amount, payment_fee, payment_currency,
       payment_method, payment_type, version, updated_at`

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// CreateBookingWithLock re-runs the capacity decision inside a transaction
// before inserting. Two admissions racing between read and write are
// serialized here, so the at-most-N-occupants invariant holds at commit
// time.
func (db *DB) CreateBookingWithLock(ctx context.Context, office *models.Office, booking *models.Booking, now time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	existing, err := bookingsForDate(ctx, tx, office.ID, booking.StartAt, office.Location())
	if err != nil {
		return fmt.Errorf("failed to check availability in tx: %w", err)
	}

	proposed := booking.Interval()
	active := make([]models.TimeInterval, 0, len(existing))
	for _, b := range existing {
		if b.IsActive(now) {
			active = append(active, b.Interval())
		}
	}
	if !office.Capacity.CanAdmit(proposed, active) {
		return models.ErrOfficeUnavailable
	}

	// Membership bookings arrive already confirmed, so the confirmation
	// fields are written on insert too.
	var payExternal, payAmount, payFee, payCurrency, payMethod, payType interface{}
	if p := booking.Payment; p != nil {
		payExternal, payAmount, payFee = p.ExternalID, p.Amount, p.Fee
		payCurrency, payMethod, payType = p.Currency, p.Method, p.Type
	}

	query := `INSERT INTO bookings (
				office_id, office_name, renter_id, start_at, end_at, timezone,
				attendees, total_amount, status, created_at, confirmed_at,
				payment_external_id, payment_amount, payment_fee, payment_currency,
				payment_method, payment_type, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, query,
		booking.OfficeID,
		booking.OfficeName,
		booking.RenterID,
		booking.StartAt,
		booking.EndAt,
		booking.Timezone,
		booking.Attendees,
		booking.TotalAmount,
		booking.Status,
		booking.CreatedAt,
		booking.ConfirmedAt,
		payExternal,
		payAmount,
		payFee,
		payCurrency,
		payMethod,
		payType,
		booking.CreatedAt,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	booking.ID = id
	booking.UpdatedAt = booking.CreatedAt
	booking.Version = 1

	return tx.Commit()
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	rows, err := db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanBooking(rows)
}

// GetBookingsForDate returns every booking of the office whose start falls
// on the given calendar date in the office's display timezone. A booking
// started late the previous day is deliberately out of scope.
func (db *DB) GetBookingsForDate(ctx context.Context, officeID int64, date time.Time, loc *time.Location) ([]*models.Booking, error) {
	return bookingsForDate(ctx, db.DB, officeID, date, loc)
}

func bookingsForDate(ctx context.Context, q querier, officeID int64, date time.Time, loc *time.Location) ([]*models.Booking, error) {
	local := date.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE office_id = ? AND start_at >= ? AND start_at < ?
              ORDER BY start_at ASC`
	rows, err := q.QueryContext(ctx, query, officeID, dayStart.UTC(), dayEnd.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings for date: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// MarkBookingScheduledWithVersion confirms a booking and attaches its
// payment record. The version guard makes a duplicated confirmation lose.
func (db *DB) MarkBookingScheduledWithVersion(ctx context.Context, id, version int64, payment models.PaymentRecord, confirmedAt time.Time) error {
	query := `UPDATE bookings SET
                status = ?, confirmed_at = ?,
                payment_external_id = ?, payment_amount = ?, payment_fee = ?,
                payment_currency = ?, payment_method = ?, payment_type = ?,
                version = version + 1, updated_at = ?
              WHERE id = ? AND version = ? AND status != ?`
	result, err := db.ExecContext(ctx, query,
		models.StatusScheduled, confirmedAt,
		payment.ExternalID, payment.Amount, payment.Fee,
		payment.Currency, payment.Method, payment.Type,
		time.Now(), id, version, models.StatusScheduled,
	)
	if err != nil {
		return fmt.Errorf("failed to mark booking scheduled: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE start_at >= ? AND start_at < ?
              ORDER BY start_at ASC`
	rows, err := db.QueryContext(ctx, query, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

func (db *DB) GetDailyBookings(ctx context.Context, start, end time.Time) (map[string][]*models.Booking, error) {
	bookings, err := db.GetBookingsByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	daily := make(map[string][]*models.Booking)
	for _, b := range bookings {
		dateKey := b.StartAt.Format("2006-01-02")
		daily[dateKey] = append(daily[dateKey], b)
	}
	return daily, nil
}

func scanBookings(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanBooking(rows *sql.Rows) (*models.Booking, error) {
	var b models.Booking
	var confirmedAt sql.NullTime
	var payExternal, payCurrency, payMethod, payType sql.NullString
	var payAmount, payFee sql.NullInt64

	err := rows.Scan(
		&b.ID, &b.OfficeID, &b.OfficeName, &b.RenterID, &b.StartAt, &b.EndAt, &b.Timezone,
		&b.Attendees, &b.TotalAmount, &b.Status, &b.CreatedAt, &confirmedAt,
		&payExternal, &payAmount, &payFee, &payCurrency,
		&payMethod, &payType, &b.Version, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}

	b.StartAt = b.StartAt.UTC()
	b.EndAt = b.EndAt.UTC()
	if confirmedAt.Valid {
		t := confirmedAt.Time
		b.ConfirmedAt = &t
	}
	if payExternal.Valid || payMethod.Valid {
		b.Payment = &models.PaymentRecord{
			ExternalID: payExternal.String,
			Amount:     payAmount.Int64,
			Fee:        payFee.Int64,
			Currency:   payCurrency.String,
			Method:     payMethod.String,
			Type:       payType.String,
		}
	}
	return &b, nil
}
