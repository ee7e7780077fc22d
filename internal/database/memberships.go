package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"officebook/internal/models"
)

func (db *DB) CreateMembership(ctx context.Context, m *models.Membership) error {
	query := `INSERT INTO memberships (buyer_id, weekdays, month, year, price, currency, status, created_at, updated_at, version)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		m.BuyerID,
		encodeWeekdays(m.Weekdays),
		int(m.Month),
		m.Year,
		m.Price,
		m.Currency,
		m.Status,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	m.ID = id
	m.CreatedAt = now
	m.UpdatedAt = now
	m.Version = 1
	return nil
}

func (db *DB) GetMembership(ctx context.Context, id int64) (*models.Membership, error) {
	query := `SELECT id, buyer_id, weekdays, month, year, price, currency, status,
                     payment_external_id, payment_amount, payment_fee, payment_currency,
                     payment_method, payment_type, version, created_at, updated_at
              FROM memberships WHERE id = ?`

	var m models.Membership
	var weekdays string
	var month int
	var payExternal, payCurrency, payMethod, payType sql.NullString
	var payAmount, payFee sql.NullInt64

	err := db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.BuyerID, &weekdays, &month, &m.Year, &m.Price, &m.Currency, &m.Status,
		&payExternal, &payAmount, &payFee, &payCurrency,
		&payMethod, &payType, &m.Version, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	m.Month = time.Month(month)
	m.Weekdays = decodeWeekdays(weekdays)
	if payExternal.Valid || payMethod.Valid {
		m.Payment = &models.PaymentRecord{
			ExternalID: payExternal.String,
			Amount:     payAmount.Int64,
			Fee:        payFee.Int64,
			Currency:   payCurrency.String,
			Method:     payMethod.String,
			Type:       payType.String,
		}
	}
	return &m, nil
}

// MarkMembershipPaidWithVersion activates a purchased membership once its
// own payment is approved.
func (db *DB) MarkMembershipPaidWithVersion(ctx context.Context, id, version int64, payment models.PaymentRecord) error {
	query := `UPDATE memberships SET
                status = ?,
                payment_external_id = ?, payment_amount = ?, payment_fee = ?,
                payment_currency = ?, payment_method = ?, payment_type = ?,
                version = version + 1, updated_at = ?
              WHERE id = ? AND version = ? AND status != ?`
	result, err := db.ExecContext(ctx, query,
		models.MembershipPaid,
		payment.ExternalID, payment.Amount, payment.Fee,
		payment.Currency, payment.Method, payment.Type,
		time.Now(), id, version, models.MembershipPaid,
	)
	if err != nil {
		return fmt.Errorf("failed to mark membership paid: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func encodeWeekdays(days []time.Weekday) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

func decodeWeekdays(s string) []time.Weekday {
	if s == "" {
		return nil
	}
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			continue
		}
		days = append(days, time.Weekday(n))
	}
	return days
}
