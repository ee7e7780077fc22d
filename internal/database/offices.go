package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"officebook/internal/models"
)

func (db *DB) CreateOffice(ctx context.Context, office *models.Office) error {
	query := `INSERT INTO offices (name, price_per_hour, capacity_kind, unit_count, timezone, sort_order, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		office.Name,
		office.PricePerHour,
		string(office.Capacity.Kind),
		office.Capacity.UnitCount(),
		office.Timezone,
		office.SortOrder,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create office: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	office.ID = id
	office.CreatedAt = now
	office.UpdatedAt = now
	return nil
}

// SeedOffices upserts config-declared offices by name so restarts do not
// duplicate them.
func (db *DB) SeedOffices(ctx context.Context, offices []models.Office) error {
	for i := range offices {
		o := offices[i]
		existing, err := db.GetOfficeByName(ctx, o.Name)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if existing != nil {
			query := `UPDATE offices SET price_per_hour = ?, capacity_kind = ?, unit_count = ?, timezone = ?, sort_order = ?, updated_at = ? WHERE id = ?`
			if _, err := db.ExecContext(ctx, query,
				o.PricePerHour, string(o.Capacity.Kind), o.Capacity.UnitCount(),
				o.Timezone, o.SortOrder, time.Now(), existing.ID,
			); err != nil {
				return fmt.Errorf("failed to update seeded office %s: %w", o.Name, err)
			}
			continue
		}
		if err := db.CreateOffice(ctx, &o); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) GetOffice(ctx context.Context, id int64) (*models.Office, error) {
	query := `SELECT id, name, price_per_hour, capacity_kind, unit_count, timezone,
                     sort_order, deleted_at, created_at, updated_at
              FROM offices WHERE id = ?`
	return db.scanOffice(ctx, db.QueryRowContext(ctx, query, id))
}

func (db *DB) GetOfficeByName(ctx context.Context, name string) (*models.Office, error) {
	query := `SELECT id, name, price_per_hour, capacity_kind, unit_count, timezone,
                     sort_order, deleted_at, created_at, updated_at
              FROM offices WHERE name = ?`
	return db.scanOffice(ctx, db.QueryRowContext(ctx, query, name))
}

func (db *DB) scanOffice(ctx context.Context, row *sql.Row) (*models.Office, error) {
	var o models.Office
	var kind string
	var units int64
	var deletedAt sql.NullTime
	err := row.Scan(
		&o.ID, &o.Name, &o.PricePerHour, &kind, &units, &o.Timezone,
		&o.SortOrder, &deletedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get office: %w", err)
	}

	o.Capacity = models.CapacityPolicy{Kind: models.CapacityKind(kind), Units: units}
	if deletedAt.Valid {
		t := deletedAt.Time
		o.DeletedAt = &t
	}

	entries, err := db.getInactivityEntries(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Inactivity = models.InactivityCalendar{Entries: entries}
	return &o, nil
}

// GetActiveOffices lists offices not yet deleted as of the given instant.
// The cutoff is caller-supplied so the injected clock stays in charge.
func (db *DB) GetActiveOffices(ctx context.Context, now time.Time) ([]*models.Office, error) {
	query := `SELECT id FROM offices
              WHERE deleted_at IS NULL OR deleted_at > ?
              ORDER BY sort_order ASC, id ASC`
	rows, err := db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list offices: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan office id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	offices := make([]*models.Office, 0, len(ids))
	for _, id := range ids {
		o, err := db.GetOffice(ctx, id)
		if err != nil {
			return nil, err
		}
		offices = append(offices, o)
	}
	return offices, nil
}

// SoftDeleteOffice marks the office deleted as of the given date. Until
// that date passes the office remains bookable.
func (db *DB) SoftDeleteOffice(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE offices SET deleted_at = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, at, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete office: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) AddInactivityEntry(ctx context.Context, officeID int64, entry *models.InactivityEntry) error {
	query := `INSERT INTO inactivity_entries (office_id, kind, date, weekday, created_at)
              VALUES (?, ?, ?, ?, ?)`
	var date interface{}
	if entry.Kind == models.InactivityDate {
		date = entry.Date
	}
	result, err := db.ExecContext(ctx, query, officeID, string(entry.Kind), date, int(entry.Weekday), time.Now())
	if err != nil {
		return fmt.Errorf("failed to add inactivity entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

func (db *DB) RemoveInactivityEntry(ctx context.Context, officeID, entryID int64) error {
	query := `DELETE FROM inactivity_entries WHERE id = ? AND office_id = ?`
	result, err := db.ExecContext(ctx, query, entryID, officeID)
	if err != nil {
		return fmt.Errorf("failed to remove inactivity entry: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) getInactivityEntries(ctx context.Context, officeID int64) ([]models.InactivityEntry, error) {
	query := `SELECT id, kind, date, weekday FROM inactivity_entries WHERE office_id = ? ORDER BY id ASC`
	rows, err := db.QueryContext(ctx, query, officeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get inactivity entries: %w", err)
	}
	defer rows.Close()

	var entries []models.InactivityEntry
	for rows.Next() {
		var e models.InactivityEntry
		var kind string
		var date sql.NullTime
		var weekday int
		if err := rows.Scan(&e.ID, &kind, &date, &weekday); err != nil {
			return nil, fmt.Errorf("failed to scan inactivity entry: %w", err)
		}
		e.Kind = models.InactivityKind(kind)
		if date.Valid {
			e.Date = date.Time
		}
		e.Weekday = time.Weekday(weekday)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
