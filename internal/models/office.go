package models

import "time"

// Office is the bookable physical resource: a capacity policy, an
// inactivity calendar and an hourly price. Administrative edits happen
// elsewhere; the booking decision only reads it.
type Office struct {
	ID           int64              `yaml:"id" json:"id"`
	Name         string             `yaml:"name" json:"name"`
	PricePerHour int64              `yaml:"price_per_hour" json:"price_per_hour"`
	Capacity     CapacityPolicy     `yaml:"capacity" json:"capacity"`
	Inactivity   InactivityCalendar `yaml:"-" json:"inactivity"`
	Timezone     string             `yaml:"timezone" json:"timezone"`
	SortOrder    int64              `yaml:"sort_order" json:"sort_order"`
	DeletedAt    *time.Time         `yaml:"-" json:"deleted_at,omitempty"`
	CreatedAt    time.Time          `yaml:"-" json:"created_at"`
	UpdatedAt    time.Time          `yaml:"-" json:"updated_at"`
}

// Location resolves the office timezone, falling back to UTC.
func (o *Office) Location() *time.Location {
	if o.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Deleted reports whether the office is gone as of now. The deletion date
// acts as a grace period: the office stays bookable until it passes.
func (o *Office) Deleted(now time.Time) bool {
	return o.DeletedAt != nil && !o.DeletedAt.After(now)
}

// TryBook runs the admission decision for a proposed window against the
// bookings already known for that date and, on success, constructs a new
// pending booking. It has no side effects; persisting the booking and
// serializing concurrent admissions is the caller's job.
func (o *Office) TryBook(renterID string, attendees int64, start, end time.Time, existing []*Booking, now time.Time) (*Booking, error) {
	interval, err := NewTimeInterval(start, end)
	if err != nil {
		return nil, err
	}

	if o.Deleted(now) {
		return nil, ErrOfficeUnavailable
	}
	if o.Inactivity.Blocks(interval.Start.In(o.Location())) {
		return nil, ErrOfficeUnavailable
	}

	active := make([]TimeInterval, 0, len(existing))
	for _, b := range existing {
		if b.IsActive(now) {
			active = append(active, b.Interval())
		}
	}
	if !o.Capacity.CanAdmit(interval, active) {
		return nil, ErrOfficeUnavailable
	}

	return &Booking{
		OfficeID:    o.ID,
		OfficeName:  o.Name,
		RenterID:    renterID,
		StartAt:     interval.Start,
		EndAt:       interval.End,
		Timezone:    o.Timezone,
		Attendees:   attendees,
		TotalAmount: o.PricePerHour * interval.Hours(),
		Status:      StatusPending,
		CreatedAt:   now,
	}, nil
}
