package models

import "time"

// Booking is a reservation of one office for a time window. The stored
// status is only ever pending or scheduled; the cancelled presentation is
// computed from the hold age at read time.
type Booking struct {
	ID          int64          `json:"id"`
	OfficeID    int64          `json:"office_id"`
	OfficeName  string         `json:"office_name"`
	RenterID    string         `json:"renter_id"`
	StartAt     time.Time      `json:"start_at"`
	EndAt       time.Time      `json:"end_at"`
	Timezone    string         `json:"timezone"`
	Attendees   int64          `json:"attendees"`
	TotalAmount int64          `json:"total_amount"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	ConfirmedAt *time.Time     `json:"confirmed_at,omitempty"`
	Payment     *PaymentRecord `json:"payment,omitempty"`
	Version     int64          `json:"version"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Interval returns the booked window.
func (b *Booking) Interval() TimeInterval {
	return TimeInterval{Start: b.StartAt.UTC(), End: b.EndAt.UTC()}
}

// Expired reports whether a pending hold has outlived PendingHold.
func (b *Booking) Expired(now time.Time) bool {
	return b.Status == StatusPending && now.Sub(b.CreatedAt) > PendingHold
}

// IsActive reports whether the booking still occupies capacity: scheduled,
// or pending within its hold window.
func (b *Booking) IsActive(now time.Time) bool {
	switch b.Status {
	case StatusScheduled:
		return true
	case StatusPending:
		return !b.Expired(now)
	default:
		return false
	}
}

// DisplayStatus is the status shown to callers, with the expired-hold
// cancelled view applied.
func (b *Booking) DisplayStatus(now time.Time) string {
	if b.Expired(now) {
		return StatusCancelled
	}
	return b.Status
}

// MarkScheduled confirms the booking with a payment record. Re-confirming
// an already scheduled booking is rejected so a duplicated payment event
// cannot overwrite the original record.
func (b *Booking) MarkScheduled(payment PaymentRecord, now time.Time) error {
	if b.Status == StatusScheduled {
		return ErrAlreadyScheduled
	}
	confirmedAt := now
	b.Status = StatusScheduled
	b.ConfirmedAt = &confirmedAt
	b.Payment = &payment
	return nil
}
