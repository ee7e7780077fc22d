package models

import "time"

// Membership is a pre-purchased right to book without per-booking payment,
// scoped to a calendar month and a set of permitted weekdays.
type Membership struct {
	ID        int64          `json:"id"`
	BuyerID   string         `json:"buyer_id"`
	Weekdays  []time.Weekday `json:"weekdays"`
	Month     time.Month     `json:"month"`
	Year      int            `json:"year"`
	Price     int64          `json:"price"`
	Currency  string         `json:"currency"`
	Status    string         `json:"status"`
	Payment   *PaymentRecord `json:"payment,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Version   int64          `json:"version"`
}

// AllowsWeekday reports whether the weekday is among the permitted set.
func (m *Membership) AllowsWeekday(d time.Weekday) bool {
	for _, wd := range m.Weekdays {
		if wd == d {
			return true
		}
	}
	return false
}

// ValidFor reports whether the membership covers the calendar month of the
// given instant.
func (m *Membership) ValidFor(now time.Time) bool {
	year, month, _ := now.Date()
	return m.Year == year && m.Month == month
}

// CanBook checks all entitlement preconditions for a booking started at
// localStart, evaluated at now: the membership must be paid, valid for the
// current month and permit the proposed weekday.
func (m *Membership) CanBook(now, localStart time.Time) error {
	if m.Status != MembershipPaid {
		return ErrMembershipNotActive
	}
	if !m.ValidFor(now) {
		return ErrMembershipNotActive
	}
	if !m.AllowsWeekday(localStart.Weekday()) {
		return ErrMembershipNotActive
	}
	return nil
}

// MarkPaid records the purchase payment.
func (m *Membership) MarkPaid(payment PaymentRecord) {
	m.Status = MembershipPaid
	m.Payment = &payment
}
