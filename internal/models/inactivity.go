package models

import "time"

type InactivityKind string

const (
	// InactivityDate blocks a single calendar date.
	InactivityDate InactivityKind = "date"
	// InactivityWeekday blocks a recurring weekday.
	InactivityWeekday InactivityKind = "weekday"
)

// InactivityEntry is one blackout rule. Entries are created and removed by
// administrators and only consulted by the booking decision.
type InactivityEntry struct {
	ID      int64          `json:"id"`
	Kind    InactivityKind `json:"kind"`
	Date    time.Time      `json:"date,omitempty"`
	Weekday time.Weekday   `json:"weekday,omitempty"`
}

// InactivityCalendar holds the blackout rules of one office.
type InactivityCalendar struct {
	Entries []InactivityEntry `json:"entries,omitempty"`
}

// Blocks reports whether the given local start instant falls on a
// blacked-out day. The caller converts the instant to the office's
// timezone first.
func (c InactivityCalendar) Blocks(localStart time.Time) bool {
	year, month, day := localStart.Date()
	for _, e := range c.Entries {
		switch e.Kind {
		case InactivityDate:
			ey, em, ed := e.Date.Date()
			if ey == year && em == month && ed == day {
				return true
			}
		case InactivityWeekday:
			if e.Weekday == localStart.Weekday() {
				return true
			}
		}
	}
	return false
}
