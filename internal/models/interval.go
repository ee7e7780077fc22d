package models

import "time"

// TimeInterval is a half-open [Start, End) range. Both boundaries are stored
// in UTC; the owning office's timezone is used for presentation and for
// calendar-date decisions only.
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

// NewTimeInterval validates and normalizes an interval. The end must be
// strictly after the start and both boundaries must fall on a whole hour.
func NewTimeInterval(start, end time.Time) (TimeInterval, error) {
	start = start.UTC()
	end = end.UTC()

	if !end.After(start) {
		return TimeInterval{}, ErrInvalidScheduleTime
	}
	if !hourAligned(start) || !hourAligned(end) {
		return TimeInterval{}, ErrInvalidScheduleTime
	}

	return TimeInterval{Start: start, End: end}, nil
}

func hourAligned(t time.Time) bool {
	return t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// Overlaps reports whether two intervals conflict under the strict
// definition: an interval ending exactly when another begins does not
// overlap it.
func (i TimeInterval) Overlaps(other TimeInterval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Hours returns the interval length in whole hours.
func (i TimeInterval) Hours() int64 {
	return int64(i.End.Sub(i.Start) / time.Hour)
}
