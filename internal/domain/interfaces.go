package domain

import (
	"context"
	"time"

	"officebook/internal/models"
)

// Clock supplies the current time. The hold expiry and calendar-date logic
// never call time.Now directly so tests can control it.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Repository is the persistence collaborator of the booking engine.
type Repository interface {
	GetOffice(ctx context.Context, id int64) (*models.Office, error)
	GetActiveOffices(ctx context.Context, now time.Time) ([]*models.Office, error)
	CreateOffice(ctx context.Context, office *models.Office) error
	SoftDeleteOffice(ctx context.Context, id int64, at time.Time) error
	AddInactivityEntry(ctx context.Context, officeID int64, entry *models.InactivityEntry) error
	RemoveInactivityEntry(ctx context.Context, officeID, entryID int64) error

	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingsForDate(ctx context.Context, officeID int64, date time.Time, loc *time.Location) ([]*models.Booking, error)
	CreateBookingWithLock(ctx context.Context, office *models.Office, booking *models.Booking, now time.Time) error
	MarkBookingScheduledWithVersion(ctx context.Context, id, version int64, payment models.PaymentRecord, confirmedAt time.Time) error
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	GetDailyBookings(ctx context.Context, start, end time.Time) (map[string][]*models.Booking, error)

	GetMembership(ctx context.Context, id int64) (*models.Membership, error)
	CreateMembership(ctx context.Context, m *models.Membership) error
	MarkMembershipPaidWithVersion(ctx context.Context, id, version int64, payment models.PaymentRecord) error
}

// DedupStore remembers processed payment event ids so a replayed webhook is
// applied at most once.
type DedupStore interface {
	// FirstSeen records the id and reports true if it was not seen before.
	FirstSeen(ctx context.Context, externalID string, ttl time.Duration) (bool, error)
	Forget(ctx context.Context, externalID string) error
}

// EventPublisher delivers domain events to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ReportWorker schedules occupancy report rebuilds after booking changes.
type ReportWorker interface {
	EnqueueBookingReport(ctx context.Context, booking *models.Booking) error
}
