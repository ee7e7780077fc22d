package service

import (
	"context"
	"time"

	"officebook/internal/database"
	"officebook/internal/models"

	"github.com/stretchr/testify/mock"
)

func errNotFound() error { return database.ErrNotFound }

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetOffice(ctx context.Context, id int64) (*models.Office, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Office), args.Error(1)
}
func (m *mockRepo) GetActiveOffices(ctx context.Context, now time.Time) ([]*models.Office, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Office), args.Error(1)
}
func (m *mockRepo) CreateOffice(ctx context.Context, o *models.Office) error {
	return m.Called(ctx, o).Error(0)
}
func (m *mockRepo) SoftDeleteOffice(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}
func (m *mockRepo) AddInactivityEntry(ctx context.Context, officeID int64, e *models.InactivityEntry) error {
	return m.Called(ctx, officeID, e).Error(0)
}
func (m *mockRepo) RemoveInactivityEntry(ctx context.Context, officeID, entryID int64) error {
	return m.Called(ctx, officeID, entryID).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) GetBookingsForDate(ctx context.Context, officeID int64, date time.Time, loc *time.Location) ([]*models.Booking, error) {
	args := m.Called(ctx, officeID, date, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) CreateBookingWithLock(ctx context.Context, o *models.Office, b *models.Booking, now time.Time) error {
	return m.Called(ctx, o, b, now).Error(0)
}
func (m *mockRepo) MarkBookingScheduledWithVersion(ctx context.Context, id, version int64, payment models.PaymentRecord, confirmedAt time.Time) error {
	return m.Called(ctx, id, version, payment, confirmedAt).Error(0)
}
func (m *mockRepo) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetDailyBookings(ctx context.Context, start, end time.Time) (map[string][]*models.Booking, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetMembership(ctx context.Context, id int64) (*models.Membership, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Membership), args.Error(1)
}
func (m *mockRepo) CreateMembership(ctx context.Context, ms *models.Membership) error {
	return m.Called(ctx, ms).Error(0)
}
func (m *mockRepo) MarkMembershipPaidWithVersion(ctx context.Context, id, version int64, payment models.PaymentRecord) error {
	return m.Called(ctx, id, version, payment).Error(0)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockDedup struct {
	mock.Mock
}

func (m *mockDedup) FirstSeen(ctx context.Context, externalID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, externalID, ttl)
	return args.Bool(0), args.Error(1)
}
func (m *mockDedup) Forget(ctx context.Context, externalID string) error {
	return m.Called(ctx, externalID).Error(0)
}

type mockReportWorker struct {
	mock.Mock
}

func (m *mockReportWorker) EnqueueBookingReport(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

// fixedClock pins time for deterministic hold-expiry and month checks.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }
