package service

import (
	"context"
	"testing"
	"time"

	"officebook/internal/domain"
	"officebook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC) // a Monday

func testOffice() *models.Office {
	return &models.Office{
		ID:           1,
		Name:         "Office A",
		PricePerHour: 100,
		Capacity:     models.CapacityPolicy{Kind: models.CapacityExclusive},
	}
}

func newBookingService(repo *mockRepo, bus domain.EventPublisher, worker domain.ReportWorker) *BookingService {
	logger := zerolog.Nop()
	return NewBookingService(repo, bus, worker, fixedClock{now: testNow}, 365, &logger)
}

func TestCreateBookingDirect(t *testing.T) {
	ctx := context.Background()
	office := testOffice()
	req := BookingRequest{
		OfficeID:  1,
		RenterID:  "renter-1",
		Attendees: 2,
		StartAt:   testNow.Add(4 * time.Hour),
		EndAt:     testNow.Add(6 * time.Hour),
	}

	repo := &mockRepo{}
	repo.On("GetOffice", ctx, int64(1)).Return(office, nil)
	repo.On("GetBookingsForDate", ctx, int64(1), mock.Anything, mock.Anything).Return([]*models.Booking{}, nil)
	repo.On("CreateBookingWithLock", ctx, office, mock.Anything, testNow).Return(nil)

	svc := newBookingService(repo, nil, nil)
	booking, err := svc.CreateBooking(ctx, NewDirectStrategy(), req)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, booking.Status)
	assert.Equal(t, int64(200), booking.TotalAmount)
	assert.Nil(t, booking.Payment)
	repo.AssertExpectations(t)
}

func TestCreateBookingPublishesAndEnqueues(t *testing.T) {
	ctx := context.Background()
	office := testOffice()
	req := BookingRequest{
		OfficeID: 1,
		RenterID: "renter-1",
		StartAt:  testNow.Add(4 * time.Hour),
		EndAt:    testNow.Add(5 * time.Hour),
	}

	repo := &mockRepo{}
	repo.On("GetOffice", ctx, int64(1)).Return(office, nil)
	repo.On("GetBookingsForDate", ctx, int64(1), mock.Anything, mock.Anything).Return([]*models.Booking{}, nil)
	repo.On("CreateBookingWithLock", ctx, office, mock.Anything, testNow).Return(nil)

	bus := &mockEventBus{}
	bus.On("PublishJSON", "booking_created", mock.Anything).Return(nil).Once()

	worker := &mockReportWorker{}
	worker.On("EnqueueBookingReport", ctx, mock.Anything).Return(nil).Once()

	svc := newBookingService(repo, bus, worker)
	_, err := svc.CreateBooking(ctx, NewDirectStrategy(), req)
	require.NoError(t, err)

	bus.AssertExpectations(t)
	worker.AssertExpectations(t)
}

func TestCreateBookingRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("StartInPast", func(t *testing.T) {
		repo := &mockRepo{}
		svc := newBookingService(repo, nil, nil)
		_, err := svc.CreateBooking(ctx, NewDirectStrategy(), BookingRequest{
			OfficeID: 1,
			RenterID: "renter-1",
			StartAt:  testNow.AddDate(0, 0, -2),
			EndAt:    testNow.AddDate(0, 0, -2).Add(time.Hour),
		})
		assert.ErrorIs(t, err, models.ErrInvalidScheduleTime)
	})

	t.Run("StartTooFar", func(t *testing.T) {
		repo := &mockRepo{}
		svc := newBookingService(repo, nil, nil)
		_, err := svc.CreateBooking(ctx, NewDirectStrategy(), BookingRequest{
			OfficeID: 1,
			RenterID: "renter-1",
			StartAt:  testNow.AddDate(0, 0, 400),
			EndAt:    testNow.AddDate(0, 0, 400).Add(time.Hour),
		})
		assert.ErrorIs(t, err, models.ErrInvalidScheduleTime)
	})

	t.Run("UnknownOffice", func(t *testing.T) {
		repo := &mockRepo{}
		repo.On("GetOffice", ctx, int64(9)).Return(nil, errNotFound())
		svc := newBookingService(repo, nil, nil)
		_, err := svc.CreateBooking(ctx, NewDirectStrategy(), BookingRequest{
			OfficeID: 9,
			RenterID: "renter-1",
			StartAt:  testNow.Add(time.Hour),
			EndAt:    testNow.Add(2 * time.Hour),
		})
		assert.ErrorIs(t, err, models.ErrOfficeUnavailable)
	})

	t.Run("CapacityConflict", func(t *testing.T) {
		office := testOffice()
		occupant := &models.Booking{
			OfficeID:  1,
			Status:    models.StatusScheduled,
			StartAt:   testNow.Add(4 * time.Hour),
			EndAt:     testNow.Add(6 * time.Hour),
			CreatedAt: testNow,
		}
		repo := &mockRepo{}
		repo.On("GetOffice", ctx, int64(1)).Return(office, nil)
		repo.On("GetBookingsForDate", ctx, int64(1), mock.Anything, mock.Anything).Return([]*models.Booking{occupant}, nil)

		svc := newBookingService(repo, nil, nil)
		_, err := svc.CreateBooking(ctx, NewDirectStrategy(), BookingRequest{
			OfficeID: 1,
			RenterID: "renter-2",
			StartAt:  testNow.Add(5 * time.Hour),
			EndAt:    testNow.Add(7 * time.Hour),
		})
		assert.ErrorIs(t, err, models.ErrOfficeUnavailable)
		repo.AssertNotCalled(t, "CreateBookingWithLock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("WriteTimeConflict", func(t *testing.T) {
		office := testOffice()
		repo := &mockRepo{}
		repo.On("GetOffice", ctx, int64(1)).Return(office, nil)
		repo.On("GetBookingsForDate", ctx, int64(1), mock.Anything, mock.Anything).Return([]*models.Booking{}, nil)
		repo.On("CreateBookingWithLock", ctx, office, mock.Anything, testNow).Return(models.ErrOfficeUnavailable)

		svc := newBookingService(repo, nil, nil)
		_, err := svc.CreateBooking(ctx, NewDirectStrategy(), BookingRequest{
			OfficeID: 1,
			RenterID: "renter-2",
			StartAt:  testNow.Add(5 * time.Hour),
			EndAt:    testNow.Add(6 * time.Hour),
		})
		assert.ErrorIs(t, err, models.ErrOfficeUnavailable)
	})
}

func TestCreateBookingMembership(t *testing.T) {
	ctx := context.Background()

	paidMembership := func() *models.Membership {
		return &models.Membership{
			ID:       7,
			BuyerID:  "renter-1",
			Weekdays: []time.Weekday{time.Monday, time.Wednesday},
			Month:    time.June,
			Year:     2025,
			Currency: "EUR",
			Status:   models.MembershipPaid,
		}
	}

	req := BookingRequest{
		OfficeID:     1,
		RenterID:     "renter-1",
		StartAt:      testNow.Add(4 * time.Hour), // still Monday
		EndAt:        testNow.Add(6 * time.Hour),
		MembershipID: 7,
	}

	t.Run("ConfirmedImmediately", func(t *testing.T) {
		office := testOffice()
		repo := &mockRepo{}
		repo.On("GetOffice", ctx, int64(1)).Return(office, nil)
		repo.On("GetBookingsForDate", ctx, int64(1), mock.Anything, mock.Anything).Return([]*models.Booking{}, nil)
		repo.On("GetMembership", ctx, int64(7)).Return(paidMembership(), nil)
		repo.On("CreateBookingWithLock", ctx, office, mock.Anything, testNow).Return(nil)

		bus := &mockEventBus{}
		bus.On("PublishJSON", "booking_created", mock.Anything).Return(nil).Once()
		bus.On("PublishJSON", "booking_confirmed", mock.Anything).Return(nil).Once()

		svc := newBookingService(repo, bus, nil)
		booking, err := svc.CreateBooking(ctx, NewMembershipStrategy(repo), req)
		require.NoError(t, err)

		assert.Equal(t, models.StatusScheduled, booking.Status)
		require.NotNil(t, booking.Payment)
		assert.Equal(t, int64(0), booking.Payment.Amount)
		assert.Equal(t, "membership:7", booking.Payment.ExternalID)
		assert.Equal(t, "EUR", booking.Payment.Currency)
		bus.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		office := testOffice()
		repo := &mockRepo{}
		repo.On("GetOffice", ctx, int64(1)).Return(office, nil)
		repo.On("GetBookingsForDate", ctx, int64(1), mock.Anything, mock.Anything).Return([]*models.Booking{}, nil)
		repo.On("GetMembership", ctx, int64(7)).Return(nil, errNotFound())

		svc := newBookingService(repo, nil, nil)
		_, err := svc.CreateBooking(ctx, NewMembershipStrategy(repo), req)
		assert.ErrorIs(t, err, models.ErrMembershipNotFound)
	})

	t.Run("WrongBuyer", func(t *testing.T) {
		office := testOffice()
		m := paidMembership()
		m.BuyerID = "someone-else"
		repo := &mockRepo{}
		repo.On("GetOffice", ctx, int64(1)).Return(office, nil)
		repo.On("GetBookingsForDate", ctx, int64(1), mock.Anything, mock.Anything).Return([]*models.Booking{}, nil)
		repo.On("GetMembership", ctx, int64(7)).Return(m, nil)

		svc := newBookingService(repo, nil, nil)
		_, err := svc.CreateBooking(ctx, NewMembershipStrategy(repo), req)
		assert.ErrorIs(t, err, models.ErrMembershipForbidden)
	})

	t.Run("NotPaid", func(t *testing.T) {
		office := testOffice()
		m := paidMembership()
		m.Status = models.MembershipPending
		repo := &mockRepo{}
		repo.On("GetOffice", ctx, int64(1)).Return(office, nil)
		repo.On("GetBookingsForDate", ctx, int64(1), mock.Anything, mock.Anything).Return([]*models.Booking{}, nil)
		repo.On("GetMembership", ctx, int64(7)).Return(m, nil)

		svc := newBookingService(repo, nil, nil)
		_, err := svc.CreateBooking(ctx, NewMembershipStrategy(repo), req)
		assert.ErrorIs(t, err, models.ErrMembershipNotActive)
	})

	t.Run("WrongWeekday", func(t *testing.T) {
		office := testOffice()
		m := paidMembership()
		m.Weekdays = []time.Weekday{time.Friday}
		repo := &mockRepo{}
		repo.On("GetOffice", ctx, int64(1)).Return(office, nil)
		repo.On("GetBookingsForDate", ctx, int64(1), mock.Anything, mock.Anything).Return([]*models.Booking{}, nil)
		repo.On("GetMembership", ctx, int64(7)).Return(m, nil)

		svc := newBookingService(repo, nil, nil)
		_, err := svc.CreateBooking(ctx, NewMembershipStrategy(repo), req)
		assert.ErrorIs(t, err, models.ErrMembershipNotActive)
	})

	t.Run("WrongMonth", func(t *testing.T) {
		office := testOffice()
		m := paidMembership()
		m.Month = time.July
		repo := &mockRepo{}
		repo.On("GetOffice", ctx, int64(1)).Return(office, nil)
		repo.On("GetBookingsForDate", ctx, int64(1), mock.Anything, mock.Anything).Return([]*models.Booking{}, nil)
		repo.On("GetMembership", ctx, int64(7)).Return(m, nil)

		svc := newBookingService(repo, nil, nil)
		_, err := svc.CreateBooking(ctx, NewMembershipStrategy(repo), req)
		assert.ErrorIs(t, err, models.ErrMembershipNotActive)
	})
}

func TestGetBookingAppliesDerivedStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("FreshPending", func(t *testing.T) {
		repo := &mockRepo{}
		repo.On("GetBooking", ctx, int64(1)).Return(&models.Booking{
			ID: 1, Status: models.StatusPending, CreatedAt: testNow.Add(-30 * time.Minute),
		}, nil)

		svc := newBookingService(repo, nil, nil)
		booking, err := svc.GetBooking(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, booking.Status)
	})

	t.Run("ExpiredHoldShowsCancelled", func(t *testing.T) {
		repo := &mockRepo{}
		repo.On("GetBooking", ctx, int64(2)).Return(&models.Booking{
			ID: 2, Status: models.StatusPending, CreatedAt: testNow.Add(-61 * time.Minute),
		}, nil)

		svc := newBookingService(repo, nil, nil)
		booking, err := svc.GetBooking(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, booking.Status)
	})
}
