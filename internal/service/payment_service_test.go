package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"officebook/internal/database"
	"officebook/internal/domain"
	"officebook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPaymentService(repo *mockRepo, dedup *mockDedup, bus domain.EventPublisher) *PaymentService {
	logger := zerolog.Nop()
	return NewPaymentService(repo, dedup, bus, fixedClock{now: testNow}, &logger)
}

func pendingBookingAt(id int64, createdAt time.Time) *models.Booking {
	return &models.Booking{
		ID:        id,
		OfficeID:  1,
		RenterID:  "renter-1",
		StartAt:   testNow.Add(4 * time.Hour),
		EndAt:     testNow.Add(6 * time.Hour),
		Status:    models.StatusPending,
		CreatedAt: createdAt,
		Version:   3,
	}
}

func approvedEvent(bookingID int64) models.PaymentEvent {
	return models.PaymentEvent{
		ExternalID: "tx-100",
		BookingID:  bookingID,
		Status:     models.PaymentApproved,
		Amount:     200,
		Fee:        6,
		Currency:   "EUR",
		Method:     "card",
		Type:       "payment",
	}
}

func TestApplyEventConfirmsBooking(t *testing.T) {
	ctx := context.Background()
	booking := pendingBookingAt(1, testNow.Add(-10*time.Minute))

	repo := &mockRepo{}
	repo.On("GetBooking", ctx, int64(1)).Return(booking, nil)
	repo.On("MarkBookingScheduledWithVersion", ctx, int64(1), int64(3), mock.Anything, testNow).Return(nil)

	dedup := &mockDedup{}
	dedup.On("FirstSeen", ctx, "tx-100", models.PaymentDedupTTL).Return(true, nil)

	bus := &mockEventBus{}
	bus.On("PublishJSON", "booking_confirmed", mock.Anything).Return(nil).Once()

	svc := newPaymentService(repo, dedup, bus)
	require.NoError(t, svc.ApplyEvent(ctx, approvedEvent(1)))

	repo.AssertExpectations(t)
	bus.AssertExpectations(t)

	// The persisted payment record carries the provider's numbers.
	call := repo.Calls[1]
	payment := call.Arguments.Get(3).(models.PaymentRecord)
	assert.Equal(t, "tx-100", payment.ExternalID)
	assert.Equal(t, int64(200), payment.Amount)
	assert.Equal(t, int64(6), payment.Fee)
}

func TestApplyEventDuplicateIgnored(t *testing.T) {
	ctx := context.Background()

	repo := &mockRepo{}
	dedup := &mockDedup{}
	dedup.On("FirstSeen", ctx, "tx-100", models.PaymentDedupTTL).Return(false, nil)

	svc := newPaymentService(repo, dedup, nil)
	require.NoError(t, svc.ApplyEvent(ctx, approvedEvent(1)))

	repo.AssertNotCalled(t, "GetBooking", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkBookingScheduledWithVersion", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyEventRejectedLeavesHold(t *testing.T) {
	ctx := context.Background()
	booking := pendingBookingAt(1, testNow.Add(-10*time.Minute))

	repo := &mockRepo{}
	repo.On("GetBooking", ctx, int64(1)).Return(booking, nil)

	dedup := &mockDedup{}
	dedup.On("FirstSeen", ctx, "tx-100", models.PaymentDedupTTL).Return(true, nil)

	bus := &mockEventBus{}
	bus.On("PublishJSON", "booking_payment_rejected", mock.Anything).Return(nil).Once()

	event := approvedEvent(1)
	event.Status = models.PaymentRejected

	svc := newPaymentService(repo, dedup, bus)
	require.NoError(t, svc.ApplyEvent(ctx, event))

	repo.AssertNotCalled(t, "MarkBookingScheduledWithVersion", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	bus.AssertExpectations(t)
}

func TestApplyEventExpiredHoldNotConfirmed(t *testing.T) {
	ctx := context.Background()
	booking := pendingBookingAt(1, testNow.Add(-2*time.Hour))

	repo := &mockRepo{}
	repo.On("GetBooking", ctx, int64(1)).Return(booking, nil)

	dedup := &mockDedup{}
	dedup.On("FirstSeen", ctx, "tx-100", models.PaymentDedupTTL).Return(true, nil)

	bus := &mockEventBus{}
	bus.On("PublishJSON", "booking_payment_rejected", mock.Anything).Return(nil).Once()

	svc := newPaymentService(repo, dedup, bus)
	require.NoError(t, svc.ApplyEvent(ctx, approvedEvent(1)))

	repo.AssertNotCalled(t, "MarkBookingScheduledWithVersion", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyEventConcurrentConfirmationSkipped(t *testing.T) {
	ctx := context.Background()
	booking := pendingBookingAt(1, testNow.Add(-10*time.Minute))

	repo := &mockRepo{}
	repo.On("GetBooking", ctx, int64(1)).Return(booking, nil)
	repo.On("MarkBookingScheduledWithVersion", ctx, int64(1), int64(3), mock.Anything, testNow).
		Return(database.ErrConcurrentModification)

	dedup := &mockDedup{}
	dedup.On("FirstSeen", ctx, "tx-100", models.PaymentDedupTTL).Return(true, nil)

	svc := newPaymentService(repo, dedup, nil)
	// The event is consumed: the booking is confirmed, just not by us.
	require.NoError(t, svc.ApplyEvent(ctx, approvedEvent(1)))
}

func TestApplyEventStorageFailureReleasesDedup(t *testing.T) {
	ctx := context.Background()

	repo := &mockRepo{}
	repo.On("GetBooking", ctx, int64(1)).Return(nil, errors.New("disk gone"))

	dedup := &mockDedup{}
	dedup.On("FirstSeen", ctx, "tx-100", models.PaymentDedupTTL).Return(true, nil)
	dedup.On("Forget", ctx, "tx-100").Return(nil).Once()

	svc := newPaymentService(repo, dedup, nil)
	err := svc.ApplyEvent(ctx, approvedEvent(1))
	require.Error(t, err)
	dedup.AssertExpectations(t)
}

func TestApplyEventActivatesMembership(t *testing.T) {
	ctx := context.Background()
	membership := &models.Membership{
		ID:      7,
		BuyerID: "renter-1",
		Month:   time.June,
		Year:    2025,
		Status:  models.MembershipPending,
		Version: 2,
	}

	repo := &mockRepo{}
	repo.On("GetMembership", ctx, int64(7)).Return(membership, nil)
	repo.On("MarkMembershipPaidWithVersion", ctx, int64(7), int64(2), mock.Anything).Return(nil)

	dedup := &mockDedup{}
	dedup.On("FirstSeen", ctx, "tx-200", models.PaymentDedupTTL).Return(true, nil)

	bus := &mockEventBus{}
	bus.On("PublishJSON", "membership_activated", mock.Anything).Return(nil).Once()

	svc := newPaymentService(repo, dedup, bus)
	require.NoError(t, svc.ApplyEvent(ctx, models.PaymentEvent{
		ExternalID:   "tx-200",
		MembershipID: 7,
		Status:       models.PaymentApproved,
		Amount:       5000,
		Currency:     "EUR",
	}))

	repo.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestApplyEventRejectsMalformed(t *testing.T) {
	ctx := context.Background()
	svc := newPaymentService(&mockRepo{}, &mockDedup{}, nil)

	assert.Error(t, svc.ApplyEvent(ctx, models.PaymentEvent{Status: models.PaymentApproved}))
}
