package service

import (
	"context"
	"errors"
	"time"

	"officebook/internal/database"
	"officebook/internal/domain"
	"officebook/internal/events"
	"officebook/internal/metrics"
	"officebook/internal/models"

	"github.com/rs/zerolog"
)

// BookingService orchestrates booking creation: it assembles the conflict
// set for the requested date, runs a creation strategy and persists the
// decision under the per-office write lock.
type BookingService struct {
	repo           domain.Repository
	eventBus       domain.EventPublisher
	reportWorker   domain.ReportWorker
	clock          domain.Clock
	maxBookingDays int
	logger         *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, reportWorker domain.ReportWorker, clock domain.Clock, maxBookingDays int, logger *zerolog.Logger) *BookingService {
	if maxBookingDays <= 0 {
		maxBookingDays = 365
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &BookingService{
		repo:           repo,
		eventBus:       eventBus,
		reportWorker:   reportWorker,
		clock:          clock,
		maxBookingDays: maxBookingDays,
		logger:         logger,
	}
}

// ValidateBookingDate bounds how far into the past or future a booking may
// start.
func (s *BookingService) ValidateBookingDate(start time.Time) error {
	now := s.clock.Now()
	if start.Before(now.AddDate(0, 0, -1)) {
		return models.ErrInvalidScheduleTime
	}
	if start.After(now.AddDate(0, 0, s.maxBookingDays)) {
		return models.ErrInvalidScheduleTime
	}
	return nil
}

// CreateBooking runs one creation strategy end to end and returns the
// persisted booking. Business rejections come back as the typed errors in
// models; storage failures are returned as-is.
func (s *BookingService) CreateBooking(ctx context.Context, strategy BookingStrategy, req BookingRequest) (*models.Booking, error) {
	now := s.clock.Now()

	if err := s.ValidateBookingDate(req.StartAt); err != nil {
		metrics.IncBookingRejected(rejectionReason(err))
		return nil, err
	}

	office, err := s.repo.GetOffice(ctx, req.OfficeID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			metrics.IncBookingRejected(rejectionReason(models.ErrOfficeUnavailable))
			return nil, models.ErrOfficeUnavailable
		}
		return nil, err
	}

	existing, err := s.repo.GetBookingsForDate(ctx, office.ID, req.StartAt.In(office.Location()), office.Location())
	if err != nil {
		return nil, err
	}

	booking, err := strategy.book(ctx, office, existing, req, now)
	if err != nil {
		metrics.IncBookingRejected(rejectionReason(err))
		return nil, err
	}

	// The admission decision above raced against concurrent requests;
	// the repository re-runs it inside a transaction.
	if err := s.repo.CreateBookingWithLock(ctx, office, booking, now); err != nil {
		if errors.Is(err, models.ErrOfficeUnavailable) {
			metrics.IncBookingRejected(rejectionReason(err))
		}
		return nil, err
	}

	metrics.IncBookingCreated(strategy.Name())
	s.publishBookingEvent(events.EventBookingCreated, booking, strategy.Name(), "")
	if booking.Status == models.StatusScheduled {
		metrics.IncBookingConfirmed()
		s.publishBookingEvent(events.EventBookingConfirmed, booking, strategy.Name(), "")
	}
	s.enqueueReport(ctx, booking)

	return booking, nil
}

// DirectStrategy returns the pay-after-booking creation strategy.
func (s *BookingService) DirectStrategy() BookingStrategy {
	return NewDirectStrategy()
}

// MembershipStrategy returns the entitlement-backed creation strategy.
func (s *BookingService) MembershipStrategy() BookingStrategy {
	return NewMembershipStrategy(s.repo)
}

// GetBooking returns the booking with the derived cancelled view applied.
func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	booking.Status = booking.DisplayStatus(s.clock.Now())
	return booking, nil
}

func (s *BookingService) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	return s.repo.GetBookingsByDateRange(ctx, start, end)
}

func (s *BookingService) GetDailyBookings(ctx context.Context, start, end time.Time) (map[string][]*models.Booking, error) {
	return s.repo.GetDailyBookings(ctx, start, end)
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking, strategy, reason string) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		RenterID:  booking.RenterID,
		OfficeID:  booking.OfficeID,
		Strategy:  strategy,
		Status:    booking.Status,
		StartAt:   booking.StartAt,
		EndAt:     booking.EndAt,
		Amount:    float64(booking.TotalAmount),
		Reason:    reason,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueReport(ctx context.Context, booking *models.Booking) {
	if s.reportWorker == nil {
		return
	}
	if err := s.reportWorker.EnqueueBookingReport(ctx, booking); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("report enqueue error")
	}
}

// rejectionReason maps a business error onto a stable metric label.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidScheduleTime):
		return "invalid_schedule_time"
	case errors.Is(err, models.ErrOfficeUnavailable):
		return "office_unavailable"
	case errors.Is(err, models.ErrMembershipNotFound):
		return "membership_not_found"
	case errors.Is(err, models.ErrMembershipForbidden):
		return "membership_forbidden"
	case errors.Is(err, models.ErrMembershipNotActive):
		return "membership_not_active"
	default:
		return "other"
	}
}
