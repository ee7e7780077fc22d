package service

import (
	"context"
	"errors"
	"fmt"

	"officebook/internal/database"
	"officebook/internal/domain"
	"officebook/internal/events"
	"officebook/internal/metrics"
	"officebook/internal/models"

	"github.com/rs/zerolog"
)

// PaymentService applies payment-provider events to bookings and
// memberships. Events arrive webhook-style and may be duplicated; the dedup
// store guarantees each external id is applied at most once.
type PaymentService struct {
	repo     domain.Repository
	dedup    domain.DedupStore
	eventBus domain.EventPublisher
	clock    domain.Clock
	logger   *zerolog.Logger
}

func NewPaymentService(repo domain.Repository, dedup domain.DedupStore, eventBus domain.EventPublisher, clock domain.Clock, logger *zerolog.Logger) *PaymentService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &PaymentService{
		repo:     repo,
		dedup:    dedup,
		eventBus: eventBus,
		clock:    clock,
		logger:   logger,
	}
}

// ApplyEvent processes one payment event. A replayed event is dropped
// silently; a storage failure releases the dedup slot so the provider's
// retry can be applied later.
func (s *PaymentService) ApplyEvent(ctx context.Context, event models.PaymentEvent) error {
	if event.ExternalID == "" {
		return fmt.Errorf("payment event has no external id")
	}

	first, err := s.dedup.FirstSeen(ctx, event.ExternalID, models.PaymentDedupTTL)
	if err != nil {
		return fmt.Errorf("failed to check payment event id: %w", err)
	}
	if !first {
		metrics.IncPaymentEvent("duplicate")
		s.logger.Info().Str("external_id", event.ExternalID).Msg("duplicate payment event ignored")
		return nil
	}

	switch {
	case event.BookingID != 0:
		err = s.applyToBooking(ctx, event)
	case event.MembershipID != 0:
		err = s.applyToMembership(ctx, event)
	default:
		return fmt.Errorf("payment event targets neither booking nor membership")
	}

	if err != nil {
		if forgetErr := s.dedup.Forget(ctx, event.ExternalID); forgetErr != nil {
			s.logger.Error().Err(forgetErr).Str("external_id", event.ExternalID).Msg("failed to release dedup slot")
		}
		return err
	}

	metrics.IncPaymentEvent(event.Status)
	return nil
}

func (s *PaymentService) applyToBooking(ctx context.Context, event models.PaymentEvent) error {
	booking, err := s.repo.GetBooking(ctx, event.BookingID)
	if err != nil {
		return err
	}

	if event.Status != models.PaymentApproved {
		// Rejections leave the hold untouched; it expires on its own.
		s.publishBookingRejection(booking, event.Status)
		return nil
	}

	now := s.clock.Now()
	if booking.Expired(now) {
		// The hold lapsed before the payment settled. The money moved but
		// the slot may be gone; flag it for manual follow-up instead of
		// overbooking the office.
		s.logger.Warn().Int64("booking_id", booking.ID).Str("external_id", event.ExternalID).Msg("approved payment for expired hold")
		s.publishBookingRejection(booking, "expired_hold")
		return nil
	}

	payment := models.PaymentRecord{
		ExternalID: event.ExternalID,
		Amount:     event.Amount,
		Fee:        event.Fee,
		Currency:   event.Currency,
		Method:     event.Method,
		Type:       event.Type,
	}

	if err := s.repo.MarkBookingScheduledWithVersion(ctx, booking.ID, booking.Version, payment, now); err != nil {
		if errors.Is(err, database.ErrConcurrentModification) {
			// Someone else confirmed first; the payment record must not be
			// overwritten.
			s.logger.Warn().Int64("booking_id", booking.ID).Msg("booking already confirmed, skipping")
			return nil
		}
		return err
	}

	metrics.IncBookingConfirmed()
	if s.eventBus != nil {
		payload := events.BookingEventPayload{
			BookingID: booking.ID,
			RenterID:  booking.RenterID,
			OfficeID:  booking.OfficeID,
			Status:    models.StatusScheduled,
			StartAt:   booking.StartAt,
			EndAt:     booking.EndAt,
			Amount:    float64(event.Amount),
		}
		if err := s.eventBus.PublishJSON(events.EventBookingConfirmed, payload); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("publish event error")
		}
	}
	return nil
}

func (s *PaymentService) applyToMembership(ctx context.Context, event models.PaymentEvent) error {
	membership, err := s.repo.GetMembership(ctx, event.MembershipID)
	if err != nil {
		return err
	}

	if event.Status != models.PaymentApproved {
		s.logger.Info().Int64("membership_id", membership.ID).Str("status", event.Status).Msg("membership payment not approved")
		return nil
	}

	payment := models.PaymentRecord{
		ExternalID: event.ExternalID,
		Amount:     event.Amount,
		Fee:        event.Fee,
		Currency:   event.Currency,
		Method:     event.Method,
		Type:       event.Type,
	}

	if err := s.repo.MarkMembershipPaidWithVersion(ctx, membership.ID, membership.Version, payment); err != nil {
		if errors.Is(err, database.ErrConcurrentModification) {
			s.logger.Warn().Int64("membership_id", membership.ID).Msg("membership already paid, skipping")
			return nil
		}
		return err
	}

	if s.eventBus != nil {
		payload := events.MembershipEventPayload{
			MembershipID: membership.ID,
			BuyerID:      membership.BuyerID,
			Month:        int(membership.Month),
			Year:         membership.Year,
			Status:       models.MembershipPaid,
		}
		if err := s.eventBus.PublishJSON(events.EventMembershipActivated, payload); err != nil {
			s.logger.Error().Err(err).Int64("membership_id", membership.ID).Msg("publish event error")
		}
	}
	return nil
}

func (s *PaymentService) publishBookingRejection(booking *models.Booking, reason string) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		RenterID:  booking.RenterID,
		OfficeID:  booking.OfficeID,
		Status:    booking.Status,
		StartAt:   booking.StartAt,
		EndAt:     booking.EndAt,
		Reason:    reason,
	}
	if err := s.eventBus.PublishJSON(events.EventBookingPaymentRejected, payload); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
