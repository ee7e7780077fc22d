package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"officebook/internal/domain"
	"officebook/internal/events"
	"officebook/internal/models"

	"github.com/rs/zerolog"
)

// ErrInvalidPurchase marks a malformed membership purchase request.
var ErrInvalidPurchase = errors.New("invalid membership purchase")

// MembershipService handles entitlement purchases. A fresh membership is
// pending until its own payment event arrives; activation happens in
// PaymentService.
type MembershipService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	clock    domain.Clock
	logger   *zerolog.Logger
}

func NewMembershipService(repo domain.Repository, eventBus domain.EventPublisher, clock domain.Clock, logger *zerolog.Logger) *MembershipService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &MembershipService{
		repo:     repo,
		eventBus: eventBus,
		clock:    clock,
		logger:   logger,
	}
}

// PurchaseRequest describes a new entitlement: a calendar month and the
// weekdays it unlocks.
type PurchaseRequest struct {
	BuyerID  string
	Weekdays []time.Weekday
	Month    time.Month
	Year     int
	Price    int64
	Currency string
}

func (r *PurchaseRequest) validate(now time.Time) error {
	if r.BuyerID == "" {
		return fmt.Errorf("buyer id is required")
	}
	if len(r.Weekdays) == 0 {
		return fmt.Errorf("at least one weekday is required")
	}
	seen := make(map[time.Weekday]bool, len(r.Weekdays))
	for _, wd := range r.Weekdays {
		if wd < time.Sunday || wd > time.Saturday {
			return fmt.Errorf("invalid weekday: %d", wd)
		}
		if seen[wd] {
			return fmt.Errorf("duplicate weekday: %s", wd)
		}
		seen[wd] = true
	}
	if r.Month < time.January || r.Month > time.December {
		return fmt.Errorf("invalid month: %d", r.Month)
	}
	monthEnd := time.Date(r.Year, r.Month+1, 1, 0, 0, 0, 0, time.UTC)
	if !monthEnd.After(now) {
		return fmt.Errorf("membership month is already over")
	}
	return nil
}

// Purchase creates a pending membership and announces it.
func (s *MembershipService) Purchase(ctx context.Context, req PurchaseRequest) (*models.Membership, error) {
	now := s.clock.Now()
	if err := req.validate(now); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPurchase, err)
	}

	membership := &models.Membership{
		BuyerID:   req.BuyerID,
		Weekdays:  req.Weekdays,
		Month:     req.Month,
		Year:      req.Year,
		Price:     req.Price,
		Currency:  req.Currency,
		Status:    models.MembershipPending,
		CreatedAt: now,
	}

	if err := s.repo.CreateMembership(ctx, membership); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		payload := events.MembershipEventPayload{
			MembershipID: membership.ID,
			BuyerID:      membership.BuyerID,
			Month:        int(membership.Month),
			Year:         membership.Year,
			Status:       membership.Status,
		}
		if err := s.eventBus.PublishJSON(events.EventMembershipPurchased, payload); err != nil {
			s.logger.Error().Err(err).Int64("membership_id", membership.ID).Msg("publish event error")
		}
	}

	return membership, nil
}

func (s *MembershipService) GetMembership(ctx context.Context, id int64) (*models.Membership, error) {
	return s.repo.GetMembership(ctx, id)
}
