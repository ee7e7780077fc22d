package service

import (
	"context"
	"errors"
	"time"

	"officebook/internal/database"
	"officebook/internal/domain"
	"officebook/internal/models"
)

const (
	StrategyDirect     = "direct"
	StrategyMembership = "membership"
)

// BookingRequest carries everything a creation strategy needs to decide.
// MembershipID is only read by the membership strategy.
type BookingRequest struct {
	OfficeID     int64
	RenterID     string
	Attendees    int64
	StartAt      time.Time
	EndAt        time.Time
	MembershipID int64
}

// BookingStrategy is one of the two ways a booking can be created. The
// unexported book method keeps the variant set closed: both strategies run
// the same admission check and differ only in payment gating.
type BookingStrategy interface {
	Name() string
	book(ctx context.Context, office *models.Office, existing []*models.Booking, req BookingRequest, now time.Time) (*models.Booking, error)
}

// DirectStrategy leaves the new booking on a pending hold; payment is
// collected afterwards through the payment provider.
type DirectStrategy struct{}

func NewDirectStrategy() *DirectStrategy { return &DirectStrategy{} }

func (*DirectStrategy) Name() string { return StrategyDirect }

func (*DirectStrategy) book(_ context.Context, office *models.Office, existing []*models.Booking, req BookingRequest, now time.Time) (*models.Booking, error) {
	return office.TryBook(req.RenterID, req.Attendees, req.StartAt, req.EndAt, existing, now)
}

// MembershipStrategy books against a pre-purchased entitlement: no payment
// step, the booking is confirmed immediately with a zero-cost placeholder.
type MembershipStrategy struct {
	repo domain.Repository
}

func NewMembershipStrategy(repo domain.Repository) *MembershipStrategy {
	return &MembershipStrategy{repo: repo}
}

func (*MembershipStrategy) Name() string { return StrategyMembership }

func (s *MembershipStrategy) book(ctx context.Context, office *models.Office, existing []*models.Booking, req BookingRequest, now time.Time) (*models.Booking, error) {
	membership, err := s.repo.GetMembership(ctx, req.MembershipID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, models.ErrMembershipNotFound
		}
		return nil, err
	}

	if membership.BuyerID != req.RenterID {
		return nil, models.ErrMembershipForbidden
	}
	if err := membership.CanBook(now, req.StartAt.In(office.Location())); err != nil {
		return nil, err
	}

	booking, err := office.TryBook(req.RenterID, req.Attendees, req.StartAt, req.EndAt, existing, now)
	if err != nil {
		return nil, err
	}

	if err := booking.MarkScheduled(models.NewMembershipPayment(membership.ID, membership.Currency), now); err != nil {
		return nil, err
	}
	return booking, nil
}
