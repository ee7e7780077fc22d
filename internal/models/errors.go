package models

import "errors"

// Business outcomes of the booking decision. These are expected results
// returned to the caller, never panics.
var (
	ErrInvalidScheduleTime = errors.New("schedule time is invalid")
	ErrOfficeUnavailable   = errors.New("office is not available")

	ErrMembershipNotFound  = errors.New("membership not found")
	ErrMembershipForbidden = errors.New("membership belongs to another renter")
	ErrMembershipNotActive = errors.New("membership is not active")

	ErrAlreadyScheduled = errors.New("booking is already scheduled")
)
