package models

import "time"

const (
	StatusPending   = "pending"
	StatusScheduled = "scheduled"
	// StatusCancelled is a derived view only: a pending booking whose hold
	// expired. It is never written to storage.
	StatusCancelled = "cancelled"
)

const (
	MembershipPending = "pending"
	MembershipPaid    = "paid"
)

const (
	PaymentApproved   = "approved"
	PaymentRejected   = "rejected"
	PaymentCancelled  = "cancelled"
	PaymentRefunded   = "refunded"
	PaymentChargeback = "charged_back"
)

const (
	// PendingHold is how long an unconfirmed booking keeps its capacity.
	PendingHold = time.Hour

	// PaymentDedupTTL is how long processed payment event ids are remembered.
	PaymentDedupTTL = 72 * time.Hour

	// WorkerQueueSize is the in-memory report queue size.
	WorkerQueueSize = 256

	// DefaultReportRangeDays is the window covered by the occupancy report.
	DefaultReportRangeDays = 31
)
