package models

import "fmt"

// PaymentRecord is the payment-provider result attached to a booking at
// confirmation. Created exactly once.
type PaymentRecord struct {
	ExternalID string `json:"external_id"`
	Amount     int64  `json:"amount"`
	Fee        int64  `json:"fee"`
	Currency   string `json:"currency"`
	Method     string `json:"method"`
	Type       string `json:"type"`
}

// NewMembershipPayment is the zero-cost placeholder attached to bookings
// confirmed through a membership entitlement.
func NewMembershipPayment(membershipID int64, currency string) PaymentRecord {
	return PaymentRecord{
		ExternalID: fmt.Sprintf("membership:%d", membershipID),
		Amount:     0,
		Fee:        0,
		Currency:   currency,
		Method:     "membership",
		Type:       "membership",
	}
}

// PaymentEvent is a webhook-style notification from the payment provider.
type PaymentEvent struct {
	ExternalID   string `json:"external_id"`
	BookingID    int64  `json:"booking_id,omitempty"`
	MembershipID int64  `json:"membership_id,omitempty"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Fee          int64  `json:"fee"`
	Currency     string `json:"currency"`
	Method       string `json:"method"`
	Type         string `json:"type"`
}
