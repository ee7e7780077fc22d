package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"officebook/internal/database"
	"officebook/internal/models"
	"officebook/internal/service"
)

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleOffices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	offices, err := s.offices.GetActiveOffices(r.Context())
	if err != nil {
		s.writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"offices": offices})
}

// handleOfficeSubresource routes /api/v1/offices/{id}/availability.
func (s *HTTPServer) handleOfficeSubresource(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/offices/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "availability" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	officeID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || officeID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid office id")
		return
	}

	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	day, err := s.offices.GetAvailability(r.Context(), officeID, date)
	if err != nil {
		s.writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

type createBookingRequest struct {
	OfficeID     int64  `json:"office_id"`
	RenterID     string `json:"renter_id"`
	Attendees    int64  `json:"attendees"`
	StartAt      string `json:"start_at"`
	EndAt        string `json:"end_at"`
	MembershipID int64  `json:"membership_id,omitempty"`
}

func (r createBookingRequest) toServiceRequest() (service.BookingRequest, error) {
	start, err := time.Parse(time.RFC3339, r.StartAt)
	if err != nil {
		return service.BookingRequest{}, errors.New("invalid start_at; expected RFC3339")
	}
	end, err := time.Parse(time.RFC3339, r.EndAt)
	if err != nil {
		return service.BookingRequest{}, errors.New("invalid end_at; expected RFC3339")
	}
	if r.OfficeID <= 0 {
		return service.BookingRequest{}, errors.New("office_id is required")
	}
	if strings.TrimSpace(r.RenterID) == "" {
		return service.BookingRequest{}, errors.New("renter_id is required")
	}
	return service.BookingRequest{
		OfficeID:     r.OfficeID,
		RenterID:     r.RenterID,
		Attendees:    r.Attendees,
		StartAt:      start,
		EndAt:        end,
		MembershipID: r.MembershipID,
	}, nil
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	s.createBooking(w, r, s.bookings.DirectStrategy(), false)
}

func (s *HTTPServer) handleCreateMembershipBooking(w http.ResponseWriter, r *http.Request) {
	s.createBooking(w, r, s.bookings.MembershipStrategy(), true)
}

func (s *HTTPServer) createBooking(w http.ResponseWriter, r *http.Request, strategy service.BookingStrategy, needsMembership bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body createBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req, err := body.toServiceRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if needsMembership && req.MembershipID <= 0 {
		writeError(w, http.StatusBadRequest, "membership_id is required")
		return
	}

	booking, err := s.bookings.CreateBooking(r.Context(), strategy, req)
	if err != nil {
		s.writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/v1/bookings/"
	idStr := strings.TrimPrefix(r.URL.Path, prefix)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		s.writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type createMembershipRequest struct {
	BuyerID  string `json:"buyer_id"`
	Weekdays []int  `json:"weekdays"`
	Month    int    `json:"month"`
	Year     int    `json:"year"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
}

func (s *HTTPServer) handleCreateMembership(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body createMembershipRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	weekdays := make([]time.Weekday, 0, len(body.Weekdays))
	for _, wd := range body.Weekdays {
		weekdays = append(weekdays, time.Weekday(wd))
	}

	membership, err := s.memberships.Purchase(r.Context(), service.PurchaseRequest{
		BuyerID:  body.BuyerID,
		Weekdays: weekdays,
		Month:    time.Month(body.Month),
		Year:     body.Year,
		Price:    body.Price,
		Currency: body.Currency,
	})
	if err != nil {
		s.writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, membership)
}

func (s *HTTPServer) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var event models.PaymentEvent
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.payments.ApplyEvent(r.Context(), event); err != nil {
		s.writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// writeBusinessError maps the typed business errors onto HTTP statuses;
// anything unrecognized is a 500.
func (s *HTTPServer) writeBusinessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidScheduleTime):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidPurchase):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrOfficeUnavailable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrMembershipNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrMembershipForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrMembershipNotActive):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, models.ErrAlreadyScheduled):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
