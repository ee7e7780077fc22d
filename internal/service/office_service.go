package service

import (
	"context"
	"time"

	"officebook/internal/domain"
	"officebook/internal/models"

	"github.com/rs/zerolog"
)

// OfficeService exposes office reads and the administrative operations
// that maintain inactivity calendars and soft deletion.
type OfficeService struct {
	repo   domain.Repository
	clock  domain.Clock
	logger *zerolog.Logger
}

func NewOfficeService(repo domain.Repository, clock domain.Clock, logger *zerolog.Logger) *OfficeService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &OfficeService{repo: repo, clock: clock, logger: logger}
}

func (s *OfficeService) GetOffice(ctx context.Context, id int64) (*models.Office, error) {
	return s.repo.GetOffice(ctx, id)
}

func (s *OfficeService) GetActiveOffices(ctx context.Context) ([]*models.Office, error) {
	return s.repo.GetActiveOffices(ctx, s.clock.Now())
}

func (s *OfficeService) CreateOffice(ctx context.Context, office *models.Office) error {
	return s.repo.CreateOffice(ctx, office)
}

// SoftDeleteOffice marks the office deleted as of the given date. A future
// date works as a grace period: the office stays bookable until it passes.
func (s *OfficeService) SoftDeleteOffice(ctx context.Context, id int64, at time.Time) error {
	return s.repo.SoftDeleteOffice(ctx, id, at)
}

func (s *OfficeService) AddInactivityEntry(ctx context.Context, officeID int64, entry *models.InactivityEntry) error {
	return s.repo.AddInactivityEntry(ctx, officeID, entry)
}

func (s *OfficeService) RemoveInactivityEntry(ctx context.Context, officeID, entryID int64) error {
	return s.repo.RemoveInactivityEntry(ctx, officeID, entryID)
}

// HourSlot is one bookable hour of a day with its remaining capacity.
type HourSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	FreeUnits int       `json:"free_units"`
}

// DayAvailability is the hour-by-hour picture of one office on one date.
type DayAvailability struct {
	OfficeID int64      `json:"office_id"`
	Date     string     `json:"date"`
	Blocked  bool       `json:"blocked"`
	Slots    []HourSlot `json:"slots"`
}

// GetAvailability computes the free capacity of each hour of the given
// date in the office's timezone. A blacked-out or deleted office reports
// every hour as full.
func (s *OfficeService) GetAvailability(ctx context.Context, officeID int64, date time.Time) (*DayAvailability, error) {
	office, err := s.repo.GetOffice(ctx, officeID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	loc := office.Location()
	year, month, day := date.In(loc).Date()
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, loc)

	out := &DayAvailability{
		OfficeID: office.ID,
		Date:     dayStart.Format("2006-01-02"),
		Slots:    make([]HourSlot, 0, 24),
	}

	if office.Deleted(now) || office.Inactivity.Blocks(dayStart) {
		out.Blocked = true
	}

	bookings, err := s.repo.GetBookingsForDate(ctx, office.ID, dayStart, loc)
	if err != nil {
		return nil, err
	}

	active := make([]models.TimeInterval, 0, len(bookings))
	for _, b := range bookings {
		if b.IsActive(now) {
			active = append(active, b.Interval())
		}
	}

	units := int(office.Capacity.UnitCount())
	for hour := 0; hour < 24; hour++ {
		slotStart := dayStart.Add(time.Duration(hour) * time.Hour)
		slot := HourSlot{Start: slotStart.UTC(), End: slotStart.Add(time.Hour).UTC()}
		if !out.Blocked {
			slot.FreeUnits = units - occupants(slot, active)
			if slot.FreeUnits < 0 {
				slot.FreeUnits = 0
			}
		}
		out.Slots = append(out.Slots, slot)
	}

	return out, nil
}

func occupants(slot HourSlot, active []models.TimeInterval) int {
	window := models.TimeInterval{Start: slot.Start, End: slot.End}
	n := 0
	for _, iv := range active {
		if window.Overlaps(iv) {
			n++
		}
	}
	return n
}
