package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"officebook/internal/domain"
	"officebook/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Occupancy"

// ReportBuilder renders the offices-by-dates occupancy grid to an Excel
// file. One file per rebuilt window; the worker calls it after booking
// changes.
type ReportBuilder struct {
	repo      domain.Repository
	clock     domain.Clock
	path      string
	rangeDays int
	logger    *zerolog.Logger
}

func NewReportBuilder(repo domain.Repository, clock domain.Clock, path string, rangeDays int, logger *zerolog.Logger) *ReportBuilder {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if rangeDays <= 0 {
		rangeDays = models.DefaultReportRangeDays
	}
	return &ReportBuilder{
		repo:      repo,
		clock:     clock,
		path:      path,
		rangeDays: rangeDays,
		logger:    logger,
	}
}

// RebuildReport regenerates the occupancy file for the window starting at
// the changed date.
func (r *ReportBuilder) RebuildReport(ctx context.Context, around time.Time) error {
	if err := os.MkdirAll(r.path, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	year, month, day := around.UTC().Date()
	startDate := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 0, r.rangeDays-1)

	offices, err := r.repo.GetActiveOffices(ctx, r.clock.Now())
	if err != nil {
		return fmt.Errorf("failed to get offices: %w", err)
	}

	dailyBookings, err := r.repo.GetDailyBookings(ctx, startDate, endDate.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("failed to get bookings: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Occupancy: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))

	dateCols := r.writeDateHeaders(f, startDate, endDate)
	r.writeOfficeHeaders(f, offices)
	r.writeOccupancy(f, offices, dailyBookings, dateCols)

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	lastCol, _ := excelize.ColumnNumberToName(len(dateCols) + 1)
	_ = f.SetColWidth(sheetName, "B", lastCol, 16)
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("occupancy_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	filePath := filepath.Join(r.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	r.logger.Info().Str("file_path", filePath).Msg("occupancy report written")
	return nil
}

func (r *ReportBuilder) writeDateHeaders(f *excelize.File, startDate, endDate time.Time) map[string]int {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	col := 2
	dateCols := make(map[string]int)
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, d.Format("02.01"))
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
		dateCols[d.Format("2006-01-02")] = col
		col++
	}
	return dateCols
}

func (r *ReportBuilder) writeOfficeHeaders(f *excelize.File, offices []*models.Office) {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	row := 3
	for _, office := range offices {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%s (%d)", office.Name, office.Capacity.UnitCount()))
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
		row++
	}
}

func (r *ReportBuilder) writeOccupancy(f *excelize.File, offices []*models.Office, dailyBookings map[string][]*models.Booking, dateCols map[string]int) {
	now := r.clock.Now()

	for dateKey, col := range dateCols {
		byOffice := make(map[int64][]*models.Booking)
		for _, b := range dailyBookings[dateKey] {
			if b.IsActive(now) {
				byOffice[b.OfficeID] = append(byOffice[b.OfficeID], b)
			}
		}

		row := 3
		for _, office := range offices {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			active := byOffice[office.ID]

			var bookedHours int64
			hasPending := false
			for _, b := range active {
				bookedHours += b.Interval().Hours()
				if b.Status == models.StatusPending {
					hasPending = true
				}
			}

			var cellValue string
			if len(active) > 0 {
				cellValue = fmt.Sprintf("%d bookings\n%dh booked", len(active), bookedHours)
			} else {
				cellValue = "free"
			}
			_ = f.SetCellValue(sheetName, cell, cellValue)

			if styleID, err := r.cellStyle(f, len(active), hasPending); err == nil {
				_ = f.SetCellStyle(sheetName, cell, cell, styleID)
			}
			row++
		}
	}
}

func (r *ReportBuilder) cellStyle(f *excelize.File, activeCount int, hasPending bool) (int, error) {
	fill := "#FFFFFF"
	switch {
	case activeCount == 0:
	case hasPending:
		fill = "#FFEB9C"
	default:
		fill = "#C6EFCE"
	}

	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "top",
			WrapText:   true,
		},
	})
}
