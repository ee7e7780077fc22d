package export

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"officebook/internal/database"
	"officebook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func TestRebuildReport(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	defer db.Close()

	office := &models.Office{
		Name:         "Office A",
		PricePerHour: 100,
		Capacity:     models.CapacityPolicy{Kind: models.CapacityPooled, Units: 3},
		Timezone:     "UTC",
	}
	require.NoError(t, db.CreateOffice(ctx, office))

	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	booking := &models.Booking{
		OfficeID:   office.ID,
		OfficeName: office.Name,
		RenterID:   "renter-1",
		StartAt:    time.Date(2025, 6, 3, 14, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2025, 6, 3, 16, 0, 0, 0, time.UTC),
		Status:     models.StatusScheduled,
		CreatedAt:  now,
	}
	require.NoError(t, db.CreateBookingWithLock(ctx, office, booking, now))

	dir := t.TempDir()
	builder := NewReportBuilder(db, fixedClock{now: now}, dir, 7, &logger)
	require.NoError(t, builder.RebuildReport(ctx, now))

	path := filepath.Join(dir, "occupancy_2025-06-02_to_2025-06-08.xlsx")
	_, err = os.Stat(path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Contains(t, title, "02.06.2025")

	// Row 3 is the first office; column C is June 3rd.
	header, err := f.GetCellValue(sheetName, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Office A (3)", header)

	cell, err := f.GetCellValue(sheetName, "C3")
	require.NoError(t, err)
	assert.Contains(t, cell, "1 bookings")
	assert.Contains(t, cell, "2h booked")

	free, err := f.GetCellValue(sheetName, "B3")
	require.NoError(t, err)
	assert.Equal(t, "free", free)
}

func TestRebuildReportEmptyWindow(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	defer db.Close()

	dir := t.TempDir()
	builder := NewReportBuilder(db, nil, dir, 0, &logger)
	require.NoError(t, builder.RebuildReport(ctx, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
