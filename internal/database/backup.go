package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"officebook/internal/config"
	"officebook/internal/domain"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// BackupService snapshots the booking ledger on a schedule, so a lost or
// corrupted database file costs at most one interval of bookings.
type BackupService struct {
	dbPath string
	cfg    config.BackupConfig
	clock  domain.Clock
	logger *zerolog.Logger
}

func NewBackupService(dbPath string, cfg config.BackupConfig, clock domain.Clock, logger *zerolog.Logger) *BackupService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &BackupService{dbPath: dbPath, cfg: cfg, clock: clock, logger: logger}
}

// Start runs the snapshot loop until ctx is cancelled. One snapshot is
// taken right away so a fresh deployment is covered before the first tick.
func (s *BackupService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("booking ledger backups disabled")
		return
	}

	interval := s.interval()
	s.logger.Info().Dur("interval", interval).Str("storage", s.cfg.StoragePath).Msg("backup loop started")

	if err := s.Snapshot(); err != nil {
		s.logger.Error().Err(err).Msg("startup snapshot failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Snapshot(); err != nil {
				s.logger.Error().Err(err).Msg("scheduled snapshot failed")
			}
			s.Prune()
		}
	}
}

func (s *BackupService) interval() time.Duration {
	if s.cfg.Schedule == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(s.cfg.Schedule)
	if err != nil {
		s.logger.Warn().Err(err).Str("schedule", s.cfg.Schedule).Msg("bad backup schedule, using 24h")
		return 24 * time.Hour
	}
	return d
}

// Snapshot writes a point-in-time copy of the database. VACUUM INTO gives
// a consistent online copy; when it fails a plain file copy is attempted
// instead.
func (s *BackupService) Snapshot() error {
	if err := os.MkdirAll(s.cfg.StoragePath, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("backup_%s.db", s.clock.Now().Format("20060102_150405"))
	target := filepath.Join(s.cfg.StoragePath, name)

	src, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer src.Close()

	if _, err := src.Exec(fmt.Sprintf("VACUUM INTO '%s'", target)); err != nil {
		s.logger.Warn().Err(err).Msg("VACUUM INTO failed, copying the file instead")
		return s.copyFile(target)
	}

	s.logger.Info().Str("path", target).Msg("ledger snapshot written")
	return nil
}

func (s *BackupService) copyFile(target string) error {
	source, err := os.Open(s.dbPath)
	if err != nil {
		return err
	}
	defer source.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	defer dst.Close()

	// Not transactionally safe: a write landing mid-copy can corrupt this
	// snapshot. Acceptable as a fallback only.
	_, err = io.Copy(dst, source)
	return err
}

// Prune removes snapshots older than the retention window.
func (s *BackupService) Prune() {
	if s.cfg.RetentionDays <= 0 {
		return
	}

	entries, err := os.ReadDir(s.cfg.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read backup directory")
		return
	}

	cutoff := s.clock.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("file", entry.Name()).Msg("pruning old snapshot")
			_ = os.Remove(filepath.Join(s.cfg.StoragePath, entry.Name()))
		}
	}
}
