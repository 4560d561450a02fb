package server

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper deletes uploaded files older than the retention period so the
// uploads directory stays bounded. Runs nightly.
type Sweeper struct {
	cron      *cron.Cron
	dir       string
	retention time.Duration
	logger    *slog.Logger
}

// NewSweeper creates a sweeper for dir. A non-positive retention disables
// sweeping entirely.
func NewSweeper(dir string, retention time.Duration, logger *slog.Logger) *Sweeper {
	s := &Sweeper{
		cron:      cron.New(),
		dir:       dir,
		retention: retention,
		logger:    logger,
	}
	if retention > 0 {
		if _, err := s.cron.AddFunc("0 3 * * *", func() { s.Sweep() }); err != nil {
			logger.Error("failed to schedule uploads sweep, sweeping disabled", "error", err)
		}
	}
	return s
}

// Start starts the nightly schedule.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop stops the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep removes expired uploads once. Errors on individual files are
// logged and skipped.
func (s *Sweeper) Sweep() {
	cutoff := time.Now().Add(-s.retention)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("uploads sweep skipped", "dir", s.dir, "error", err)
		return
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warn("failed to remove expired upload", "file", path, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("uploads swept", "removed", removed, "retention", s.retention.String())
	}
}
