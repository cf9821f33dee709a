package audit

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Retention prunes rotated audit files older than a configured age on a
// cron schedule. The active audit.log is never touched.
type Retention struct {
	basePath string
	maxAge   time.Duration
	logger   *logrus.Logger
	cron     *cron.Cron
	now      func() time.Time
}

// NewRetention creates a retention job for the given audit directory.
func NewRetention(basePath string, maxAge time.Duration, logger *logrus.Logger) *Retention {
	return &Retention{
		basePath: basePath,
		maxAge:   maxAge,
		logger:   logger,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start schedules the prune job. The schedule uses standard cron syntax;
// "0 3 * * *" runs once a day at 03:00.
func (r *Retention) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, func() {
		if n, err := r.Prune(); err != nil {
			r.logger.WithError(err).Warn("audit retention prune failed")
		} else if n > 0 {
			r.logger.WithField("removed", n).Info("pruned rotated audit files")
		}
	}); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop stops the scheduler, waiting for a running prune to finish.
func (r *Retention) Stop() {
	<-r.cron.Stop().Done()
}

// Prune removes rotated audit files older than the retention age and
// returns how many were removed.
func (r *Retention) Prune() (int, error) {
	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return 0, err
	}

	cutoff := r.now().Add(-r.maxAge)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == "audit.log" {
			continue
		}
		if !strings.HasPrefix(name, "audit-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(r.basePath, name)); err != nil {
			r.logger.WithError(err).WithField("file", name).Warn("failed to remove rotated audit file")
			continue
		}
		removed++
	}
	return removed, nil
}
