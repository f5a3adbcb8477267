// Package retention prunes superseded cache rows in the background. The
// snapshot tables are insert-only by design; nothing in the request path
// ever deletes from them, so growth is bounded here instead.
package retention

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"flipcast/server/internal/database"
)

const sweepInterval = time.Hour

// Sweeper periodically deletes cache rows that are both older than the
// retention period and superseded by a newer row for the same key.
type Sweeper struct {
	db        *gorm.DB
	logger    *logrus.Logger
	retention time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

func NewSweeper(db *gorm.DB, retentionDays int, logger *logrus.Logger) *Sweeper {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Sweeper{
		db:        db,
		logger:    logger,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		stopChan:  make(chan struct{}),
	}
}

// Start launches the sweep loop. An initial sweep runs immediately so a
// long-stopped server catches up without waiting a full interval.
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.run()
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	s.Sweep()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one retention pass in a single transaction.
func (s *Sweeper) Sweep() {
	cutoff := time.Now().UTC().Add(-s.retention)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		purged, err := database.PurgeStaleSnapshots(tx, cutoff)
		if err != nil {
			return err
		}
		if purged > 0 {
			s.logger.WithFields(logrus.Fields{
				"purged": purged,
				"cutoff": cutoff,
			}).Info("Purged superseded cache rows")
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).Error("Retention sweep failed")
	}
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}
