// Package scheduler runs periodic database maintenance: pruning old chat
// history and checkpointing the SQLite WAL.
package scheduler

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"gymai/internal/models"
)

const (
	defaultIntervalHours = 24
	settingInterval      = "maintenance.interval_hours"
	settingRetention     = "chat.retention_days"
)

// Status holds the result of the last maintenance run.
type Status struct {
	LastRun        time.Time
	NextRun        time.Time
	MessagesPruned int64
	IntervalHours  int
	RetentionDays  int
}

// Scheduler runs maintenance tasks in the background.
type Scheduler struct {
	db   *sql.DB
	stop chan struct{}
	done chan struct{}

	mu     sync.RWMutex
	status Status
}

// New creates a Scheduler for the given database.
func New(db *sql.DB) *Scheduler {
	return &Scheduler{
		db:   db,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start begins running maintenance. It runs an initial pass immediately,
// then repeats at the configured interval. Call Stop to shut down.
func (s *Scheduler) Start() {
	go s.run()
	log.Println("Background scheduler started")
}

// Stop signals the scheduler to shut down and waits for it to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

// Status returns the result of the last maintenance run.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Scheduler) run() {
	defer close(s.done)

	s.runMaintenance()

	for {
		ticker := time.NewTicker(s.interval())

		select {
		case <-ticker.C:
			ticker.Stop()
			s.runMaintenance()
		case <-s.stop:
			ticker.Stop()
			return
		}
	}
}

// interval reads the configured run interval from app settings.
func (s *Scheduler) interval() time.Duration {
	hours := models.GetSettingInt(s.db, settingInterval, defaultIntervalHours)
	if hours < 1 {
		hours = defaultIntervalHours
	}
	return time.Duration(hours) * time.Hour
}

// runMaintenance executes all periodic cleanup tasks.
func (s *Scheduler) runMaintenance() {
	log.Println("Running scheduled maintenance...")

	pruned := s.pruneChatHistory()
	s.checkpointWAL()

	now := time.Now()
	interval := s.interval()

	s.mu.Lock()
	s.status = Status{
		LastRun:        now,
		NextRun:        now.Add(interval),
		MessagesPruned: pruned,
		IntervalHours:  models.GetSettingInt(s.db, settingInterval, defaultIntervalHours),
		RetentionDays:  models.GetSettingInt(s.db, settingRetention, 0),
	}
	s.mu.Unlock()

	log.Println("Scheduled maintenance complete")
}

// pruneChatHistory removes chat messages older than the configured
// retention period. Retention 0 (the default) keeps everything.
func (s *Scheduler) pruneChatHistory() int64 {
	days := models.GetSettingInt(s.db, settingRetention, 0)
	if days <= 0 {
		return 0
	}

	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	pruned, err := models.PruneChatMessages(s.db, cutoff)
	if err != nil {
		log.Printf("Maintenance: prune chat messages: %v", err)
		return 0
	}
	if pruned > 0 {
		log.Printf("Maintenance: pruned %d old chat message(s)", pruned)
	}
	return pruned
}

// checkpointWAL folds the write-ahead log back into the main database
// file so it doesn't grow unbounded between restarts.
func (s *Scheduler) checkpointWAL() {
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		log.Printf("Maintenance: wal checkpoint: %v", err)
	}
}
