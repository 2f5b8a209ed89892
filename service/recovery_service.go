package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/careline/chatbot-be/config"
	"github.com/careline/chatbot-be/types"
	"github.com/robfig/cron/v3"
)

// RecoveryMonitor periodically verifies index integrity and repairs what
// it finds: orphaned passages are deleted, missing passages trigger a full
// rebuild. A failing check never stops the loop; the monitor degrades and
// keeps trying on the next tick.
//
// Health is tri-state: healthy when the last check found a consistent
// index, degraded while damage is being repaired, failed once rebuild
// retries are exhausted. Failed is sticky until a later check or rebuild
// succeeds.
type RecoveryMonitor struct {
	index      *IndexService
	cron       *cron.Cron
	interval   time.Duration
	maxRetries int

	mu     sync.Mutex
	status types.MonitorStatus
}

func NewRecoveryMonitor(index *IndexService, cfg config.MonitorConfig) *RecoveryMonitor {
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	maxRetries := cfg.RebuildMaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &RecoveryMonitor{
		index:      index,
		interval:   interval,
		maxRetries: maxRetries,
		status: types.MonitorStatus{
			State: types.IndexHealthy,
		},
	}
}

// Start schedules the periodic check. Safe to call once.
func (m *RecoveryMonitor) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", m.interval), m.RunCheck); err != nil {
		return err
	}
	c.Start()
	m.cron = c
	return nil
}

func (m *RecoveryMonitor) Stop() {
	if m.cron != nil {
		m.cron.Stop()
	}
}

// Status returns a snapshot of the monitor's health.
func (m *RecoveryMonitor) Status() types.MonitorStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// RunCheck performs one integrity sweep. It is the cron entry point but is
// also callable directly (admin trigger, tests). Panics inside a sweep are
// contained so a bad iteration cannot kill the schedule.
func (m *RecoveryMonitor) RunCheck() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("recovery check panicked: %v", r)
			m.setError(fmt.Sprintf("check panicked: %v", r), types.IndexDegraded)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	m.touchCheck()

	report, err := m.index.IntegrityCheck(ctx)
	if err != nil {
		log.Printf("integrity check failed: %v", err)
		m.setError(err.Error(), types.IndexDegraded)
		return
	}

	if len(report.OrphanedPassageIDs) > 0 {
		if err := m.index.CleanupOrphans(ctx, report.OrphanedPassageIDs); err != nil {
			log.Printf("orphan cleanup failed: %v", err)
			m.setError(err.Error(), types.IndexDegraded)
			return
		}
		log.Printf("deleted %d orphaned passages", len(report.OrphanedPassageIDs))
		m.addOrphansDeleted(len(report.OrphanedPassageIDs))
	}

	if !report.Corrupt {
		m.setHealthy()
		return
	}

	integrity := &types.IntegrityError{
		Orphaned: len(report.OrphanedPassageIDs),
		Missing:  len(report.MissingPassageIDs),
	}
	log.Printf("starting rebuild: %v", integrity)
	m.setError(integrity.Error(), types.IndexDegraded)
	if err := m.Rebuild(ctx); err != nil {
		log.Printf("rebuild failed: %v", err)
		return
	}
	m.setHealthy()
}

// Rebuild runs a full index rebuild with retries, updating monitor state
// as it goes. Also serves the manual admin trigger.
func (m *RecoveryMonitor) Rebuild(ctx context.Context) error {
	m.setState(types.IndexDegraded)

	var err error
	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		m.bumpRebuildAttempts()
		if err = m.index.Rebuild(ctx); err == nil {
			m.markRebuilt()
			return nil
		}
		log.Printf("rebuild attempt %d/%d failed: %v", attempt, m.maxRetries, err)
		if ctx.Err() != nil {
			break
		}
	}
	m.setError(err.Error(), types.IndexFailed)
	return err
}

func (m *RecoveryMonitor) touchCheck() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.LastCheckAt = time.Now().UnixMilli()
}

func (m *RecoveryMonitor) setHealthy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.State = types.IndexHealthy
	m.status.LastError = ""
}

func (m *RecoveryMonitor) setState(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.State = state
}

func (m *RecoveryMonitor) setError(msg, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.State = state
	m.status.LastError = msg
}

func (m *RecoveryMonitor) addOrphansDeleted(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.OrphansDeleted += int64(n)
}

func (m *RecoveryMonitor) bumpRebuildAttempts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.RebuildAttempts++
}

func (m *RecoveryMonitor) markRebuilt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.LastRebuildAt = time.Now().UnixMilli()
	m.status.State = types.IndexHealthy
	m.status.LastError = ""
}
