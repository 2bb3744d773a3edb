// Package maintenance runs the periodic cleanup jobs
package maintenance

import (
	"context"
	"fmt"
	"log"
	"time"

	"docvault/internal/config"
	"docvault/internal/repository"

	"github.com/robfig/cron/v3"
)

// Manager schedules expired-session purges and login-history retention on a
// shared cron schedule.
type Manager struct {
	config      config.MaintenanceConfig
	sessionRepo repository.SessionRepository
	historyRepo repository.LoginHistoryRepository
	cron        *cron.Cron
}

// NewManager creates a new maintenance manager
func NewManager(cfg config.MaintenanceConfig, sessionRepo repository.SessionRepository, historyRepo repository.LoginHistoryRepository) *Manager {
	// Cron scheduler with seconds disabled
	c := cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
	)))

	return &Manager{
		config:      cfg,
		sessionRepo: sessionRepo,
		historyRepo: historyRepo,
		cron:        c,
	}
}

// RunOnce executes both cleanup jobs immediately
func (m *Manager) RunOnce(ctx context.Context) error {
	sessions, err := m.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -m.config.HistoryRetentionDays)
	history, err := m.historyRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old login history: %w", err)
	}

	log.Printf("Maintenance run removed %d expired sessions and %d old login history entries", sessions, history)
	return nil
}

// Start schedules the cleanup jobs and blocks until the context is cancelled
func (m *Manager) Start(ctx context.Context) error {
	if !m.config.Enabled {
		log.Println("Maintenance is disabled, skipping scheduler")
		return nil
	}

	if m.config.Schedule == "" {
		return fmt.Errorf("maintenance has no schedule configured")
	}

	_, err := m.cron.AddFunc(m.config.Schedule, func() {
		if err := m.RunOnce(ctx); err != nil {
			log.Printf("Maintenance run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance: %w", err)
	}

	m.cron.Start()
	log.Printf("Maintenance scheduler started with schedule %s", m.config.Schedule)

	<-ctx.Done()
	log.Println("Stopping maintenance scheduler...")
	m.cron.Stop()

	return nil
}
