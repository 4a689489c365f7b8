package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sbasnet-dev/reddit-go-backend/internal/repository"
)

// Scheduler handles scheduled maintenance tasks
type Scheduler struct {
	cron             *cron.Cron
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
}

// NewScheduler creates a new scheduler
func NewScheduler(userRepo repository.UserRepository, notificationRepo repository.NotificationRepository) *Scheduler {
	return &Scheduler{
		cron:             cron.New(),
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Run every day at 3 AM - purge expired refresh tokens
	s.cron.AddFunc("0 3 * * *", func() {
		log.Println("[Cron] Running refresh token cleanup...")
		s.cleanupExpiredRefreshTokens()
	})

	// Run every Sunday at midnight - trim old read notifications
	s.cron.AddFunc("0 0 * * 0", func() {
		log.Println("[Cron] Running notification cleanup...")
		s.cleanupOldNotifications()
	})

	s.cron.Start()
	log.Println("[Cron] Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[Cron] Scheduler stopped")
}

// cleanupExpiredRefreshTokens removes refresh tokens past their expiry
func (s *Scheduler) cleanupExpiredRefreshTokens() {
	ctx := context.Background()

	count, err := s.userRepo.DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		log.Printf("[Cron] Error deleting expired refresh tokens: %v", err)
		return
	}
	if count > 0 {
		log.Printf("[Cron] Deleted %d expired refresh tokens", count)
	}
}

// cleanupOldNotifications removes read notifications older than 90 days
func (s *Scheduler) cleanupOldNotifications() {
	ctx := context.Background()

	cutoff := time.Now().AddDate(0, 0, -90)
	count, err := s.notificationRepo.DeleteOlderThan(ctx, cutoff, true)
	if err != nil {
		log.Printf("[Cron] Error deleting old notifications: %v", err)
		return
	}
	if count > 0 {
		log.Printf("[Cron] Deleted %d old notifications", count)
	}
}

// ManualTrigger allows manual triggering of cleanup jobs (for testing)
func (s *Scheduler) ManualTrigger(checkType string) {
	switch checkType {
	case "refresh_tokens":
		s.cleanupExpiredRefreshTokens()
	case "notifications":
		s.cleanupOldNotifications()
	case "all":
		s.cleanupExpiredRefreshTokens()
		s.cleanupOldNotifications()
	}
}
