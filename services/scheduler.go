// services/scheduler.go
package services

import (
	"log"
	"time"

	"confession-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartMaintenanceScheduler runs the periodic housekeeping jobs:
// expiring collaborations and watching the featured invariant.
func (s *CollaborationService) StartMaintenanceScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: deactivate collaborations past their end date
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			n, err := s.DeactivateExpired(time.Now())
			if err != nil {
				log.Printf("[SCHEDULER] Failed to deactivate expired collaborations: %v", err)
				return
			}
			if n > 0 {
				log.Printf("✅ [SCHEDULER] Deactivated %d expired collaboration(s)", n)
			}
		}),
	)

	// Every minute: surface a featured-invariant violation to the logs.
	// GetFeatured tolerates duplicates (first match wins); this job makes
	// sure an operator actually hears about them.
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var count int64
			if err := s.DB.Model(&models.Collaboration{}).
				Where("is_featured = ?", true).
				Count(&count).Error; err != nil {
				log.Printf("[SCHEDULER] Featured invariant check failed: %v", err)
				return
			}
			if count > 1 {
				log.Printf("⚠️ [SCHEDULER] Featured invariant violated: %d collaborations flagged featured", count)
			}
		}),
	)
}
