// services/scheduler.go
package services

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartExpiryScheduler retires stale pending invites in the background.
// Every 15 minutes, pending duels older than DUEL_PENDING_TTL_HOURS
// (default 48) flip to expired. The status guard in the UPDATE keeps the
// sweep from ever touching a duel that moved on.
func (s *DuelService) StartExpiryScheduler() {
	ttl := 48 * time.Hour
	if v := os.Getenv("DUEL_PENDING_TTL_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			ttl = time.Duration(hours) * time.Hour
		}
	}

	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(func() {
			expired, err := s.Duels.ExpireStalePending(time.Now().Add(-ttl))
			if err != nil {
				log.Printf("[Scheduler] duel expiry sweep failed: %v", err)
				return
			}
			if expired > 0 {
				log.Printf("⏲️  Expired %d stale pending duel(s)", expired)
			}
		}),
	)
}
