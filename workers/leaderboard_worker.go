package workers

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/models"
	"github.com/oyolcinar/dus-backend-sub003/services"
)

// PollLeaderboard rebuilds the Redis leaderboard mirror from the store on
// an interval until ctx is cancelled. The per-duel cache updates in the
// duel service keep the board fresh between rebuilds; this loop exists to
// heal the mirror after Redis restarts or missed updates.
func PollLeaderboard(ctx context.Context, db *gorm.DB, board *services.LeaderboardCache, interval time.Duration) {
	log.Println("Starting leaderboard cache rebuild loop...")

	rebuild := func() {
		var users []models.User
		if err := db.Where("total_duels > 0").Find(&users).Error; err != nil {
			log.Printf("❌ [BOARD] leaderboard rebuild query failed: %v", err)
			return
		}
		if err := board.Rebuild(ctx, users); err != nil {
			log.Printf("❌ [BOARD] leaderboard cache rebuild failed: %v", err)
			return
		}
		log.Printf("📊 Leaderboard cache rebuilt (%d user(s))", len(users))
	}

	rebuild()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Leaderboard cache rebuild loop stopped.")
			return
		case <-ticker.C:
			rebuild()
		}
	}
}
