package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/models"
)

// StreamDuelEvents pushes duel activity to the authenticated user over
// SSE: `challenge` events for new pending duels where the user is the
// opponent, `completed` events for freshly finished duels the user
// played. Auth comes from the token query parameter (EventSource cannot
// set headers).
func (s *DuelService) StreamDuelEvents(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		// Cursors start at the newest existing rows so reconnects don't
		// replay history.
		challengeCursor := time.Now()
		completedCursor := time.Now()

		var latest models.Duel
		err := s.DB.
			Where("opponent_id = ? AND status = ?", userID, models.DuelStatusPending).
			Order("created_at DESC").
			First(&latest).Error
		if err == nil {
			challengeCursor = latest.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("⚠️  [SSE] challenge cursor init failed for user %d: %v", userID, err)
		}

		// Initial keepalive comment so proxies start streaming.
		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-ticker.C:
				var challenges []models.Duel
				err := s.DB.
					Where("opponent_id = ? AND status = ? AND created_at > ?",
						userID, models.DuelStatusPending, challengeCursor).
					Order("created_at ASC").
					Find(&challenges).Error
				if err != nil {
					log.Printf("⚠️  [SSE] challenge poll failed for user %d: %v", userID, err)
				} else if len(challenges) > 0 {
					challengeCursor = challenges[len(challenges)-1].CreatedAt
					if !writeEvents(w, "challenge", challenges) {
						return
					}
				}

				var completed []models.Duel
				err = s.DB.
					Where("(initiator_id = ? OR opponent_id = ?) AND status = ? AND completed_at > ?",
						userID, userID, models.DuelStatusCompleted, completedCursor).
					Order("completed_at ASC").
					Preload("Result").
					Find(&completed).Error
				if err != nil {
					log.Printf("⚠️  [SSE] completion poll failed for user %d: %v", userID, err)
				} else if len(completed) > 0 {
					completedCursor = *completed[len(completed)-1].CompletedAt
					if !writeEvents(w, "completed", completed) {
						return
					}
				}

				// Heartbeat keeps idle connections alive.
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}

			case <-c.Context().Done():
				return
			}
		}
	})

	return nil
}

// writeEvents serializes each duel as one SSE event. Returns false when
// the client has gone away.
func writeEvents(w *bufio.Writer, event string, duels []models.Duel) bool {
	for i := range duels {
		payload, err := json.Marshal(&duels[i])
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	}
	return w.Flush() == nil
}
