package services

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/models"
)

// Review intervals double on success from 1 day up to the cap and snap
// back to 1 on a miss.
const maxIntervalDays = 64

// ProgressService tracks per-subtopic mastery with a light
// spaced-repetition schedule. Answer recording feeds it through
// ApplyAnswer; the HTTP surface is read-only.
type ProgressService struct {
	DB *gorm.DB
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{DB: db}
}

// ApplyAnswer folds one graded answer into the user's progress row for
// the subtopic. Mastery blends the latest observation with history at
// 0.6/0.4. Runs inside the caller's transaction.
func (s *ProgressService) ApplyAnswer(tx *gorm.DB, userID, subtopicID int64, correct bool) error {
	now := time.Now()

	var progress models.SubtopicProgress
	err := tx.Where("user_id = ? AND subtopic_id = ?", userID, subtopicID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = models.SubtopicProgress{
			UserID:       userID,
			SubtopicID:   subtopicID,
			IntervalDays: 1,
		}
	} else if err != nil {
		return err
	}

	latest := 0.0
	if correct {
		latest = 1.0
		progress.CorrectAnswers++
	} else {
		progress.WrongAnswers++
	}

	if progress.Repetitions == 0 {
		progress.MasteryLevel = latest
	} else {
		progress.MasteryLevel = latest*0.6 + progress.MasteryLevel*0.4
	}
	progress.Repetitions++

	if correct {
		progress.IntervalDays *= 2
		if progress.IntervalDays > maxIntervalDays {
			progress.IntervalDays = maxIntervalDays
		}
	} else {
		progress.IntervalDays = 1
	}

	next := now.AddDate(0, 0, progress.IntervalDays)
	progress.LastReviewedAt = &now
	progress.NextReviewAt = &next

	return tx.Save(&progress).Error
}

// Overview returns the caller's mastery rolled up per course, with the
// raw subtopic rows alongside.
func (s *ProgressService) Overview(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	var rows []models.SubtopicProgress
	err := s.DB.
		Where("user_id = ?", userID).
		Order("subtopic_id ASC").
		Find(&rows).Error
	if err != nil {
		log.Printf("❌ [PROGRESS] list failed for user %d: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch progress"})
	}

	type courseMastery struct {
		CourseID       int64   `json:"courseId"`
		CourseTitle    string  `json:"courseTitle"`
		Subtopics      int64   `json:"subtopics"`
		AverageMastery float64 `json:"averageMastery"`
	}
	var perCourse []courseMastery
	err = s.DB.Raw(`
		SELECT c.id AS course_id, c.title AS course_title,
		       COUNT(sp.id) AS subtopics,
		       COALESCE(AVG(sp.mastery_level), 0) AS average_mastery
		FROM subtopic_progresses sp
		JOIN subtopics st ON st.id = sp.subtopic_id
		JOIN topics t ON t.id = st.topic_id
		JOIN courses c ON c.id = t.course_id
		WHERE sp.user_id = ?
		GROUP BY c.id, c.title
		ORDER BY c.id ASC`, userID).Scan(&perCourse).Error
	if err != nil {
		log.Printf("❌ [PROGRESS] course rollup failed for user %d: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch progress"})
	}

	return c.JSON(fiber.Map{
		"subtopics": rows,
		"perCourse": perCourse,
	})
}

// DueReviews lists subtopics whose next review is now or overdue, most
// overdue first.
func (s *ProgressService) DueReviews(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	limit := c.QueryInt("limit", 20)
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	var rows []models.SubtopicProgress
	err := s.DB.
		Where("user_id = ? AND next_review_at IS NOT NULL AND next_review_at <= ?", userID, time.Now()).
		Order("next_review_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		log.Printf("❌ [PROGRESS] due list failed for user %d: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch due reviews"})
	}
	return c.JSON(fiber.Map{"due": rows})
}
