package services

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/models"
	"github.com/oyolcinar/dus-backend-sub003/repositories"
	"github.com/oyolcinar/dus-backend-sub003/utils"
)

var errSessionNotOpen = errors.New("study session is not open")

type StudyService struct {
	DB      *gorm.DB
	Users   *repositories.UserRepository
	Content *repositories.ContentRepository
}

func NewStudyService(db *gorm.DB) *StudyService {
	return &StudyService{
		DB:      db,
		Users:   repositories.NewUserRepository(db),
		Content: repositories.NewContentRepository(db),
	}
}

// StartSession opens a study session. A user keeps at most one open
// session, so any session still open is closed first with the time it
// actually ran.
func (s *StudyService) StartSession(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	var req struct {
		CourseID *int64 `json:"courseId"`
		TopicID  *int64 `json:"topicId"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.CourseID != nil {
		ok, err := s.Content.CourseExists(*req.CourseID)
		if err != nil {
			log.Printf("❌ [STUDY] course lookup failed: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to start session"})
		}
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "course not found"})
		}
	}
	if req.TopicID != nil {
		ok, err := s.Content.TopicExists(*req.TopicID)
		if err != nil {
			log.Printf("❌ [STUDY] topic lookup failed: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to start session"})
		}
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "topic not found"})
		}
	}

	now := time.Now()
	session := &models.StudySession{
		ID:        uuid.NewString(),
		UserID:    userID,
		CourseID:  req.CourseID,
		TopicID:   req.TopicID,
		StartedAt: now,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var open []models.StudySession
		if err := tx.Where("user_id = ? AND ended_at IS NULL", userID).Find(&open).Error; err != nil {
			return err
		}
		for i := range open {
			if err := s.closeSession(tx, &open[i], now); err != nil {
				return err
			}
		}
		return tx.Create(session).Error
	})
	if err != nil {
		log.Printf("❌ [STUDY] session start failed for user %d: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to start session"})
	}

	log.Printf("📖 Study session %s started by user %d", session.ID, userID)
	return c.Status(201).JSON(session)
}

// closeSession stamps the end time, computes the duration and adds it to
// the user's running study-time counter. Runs inside the caller's
// transaction; the ended_at IS NULL guard keeps the close idempotent.
func (s *StudyService) closeSession(tx *gorm.DB, session *models.StudySession, endedAt time.Time) error {
	duration := int64(endedAt.Sub(session.StartedAt).Seconds())
	if duration < 0 {
		duration = 0
	}

	res := tx.Model(&models.StudySession{}).
		Where("id = ? AND ended_at IS NULL", session.ID).
		Updates(map[string]interface{}{
			"ended_at":         endedAt,
			"duration_seconds": duration,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errSessionNotOpen
	}

	session.EndedAt = &endedAt
	session.DurationSeconds = duration
	return s.Users.AddStudyTime(tx, session.UserID, duration)
}

// EndSession closes the caller's session. Ending an already-ended
// session is a 400, not a second counter bump.
func (s *StudyService) EndSession(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)
	sessionID := c.Params("id")

	var session models.StudySession
	if err := s.DB.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		log.Printf("❌ [STUDY] session lookup failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to end session"})
	}
	if session.UserID != userID {
		return c.Status(403).JSON(fiber.Map{"error": "not your session"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		return s.closeSession(tx, &session, time.Now())
	})
	if err != nil {
		if errors.Is(err, errSessionNotOpen) {
			return c.Status(400).JSON(fiber.Map{"error": "session already ended"})
		}
		log.Printf("❌ [STUDY] session end failed for %s: %v", sessionID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to end session"})
	}

	utils.StudySessionsEnded.Inc()
	log.Printf("📖 Study session %s ended (%ds)", session.ID, session.DurationSeconds)
	return c.JSON(session)
}

// ListSessions pages the caller's sessions, newest first.
func (s *StudyService) ListSessions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	size := c.QueryInt("size", 20)
	if size < 1 {
		size = 1
	}
	if size > 100 {
		size = 100
	}

	var total int64
	if err := s.DB.Model(&models.StudySession{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		log.Printf("❌ [STUDY] session count failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list sessions"})
	}

	var sessions []models.StudySession
	err := s.DB.
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&sessions).Error
	if err != nil {
		log.Printf("❌ [STUDY] session list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list sessions"})
	}

	return c.JSON(fiber.Map{
		"sessions": sessions,
		"total":    total,
		"page":     page,
		"size":     size,
	})
}

// Summary rolls up the caller's study time: the lifetime total, per-course
// totals and the current daily streak of consecutive days with at least
// one closed session.
func (s *StudyService) Summary(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	user, err := s.Users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "user not found"})
		}
		log.Printf("❌ [STUDY] user lookup failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch summary"})
	}

	type courseTotal struct {
		CourseID     int64  `json:"courseId"`
		CourseTitle  string `json:"courseTitle"`
		TotalSeconds int64  `json:"totalSeconds"`
	}
	var perCourse []courseTotal
	err = s.DB.Raw(`
		SELECT c.id AS course_id, c.title AS course_title,
		       COALESCE(SUM(ss.duration_seconds), 0) AS total_seconds
		FROM study_sessions ss
		JOIN courses c ON c.id = ss.course_id
		WHERE ss.user_id = ? AND ss.ended_at IS NOT NULL
		GROUP BY c.id, c.title
		ORDER BY total_seconds DESC`, userID).Scan(&perCourse).Error
	if err != nil {
		log.Printf("❌ [STUDY] per-course rollup failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch summary"})
	}

	streak, err := s.dailyStreak(userID)
	if err != nil {
		log.Printf("❌ [STUDY] streak computation failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch summary"})
	}

	return c.JSON(fiber.Map{
		"totalStudyTime": user.TotalStudyTime,
		"perCourse":      perCourse,
		"dailyStreak":    streak,
	})
}

// dailyStreak counts consecutive calendar days, ending today or
// yesterday, on which the user closed at least one session. A streak
// whose last day is before yesterday has been broken and counts as 0.
func (s *StudyService) dailyStreak(userID int64) (int, error) {
	var sessions []models.StudySession
	err := s.DB.
		Select("started_at").
		Where("user_id = ? AND ended_at IS NOT NULL", userID).
		Order("started_at DESC").
		Find(&sessions).Error
	if err != nil {
		return 0, err
	}
	if len(sessions) == 0 {
		return 0, nil
	}

	days := make(map[string]bool, len(sessions))
	for i := range sessions {
		days[sessions[i].StartedAt.Format("2006-01-02")] = true
	}

	cursor := time.Now()
	if !days[cursor.Format("2006-01-02")] {
		cursor = cursor.AddDate(0, 0, -1)
		if !days[cursor.Format("2006-01-02")] {
			return 0, nil
		}
	}

	streak := 0
	for days[cursor.Format("2006-01-02")] {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak, nil
}
