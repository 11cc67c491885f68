package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/models"
	"github.com/oyolcinar/dus-backend-sub003/repositories"
	"github.com/oyolcinar/dus-backend-sub003/utils"
)

// AnalyticsService records answer events and serves the rollups built on
// them. Correctness is judged server-side against the stored answer key;
// clients never see the key in question payloads.
type AnalyticsService struct {
	DB       *gorm.DB
	Content  *repositories.ContentRepository
	Results  *repositories.DuelResultRepository
	Users    *repositories.UserRepository
	Progress *ProgressService
}

func NewAnalyticsService(db *gorm.DB, progress *ProgressService) *AnalyticsService {
	return &AnalyticsService{
		DB:       db,
		Content:  repositories.NewContentRepository(db),
		Results:  repositories.NewDuelResultRepository(db),
		Users:    repositories.NewUserRepository(db),
		Progress: progress,
	}
}

// RecordAnswer stores one answer event and, when the question maps to a
// subtopic, folds it into the mastery schedule in the same transaction.
func (s *AnalyticsService) RecordAnswer(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	var req struct {
		QuestionID     *int64  `json:"questionId"`
		DuelID         *string `json:"duelId"`
		SelectedOption string  `json:"selectedOption"`
		TimeSpentMs    int64   `json:"timeSpentMs"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.QuestionID == nil || strings.TrimSpace(req.SelectedOption) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "questionId and selectedOption are required"})
	}
	if req.TimeSpentMs < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "timeSpentMs must not be negative"})
	}

	question, err := s.Content.GetQuestion(*req.QuestionID)
	if err != nil {
		if errors.Is(err, repositories.ErrQuestionNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "question not found"})
		}
		log.Printf("❌ [ANALYTICS] question lookup failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to record answer"})
	}

	answer := &models.QuestionAnswer{
		UserID:         userID,
		QuestionID:     question.ID,
		DuelID:         req.DuelID,
		SelectedOption: strings.TrimSpace(req.SelectedOption),
		IsCorrect:      strings.TrimSpace(req.SelectedOption) == question.CorrectAnswer,
		TimeSpentMs:    req.TimeSpentMs,
		AnsweredAt:     time.Now(),
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(answer).Error; err != nil {
			return err
		}
		if question.SubtopicID == nil {
			return nil
		}
		return s.Progress.ApplyAnswer(tx, userID, *question.SubtopicID, answer.IsCorrect)
	})
	if err != nil {
		log.Printf("❌ [ANALYTICS] answer record failed for user %d: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to record answer"})
	}

	utils.AnswersRecorded.Inc()
	return c.Status(201).JSON(fiber.Map{
		"id":          answer.ID,
		"isCorrect":   answer.IsCorrect,
		"explanation": question.Explanation,
	})
}

// UserAnalytics returns lifetime totals, a 7-day trend and the topics
// the user struggles with most.
func (s *AnalyticsService) UserAnalytics(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	var totals struct {
		TotalAnswers   int64   `json:"totalAnswers"`
		CorrectAnswers int64   `json:"correctAnswers"`
		AvgTimeMs      float64 `json:"avgTimeMs"`
	}
	err := s.DB.Raw(`
		SELECT COUNT(*) AS total_answers,
		       COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0) AS correct_answers,
		       COALESCE(AVG(time_spent_ms), 0) AS avg_time_ms
		FROM question_answers
		WHERE user_id = ?`, userID).Scan(&totals).Error
	if err != nil {
		log.Printf("❌ [ANALYTICS] totals failed for user %d: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch analytics"})
	}

	accuracy := "0.00"
	if totals.TotalAnswers > 0 {
		accuracy = decimal.NewFromInt(totals.CorrectAnswers).
			Div(decimal.NewFromInt(totals.TotalAnswers)).
			StringFixed(2)
	}

	type dayBucket struct {
		Day     string `json:"day"`
		Total   int64  `json:"total"`
		Correct int64  `json:"correct"`
	}
	var trend []dayBucket
	weekAgo := time.Now().AddDate(0, 0, -7)
	err = s.DB.Model(&models.QuestionAnswer{}).
		Select("DATE(answered_at) AS day, COUNT(*) AS total, SUM(CASE WHEN is_correct THEN 1 ELSE 0 END) AS correct").
		Where("user_id = ? AND answered_at >= ?", userID, weekAgo).
		Group("DATE(answered_at)").
		Order("day ASC").
		Scan(&trend).Error
	if err != nil {
		log.Printf("❌ [ANALYTICS] trend failed for user %d: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch analytics"})
	}

	// Topics with the lowest accuracy, minimum 3 attempts so a single
	// miss doesn't flag a topic.
	type hardTopic struct {
		TopicID  int64   `json:"topicId"`
		Title    string  `json:"title"`
		Attempts int64   `json:"attempts"`
		Accuracy float64 `json:"accuracy"`
	}
	var hardest []hardTopic
	err = s.DB.Raw(`
		SELECT t.id AS topic_id, t.title,
		       COUNT(*) AS attempts,
		       AVG(CASE WHEN qa.is_correct THEN 1.0 ELSE 0.0 END) AS accuracy
		FROM question_answers qa
		JOIN questions q ON q.id = qa.question_id
		JOIN topics t ON t.id = q.topic_id
		WHERE qa.user_id = ?
		GROUP BY t.id, t.title
		HAVING COUNT(*) >= 3
		ORDER BY accuracy ASC, attempts DESC
		LIMIT 5`, userID).Scan(&hardest).Error
	if err != nil {
		log.Printf("❌ [ANALYTICS] hardest topics failed for user %d: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch analytics"})
	}

	return c.JSON(fiber.Map{
		"totalAnswers":   totals.TotalAnswers,
		"correctAnswers": totals.CorrectAnswers,
		"accuracy":       accuracy,
		"avgTimeMs":      decimal.NewFromFloat(totals.AvgTimeMs).StringFixed(2),
		"trend":          trend,
		"hardestTopics":  hardest,
	})
}

// DuelAnalytics serves the duel rollup: the running counters on the user
// row plus the result-join aggregate.
func (s *AnalyticsService) DuelAnalytics(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	user, err := s.Users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "user not found"})
		}
		log.Printf("❌ [ANALYTICS] user lookup failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch duel analytics"})
	}

	agg, err := s.Results.AggregateForUser(userID)
	if err != nil {
		log.Printf("❌ [ANALYTICS] duel aggregate failed for user %d: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch duel analytics"})
	}

	return c.JSON(fiber.Map{
		"totalDuels":          user.TotalDuels,
		"duelsWon":            user.DuelsWon,
		"duelsLost":           user.DuelsLost,
		"draws":               agg.Draws,
		"currentLosingStreak": user.CurrentLosingStreak,
		"longestLosingStreak": user.LongestLosingStreak,
		"winRate":             user.WinRate(),
		"averageScore":        decimal.NewFromFloat(agg.AverageScore).StringFixed(2),
	})
}
