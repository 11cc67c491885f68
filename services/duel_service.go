package services

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/models"
	"github.com/oyolcinar/dus-backend-sub003/repositories"
	"github.com/oyolcinar/dus-backend-sub003/utils"
)

type DuelService struct {
	DB      *gorm.DB
	Duels   *repositories.DuelRepository
	Results *repositories.DuelResultRepository
	Stats   *repositories.UserStatsRepository
	Users   *repositories.UserRepository
	Content *repositories.ContentRepository

	// Board is nil when Redis is not configured; the leaderboard then
	// serves straight from the store.
	Board *LeaderboardCache

	DefaultQuestionCount int
}

func NewDuelService(db *gorm.DB, board *LeaderboardCache) *DuelService {
	count := 5
	if v := os.Getenv("DUEL_DEFAULT_QUESTION_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			count = n
		}
	}

	return &DuelService{
		DB:                   db,
		Duels:                repositories.NewDuelRepository(db),
		Results:              repositories.NewDuelResultRepository(db),
		Stats:                repositories.NewUserStatsRepository(db),
		Users:                repositories.NewUserRepository(db),
		Content:              repositories.NewContentRepository(db),
		Board:                board,
		DefaultQuestionCount: count,
	}
}

// Challenge creates a pending duel against another user.
func (s *DuelService) Challenge(c *fiber.Ctx) error {
	initiatorID := c.Locals("user_id").(int64)

	var req struct {
		OpponentID    *int64 `json:"opponentId"`
		TestID        *int64 `json:"testId"`
		CourseID      *int64 `json:"courseId"`
		QuestionCount *int   `json:"questionCount"`
		BranchType    string `json:"branchType"`
		SelectionType string `json:"selectionType"`
		BranchID      *int64 `json:"branchId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.OpponentID == nil {
		return c.Status(400).JSON(fiber.Map{"error": "opponentId is required"})
	}
	if *req.OpponentID == initiatorID {
		return c.Status(400).JSON(fiber.Map{"error": "you cannot challenge yourself"})
	}
	if req.TestID == nil && req.CourseID == nil {
		return c.Status(400).JSON(fiber.Map{"error": "testId or courseId is required"})
	}

	exists, err := s.Users.Exists(*req.OpponentID)
	if err != nil {
		log.Printf("❌ [DUEL] opponent lookup failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create duel"})
	}
	if !exists {
		return c.Status(404).JSON(fiber.Map{"error": "opponent not found"})
	}

	// Both linkage ids are validated when both are supplied; the test
	// linkage wins for the created duel.
	var source models.QuestionSource
	if req.CourseID != nil {
		ok, err := s.Content.CourseExists(*req.CourseID)
		if err != nil {
			log.Printf("❌ [DUEL] course lookup failed: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to create duel"})
		}
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "course not found"})
		}
		source = models.CourseSource(*req.CourseID)
	}
	if req.TestID != nil {
		ok, err := s.Content.TestExists(*req.TestID)
		if err != nil {
			log.Printf("❌ [DUEL] test lookup failed: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to create duel"})
		}
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "test not found"})
		}
		source = models.TestSource(*req.TestID)
	}

	if req.BranchID != nil {
		ok, err := s.Content.TopicExists(*req.BranchID)
		if err != nil {
			log.Printf("❌ [DUEL] branch lookup failed: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to create duel"})
		}
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "branch not found"})
		}
	}

	questionCount := s.DefaultQuestionCount
	if req.QuestionCount != nil {
		if *req.QuestionCount <= 0 {
			return c.Status(400).JSON(fiber.Map{"error": "questionCount must be a positive integer"})
		}
		questionCount = *req.QuestionCount
	}

	branchType := req.BranchType
	if branchType == "" {
		branchType = models.BranchTypeMixed
	}
	if branchType != models.BranchTypeMixed && branchType != models.BranchTypeSpecific {
		return c.Status(400).JSON(fiber.Map{"error": "branchType must be 'mixed' or 'specific'"})
	}

	selectionType := req.SelectionType
	if selectionType == "" {
		selectionType = models.SelectionRandom
	}
	if selectionType != models.SelectionRandom && selectionType != models.SelectionFailed {
		return c.Status(400).JSON(fiber.Map{"error": "selectionType must be 'random' or 'failed'"})
	}

	duel := &models.Duel{
		ID:            uuid.NewString(),
		InitiatorID:   initiatorID,
		OpponentID:    *req.OpponentID,
		QuestionCount: questionCount,
		BranchType:    branchType,
		SelectionType: selectionType,
		BranchID:      req.BranchID,
		Status:        models.DuelStatusPending,
	}
	source.Apply(duel)

	if err := s.Duels.Create(duel); err != nil {
		log.Printf("❌ [DUEL] create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create duel"})
	}

	utils.DuelsCreated.Inc()
	log.Printf("⚔️  Duel %s: user %d challenged user %d", duel.ID, initiatorID, duel.OpponentID)
	return c.Status(201).JSON(duel)
}

// Accept lets the challenged user move a pending duel to active.
func (s *DuelService) Accept(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)
	duelID := c.Params("id")

	duel, err := s.Duels.GetByID(duelID)
	if err != nil {
		if errors.Is(err, repositories.ErrDuelNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "duel not found"})
		}
		log.Printf("❌ [DUEL] lookup failed for %s: %v", duelID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to accept duel"})
	}

	if duel.OpponentID != userID {
		return c.Status(403).JSON(fiber.Map{"error": "only the challenged user can accept this duel"})
	}

	if err := s.Duels.MarkAccepted(duelID); err != nil {
		if errors.Is(err, repositories.ErrDuelNotPending) {
			return c.Status(400).JSON(fiber.Map{"error": "duel is not pending"})
		}
		log.Printf("❌ [DUEL] accept failed for %s: %v", duelID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to accept duel"})
	}

	now := time.Now()
	duel.Status = models.DuelStatusActive
	duel.AcceptedAt = &now

	log.Printf("⚔️  Duel %s accepted by user %d", duelID, userID)
	return c.JSON(duel)
}

// Decline lets the challenged user refuse a pending duel. Terminal.
func (s *DuelService) Decline(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)
	duelID := c.Params("id")

	duel, err := s.Duels.GetByID(duelID)
	if err != nil {
		if errors.Is(err, repositories.ErrDuelNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "duel not found"})
		}
		log.Printf("❌ [DUEL] lookup failed for %s: %v", duelID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to decline duel"})
	}

	if duel.OpponentID != userID {
		return c.Status(403).JSON(fiber.Map{"error": "only the challenged user can decline this duel"})
	}

	if err := s.Duels.MarkDeclined(duelID); err != nil {
		if errors.Is(err, repositories.ErrDuelNotPending) {
			return c.Status(400).JSON(fiber.Map{"error": "duel is not pending"})
		}
		log.Printf("❌ [DUEL] decline failed for %s: %v", duelID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to decline duel"})
	}

	log.Printf("⚔️  Duel %s declined by user %d", duelID, userID)
	return c.JSON(fiber.Map{"message": "duel declined"})
}

// SubmitResult completes an active duel: winner gets the higher score,
// equal scores are a draw. The status flip, result insert and counter
// updates commit in one transaction; the status CAS makes completion
// at-most-once under concurrent submits.
func (s *DuelService) SubmitResult(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)
	duelID := c.Params("id")

	var req struct {
		InitiatorScore *float64 `json:"initiatorScore"`
		OpponentScore  *float64 `json:"opponentScore"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.InitiatorScore == nil || req.OpponentScore == nil {
		return c.Status(400).JSON(fiber.Map{"error": "initiatorScore and opponentScore are required"})
	}

	duel, err := s.Duels.GetByID(duelID)
	if err != nil {
		if errors.Is(err, repositories.ErrDuelNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "duel not found"})
		}
		log.Printf("❌ [DUEL] lookup failed for %s: %v", duelID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to submit result"})
	}

	if !duel.IsParticipant(userID) {
		return c.Status(403).JSON(fiber.Map{"error": "only duel participants can submit results"})
	}
	if duel.Status != models.DuelStatusActive {
		return c.Status(400).JSON(fiber.Map{"error": "duel is not active"})
	}

	var winnerID *int64
	switch {
	case *req.InitiatorScore > *req.OpponentScore:
		winnerID = &duel.InitiatorID
	case *req.OpponentScore > *req.InitiatorScore:
		winnerID = &duel.OpponentID
	}

	result := &models.DuelResult{
		ID:             uuid.NewString(),
		DuelID:         duel.ID,
		WinnerID:       winnerID,
		InitiatorScore: *req.InitiatorScore,
		OpponentScore:  *req.OpponentScore,
	}

	now := time.Now()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.Duels.CompleteIfActive(tx, duel.ID, now); err != nil {
			return err
		}
		if err := s.Results.Create(tx, result); err != nil {
			return err
		}

		switch {
		case winnerID == nil:
			if err := s.Stats.RecordDraw(tx, duel.InitiatorID); err != nil {
				return err
			}
			return s.Stats.RecordDraw(tx, duel.OpponentID)
		case *winnerID == duel.InitiatorID:
			if err := s.Stats.RecordWin(tx, duel.InitiatorID); err != nil {
				return err
			}
			return s.Stats.RecordLoss(tx, duel.OpponentID)
		default:
			if err := s.Stats.RecordWin(tx, duel.OpponentID); err != nil {
				return err
			}
			return s.Stats.RecordLoss(tx, duel.InitiatorID)
		}
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuelNotActive) {
			return c.Status(400).JSON(fiber.Map{"error": "duel is not active"})
		}
		log.Printf("❌ [DUEL] submit failed for %s: %v", duelID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to submit result"})
	}

	outcome := "win"
	if winnerID == nil {
		outcome = "draw"
	}
	utils.DuelsCompleted.WithLabelValues(outcome).Inc()
	s.refreshBoard(duel.InitiatorID, duel.OpponentID)

	log.Printf("⚔️✅ Duel %s completed (%.0f–%.0f)", duel.ID, *req.InitiatorScore, *req.OpponentScore)
	return c.JSON(result)
}

// refreshBoard pushes both participants' fresh counters to the Redis
// mirror after a completed duel. Cache-only: failures are logged, the
// store stays authoritative.
func (s *DuelService) refreshBoard(userIDs ...int64) {
	if s.Board == nil {
		return
	}
	users, err := s.Users.GetByIDs(userIDs)
	if err != nil {
		log.Printf("⚠️  [BOARD] reload after duel failed: %v", err)
		return
	}
	if err := s.Board.Update(context.Background(), users...); err != nil {
		log.Printf("⚠️  [BOARD] cache update failed: %v", err)
	}
}

func (s *DuelService) GetPending(c *fiber.Ctx) error {
	return s.listByStatus(c, models.DuelStatusPending)
}

func (s *DuelService) GetActive(c *fiber.Ctx) error {
	return s.listByStatus(c, models.DuelStatusActive)
}

func (s *DuelService) GetCompleted(c *fiber.Ctx) error {
	return s.listByStatus(c, models.DuelStatusCompleted)
}

func (s *DuelService) listByStatus(c *fiber.Ctx, status models.DuelStatus) error {
	userID := c.Locals("user_id").(int64)
	duels, err := s.Duels.ListByParticipantAndStatus(userID, status)
	if err != nil {
		log.Printf("❌ [DUEL] list %s failed for user %d: %v", status, userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list duels"})
	}
	return c.JSON(duels)
}

func (s *DuelService) GetByBranch(c *fiber.Ctx) error {
	branchID, err := strconv.ParseInt(c.Params("branchId"), 10, 64)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "branchId must be numeric"})
	}

	duels, err := s.Duels.ListByBranch(branchID)
	if err != nil {
		log.Printf("❌ [DUEL] list by branch %d failed: %v", branchID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list duels"})
	}
	return c.JSON(duels)
}

// GetByID returns the duel together with its result (nil until
// completed).
func (s *DuelService) GetByID(c *fiber.Ctx) error {
	duel, err := s.Duels.GetByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrDuelNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "duel not found"})
		}
		log.Printf("❌ [DUEL] lookup failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch duel"})
	}
	return c.JSON(fiber.Map{
		"duel":   duel,
		"result": duel.Result,
	})
}

// DuelQuestions serves the question set for an active duel to its
// participants. Correct answers stay server-side.
func (s *DuelService) DuelQuestions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	duel, err := s.Duels.GetByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrDuelNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "duel not found"})
		}
		log.Printf("❌ [DUEL] lookup failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch duel questions"})
	}

	if !duel.IsParticipant(userID) {
		return c.Status(403).JSON(fiber.Map{"error": "only duel participants can fetch questions"})
	}
	if duel.Status != models.DuelStatusActive {
		return c.Status(400).JSON(fiber.Map{"error": "duel is not active"})
	}

	questions, err := s.Content.PickQuestions(duel)
	if err != nil {
		log.Printf("❌ [DUEL] question selection failed for %s: %v", duel.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch duel questions"})
	}
	return c.JSON(fiber.Map{"questions": questions})
}

// UserStats combines the running counters with the result-join rollup.
func (s *DuelService) UserStats(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	user, err := s.Users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "user not found"})
		}
		log.Printf("❌ [STATS] user lookup failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch stats"})
	}

	agg, err := s.Results.AggregateForUser(userID)
	if err != nil {
		log.Printf("❌ [STATS] aggregate failed for user %d: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch stats"})
	}

	return c.JSON(fiber.Map{
		"userId":              user.ID,
		"username":            user.Username,
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

// GetLeaderboard pages the ranking. The Redis mirror serves when it is
// configured and warm; otherwise the query goes to the store. Both paths
// share one ordering: duelsWon DESC, currentLosingStreak ASC, id DESC.
func (s *DuelService) GetLeaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	if s.Board != nil {
		if resp, ok := s.leaderboardFromCache(c, limit, offset); ok {
			return resp
		}
	}

	users, total, err := s.Stats.Leaderboard(limit, offset)
	if err != nil {
		log.Printf("❌ [BOARD] leaderboard query failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch leaderboard"})
	}

	rows := make([]fiber.Map, 0, len(users))
	for i := range users {
		rows = append(rows, leaderboardRow(offset+i+1, &users[i]))
	}
	return c.JSON(fiber.Map{"leaderboard": rows, "total": total})
}

// leaderboardFromCache returns (response, true) when the mirror could
// serve the page. A cold or unreachable mirror falls back to the store.
func (s *DuelService) leaderboardFromCache(c *fiber.Ctx, limit, offset int) (error, bool) {
	ctx := context.Background()
	ids, total, err := s.Board.Page(ctx, limit, offset)
	if err != nil {
		log.Printf("⚠️  [BOARD] cache read failed, serving from store: %v", err)
		return nil, false
	}
	if total == 0 {
		return nil, false
	}

	users, err := s.Users.GetByIDs(ids)
	if err != nil {
		log.Printf("⚠️  [BOARD] user fetch failed, serving from store: %v", err)
		return nil, false
	}
	byID := make(map[int64]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	rows := make([]fiber.Map, 0, len(ids))
	for i, id := range ids {
		u, ok := byID[id]
		if !ok {
			continue
		}
		rows = append(rows, leaderboardRow(offset+i+1, u))
	}
	return c.JSON(fiber.Map{"leaderboard": rows, "total": total}), true
}

func leaderboardRow(rank int, u *models.User) fiber.Map {
	return fiber.Map{
		"rank":                rank,
		"userId":              u.ID,
		"username":            u.Username,
		"avatarUrl":           u.AvatarURL,
		"totalDuels":          u.TotalDuels,
		"duelsWon":            u.DuelsWon,
		"duelsLost":           u.DuelsLost,
		"currentLosingStreak": u.CurrentLosingStreak,
		"winRate":             u.WinRate(),
	}
}

// RecommendedOpponents suggests users to challenge, never including the
// requester.
func (s *DuelService) RecommendedOpponents(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	limit := c.QueryInt("limit", 5)
	if limit < 1 {
		limit = 1
	}
	if limit > 20 {
		limit = 20
	}

	users, err := s.Stats.RecommendedOpponents(userID, limit)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "user not found"})
		}
		log.Printf("❌ [DUEL] opponent recommendation failed for user %d: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch recommended opponents"})
	}

	rows := make([]fiber.Map, 0, len(users))
	for i := range users {
		u := &users[i]
		rows = append(rows, fiber.Map{
			"userId":     u.ID,
			"username":   u.Username,
			"avatarUrl":  u.AvatarURL,
			"totalDuels": u.TotalDuels,
			"duelsWon":   u.DuelsWon,
			"winRate":    u.WinRate(),
		})
	}
	return c.JSON(rows)
}
