package repositories

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/models"
)

// UserStatsRepository owns the duel counters on the user row. Every
// mutation is a single UPDATE with store-evaluated expressions so
// concurrent submits from other duels can interleave safely.
type UserStatsRepository struct {
	DB *gorm.DB
}

func NewUserStatsRepository(db *gorm.DB) *UserStatsRepository {
	return &UserStatsRepository{DB: db}
}

// RecordWin bumps totalDuels and duelsWon and resets the losing streak.
func (r *UserStatsRepository) RecordWin(tx *gorm.DB, userID int64) error {
	return tx.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"total_duels":           gorm.Expr("total_duels + 1"),
			"duels_won":             gorm.Expr("duels_won + 1"),
			"current_losing_streak": 0,
		}).Error
}

// RecordLoss bumps totalDuels, duelsLost and the losing streak, raising
// the longest-streak high-water mark in the same statement. Column
// references on the right-hand side read the pre-update values, so the
// CASE compares the streak the loser is about to have.
func (r *UserStatsRepository) RecordLoss(tx *gorm.DB, userID int64) error {
	return tx.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"total_duels":           gorm.Expr("total_duels + 1"),
			"duels_lost":            gorm.Expr("duels_lost + 1"),
			"current_losing_streak": gorm.Expr("current_losing_streak + 1"),
			"longest_losing_streak": gorm.Expr(
				"CASE WHEN current_losing_streak + 1 > longest_losing_streak THEN current_losing_streak + 1 ELSE longest_losing_streak END"),
		}).Error
}

// RecordDraw counts the duel for the participant and leaves win/loss
// counters and streaks alone.
func (r *UserStatsRepository) RecordDraw(tx *gorm.DB, userID int64) error {
	return tx.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("total_duels", gorm.Expr("total_duels + 1")).Error
}

// Leaderboard pages users by duelsWon DESC, then currentLosingStreak ASC,
// then id DESC. The id tiebreak matches the Redis mirror's reverse-lex
// ordering of zero-padded members. total counts the whole population of
// users with at least one completed duel, independent of the window.
func (r *UserStatsRepository) Leaderboard(limit, offset int) ([]models.User, int64, error) {
	var total int64
	if err := r.DB.Model(&models.User{}).Where("total_duels > 0").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := r.DB.
		Where("total_duels > 0").
		Order("duels_won DESC, current_losing_streak ASC, id DESC").
		Limit(limit).Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// RecommendedOpponents ranks other users by closeness in win volume and
// recency of activity. Best effort: the ordering heuristic is not a
// correctness contract, but the requester is never included and at most
// limit rows come back.
func (r *UserStatsRepository) RecommendedOpponents(userID int64, limit int) ([]models.User, error) {
	var me models.User
	if err := r.DB.First(&me, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	var users []models.User
	err := r.DB.
		Where("id <> ?", userID).
		Order(fmt.Sprintf("ABS(duels_won - %d) ASC", me.DuelsWon)).
		Order("COALESCE(last_active_at, created_at) DESC").
		Order("id DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
