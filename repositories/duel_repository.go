package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/models"
)

var (
	ErrDuelNotFound   = errors.New("duel not found")
	ErrDuelNotPending = errors.New("duel is not pending")
	ErrDuelNotActive  = errors.New("duel is not active")
)

type DuelRepository struct {
	DB *gorm.DB
}

func NewDuelRepository(db *gorm.DB) *DuelRepository {
	return &DuelRepository{DB: db}
}

func (r *DuelRepository) Create(duel *models.Duel) error {
	return r.DB.Create(duel).Error
}

func (r *DuelRepository) GetByID(id string) (*models.Duel, error) {
	var duel models.Duel
	if err := r.DB.Preload("Result").First(&duel, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDuelNotFound
		}
		return nil, err
	}
	return &duel, nil
}

// ListByParticipantAndStatus returns duels where the user plays either
// side, newest first.
func (r *DuelRepository) ListByParticipantAndStatus(userID int64, status models.DuelStatus) ([]models.Duel, error) {
	var duels []models.Duel
	err := r.DB.
		Where("(initiator_id = ? OR opponent_id = ?) AND status = ?", userID, userID, status).
		Order("created_at DESC").
		Preload("Result").
		Find(&duels).Error
	return duels, err
}

func (r *DuelRepository) ListByBranch(branchID int64) ([]models.Duel, error) {
	var duels []models.Duel
	err := r.DB.
		Where("branch_id = ?", branchID).
		Order("created_at DESC").
		Find(&duels).Error
	return duels, err
}

// MarkAccepted flips pending → active. The status guard in the WHERE
// clause makes the transition a compare-and-swap: a duel past pending is
// left untouched and ErrDuelNotPending comes back.
func (r *DuelRepository) MarkAccepted(id string) error {
	now := time.Now()
	res := r.DB.Model(&models.Duel{}).
		Where("id = ? AND status = ?", id, models.DuelStatusPending).
		Updates(map[string]interface{}{
			"status":      models.DuelStatusActive,
			"accepted_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuelNotPending
	}
	return nil
}

// MarkDeclined flips pending → declined, terminal.
func (r *DuelRepository) MarkDeclined(id string) error {
	res := r.DB.Model(&models.Duel{}).
		Where("id = ? AND status = ?", id, models.DuelStatusPending).
		Update("status", models.DuelStatusDeclined)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuelNotPending
	}
	return nil
}

// CompleteIfActive is the at-most-once completion guard: only an active
// row matches, so exactly one of two racing submits wins. Runs inside the
// caller's transaction.
func (r *DuelRepository) CompleteIfActive(tx *gorm.DB, id string, completedAt time.Time) error {
	res := tx.Model(&models.Duel{}).
		Where("id = ? AND status = ?", id, models.DuelStatusActive).
		Updates(map[string]interface{}{
			"status":       models.DuelStatusCompleted,
			"completed_at": completedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuelNotActive
	}
	return nil
}

// ExpireStalePending retires pending invites created before the cutoff.
// Returns how many rows flipped.
func (r *DuelRepository) ExpireStalePending(cutoff time.Time) (int64, error) {
	res := r.DB.Model(&models.Duel{}).
		Where("status = ? AND created_at < ?", models.DuelStatusPending, cutoff).
		Update("status", models.DuelStatusExpired)
	return res.RowsAffected, res.Error
}
