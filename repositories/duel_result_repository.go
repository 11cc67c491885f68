package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/models"
)

var ErrResultNotFound = errors.New("duel result not found")

type DuelResultRepository struct {
	DB *gorm.DB
}

func NewDuelResultRepository(db *gorm.DB) *DuelResultRepository {
	return &DuelResultRepository{DB: db}
}

// Create inserts the single result row for a duel. The unique index on
// duel_id backs up the status CAS: even if a second submit slipped
// through it could not insert a second row.
func (r *DuelResultRepository) Create(tx *gorm.DB, result *models.DuelResult) error {
	return tx.Create(result).Error
}

func (r *DuelResultRepository) GetByDuelID(duelID string) (*models.DuelResult, error) {
	var result models.DuelResult
	if err := r.DB.First(&result, "duel_id = ?", duelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return &result, nil
}

// DuelAggregate is a user's completed-duel rollup computed from results,
// as opposed to the running counters on the user row.
type DuelAggregate struct {
	Played       int64   `json:"played"`
	Wins         int64   `json:"wins"`
	Losses       int64   `json:"losses"`
	Draws        int64   `json:"draws"`
	AverageScore float64 `json:"averageScore"`
}

// AggregateForUser joins duels × duel_results for completed duels the
// user played. Zero participation yields zeroed stats, not an error.
func (r *DuelResultRepository) AggregateForUser(userID int64) (*DuelAggregate, error) {
	var agg DuelAggregate
	err := r.DB.Raw(`
		SELECT
			COUNT(*) AS played,
			COALESCE(SUM(CASE WHEN dr.winner_id = ? THEN 1 ELSE 0 END), 0) AS wins,
			COALESCE(SUM(CASE WHEN dr.winner_id IS NOT NULL AND dr.winner_id <> ? THEN 1 ELSE 0 END), 0) AS losses,
			COALESCE(SUM(CASE WHEN dr.winner_id IS NULL THEN 1 ELSE 0 END), 0) AS draws,
			COALESCE(AVG(CASE WHEN d.initiator_id = ? THEN dr.initiator_score ELSE dr.opponent_score END), 0) AS average_score
		FROM duel_results dr
		JOIN duels d ON d.id = dr.duel_id
		WHERE d.status = ? AND (d.initiator_id = ? OR d.opponent_id = ?)`,
		userID, userID, userID, models.DuelStatusCompleted, userID, userID,
	).Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	return &agg, nil
}
