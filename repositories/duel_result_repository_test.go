package repositories

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/models"
	"github.com/oyolcinar/dus-backend-sub003/testhelpers"
)

func seedCompletedDuel(t *testing.T, db *gorm.DB, initiator, opponent int64, initiatorScore, opponentScore float64) *models.DuelResult {
	t.Helper()

	duel := &models.Duel{
		ID:            uuid.NewString(),
		InitiatorID:   initiator,
		OpponentID:    opponent,
		QuestionCount: 5,
		BranchType:    models.BranchTypeMixed,
		SelectionType: models.SelectionRandom,
		Status:        models.DuelStatusCompleted,
	}
	if err := db.Create(duel).Error; err != nil {
		t.Fatalf("failed to seed duel: %v", err)
	}

	var winnerID *int64
	if initiatorScore > opponentScore {
		winnerID = &duel.InitiatorID
	} else if opponentScore > initiatorScore {
		winnerID = &duel.OpponentID
	}

	result := &models.DuelResult{
		ID:             uuid.NewString(),
		DuelID:         duel.ID,
		WinnerID:       winnerID,
		InitiatorScore: initiatorScore,
		OpponentScore:  opponentScore,
	}
	if err := db.Create(result).Error; err != nil {
		t.Fatalf("failed to seed result: %v", err)
	}
	return result
}

func TestDuelResultRepository_GetByDuelID(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := NewDuelResultRepository(db)

	result := seedCompletedDuel(t, db, 1, 2, 80, 60)

	got, err := repo.GetByDuelID(result.DuelID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.WinnerID == nil || *got.WinnerID != 1 {
		t.Fatalf("expected winner 1, got %v", got.WinnerID)
	}

	if _, err := repo.GetByDuelID(uuid.NewString()); !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
}

func TestDuelResultRepository_UniquePerDuel(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := NewDuelResultRepository(db)

	result := seedCompletedDuel(t, db, 1, 2, 80, 60)

	dup := &models.DuelResult{
		ID:             uuid.NewString(),
		DuelID:         result.DuelID,
		InitiatorScore: 10,
		OpponentScore:  20,
	}
	if err := repo.Create(db, dup); err == nil {
		t.Fatalf("expected unique index to reject a second result for the duel")
	}
}

func TestDuelResultRepository_AggregateForUser(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := NewDuelResultRepository(db)

	t.Run("zero participation yields zeroed stats", func(t *testing.T) {
		agg, err := repo.AggregateForUser(42)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if agg.Played != 0 || agg.Wins != 0 || agg.Losses != 0 || agg.Draws != 0 {
			t.Fatalf("expected all-zero aggregate, got %+v", agg)
		}
		if agg.AverageScore != 0 {
			t.Fatalf("expected zero average score, got %f", agg.AverageScore)
		}
	})

	t.Run("mixed outcomes", func(t *testing.T) {
		// User 1 wins as initiator, loses as opponent, draws as initiator.
		seedCompletedDuel(t, db, 1, 2, 80, 60)
		seedCompletedDuel(t, db, 3, 1, 90, 50)
		seedCompletedDuel(t, db, 1, 2, 70, 70)

		agg, err := repo.AggregateForUser(1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if agg.Played != 3 {
			t.Fatalf("expected 3 played, got %d", agg.Played)
		}
		if agg.Wins != 1 || agg.Losses != 1 || agg.Draws != 1 {
			t.Fatalf("expected 1/1/1 win/loss/draw, got %d/%d/%d", agg.Wins, agg.Losses, agg.Draws)
		}
		// Scores from user 1's side: 80, 50, 70.
		want := (80.0 + 50.0 + 70.0) / 3.0
		if agg.AverageScore < want-0.001 || agg.AverageScore > want+0.001 {
			t.Fatalf("expected average %.2f, got %.2f", want, agg.AverageScore)
		}
	})
}
