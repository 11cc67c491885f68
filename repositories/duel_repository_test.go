package repositories

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oyolcinar/dus-backend-sub003/models"
	"github.com/oyolcinar/dus-backend-sub003/testhelpers"
)

func newDuelRepo(t *testing.T) *DuelRepository {
	t.Helper()
	return NewDuelRepository(testhelpers.SetupTestDB(t))
}

func seedDuel(t *testing.T, repo *DuelRepository, status models.DuelStatus) *models.Duel {
	t.Helper()

	testID := int64(1)
	duel := &models.Duel{
		ID:            uuid.NewString(),
		InitiatorID:   1,
		OpponentID:    2,
		TestID:        &testID,
		QuestionCount: 5,
		BranchType:    models.BranchTypeMixed,
		SelectionType: models.SelectionRandom,
		Status:        status,
	}
	if err := repo.Create(duel); err != nil {
		t.Fatalf("failed to seed duel: %v", err)
	}
	return duel
}

func TestDuelRepository_GetByID(t *testing.T) {
	repo := newDuelRepo(t)
	duel := seedDuel(t, repo, models.DuelStatusPending)

	t.Run("success", func(t *testing.T) {
		got, err := repo.GetByID(duel.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.OpponentID != 2 {
			t.Fatalf("expected opponent 2, got %d", got.OpponentID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := repo.GetByID(uuid.NewString()); !errors.Is(err, ErrDuelNotFound) {
			t.Fatalf("expected ErrDuelNotFound, got %v", err)
		}
	})
}

func TestDuelRepository_MarkAccepted(t *testing.T) {
	repo := newDuelRepo(t)

	t.Run("pending becomes active", func(t *testing.T) {
		duel := seedDuel(t, repo, models.DuelStatusPending)
		if err := repo.MarkAccepted(duel.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, _ := repo.GetByID(duel.ID)
		if got.Status != models.DuelStatusActive {
			t.Fatalf("expected active, got %s", got.Status)
		}
		if got.AcceptedAt == nil {
			t.Fatalf("expected acceptedAt to be set")
		}
	})

	t.Run("terminal states stay put", func(t *testing.T) {
		for _, status := range []models.DuelStatus{
			models.DuelStatusDeclined,
			models.DuelStatusCompleted,
			models.DuelStatusExpired,
		} {
			duel := seedDuel(t, repo, status)
			if err := repo.MarkAccepted(duel.ID); !errors.Is(err, ErrDuelNotPending) {
				t.Fatalf("status %s: expected ErrDuelNotPending, got %v", status, err)
			}
			got, _ := repo.GetByID(duel.ID)
			if got.Status != status {
				t.Fatalf("status %s was resurrected to %s", status, got.Status)
			}
		}
	})
}

func TestDuelRepository_MarkDeclined(t *testing.T) {
	repo := newDuelRepo(t)

	duel := seedDuel(t, repo, models.DuelStatusPending)
	if err := repo.MarkDeclined(duel.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Declined is terminal: neither a second decline nor an accept works.
	if err := repo.MarkDeclined(duel.ID); !errors.Is(err, ErrDuelNotPending) {
		t.Fatalf("expected ErrDuelNotPending on re-decline, got %v", err)
	}
	if err := repo.MarkAccepted(duel.ID); !errors.Is(err, ErrDuelNotPending) {
		t.Fatalf("expected ErrDuelNotPending on accept after decline, got %v", err)
	}
}

func TestDuelRepository_CompleteIfActive(t *testing.T) {
	repo := newDuelRepo(t)

	t.Run("active completes once", func(t *testing.T) {
		duel := seedDuel(t, repo, models.DuelStatusActive)

		if err := repo.CompleteIfActive(repo.DB, duel.ID, time.Now()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// The second attempt loses the CAS.
		if err := repo.CompleteIfActive(repo.DB, duel.ID, time.Now()); !errors.Is(err, ErrDuelNotActive) {
			t.Fatalf("expected ErrDuelNotActive on second completion, got %v", err)
		}
	})

	t.Run("pending cannot complete", func(t *testing.T) {
		duel := seedDuel(t, repo, models.DuelStatusPending)
		if err := repo.CompleteIfActive(repo.DB, duel.ID, time.Now()); !errors.Is(err, ErrDuelNotActive) {
			t.Fatalf("expected ErrDuelNotActive, got %v", err)
		}
	})
}

func TestDuelRepository_ExpireStalePending(t *testing.T) {
	repo := newDuelRepo(t)

	stale := seedDuel(t, repo, models.DuelStatusPending)
	repo.DB.Model(stale).UpdateColumn("created_at", time.Now().Add(-72*time.Hour))

	fresh := seedDuel(t, repo, models.DuelStatusPending)
	active := seedDuel(t, repo, models.DuelStatusActive)
	repo.DB.Model(active).UpdateColumn("created_at", time.Now().Add(-72*time.Hour))

	expired, err := repo.ExpireStalePending(time.Now().Add(-48 * time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired duel, got %d", expired)
	}

	got, _ := repo.GetByID(stale.ID)
	if got.Status != models.DuelStatusExpired {
		t.Fatalf("expected stale duel expired, got %s", got.Status)
	}
	got, _ = repo.GetByID(fresh.ID)
	if got.Status != models.DuelStatusPending {
		t.Fatalf("fresh duel should stay pending, got %s", got.Status)
	}
	got, _ = repo.GetByID(active.ID)
	if got.Status != models.DuelStatusActive {
		t.Fatalf("active duel should be untouched, got %s", got.Status)
	}
}

func TestDuelRepository_ListByParticipantAndStatus(t *testing.T) {
	repo := newDuelRepo(t)

	seedDuel(t, repo, models.DuelStatusPending)
	seedDuel(t, repo, models.DuelStatusActive)

	pending, err := repo.ListByParticipantAndStatus(2, models.DuelStatusPending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending duel for user 2, got %d", len(pending))
	}

	none, err := repo.ListByParticipantAndStatus(99, models.DuelStatusPending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no duels for outsider, got %d", len(none))
	}
}
