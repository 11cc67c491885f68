package models

import "time"

type DuelStatus string

// Duel lifecycle. pending is initial; completed, declined and expired are
// terminal — no transition ever leaves a terminal state.
const (
	DuelStatusPending   DuelStatus = "pending"
	DuelStatusActive    DuelStatus = "active"
	DuelStatusCompleted DuelStatus = "completed"
	DuelStatusDeclined  DuelStatus = "declined"
	DuelStatusExpired   DuelStatus = "expired"
)

const (
	BranchTypeMixed    = "mixed"    // questions drawn from the whole source
	BranchTypeSpecific = "specific" // questions scoped to branchId

	SelectionRandom = "random" // uniform random selection
	SelectionFailed = "failed" // prefer questions a participant missed before
)

// Duel is a two-player asynchronous quiz challenge tied to a test or a
// course. Exactly one of TestID/CourseID is set (see QuestionSource).
type Duel struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"duelId"`
	InitiatorID int64  `gorm:"index;not null" json:"initiatorId"`
	OpponentID  int64  `gorm:"index;not null" json:"opponentId"`

	TestID   *int64 `gorm:"index" json:"testId,omitempty"`
	CourseID *int64 `gorm:"index" json:"courseId,omitempty"`

	QuestionCount int        `gorm:"not null;default:5" json:"questionCount"`
	BranchType    string     `gorm:"size:16;not null;default:'mixed';check:branch_type IN ('mixed','specific')" json:"branchType"`
	SelectionType string     `gorm:"size:16;not null;default:'random';check:selection_type IN ('random','failed')" json:"selectionType"`
	BranchID      *int64     `gorm:"index" json:"branchId,omitempty"`
	Status        DuelStatus `gorm:"size:16;not null;default:'pending';index;check:status IN ('pending','active','completed','declined','expired')" json:"status"`

	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Result *DuelResult `gorm:"foreignKey:DuelID" json:"result,omitempty"`
}

// IsParticipant reports whether userID plays in this duel.
func (d *Duel) IsParticipant(userID int64) bool {
	return d.InitiatorID == userID || d.OpponentID == userID
}

// DuelResult is the outcome of exactly one completed duel. WinnerID is
// nil on a draw. Created once by result submission, immutable after.
type DuelResult struct {
	ID             string  `gorm:"primaryKey;type:uuid" json:"id"`
	DuelID         string  `gorm:"type:uuid;uniqueIndex;not null" json:"duelId"`
	WinnerID       *int64  `json:"winnerId"`
	InitiatorScore float64 `gorm:"not null" json:"initiatorScore"`
	OpponentScore  float64 `gorm:"not null" json:"opponentScore"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// QuestionSource says where a duel draws its questions from: a test or a
// course, never both. The unexported fields force construction through
// TestSource/CourseSource, so a duel can't be built with an ambiguous
// linkage.
type QuestionSource struct {
	kind string
	id   int64
}

func TestSource(id int64) QuestionSource   { return QuestionSource{kind: "test", id: id} }
func CourseSource(id int64) QuestionSource { return QuestionSource{kind: "course", id: id} }

func (qs QuestionSource) IsTest() bool { return qs.kind == "test" }
func (qs QuestionSource) ID() int64    { return qs.id }

// Apply stamps the single linkage column onto the duel.
func (qs QuestionSource) Apply(d *Duel) {
	id := qs.id
	if qs.kind == "test" {
		d.TestID = &id
		d.CourseID = nil
		return
	}
	d.CourseID = &id
	d.TestID = nil
}
