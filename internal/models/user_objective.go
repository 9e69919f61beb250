package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserObjective binds one member to one objective. Only progress is
// authoritative; Completed is derived from it against the objective's
// target. CompletedAt records when the completion reward was granted.
type UserObjective struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	MemberID    uuid.UUID  `json:"memberId" gorm:"type:uuid;not null;uniqueIndex:idx_member_objective"`
	ObjectiveID uuid.UUID  `json:"objectiveId" gorm:"type:uuid;not null;uniqueIndex:idx_member_objective;index"`
	Progress    int        `json:"progress" gorm:"not null;default:0"`
	AssignedAt  time.Time  `json:"assignedAt"`
	CompletedAt *time.Time `json:"completedAt"`
	Completed   bool       `json:"completed" gorm:"-"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (uo *UserObjective) BeforeCreate(tx *gorm.DB) error {
	if uo.ID == uuid.Nil {
		uo.ID = uuid.New()
	}
	if uo.AssignedAt.IsZero() {
		uo.AssignedAt = time.Now()
	}
	return nil
}

// Resolve fills the derived Completed flag for the given target.
func (uo *UserObjective) Resolve(target int) {
	uo.Completed = uo.Progress >= target
}

type SetProgressRequest struct {
	Progress int `json:"progress"`
}

// MemberObjective pairs an eligible objective with the member's assignment,
// nil when the member has not started it.
type MemberObjective struct {
	Objective  Objective      `json:"objective"`
	Assignment *UserObjective `json:"assignment"`
}

// ProgressResult is returned by progress mutations.
type ProgressResult struct {
	Assignment    UserObjective `json:"assignment"`
	JustCompleted bool          `json:"justCompleted"`
	PointsAwarded int           `json:"pointsAwarded"`
}
