package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SourceType string

const (
	SourceManual    SourceType = "manual"
	SourceActivity  SourceType = "activity"
	SourceObjective SourceType = "objective"
)

func (s SourceType) Valid() bool {
	switch s {
	case SourceManual, SourceActivity, SourceObjective:
		return true
	}
	return false
}

var ErrLedgerImmutable = errors.New("points history entries are append-only")

// PointsHistoryEntry is one ledger row. Rows are written once and never
// changed; the hooks below reject updates and deletes issued through gorm.
type PointsHistoryEntry struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	MemberID    uuid.UUID  `json:"memberId" gorm:"type:uuid;not null;index:idx_points_member_created"`
	Points      int        `json:"points" gorm:"not null"`
	SourceType  SourceType `json:"sourceType" gorm:"not null"`
	Description string     `json:"description" gorm:"type:text;not null"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"index:idx_points_member_created;index"`
}

func (PointsHistoryEntry) TableName() string {
	return "points_history"
}

func (e *PointsHistoryEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *PointsHistoryEntry) BeforeUpdate(tx *gorm.DB) error {
	return ErrLedgerImmutable
}

func (e *PointsHistoryEntry) BeforeDelete(tx *gorm.DB) error {
	return ErrLedgerImmutable
}

type GrantPointsRequest struct {
	Points      int    `json:"points"`
	Description string `json:"description" validate:"required,max=500"`
}

// Window scopes aggregate point computations.
type Window string

const (
	WindowWeek    Window = "week"
	WindowMonth   Window = "month"
	WindowQuarter Window = "quarter"
	WindowYear    Window = "year"
	WindowAll     Window = "all"
)

var Windows = []Window{WindowWeek, WindowMonth, WindowQuarter, WindowYear, WindowAll}

func ParseWindow(s string) (Window, bool) {
	for _, w := range Windows {
		if string(w) == s {
			return w, true
		}
	}
	return "", false
}

// Start returns the inclusive lower bound of the window relative to now,
// in now's location. The zero time means unbounded.
func (w Window) Start(now time.Time) time.Time {
	y, m, _ := now.Date()
	loc := now.Location()
	switch w {
	case WindowWeek:
		return now.AddDate(0, 0, -7)
	case WindowMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case WindowQuarter:
		first := time.Month((int(m)-1)/3*3 + 1)
		return time.Date(y, first, 1, 0, 0, 0, 0, loc)
	case WindowYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Time{}
	}
}

type LeaderboardEntry struct {
	Member      MemberSummary `json:"member"`
	TotalGained int           `json:"totalGained"`
}

type PointsSummary struct {
	MemberID   uuid.UUID      `json:"memberId"`
	Points     int            `json:"points"`
	Rank       int            `json:"rank"`
	Level      string         `json:"level"`
	Aggregates map[Window]int `json:"aggregates"`
}

type ReconcileResult struct {
	MemberID uuid.UUID `json:"memberId"`
	Cached   int       `json:"cached"`
	Ledger   int       `json:"ledger"`
	Repaired bool      `json:"repaired"`
}
