package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity is a chapter event. Recorded participants earn Points once.
type Activity struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"startsAt" gorm:"index"`
	Points      int       `json:"points" gorm:"not null;default:0"`
	CreatedBy   uuid.UUID `json:"createdBy" gorm:"type:uuid"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Participants []ActivityParticipant `json:"participants,omitempty" gorm:"foreignKey:ActivityID"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type ActivityParticipant struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ActivityID    uuid.UUID `json:"activityId" gorm:"type:uuid;not null;uniqueIndex:idx_activity_member"`
	MemberID      uuid.UUID `json:"memberId" gorm:"type:uuid;not null;uniqueIndex:idx_activity_member;index"`
	RecordedBy    uuid.UUID `json:"recordedBy" gorm:"type:uuid"`
	PointsAwarded int       `json:"pointsAwarded"`
	CreatedAt     time.Time `json:"createdAt"`

	Member Member `json:"member,omitempty" gorm:"foreignKey:MemberID"`
}

func (p *ActivityParticipant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type CreateActivityRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Location    string    `json:"location" validate:"max=200"`
	StartsAt    time.Time `json:"startsAt" validate:"required"`
	Points      int       `json:"points" validate:"gte=0"`
}

type RecordParticipationRequest struct {
	MemberID uuid.UUID `json:"memberId" validate:"required"`
}
