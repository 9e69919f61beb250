package services

import (
	"time"

	"github.com/arnold/jcihub-api/internal/policy"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	EventPointsGranted      = "points_granted"
	EventObjectiveCompleted = "objective_completed"
)

// Event is pushed to realtime subscribers after a commit.
type Event struct {
	Type     string      `json:"type"`
	MemberID string      `json:"memberId"`
	Data     interface{} `json:"data,omitempty"`
}

type Publisher interface {
	Publish(Event)
}

// Deps carries the collaborators shared by every service.
type Deps struct {
	DB       *gorm.DB
	Log      *zap.Logger
	Policy   *policy.Policy
	Notifier *NotificationService
	Events   Publisher
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Policy == nil {
		d.Policy = policy.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func (d Deps) publish(e Event) {
	if d.Events != nil {
		d.Events.Publish(e)
	}
}
