package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Group string

const (
	GroupTraining      Group = "training"
	GroupProject       Group = "project"
	GroupRecruitment   Group = "recruitment"
	GroupEvent         Group = "event"
	GroupCommunication Group = "communication"
)

type groupRules struct {
	privacy bool
	actions map[string][]string
}

// classifications is the closed set of valid (group, action, feature)
// triples. Groups flagged with privacy require IsPrivate to be set; the
// others require it to be nil.
var classifications = map[Group]groupRules{
	GroupTraining: {actions: map[string][]string{
		"attend":     {"workshop", "webinar", "national_training"},
		"facilitate": {"workshop", "webinar"},
		"complete":   {"certification", "online_course"},
	}},
	GroupProject: {privacy: true, actions: map[string][]string{
		"lead":        {"community", "business", "international"},
		"participate": {"community", "business", "international"},
	}},
	GroupRecruitment: {actions: map[string][]string{
		"invite":  {"prospect", "info_session"},
		"sponsor": {"new_member"},
	}},
	GroupEvent: {privacy: true, actions: map[string][]string{
		"attend":   {"general_assembly", "local_event", "regional_convention", "national_convention"},
		"organize": {"local_event", "fundraiser"},
	}},
	GroupCommunication: {actions: map[string][]string{
		"publish": {"social_post", "article", "newsletter"},
		"present": {"project_pitch", "speech"},
	}},
}

var ErrInvalidClassification = errors.New("invalid objective classification")

type Classification struct {
	Group      Group  `json:"group" gorm:"column:group_name;not null;index"`
	ActionType string `json:"actionType" gorm:"not null"`
	Feature    string `json:"feature" gorm:"not null"`
}

// NewClassification returns a classification only for triples present in
// the catalog.
func NewClassification(group Group, action, feature string) (Classification, error) {
	c := Classification{Group: group, ActionType: action, Feature: feature}
	if err := c.Validate(); err != nil {
		return Classification{}, err
	}
	return c, nil
}

func (c Classification) Validate() error {
	rules, ok := classifications[c.Group]
	if !ok {
		return fmt.Errorf("%w: unknown group %q", ErrInvalidClassification, c.Group)
	}
	features, ok := rules.actions[c.ActionType]
	if !ok {
		return fmt.Errorf("%w: action %q not valid for group %q", ErrInvalidClassification, c.ActionType, c.Group)
	}
	for _, f := range features {
		if f == c.Feature {
			return nil
		}
	}
	return fmt.Errorf("%w: feature %q not valid for %s/%s", ErrInvalidClassification, c.Feature, c.Group, c.ActionType)
}

// RequiresPrivacy reports whether objectives in this group carry a privacy flag.
func (c Classification) RequiresPrivacy() bool {
	return classifications[c.Group].privacy
}

// ClassificationCatalog exposes the valid triples for form builders.
func ClassificationCatalog() map[Group]map[string][]string {
	out := make(map[Group]map[string][]string, len(classifications))
	for g, rules := range classifications {
		actions := make(map[string][]string, len(rules.actions))
		for a, fs := range rules.actions {
			actions[a] = append([]string(nil), fs...)
		}
		out[g] = actions
	}
	return out
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

func DeriveDifficulty(points, target int) Difficulty {
	switch {
	case points >= 50 || target >= 10:
		return DifficultyHard
	case points >= 20 || target >= 4:
		return DifficultyMedium
	default:
		return DifficultyEasy
	}
}

// Objective is a reusable goal template. Templates are not edited after
// creation, only deleted.
type Objective struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Title          string         `json:"title" gorm:"not null"`
	Description    string         `json:"description" gorm:"type:text"`
	Classification Classification `json:"classification" gorm:"embedded"`
	Difficulty     Difficulty     `json:"difficulty" gorm:"not null"`
	IsPrivate      *bool          `json:"isPrivate"`
	TargetRoles    []Role         `json:"targetRoles" gorm:"serializer:json"`
	TargetCount    int            `json:"targetCount" gorm:"not null;default:1"`
	Points         int            `json:"points" gorm:"not null;default:0"`
	CreatedBy      uuid.UUID      `json:"createdBy" gorm:"type:uuid"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (o *Objective) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (o *Objective) BeforeSave(tx *gorm.DB) error {
	return o.Validate()
}

func (o *Objective) Validate() error {
	if err := o.Classification.Validate(); err != nil {
		return err
	}
	if o.Classification.RequiresPrivacy() && o.IsPrivate == nil {
		return fmt.Errorf("%w: group %q requires a privacy flag", ErrInvalidClassification, o.Classification.Group)
	}
	if !o.Classification.RequiresPrivacy() && o.IsPrivate != nil {
		return fmt.Errorf("%w: group %q does not take a privacy flag", ErrInvalidClassification, o.Classification.Group)
	}
	if o.TargetCount < 1 {
		return errors.New("target count must be at least 1")
	}
	if o.Points < 0 {
		return errors.New("points must not be negative")
	}
	if !o.Difficulty.Valid() {
		return fmt.Errorf("unknown difficulty %q", o.Difficulty)
	}
	return nil
}

// EligibleFor reports whether a member with the given role may take this
// objective. An empty role set means everyone.
func (o *Objective) EligibleFor(role Role) bool {
	if len(o.TargetRoles) == 0 {
		return true
	}
	for _, r := range o.TargetRoles {
		if r == role {
			return true
		}
	}
	return false
}

type CreateObjectiveRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Group       string   `json:"group" validate:"required"`
	ActionType  string   `json:"actionType" validate:"required"`
	Feature     string   `json:"feature" validate:"required"`
	Difficulty  string   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	IsPrivate   *bool    `json:"isPrivate"`
	TargetRoles []string `json:"targetRoles"`
	TargetCount int      `json:"targetCount" validate:"gte=0"`
	Points      int      `json:"points" validate:"gte=0"`
}
