package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RolePresident     Role = "president"
	RoleVicePresident Role = "vice_president"
	RoleSecretary     Role = "secretary"
	RoleTreasurer     Role = "treasurer"
	RoleDirector      Role = "director"
	RoleMember        Role = "member"
)

var Roles = []Role{RolePresident, RoleVicePresident, RoleSecretary, RoleTreasurer, RoleDirector, RoleMember}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// Member is a chapter participant. Points is a cache of the sum of the
// member's PointsHistoryEntry rows.
type Member struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	Password     string     `json:"-"`
	DisplayName  string     `json:"displayName"`
	Role         Role       `json:"role" gorm:"not null;default:'member';index"`
	Points       int        `json:"points" gorm:"not null;default:0;index"`
	IsValidated  bool       `json:"isValidated" gorm:"default:false"`
	CotisationS1 bool       `json:"cotisationS1" gorm:"default:false"`
	CotisationS2 bool       `json:"cotisationS2" gorm:"default:false"`
	Strengths    []string   `json:"strengths" gorm:"serializer:json"`
	Weaknesses   []string   `json:"weaknesses" gorm:"serializer:json"`
	AdvisorID    *uuid.UUID `json:"advisorId" gorm:"type:uuid;index"`
	FCMToken     string     `json:"-" gorm:"column:fcm_token"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Role == "" {
		m.Role = RoleMember
	}
	return nil
}

func (m *Member) Level() string {
	switch {
	case m.Points >= 2000:
		return "diamond"
	case m.Points >= 500:
		return "gold"
	case m.Points >= 100:
		return "silver"
	default:
		return "bronze"
	}
}

// Auth DTOs
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"displayName" validate:"max=120"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token  string `json:"token"`
	Member Member `json:"member"`
}

type UpdateProfileRequest struct {
	DisplayName *string  `json:"displayName" validate:"omitempty,max=120"`
	Strengths   []string `json:"strengths" validate:"omitempty,max=20,dive,max=80"`
	Weaknesses  []string `json:"weaknesses" validate:"omitempty,max=20,dive,max=80"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type UpdateValidationRequest struct {
	IsValidated bool `json:"isValidated"`
}

type UpdateCotisationRequest struct {
	CotisationS1 *bool `json:"cotisationS1"`
	CotisationS2 *bool `json:"cotisationS2"`
}

type UpdateAdvisorRequest struct {
	AdvisorID *uuid.UUID `json:"advisorId"`
}

// MemberSummary is the public projection used in lists and leaderboards.
type MemberSummary struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	Role        Role      `json:"role"`
	Points      int       `json:"points"`
	Level       string    `json:"level"`
}

func (m *Member) Summary() MemberSummary {
	return MemberSummary{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		Role:        m.Role,
		Points:      m.Points,
		Level:       m.Level(),
	}
}
