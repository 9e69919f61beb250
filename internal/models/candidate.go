package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CandidateStatus string

const (
	CandidateNew       CandidateStatus = "new"
	CandidateInterview CandidateStatus = "interview"
	CandidateAccepted  CandidateStatus = "accepted"
	CandidateRejected  CandidateStatus = "rejected"
)

// Candidate is a recruitment prospect. Only plain CRUD is supported.
type Candidate struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	FullName  string          `json:"fullName" gorm:"not null"`
	Email     string          `json:"email" gorm:"index"`
	Phone     string          `json:"phone"`
	Status    CandidateStatus `json:"status" gorm:"not null;default:'new'"`
	Notes     string          `json:"notes" gorm:"type:text"`
	CreatedBy uuid.UUID       `json:"createdBy" gorm:"type:uuid"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (c *Candidate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CandidateNew
	}
	return nil
}

type CreateCandidateRequest struct {
	FullName string `json:"fullName" validate:"required,max=200"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"max=40"`
	Notes    string `json:"notes" validate:"max=4000"`
}

type UpdateCandidateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new interview accepted rejected"`
}
