package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/arnold/jcihub-api/internal/models"
	"github.com/arnold/jcihub-api/internal/policy"
	"github.com/google/uuid"
)

// CandidateService manages recruitment prospects. Every operation is
// executive-only.
type CandidateService struct {
	Deps
}

func NewCandidateService(d Deps) *CandidateService {
	return &CandidateService{Deps: d.withDefaults()}
}

func (s *CandidateService) allowed(actor policy.Actor) error {
	return s.Policy.Evaluate(actor, policy.ManageCandidates, uuid.Nil).Err()
}

func (s *CandidateService) List(ctx context.Context, actor policy.Actor, status string) ([]models.Candidate, error) {
	if err := s.allowed(actor); err != nil {
		return nil, err
	}
	q := s.DB.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	candidates := []models.Candidate{}
	err := q.Find(&candidates).Error
	return candidates, err
}

func (s *CandidateService) Create(ctx context.Context, actor policy.Actor, req models.CreateCandidateRequest) (*models.Candidate, error) {
	if err := s.allowed(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return nil, invalid("full name is required")
	}
	c := &models.Candidate{
		FullName:  name,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     strings.TrimSpace(req.Phone),
		Notes:     req.Notes,
		CreatedBy: actor.MemberID,
	}
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CandidateService) SetStatus(ctx context.Context, actor policy.Actor, id uuid.UUID, status string) (*models.Candidate, error) {
	if err := s.allowed(actor); err != nil {
		return nil, err
	}
	st := models.CandidateStatus(status)
	switch st {
	case models.CandidateNew, models.CandidateInterview, models.CandidateAccepted, models.CandidateRejected:
	default:
		return nil, invalid("unknown status %q", status)
	}

	db := s.DB.WithContext(ctx)
	res := db.Model(&models.Candidate{}).Where("id = ?", id).Update("status", st)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: candidate", ErrNotFound)
	}
	var c models.Candidate
	if err := db.First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "candidate")
	}
	return &c, nil
}

func (s *CandidateService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if err := s.allowed(actor); err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Candidate{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: candidate", ErrNotFound)
	}
	return nil
}
