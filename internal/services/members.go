package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arnold/jcihub-api/internal/models"
	"github.com/arnold/jcihub-api/internal/policy"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type MemberService struct {
	Deps
}

func NewMemberService(d Deps) *MemberService {
	return &MemberService{Deps: d.withDefaults()}
}

func (s *MemberService) Register(ctx context.Context, req models.RegisterRequest) (*models.Member, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, invalid("email is required")
	}
	if len(req.Password) < 6 {
		return nil, invalid("password must be at least 6 characters")
	}

	db := s.DB.WithContext(ctx)
	var existing int64
	if err := db.Model(&models.Member{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = strings.Split(email, "@")[0]
	}

	member := &models.Member{
		Email:       email,
		Password:    string(hashed),
		DisplayName: displayName,
		Role:        models.RoleMember,
	}
	if err := db.Create(member).Error; err != nil {
		return nil, err
	}
	s.Log.Info("member registered", zap.Stringer("member_id", member.ID))
	return member, nil
}

func (s *MemberService) Authenticate(ctx context.Context, email, password string) (*models.Member, error) {
	var member models.Member
	err := s.DB.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &member, nil
}

func (s *MemberService) Get(ctx context.Context, memberID uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := s.DB.WithContext(ctx).First(&member, "id = ?", memberID).Error; err != nil {
		return nil, notFound(err, "member")
	}
	return &member, nil
}

// List returns members ordered by points, optionally filtered by role.
func (s *MemberService) List(ctx context.Context, role string) ([]models.Member, error) {
	q := s.DB.WithContext(ctx).Order("points DESC").Order("display_name ASC")
	if role != "" {
		r, ok := models.ParseRole(role)
		if !ok {
			return nil, invalid("unknown role %q", role)
		}
		q = q.Where("role = ?", r)
	}
	members := []models.Member{}
	err := q.Find(&members).Error
	return members, err
}

// Actor loads the role of an authenticated member for policy checks.
func (s *MemberService) Actor(ctx context.Context, memberID uuid.UUID) (policy.Actor, error) {
	var member models.Member
	if err := s.DB.WithContext(ctx).Select("id", "role").First(&member, "id = ?", memberID).Error; err != nil {
		return policy.Actor{}, notFound(err, "member")
	}
	return policy.Actor{MemberID: member.ID, Role: member.Role}, nil
}

func (s *MemberService) UpdateProfile(ctx context.Context, actor policy.Actor, memberID uuid.UUID, req models.UpdateProfileRequest) (*models.Member, error) {
	if err := s.Policy.Evaluate(actor, policy.EditProfile, memberID).Err(); err != nil {
		return nil, err
	}
	member, err := s.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			return nil, invalid("display name must not be empty")
		}
		member.DisplayName = name
	}
	// Slices go through the model so the json serializer applies.
	if req.Strengths != nil {
		member.Strengths = req.Strengths
	}
	if req.Weaknesses != nil {
		member.Weaknesses = req.Weaknesses
	}
	if err := s.DB.WithContext(ctx).Model(member).
		Select("display_name", "strengths", "weaknesses").
		Updates(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

func (s *MemberService) SetRole(ctx context.Context, actor policy.Actor, memberID uuid.UUID, role string) (*models.Member, error) {
	if err := s.Policy.Evaluate(actor, policy.ManageMembers, memberID).Err(); err != nil {
		return nil, err
	}
	r, ok := models.ParseRole(role)
	if !ok {
		return nil, invalid("unknown role %q", role)
	}
	if err := s.update(ctx, memberID, map[string]interface{}{"role": r}); err != nil {
		return nil, err
	}
	s.Log.Info("member role changed",
		zap.Stringer("member_id", memberID),
		zap.String("role", string(r)),
		zap.Stringer("by", actor.MemberID))
	return s.Get(ctx, memberID)
}

func (s *MemberService) SetValidation(ctx context.Context, actor policy.Actor, memberID uuid.UUID, validated bool) (*models.Member, error) {
	if err := s.Policy.Evaluate(actor, policy.ManageMembers, memberID).Err(); err != nil {
		return nil, err
	}
	if err := s.update(ctx, memberID, map[string]interface{}{"is_validated": validated}); err != nil {
		return nil, err
	}
	if validated {
		s.Notifier.Notify(ctx, memberID, models.NotificationMemberValidated,
			"Membership validated",
			"Your chapter membership has been validated",
			nil,
		)
	}
	return s.Get(ctx, memberID)
}

func (s *MemberService) SetCotisation(ctx context.Context, actor policy.Actor, memberID uuid.UUID, req models.UpdateCotisationRequest) (*models.Member, error) {
	if err := s.Policy.Evaluate(actor, policy.ManageMembers, memberID).Err(); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.CotisationS1 != nil {
		updates["cotisation_s1"] = *req.CotisationS1
	}
	if req.CotisationS2 != nil {
		updates["cotisation_s2"] = *req.CotisationS2
	}
	if len(updates) == 0 {
		return nil, invalid("nothing to update")
	}
	if err := s.update(ctx, memberID, updates); err != nil {
		return nil, err
	}
	return s.Get(ctx, memberID)
}

// SetAdvisor links the member to an advisor, or clears the link when
// advisorID is nil.
func (s *MemberService) SetAdvisor(ctx context.Context, actor policy.Actor, memberID uuid.UUID, advisorID *uuid.UUID) (*models.Member, error) {
	if err := s.Policy.Evaluate(actor, policy.ManageMembers, memberID).Err(); err != nil {
		return nil, err
	}
	if advisorID != nil {
		if *advisorID == memberID {
			return nil, invalid("a member cannot advise themselves")
		}
		if _, err := s.Get(ctx, *advisorID); err != nil {
			return nil, err
		}
	}
	if err := s.update(ctx, memberID, map[string]interface{}{"advisor_id": advisorID}); err != nil {
		return nil, err
	}
	return s.Get(ctx, memberID)
}

func (s *MemberService) SetDeviceToken(ctx context.Context, memberID uuid.UUID, token string) error {
	return s.update(ctx, memberID, map[string]interface{}{"fcm_token": strings.TrimSpace(token)})
}

// Delete removes the member together with their ledger, assignments,
// participations and notifications. Advisees lose their advisor link.
func (s *MemberService) Delete(ctx context.Context, actor policy.Actor, memberID uuid.UUID) error {
	if err := s.Policy.Evaluate(actor, policy.ManageMembers, memberID).Err(); err != nil {
		return err
	}
	if actor.MemberID == memberID {
		return invalid("members cannot delete themselves")
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{SkipHooks: true}).
			Where("member_id = ?", memberID).
			Delete(&models.PointsHistoryEntry{}).Error; err != nil {
			return err
		}
		for _, model := range []interface{}{
			&models.UserObjective{},
			&models.ActivityParticipant{},
			&models.Notification{},
		} {
			if err := tx.Where("member_id = ?", memberID).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Member{}).
			Where("advisor_id = ?", memberID).
			Update("advisor_id", nil).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", memberID).Delete(&models.Member{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: member", ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.Log.Info("member deleted", zap.Stringer("member_id", memberID), zap.Stringer("by", actor.MemberID))
	return nil
}

func (s *MemberService) update(ctx context.Context, memberID uuid.UUID, updates map[string]interface{}) error {
	res := s.DB.WithContext(ctx).Model(&models.Member{}).Where("id = ?", memberID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: member", ErrNotFound)
	}
	return nil
}
