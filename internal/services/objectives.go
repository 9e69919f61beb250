package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arnold/jcihub-api/internal/models"
	"github.com/arnold/jcihub-api/internal/policy"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ObjectiveService struct {
	Deps
	points *PointsService
}

func NewObjectiveService(d Deps, points *PointsService) *ObjectiveService {
	return &ObjectiveService{Deps: d.withDefaults(), points: points}
}

func (s *ObjectiveService) CreateObjective(ctx context.Context, actor policy.Actor, req models.CreateObjectiveRequest) (*models.Objective, error) {
	if err := s.Policy.Evaluate(actor, policy.ManageObjectives, uuid.Nil).Err(); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title is required")
	}

	class, err := models.NewClassification(models.Group(req.Group), req.ActionType, req.Feature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	target := req.TargetCount
	if target == 0 {
		target = 1
	}
	if target < 1 {
		return nil, invalid("target count must be at least 1")
	}
	if req.Points < 0 {
		return nil, invalid("points must not be negative")
	}

	roles := make([]models.Role, 0, len(req.TargetRoles))
	for _, raw := range req.TargetRoles {
		role, ok := models.ParseRole(raw)
		if !ok {
			return nil, invalid("unknown role %q", raw)
		}
		roles = append(roles, role)
	}

	difficulty := models.Difficulty(req.Difficulty)
	if difficulty == "" {
		difficulty = models.DeriveDifficulty(req.Points, target)
	}

	obj := &models.Objective{
		Title:          title,
		Description:    strings.TrimSpace(req.Description),
		Classification: class,
		Difficulty:     difficulty,
		IsPrivate:      req.IsPrivate,
		TargetRoles:    roles,
		TargetCount:    target,
		Points:         req.Points,
		CreatedBy:      actor.MemberID,
	}
	if err := obj.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.DB.WithContext(ctx).Create(obj).Error; err != nil {
		s.Log.Error("objective create failed", zap.String("title", title), zap.Error(err))
		return nil, err
	}
	return obj, nil
}

// DeleteObjective removes the template and every assignment of it. Points
// already granted for it stay on the ledger.
func (s *ObjectiveService) DeleteObjective(ctx context.Context, actor policy.Actor, objectiveID uuid.UUID) error {
	if err := s.Policy.Evaluate(actor, policy.ManageObjectives, uuid.Nil).Err(); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("objective_id = ?", objectiveID).Delete(&models.UserObjective{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", objectiveID).Delete(&models.Objective{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: objective", ErrNotFound)
		}
		return nil
	})
}

func (s *ObjectiveService) ListObjectives(ctx context.Context) ([]models.Objective, error) {
	objectives := []models.Objective{}
	err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&objectives).Error
	return objectives, err
}

func (s *ObjectiveService) GetObjective(ctx context.Context, objectiveID uuid.UUID) (*models.Objective, error) {
	var obj models.Objective
	if err := s.DB.WithContext(ctx).First(&obj, "id = ?", objectiveID).Error; err != nil {
		return nil, notFound(err, "objective")
	}
	return &obj, nil
}

// ListForMember returns every objective the member's role is eligible for,
// each paired with the member's assignment or nil when not started.
func (s *ObjectiveService) ListForMember(ctx context.Context, memberID uuid.UUID) ([]models.MemberObjective, error) {
	db := s.DB.WithContext(ctx)

	var member models.Member
	if err := db.First(&member, "id = ?", memberID).Error; err != nil {
		return nil, notFound(err, "member")
	}

	var objectives []models.Objective
	if err := db.Order("created_at DESC").Find(&objectives).Error; err != nil {
		return nil, err
	}

	var assignments []models.UserObjective
	if err := db.Where("member_id = ?", memberID).Find(&assignments).Error; err != nil {
		return nil, err
	}
	byObjective := make(map[uuid.UUID]*models.UserObjective, len(assignments))
	for i := range assignments {
		byObjective[assignments[i].ObjectiveID] = &assignments[i]
	}

	out := []models.MemberObjective{}
	for _, obj := range objectives {
		if !obj.EligibleFor(member.Role) {
			continue
		}
		a := byObjective[obj.ID]
		if a != nil {
			a.Resolve(obj.TargetCount)
		}
		out = append(out, models.MemberObjective{Objective: obj, Assignment: a})
	}
	return out, nil
}

// Assign starts the objective for the member with zero progress. A second
// assignment of the same pair fails with ErrAlreadyAssigned.
func (s *ObjectiveService) Assign(ctx context.Context, actor policy.Actor, memberID, objectiveID uuid.UUID) (*models.UserObjective, error) {
	if err := s.Policy.Evaluate(actor, policy.AssignObjective, memberID).Err(); err != nil {
		return nil, err
	}

	var assignment models.UserObjective
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var member models.Member
		if err := tx.First(&member, "id = ?", memberID).Error; err != nil {
			return notFound(err, "member")
		}
		var obj models.Objective
		if err := tx.First(&obj, "id = ?", objectiveID).Error; err != nil {
			return notFound(err, "objective")
		}
		if !obj.EligibleFor(member.Role) {
			return invalid("objective is not available for role %q", member.Role)
		}

		var existing int64
		if err := tx.Model(&models.UserObjective{}).
			Where("member_id = ? AND objective_id = ?", memberID, objectiveID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyAssigned
		}

		assignment = models.UserObjective{
			MemberID:    memberID,
			ObjectiveID: objectiveID,
			Progress:    0,
			AssignedAt:  s.Now().UTC(),
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return err
		}
		assignment.Resolve(obj.TargetCount)
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrAlreadyAssigned) {
			s.Log.Warn("objective assign failed",
				zap.Stringer("member_id", memberID),
				zap.Stringer("objective_id", objectiveID),
				zap.Error(err))
		}
		return nil, err
	}
	return &assignment, nil
}

// Unassign deletes the assignment. Points granted for a completed
// assignment are kept.
func (s *ObjectiveService) Unassign(ctx context.Context, actor policy.Actor, memberID, objectiveID uuid.UUID) error {
	if err := s.Policy.Evaluate(actor, policy.UnassignObjective, memberID).Err(); err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).
		Where("member_id = ? AND objective_id = ?", memberID, objectiveID).
		Delete(&models.UserObjective{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: assignment", ErrNotFound)
	}
	return nil
}

// SetProgress is the executive override that sets progress directly.
func (s *ObjectiveService) SetProgress(ctx context.Context, actor policy.Actor, memberID, objectiveID uuid.UUID, progress int) (*models.ProgressResult, error) {
	if err := s.Policy.Evaluate(actor, policy.SetProgress, memberID).Err(); err != nil {
		return nil, err
	}
	return s.updateProgress(ctx, memberID, objectiveID, func(int) int { return progress })
}

// StepProgress moves progress by step, typically +1 or -1.
func (s *ObjectiveService) StepProgress(ctx context.Context, actor policy.Actor, memberID, objectiveID uuid.UUID, step int) (*models.ProgressResult, error) {
	if err := s.Policy.Evaluate(actor, policy.StepProgress, memberID).Err(); err != nil {
		return nil, err
	}
	if step == 0 {
		return nil, invalid("step must not be zero")
	}
	return s.updateProgress(ctx, memberID, objectiveID, func(cur int) int { return cur + step })
}

// updateProgress clamps the new progress to [0, target]. Reaching the
// target completes the assignment and grants the objective's points in the
// same transaction. The completing UPDATE is conditional on the stored
// progress still being below target, so only one writer can complete an
// assignment and the reward is granted once. Completed assignments are
// returned unchanged.
func (s *ObjectiveService) updateProgress(ctx context.Context, memberID, objectiveID uuid.UUID, next func(int) int) (*models.ProgressResult, error) {
	var (
		result  models.ProgressResult
		granted *models.PointsHistoryEntry
		obj     models.Objective
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&obj, "id = ?", objectiveID).Error; err != nil {
			return notFound(err, "objective")
		}
		var uo models.UserObjective
		if err := tx.Where("member_id = ? AND objective_id = ?", memberID, objectiveID).First(&uo).Error; err != nil {
			return notFound(err, "assignment")
		}

		target := obj.TargetCount
		if uo.Progress >= target {
			uo.Resolve(target)
			result.Assignment = uo
			return nil
		}

		progress := clamp(next(uo.Progress), 0, target)
		if progress == uo.Progress {
			uo.Resolve(target)
			result.Assignment = uo
			return nil
		}

		completing := progress >= target
		updates := map[string]interface{}{"progress": progress}
		var completedAt time.Time
		if completing {
			completedAt = s.Now().UTC()
			updates["completed_at"] = completedAt
		}

		res := tx.Model(&models.UserObjective{}).
			Where("id = ? AND progress < ?", uo.ID, target).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Completed by a concurrent writer since it was read.
			if err := tx.First(&uo, "id = ?", uo.ID).Error; err != nil {
				return err
			}
			uo.Resolve(target)
			result.Assignment = uo
			return nil
		}

		uo.Progress = progress
		if completing {
			uo.CompletedAt = &completedAt
			result.JustCompleted = true
			if obj.Points != 0 {
				entry, err := s.points.grantTx(tx, memberID, obj.Points,
					fmt.Sprintf("Objective completed: %s", obj.Title), models.SourceObjective)
				if err != nil {
					return err
				}
				granted = entry
				result.PointsAwarded = obj.Points
			}
		}
		uo.Resolve(target)
		result.Assignment = uo
		return nil
	})
	if err != nil {
		if granted == nil && result.JustCompleted {
			pointsGrantFailures.WithLabelValues(string(models.SourceObjective)).Inc()
		}
		s.Log.Error("objective progress update failed",
			zap.Stringer("member_id", memberID),
			zap.Stringer("objective_id", objectiveID),
			zap.Error(err))
		return nil, err
	}

	if result.JustCompleted {
		objectivesCompleted.Inc()
		s.Log.Info("objective completed",
			zap.Stringer("member_id", memberID),
			zap.Stringer("objective_id", objectiveID),
			zap.Int("points", result.PointsAwarded))
		s.Notifier.Notify(ctx, memberID, models.NotificationObjectiveCompleted,
			"Objective completed!",
			fmt.Sprintf("You completed \"%s\"", obj.Title),
			map[string]interface{}{"objectiveId": objectiveID.String()},
		)
		s.publish(Event{
			Type:     EventObjectiveCompleted,
			MemberID: memberID.String(),
			Data:     map[string]interface{}{"objectiveId": objectiveID.String(), "points": result.PointsAwarded},
		})
	}
	s.points.afterGrant(ctx, granted)
	return &result, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
