package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/arnold/jcihub-api/internal/models"
	"github.com/arnold/jcihub-api/internal/policy"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ActivityService struct {
	Deps
	points *PointsService
}

func NewActivityService(d Deps, points *PointsService) *ActivityService {
	return &ActivityService{Deps: d.withDefaults(), points: points}
}

func (s *ActivityService) CreateActivity(ctx context.Context, actor policy.Actor, req models.CreateActivityRequest) (*models.Activity, error) {
	if err := s.Policy.Evaluate(actor, policy.ManageActivities, uuid.Nil).Err(); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	if req.Points < 0 {
		return nil, invalid("points must not be negative")
	}

	activity := &models.Activity{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		StartsAt:    req.StartsAt.UTC(),
		Points:      req.Points,
		CreatedBy:   actor.MemberID,
	}
	if err := s.DB.WithContext(ctx).Create(activity).Error; err != nil {
		return nil, err
	}
	return activity, nil
}

// ListActivities returns activities, most recent start first.
func (s *ActivityService) ListActivities(ctx context.Context) ([]models.Activity, error) {
	activities := []models.Activity{}
	err := s.DB.WithContext(ctx).Order("starts_at DESC").Find(&activities).Error
	return activities, err
}

// RecordParticipation marks the member as having attended and grants the
// activity's points. Each member is recorded at most once per activity.
func (s *ActivityService) RecordParticipation(ctx context.Context, actor policy.Actor, activityID, memberID uuid.UUID) (*models.ActivityParticipant, error) {
	if err := s.Policy.Evaluate(actor, policy.RecordParticipation, memberID).Err(); err != nil {
		return nil, err
	}

	var (
		participant models.ActivityParticipant
		granted     *models.PointsHistoryEntry
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var activity models.Activity
		if err := tx.First(&activity, "id = ?", activityID).Error; err != nil {
			return notFound(err, "activity")
		}

		var existing int64
		if err := tx.Model(&models.ActivityParticipant{}).
			Where("activity_id = ? AND member_id = ?", activityID, memberID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: participation already recorded", ErrConflict)
		}

		participant = models.ActivityParticipant{
			ActivityID:    activityID,
			MemberID:      memberID,
			RecordedBy:    actor.MemberID,
			PointsAwarded: activity.Points,
		}
		if activity.Points != 0 {
			entry, err := s.points.grantTx(tx, memberID, activity.Points,
				fmt.Sprintf("Activity: %s", activity.Title), models.SourceActivity)
			if err != nil {
				return err
			}
			granted = entry
		} else if err := tx.First(&models.Member{}, "id = ?", memberID).Error; err != nil {
			return notFound(err, "member")
		}
		return tx.Create(&participant).Error
	})
	if err != nil {
		s.Log.Warn("participation not recorded",
			zap.Stringer("activity_id", activityID),
			zap.Stringer("member_id", memberID),
			zap.Error(err))
		return nil, err
	}

	s.points.afterGrant(ctx, granted)
	return &participant, nil
}

func (s *ActivityService) ListParticipants(ctx context.Context, activityID uuid.UUID) ([]models.ActivityParticipant, error) {
	db := s.DB.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Activity{}).Where("id = ?", activityID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: activity", ErrNotFound)
	}

	participants := []models.ActivityParticipant{}
	err := db.Preload("Member").
		Where("activity_id = ?", activityID).
		Order("created_at ASC").
		Find(&participants).Error
	return participants, err
}
