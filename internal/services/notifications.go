package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arnold/jcihub-api/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type NotificationService struct {
	db   *gorm.DB
	push *PushService
	log  *zap.Logger
}

func NewNotificationService(db *gorm.DB, push *PushService, log *zap.Logger) *NotificationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationService{db: db, push: push, log: log}
}

// Notify stores a notification for the member and sends a push in the
// background. Failures are logged, never returned: notifications must not
// undo a committed mutation.
func (n *NotificationService) Notify(ctx context.Context, memberID uuid.UUID, notifType, title, body string, metadata map[string]interface{}) {
	if n == nil {
		return
	}

	notif := models.Notification{
		MemberID: memberID,
		Type:     notifType,
		Title:    title,
		Body:     body,
	}

	var pushData map[string]string
	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err == nil {
			s := string(data)
			notif.Metadata = &s
		}
		pushData = make(map[string]string, len(metadata)+1)
		for k, v := range metadata {
			pushData[k] = fmt.Sprintf("%v", v)
		}
		pushData["type"] = notifType
	}

	if err := n.db.WithContext(ctx).Create(&notif).Error; err != nil {
		n.log.Error("notification insert failed", zap.Stringer("member_id", memberID), zap.String("type", notifType), zap.Error(err))
		return
	}

	if n.push.Enabled() {
		go n.push.SendToMember(context.Background(), memberID, title, body, pushData)
	}
}

type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	Unread        int64                 `json:"unread"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
}

func (n *NotificationService) List(ctx context.Context, memberID uuid.UUID, page, limit int) (*NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	db := n.db.WithContext(ctx)

	out := &NotificationPage{Notifications: []models.Notification{}, Page: page, Limit: limit}
	if err := db.Where("member_id = ?", memberID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&out.Notifications).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Notification{}).Where("member_id = ?", memberID).Count(&out.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Notification{}).Where("member_id = ? AND read = ?", memberID, false).Count(&out.Unread).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (n *NotificationService) MarkRead(ctx context.Context, memberID, notificationID uuid.UUID) error {
	res := n.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND member_id = ?", notificationID, memberID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: notification", ErrNotFound)
	}
	return nil
}

func (n *NotificationService) MarkAllRead(ctx context.Context, memberID uuid.UUID) error {
	return n.db.WithContext(ctx).Model(&models.Notification{}).
		Where("member_id = ? AND read = ?", memberID, false).
		Update("read", true).Error
}
