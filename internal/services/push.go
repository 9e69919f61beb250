package services

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/arnold/jcihub-api/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

// PushService handles sending push notifications via Firebase Cloud Messaging
type PushService struct {
	client *messaging.Client
	db     *gorm.DB
	log    *zap.Logger
}

// NewPush initializes the Firebase push notification service.
// Returns a disabled service if no service account is configured (dev mode)
// or Firebase cannot be reached.
func NewPush(ctx context.Context, serviceAccountPath string, db *gorm.DB, log *zap.Logger) *PushService {
	p := &PushService{db: db, log: log}
	if serviceAccountPath == "" {
		log.Info("FCM: no service account configured, push notifications disabled")
		return p
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		log.Warn("FCM: failed to initialize Firebase app", zap.Error(err))
		return p
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		log.Warn("FCM: failed to get messaging client", zap.Error(err))
		return p
	}

	p.client = client
	log.Info("FCM: push notifications enabled")
	return p
}

func (p *PushService) Enabled() bool {
	return p != nil && p.client != nil
}

// SendToMember sends a push notification to a member by their ID.
// No-op if push is not configured or the member has no FCM token.
func (p *PushService) SendToMember(ctx context.Context, memberID uuid.UUID, title, body string, data map[string]string) {
	if !p.Enabled() {
		return
	}

	var member models.Member
	if err := p.db.WithContext(ctx).Select("fcm_token").First(&member, "id = ?", memberID).Error; err != nil {
		return
	}

	if member.FCMToken == "" {
		return
	}

	msg := &messaging.Message{
		Token: member.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	}

	if data != nil {
		msg.Data = data
	}

	if _, err := p.client.Send(ctx, msg); err != nil {
		p.log.Warn("FCM: send failed", zap.Stringer("member_id", memberID), zap.Error(err))
	}
}
