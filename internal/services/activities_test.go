package services

import (
	"context"
	"testing"
	"time"

	"github.com/arnold/jcihub-api/internal/models"
	"github.com/arnold/jcihub-api/internal/policy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordParticipationGrantsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.member(t, models.RolePresident)
	m := env.member(t, models.RoleMember)

	activity, err := env.activities.CreateActivity(ctx, admin, models.CreateActivityRequest{
		Title:    "General assembly",
		StartsAt: time.Date(2026, time.October, 20, 18, 0, 0, 0, time.UTC),
		Points:   25,
	})
	require.NoError(t, err)

	p, err := env.activities.RecordParticipation(ctx, admin, activity.ID, m.MemberID)
	require.NoError(t, err)
	assert.Equal(t, 25, p.PointsAwarded)
	assert.Equal(t, 25, env.cachedPoints(t, m.MemberID))

	_, err = env.activities.RecordParticipation(ctx, admin, activity.ID, m.MemberID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 25, env.cachedPoints(t, m.MemberID))

	history, err := env.points.History(ctx, m.MemberID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.SourceActivity, history[0].SourceType)

	participants, err := env.activities.ListParticipants(ctx, activity.ID)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, m.MemberID, participants[0].Member.ID)
}

func TestActivityRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.member(t, models.RolePresident)
	m := env.member(t, models.RoleMember)

	_, err := env.activities.CreateActivity(ctx, m, models.CreateActivityRequest{Title: "Party", StartsAt: env.now})
	assert.ErrorIs(t, err, policy.ErrForbidden)

	activity, err := env.activities.CreateActivity(ctx, admin, models.CreateActivityRequest{Title: "Meeting", StartsAt: env.now})
	require.NoError(t, err)

	_, err = env.activities.RecordParticipation(ctx, m, activity.ID, m.MemberID)
	assert.ErrorIs(t, err, policy.ErrForbidden)

	_, err = env.activities.RecordParticipation(ctx, admin, uuid.New(), m.MemberID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.activities.RecordParticipation(ctx, admin, activity.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	// Zero-point activities record attendance without touching the ledger.
	_, err = env.activities.RecordParticipation(ctx, admin, activity.ID, m.MemberID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, env.ledgerRows(t, m.MemberID))

	_, err = env.activities.ListParticipants(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := env.activities.ListActivities(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
