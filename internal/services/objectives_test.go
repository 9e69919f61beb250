package services

import (
	"context"
	"testing"

	"github.com/arnold/jcihub-api/internal/models"
	"github.com/arnold/jcihub-api/internal/policy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectiveCompletionScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.member(t, models.RolePresident)
	m := env.member(t, models.RoleMember)

	_, err := env.points.Grant(ctx, admin, m.MemberID, 100, "Initial", models.SourceManual)
	require.NoError(t, err)
	_, err = env.points.Grant(ctx, admin, m.MemberID, 50, "Bonus", models.SourceManual)
	require.NoError(t, err)
	assert.EqualValues(t, 2, env.ledgerRows(t, m.MemberID))
	assert.Equal(t, 150, env.cachedPoints(t, m.MemberID))

	obj := env.objective(t, 3, 20)
	_, err = env.objectives.Assign(ctx, m, m.MemberID, obj.ID)
	require.NoError(t, err)

	res, err := env.objectives.SetProgress(ctx, admin, m.MemberID, obj.ID, 3)
	require.NoError(t, err)
	assert.True(t, res.JustCompleted)
	assert.True(t, res.Assignment.Completed)
	assert.NotNil(t, res.Assignment.CompletedAt)
	assert.Equal(t, 20, res.PointsAwarded)
	assert.EqualValues(t, 3, env.ledgerRows(t, m.MemberID))
	assert.Equal(t, 170, env.cachedPoints(t, m.MemberID))

	history, err := env.points.History(ctx, m.MemberID)
	require.NoError(t, err)
	assert.Equal(t, models.SourceObjective, history[0].SourceType)
	assert.Equal(t, 20, history[0].Points)

	res, err = env.objectives.SetProgress(ctx, admin, m.MemberID, obj.ID, 3)
	require.NoError(t, err)
	assert.False(t, res.JustCompleted)
	assert.True(t, res.Assignment.Completed)
	assert.Zero(t, res.PointsAwarded)
	assert.EqualValues(t, 3, env.ledgerRows(t, m.MemberID))
	assert.Equal(t, 170, env.cachedPoints(t, m.MemberID))
}

func TestProgressIsClamped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.member(t, models.RoleSecretary)
	m := env.member(t, models.RoleMember)
	obj := env.objective(t, 5, 10)
	_, err := env.objectives.Assign(ctx, admin, m.MemberID, obj.ID)
	require.NoError(t, err)

	res, err := env.objectives.SetProgress(ctx, admin, m.MemberID, obj.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Assignment.Progress)

	res, err = env.objectives.SetProgress(ctx, admin, m.MemberID, obj.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Assignment.Progress)
	assert.False(t, res.Assignment.Completed)

	res, err = env.objectives.SetProgress(ctx, admin, m.MemberID, obj.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Assignment.Progress)
	assert.True(t, res.JustCompleted)
	assert.Equal(t, 10, env.cachedPoints(t, m.MemberID))

	var stored models.UserObjective
	require.NoError(t, env.db.First(&stored, "id = ?", res.Assignment.ID).Error)
	assert.Equal(t, 5, stored.Progress)
}

func TestStepProgressSelfServe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.member(t, models.RoleMember)
	other := env.member(t, models.RoleMember)
	obj := env.objective(t, 2, 15)

	_, err := env.objectives.Assign(ctx, m, m.MemberID, obj.ID)
	require.NoError(t, err)

	_, err = env.objectives.StepProgress(ctx, other, m.MemberID, obj.ID, 1)
	assert.ErrorIs(t, err, policy.ErrForbidden)

	_, err = env.objectives.SetProgress(ctx, m, m.MemberID, obj.ID, 2)
	assert.ErrorIs(t, err, policy.ErrForbidden)

	_, err = env.objectives.StepProgress(ctx, m, m.MemberID, obj.ID, 0)
	assert.ErrorIs(t, err, ErrValidation)

	res, err := env.objectives.StepProgress(ctx, m, m.MemberID, obj.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Assignment.Progress)

	res, err = env.objectives.StepProgress(ctx, m, m.MemberID, obj.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Assignment.Progress)
	assert.False(t, res.JustCompleted)

	res, err = env.objectives.StepProgress(ctx, m, m.MemberID, obj.ID, 1)
	require.NoError(t, err)
	assert.True(t, res.JustCompleted)
	assert.Equal(t, 15, env.cachedPoints(t, m.MemberID))

	// Completed assignments do not move.
	res, err = env.objectives.StepProgress(ctx, m, m.MemberID, obj.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Assignment.Progress)
	assert.True(t, res.Assignment.Completed)
	assert.Equal(t, 15, env.cachedPoints(t, m.MemberID))
	assert.Equal(t, []string{EventObjectiveCompleted, EventPointsGranted}, env.events.types())
}

func TestUnassignKeepsPoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.member(t, models.RoleMember)
	obj := env.objective(t, 1, 30)

	_, err := env.objectives.Assign(ctx, m, m.MemberID, obj.ID)
	require.NoError(t, err)
	_, err = env.objectives.StepProgress(ctx, m, m.MemberID, obj.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 30, env.cachedPoints(t, m.MemberID))

	require.NoError(t, env.objectives.Unassign(ctx, m, m.MemberID, obj.ID))
	assert.Equal(t, 30, env.cachedPoints(t, m.MemberID))
	assert.EqualValues(t, 1, env.ledgerRows(t, m.MemberID))

	var count int64
	require.NoError(t, env.db.Model(&models.UserObjective{}).Where("member_id = ?", m.MemberID).Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, env.objectives.Unassign(ctx, m, m.MemberID, obj.ID), ErrNotFound)
}

func TestAssignRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.member(t, models.RoleMember)
	other := env.member(t, models.RoleMember)
	forDirectors := env.objective(t, 1, 5, models.RoleDirector)
	open := env.objective(t, 1, 5)

	_, err := env.objectives.Assign(ctx, m, m.MemberID, forDirectors.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.objectives.Assign(ctx, other, m.MemberID, open.ID)
	assert.ErrorIs(t, err, policy.ErrForbidden)

	_, err = env.objectives.Assign(ctx, m, m.MemberID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	a, err := env.objectives.Assign(ctx, m, m.MemberID, open.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, a.Progress)
	assert.False(t, a.Completed)

	_, err = env.objectives.Assign(ctx, m, m.MemberID, open.ID)
	assert.ErrorIs(t, err, ErrAlreadyAssigned)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestListForMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.member(t, models.RoleMember)
	env.objective(t, 1, 5, models.RoleDirector)
	open := env.objective(t, 4, 5)
	mine := env.objective(t, 2, 5, models.RoleMember)

	_, err := env.objectives.Assign(ctx, m, m.MemberID, mine.ID)
	require.NoError(t, err)

	list, err := env.objectives.ListForMember(ctx, m.MemberID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byID := map[uuid.UUID]models.MemberObjective{}
	for _, mo := range list {
		byID[mo.Objective.ID] = mo
	}
	assert.Nil(t, byID[open.ID].Assignment)
	require.NotNil(t, byID[mine.ID].Assignment)
	assert.False(t, byID[mine.ID].Assignment.Completed)
}

func TestCreateObjective(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.member(t, models.RoleVicePresident)
	m := env.member(t, models.RoleMember)
	private := true

	req := models.CreateObjectiveRequest{
		Title:      "Lead a community project",
		Group:      "project",
		ActionType: "lead",
		Feature:    "community",
		IsPrivate:  &private,
		Points:     60,
	}

	_, err := env.objectives.CreateObjective(ctx, m, req)
	assert.ErrorIs(t, err, policy.ErrForbidden)

	obj, err := env.objectives.CreateObjective(ctx, admin, req)
	require.NoError(t, err)
	assert.Equal(t, 1, obj.TargetCount)
	assert.Equal(t, models.DifficultyHard, obj.Difficulty)
	assert.Equal(t, admin.MemberID, obj.CreatedBy)

	bad := req
	bad.Feature = "workshop"
	_, err = env.objectives.CreateObjective(ctx, admin, bad)
	assert.ErrorIs(t, err, ErrValidation)

	noPrivacy := req
	noPrivacy.IsPrivate = nil
	_, err = env.objectives.CreateObjective(ctx, admin, noPrivacy)
	assert.ErrorIs(t, err, ErrValidation)

	badRole := req
	badRole.TargetRoles = []string{"mayor"}
	_, err = env.objectives.CreateObjective(ctx, admin, badRole)
	assert.ErrorIs(t, err, ErrValidation)

	negative := req
	negative.TargetCount = -1
	_, err = env.objectives.CreateObjective(ctx, admin, negative)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteObjectiveRemovesAssignments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.member(t, models.RolePresident)
	m := env.member(t, models.RoleMember)
	obj := env.objective(t, 1, 10)

	_, err := env.objectives.Assign(ctx, m, m.MemberID, obj.ID)
	require.NoError(t, err)
	_, err = env.objectives.StepProgress(ctx, m, m.MemberID, obj.ID, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, env.objectives.DeleteObjective(ctx, m, obj.ID), policy.ErrForbidden)
	require.NoError(t, env.objectives.DeleteObjective(ctx, admin, obj.ID))
	assert.ErrorIs(t, env.objectives.DeleteObjective(ctx, admin, obj.ID), ErrNotFound)

	_, err = env.objectives.GetObjective(ctx, obj.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, env.db.Model(&models.UserObjective{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, 10, env.cachedPoints(t, m.MemberID))
}
