package services

import (
	"sync"
	"testing"
	"time"

	"github.com/arnold/jcihub-api/internal/database"
	"github.com/arnold/jcihub-api/internal/models"
	"github.com/arnold/jcihub-api/internal/policy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	db         *gorm.DB
	now        time.Time
	events     *recorder
	points     *PointsService
	objectives *ObjectiveService
	activities *ActivityService
	members    *MemberService
	candidates *CandidateService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open("file::memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	env := &testEnv{
		db:     db,
		now:    time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC),
		events: &recorder{},
	}
	deps := Deps{
		DB:       db,
		Policy:   policy.Default(),
		Notifier: NewNotificationService(db, nil, nil),
		Events:   env.events,
		Now:      func() time.Time { return env.now },
	}
	env.points = NewPointsService(deps)
	env.objectives = NewObjectiveService(deps, env.points)
	env.activities = NewActivityService(deps, env.points)
	env.members = NewMemberService(deps)
	env.candidates = NewCandidateService(deps)
	return env
}

func (e *testEnv) member(t *testing.T, role models.Role) policy.Actor {
	t.Helper()
	m := models.Member{
		Email:       uuid.NewString() + "@jci.test",
		DisplayName: string(role),
		Role:        role,
	}
	require.NoError(t, e.db.Create(&m).Error)
	return policy.Actor{MemberID: m.ID, Role: m.Role}
}

func (e *testEnv) objective(t *testing.T, target, points int, roles ...models.Role) *models.Objective {
	t.Helper()
	class, err := models.NewClassification(models.GroupTraining, "attend", "workshop")
	require.NoError(t, err)
	obj := models.Objective{
		Title:          "Attend a workshop",
		Classification: class,
		Difficulty:     models.DeriveDifficulty(points, target),
		TargetRoles:    roles,
		TargetCount:    target,
		Points:         points,
	}
	require.NoError(t, e.db.Create(&obj).Error)
	return &obj
}

func (e *testEnv) cachedPoints(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var m models.Member
	require.NoError(t, e.db.First(&m, "id = ?", id).Error)
	return m.Points
}

func (e *testEnv) ledgerSum(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var sum int64
	require.NoError(t, e.db.Model(&models.PointsHistoryEntry{}).
		Where("member_id = ?", id).
		Select("COALESCE(SUM(points), 0)").
		Row().Scan(&sum))
	return int(sum)
}

func (e *testEnv) ledgerRows(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.PointsHistoryEntry{}).Where("member_id = ?", id).Count(&n).Error)
	return n
}
