package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClassification(t *testing.T) {
	c, err := NewClassification(GroupEvent, "attend", "general_assembly")
	require.NoError(t, err)
	assert.True(t, c.RequiresPrivacy())

	_, err = NewClassification(GroupEvent, "publish", "article")
	assert.ErrorIs(t, err, ErrInvalidClassification)

	_, err = NewClassification(GroupTraining, "attend", "fundraiser")
	assert.ErrorIs(t, err, ErrInvalidClassification)

	_, err = NewClassification(Group("sports"), "attend", "workshop")
	assert.ErrorIs(t, err, ErrInvalidClassification)
}

func TestClassificationCatalogIsACopy(t *testing.T) {
	catalog := ClassificationCatalog()
	catalog[GroupTraining]["attend"][0] = "tampered"

	_, err := NewClassification(GroupTraining, "attend", "workshop")
	assert.NoError(t, err)
}

func TestDeriveDifficulty(t *testing.T) {
	tests := []struct {
		points, target int
		want           Difficulty
	}{
		{5, 1, DifficultyEasy},
		{20, 1, DifficultyMedium},
		{5, 4, DifficultyMedium},
		{50, 1, DifficultyHard},
		{0, 10, DifficultyHard},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveDifficulty(tt.points, tt.target), "points=%d target=%d", tt.points, tt.target)
	}
}

func TestObjectiveValidate(t *testing.T) {
	private := false
	base := Objective{
		Classification: Classification{Group: GroupProject, ActionType: "lead", Feature: "business"},
		Difficulty:     DifficultyEasy,
		IsPrivate:      &private,
		TargetCount:    1,
	}
	assert.NoError(t, base.Validate())

	noFlag := base
	noFlag.IsPrivate = nil
	assert.ErrorIs(t, noFlag.Validate(), ErrInvalidClassification)

	extraFlag := base
	extraFlag.Classification = Classification{Group: GroupTraining, ActionType: "attend", Feature: "webinar"}
	assert.ErrorIs(t, extraFlag.Validate(), ErrInvalidClassification)

	zeroTarget := base
	zeroTarget.TargetCount = 0
	assert.Error(t, zeroTarget.Validate())

	badDifficulty := base
	badDifficulty.Difficulty = "legendary"
	assert.Error(t, badDifficulty.Validate())
}

func TestEligibleFor(t *testing.T) {
	open := Objective{}
	assert.True(t, open.EligibleFor(RoleMember))

	scoped := Objective{TargetRoles: []Role{RoleDirector, RolePresident}}
	assert.True(t, scoped.EligibleFor(RoleDirector))
	assert.False(t, scoped.EligibleFor(RoleMember))
}

func TestUserObjectiveResolve(t *testing.T) {
	uo := UserObjective{Progress: 2}
	uo.Resolve(3)
	assert.False(t, uo.Completed)
	uo.Progress = 3
	uo.Resolve(3)
	assert.True(t, uo.Completed)
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2026, time.October, 17, 12, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, time.October, 10, 12, 30, 0, 0, time.UTC), WindowWeek.Start(now))
	assert.Equal(t, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC), WindowMonth.Start(now))
	assert.Equal(t, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC), WindowQuarter.Start(now))
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), WindowYear.Start(now))
	assert.True(t, WindowAll.Start(now).IsZero())

	feb := time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), WindowQuarter.Start(feb))
}

func TestMemberLevel(t *testing.T) {
	levels := map[int]string{0: "bronze", 99: "bronze", 100: "silver", 500: "gold", 2000: "diamond"}
	for points, want := range levels {
		m := Member{Points: points}
		assert.Equal(t, want, m.Level(), "points=%d", points)
	}

	r, ok := ParseRole(" Vice_President ")
	assert.True(t, ok)
	assert.Equal(t, RoleVicePresident, r)
	_, ok = ParseRole("mayor")
	assert.False(t, ok)
}
