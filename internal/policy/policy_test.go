package policy

import (
	"testing"

	"github.com/arnold/jcihub-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	p := Default()
	self := uuid.New()
	other := uuid.New()

	tests := []struct {
		name    string
		role    models.Role
		action  Action
		subject uuid.UUID
		want    bool
	}{
		{"executive grants manual points", models.RoleTreasurer, GrantManualPoints, other, true},
		{"member cannot grant manual points", models.RoleMember, GrantManualPoints, self, false},
		{"director is not executive by default", models.RoleDirector, ManageObjectives, uuid.Nil, false},
		{"member assigns own objective", models.RoleMember, AssignObjective, self, true},
		{"member cannot assign for another", models.RoleMember, AssignObjective, other, false},
		{"member steps own progress", models.RoleMember, StepProgress, self, true},
		{"member cannot override progress", models.RoleMember, SetProgress, self, false},
		{"executive overrides progress", models.RolePresident, SetProgress, other, true},
		{"member unassigns own objective", models.RoleMember, UnassignObjective, self, true},
		{"member edits own profile", models.RoleMember, EditProfile, self, true},
		{"member cannot record participation", models.RoleMember, RecordParticipation, self, false},
		{"self-serve needs a subject", models.RoleMember, AssignObjective, uuid.Nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Evaluate(Actor{MemberID: self, Role: tt.role}, tt.action, tt.subject)
			assert.Equal(t, tt.want, d.Allowed, d.Reason)
			assert.NotEmpty(t, d.Reason)
			if tt.want {
				assert.NoError(t, d.Err())
			} else {
				assert.ErrorIs(t, d.Err(), ErrForbidden)
			}
		})
	}
}

func TestEvaluateAnonymous(t *testing.T) {
	d := Default().Evaluate(Actor{Role: models.RolePresident}, ManageMembers, uuid.Nil)
	assert.False(t, d.Allowed)
	assert.Equal(t, "not authenticated", d.Reason)
}

func TestNewNormalizesRoles(t *testing.T) {
	p := New([]string{" Director ", "PRESIDENT"})
	assert.True(t, p.IsExecutive(models.RoleDirector))
	assert.True(t, p.IsExecutive(models.RolePresident))
	assert.False(t, p.IsExecutive(models.RoleTreasurer))
}
