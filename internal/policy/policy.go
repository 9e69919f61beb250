// Package policy decides whether an actor may perform a mutation.
//
// Rules:
//   - Executives may perform every action.
//   - Any member may assign, step or unassign objectives on their own
//     record, and edit their own profile.
//   - Everything else (manual grants, reconciliation, objective catalog,
//     direct progress overrides, member administration, activities,
//     recruitment) is executive-only.
package policy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arnold/jcihub-api/internal/models"
	"github.com/google/uuid"
)

var ErrForbidden = errors.New("forbidden")

type Action string

const (
	GrantManualPoints   Action = "grant_manual_points"
	ReconcilePoints     Action = "reconcile_points"
	ManageObjectives    Action = "manage_objectives"
	AssignObjective     Action = "assign_objective"
	StepProgress        Action = "step_progress"
	SetProgress         Action = "set_progress"
	UnassignObjective   Action = "unassign_objective"
	ManageMembers       Action = "manage_members"
	EditProfile         Action = "edit_profile"
	ManageActivities    Action = "manage_activities"
	RecordParticipation Action = "record_participation"
	ManageCandidates    Action = "manage_candidates"
)

var selfServe = map[Action]bool{
	AssignObjective:   true,
	StepProgress:      true,
	UnassignObjective: true,
	EditProfile:       true,
}

// Actor is the authenticated member performing a request.
type Actor struct {
	MemberID uuid.UUID
	Role     models.Role
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

// Err returns nil when allowed, otherwise an error wrapping ErrForbidden.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
}

// Policy holds the set of roles treated as executive.
type Policy struct {
	executive map[models.Role]bool
}

func New(executiveRoles []string) *Policy {
	p := &Policy{executive: make(map[models.Role]bool, len(executiveRoles))}
	for _, r := range executiveRoles {
		p.executive[models.Role(strings.ToLower(strings.TrimSpace(r)))] = true
	}
	return p
}

// Default uses the president, vice president, secretary and treasurer.
func Default() *Policy {
	return New([]string{
		string(models.RolePresident),
		string(models.RoleVicePresident),
		string(models.RoleSecretary),
		string(models.RoleTreasurer),
	})
}

func (p *Policy) IsExecutive(role models.Role) bool {
	return p.executive[role]
}

// Evaluate decides whether actor may perform action on the member
// identified by subject. subject may be uuid.Nil for actions that do not
// target a member record.
func (p *Policy) Evaluate(actor Actor, action Action, subject uuid.UUID) Decision {
	if actor.MemberID == uuid.Nil {
		return Decision{Reason: "not authenticated"}
	}
	if p.IsExecutive(actor.Role) {
		return Decision{Allowed: true, Reason: "executive role"}
	}
	if selfServe[action] {
		if subject != uuid.Nil && subject == actor.MemberID {
			return Decision{Allowed: true, Reason: "own record"}
		}
		return Decision{Reason: fmt.Sprintf("%s on another member requires an executive role", action)}
	}
	return Decision{Reason: fmt.Sprintf("%s requires an executive role", action)}
}
