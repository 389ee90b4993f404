package service

import "github.com/vedran77/tally/internal/domain"

type Action string

const (
	ActionSetStandardRate Action = "rate:set"
)

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Authorizer decides whether a user may perform an action.
type Authorizer interface {
	IsAuthorized(user *domain.User, action Action) bool
}

// RoleAuthorizer maps a user's role to the actions it allows.
type RoleAuthorizer struct {
	grants map[Role]map[Action]bool
}

func NewRoleAuthorizer() *RoleAuthorizer {
	return &RoleAuthorizer{
		grants: map[Role]map[Action]bool{
			RoleMember: {},
			RoleAdmin: {
				ActionSetStandardRate: true,
			},
		},
	}
}

func RoleOf(user *domain.User) Role {
	if user.IsAdmin {
		return RoleAdmin
	}
	return RoleMember
}

func (a *RoleAuthorizer) IsAuthorized(user *domain.User, action Action) bool {
	if user == nil {
		return false
	}
	return a.grants[RoleOf(user)][action]
}
