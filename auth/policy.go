package auth

import (
	"questboard/repository"
	"questboard/utils"
)

// Authorizer decides whether a user may perform lifecycle-mutating operations
// (reviewing submissions, editing the task catalog, granting access). Every
// such operation checks this gate before touching any store and fails closed.
type Authorizer interface {
	CanModerate(user *repository.User) bool
}

// PermissionPolicy authorizes users carrying the admin permission. Richer role
// models only need a new Authorizer implementation, call sites stay unchanged.
type PermissionPolicy struct{}

func NewPermissionPolicy() *PermissionPolicy {
	return &PermissionPolicy{}
}

func (p *PermissionPolicy) CanModerate(user *repository.User) bool {
	if user == nil {
		return false
	}
	return utils.Contains(user.Permissions, repository.PermissionAdmin)
}
