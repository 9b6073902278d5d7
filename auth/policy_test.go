package auth

import (
	"testing"

	"questboard/repository"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestCanModerate(t *testing.T) {
	policy := NewPermissionPolicy()

	admin := &repository.User{Permissions: pq.StringArray{repository.PermissionAdmin}}
	assert.True(t, policy.CanModerate(admin))

	regular := &repository.User{Permissions: pq.StringArray{}}
	assert.False(t, policy.CanModerate(regular))

	multi := &repository.User{Permissions: pq.StringArray{"SOMETHING_ELSE", repository.PermissionAdmin}}
	assert.True(t, policy.CanModerate(multi))

	assert.False(t, policy.CanModerate(nil))
}
