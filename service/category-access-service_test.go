package service

import (
	"testing"

	"questboard/app_error"
	"questboard/auth"
	"questboard/repository"

	"github.com/stretchr/testify/assert"
)

func createTestCategory(t *testing.T, name string) *repository.Category {
	t.Helper()
	category := &repository.Category{Name: name, Description: "test category"}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("could not create category: %s", err)
	}
	return category
}

func TestGrantAccessIsIdempotent(t *testing.T) {
	defer TearDown()
	accessService := NewCategoryAccessService(db, auth.NewPermissionPolicy())

	user := createTestUser(t, "buyer")
	category := createTestCategory(t, "premium-guides")

	assert.NoError(t, accessService.GrantAccess(user.Id, category.Id))

	var original repository.CategoryAccess
	assert.NoError(t, db.First(&original, "user_id = ? AND category_id = ?", user.Id, category.Id).Error)

	// a second grant neither duplicates nor moves the grant timestamp
	assert.NoError(t, accessService.GrantAccess(user.Id, category.Id))

	var count int64
	db.Model(&repository.CategoryAccess{}).Where("user_id = ? AND category_id = ?", user.Id, category.Id).Count(&count)
	assert.Equal(t, int64(1), count)

	var after repository.CategoryAccess
	assert.NoError(t, db.First(&after, "user_id = ? AND category_id = ?", user.Id, category.Id).Error)
	assert.Equal(t, original.AccessGrantedAt.Unix(), after.AccessGrantedAt.Unix())
}

func TestGrantAccessUnknownCategory(t *testing.T) {
	defer TearDown()
	accessService := NewCategoryAccessService(db, auth.NewPermissionPolicy())

	user := createTestUser(t, "buyer")
	err := accessService.GrantAccess(user.Id, 4711)
	assert.ErrorIs(t, err, app_error.ErrNotFound)
}

func TestCheckAccess(t *testing.T) {
	defer TearDown()
	accessService := NewCategoryAccessService(db, auth.NewPermissionPolicy())

	user := createTestUser(t, "buyer")
	owned := createTestCategory(t, "premium-guides")
	notOwned := createTestCategory(t, "video-course")

	assert.NoError(t, accessService.GrantAccess(user.Id, owned.Id))

	granted, err := accessService.CheckAccess(user.Id, owned.Id)
	assert.NoError(t, err)
	assert.True(t, granted)

	granted, err = accessService.CheckAccess(user.Id, notOwned.Id)
	assert.NoError(t, err)
	assert.False(t, granted)
}

func TestBulkCheckAccessReportsAbsentAsFalse(t *testing.T) {
	defer TearDown()
	accessService := NewCategoryAccessService(db, auth.NewPermissionPolicy())

	user := createTestUser(t, "buyer")
	owned := createTestCategory(t, "premium-guides")
	notOwned := createTestCategory(t, "video-course")

	assert.NoError(t, accessService.GrantAccess(user.Id, owned.Id))

	access, err := accessService.BulkCheckAccess(user.Id, []int{owned.Id, notOwned.Id, 4711})
	assert.NoError(t, err)
	assert.Len(t, access, 3)
	assert.True(t, access[owned.Id])
	assert.False(t, access[notOwned.Id])
	assert.False(t, access[4711])
}
