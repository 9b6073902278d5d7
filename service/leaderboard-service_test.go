package service

import (
	"testing"

	"questboard/auth"
	"questboard/repository"

	"github.com/stretchr/testify/assert"
)

func TestLeaderboardOrderingAndTieBreak(t *testing.T) {
	defer TearDown()
	leaderboardService := NewLeaderboardService(db)

	admin := createTestUser(t, "admin", repository.PermissionAdmin)
	first := createTestUser(t, "first")
	second := createTestUser(t, "second")
	third := createTestUser(t, "third")

	db.Model(&repository.User{}).Where("id = ?", admin.Id).Update("points_balance", 1000)
	db.Model(&repository.User{}).Where("id = ?", first.Id).Update("points_balance", 30)
	db.Model(&repository.User{}).Where("id = ?", second.Id).Update("points_balance", 50)
	db.Model(&repository.User{}).Where("id = ?", third.Id).Update("points_balance", 30)

	entries, err := leaderboardService.GetLeaderboard()
	assert.NoError(t, err)
	assert.Len(t, entries, 3)

	// admin accounts are excluded regardless of balance
	for _, entry := range entries {
		assert.NotEqual(t, admin.Id, entry.UserId)
	}

	// balances are non-increasing, equal balances are ordered by user id
	assert.Equal(t, second.Id, entries[0].UserId)
	assert.Equal(t, first.Id, entries[1].UserId)
	assert.Equal(t, third.Id, entries[2].UserId)
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].PointsBalance, entries[i].PointsBalance)
	}

	// tied users share a rank
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 2, entries[2].Rank)
}

func TestLeaderboardReflectsApprovals(t *testing.T) {
	defer TearDown()
	authorizer := auth.NewPermissionPolicy()
	submissionService := NewSubmissionService(db, authorizer)
	leaderboardService := NewLeaderboardService(db)

	admin := createTestUser(t, "admin", repository.PermissionAdmin)
	submitter := createTestUser(t, "submitter")
	task := createTestTask(t, "write a parser", 40, repository.TaskPublished)

	submission, err := submissionService.CreateSubmission(&repository.Submission{
		TaskId: task.Id,
		Proof:  "https://example.com/proof",
	}, submitter)
	assert.NoError(t, err)

	entries, err := leaderboardService.GetLeaderboard()
	assert.NoError(t, err)
	assert.Equal(t, 0, entries[0].PointsBalance)

	_, err = submissionService.ReviewSubmission(submission.Id, repository.APPROVED, nil, admin)
	assert.NoError(t, err)

	entries, err = leaderboardService.GetLeaderboard()
	assert.NoError(t, err)
	assert.Equal(t, submitter.Id, entries[0].UserId)
	assert.Equal(t, 40, entries[0].PointsBalance)
}
