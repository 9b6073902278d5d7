package service

import (
	"testing"

	"questboard/app_error"
	"questboard/auth"
	"questboard/repository"

	"github.com/stretchr/testify/assert"
)

func balanceOf(t *testing.T, userId int) int {
	t.Helper()
	var user repository.User
	if err := db.First(&user, userId).Error; err != nil {
		t.Fatalf("could not load user: %s", err)
	}
	return user.PointsBalance
}

func TestApproveAwardsPointsExactlyOnce(t *testing.T) {
	defer TearDown()
	authorizer := auth.NewPermissionPolicy()
	submissionService := NewSubmissionService(db, authorizer)

	admin := createTestUser(t, "admin", repository.PermissionAdmin)
	submitter := createTestUser(t, "submitter")
	task := createTestTask(t, "write a parser", 10, repository.TaskPublished)

	submission, err := submissionService.CreateSubmission(&repository.Submission{
		TaskId: task.Id,
		Proof:  "https://example.com/proof",
	}, submitter)
	assert.NoError(t, err)
	assert.Equal(t, repository.PENDING, submission.ApprovalStatus)

	reviewed, err := submissionService.ReviewSubmission(submission.Id, repository.APPROVED, nil, admin)
	assert.NoError(t, err)
	assert.Equal(t, repository.APPROVED, reviewed.ApprovalStatus)
	assert.Equal(t, 10, balanceOf(t, submitter.Id))

	// a second approval is a no-op and must not double-credit
	reviewed, err = submissionService.ReviewSubmission(submission.Id, repository.APPROVED, nil, admin)
	assert.ErrorIs(t, err, app_error.ErrInvalidState)
	assert.Equal(t, repository.APPROVED, reviewed.ApprovalStatus)
	assert.Equal(t, 10, balanceOf(t, submitter.Id))
}

func TestRejectDoesNotTouchBalance(t *testing.T) {
	defer TearDown()
	authorizer := auth.NewPermissionPolicy()
	submissionService := NewSubmissionService(db, authorizer)

	admin := createTestUser(t, "admin", repository.PermissionAdmin)
	submitter := createTestUser(t, "submitter")
	task := createTestTask(t, "write a parser", 10, repository.TaskPublished)

	submission, err := submissionService.CreateSubmission(&repository.Submission{
		TaskId: task.Id,
		Proof:  "https://example.com/proof",
	}, submitter)
	assert.NoError(t, err)

	reviewed, err := submissionService.ReviewSubmission(submission.Id, repository.REJECTED, nil, admin)
	assert.NoError(t, err)
	assert.Equal(t, repository.REJECTED, reviewed.ApprovalStatus)
	assert.Equal(t, 0, balanceOf(t, submitter.Id))
}

func TestRejectAfterApprovalIsNoOp(t *testing.T) {
	defer TearDown()
	authorizer := auth.NewPermissionPolicy()
	submissionService := NewSubmissionService(db, authorizer)

	admin := createTestUser(t, "admin", repository.PermissionAdmin)
	submitter := createTestUser(t, "submitter")
	task := createTestTask(t, "write a parser", 25, repository.TaskPublished)

	submission, err := submissionService.CreateSubmission(&repository.Submission{
		TaskId: task.Id,
		Proof:  "https://example.com/proof",
	}, submitter)
	assert.NoError(t, err)

	_, err = submissionService.ReviewSubmission(submission.Id, repository.APPROVED, nil, admin)
	assert.NoError(t, err)

	reviewed, err := submissionService.ReviewSubmission(submission.Id, repository.REJECTED, nil, admin)
	assert.ErrorIs(t, err, app_error.ErrInvalidState)
	assert.Equal(t, repository.APPROVED, reviewed.ApprovalStatus)
	assert.Equal(t, 25, balanceOf(t, submitter.Id))
}

func TestRepeatedApprovalsAccumulate(t *testing.T) {
	defer TearDown()
	authorizer := auth.NewPermissionPolicy()
	submissionService := NewSubmissionService(db, authorizer)

	admin := createTestUser(t, "admin", repository.PermissionAdmin)
	submitter := createTestUser(t, "submitter")
	task := createTestTask(t, "daily challenge", 7, repository.TaskPublished)

	for i := 0; i < 3; i++ {
		submission, err := submissionService.CreateSubmission(&repository.Submission{
			TaskId: task.Id,
			Proof:  "https://example.com/proof",
		}, submitter)
		assert.NoError(t, err)
		_, err = submissionService.ReviewSubmission(submission.Id, repository.APPROVED, nil, admin)
		assert.NoError(t, err)
	}
	assert.Equal(t, 21, balanceOf(t, submitter.Id))
}

func TestReviewRequiresModerator(t *testing.T) {
	defer TearDown()
	authorizer := auth.NewPermissionPolicy()
	submissionService := NewSubmissionService(db, authorizer)

	submitter := createTestUser(t, "submitter")
	reviewer := createTestUser(t, "not-an-admin")
	task := createTestTask(t, "write a parser", 10, repository.TaskPublished)

	submission, err := submissionService.CreateSubmission(&repository.Submission{
		TaskId: task.Id,
		Proof:  "https://example.com/proof",
	}, submitter)
	assert.NoError(t, err)

	_, err = submissionService.ReviewSubmission(submission.Id, repository.APPROVED, nil, reviewer)
	assert.ErrorIs(t, err, app_error.ErrUnauthorized)

	stored, err := submissionService.GetSubmissionById(submission.Id)
	assert.NoError(t, err)
	assert.Equal(t, repository.PENDING, stored.ApprovalStatus)
	assert.Equal(t, 0, balanceOf(t, submitter.Id))
}

func TestSubmissionToDraftTaskFails(t *testing.T) {
	defer TearDown()
	authorizer := auth.NewPermissionPolicy()
	submissionService := NewSubmissionService(db, authorizer)

	submitter := createTestUser(t, "submitter")
	task := createTestTask(t, "unreleased", 10, repository.TaskDraft)

	_, err := submissionService.CreateSubmission(&repository.Submission{
		TaskId: task.Id,
		Proof:  "https://example.com/proof",
	}, submitter)
	assert.Error(t, err)
}

func TestTaskDeletionCascadesButKeepsPoints(t *testing.T) {
	defer TearDown()
	authorizer := auth.NewPermissionPolicy()
	submissionService := NewSubmissionService(db, authorizer)
	taskService := NewTaskService(db, authorizer)

	admin := createTestUser(t, "admin", repository.PermissionAdmin)
	submitter := createTestUser(t, "submitter")
	task := createTestTask(t, "write a parser", 10, repository.TaskPublished)

	submission, err := submissionService.CreateSubmission(&repository.Submission{
		TaskId: task.Id,
		Proof:  "https://example.com/proof",
	}, submitter)
	assert.NoError(t, err)
	_, err = submissionService.ReviewSubmission(submission.Id, repository.APPROVED, nil, admin)
	assert.NoError(t, err)

	err = taskService.DeleteTask(task.Id, admin)
	assert.NoError(t, err)

	var count int64
	db.Model(&repository.Submission{}).Where("task_id = ?", task.Id).Count(&count)
	assert.Equal(t, int64(0), count)
	// awarded points are a historical fact, catalog changes do not reverse them
	assert.Equal(t, 10, balanceOf(t, submitter.Id))
}
