package controller

import (
	"errors"
	"strconv"
	"time"

	"questboard/app_error"
	"questboard/auth"
	"questboard/repository"
	"questboard/service"
	"questboard/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SubmissionController struct {
	submissionService     *service.SubmissionService
	userService           *service.UserService
	leaderboardController *LeaderboardController
}

func NewSubmissionController(db *gorm.DB, authorizer auth.Authorizer, leaderboardController *LeaderboardController) *SubmissionController {
	return &SubmissionController{
		submissionService:     service.NewSubmissionService(db, authorizer),
		userService:           service.NewUserService(db, authorizer),
		leaderboardController: leaderboardController,
	}
}

func setupSubmissionController(db *gorm.DB, authorizer auth.Authorizer, leaderboardController *LeaderboardController) []RouteInfo {
	e := NewSubmissionController(db, authorizer, leaderboardController)
	routes := []RouteInfo{
		{Method: "PUT", Path: "/tasks/:task_id/submissions", HandlerFunc: e.createSubmissionHandler(), Authenticated: true},
		{Method: "GET", Path: "/submissions", HandlerFunc: e.getSubmissionsHandler(), Authenticated: true, RequiredPermissions: []repository.Permission{repository.PermissionAdmin}},
		{Method: "GET", Path: "/users/self/submissions", HandlerFunc: e.getOwnSubmissionsHandler(), Authenticated: true},
		{Method: "PUT", Path: "/submissions/:submission_id/review", HandlerFunc: e.reviewSubmissionHandler(), Authenticated: true, RequiredPermissions: []repository.Permission{repository.PermissionAdmin}},
	}
	return routes
}

// @id CreateSubmission
// @Description Submits work against a published task
// @Tags submission
// @Accept json
// @Security BearerAuth
// @Produce json
// @Param task_id path int true "Task Id"
// @Param body body SubmissionCreate true "Submission to create"
// @Success 201 {object} Submission
// @Router /tasks/{task_id}/submissions [put]
func (e *SubmissionController) createSubmissionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var submissionCreate SubmissionCreate
		if err := c.BindJSON(&submissionCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		taskId, err := strconv.Atoi(c.Param("task_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		submission := submissionCreate.toModel()
		submission.TaskId = taskId
		submission, err = e.submissionService.CreateSubmission(submission, user)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(201, toSubmissionResponse(submission))
	}
}

// @id GetSubmissions
// @Description Fetches all submissions for review
// @Tags submission
// @Produce json
// @Security BearerAuth
// @Success 200 {array} Submission
// @Router /submissions [get]
func (e *SubmissionController) getSubmissionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		submissions, err := e.submissionService.GetAllSubmissions()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(submissions, toSubmissionResponse))
	}
}

// @id GetOwnSubmissions
// @Description Fetches the calling user's submissions
// @Tags submission
// @Produce json
// @Security BearerAuth
// @Success 200 {array} Submission
// @Router /users/self/submissions [get]
func (e *SubmissionController) getOwnSubmissionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		submissions, err := e.submissionService.GetSubmissionsForUser(user.Id)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(submissions, toSubmissionResponse))
	}
}

// @id ReviewSubmission
// @Description Approves or rejects a pending submission. Approval awards the
// @Description task's points to the submitter. Reviewing an already reviewed
// @Description submission changes nothing and responds with a warning.
// @Tags submission
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param submission_id path int true "Submission Id"
// @Param submission body SubmissionReview true "Submission review"
// @Success 200 {object} Submission
// @Router /submissions/{submission_id}/review [put]
func (e *SubmissionController) reviewSubmissionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		submissionId, err := strconv.Atoi(c.Param("submission_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, err := e.userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		var submissionReview SubmissionReview
		if err := c.BindJSON(&submissionReview); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var reviewComment *string
		if submissionReview.ReviewComment != "" {
			reviewComment = &submissionReview.ReviewComment
		}
		submission, err := e.submissionService.ReviewSubmission(submissionId, submissionReview.ApprovalStatus, reviewComment, user)
		if err != nil {
			if errors.Is(err, app_error.ErrInvalidState) {
				// duplicate review, nothing was applied
				c.JSON(200, gin.H{
					"warning":    err.Error(),
					"submission": toSubmissionResponse(submission),
				})
				return
			}
			app_error.Respond(c, err)
			return
		}
		if submission.ApprovalStatus == repository.APPROVED {
			e.leaderboardController.Refresh()
		}
		c.JSON(200, toSubmissionResponse(submission))
	}
}

type SubmissionCreate struct {
	Proof   string `json:"proof" binding:"required"`
	Comment string `json:"comment"`
}

type SubmissionReview struct {
	ApprovalStatus repository.ApprovalStatus `json:"approval_status" binding:"required,oneof=APPROVED REJECTED"`
	ReviewComment  string                    `json:"review_comment"`
}

func (s *SubmissionCreate) toModel() *repository.Submission {
	return &repository.Submission{
		Proof:   s.Proof,
		Comment: s.Comment,
	}
}

type Submission struct {
	Id             int                       `json:"id" binding:"required"`
	Task           *Task                     `json:"task"`
	UserId         int                       `json:"user_id" binding:"required"`
	Proof          string                    `json:"proof" binding:"required"`
	Comment        string                    `json:"comment"`
	ApprovalStatus repository.ApprovalStatus `json:"approval_status" binding:"required"`
	ReviewComment  *string                   `json:"review_comment"`
	ReviewerId     *int                      `json:"reviewer_id"`
	CreatedAt      time.Time                 `json:"created_at"`
}

func toSubmissionResponse(submission *repository.Submission) *Submission {
	if submission == nil {
		return nil
	}
	return &Submission{
		Id:             submission.Id,
		Task:           toTaskResponse(submission.Task),
		UserId:         submission.UserId,
		Proof:          submission.Proof,
		Comment:        submission.Comment,
		ApprovalStatus: submission.ApprovalStatus,
		ReviewComment:  submission.ReviewComment,
		ReviewerId:     submission.ReviewerId,
		CreatedAt:      submission.CreatedAt,
	}
}
