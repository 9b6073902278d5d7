package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"questboard/app_error"
	"questboard/auth"
	"questboard/client"
	"questboard/config"
	"questboard/repository"

	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

type SubmissionService struct {
	submissionRepository *repository.SubmissionRepository
	taskRepository       *repository.TaskRepository
	authorizer           auth.Authorizer
	pointsFeed           *kafka.Writer
	discordClient        *client.DiscordClient
}

// PointsAwarded is the message published to the points feed for every approval.
type PointsAwarded struct {
	UserId       int       `json:"user_id"`
	TaskId       int       `json:"task_id"`
	SubmissionId int       `json:"submission_id"`
	Points       int       `json:"points"`
	AwardedAt    time.Time `json:"awarded_at"`
}

func NewSubmissionService(db *gorm.DB, authorizer auth.Authorizer) *SubmissionService {
	service := &SubmissionService{
		submissionRepository: repository.NewSubmissionRepository(db),
		taskRepository:       repository.NewTaskRepository(db),
		authorizer:           authorizer,
	}
	if writer, err := config.GetPointsFeedWriter(); err == nil {
		service.pointsFeed = writer
	}
	if discordClient, err := client.NewDiscordClient(); err == nil {
		service.discordClient = discordClient
	}
	return service
}

func (s *SubmissionService) GetSubmissionById(id int) (*repository.Submission, error) {
	submission, err := s.submissionRepository.GetSubmissionById(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, app_error.ErrNotFound
		}
		return nil, err
	}
	return submission, nil
}

func (s *SubmissionService) GetAllSubmissions() ([]*repository.Submission, error) {
	return s.submissionRepository.GetAllSubmissions()
}

func (s *SubmissionService) GetSubmissionsForUser(userId int) ([]*repository.Submission, error) {
	return s.submissionRepository.GetSubmissionsForUser(userId)
}

// CreateSubmission records work against a published task. The submission always
// starts out pending, submitters cannot choose a status and cannot edit the
// record afterwards.
func (s *SubmissionService) CreateSubmission(submission *repository.Submission, submitter *repository.User) (*repository.Submission, error) {
	task, err := s.taskRepository.GetTaskById(submission.TaskId)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, app_error.ErrNotFound
		}
		return nil, err
	}
	if task.Status != repository.TaskPublished {
		return nil, fmt.Errorf("task %q is not open for submissions", task.Title)
	}
	submission.Id = 0
	submission.ApprovalStatus = repository.PENDING
	submission.UserId = submitter.Id
	submission.ReviewerId = nil
	submission.ReviewComment = nil
	submission.CreatedAt = time.Now()
	return s.submissionRepository.SaveSubmission(submission)
}

// ReviewSubmission applies the pending -> approved|rejected transition.
// Approval credits the submitter with the task's point value in the same
// transaction as the status flip. The flip is conditional on the row still
// being pending, so reviewing an already reviewed submission (or losing a race
// against a concurrent reviewer) returns ErrInvalidState without touching any
// balance. Callers can treat that as "already happened" and skip retrying.
func (s *SubmissionService) ReviewSubmission(submissionId int, status repository.ApprovalStatus, reviewComment *string, reviewer *repository.User) (*repository.Submission, error) {
	if !s.authorizer.CanModerate(reviewer) {
		return nil, app_error.ErrUnauthorized
	}
	if status != repository.APPROVED && status != repository.REJECTED {
		return nil, fmt.Errorf("invalid review status %q", status)
	}
	submission, err := s.GetSubmissionById(submissionId)
	if err != nil {
		return nil, err
	}
	if submission.ApprovalStatus != repository.PENDING {
		return submission, app_error.ErrInvalidState
	}
	task, err := s.taskRepository.GetTaskById(submission.TaskId)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, app_error.ErrNotFound
		}
		return nil, err
	}

	var applied bool
	if status == repository.APPROVED {
		applied, err = s.submissionRepository.Approve(submission, reviewer.Id, reviewComment, task.PointValue)
	} else {
		applied, err = s.submissionRepository.Reject(submission, reviewer.Id, reviewComment)
	}
	if err != nil {
		return nil, err
	}
	if !applied {
		// lost the race against another reviewer
		submission, err = s.GetSubmissionById(submissionId)
		if err != nil {
			return nil, err
		}
		return submission, app_error.ErrInvalidState
	}

	submission.ApprovalStatus = status
	submission.ReviewerId = &reviewer.Id
	submission.ReviewComment = reviewComment
	repository.SubmissionsReviewedCounter.WithLabelValues(status).Inc()
	if status == repository.APPROVED {
		repository.PointsAwardedCounter.Add(float64(task.PointValue))
		s.publishPointsAwarded(submission, task)
	}
	s.notifyReviewed(submission, task)
	return submission, nil
}

// publishPointsAwarded writes the award to the points feed. Failures are logged
// and never fail the review, the feed is an analytics side channel.
func (s *SubmissionService) publishPointsAwarded(submission *repository.Submission, task *repository.Task) {
	if s.pointsFeed == nil {
		return
	}
	event := PointsAwarded{
		UserId:       submission.UserId,
		TaskId:       task.Id,
		SubmissionId: submission.Id,
		Points:       task.PointValue,
		AwardedAt:    time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to serialize points feed event: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.pointsFeed.WriteMessages(ctx, kafka.Message{Value: payload}); err != nil {
		log.Printf("failed to publish points feed event: %v", err)
	}
}

func (s *SubmissionService) notifyReviewed(submission *repository.Submission, task *repository.Task) {
	if s.discordClient == nil {
		return
	}
	if err := s.discordClient.NotifySubmissionReviewed(submission, task); err != nil {
		log.Printf("failed to send review notification: %v", err)
	}
}
