package repository

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type ApprovalStatus = string

const (
	APPROVED ApprovalStatus = "APPROVED"
	REJECTED ApprovalStatus = "REJECTED"
	PENDING  ApprovalStatus = "PENDING"
)

type Submission struct {
	Id             int            `gorm:"primaryKey"`
	TaskId         int            `gorm:"not null;index"`
	UserId         int            `gorm:"not null;index"`
	Proof          string         `gorm:"not null"`
	Comment        string         `gorm:"not null"`
	ApprovalStatus ApprovalStatus `gorm:"not null"`
	ReviewComment  *string        `gorm:"null"`
	ReviewerId     *int           `gorm:"null"`
	CreatedAt      time.Time      `gorm:"not null"`

	Task *Task `gorm:"foreignKey:TaskId;constraint:OnDelete:CASCADE;"`
	User *User `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE;"`
}

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) GetSubmissionById(id int) (*Submission, error) {
	var submission Submission
	result := r.DB.Preload("Task").First(&submission, Submission{Id: id})
	if result.Error != nil {
		return nil, result.Error
	}
	return &submission, nil
}

func (r *SubmissionRepository) GetAllSubmissions() ([]*Submission, error) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("GetAllSubmissions"))
	defer timer.ObserveDuration()
	var submissions []*Submission
	result := r.DB.Preload("Task").Preload("User").Order("created_at DESC").Find(&submissions)
	if result.Error != nil {
		return nil, result.Error
	}
	return submissions, nil
}

func (r *SubmissionRepository) GetSubmissionsForUser(userId int) ([]*Submission, error) {
	var submissions []*Submission
	result := r.DB.Preload("Task").Order("created_at DESC").Find(&submissions, "user_id = ?", userId)
	if result.Error != nil {
		return nil, result.Error
	}
	return submissions, nil
}

func (r *SubmissionRepository) SaveSubmission(submission *Submission) (*Submission, error) {
	result := r.DB.Save(submission)
	if result.Error != nil {
		return nil, result.Error
	}
	return submission, nil
}

// Approve flips the submission to APPROVED and credits the submitter in one
// transaction. The status update is conditional on the row still being PENDING,
// so a concurrent approval of the same submission awards points at most once.
// Returns false when the submission was no longer pending and nothing was applied.
func (r *SubmissionRepository) Approve(submission *Submission, reviewerId int, reviewComment *string, points int) (bool, error) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("ApproveSubmission"))
	defer timer.ObserveDuration()
	applied := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Submission{}).
			Where("id = ? AND approval_status = ?", submission.Id, PENDING).
			Updates(map[string]interface{}{
				"approval_status": APPROVED,
				"reviewer_id":     reviewerId,
				"review_comment":  reviewComment,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		applied = true
		return tx.Model(&User{}).
			Where("id = ?", submission.UserId).
			UpdateColumn("points_balance", gorm.Expr("points_balance + ?", points)).Error
	})
	return applied, err
}

// Reject flips the submission to REJECTED, guarded by the same conditional
// update as Approve. No balance is touched.
func (r *SubmissionRepository) Reject(submission *Submission, reviewerId int, reviewComment *string) (bool, error) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("RejectSubmission"))
	defer timer.ObserveDuration()
	result := r.DB.Model(&Submission{}).
		Where("id = ? AND approval_status = ?", submission.Id, PENDING).
		Updates(map[string]interface{}{
			"approval_status": REJECTED,
			"reviewer_id":     reviewerId,
			"review_comment":  reviewComment,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *SubmissionRepository) DeleteSubmissionsForTask(taskId int) error {
	return r.DB.Delete(&Submission{}, "task_id = ?", taskId).Error
}
