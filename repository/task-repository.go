package repository

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type TaskStatus = string

const (
	TaskDraft     TaskStatus = "DRAFT"
	TaskPublished TaskStatus = "PUBLISHED"
)

type Task struct {
	Id          int        `gorm:"primaryKey"`
	Title       string     `gorm:"not null"`
	Description string     `gorm:"not null"`
	PointValue  int        `gorm:"not null;check:point_value >= 0"`
	Status      TaskStatus `gorm:"not null;default:'DRAFT'"`
	CreatedAt   time.Time  `gorm:"not null"`

	Submissions []*Submission `gorm:"foreignKey:TaskId;constraint:OnDelete:CASCADE"`
}

type TaskRepository struct {
	DB *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{DB: db}
}

func (r *TaskRepository) GetTaskById(id int) (*Task, error) {
	var task Task
	result := r.DB.First(&task, id)
	if result.Error != nil {
		return nil, result.Error
	}
	return &task, nil
}

func (r *TaskRepository) GetTasks(statuses ...TaskStatus) ([]*Task, error) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("GetTasks"))
	defer timer.ObserveDuration()
	var tasks []*Task
	query := r.DB
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	result := query.Order("id ASC").Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

func (r *TaskRepository) SaveTask(task *Task) (*Task, error) {
	result := r.DB.Save(task)
	if result.Error != nil {
		return nil, result.Error
	}
	return task, nil
}

func (r *TaskRepository) HasSubmissions(taskId int) (bool, error) {
	var count int64
	result := r.DB.Model(&Submission{}).Where("task_id = ?", taskId).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// DeleteTask removes the task and all its submissions. Points awarded for
// approved submissions are kept, awarded points are a historical fact.
func (r *TaskRepository) DeleteTask(taskId int) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Submission{}, "task_id = ?", taskId).Error; err != nil {
			return err
		}
		return tx.Delete(&Task{Id: taskId}).Error
	})
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
